package mvc

// Model is the data-holding role. ProcessCommand receives the model's own
// commands; the token schedules follow-up work and view notifications.
//
// A Model may also implement ControllerNotificationTranslator. Without it every
// controller notification is absorbed.
type Model[MC, MN, VC, CC, CN, T, P any] interface {
	ProcessCommand(tok *ModelToken[MC, MN, VC, CC, CN, T, P], cmd MC)
}

// View is the presentation role.
//
// Optional hooks: ModelNotificationTranslator (default: absorb), OutputRedirector
// (default: log) and OutputSyncer (default: log, parameter untouched).
type View[MC, MN, VC, CC, CN, T, P any] interface {
	ProcessCommand(tok *ViewToken[MC, MN, VC, CC, CN, T, P], cmd VC)
}

// Controller is the input-handling role. Every ProcessInput call arrives here as
// a controller command.
type Controller[MC, MN, VC, CC, CN, T, P any] interface {
	ProcessCommand(tok *ControllerToken[MC, MN, VC, CC, CN, T, P], cmd CC)
}

// ControllerNotificationTranslator maps a controller notification to an optional
// model command. Returning false absorbs the notification.
// Translators must be pure; they have no token.
type ControllerNotificationTranslator[CN, MC any] interface {
	TranslateControllerNotification(n CN) (MC, bool)
}

// ModelNotificationTranslator maps a model notification to an optional view
// command. Returning false absorbs the notification.
type ModelNotificationTranslator[MN, VC any] interface {
	TranslateModelNotification(n MN) (VC, bool)
}

// OutputRedirector receives output target changes. ok is false when the target is
// cleared.
type OutputRedirector[T any] interface {
	RedirectOutputTarget(target T, ok bool)
}

// OutputSyncer renders the current model state into param. It must not mutate the
// model.
type OutputSyncer[MC, MN, VC, CC, CN, T, P any] interface {
	SyncOutputWithParameter(model Model[MC, MN, VC, CC, CN, T, P], param *P)
}
