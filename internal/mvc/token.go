package mvc

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// tokenState tracks one live handler invocation. Only the innermost state is
// active; outer states are suspended while a Now call runs.
type tokenState struct {
	ctx     context.Context
	parent  *tokenState
	expired bool
}

// token carries what every role token shares.
type token[MC, MN, VC, CC, CN, T, P any] struct {
	sys   *System[MC, MN, VC, CC, CN, T, P]
	state *tokenState
}

func (t *token[MC, MN, VC, CC, CN, T, P]) check() {
	switch {
	case t.state.expired:
		panic(ErrTokenExpired)
	case t.sys.live != t.state:
		panic(ErrTokenNotActive)
	}
}

func (t *token[MC, MN, VC, CC, CN, T, P]) spanContext() trace.SpanContext {
	return trace.SpanContextFromContext(t.state.ctx)
}

// Context returns the invocation context. It carries the active span when tracing
// middleware is installed.
func (t *token[MC, MN, VC, CC, CN, T, P]) Context() context.Context {
	t.check()
	return t.state.ctx
}

// Model returns the model. Only the model's own token may mutate it.
func (t *token[MC, MN, VC, CC, CN, T, P]) Model() Model[MC, MN, VC, CC, CN, T, P] {
	t.check()
	return t.sys.model
}

// View returns the view. Only the view's own token may mutate it.
func (t *token[MC, MN, VC, CC, CN, T, P]) View() View[MC, MN, VC, CC, CN, T, P] {
	t.check()
	return t.sys.view
}

// Controller returns the controller. Only the controller's own token may mutate it.
func (t *token[MC, MN, VC, CC, CN, T, P]) Controller() Controller[MC, MN, VC, CC, CN, T, P] {
	t.check()
	return t.sys.controller
}

// now dispatches env synchronously in a fresh frame.
func (t *token[MC, MN, VC, CC, CN, T, P]) now(env Envelope[MC, MN, VC, CC, CN]) {
	t.sys.stack.StartNewFrame()
	t.sys.handleOne(t.state.ctx, env)
}

func (t *token[MC, MN, VC, CC, CN, T, P]) next(env Envelope[MC, MN, VC, CC, CN]) {
	t.sys.stack.PushBackActive(env)
}

func (t *token[MC, MN, VC, CC, CN, T, P]) later(env Envelope[MC, MN, VC, CC, CN]) {
	t.sys.stack.PushBackBottom(env)
}

func (t *token[MC, MN, VC, CC, CN, T, P]) envelope(kind Kind, timing Timing) Envelope[MC, MN, VC, CC, CN] {
	return newEnvelope[MC, MN, VC, CC, CN](kind, timing, t.spanContext())
}

// ModelToken is handed to Model.ProcessCommand for one invocation.
type ModelToken[MC, MN, VC, CC, CN, T, P any] struct {
	token[MC, MN, VC, CC, CN, T, P]
}

func (t *ModelToken[MC, MN, VC, CC, CN, T, P]) modelCommand(cmd MC, timing Timing) Envelope[MC, MN, VC, CC, CN] {
	env := t.envelope(KindModelCommand, timing)
	env.modelCommand = cmd
	return env
}

func (t *ModelToken[MC, MN, VC, CC, CN, T, P]) updateView(n MN, timing Timing) Envelope[MC, MN, VC, CC, CN] {
	env := t.envelope(KindModelUpdatesView, timing)
	env.modelNotification = n
	return env
}

// ExecCommandNow runs cmd on the model before returning.
func (t *ModelToken[MC, MN, VC, CC, CN, T, P]) ExecCommandNow(cmd MC) {
	t.check()
	t.now(t.modelCommand(cmd, TimingNow))
}

// ExecCommandNext queues cmd at the end of the current frame.
func (t *ModelToken[MC, MN, VC, CC, CN, T, P]) ExecCommandNext(cmd MC) {
	t.check()
	t.next(t.modelCommand(cmd, TimingNext))
}

// ExecCommandLater queues cmd at the end of the bottom frame.
func (t *ModelToken[MC, MN, VC, CC, CN, T, P]) ExecCommandLater(cmd MC) {
	t.check()
	t.later(t.modelCommand(cmd, TimingLater))
}

// UpdateViewNow delivers n to the view's translator before returning.
func (t *ModelToken[MC, MN, VC, CC, CN, T, P]) UpdateViewNow(n MN) {
	t.check()
	t.now(t.updateView(n, TimingNow))
}

// UpdateViewNext queues n at the end of the current frame.
func (t *ModelToken[MC, MN, VC, CC, CN, T, P]) UpdateViewNext(n MN) {
	t.check()
	t.next(t.updateView(n, TimingNext))
}

// UpdateViewLater queues n at the end of the bottom frame.
func (t *ModelToken[MC, MN, VC, CC, CN, T, P]) UpdateViewLater(n MN) {
	t.check()
	t.later(t.updateView(n, TimingLater))
}

// ViewToken is handed to View.ProcessCommand for one invocation.
type ViewToken[MC, MN, VC, CC, CN, T, P any] struct {
	token[MC, MN, VC, CC, CN, T, P]
}

func (t *ViewToken[MC, MN, VC, CC, CN, T, P]) viewCommand(cmd VC, timing Timing) Envelope[MC, MN, VC, CC, CN] {
	env := t.envelope(KindViewCommand, timing)
	env.viewCommand = cmd
	return env
}

// ExecCommandNow runs cmd on the view before returning.
func (t *ViewToken[MC, MN, VC, CC, CN, T, P]) ExecCommandNow(cmd VC) {
	t.check()
	t.now(t.viewCommand(cmd, TimingNow))
}

// ExecCommandNext queues cmd at the end of the current frame.
func (t *ViewToken[MC, MN, VC, CC, CN, T, P]) ExecCommandNext(cmd VC) {
	t.check()
	t.next(t.viewCommand(cmd, TimingNext))
}

// ExecCommandLater queues cmd at the end of the bottom frame.
func (t *ViewToken[MC, MN, VC, CC, CN, T, P]) ExecCommandLater(cmd VC) {
	t.check()
	t.later(t.viewCommand(cmd, TimingLater))
}

// RedirectOutputTarget forwards target to the view's redirect hook. Unlike the
// System entry point it does not drain; the caller is already inside dispatch.
func (t *ViewToken[MC, MN, VC, CC, CN, T, P]) RedirectOutputTarget(target T) {
	t.check()
	t.sys.redirect(target, true)
}

// ClearOutputTarget tells the view's redirect hook that there is no target.
func (t *ViewToken[MC, MN, VC, CC, CN, T, P]) ClearOutputTarget() {
	t.check()
	var zero T
	t.sys.redirect(zero, false)
}

// SyncOutput calls the view's sync hook with a zero-valued parameter.
func (t *ViewToken[MC, MN, VC, CC, CN, T, P]) SyncOutput() {
	t.check()
	var param P
	t.sys.sync(&param)
}

// SyncOutputWithParameter calls the view's sync hook with param.
func (t *ViewToken[MC, MN, VC, CC, CN, T, P]) SyncOutputWithParameter(param *P) {
	t.check()
	t.sys.sync(param)
}

// ControllerToken is handed to Controller.ProcessCommand for one invocation.
type ControllerToken[MC, MN, VC, CC, CN, T, P any] struct {
	token[MC, MN, VC, CC, CN, T, P]
}

func (t *ControllerToken[MC, MN, VC, CC, CN, T, P]) controllerCommand(cmd CC, timing Timing) Envelope[MC, MN, VC, CC, CN] {
	env := t.envelope(KindControllerCommand, timing)
	env.controllerCommand = cmd
	return env
}

func (t *ControllerToken[MC, MN, VC, CC, CN, T, P]) manipulateModel(n CN, timing Timing) Envelope[MC, MN, VC, CC, CN] {
	env := t.envelope(KindControllerManipulatesModel, timing)
	env.controllerNotification = n
	return env
}

// ExecCommandNow runs cmd on the controller before returning.
func (t *ControllerToken[MC, MN, VC, CC, CN, T, P]) ExecCommandNow(cmd CC) {
	t.check()
	t.now(t.controllerCommand(cmd, TimingNow))
}

// ExecCommandNext queues cmd at the end of the current frame.
func (t *ControllerToken[MC, MN, VC, CC, CN, T, P]) ExecCommandNext(cmd CC) {
	t.check()
	t.next(t.controllerCommand(cmd, TimingNext))
}

// ExecCommandsNext queues cmds, in order, at the end of the current frame.
func (t *ControllerToken[MC, MN, VC, CC, CN, T, P]) ExecCommandsNext(cmds ...CC) {
	t.check()
	envs := make([]Envelope[MC, MN, VC, CC, CN], len(cmds))
	for i, cmd := range cmds {
		envs[i] = t.controllerCommand(cmd, TimingNext)
	}
	t.sys.stack.AppendActive(envs...)
}

// ExecCommandLater queues cmd at the end of the bottom frame.
func (t *ControllerToken[MC, MN, VC, CC, CN, T, P]) ExecCommandLater(cmd CC) {
	t.check()
	t.later(t.controllerCommand(cmd, TimingLater))
}

// ManipulateModelNow delivers n to the model's translator before returning.
func (t *ControllerToken[MC, MN, VC, CC, CN, T, P]) ManipulateModelNow(n CN) {
	t.check()
	t.now(t.manipulateModel(n, TimingNow))
}

// ManipulateModelNext queues n at the end of the current frame.
func (t *ControllerToken[MC, MN, VC, CC, CN, T, P]) ManipulateModelNext(n CN) {
	t.check()
	t.next(t.manipulateModel(n, TimingNext))
}

// ManipulateModelLater queues n at the end of the bottom frame.
func (t *ControllerToken[MC, MN, VC, CC, CN, T, P]) ManipulateModelLater(n CN) {
	t.check()
	t.later(t.manipulateModel(n, TimingLater))
}
