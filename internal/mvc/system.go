package mvc

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/triad/internal/framestack"
	"github.com/zjrosen/triad/internal/log"
)

// Option configures a System.
type Option func(*options)

type options struct {
	ctx         context.Context
	middlewares []Middleware
	maxDepth    int
}

// WithContext sets the base context every top-level dispatch starts from.
// Defaults to context.Background().
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		o.ctx = ctx
	}
}

// WithMiddleware adds middleware applied to every handler invocation.
// The first middleware wraps outermost.
func WithMiddleware(middlewares ...Middleware) Option {
	return func(o *options) {
		o.middlewares = append(o.middlewares, middlewares...)
	}
}

// WithMaxDepth panics with *DepthExceededError once more than limit invocations
// are nested on the call stack. Zero (the default) means no limit.
func WithMaxDepth(limit int) Option {
	return func(o *options) {
		o.maxDepth = limit
	}
}

// System owns the three roles and the frame stack that orders their work.
type System[MC, MN, VC, CC, CN, T, P any] struct {
	model      Model[MC, MN, VC, CC, CN, T, P]
	view       View[MC, MN, VC, CC, CN, T, P]
	controller Controller[MC, MN, VC, CC, CN, T, P]

	stack   *framestack.Stack[Envelope[MC, MN, VC, CC, CN]]
	handler Handler

	ctx      context.Context
	maxDepth int
	depth    int

	// live is the innermost running token; busy guards the entry points.
	live *tokenState
	busy bool
}

// NewSystem takes ownership of the three roles. Any role may be nil, in which case
// its commands are logged and ignored and its hooks fall back to their defaults.
func NewSystem[MC, MN, VC, CC, CN, T, P any](
	model Model[MC, MN, VC, CC, CN, T, P],
	view View[MC, MN, VC, CC, CN, T, P],
	controller Controller[MC, MN, VC, CC, CN, T, P],
	opts ...Option,
) *System[MC, MN, VC, CC, CN, T, P] {
	o := options{ctx: context.Background()}
	for _, opt := range opts {
		opt(&o)
	}

	s := &System[MC, MN, VC, CC, CN, T, P]{
		model:      model,
		view:       view,
		controller: controller,
		stack:      framestack.New[Envelope[MC, MN, VC, CC, CN]](),
		ctx:        o.ctx,
		maxDepth:   o.maxDepth,
	}
	s.handler = ChainMiddleware(HandlerFunc(s.invoke), o.middlewares...)
	return s
}

// Model returns the model role.
func (s *System[MC, MN, VC, CC, CN, T, P]) Model() Model[MC, MN, VC, CC, CN, T, P] {
	return s.model
}

// View returns the view role.
func (s *System[MC, MN, VC, CC, CN, T, P]) View() View[MC, MN, VC, CC, CN, T, P] {
	return s.view
}

// Controller returns the controller role.
func (s *System[MC, MN, VC, CC, CN, T, P]) Controller() Controller[MC, MN, VC, CC, CN, T, P] {
	return s.controller
}

// Pending returns the number of queued envelopes. It is zero whenever no entry
// point is running, including after a dispatch panic has been recovered.
func (s *System[MC, MN, VC, CC, CN, T, P]) Pending() int {
	return s.stack.Len()
}

// ProcessInput schedules cmd as a controller command on the bottom frame and
// drains until every frame is exhausted.
func (s *System[MC, MN, VC, CC, CN, T, P]) ProcessInput(cmd CC) {
	s.enter()
	defer s.leave()

	env := newEnvelope[MC, MN, VC, CC, CN](KindControllerCommand, TimingInput, trace.SpanContextFromContext(s.ctx))
	env.controllerCommand = cmd
	s.stack.PushBackBottom(env)
	s.drain()
}

// RedirectOutputTarget forwards target to the view and then drains.
func (s *System[MC, MN, VC, CC, CN, T, P]) RedirectOutputTarget(target T) {
	s.enter()
	defer s.leave()

	s.redirect(target, true)
	s.drain()
}

// ClearOutputTarget tells the view there is no output target and then drains.
func (s *System[MC, MN, VC, CC, CN, T, P]) ClearOutputTarget() {
	s.enter()
	defer s.leave()

	var zero T
	s.redirect(zero, false)
	s.drain()
}

// SyncOutput asks the view to sync its output using a zero-valued parameter.
// It neither schedules nor drains.
func (s *System[MC, MN, VC, CC, CN, T, P]) SyncOutput() {
	var param P
	s.SyncOutputWithParameter(&param)
}

// SyncOutputWithParameter asks the view to sync its output using param.
// It neither schedules nor drains.
func (s *System[MC, MN, VC, CC, CN, T, P]) SyncOutputWithParameter(param *P) {
	s.enter()
	defer s.leave()

	s.sync(param)
}

func (s *System[MC, MN, VC, CC, CN, T, P]) enter() {
	if s.busy {
		panic(ErrReentrantDispatch)
	}
	s.busy = true
}

// leave also discards whatever a panicking dispatch left queued, so the next
// entry point starts from a single empty frame.
func (s *System[MC, MN, VC, CC, CN, T, P]) leave() {
	s.busy = false
	if s.stack.IsEmpty() && s.stack.IsOnlyFrame() {
		return
	}
	dropped := s.stack.Reset()
	log.Warn(log.CatDispatch, "discarded envelopes left by an interrupted dispatch", "dropped", dropped)
}

// drain dispatches envelopes depth-first until every frame is exhausted.
func (s *System[MC, MN, VC, CC, CN, T, P]) drain() {
	for {
		env, ok := s.stack.PopFrontCrossingFrames()
		if !ok {
			return
		}
		s.handleOne(s.ctx, env)
	}
}

// handleOne runs one envelope through the middleware chain.
func (s *System[MC, MN, VC, CC, CN, T, P]) handleOne(ctx context.Context, env Envelope[MC, MN, VC, CC, CN]) {
	if s.maxDepth > 0 && s.depth >= s.maxDepth {
		panic(&DepthExceededError{Kind: env.kind, Depth: s.depth + 1, Limit: s.maxDepth})
	}
	s.depth++
	defer func() { s.depth-- }()

	inv := &Invocation{
		EnvelopeID:  env.id,
		Kind:        env.kind,
		Role:        env.kind.Role(),
		Timing:      env.timing,
		Depth:       s.depth,
		Payload:     env.Payload(),
		SpanContext: env.spanContext,
		envelope:    env,
	}
	s.handler.Handle(ctx, inv)
}

// invoke is the innermost handler: it routes the envelope to its role.
func (s *System[MC, MN, VC, CC, CN, T, P]) invoke(ctx context.Context, inv *Invocation) {
	env := inv.envelope.(Envelope[MC, MN, VC, CC, CN])

	switch env.kind {
	case KindModelCommand:
		s.stack.StartNewFrame()
		if s.model == nil {
			s.ignore(inv)
			return
		}
		tok := &ModelToken[MC, MN, VC, CC, CN, T, P]{token: s.acquire(ctx)}
		defer s.release(tok.state)
		s.model.ProcessCommand(tok, env.modelCommand)
		inv.Outcome = OutcomeHandled

	case KindViewCommand:
		s.stack.StartNewFrame()
		if s.view == nil {
			s.ignore(inv)
			return
		}
		tok := &ViewToken[MC, MN, VC, CC, CN, T, P]{token: s.acquire(ctx)}
		defer s.release(tok.state)
		s.view.ProcessCommand(tok, env.viewCommand)
		inv.Outcome = OutcomeHandled

	case KindControllerCommand:
		s.stack.StartNewFrame()
		if s.controller == nil {
			s.ignore(inv)
			return
		}
		tok := &ControllerToken[MC, MN, VC, CC, CN, T, P]{token: s.acquire(ctx)}
		defer s.release(tok.state)
		s.controller.ProcessCommand(tok, env.controllerCommand)
		inv.Outcome = OutcomeHandled

	case KindModelUpdatesView:
		cmd, ok := s.translateModelNotification(env.modelNotification)
		if !ok {
			inv.Outcome = OutcomeAbsorbed
			return
		}
		inv.Outcome = OutcomeTranslated
		next := newEnvelope[MC, MN, VC, CC, CN](KindViewCommand, env.timing, childSpan(ctx, env.spanContext))
		next.viewCommand = cmd
		s.handleOne(ctx, next)

	case KindControllerManipulatesModel:
		cmd, ok := s.translateControllerNotification(env.controllerNotification)
		if !ok {
			inv.Outcome = OutcomeAbsorbed
			return
		}
		inv.Outcome = OutcomeTranslated
		next := newEnvelope[MC, MN, VC, CC, CN](KindModelCommand, env.timing, childSpan(ctx, env.spanContext))
		next.modelCommand = cmd
		s.handleOne(ctx, next)
	}
}

// childSpan prefers the span active in ctx (set by tracing middleware) so that a
// translated command nests under its translation step.
func childSpan(ctx context.Context, fallback trace.SpanContext) trace.SpanContext {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		return sc
	}
	return fallback
}

func (s *System[MC, MN, VC, CC, CN, T, P]) acquire(ctx context.Context) token[MC, MN, VC, CC, CN, T, P] {
	state := &tokenState{ctx: ctx, parent: s.live}
	s.live = state
	return token[MC, MN, VC, CC, CN, T, P]{sys: s, state: state}
}

func (s *System[MC, MN, VC, CC, CN, T, P]) release(state *tokenState) {
	state.expired = true
	s.live = state.parent
}

func (s *System[MC, MN, VC, CC, CN, T, P]) ignore(inv *Invocation) {
	log.Debug(log.CatRole, "no handler, ignoring command",
		"role", inv.Role.String(),
		"command", fmt.Sprintf("%+v", inv.Payload),
	)
	inv.Outcome = OutcomeIgnored
}

func (s *System[MC, MN, VC, CC, CN, T, P]) translateModelNotification(n MN) (VC, bool) {
	if tr, ok := s.view.(ModelNotificationTranslator[MN, VC]); ok {
		return tr.TranslateModelNotification(n)
	}
	log.Debug(log.CatRole, "absorbing model notification",
		"notification", fmt.Sprintf("%+v", n),
	)
	var zero VC
	return zero, false
}

func (s *System[MC, MN, VC, CC, CN, T, P]) translateControllerNotification(n CN) (MC, bool) {
	if tr, ok := s.model.(ControllerNotificationTranslator[CN, MC]); ok {
		return tr.TranslateControllerNotification(n)
	}
	log.Debug(log.CatRole, "absorbing controller notification",
		"notification", fmt.Sprintf("%+v", n),
	)
	var zero MC
	return zero, false
}

func (s *System[MC, MN, VC, CC, CN, T, P]) redirect(target T, ok bool) {
	if r, isRedirector := s.view.(OutputRedirector[T]); isRedirector {
		r.RedirectOutputTarget(target, ok)
		return
	}
	to := "<none>"
	if ok {
		to = "<target>"
	}
	log.Debug(log.CatRole, "redirecting output target", "target", to)
}

func (s *System[MC, MN, VC, CC, CN, T, P]) sync(param *P) {
	if syncer, ok := s.view.(OutputSyncer[MC, MN, VC, CC, CN, T, P]); ok {
		syncer.SyncOutputWithParameter(s.model, param)
		return
	}
	log.Debug(log.CatRole, "sync output")
}
