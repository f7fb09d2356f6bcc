package mvc

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// Kind identifies which of the five message shapes an Envelope carries.
type Kind int

const (
	KindModelCommand Kind = iota + 1
	KindModelUpdatesView
	KindViewCommand
	KindControllerManipulatesModel
	KindControllerCommand
)

func (k Kind) String() string {
	switch k {
	case KindModelCommand:
		return "model_command"
	case KindModelUpdatesView:
		return "model_updates_view"
	case KindViewCommand:
		return "view_command"
	case KindControllerManipulatesModel:
		return "controller_manipulates_model"
	case KindControllerCommand:
		return "controller_command"
	default:
		return "unknown"
	}
}

// IsTranslation reports whether the kind is a notification handled by translation.
func (k Kind) IsTranslation() bool {
	return k == KindModelUpdatesView || k == KindControllerManipulatesModel
}

// Role returns the role whose hook consumes the kind. Notifications belong to the
// translating role: the view for model notifications, the model for controller
// notifications.
func (k Kind) Role() Role {
	switch k {
	case KindModelCommand, KindControllerManipulatesModel:
		return RoleModel
	case KindViewCommand, KindModelUpdatesView:
		return RoleView
	case KindControllerCommand:
		return RoleController
	default:
		return 0
	}
}

// Role names one of the three cooperating components.
type Role int

const (
	RoleModel Role = iota + 1
	RoleView
	RoleController
)

func (r Role) String() string {
	switch r {
	case RoleModel:
		return "model"
	case RoleView:
		return "view"
	case RoleController:
		return "controller"
	default:
		return "unknown"
	}
}

// Timing records how an envelope entered the System.
type Timing int

const (
	TimingInput Timing = iota + 1 // ProcessInput
	TimingNow
	TimingNext
	TimingLater
)

func (t Timing) String() string {
	switch t {
	case TimingInput:
		return "input"
	case TimingNow:
		return "now"
	case TimingNext:
		return "next"
	case TimingLater:
		return "later"
	default:
		return "unknown"
	}
}

// Envelope is a tagged message holding exactly one payload, selected by Kind.
type Envelope[MC, MN, VC, CC, CN any] struct {
	id          string
	kind        Kind
	timing      Timing
	createdAt   time.Time
	spanContext trace.SpanContext

	modelCommand           MC
	modelNotification      MN
	viewCommand            VC
	controllerCommand      CC
	controllerNotification CN
}

func newEnvelope[MC, MN, VC, CC, CN any](kind Kind, timing Timing, sc trace.SpanContext) Envelope[MC, MN, VC, CC, CN] {
	return Envelope[MC, MN, VC, CC, CN]{
		id:          uuid.New().String(),
		kind:        kind,
		timing:      timing,
		createdAt:   time.Now(),
		spanContext: sc,
	}
}

// ID returns the unique envelope identifier.
func (e Envelope[MC, MN, VC, CC, CN]) ID() string {
	return e.id
}

// Kind returns the message shape.
func (e Envelope[MC, MN, VC, CC, CN]) Kind() Kind {
	return e.kind
}

// Timing returns how the envelope was scheduled.
func (e Envelope[MC, MN, VC, CC, CN]) Timing() Timing {
	return e.timing
}

// CreatedAt returns when the envelope was scheduled.
func (e Envelope[MC, MN, VC, CC, CN]) CreatedAt() time.Time {
	return e.createdAt
}

// SpanContext returns the span that was active when the envelope was scheduled.
func (e Envelope[MC, MN, VC, CC, CN]) SpanContext() trace.SpanContext {
	return e.spanContext
}

// Payload returns the carried command or notification.
func (e Envelope[MC, MN, VC, CC, CN]) Payload() any {
	switch e.kind {
	case KindModelCommand:
		return e.modelCommand
	case KindModelUpdatesView:
		return e.modelNotification
	case KindViewCommand:
		return e.viewCommand
	case KindControllerManipulatesModel:
		return e.controllerNotification
	case KindControllerCommand:
		return e.controllerCommand
	default:
		return nil
	}
}

func (e Envelope[MC, MN, VC, CC, CN]) String() string {
	return fmt.Sprintf("%s(%+v)", e.kind, e.Payload())
}
