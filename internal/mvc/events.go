package mvc

import "time"

// DispatchEvent is published by the event log middleware after each dispatch step.
type DispatchEvent struct {
	EnvelopeID string
	Kind       Kind
	Role       Role
	Timing     Timing
	Depth      int
	Outcome    Outcome
	Duration   time.Duration
	Timestamp  time.Time
	TraceID    string
}
