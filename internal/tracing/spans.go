package tracing

// Span attribute keys for dispatch steps.
const (
	AttrEnvelopeID = "dispatch.envelope_id"
	AttrKind       = "dispatch.kind"
	AttrRole       = "dispatch.role"
	AttrTiming     = "dispatch.timing"
	AttrDepth      = "dispatch.depth"
	AttrOutcome    = "dispatch.outcome"
)

// SpanPrefixDispatch prefixes every dispatch span name, e.g. "dispatch.model_command".
const SpanPrefixDispatch = "dispatch."

// EventPanicked is recorded on a span whose handler panicked.
const EventPanicked = "dispatch.panicked"
