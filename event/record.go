package event

// SpanPhase is one transition in a span instance's lifecycle.
type SpanPhase uint8

const (
	// PhaseBegin opens a span instance.
	PhaseBegin SpanPhase = iota + 1
	// PhaseEnd closes a span instance. Emitted exactly once per instance.
	PhaseEnd
	// PhaseSuspend marks an asynchronous span yielding without completing.
	PhaseSuspend
	// PhaseResume marks an asynchronous span being driven again.
	PhaseResume
)

// SpanStatus qualifies a PhaseEnd record.
type SpanStatus uint8

const (
	// StatusCompleted marks a span that ran to completion.
	StatusCompleted SpanStatus = iota
	// StatusCancelled marks a span whose computation was dropped or
	// cancelled before completing.
	StatusCancelled
)

// LogRecord is one emitted log message. Time is nanoseconds since the
// process wall-clock anchor. Callsite resolves through the owning stream's
// Deps section.
type LogRecord struct {
	Time     uint64
	Callsite Handle
	Level    Level
	Message  string
}

// SizeBytes approximates the record's wire cost for queue byte accounting.
func (r LogRecord) SizeBytes() int {
	// discriminant + timestamp + handle + level + message length prefix
	return 1 + 8 + 4 + 1 + 4 + len(r.Message)
}

// MetricRecord is one numeric observation.
type MetricRecord struct {
	Time     uint64
	Callsite Handle
	Value    float64
}

// SizeBytes approximates the record's wire cost for queue byte accounting.
func (r MetricRecord) SizeBytes() int {
	return 1 + 8 + 4 + 8
}

// SpanRecord is one phase transition of a span instance. SpanID pairs the
// begin with its end (and any suspend/resume markers in between); Status is
// meaningful only when Phase is PhaseEnd.
type SpanRecord struct {
	Time     uint64
	Callsite Handle
	Phase    SpanPhase
	SpanID   uint64
	Status   SpanStatus
}

// SizeBytes approximates the record's wire cost for queue byte accounting.
func (r SpanRecord) SizeBytes() int {
	n := 1 + 8 + 4 + 8
	if r.Phase == PhaseEnd {
		n++
	}
	return n
}
