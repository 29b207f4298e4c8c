package wire

// Row discriminants. The variant set is closed; decoders must reject
// anything else.
const (
	RowLog         uint8 = 1
	RowMetric      uint8 = 2
	RowSpanBegin   uint8 = 3
	RowSpanEnd     uint8 = 4
	RowSpanSuspend uint8 = 5
	RowSpanResume  uint8 = 6
)

// DepsEntry is one decoded callsite definition. Kind matches event.Kind;
// Level is populated for log callsites and Unit for metric callsites.
type DepsEntry struct {
	Handle uint32
	Kind   uint8
	Name   string
	File   string
	Line   uint32
	Level  uint8
	Unit   string
}

// Row is one decoded event. Discriminant selects which payload fields are
// meaningful: Level/Message for RowLog, Value for RowMetric, SpanID for the
// span variants, and SpanStatus additionally for RowSpanEnd.
type Row struct {
	Discriminant   uint8
	TimestampDelta uint64
	Callsite       uint32

	Level      uint8
	Message    string
	Value      float64
	SpanID     uint64
	SpanStatus uint8
}

// Block is one decoded transport unit.
type Block struct {
	StreamID  uint64
	ProcessID uint64
	Sequence  uint64
	Deps      []DepsEntry
	Rows      []Row
}
