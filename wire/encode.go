package wire

import (
	"encoding/binary"
	"math"

	"github.com/jonwraymond/tracewire/event"
	"github.com/jonwraymond/tracewire/intern"
)

// Encoder serializes one block at a time into a reusable byte buffer.
// Call Begin, then PutDeps once, then the Put*Rows call for the stream's
// record shape, then Bytes. The zero value is ready to use; Encoders are
// not safe for concurrent use.
type Encoder struct {
	buf []byte
}

// Begin resets the encoder and writes the block header fields that precede
// the Deps section.
func (e *Encoder) Begin(streamID, processID, sequence uint64) {
	e.buf = e.buf[:0]
	e.buf = binary.LittleEndian.AppendUint64(e.buf, streamID)
	e.buf = binary.LittleEndian.AppendUint64(e.buf, processID)
	e.buf = binary.LittleEndian.AppendUint64(e.buf, sequence)
}

// PutDeps writes the Deps section: the callsites interned since the
// stream's previous flush, in interning order.
func (e *Encoder) PutDeps(entries []intern.Entry) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(len(entries)))
	for _, ent := range entries {
		cs := ent.Callsite
		e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(ent.Handle))
		e.buf = append(e.buf, byte(cs.Kind))
		e.buf = appendString(e.buf, cs.Name)
		e.buf = appendString(e.buf, cs.File)
		e.buf = binary.LittleEndian.AppendUint32(e.buf, cs.Line)
		switch cs.Kind {
		case event.KindLog:
			e.buf = append(e.buf, byte(cs.Level))
		case event.KindMetric:
			e.buf = appendString(e.buf, cs.Unit)
		}
	}
}

// PutLogRows writes the Msg section for a log stream.
func (e *Encoder) PutLogRows(rows []event.LogRecord) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(len(rows)))
	for _, r := range rows {
		e.putRowHeader(RowLog, r.Time, r.Callsite)
		e.buf = append(e.buf, byte(r.Level))
		e.buf = appendString(e.buf, r.Message)
	}
}

// PutMetricRows writes the Msg section for a metric stream.
func (e *Encoder) PutMetricRows(rows []event.MetricRecord) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(len(rows)))
	for _, r := range rows {
		e.putRowHeader(RowMetric, r.Time, r.Callsite)
		e.buf = binary.LittleEndian.AppendUint64(e.buf, math.Float64bits(r.Value))
	}
}

// PutSpanRows writes the Msg section for a span stream.
func (e *Encoder) PutSpanRows(rows []event.SpanRecord) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(len(rows)))
	for _, r := range rows {
		e.putRowHeader(spanDiscriminant(r.Phase), r.Time, r.Callsite)
		e.buf = binary.LittleEndian.AppendUint64(e.buf, r.SpanID)
		if r.Phase == event.PhaseEnd {
			e.buf = append(e.buf, byte(r.Status))
		}
	}
}

// Bytes returns the encoded block. The slice is owned by the caller; the
// encoder allocates a fresh buffer on the next Begin if the caller keeps it.
func (e *Encoder) Bytes() []byte {
	out := e.buf
	e.buf = nil
	return out
}

func (e *Encoder) putRowHeader(discriminant uint8, delta uint64, h event.Handle) {
	e.buf = append(e.buf, discriminant)
	e.buf = binary.LittleEndian.AppendUint64(e.buf, delta)
	e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(h))
}

func spanDiscriminant(p event.SpanPhase) uint8 {
	switch p {
	case event.PhaseBegin:
		return RowSpanBegin
	case event.PhaseEnd:
		return RowSpanEnd
	case event.PhaseSuspend:
		return RowSpanSuspend
	default:
		return RowSpanResume
	}
}

func appendString(buf []byte, s string) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}
