package wire

import (
	"encoding/binary"
	"math"

	"github.com/jonwraymond/tracewire/event"
)

// Decode parses one complete block. It fails with ErrTrailingBytes if data
// extends past the block; use DecodeNext to parse concatenated blocks.
func Decode(data []byte) (*Block, error) {
	b, rest, err := DecodeNext(data)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, ErrTrailingBytes
	}
	return b, nil
}

// DecodeNext parses the block at the front of data and returns the
// remaining bytes.
func DecodeNext(data []byte) (*Block, []byte, error) {
	r := reader{data: data}

	b := &Block{}
	var err error
	if b.StreamID, err = r.uint64(); err != nil {
		return nil, nil, err
	}
	if b.ProcessID, err = r.uint64(); err != nil {
		return nil, nil, err
	}
	if b.Sequence, err = r.uint64(); err != nil {
		return nil, nil, err
	}

	depsCount, err := r.uint32()
	if err != nil {
		return nil, nil, err
	}
	for i := uint32(0); i < depsCount; i++ {
		ent, err := r.depsEntry()
		if err != nil {
			return nil, nil, err
		}
		b.Deps = append(b.Deps, ent)
	}

	rowsCount, err := r.uint32()
	if err != nil {
		return nil, nil, err
	}
	for i := uint32(0); i < rowsCount; i++ {
		row, err := r.row()
		if err != nil {
			return nil, nil, err
		}
		b.Rows = append(b.Rows, row)
	}

	return b, r.data[r.off:], nil
}

type reader struct {
	data []byte
	off  int
}

func (r *reader) depsEntry() (DepsEntry, error) {
	var ent DepsEntry
	var err error
	if ent.Handle, err = r.uint32(); err != nil {
		return ent, err
	}
	if ent.Kind, err = r.uint8(); err != nil {
		return ent, err
	}
	if ent.Name, err = r.str(); err != nil {
		return ent, err
	}
	if ent.File, err = r.str(); err != nil {
		return ent, err
	}
	if ent.Line, err = r.uint32(); err != nil {
		return ent, err
	}
	switch event.Kind(ent.Kind) {
	case event.KindLog:
		ent.Level, err = r.uint8()
	case event.KindMetric:
		ent.Unit, err = r.str()
	case event.KindSpan:
	default:
		return ent, ErrUnknownDeps
	}
	return ent, err
}

func (r *reader) row() (Row, error) {
	var row Row
	var err error
	if row.Discriminant, err = r.uint8(); err != nil {
		return row, err
	}
	if row.TimestampDelta, err = r.uint64(); err != nil {
		return row, err
	}
	if row.Callsite, err = r.uint32(); err != nil {
		return row, err
	}

	switch row.Discriminant {
	case RowLog:
		if row.Level, err = r.uint8(); err != nil {
			return row, err
		}
		row.Message, err = r.str()
	case RowMetric:
		var bits uint64
		if bits, err = r.uint64(); err != nil {
			return row, err
		}
		row.Value = math.Float64frombits(bits)
	case RowSpanBegin, RowSpanSuspend, RowSpanResume:
		row.SpanID, err = r.uint64()
	case RowSpanEnd:
		if row.SpanID, err = r.uint64(); err != nil {
			return row, err
		}
		row.SpanStatus, err = r.uint8()
	default:
		return row, ErrUnknownRow
	}
	return row, err
}

func (r *reader) uint8() (uint8, error) {
	if r.off+1 > len(r.data) {
		return 0, ErrTruncated
	}
	v := r.data[r.off]
	r.off++
	return v, nil
}

func (r *reader) uint32() (uint32, error) {
	if r.off+4 > len(r.data) {
		return 0, ErrTruncated
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v, nil
}

func (r *reader) uint64() (uint64, error) {
	if r.off+8 > len(r.data) {
		return 0, ErrTruncated
	}
	v := binary.LittleEndian.Uint64(r.data[r.off:])
	r.off += 8
	return v, nil
}

func (r *reader) str() (string, error) {
	n, err := r.uint32()
	if err != nil {
		return "", err
	}
	if r.off+int(n) > len(r.data) {
		return "", ErrTruncated
	}
	s := string(r.data[r.off : r.off+int(n)])
	r.off += int(n)
	return s, nil
}
