package queue

// Record is any event shape the buffer can account for. SizeBytes is an
// approximation of wire cost, not a promise of exact encoded size.
type Record interface {
	SizeBytes() int
}

// DefaultMaxRows is the default row capacity of a buffer.
const DefaultMaxRows = 512

// DefaultMaxBytes is the default approximate byte capacity of a buffer.
const DefaultMaxBytes = 64 * 1024

// Buffer is an append-only bounded buffer for one record shape.
type Buffer[T Record] struct {
	rows     []T
	bytes    int
	maxRows  int
	maxBytes int
}

// New creates a buffer with the given capacities. Non-positive values fall
// back to the defaults.
func New[T Record](maxRows, maxBytes int) *Buffer[T] {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Buffer[T]{
		rows:     make([]T, 0, maxRows),
		maxRows:  maxRows,
		maxBytes: maxBytes,
	}
}

// Append adds a record, preserving append order. It returns false when the
// record does not fit within either capacity bound; the caller must drain
// the buffer and retry. A record larger than the byte bound is still
// accepted into an empty buffer so oversized events cannot wedge a stream.
func (b *Buffer[T]) Append(rec T) bool {
	if len(b.rows) >= b.maxRows {
		return false
	}
	if len(b.rows) > 0 && b.bytes+rec.SizeBytes() > b.maxBytes {
		return false
	}
	b.rows = append(b.rows, rec)
	b.bytes += rec.SizeBytes()
	return true
}

// Drain detaches the current contents as a snapshot in append order and
// resets the buffer to empty. The snapshot is owned by the caller; the
// buffer never touches it again.
func (b *Buffer[T]) Drain() []T {
	if len(b.rows) == 0 {
		return nil
	}
	snapshot := b.rows
	b.rows = make([]T, 0, b.maxRows)
	b.bytes = 0
	return snapshot
}

// Len reports the number of buffered rows.
func (b *Buffer[T]) Len() int {
	return len(b.rows)
}

// Bytes reports the approximate buffered byte size.
func (b *Buffer[T]) Bytes() int {
	return b.bytes
}
