package recorder

import (
	"context"

	"github.com/jonwraymond/tracewire/event"
	"github.com/jonwraymond/tracewire/intern"
	"github.com/jonwraymond/tracewire/queue"
	"github.com/jonwraymond/tracewire/transport"
	"github.com/jonwraymond/tracewire/wire"
)

// stream is one ordered block sequence: a queue, its interning table, and a
// sequence counter. Synchronization is owned by the enclosing Local.
type stream[T queue.Record] struct {
	id    uint64
	seq   uint64
	table *intern.Table
	buf   *queue.Buffer[T]
	// putRows writes the Msg section for this stream's record shape.
	putRows func(*wire.Encoder, []T)
}

func newStream[T queue.Record](c *Core, putRows func(*wire.Encoder, []T)) *stream[T] {
	return &stream[T]{
		id:      c.nextStreamID.Add(1),
		table:   intern.NewTable(),
		buf:     queue.New[T](c.config.MaxQueueRows, c.config.MaxQueueBytes),
		putRows: putRows,
	}
}

// append assumes the caller has already interned the record's callsite, so
// every handle a row carries is scheduled for a Deps section no later than
// the row's own block. On a full queue the stream flushes and retries once;
// the retry cannot fail because the queue is empty afterwards.
func (s *stream[T]) append(c *Core, rec T) {
	if s.buf.Append(rec) {
		return
	}
	s.flush(context.Background(), c)
	s.buf.Append(rec)
}

// flush drains the queue and pending deps, serializes them as the stream's
// next block, and hands it to the delivery engine. A flush with nothing to
// say emits no block, keeping sequence numbers gap-free.
func (s *stream[T]) flush(ctx context.Context, c *Core) {
	rows := s.buf.Drain()
	deps := s.table.TakePending()
	if len(rows) == 0 && len(deps) == 0 {
		return
	}
	s.seq++

	var e wire.Encoder
	e.Begin(s.id, c.processID, s.seq)
	e.PutDeps(deps)
	s.putRows(&e, rows)

	c.flusher.Deliver(ctx, transport.Encoded{
		StreamID: s.id,
		Sequence: s.seq,
		Payload:  e.Bytes(),
	})
}

func newLogStream(c *Core) *stream[event.LogRecord] {
	return newStream(c, (*wire.Encoder).PutLogRows)
}

func newMetricStream(c *Core) *stream[event.MetricRecord] {
	return newStream(c, (*wire.Encoder).PutMetricRows)
}

func newSpanStream(c *Core) *stream[event.SpanRecord] {
	return newStream(c, (*wire.Encoder).PutSpanRows)
}
