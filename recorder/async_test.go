package recorder

import (
	"context"
	"sync"
	"testing"

	"github.com/jonwraymond/tracewire/event"
	"github.com/jonwraymond/tracewire/transport"
	"github.com/jonwraymond/tracewire/wire"
)

type blockSource interface {
	Blocks() []transport.Encoded
}

func asyncRows(t *testing.T, core *Core, sink blockSource) []wire.Row {
	t.Helper()
	core.FlushAll(context.Background())
	var rows []wire.Row
	for _, b := range decodeBlocks(t, sink.Blocks()) {
		for _, r := range b.Rows {
			switch r.Discriminant {
			case wire.RowSpanBegin, wire.RowSpanEnd, wire.RowSpanSuspend, wire.RowSpanResume:
				rows = append(rows, r)
			}
		}
	}
	return rows
}

func TestAsyncSpanLifecycle(t *testing.T) {
	core, sink := newTestCore(t, Config{})
	span := core.NewAsyncSpan(event.SpanSite("task"))

	span.Resume()
	span.Suspend()
	span.Resume()
	span.Suspend()
	span.End()

	rows := asyncRows(t, core, sink)
	want := []uint8{wire.RowSpanBegin, wire.RowSpanSuspend, wire.RowSpanResume, wire.RowSpanSuspend, wire.RowSpanEnd}
	if len(rows) != len(want) {
		t.Fatalf("rows = %d, want %d", len(rows), len(want))
	}
	for i, r := range rows {
		if r.Discriminant != want[i] {
			t.Errorf("rows[%d].Discriminant = %d, want %d", i, r.Discriminant, want[i])
		}
		if r.SpanID != span.ID() {
			t.Errorf("rows[%d].SpanID = %d, want %d", i, r.SpanID, span.ID())
		}
	}
	if rows[len(rows)-1].SpanStatus != uint8(event.StatusCompleted) {
		t.Errorf("end status = %d, want completed", rows[len(rows)-1].SpanStatus)
	}
}

// The computation migrates across goroutines; span identity lives in the
// wrapper, so exactly one begin and one end appear regardless.
func TestAsyncSpanAcrossGoroutines(t *testing.T) {
	core, sink := newTestCore(t, Config{})
	span := core.NewAsyncSpan(event.SpanSite("migrating"))

	const hops = 8
	var wg sync.WaitGroup
	turn := make(chan struct{}, 1)
	turn <- struct{}{}
	for i := 0; i < hops; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-turn
			span.Drive(func() {})
			turn <- struct{}{}
		}()
	}
	wg.Wait()
	span.End()

	rows := asyncRows(t, core, sink)
	var begins, ends int
	for _, r := range rows {
		switch r.Discriminant {
		case wire.RowSpanBegin:
			begins++
		case wire.RowSpanEnd:
			ends++
		}
		if r.SpanID != span.ID() {
			t.Errorf("SpanID = %d, want %d", r.SpanID, span.ID())
		}
	}
	if begins != 1 || ends != 1 {
		t.Errorf("begins/ends = %d/%d, want exactly 1/1", begins, ends)
	}
	// hops drives: 1 begin + (hops-1) resumes + hops suspends + 1 end.
	if len(rows) != 2*hops+1 {
		t.Errorf("rows = %d, want %d", len(rows), 2*hops+1)
	}
}

func TestAsyncSpanCancelEmitsTerminalEnd(t *testing.T) {
	core, sink := newTestCore(t, Config{})
	span := core.NewAsyncSpan(event.SpanSite("abandoned"))
	span.Resume()
	span.Suspend()
	span.Cancel()

	rows := asyncRows(t, core, sink)
	last := rows[len(rows)-1]
	if last.Discriminant != wire.RowSpanEnd {
		t.Fatalf("last row = %d, want end", last.Discriminant)
	}
	if last.SpanStatus != uint8(event.StatusCancelled) {
		t.Errorf("end status = %d, want cancelled", last.SpanStatus)
	}
}

// A span dropped before ever being driven still yields a complete
// begin/end pair.
func TestAsyncSpanNeverDrivenStillPairs(t *testing.T) {
	core, sink := newTestCore(t, Config{})
	span := core.NewAsyncSpan(event.SpanSite("stillborn"))
	span.Cancel()

	rows := asyncRows(t, core, sink)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want begin+end", len(rows))
	}
	if rows[0].Discriminant != wire.RowSpanBegin || rows[1].Discriminant != wire.RowSpanEnd {
		t.Errorf("rows = %d, %d, want begin then end", rows[0].Discriminant, rows[1].Discriminant)
	}
	if rows[1].SpanStatus != uint8(event.StatusCancelled) {
		t.Errorf("end status = %d, want cancelled", rows[1].SpanStatus)
	}
}

func TestAsyncSpanEndExactlyOnce(t *testing.T) {
	core, sink := newTestCore(t, Config{})
	span := core.NewAsyncSpan(event.SpanSite("once"))
	span.Resume()
	span.End()
	span.Cancel()
	span.End()
	span.Resume()
	span.Suspend()

	rows := asyncRows(t, core, sink)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want begin+end only", len(rows))
	}
	if rows[1].SpanStatus != uint8(event.StatusCompleted) {
		t.Errorf("end status = %d, want the first End's completed status", rows[1].SpanStatus)
	}
}
