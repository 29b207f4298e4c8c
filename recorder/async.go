package recorder

import (
	"runtime"
	"sync"
	"time"

	"github.com/jonwraymond/tracewire/event"
)

// AsyncSpan instruments a computation that suspends, resumes, and may hop
// between goroutines. Its identity and phase live in the span itself, never
// in any context-local state, so resuming on a different goroutine is
// correct by construction. All async span events share one stream; no
// nesting discipline applies, and interleaving between instances is normal.
//
// The begin event is emitted the first time the span is driven. End (or
// Cancel) emits the terminal event exactly once. If the span is dropped
// without either, a cleanup registered with the runtime emits a cancelled
// end when the span is collected, so no span instance is ever left open in
// collector data.
type AsyncSpan struct {
	st      *asyncState
	cleanup runtime.Cleanup
}

// asyncState is split from AsyncSpan so the runtime cleanup can reach it
// after the wrapper itself becomes unreachable.
type asyncState struct {
	core *Core
	site *event.Callsite
	id   uint64

	mu    sync.Mutex
	began bool
	ended bool
}

// NewAsyncSpan creates the instrumentation wrapper for one asynchronous
// computation. The span identifier is generated here and never changes.
func (c *Core) NewAsyncSpan(site *event.Callsite) *AsyncSpan {
	st := &asyncState{core: c, site: site, id: c.nextSpanID.Add(1)}
	s := &AsyncSpan{st: st}
	s.cleanup = runtime.AddCleanup(s, func(st *asyncState) {
		st.finish(event.StatusCancelled)
	}, st)
	return s
}

// ID returns the span instance identifier pairing begin with end.
func (s *AsyncSpan) ID() uint64 {
	return s.st.id
}

// Resume marks the computation being driven. The first call emits the
// begin event; later calls emit resume markers. Safe to call from any
// goroutine.
func (s *AsyncSpan) Resume() {
	s.st.drive()
}

// Suspend marks the computation yielding control without completing.
func (s *AsyncSpan) Suspend() {
	s.st.emit(event.PhaseSuspend, event.StatusCompleted)
}

// Drive runs one step of the computation between a resume and a suspend
// marker.
func (s *AsyncSpan) Drive(step func()) {
	s.Resume()
	defer s.Suspend()
	step()
}

// End emits the terminal event for a completed computation. Later End,
// Cancel, or cleanup calls are no-ops.
func (s *AsyncSpan) End() {
	s.st.finish(event.StatusCompleted)
	s.cleanup.Stop()
}

// Cancel emits the terminal event for a computation dropped or cancelled
// before completion. It is the deterministic form of the drop backstop.
func (s *AsyncSpan) Cancel() {
	s.st.finish(event.StatusCancelled)
	s.cleanup.Stop()
}

func (st *asyncState) drive() {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.ended {
		return
	}
	if !st.began {
		st.began = true
		st.record(event.PhaseBegin, event.StatusCompleted)
		return
	}
	st.record(event.PhaseResume, event.StatusCompleted)
}

func (st *asyncState) emit(phase event.SpanPhase, status event.SpanStatus) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.ended {
		return
	}
	if !st.began {
		st.began = true
		st.record(event.PhaseBegin, event.StatusCompleted)
	}
	st.record(phase, status)
}

// finish emits the terminal end exactly once. A span that was never driven
// still gets a begin so the pair is always complete.
func (st *asyncState) finish(status event.SpanStatus) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.ended {
		return
	}
	st.ended = true
	if !st.began {
		st.began = true
		st.record(event.PhaseBegin, event.StatusCompleted)
	}
	st.record(event.PhaseEnd, status)
}

func (st *asyncState) record(phase event.SpanPhase, status event.SpanStatus) {
	st.core.RecordSpanEventAt(st.site, phase, st.id, status, time.Time{})
}
