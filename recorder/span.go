package recorder

import (
	"time"

	"go.uber.org/zap"

	"github.com/jonwraymond/tracewire/event"
)

// SpanGuard tracks one open synchronous span on a Local. Spans on a single
// stream follow a stack discipline: each guard must be ended before any
// guard opened earlier. End must be called from the goroutine that owns
// the Local.
type SpanGuard struct {
	local *Local
	site  *event.Callsite
	id    uint64
	done  bool
}

// BeginSpan opens a synchronous span and emits its begin event.
func (l *Local) BeginSpan(site *event.Callsite) *SpanGuard {
	g := &SpanGuard{local: l, site: site, id: l.core.nextSpanID.Add(1)}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		g.done = true
		return g
	}
	l.spanEventLocked(site, event.PhaseBegin, g.id, event.StatusCompleted, time.Time{})
	l.stack = append(l.stack, spanFrame{spanID: g.id, site: site})
	l.touch()
	return g
}

// End closes the span. Ending out of stack order is a defect in the
// instrumented code; the end event is still emitted so the collector sees
// it, and the defect is counted and reported through diagnostics.
func (g *SpanGuard) End() {
	if g.done {
		return
	}
	g.done = true

	l := g.local
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}

	if n := len(l.stack); n > 0 && l.stack[n-1].spanID == g.id {
		l.stack = l.stack[:n-1]
	} else {
		l.dropFrame(g.id)
		l.core.spanDefects.Add(1)
		l.core.diag.Warn("unbalanced span end",
			zap.String("span", g.site.Name),
			zap.Uint64("span_id", g.id),
		)
	}
	l.spanEventLocked(g.site, event.PhaseEnd, g.id, event.StatusCompleted, time.Time{})
	l.touch()
}

// Scope runs fn inside a span, guaranteeing well-nested begin/end pairs on
// every exit path including panics.
func (l *Local) Scope(site *event.Callsite, fn func()) {
	g := l.BeginSpan(site)
	defer g.End()
	fn()
}

func (l *Local) spanEventLocked(site *event.Callsite, phase event.SpanPhase, spanID uint64, status event.SpanStatus, at time.Time) {
	if l.spans == nil {
		l.spans = newSpanStream(l.core)
	}
	h := l.spans.table.Intern(site)
	l.spans.append(l.core, event.SpanRecord{
		Time:     l.core.stamp(at),
		Callsite: h,
		Phase:    phase,
		SpanID:   spanID,
		Status:   status,
	})
}

func (l *Local) dropFrame(spanID uint64) {
	for i := len(l.stack) - 1; i >= 0; i-- {
		if l.stack[i].spanID == spanID {
			l.stack = append(l.stack[:i], l.stack[i+1:]...)
			return
		}
	}
}
