package recorder

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonwraymond/tracewire/event"
)

// Local is the dispatcher for one execution context. It owns up to three
// streams (logs, metrics, sync spans), created lazily on the first event of
// each category.
//
// Contract:
// - Ownership: a Local belongs to one goroutine; emit methods are safe to
//   call concurrently but are designed for a single producer.
// - Errors: emit methods never fail; degradation is silent.
// - Lifecycle: Close flushes remaining events and releases the registry
//   slot. Events emitted after Close are dropped.
type Local struct {
	core *Core
	id   uint64

	mu      sync.Mutex
	logs    *stream[event.LogRecord]
	metrics *stream[event.MetricRecord]
	spans   *stream[event.SpanRecord]
	stack   []spanFrame
	closed  bool

	lastUsed atomic.Int64
}

type spanFrame struct {
	spanID uint64
	site   *event.Callsite
}

// Log emits one log record at the callsite's level.
func (l *Local) Log(site *event.Callsite, msg string) {
	l.LogAt(site, site.Level, msg, time.Time{})
}

// Logf emits one formatted log record.
func (l *Local) Logf(site *event.Callsite, format string, args ...any) {
	if site.Level < l.core.minLevel {
		return
	}
	l.Log(site, fmt.Sprintf(format, args...))
}

// LogAt emits a log record with an explicit level and timestamp. A zero
// time means now. Bridges use this to preserve original event times.
func (l *Local) LogAt(site *event.Callsite, level event.Level, msg string, at time.Time) {
	if level < l.core.minLevel {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	if l.logs == nil {
		l.logs = newLogStream(l.core)
	}
	h := l.logs.table.Intern(site)
	l.logs.append(l.core, event.LogRecord{
		Time:     l.core.stamp(at),
		Callsite: h,
		Level:    level,
		Message:  msg,
	})
	l.touch()
}

// Metric emits one numeric observation.
func (l *Local) Metric(site *event.Callsite, value float64) {
	l.MetricAt(site, value, time.Time{})
}

// MetricAt emits a metric record with an explicit timestamp. A zero time
// means now.
func (l *Local) MetricAt(site *event.Callsite, value float64, at time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	if l.metrics == nil {
		l.metrics = newMetricStream(l.core)
	}
	h := l.metrics.table.Intern(site)
	l.metrics.append(l.core, event.MetricRecord{
		Time:     l.core.stamp(at),
		Callsite: h,
		Value:    value,
	})
	l.touch()
}

// Flush drains and delivers every stream this Local has created.
func (l *Local) Flush(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.flushLocked(ctx)
}

// Close flushes remaining events and unregisters the Local. Further emit
// calls are dropped. Close is idempotent.
func (l *Local) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.flushLocked(context.Background())
	l.closed = true
	l.mu.Unlock()

	l.core.unregister(l.id)
}

func (l *Local) flushLocked(ctx context.Context) {
	if l.logs != nil {
		l.logs.flush(ctx, l.core)
	}
	if l.metrics != nil {
		l.metrics.flush(ctx, l.core)
	}
	if l.spans != nil {
		l.spans.flush(ctx, l.core)
	}
}

func (l *Local) touch() {
	l.lastUsed.Store(time.Now().UnixNano())
}
