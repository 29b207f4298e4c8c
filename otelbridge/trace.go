package otelbridge

import (
	"context"
	"encoding/binary"
	"sync"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/jonwraymond/tracewire/event"
	"github.com/jonwraymond/tracewire/recorder"
)

// SpanExporter translates finished OTel spans into span events on the
// core's asynchronous stream. It implements sdktrace.SpanExporter.
type SpanExporter struct {
	core *recorder.Core

	mu    sync.Mutex
	sites map[string]*event.Callsite
}

var _ sdktrace.SpanExporter = (*SpanExporter)(nil)

// NewSpanExporter creates an exporter feeding the core.
func NewSpanExporter(core *recorder.Core) *SpanExporter {
	return &SpanExporter{core: core, sites: make(map[string]*event.Callsite)}
}

// ExportSpans emits one begin and one end event per span, at the span's
// recorded start and end times. A span that finished with an error status
// is marked cancelled.
func (e *SpanExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, sp := range spans {
		site := e.site(sp.Name(), sp.InstrumentationScope().Name)

		sid := sp.SpanContext().SpanID()
		id := binary.BigEndian.Uint64(sid[:])

		status := event.StatusCompleted
		if sp.Status().Code == codes.Error {
			status = event.StatusCancelled
		}

		e.core.RecordSpanEventAt(site, event.PhaseBegin, id, event.StatusCompleted, sp.StartTime())
		e.core.RecordSpanEventAt(site, event.PhaseEnd, id, status, sp.EndTime())
	}
	return nil
}

// Shutdown flushes the core's streams.
func (e *SpanExporter) Shutdown(ctx context.Context) error {
	e.core.FlushAll(ctx)
	return ctx.Err()
}

func (e *SpanExporter) site(name, scope string) *event.Callsite {
	e.mu.Lock()
	defer e.mu.Unlock()
	key := scope + "/" + name
	if site, ok := e.sites[key]; ok {
		return site
	}
	site := event.NewCallsite(event.KindSpan, name, scope, 0, event.LevelInfo, "")
	e.sites[key] = site
	return site
}
