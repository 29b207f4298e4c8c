package otelbridge

import (
	"context"
	"encoding/binary"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/jonwraymond/tracewire/event"
	"github.com/jonwraymond/tracewire/recorder"
	"github.com/jonwraymond/tracewire/transport"
	"github.com/jonwraymond/tracewire/wire"
)

func newCore(t *testing.T) (*recorder.Core, *transport.MemorySink) {
	t.Helper()
	sink := transport.NewMemorySink()
	core, err := recorder.New(context.Background(), recorder.Config{Service: "otel-test"}, sink)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = core.Shutdown(context.Background()) })
	return core, sink
}

func spanRows(t *testing.T, sink *transport.MemorySink) []wire.Row {
	t.Helper()
	var out []wire.Row
	for _, e := range sink.Blocks() {
		b, err := wire.Decode(e.Payload)
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		for _, r := range b.Rows {
			switch r.Discriminant {
			case wire.RowSpanBegin, wire.RowSpanEnd, wire.RowSpanSuspend, wire.RowSpanResume:
				out = append(out, r)
			}
		}
	}
	return out
}

func TestExportSpansEmitsBeginEnd(t *testing.T) {
	core, sink := newCore(t)
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(NewSpanExporter(core)))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, span := tp.Tracer("svc").Start(context.Background(), "fetch")
	sid := span.SpanContext().SpanID()
	span.End()

	core.FlushAll(context.Background())

	rows := spanRows(t, sink)
	if len(rows) != 2 {
		t.Fatalf("span rows = %d, want 2", len(rows))
	}
	if rows[0].Discriminant != wire.RowSpanBegin || rows[1].Discriminant != wire.RowSpanEnd {
		t.Errorf("discriminants = %d, %d, want begin then end", rows[0].Discriminant, rows[1].Discriminant)
	}
	want := binary.BigEndian.Uint64(sid[:])
	if rows[0].SpanID != want || rows[1].SpanID != want {
		t.Errorf("SpanID = %d, %d, want %d", rows[0].SpanID, rows[1].SpanID, want)
	}
	if rows[1].SpanStatus != uint8(event.StatusCompleted) {
		t.Errorf("SpanStatus = %d, want completed", rows[1].SpanStatus)
	}
}

func TestExportSpansErrorStatusCancelled(t *testing.T) {
	core, sink := newCore(t)
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(NewSpanExporter(core)))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, span := tp.Tracer("svc").Start(context.Background(), "fetch")
	span.SetStatus(codes.Error, "upstream unavailable")
	span.End()

	core.FlushAll(context.Background())

	rows := spanRows(t, sink)
	if len(rows) != 2 {
		t.Fatalf("span rows = %d, want 2", len(rows))
	}
	if rows[1].SpanStatus != uint8(event.StatusCancelled) {
		t.Errorf("SpanStatus = %d, want cancelled", rows[1].SpanStatus)
	}
}

func TestSpanSiteInternedOnce(t *testing.T) {
	core, sink := newCore(t)
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(NewSpanExporter(core)))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	tracer := tp.Tracer("svc")
	for i := 0; i < 5; i++ {
		_, span := tracer.Start(context.Background(), "fetch")
		span.End()
	}

	core.FlushAll(context.Background())

	var deps int
	for _, e := range sink.Blocks() {
		b, err := wire.Decode(e.Payload)
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		for _, d := range b.Deps {
			if d.Kind == uint8(event.KindSpan) {
				deps++
			}
		}
	}
	if deps != 1 {
		t.Errorf("span deps = %d, want one interned callsite", deps)
	}
	if rows := spanRows(t, sink); len(rows) != 10 {
		t.Errorf("span rows = %d, want 10", len(rows))
	}
}
