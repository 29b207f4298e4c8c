// Package otelbridge connects OpenTelemetry-instrumented code to a
// tracewire core.
//
// SpanExporter plugs into an OTel SDK TracerProvider and translates each
// finished span into a begin/end pair on the core's asynchronous span
// stream, preserving the span's original timestamps and identity.
// MetricExporter plugs into an OTel SDK MeterProvider reader and translates
// Sum, Gauge, and Histogram datapoints into metric records.
//
//	core, _ := recorder.New(ctx, cfg, sink)
//	tp := sdktrace.NewTracerProvider(
//	    sdktrace.WithBatcher(otelbridge.NewSpanExporter(core)),
//	)
//
// The bridge exists so an application already carrying OTel call sites can
// ride the block pipeline without re-instrumenting; native call sites
// should use the recorder API directly.
package otelbridge
