// Package event defines the closed set of telemetry record variants and the
// static call-site metadata they reference.
//
// Every instrumentation point in an application is described once by a
// Callsite: its kind (log, metric, or span), logical name, source location,
// and kind-specific attributes such as log level or metric unit. Callsites
// are immutable, created once (typically as package-level variables), and
// referenced by every record they describe through a small interned Handle
// rather than by repeating their strings on the wire.
//
// Records come in three shapes, one per event category:
//
//   - LogRecord: a formatted message at a level.
//   - MetricRecord: a single numeric observation.
//   - SpanRecord: one phase transition (begin, end, suspend, resume) of a
//     span instance.
//
// Records carry a timestamp expressed as nanoseconds since the owning
// process's wall-clock anchor, so downstream consumers reconstruct absolute
// time by addition. Records are immutable once appended to a queue.
package event
