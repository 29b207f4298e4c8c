// Package transport delivers serialized blocks to a collector.
//
// The Sink interface abstracts the actual network call: HTTPSink posts
// zstd-compressed blocks to an ingestion endpoint, and MemorySink captures
// them for tests. The Flusher wraps a sink with the delivery policy the
// producing side requires: each send is bounded by a deadline, failures are
// retried with exponential backoff up to a configured attempt budget, and
// on exhaustion the block is dropped and counted. Telemetry loss never
// surfaces as an error to the instrumented application: Deliver has no
// error return, and loss is visible only through the flusher's counters.
//
// Sinks may batch internally but must preserve per-stream sequence order
// when transmitting; the Flusher upholds its side by delivering one block
// at a time from the producing goroutine.
package transport
