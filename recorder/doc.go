// Package recorder is the instrumentation core: it routes application
// events into per-context streams, flushes them as self-describing blocks,
// and hands the blocks to a transport sink.
//
// A Core owns the process identity (numeric id, instance UUID, wall-clock
// anchor), the stream registry, and the delivery policy. Application
// goroutines acquire a Local, the dispatcher for one execution context,
// and emit through it:
//
//	local := core.NewLocal()
//	defer local.Close()
//
//	local.Log(siteRequest, "served")
//	local.Metric(siteLatency, 12.5)
//	local.Scope(siteHandle, func() { ... })
//
// A Local is intended for a single goroutine. Its streams (one per event
// category) are created lazily on first use, and every append checks
// capacity: when a queue fills, it is drained, serialized, and delivered on
// the calling goroutine, so the occasional flush amortizes over many cheap
// appends and no background thread touches the hot path. Appends take only
// the Local's own mutex, which is uncontended in normal operation; the
// mutex exists so periodic flush ticks, LRU eviction, and shutdown can
// drain a stream safely from outside.
//
// Asynchronous work that migrates between goroutines uses AsyncSpan, whose
// identity and phase live in the span itself rather than any
// context-local state; all async span events share one stream. Dropping an
// AsyncSpan without ending it still produces a terminal end event, so an
// unmatched begin in collector data always indicates a bug.
//
// The core never returns an error to an instrumentation call. Transport
// failure degrades to counted block loss, and the loss/retry counters are
// themselves republished as metrics through the pipeline on every FlushAll.
package recorder
