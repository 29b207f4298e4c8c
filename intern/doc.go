// Package intern deduplicates callsite metadata into small numbered handles.
//
// A Table has per-stream lifetime: handles are issued once per unique
// callsite and never reset, so a high-frequency callsite crosses the wire
// exactly once per stream. The table tracks which entries have not yet been
// flushed (TakePending) so the serializer can emit only the delta in each
// block's Deps section, and keeps the complete interning history (History)
// so a consumer that joined late can request a replay of the stream's Deps
// before decoding its row blocks.
//
// Tables are not safe for concurrent use; each is owned by the single
// writer of its stream.
package intern
