// Package wire implements the block format that carries telemetry between
// a producing process and its collector.
//
// A block is the unit of transport for one stream:
//
//	{stream_id: uint64, process_id: uint64, sequence: uint64,
//	 deps_count: uint32, deps: [DepsEntry],
//	 rows_count: uint32, rows: [Row]}
//
// The Deps section lists callsites interned since the stream's previous
// flush; the Msg section holds rows in append order, each tagged with a
// variant discriminant and referencing its callsite by handle. All numeric
// fields are fixed-width little-endian; strings are uint32 length-prefixed
// UTF-8. Row timestamps are deltas from the process wall-clock anchor sent
// once at registration, so a consumer reconstructs absolute time by
// addition.
//
// The format is self-describing: a consumer needs no knowledge of the
// producer's types beyond this package's layout, and every handle a row
// references resolves to a Deps entry in the same block or an earlier block
// of the same stream. The producer upholds that invariant by construction,
// since interning always precedes the append that references the handle, so the
// encoder performs no reference checking.
package wire
