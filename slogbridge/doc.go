// Package slogbridge routes standard library log/slog records into a
// tracewire core, so existing slog call sites ship through the block
// pipeline without modification:
//
//	core, _ := recorder.New(ctx, cfg, sink)
//	slog.SetDefault(slog.New(slogbridge.New(core)))
//
// Callsites are derived from each record's program counter and cached, so
// a hot call site resolves its source location once. Attributes attached
// via WithAttrs/WithGroup and per-record attrs are folded into the message
// as key=value pairs, since the block format carries a formatted message
// rather than structured fields.
package slogbridge
