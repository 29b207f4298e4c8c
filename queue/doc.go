// Package queue provides the capacity-bounded append buffer backing each
// telemetry stream.
//
// A Buffer holds one record shape and is bounded by both row count and
// approximate byte size, whichever is reached first: log messages are
// variable-length while metric records are fixed-width, so neither bound
// alone is sufficient. Append never blocks and never triggers I/O; it
// reports that the buffer is full and leaves the flush decision to the
// caller. Drain detaches the current contents as an immutable snapshot in
// append order, which is the only ordering guarantee a stream carries.
//
// Buffers are not safe for concurrent use; each is owned by the single
// writer of its stream.
package queue
