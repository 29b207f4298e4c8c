package transport

import (
	"context"
	"time"
)

// ProcessInfo is the registration event sent once at process start. The
// collector needs it to interpret subsequent blocks: ProcessID scopes
// stream ids, and Start is the wall-clock anchor that row timestamp deltas
// are added to.
type ProcessInfo struct {
	// ProcessID is the numeric identity carried in every block header.
	ProcessID uint64

	// InstanceID is a globally unique identity for this process run.
	InstanceID string

	// Service is the logical service name.
	Service string

	// Hostname is the machine the process runs on.
	Hostname string

	// Start is the wall-clock anchor for timestamp reconstruction.
	Start time.Time

	// MinLevel is the lowest log level this process emits.
	MinLevel string
}

// Encoded is one serialized block plus the routing metadata a sink needs
// without re-parsing the payload.
type Encoded struct {
	StreamID uint64
	Sequence uint64
	Payload  []byte
}

// Sink is the external collaborator boundary.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: both methods must honor cancellation/deadlines.
// - Ordering: implementations may batch internally but must preserve
//   per-stream sequence order when transmitting.
type Sink interface {
	// Register announces the process before any blocks are sent.
	Register(ctx context.Context, info ProcessInfo) error

	// Send transmits one block.
	Send(ctx context.Context, block Encoded) error
}
