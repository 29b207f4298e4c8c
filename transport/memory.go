package transport

import (
	"context"
	"sync"
)

// MemorySink captures registrations and blocks in memory. It is the test
// double for the pipeline and supports scripted failures: FailNext makes
// the next n sends fail before the sink starts accepting again.
type MemorySink struct {
	mu            sync.Mutex
	registered    []ProcessInfo
	blocks        []Encoded
	failRemaining int
	failErr       error
	sendCalls     int
}

// NewMemorySink creates an empty memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Register records the process info.
func (s *MemorySink) Register(ctx context.Context, info ProcessInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registered = append(s.registered, info)
	return nil
}

// Send records the block, or fails if a failure script is active.
func (s *MemorySink) Send(ctx context.Context, block Encoded) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendCalls++
	if s.failRemaining > 0 {
		s.failRemaining--
		return s.failErr
	}
	// Copy the payload: the caller may reuse its buffer.
	payload := make([]byte, len(block.Payload))
	copy(payload, block.Payload)
	block.Payload = payload
	s.blocks = append(s.blocks, block)
	return nil
}

// FailNext makes the next n Send calls return err.
func (s *MemorySink) FailNext(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRemaining = n
	s.failErr = err
}

// Blocks returns the accepted blocks in arrival order.
func (s *MemorySink) Blocks() []Encoded {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Encoded, len(s.blocks))
	copy(out, s.blocks)
	return out
}

// StreamBlocks returns the accepted blocks for one stream in arrival order.
func (s *MemorySink) StreamBlocks(streamID uint64) []Encoded {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Encoded
	for _, b := range s.blocks {
		if b.StreamID == streamID {
			out = append(out, b)
		}
	}
	return out
}

// Registered returns the recorded registration events.
func (s *MemorySink) Registered() []ProcessInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ProcessInfo, len(s.registered))
	copy(out, s.registered)
	return out
}

// SendCalls reports how many Send attempts the sink has seen, including
// scripted failures.
func (s *MemorySink) SendCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendCalls
}
