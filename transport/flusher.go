package transport

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// FlusherConfig configures delivery policy.
type FlusherConfig struct {
	// MaxAttempts is the total send attempts per block (including the
	// first). On exhaustion the block is dropped and counted as lost.
	// Default: 4
	MaxAttempts int

	// InitialDelay is the backoff before the first retry.
	// Default: 50ms
	InitialDelay time.Duration

	// MaxDelay caps the backoff between retries.
	// Default: 2s
	MaxDelay time.Duration

	// Multiplier is the exponential backoff multiplier.
	// Default: 2.0
	Multiplier float64

	// SendDeadline bounds a single send attempt; an attempt that would
	// block past it counts as a failure.
	// Default: 5s
	SendDeadline time.Duration
}

// Stats is a snapshot of the flusher's delivery counters.
type Stats struct {
	// Sent is the number of blocks delivered.
	Sent uint64
	// Lost is the number of blocks dropped after exhausting retries.
	Lost uint64
	// Retries is the number of send attempts beyond the first.
	Retries uint64
}

// Flusher delivers blocks through a sink with bounded retry. A lost block
// is never an application error: Deliver always returns, and degradation is
// visible only through Stats.
type Flusher struct {
	sink   Sink
	config FlusherConfig

	sent    atomic.Uint64
	lost    atomic.Uint64
	retries atomic.Uint64
}

// NewFlusher creates a flusher around the sink.
func NewFlusher(sink Sink, config FlusherConfig) *Flusher {
	// Apply defaults
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 4
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = 50 * time.Millisecond
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 2 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.SendDeadline <= 0 {
		config.SendDeadline = 5 * time.Second
	}

	return &Flusher{sink: sink, config: config}
}

// Deliver sends one block, retrying with exponential backoff up to the
// attempt budget. It returns false when the block was dropped. Deliver is
// called off the hot append path (during a flush) and blocks at most
// MaxAttempts*(SendDeadline+backoff).
func (f *Flusher) Deliver(ctx context.Context, block Encoded) bool {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = f.config.InitialDelay
	expo.MaxInterval = f.config.MaxDelay
	expo.Multiplier = f.config.Multiplier

	op := func() (struct{}, error) {
		sendCtx, cancel := context.WithTimeout(ctx, f.config.SendDeadline)
		defer cancel()
		return struct{}{}, f.sink.Send(sendCtx, block)
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(uint(f.config.MaxAttempts)),
		backoff.WithNotify(func(error, time.Duration) {
			f.retries.Add(1)
		}),
	)
	if err != nil {
		f.lost.Add(1)
		return false
	}
	f.sent.Add(1)
	return true
}

// Stats returns a snapshot of the delivery counters.
func (f *Flusher) Stats() Stats {
	return Stats{
		Sent:    f.sent.Load(),
		Lost:    f.lost.Load(),
		Retries: f.retries.Load(),
	}
}
