package recorder

import (
	"context"
	"encoding/binary"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/tracewire/event"
	"github.com/jonwraymond/tracewire/transport"
)

// Core is the process-wide instrumentation pipeline.
//
// Contract:
// - Concurrency: all methods are safe for concurrent use.
// - Errors: instrumentation never fails; only New and Shutdown return
//   errors, and only for setup and teardown conditions.
// - Lifecycle: Shutdown is idempotent and flushes every live stream.
type Core struct {
	config   Config
	minLevel event.Level
	diag     *zap.Logger
	flusher  *transport.Flusher

	processID  uint64
	instanceID string
	// epoch is the wall-clock anchor sent at registration; all record
	// timestamps are monotonic nanosecond deltas from it.
	epoch time.Time

	nextStreamID atomic.Uint64
	nextSpanID   atomic.Uint64
	nextLocalID  atomic.Uint64

	mu     sync.Mutex
	locals map[uint64]*Local

	// shared is the ingress for producers without their own context
	// (bridges); async carries every asynchronous span event.
	shared *Local
	async  *Local

	spanDefects atomic.Uint64

	stopTick chan struct{}
	tickDone chan struct{}
	closed   atomic.Bool
}

// New creates a Core, registers the process with the sink, and, when
// Config.FlushInterval is positive, starts the periodic flush ticker.
// Registration failure is reported through diagnostics and does not fail
// construction; telemetry keeps flowing and the collector may request the
// registration again out of band.
func New(ctx context.Context, config Config, sink transport.Sink) (*Core, error) {
	config = config.withDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	diag := config.Diag
	if diag == nil {
		diag = zap.NewNop()
	}

	flusher := transport.NewFlusher(sink, transport.FlusherConfig{
		MaxAttempts:  config.MaxSendAttempts,
		InitialDelay: config.RetryInitialDelay,
		MaxDelay:     config.RetryMaxDelay,
		SendDeadline: config.SendDeadline,
	})

	id := uuid.New()
	c := &Core{
		config:     config,
		minLevel:   config.minLevel(),
		diag:       diag,
		flusher:    flusher,
		processID:  binary.LittleEndian.Uint64(id[:8]),
		instanceID: id.String(),
		epoch:      time.Now(),
		locals:     make(map[uint64]*Local),
	}
	c.shared = &Local{core: c, id: c.nextLocalID.Add(1)}
	c.async = &Local{core: c, id: c.nextLocalID.Add(1)}

	hostname, _ := os.Hostname()
	regCtx, cancel := context.WithTimeout(ctx, c.flusherDeadline())
	defer cancel()
	if err := sink.Register(regCtx, transport.ProcessInfo{
		ProcessID:  c.processID,
		InstanceID: c.instanceID,
		Service:    config.Service,
		Hostname:   hostname,
		Start:      c.epoch,
		MinLevel:   c.minLevel.String(),
	}); err != nil {
		c.diag.Warn("process registration failed", zap.Error(err))
	}

	if config.FlushInterval > 0 {
		c.stopTick = make(chan struct{})
		c.tickDone = make(chan struct{})
		go c.tickLoop(config.FlushInterval)
	}
	return c, nil
}

// NewLocal acquires the dispatcher for a new execution context. When the
// registry is at capacity, the least-recently-used Local is flushed and
// unregistered to make room; instrumentation calls never fail for lack of
// registry space.
func (c *Core) NewLocal() *Local {
	l := &Local{core: c, id: c.nextLocalID.Add(1)}
	l.touch()

	var evict *Local
	c.mu.Lock()
	if len(c.locals) >= c.config.MaxLocals {
		evict = c.oldestLocked()
		if evict != nil {
			delete(c.locals, evict.id)
		}
	}
	c.locals[l.id] = l
	c.mu.Unlock()

	if evict != nil {
		evict.Flush(context.Background())
		c.diag.Debug("evicted least-recently-used context", zap.Uint64("local_id", evict.id))
	}
	return l
}

// FlushAll drains every live stream below capacity, bounding worst-case
// telemetry latency for low-traffic contexts. The core's own health
// counters are republished as metrics first so they ride along.
func (c *Core) FlushAll(ctx context.Context) {
	c.publishHealth()

	c.mu.Lock()
	targets := make([]*Local, 0, len(c.locals)+2)
	targets = append(targets, c.shared, c.async)
	for _, l := range c.locals {
		targets = append(targets, l)
	}
	c.mu.Unlock()

	var g errgroup.Group
	for _, l := range targets {
		g.Go(func() error {
			l.Flush(ctx)
			return nil
		})
	}
	_ = g.Wait()
}

// Shutdown stops the ticker and flushes every live stream. It is
// idempotent; the first call wins.
func (c *Core) Shutdown(ctx context.Context) error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if c.stopTick != nil {
		close(c.stopTick)
		<-c.tickDone
	}
	c.FlushAll(ctx)
	return ctx.Err()
}

// Stats returns the delivery counters.
func (c *Core) Stats() transport.Stats {
	return c.flusher.Stats()
}

// MinLevel returns the lowest log level the core emits.
func (c *Core) MinLevel() event.Level {
	return c.minLevel
}

// InstanceID returns the process run's unique identity.
func (c *Core) InstanceID() string {
	return c.instanceID
}

// RecordLogAt emits a log record on the shared ingress stream. For
// bridges; application code should prefer a Local.
func (c *Core) RecordLogAt(site *event.Callsite, level event.Level, msg string, at time.Time) {
	c.shared.LogAt(site, level, msg, at)
}

// RecordMetricAt emits a metric record on the shared ingress stream.
func (c *Core) RecordMetricAt(site *event.Callsite, value float64, at time.Time) {
	c.shared.MetricAt(site, value, at)
}

// RecordSpanEventAt emits one span phase on the asynchronous span stream.
// For bridges that translate externally-tracked spans; in-process async
// work should use AsyncSpan.
func (c *Core) RecordSpanEventAt(site *event.Callsite, phase event.SpanPhase, spanID uint64, status event.SpanStatus, at time.Time) {
	c.async.mu.Lock()
	defer c.async.mu.Unlock()
	c.async.spanEventLocked(site, phase, spanID, status, at)
}

// stamp converts a wall-clock time into the block timestamp delta. A zero
// time stamps now via the monotonic clock.
func (c *Core) stamp(at time.Time) uint64 {
	var d time.Duration
	if at.IsZero() {
		d = time.Since(c.epoch)
	} else {
		d = at.Sub(c.epoch)
	}
	if d < 0 {
		return 0
	}
	return uint64(d)
}

func (c *Core) unregister(id uint64) {
	c.mu.Lock()
	delete(c.locals, id)
	c.mu.Unlock()
}

func (c *Core) oldestLocked() *Local {
	var oldest *Local
	for _, l := range c.locals {
		if oldest == nil || l.lastUsed.Load() < oldest.lastUsed.Load() {
			oldest = l
		}
	}
	return oldest
}

func (c *Core) flusherDeadline() time.Duration {
	if c.config.SendDeadline > 0 {
		return c.config.SendDeadline
	}
	return 5 * time.Second
}

func (c *Core) tickLoop(interval time.Duration) {
	defer close(c.tickDone)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.FlushAll(context.Background())
		case <-c.stopTick:
			return
		}
	}
}
