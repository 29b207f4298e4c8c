package recorder

import (
	"context"
	"fmt"
	"testing"

	"github.com/jonwraymond/tracewire/event"
	"github.com/jonwraymond/tracewire/transport"
	"github.com/jonwraymond/tracewire/wire"
)

func newTestCore(t *testing.T, config Config) (*Core, *transport.MemorySink) {
	t.Helper()
	if config.Service == "" {
		config.Service = "test"
	}
	sink := transport.NewMemorySink()
	core, err := New(context.Background(), config, sink)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = core.Shutdown(context.Background()) })
	return core, sink
}

func decodeBlocks(t *testing.T, encoded []transport.Encoded) []*wire.Block {
	t.Helper()
	blocks := make([]*wire.Block, 0, len(encoded))
	for i, e := range encoded {
		b, err := wire.Decode(e.Payload)
		if err != nil {
			t.Fatalf("Decode(block %d) error = %v", i, err)
		}
		blocks = append(blocks, b)
	}
	return blocks
}

func TestNewRegistersProcess(t *testing.T) {
	core, sink := newTestCore(t, Config{Service: "checkout", MinLevel: "warn"})

	regs := sink.Registered()
	if len(regs) != 1 {
		t.Fatalf("registrations = %d, want 1", len(regs))
	}
	reg := regs[0]
	if reg.Service != "checkout" {
		t.Errorf("Service = %q, want %q", reg.Service, "checkout")
	}
	if reg.MinLevel != "warn" {
		t.Errorf("MinLevel = %q, want %q", reg.MinLevel, "warn")
	}
	if reg.InstanceID != core.InstanceID() || reg.InstanceID == "" {
		t.Errorf("InstanceID = %q, want core's %q", reg.InstanceID, core.InstanceID())
	}
	if reg.ProcessID == 0 {
		t.Error("ProcessID = 0, want nonzero")
	}
	if reg.Start.IsZero() {
		t.Error("Start is zero, want wall-clock anchor")
	}
}

// One callsite, 1000 logs, 100-row queues: ten blocks, the first carrying
// the single Deps entry and the rest none.
func TestCapacityFlushEmitsInternedDepsOnce(t *testing.T) {
	core, sink := newTestCore(t, Config{MaxQueueRows: 100, MaxQueueBytes: 1 << 30})
	local := core.NewLocal()
	site := event.LogSite("hot.path", event.LevelInfo)

	for i := 0; i < 1000; i++ {
		local.Log(site, fmt.Sprintf("event %d", i))
	}
	local.Flush(context.Background())

	blocks := decodeBlocks(t, sink.Blocks())
	if len(blocks) != 10 {
		t.Fatalf("blocks = %d, want 10", len(blocks))
	}
	for i, b := range blocks {
		wantDeps := 0
		if i == 0 {
			wantDeps = 1
		}
		if len(b.Deps) != wantDeps {
			t.Errorf("block %d Deps = %d, want %d", i, len(b.Deps), wantDeps)
		}
		if len(b.Rows) != 100 {
			t.Errorf("block %d Rows = %d, want 100", i, len(b.Rows))
		}
	}

	// Append order survives across block boundaries.
	n := 0
	for _, b := range blocks {
		for _, r := range b.Rows {
			if want := fmt.Sprintf("event %d", n); r.Message != want {
				t.Fatalf("row %d Message = %q, want %q", n, r.Message, want)
			}
			n++
		}
	}
}

func TestSequenceNumbersStrictlyIncrease(t *testing.T) {
	core, sink := newTestCore(t, Config{MaxQueueRows: 10, MaxQueueBytes: 1 << 30})
	local := core.NewLocal()
	site := event.LogSite("seq", event.LevelInfo)

	for i := 0; i < 55; i++ {
		local.Log(site, "x")
	}
	local.Flush(context.Background())
	// Flushing an already-empty stream must not burn a sequence number.
	local.Flush(context.Background())
	local.Log(site, "x")
	local.Flush(context.Background())

	blocks := decodeBlocks(t, sink.Blocks())
	if len(blocks) != 7 {
		t.Fatalf("blocks = %d, want 7", len(blocks))
	}
	for i, b := range blocks {
		if b.Sequence != uint64(i+1) {
			t.Errorf("block %d Sequence = %d, want %d", i, b.Sequence, i+1)
		}
		if b.StreamID != blocks[0].StreamID {
			t.Errorf("block %d StreamID = %d, want %d", i, b.StreamID, blocks[0].StreamID)
		}
	}
}

func TestStreamsPerCategory(t *testing.T) {
	core, sink := newTestCore(t, Config{})
	local := core.NewLocal()

	local.Log(event.LogSite("a", event.LevelInfo), "hello")
	local.Metric(event.MetricSite("b", "ms"), 1.5)
	local.Flush(context.Background())

	blocks := decodeBlocks(t, sink.Blocks())
	if len(blocks) != 2 {
		t.Fatalf("blocks = %d, want one per category", len(blocks))
	}
	if blocks[0].StreamID == blocks[1].StreamID {
		t.Error("log and metric records share a stream, want separate streams")
	}
}

func TestMinLevelFilters(t *testing.T) {
	core, sink := newTestCore(t, Config{MinLevel: "warn"})
	local := core.NewLocal()

	local.Log(event.LogSite("dropped", event.LevelDebug), "no")
	local.Log(event.LogSite("dropped2", event.LevelInfo), "no")
	local.Log(event.LogSite("kept", event.LevelError), "yes")
	local.Flush(context.Background())

	blocks := decodeBlocks(t, sink.Blocks())
	if len(blocks) != 1 {
		t.Fatalf("blocks = %d, want 1", len(blocks))
	}
	if len(blocks[0].Rows) != 1 || blocks[0].Rows[0].Message != "yes" {
		t.Errorf("rows = %+v, want single kept record", blocks[0].Rows)
	}
}

func TestEvictionFlushesLeastRecentlyUsed(t *testing.T) {
	core, sink := newTestCore(t, Config{MaxLocals: 2})

	l1 := core.NewLocal()
	l1.Log(event.LogSite("one", event.LevelInfo), "from l1")
	l2 := core.NewLocal()
	l2.Log(event.LogSite("two", event.LevelInfo), "from l2")

	if len(sink.Blocks()) != 0 {
		t.Fatalf("blocks before eviction = %d, want 0", len(sink.Blocks()))
	}

	// The third context exceeds MaxLocals and evicts l1.
	core.NewLocal()

	blocks := decodeBlocks(t, sink.Blocks())
	if len(blocks) != 1 {
		t.Fatalf("blocks after eviction = %d, want 1", len(blocks))
	}
	if blocks[0].Rows[0].Message != "from l1" {
		t.Errorf("evicted block row = %q, want l1's record", blocks[0].Rows[0].Message)
	}

	// The evicted context keeps working.
	l1.Log(event.LogSite("one", event.LevelInfo), "still alive")
	l1.Flush(context.Background())
	if len(sink.Blocks()) != 2 {
		t.Errorf("blocks = %d, want evicted local to still deliver", len(sink.Blocks()))
	}
}

func TestFlushAllPublishesHealthCounters(t *testing.T) {
	core, sink := newTestCore(t, Config{})
	core.FlushAll(context.Background())

	var names []string
	for _, b := range decodeBlocks(t, sink.Blocks()) {
		for _, d := range b.Deps {
			names = append(names, d.Name)
		}
	}
	want := map[string]bool{
		"tracewire.blocks_sent":          false,
		"tracewire.blocks_lost":          false,
		"tracewire.send_retries":         false,
		"tracewire.span_nesting_defects": false,
	}
	for _, n := range names {
		if _, ok := want[n]; ok {
			want[n] = true
		}
	}
	for n, seen := range want {
		if !seen {
			t.Errorf("health metric %q not published", n)
		}
	}
}

func TestTimestampsAreMonotonicDeltas(t *testing.T) {
	core, sink := newTestCore(t, Config{})
	local := core.NewLocal()
	site := event.LogSite("ts", event.LevelInfo)

	for i := 0; i < 5; i++ {
		local.Log(site, "x")
	}
	local.Flush(context.Background())

	blocks := decodeBlocks(t, sink.Blocks())
	var prev uint64
	for i, r := range blocks[0].Rows {
		if r.TimestampDelta < prev {
			t.Errorf("row %d delta = %d, want >= %d", i, r.TimestampDelta, prev)
		}
		prev = r.TimestampDelta
	}
}

func TestShutdownFlushesAndIsIdempotent(t *testing.T) {
	sink := transport.NewMemorySink()
	core, err := New(context.Background(), Config{Service: "test"}, sink)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	local := core.NewLocal()
	local.Log(event.LogSite("final", event.LevelInfo), "last words")

	if err := core.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	got := len(sink.Blocks())
	if got == 0 {
		t.Fatal("Shutdown() flushed no blocks")
	}
	if err := core.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
	if len(sink.Blocks()) != got {
		t.Errorf("second Shutdown() emitted more blocks: %d -> %d", got, len(sink.Blocks()))
	}
}

func TestClosedLocalDropsEvents(t *testing.T) {
	core, sink := newTestCore(t, Config{})
	local := core.NewLocal()
	local.Log(event.LogSite("a", event.LevelInfo), "kept")
	local.Close()

	before := len(sink.Blocks())
	local.Log(event.LogSite("a", event.LevelInfo), "dropped")
	local.Flush(context.Background())
	local.Close()
	if len(sink.Blocks()) != before {
		t.Errorf("blocks = %d, want %d (no emission after Close)", len(sink.Blocks()), before)
	}
}
