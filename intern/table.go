package intern

import "github.com/jonwraymond/tracewire/event"

// Entry pairs an issued handle with the callsite it describes. Entries are
// recorded in interning order, which is also their wire order.
type Entry struct {
	Handle   event.Handle
	Callsite *event.Callsite
}

// Table assigns handles to callsites, deduplicating by fingerprint.
// Handles start at 1 and grow monotonically for the table's lifetime.
type Table struct {
	handles map[uint64]event.Handle
	history []Entry
	// flushed is the number of history entries already handed out by
	// TakePending; history[flushed:] is the pending delta.
	flushed int
}

// NewTable creates an empty interning table.
func NewTable() *Table {
	return &Table{handles: make(map[uint64]event.Handle)}
}

// Intern returns the handle for the callsite, issuing a new one on first
// sight. Calling Intern twice with equal callsites returns the same handle
// without recording a second entry.
func (t *Table) Intern(cs *event.Callsite) event.Handle {
	fp := cs.Fingerprint()
	if h, ok := t.handles[fp]; ok {
		return h
	}
	h := event.Handle(len(t.history) + 1)
	t.handles[fp] = h
	t.history = append(t.history, Entry{Handle: h, Callsite: cs})
	return h
}

// TakePending returns the entries interned since the previous call, in
// interning order, and marks them flushed. Returns nil when nothing new was
// interned.
func (t *Table) TakePending() []Entry {
	if t.flushed == len(t.history) {
		return nil
	}
	pending := t.history[t.flushed:len(t.history):len(t.history)]
	t.flushed = len(t.history)
	return pending
}

// History returns every entry interned over the table's lifetime, in
// interning order. This is the replay contract for consumers that missed
// earlier blocks; callers must not mutate the returned slice.
func (t *Table) History() []Entry {
	return t.history[:len(t.history):len(t.history)]
}

// Len reports the number of distinct callsites interned.
func (t *Table) Len() int {
	return len(t.history)
}
