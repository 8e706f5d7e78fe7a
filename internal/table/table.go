package table

import (
	"bytes"
	"fmt"
	"net/netip"
	"sync"

	"icc.tech/switch-agent/internal/core"
)

// Kind selects the match discipline of a table.
type Kind uint8

const (
	// KindExact matches keys bit-for-bit.
	KindExact Kind = iota
	// KindLPM matches IPv4 addresses by longest prefix.
	KindLPM
)

// Key is a match key: exact bytes for KindExact tables, a prefix for
// KindLPM tables.
type Key struct {
	Exact  []byte
	Prefix netip.Prefix
}

// ExactKey builds a key for an exact-match table.
func ExactKey(b []byte) Key {
	k := make([]byte, len(b))
	copy(k, b)
	return Key{Exact: k}
}

// PrefixKey builds a key for an LPM table.
func PrefixKey(p netip.Prefix) Key {
	return Key{Prefix: p.Masked()}
}

// Result is the outcome of a lookup. Miss is an ordinary control-flow value,
// not an error: when Hit is false the caller selects the table's default.
type Result struct {
	Hit    bool
	Action Action
}

type entry struct {
	key      Key
	priority int32
	action   Action
	seq      uint64 // insertion index, breaks ties first-inserted-wins
}

// Table is a single match-action table. Lookups are read-only and may run
// concurrently with control-plane inserts and removals; a reader-writer lock
// guarantees every lookup observes a consistent entry list, never a torn
// entry.
type Table struct {
	name string
	kind Kind
	def  Action

	mu      sync.RWMutex
	entries []entry
	nextSeq uint64
}

// New creates an empty table with the given default action, applied on every
// lookup miss.
func New(name string, kind Kind, def Action) *Table {
	return &Table{name: name, kind: kind, def: def}
}

func (t *Table) Name() string { return t.name }

func (t *Table) Kind() Kind { return t.kind }

// Default returns the action applied when no entry matches.
func (t *Table) Default() Action { return t.def }

// Len returns the number of installed entries.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// InsertEntry installs an entry. Duplicate keys are permitted; the
// insertion order then decides which entry wins, per the lookup tie-break.
func (t *Table) InsertEntry(key Key, action Action, priority int32) error {
	if err := t.checkKey(key); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = append(t.entries, entry{
		key:      key,
		priority: priority,
		action:   action,
		seq:      t.nextSeq,
	})
	t.nextSeq++
	return nil
}

// RemoveEntry removes the first-inserted entry with the given key.
func (t *Table) RemoveEntry(key Key) error {
	if err := t.checkKey(key); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.entries {
		if t.sameKey(t.entries[i].key, key) {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: table %s", core.ErrEntryNotFound, t.name)
}

// Lookup performs an exact match. The winning entry is the one with the
// highest priority; on equal priority the first-inserted entry wins.
func (t *Table) Lookup(key []byte) Result {
	if t.kind != KindExact {
		return Result{}
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	best := -1
	for i := range t.entries {
		if !bytes.Equal(t.entries[i].key.Exact, key) {
			continue
		}
		if best < 0 || t.better(i, best) {
			best = i
		}
	}
	if best < 0 {
		return Result{}
	}
	return Result{Hit: true, Action: t.entries[best].action}
}

// LookupAddr performs a longest-prefix match. The entry with the longest
// matching prefix wins; on equal prefix length the first-inserted entry
// wins. The tie-break is deliberate policy, not an accident of iteration
// order, and is pinned by tests.
func (t *Table) LookupAddr(addr netip.Addr) Result {
	if t.kind != KindLPM {
		return Result{}
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	best := -1
	for i := range t.entries {
		p := t.entries[i].key.Prefix
		if !p.Contains(addr) {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		bp := t.entries[best].key.Prefix
		if p.Bits() > bp.Bits() ||
			(p.Bits() == bp.Bits() && t.entries[i].seq < t.entries[best].seq) {
			best = i
		}
	}
	if best < 0 {
		return Result{}
	}
	return Result{Hit: true, Action: t.entries[best].action}
}

// better reports whether entry i beats entry j under the exact-match rule.
func (t *Table) better(i, j int) bool {
	if t.entries[i].priority != t.entries[j].priority {
		return t.entries[i].priority > t.entries[j].priority
	}
	return t.entries[i].seq < t.entries[j].seq
}

func (t *Table) sameKey(a, b Key) bool {
	switch t.kind {
	case KindExact:
		return bytes.Equal(a.Exact, b.Exact)
	case KindLPM:
		return a.Prefix == b.Prefix
	default:
		return false
	}
}

func (t *Table) checkKey(key Key) error {
	switch t.kind {
	case KindExact:
		if len(key.Exact) == 0 || key.Prefix.IsValid() {
			return fmt.Errorf("%w: table %s wants exact keys", core.ErrKeyKindInvalid, t.name)
		}
	case KindLPM:
		if !key.Prefix.IsValid() || len(key.Exact) != 0 {
			return fmt.Errorf("%w: table %s wants prefix keys", core.ErrKeyKindInvalid, t.name)
		}
	}
	return nil
}
