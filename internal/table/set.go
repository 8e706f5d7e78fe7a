package table

import (
	"fmt"
	"sync"

	"icc.tech/switch-agent/internal/core"
)

// Well-known table identifiers used by the ingress pipeline.
const (
	L2TableID     = "l2"
	ARPTableID    = "arp"
	RouteTableID  = "routes"
	BackupTableID = "backup_routes"
)

// Set is the registry of a switch instance's tables, addressed by table ID.
// It is the surface the control plane populates; the data plane only reads
// through the individual tables' lookup methods.
type Set struct {
	mu     sync.RWMutex
	tables map[string]*Table
}

// NewSet creates an empty registry.
func NewSet() *Set {
	return &Set{tables: make(map[string]*Table)}
}

// Add registers a table under its name.
func (s *Set) Add(t *Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[t.Name()] = t
}

// Get returns the table with the given ID.
func (s *Set) Get(id string) (*Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrTableNotFound, id)
	}
	return t, nil
}

// InsertEntry installs an entry into the identified table.
func (s *Set) InsertEntry(tableID string, key Key, action Action, priority int32) error {
	t, err := s.Get(tableID)
	if err != nil {
		return err
	}
	return t.InsertEntry(key, action, priority)
}

// RemoveEntry removes an entry from the identified table.
func (s *Set) RemoveEntry(tableID string, key Key) error {
	t, err := s.Get(tableID)
	if err != nil {
		return err
	}
	return t.RemoveEntry(key)
}
