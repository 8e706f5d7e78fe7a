// Package health tracks per-port link liveness inferred from traffic.
package health

import (
	"sync"
	"sync/atomic"
	"time"

	"icc.tech/switch-agent/internal/core"
)

// record holds one port's state. Both fields are atomics so that ingress
// updates on different ports never serialize against each other and never
// stall a concurrent sweep.
type record struct {
	up       atomic.Bool
	lastSeen atomic.Int64 // unix nanoseconds, 0 = never seen
}

// Store is the per-port link-health state of one switch instance.
//
// MarkSeen is invoked unconditionally on every ingress event, modeling
// liveness inferred from traffic. SweepStale is driven out-of-band by the
// daemon; the store itself schedules nothing.
type Store struct {
	mu    sync.RWMutex
	ports map[core.PortID]*record
}

// NewStore creates a store with no port history: every port is down until
// its first MarkSeen.
func NewStore() *Store {
	return &Store{ports: make(map[core.PortID]*record)}
}

// MarkUp pre-seeds a port as up at the given time, for configurations that
// start with all ports assumed live.
func (s *Store) MarkUp(port core.PortID, now time.Time) {
	s.MarkSeen(port, now)
}

// MarkSeen records traffic on port: the port is up and lastSeen is
// refreshed.
func (s *Store) MarkSeen(port core.PortID, now time.Time) {
	r := s.get(port)
	r.lastSeen.Store(now.UnixNano())
	r.up.Store(true)
}

// IsUp reports the port's current liveness. A port with no recorded history
// is down.
func (s *Store) IsUp(port core.PortID) bool {
	s.mu.RLock()
	r := s.ports[port]
	s.mu.RUnlock()
	return r != nil && r.up.Load()
}

// SweepStale marks every port down whose last traffic is older than timeout.
// It returns the number of ports taken down by this sweep.
func (s *Store) SweepStale(now time.Time, timeout time.Duration) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var downed int
	cutoff := now.Add(-timeout).UnixNano()
	for _, r := range s.ports {
		if r.lastSeen.Load() < cutoff && r.up.CompareAndSwap(true, false) {
			downed++
		}
	}
	return downed
}

// PortState is a point-in-time view of one port's health.
type PortState struct {
	Up       bool      `json:"up"`
	LastSeen time.Time `json:"last_seen"`
}

// Snapshot returns a read-only copy of the full health state for the
// observability surface.
func (s *Store) Snapshot() map[core.PortID]PortState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[core.PortID]PortState, len(s.ports))
	for port, r := range s.ports {
		out[port] = PortState{
			Up:       r.up.Load(),
			LastSeen: time.Unix(0, r.lastSeen.Load()),
		}
	}
	return out
}

// get returns the port's record, creating it on first use. The write lock is
// only taken the first time a port appears.
func (s *Store) get(port core.PortID) *record {
	s.mu.RLock()
	r := s.ports[port]
	s.mu.RUnlock()
	if r != nil {
		return r
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if r = s.ports[port]; r == nil {
		r = &record{}
		s.ports[port] = r
	}
	return r
}
