// Package stats maintains the data plane's monotonic packet counters.
package stats

import (
	"strconv"
	"sync"
	"sync/atomic"

	"icc.tech/switch-agent/internal/core"
	"icc.tech/switch-agent/internal/metrics"
)

// portCounters holds one port's counters as atomics so unrelated ports never
// contend.
type portCounters struct {
	drops             atomic.Uint64
	backupActivations atomic.Uint64
}

// Counters is the process-wide counter state: monotonically increasing,
// never reset during normal operation. Drop counts are scoped to the ingress
// port; backup activations are scoped to the primary port whose failure
// triggered them.
type Counters struct {
	mu    sync.RWMutex
	ports map[core.PortID]*portCounters

	totalDrops             atomic.Uint64
	totalBackupActivations atomic.Uint64
}

// NewCounters creates zeroed counters.
func NewCounters() *Counters {
	return &Counters{ports: make(map[core.PortID]*portCounters)}
}

// IncDrop records one dropped packet that arrived on port.
func (c *Counters) IncDrop(port core.PortID) {
	c.get(port).drops.Add(1)
	c.totalDrops.Add(1)
	metrics.DropsTotal.WithLabelValues(portLabel(port)).Inc()
}

// IncBackupActivation records one backup-route activation caused by port
// being down.
func (c *Counters) IncBackupActivation(port core.PortID) {
	c.get(port).backupActivations.Add(1)
	c.totalBackupActivations.Add(1)
	metrics.BackupActivationsTotal.WithLabelValues(portLabel(port)).Inc()
}

func portLabel(port core.PortID) string {
	return strconv.FormatUint(uint64(port), 10)
}

// Drops returns the drop count for port.
func (c *Counters) Drops(port core.PortID) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if p := c.ports[port]; p != nil {
		return p.drops.Load()
	}
	return 0
}

// BackupActivations returns the backup-activation count for port.
func (c *Counters) BackupActivations(port core.PortID) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if p := c.ports[port]; p != nil {
		return p.backupActivations.Load()
	}
	return 0
}

// PortSnapshot is a point-in-time view of one port's counters.
type PortSnapshot struct {
	Drops             uint64 `json:"drops"`
	BackupActivations uint64 `json:"backup_activations"`
}

// Snapshot is the read-only counter view exposed to telemetry collectors.
type Snapshot struct {
	Ports                  map[core.PortID]PortSnapshot `json:"ports"`
	TotalDrops             uint64                       `json:"total_drops"`
	TotalBackupActivations uint64                       `json:"total_backup_activations"`
}

// Snapshot returns a consistent-enough copy of all counters. Individual
// loads are atomic; the snapshot as a whole may straddle concurrent
// increments, which is acceptable for monotonic counters.
func (c *Counters) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		Ports:                  make(map[core.PortID]PortSnapshot, len(c.ports)),
		TotalDrops:             c.totalDrops.Load(),
		TotalBackupActivations: c.totalBackupActivations.Load(),
	}
	for port, p := range c.ports {
		snap.Ports[port] = PortSnapshot{
			Drops:             p.drops.Load(),
			BackupActivations: p.backupActivations.Load(),
		}
	}
	return snap
}

func (c *Counters) get(port core.PortID) *portCounters {
	c.mu.RLock()
	p := c.ports[port]
	c.mu.RUnlock()
	if p != nil {
		return p
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if p = c.ports[port]; p == nil {
		p = &portCounters{}
		c.ports[port] = p
	}
	return p
}
