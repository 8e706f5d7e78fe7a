// Package config handles agent configuration loading using viper.
package config

import (
	"fmt"
	"net/netip"
	"time"

	"icc.tech/switch-agent/internal/core"
	"icc.tech/switch-agent/internal/log"
)

// Config is the top-level static configuration of one switch instance.
// Maps to the root of the YAML file.
type Config struct {
	Node      NodeConfig        `mapstructure:"node"`
	Dataplane DataplaneConfig   `mapstructure:"dataplane"`
	Ports     []PortConfig      `mapstructure:"ports"`
	Tables    TablesConfig      `mapstructure:"tables"`
	Health    HealthConfig      `mapstructure:"health"`
	Metrics   MetricsConfig     `mapstructure:"metrics"`
	Log       *log.LoggerConfig `mapstructure:"log"`
}

// NodeConfig is the switch's own identity: the MAC it answers ARP with and
// rewrites Ethernet sources to, and the IPv4 address it treats as local.
type NodeConfig struct {
	Hostname string     `mapstructure:"hostname"`
	MAC      core.MAC   `mapstructure:"mac"`
	IP       netip.Addr `mapstructure:"ip"`
}

// DataplaneConfig controls optional pipeline stages.
type DataplaneConfig struct {
	VerifyChecksum bool   `mapstructure:"verify_checksum"`
	FloodGroup     uint16 `mapstructure:"flood_group"`
}

// PortConfig binds a port ID to its packet source and sink.
type PortConfig struct {
	ID      core.PortID `mapstructure:"id"`
	PcapIn  string      `mapstructure:"pcap_in"`
	PcapOut string      `mapstructure:"pcap_out"`
}

// TablesConfig carries the statically populated table entries. At runtime
// these are installed through the same insert interface an external control
// plane would use.
type TablesConfig struct {
	L2           []L2EntryConfig    `mapstructure:"l2"`
	ARP          []ARPEntryConfig   `mapstructure:"arp"`
	Routes       []RouteEntryConfig `mapstructure:"routes"`
	BackupRoutes []RouteEntryConfig `mapstructure:"backup_routes"`
}

// L2EntryConfig is an exact-match entry of the plain Ethernet table.
type L2EntryConfig struct {
	MAC  core.MAC    `mapstructure:"mac"`
	Port core.PortID `mapstructure:"port"`
}

// ARPEntryConfig maps a protocol address the switch answers for to its
// hardware address.
type ARPEntryConfig struct {
	IP  netip.Addr `mapstructure:"ip"`
	MAC core.MAC   `mapstructure:"mac"`
}

// RouteEntryConfig is an LPM entry of the primary or backup route table.
type RouteEntryConfig struct {
	Prefix     netip.Prefix `mapstructure:"prefix"`
	Port       core.PortID  `mapstructure:"port"`
	NextHopMAC core.MAC     `mapstructure:"next_hop_mac"`
	Priority   int32        `mapstructure:"priority"`
}

// HealthConfig controls the link-health staleness sweep.
type HealthConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	// AssumeUp pre-seeds every configured port as up at startup instead of
	// waiting for first traffic.
	AssumeUp bool `mapstructure:"assume_up"`
}

// MetricsConfig controls the Prometheus/status HTTP server.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Path    string `mapstructure:"path"`
}

// Validate checks the configuration for contradictions before any component
// starts.
func (c *Config) Validate() error {
	if c.Node.MAC.IsZero() {
		return fmt.Errorf("%w: node.mac is required", core.ErrConfigInvalid)
	}
	if !c.Node.IP.Is4() {
		return fmt.Errorf("%w: node.ip must be an IPv4 address", core.ErrConfigInvalid)
	}
	if len(c.Ports) == 0 {
		return fmt.Errorf("%w: at least one port is required", core.ErrConfigInvalid)
	}

	seen := make(map[core.PortID]bool, len(c.Ports))
	for _, p := range c.Ports {
		if seen[p.ID] {
			return fmt.Errorf("%w: duplicate port id %d", core.ErrConfigInvalid, p.ID)
		}
		seen[p.ID] = true
		if p.PcapIn == "" {
			return fmt.Errorf("%w: port %d has no pcap_in", core.ErrConfigInvalid, p.ID)
		}
	}

	for _, r := range append(append([]RouteEntryConfig{}, c.Tables.Routes...), c.Tables.BackupRoutes...) {
		if !r.Prefix.IsValid() || !r.Prefix.Addr().Is4() {
			return fmt.Errorf("%w: route prefix %s is not an IPv4 prefix", core.ErrConfigInvalid, r.Prefix)
		}
		if !seen[r.Port] {
			return fmt.Errorf("%w: route %s points at unconfigured port %d", core.ErrConfigInvalid, r.Prefix, r.Port)
		}
	}
	for _, a := range c.Tables.ARP {
		if !a.IP.Is4() {
			return fmt.Errorf("%w: arp entry %s is not an IPv4 address", core.ErrConfigInvalid, a.IP)
		}
	}
	for _, e := range c.Tables.L2 {
		if !seen[e.Port] {
			return fmt.Errorf("%w: l2 entry %s points at unconfigured port %d", core.ErrConfigInvalid, e.MAC, e.Port)
		}
	}

	if c.Health.Timeout <= 0 {
		return fmt.Errorf("%w: health.timeout must be positive", core.ErrConfigInvalid)
	}
	if c.Health.SweepInterval <= 0 {
		return fmt.Errorf("%w: health.sweep_interval must be positive", core.ErrConfigInvalid)
	}

	return nil
}
