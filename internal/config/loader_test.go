package config

import (
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"icc.tech/switch-agent/internal/core"
)

// writeConfig marshals doc to YAML and writes it to a temp config file.
func writeConfig(t *testing.T, doc map[string]any) string {
	t.Helper()
	data, err := yaml.Marshal(doc)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func validDoc() map[string]any {
	return map[string]any{
		"node": map[string]any{
			"hostname": "s1",
			"mac":      "02:00:00:00:fe:01",
			"ip":       "10.0.0.254",
		},
		"ports": []map[string]any{
			{"id": 1, "pcap_in": "p1.pcap", "pcap_out": "p1-out.pcap"},
			{"id": 2, "pcap_in": "p2.pcap", "pcap_out": "p2-out.pcap"},
		},
		"tables": map[string]any{
			"l2": []map[string]any{
				{"mac": "02:00:00:00:0a:0a", "port": 1},
			},
			"arp": []map[string]any{
				{"ip": "10.0.0.254", "mac": "02:00:00:00:fe:01"},
			},
			"routes": []map[string]any{
				{"prefix": "10.0.1.0/24", "port": 2, "next_hop_mac": "02:00:00:00:02:02"},
			},
			"backup_routes": []map[string]any{
				{"prefix": "10.0.1.0/24", "port": 1, "next_hop_mac": "02:00:00:00:01:01", "priority": 10},
			},
		},
		"health": map[string]any{
			"timeout":        "10s",
			"sweep_interval": "2s",
			"assume_up":      false,
		},
	}
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, validDoc()))
	require.NoError(t, err)

	assert.Equal(t, "s1", cfg.Node.Hostname)
	assert.Equal(t, core.MAC{0x02, 0x00, 0x00, 0x00, 0xFE, 0x01}, cfg.Node.MAC)
	assert.Equal(t, netip.MustParseAddr("10.0.0.254"), cfg.Node.IP)

	require.Len(t, cfg.Ports, 2)
	assert.Equal(t, core.PortID(2), cfg.Ports[1].ID)
	assert.Equal(t, "p2.pcap", cfg.Ports[1].PcapIn)

	require.Len(t, cfg.Tables.Routes, 1)
	assert.Equal(t, netip.MustParsePrefix("10.0.1.0/24"), cfg.Tables.Routes[0].Prefix)
	assert.Equal(t, core.MAC{0x02, 0x00, 0x00, 0x00, 0x02, 0x02}, cfg.Tables.Routes[0].NextHopMAC)
	require.Len(t, cfg.Tables.BackupRoutes, 1)
	assert.Equal(t, int32(10), cfg.Tables.BackupRoutes[0].Priority)

	assert.Equal(t, 10*time.Second, cfg.Health.Timeout)
	assert.Equal(t, 2*time.Second, cfg.Health.SweepInterval)
	assert.False(t, cfg.Health.AssumeUp)

	require.NotNil(t, cfg.Log, "defaulted when absent from the file")
}

func TestLoadDefaults(t *testing.T) {
	doc := validDoc()
	delete(doc, "health")

	cfg, err := Load(writeConfig(t, doc))
	require.NoError(t, err)

	assert.True(t, cfg.Dataplane.VerifyChecksum)
	assert.Equal(t, uint16(1), cfg.Dataplane.FloodGroup)
	assert.Equal(t, 30*time.Second, cfg.Health.Timeout)
	assert.Equal(t, 5*time.Second, cfg.Health.SweepInterval)
	assert.True(t, cfg.Health.AssumeUp)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9109", cfg.Metrics.Addr)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(doc map[string]any)
	}{
		{"missing mac", func(doc map[string]any) {
			doc["node"].(map[string]any)["mac"] = "00:00:00:00:00:00"
		}},
		{"ipv6 node address", func(doc map[string]any) {
			doc["node"].(map[string]any)["ip"] = "fd00::1"
		}},
		{"no ports", func(doc map[string]any) {
			doc["ports"] = []map[string]any{}
		}},
		{"duplicate port id", func(doc map[string]any) {
			doc["ports"] = []map[string]any{
				{"id": 1, "pcap_in": "a.pcap"},
				{"id": 1, "pcap_in": "b.pcap"},
			}
		}},
		{"port without pcap_in", func(doc map[string]any) {
			doc["ports"] = []map[string]any{{"id": 1}}
		}},
		{"route at unconfigured port", func(doc map[string]any) {
			doc["tables"].(map[string]any)["routes"] = []map[string]any{
				{"prefix": "10.0.1.0/24", "port": 9, "next_hop_mac": "02:00:00:00:02:02"},
			}
		}},
		{"ipv6 route prefix", func(doc map[string]any) {
			doc["tables"].(map[string]any)["routes"] = []map[string]any{
				{"prefix": "fd00::/64", "port": 2, "next_hop_mac": "02:00:00:00:02:02"},
			}
		}},
		{"zero health timeout", func(doc map[string]any) {
			doc["health"].(map[string]any)["timeout"] = "0s"
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := validDoc()
			tc.mutate(doc)
			_, err := Load(writeConfig(t, doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrConfigInvalid)
		})
	}
}

func TestLoadBadMAC(t *testing.T) {
	doc := validDoc()
	doc["node"].(map[string]any)["mac"] = "not-a-mac"
	_, err := Load(writeConfig(t, doc))
	assert.Error(t, err)
}
