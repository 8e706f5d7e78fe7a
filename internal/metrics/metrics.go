// Package metrics implements Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PacketsTotal counts packets entering the pipeline by ingress port and
	// final outcome.
	PacketsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "switch_agent_packets_total",
			Help: "Total number of packets processed by the data plane",
		},
		[]string{"port", "outcome"},
	)

	// DecodeErrorsTotal counts frames the parser rejected.
	DecodeErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "switch_agent_decode_errors_total",
			Help: "Total number of frames dropped because decoding failed",
		},
		[]string{"port"},
	)

	// DropsTotal counts packets dropped by the ingress pipeline.
	DropsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "switch_agent_drops_total",
			Help: "Total number of packets dropped by ingress processing",
		},
		[]string{"port"},
	)

	// BackupActivationsTotal counts failovers onto backup routes, labeled by
	// the failed primary port.
	BackupActivationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "switch_agent_backup_activations_total",
			Help: "Total number of packets redirected to a backup route",
		},
		[]string{"port"},
	)

	// PortUp mirrors the link-health store (1=up, 0=down).
	PortUp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "switch_agent_port_up",
			Help: "Current link-health state of a port (1=up, 0=down)",
		},
		[]string{"port"},
	)

	// HealthSweepsTotal counts staleness sweeps run by the daemon.
	HealthSweepsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "switch_agent_health_sweeps_total",
			Help: "Total number of link-health staleness sweeps",
		},
	)
)
