// Package pipeline sequences the fixed per-packet stage order: parse,
// verify, ingress match-action, checksum update, deparse.
package pipeline

import (
	"strconv"
	"time"

	"icc.tech/switch-agent/internal/core"
	"icc.tech/switch-agent/internal/core/codec"
	"icc.tech/switch-agent/internal/ingress"
	"icc.tech/switch-agent/internal/log"
	"icc.tech/switch-agent/internal/metrics"
	"icc.tech/switch-agent/internal/stats"
)

// outcomeChecksum labels packets dropped by the verify stage.
const outcomeChecksum = "checksum_mismatch"

// outcomeDecodeError labels frames the parser rejected.
const outcomeDecodeError = "decode_error"

// Config controls optional driver stages.
type Config struct {
	// VerifyChecksum drops IPv4 packets whose stored header checksum does
	// not match before they reach ingress processing.
	VerifyChecksum bool
}

// Driver is the process-one-packet entry point. It holds no per-packet
// state; invocations may run concurrently, one per arriving packet.
type Driver struct {
	cfg      Config
	ingress  *ingress.Pipeline
	counters *stats.Counters
}

// New creates a driver over the ingress pipeline.
func New(cfg Config, ing *ingress.Pipeline, counters *stats.Counters) *Driver {
	return &Driver{cfg: cfg, ingress: ing, counters: counters}
}

// ProcessPacket runs one packet through the full stage sequence and returns
// the decision plus the re-encoded frame. The returned bytes are nil when
// the decision is a drop. A decode failure short-circuits to a drop; it is
// never an error to the caller.
func (d *Driver) ProcessPacket(raw []byte, ingressPort core.PortID, now time.Time) (core.Decision, []byte) {
	portLabel := strconv.FormatUint(uint64(ingressPort), 10)

	pkt, err := codec.Decode(raw)
	if err != nil {
		log.GetLogger().WithError(err).WithField("port", ingressPort).
			Debug("dropping undecodable frame")
		metrics.DecodeErrorsTotal.WithLabelValues(portLabel).Inc()
		metrics.PacketsTotal.WithLabelValues(portLabel, outcomeDecodeError).Inc()
		d.counters.IncDrop(ingressPort)
		return core.Drop(), nil
	}

	if d.cfg.VerifyChecksum && pkt.IPv4Valid && !codec.VerifyChecksum(pkt.IPv4) {
		log.GetLogger().WithField("port", ingressPort).
			Debug("dropping packet with bad ipv4 checksum")
		metrics.PacketsTotal.WithLabelValues(portLabel, outcomeChecksum).Inc()
		d.counters.IncDrop(ingressPort)
		return core.Drop(), nil
	}

	res := d.ingress.Process(&pkt, ingressPort, now)
	metrics.PacketsTotal.WithLabelValues(portLabel, string(res.Outcome)).Inc()

	if res.Decision.Kind == core.DecisionDrop {
		return res.Decision, nil
	}

	// Checksum update stage: any ingress mutation of IPv4 fields requires a
	// recompute before the packet is re-emitted.
	if res.IPv4Mutated {
		pkt.IPv4.Checksum = codec.Checksum(pkt.IPv4)
	}

	return res.Decision, codec.Encode(pkt)
}
