// Package transport feeds the pipeline driver from per-port packet sources
// and delivers its decisions to per-port sinks. The pcap-file transport
// stands in for the physical port layer: each configured port replays an
// input capture and records what the switch emitted on it.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"icc.tech/switch-agent/internal/core"
	"icc.tech/switch-agent/internal/log"
)

// PacketProcessor is the driver-facing contract: one frame in, a decision
// and the re-encoded frame out.
type PacketProcessor interface {
	ProcessPacket(raw []byte, ingressPort core.PortID, now time.Time) (core.Decision, []byte)
}

// PortSpec binds one port ID to its capture files.
type PortSpec struct {
	ID      core.PortID
	PcapIn  string
	PcapOut string // empty = emitted frames on this port are discarded
}

// Transport replays every port's input capture through the processor
// concurrently, one worker per port, and writes forwarded frames to the
// egress ports' output captures.
type Transport struct {
	specs []PortSpec
	proc  PacketProcessor

	sinks map[core.PortID]*portSink
	wg    sync.WaitGroup
}

// portSink serializes writes to one output capture. Workers on different
// ports may forward into the same egress port concurrently.
type portSink struct {
	mu sync.Mutex
	w  *pcapgo.Writer
	c  io.Closer
}

func (s *portSink) write(data []byte, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.WritePacket(gopacket.CaptureInfo{
		Timestamp:     ts,
		CaptureLength: len(data),
		Length:        len(data),
	}, data)
}

// New creates a transport over the given port set.
func New(specs []PortSpec, proc PacketProcessor) *Transport {
	return &Transport{
		specs: specs,
		proc:  proc,
		sinks: make(map[core.PortID]*portSink),
	}
}

// Open prepares every configured output capture.
func (t *Transport) Open() error {
	for _, spec := range t.specs {
		if spec.PcapOut == "" {
			continue
		}
		f, err := os.Create(spec.PcapOut)
		if err != nil {
			return fmt.Errorf("failed to open output capture for port %d: %w", spec.ID, err)
		}
		w := pcapgo.NewWriter(f)
		if err := w.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
			f.Close()
			return fmt.Errorf("failed to write pcap header for port %d: %w", spec.ID, err)
		}
		t.sinks[spec.ID] = &portSink{w: w, c: f}
	}
	return nil
}

// Run replays all ports and blocks until every input capture is exhausted
// or ctx is cancelled.
func (t *Transport) Run(ctx context.Context) error {
	errs := make(chan error, len(t.specs))

	for _, spec := range t.specs {
		t.wg.Add(1)
		go func(spec PortSpec) {
			defer t.wg.Done()
			if err := t.runPort(ctx, spec); err != nil {
				errs <- fmt.Errorf("port %d: %w", spec.ID, err)
			}
		}(spec)
	}

	t.wg.Wait()
	close(errs)

	var all []error
	for err := range errs {
		all = append(all, err)
	}
	return errors.Join(all...)
}

// Close closes all output captures.
func (t *Transport) Close() error {
	var all []error
	for _, s := range t.sinks {
		if err := s.c.Close(); err != nil {
			all = append(all, err)
		}
	}
	return errors.Join(all...)
}

func (t *Transport) runPort(ctx context.Context, spec PortSpec) error {
	f, err := os.Open(spec.PcapIn)
	if err != nil {
		return fmt.Errorf("failed to open input capture: %w", err)
	}
	defer f.Close()

	r, err := pcapgo.NewReader(f)
	if err != nil {
		return fmt.Errorf("failed to read pcap header: %w", err)
	}

	logger := log.GetLogger().WithField("port", spec.ID)
	var frames int
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		data, ci, err := r.ReadPacketData()
		if err == io.EOF {
			logger.Infof("input capture exhausted after %d frames", frames)
			return nil
		}
		if err != nil {
			return fmt.Errorf("read failed after %d frames: %w", frames, err)
		}
		frames++

		decision, out := t.proc.ProcessPacket(data, spec.ID, ci.Timestamp)
		t.deliver(decision, out, spec.ID, ci.Timestamp, logger)
	}
}

// deliver routes the processed frame per the decision. A forward to a port
// without an output capture is silently discarded; a drop emits nothing.
func (t *Transport) deliver(decision core.Decision, out []byte, ingress core.PortID, ts time.Time, logger log.Logger) {
	switch decision.Kind {
	case core.DecisionForward:
		if s := t.sinks[decision.EgressPort]; s != nil {
			if err := s.write(out, ts); err != nil {
				logger.WithError(err).Errorf("write to port %d failed", decision.EgressPort)
			}
		}
	case core.DecisionBroadcast:
		for port, s := range t.sinks {
			if port == ingress {
				continue
			}
			if err := s.write(out, ts); err != nil {
				logger.WithError(err).Errorf("broadcast write to port %d failed", port)
			}
		}
	case core.DecisionDrop:
		// nothing to emit
	}
}
