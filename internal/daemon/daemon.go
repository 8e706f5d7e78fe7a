// Package daemon implements the switch-agent process lifecycle.
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"icc.tech/switch-agent/internal/config"
	"icc.tech/switch-agent/internal/core"
	"icc.tech/switch-agent/internal/health"
	"icc.tech/switch-agent/internal/ingress"
	"icc.tech/switch-agent/internal/log"
	"icc.tech/switch-agent/internal/metrics"
	"icc.tech/switch-agent/internal/pipeline"
	"icc.tech/switch-agent/internal/stats"
	"icc.tech/switch-agent/internal/transport"
)

// Daemon owns the switch instance: tables, health store, counters, the
// pipeline, the port transport, and the observability server.
type Daemon struct {
	config     *config.Config
	configPath string

	healthStore   *health.Store
	counters      *stats.Counters
	transport     *transport.Transport
	metricsServer *metrics.Server

	ctx    context.Context
	cancel context.CancelFunc
}

// New loads the configuration and creates a daemon instance.
func New(configPath string) (*Daemon, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	d := &Daemon{
		config:     cfg,
		configPath: configPath,
	}
	d.ctx, d.cancel = context.WithCancel(context.Background())
	return d, nil
}

// Start initializes all components. The data plane does not move packets
// until Run.
func (d *Daemon) Start() error {
	if err := log.Init(d.config.Log); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger := log.GetLogger()
	logger.Infof("starting switch-agent, config=%s switch_mac=%s switch_ip=%s",
		d.configPath, d.config.Node.MAC, d.config.Node.IP)

	tables := buildTables(d.config)
	if err := populateTables(tables, d.config); err != nil {
		return fmt.Errorf("failed to populate tables: %w", err)
	}

	d.healthStore = health.NewStore()
	if d.config.Health.AssumeUp {
		now := time.Now()
		for _, p := range d.config.Ports {
			d.healthStore.MarkUp(p.ID, now)
		}
	}

	d.counters = stats.NewCounters()

	ing, err := ingress.New(ingress.Config{
		SwitchMAC: d.config.Node.MAC,
		SwitchIP:  d.config.Node.IP,
	}, tables, d.healthStore, d.counters)
	if err != nil {
		return fmt.Errorf("failed to build ingress pipeline: %w", err)
	}

	driver := pipeline.New(pipeline.Config{
		VerifyChecksum: d.config.Dataplane.VerifyChecksum,
	}, ing, d.counters)

	specs := make([]transport.PortSpec, 0, len(d.config.Ports))
	for _, p := range d.config.Ports {
		specs = append(specs, transport.PortSpec{ID: p.ID, PcapIn: p.PcapIn, PcapOut: p.PcapOut})
	}
	d.transport = transport.New(specs, driver)
	if err := d.transport.Open(); err != nil {
		return err
	}

	if d.config.Metrics.Enabled {
		d.metricsServer = metrics.NewServer(d.config.Metrics.Addr, d.config.Metrics.Path, d.statusSnapshot)
		if err := d.metricsServer.Start(); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
	}

	go d.sweepLoop()

	return nil
}

// Run starts packet processing and blocks until the input captures are
// exhausted or a shutdown signal arrives.
func (d *Daemon) Run() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	done := make(chan error, 1)
	go func() {
		done <- d.transport.Run(d.ctx)
	}()

	select {
	case sig := <-sigChan:
		log.GetLogger().Infof("received signal %s, shutting down", sig)
		d.cancel()
		<-done
	case err := <-done:
		if err != nil && d.ctx.Err() == nil {
			log.GetLogger().WithError(err).Error("transport finished with errors")
		}
	}

	return d.Stop()
}

// Stop tears the daemon down and logs the final counter state.
func (d *Daemon) Stop() error {
	d.cancel()

	if err := d.transport.Close(); err != nil {
		log.GetLogger().WithError(err).Error("failed to close output captures")
	}

	if d.metricsServer != nil {
		if err := d.metricsServer.Stop(context.Background()); err != nil {
			log.GetLogger().WithError(err).Error("failed to stop metrics server")
		}
	}

	snap := d.counters.Snapshot()
	log.GetLogger().Infof("switch-agent stopped, drops=%d backup_activations=%d",
		snap.TotalDrops, snap.TotalBackupActivations)
	return nil
}

// sweepLoop drives the link-health staleness sweep and mirrors port state
// into the gauge.
func (d *Daemon) sweepLoop() {
	ticker := time.NewTicker(d.config.Health.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case now := <-ticker.C:
			downed := d.healthStore.SweepStale(now, d.config.Health.Timeout)
			metrics.HealthSweepsTotal.Inc()
			if downed > 0 {
				log.GetLogger().Warnf("health sweep marked %d port(s) down", downed)
			}
			for port, st := range d.healthStore.Snapshot() {
				v := 0.0
				if st.Up {
					v = 1.0
				}
				metrics.PortUp.WithLabelValues(strconv.FormatUint(uint64(port), 10)).Set(v)
			}
		}
	}
}

// statusSnapshot is the read-only observability view served at /status.
func (d *Daemon) statusSnapshot() any {
	return struct {
		Counters stats.Snapshot                   `json:"counters"`
		Health   map[core.PortID]health.PortState `json:"health"`
	}{
		Counters: d.counters.Snapshot(),
		Health:   d.healthStore.Snapshot(),
	}
}
