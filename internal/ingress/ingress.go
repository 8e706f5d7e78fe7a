// Package ingress implements the fast-failover ingress match-action stage.
package ingress

import (
	"net/netip"
	"time"

	"icc.tech/switch-agent/internal/core"
	"icc.tech/switch-agent/internal/health"
	"icc.tech/switch-agent/internal/stats"
	"icc.tech/switch-agent/internal/table"
)

// Outcome labels the branch that decided a packet's fate. Used for logging
// and metrics, never for control flow.
type Outcome string

const (
	OutcomeARPReply   Outcome = "arp_reply"
	OutcomeARPMiss    Outcome = "arp_miss"
	OutcomeLocal      Outcome = "local"
	OutcomeForward    Outcome = "forward"
	OutcomeBackup     Outcome = "backup"
	OutcomeNoRoute    Outcome = "no_route"
	OutcomeTTLExpired Outcome = "ttl_expired"
	OutcomeL2Forward  Outcome = "l2_forward"
	OutcomeL2Flood    Outcome = "l2_flood"
	OutcomeL2Drop     Outcome = "l2_drop"
)

// Result is what one ingress invocation produced: the decision, the branch
// that made it, and whether the IPv4 header was mutated and so needs its
// checksum recomputed before deparsing.
type Result struct {
	Decision    core.Decision
	Outcome     Outcome
	IPv4Mutated bool
}

// Config is the switch identity the pipeline acts as.
type Config struct {
	SwitchMAC core.MAC
	SwitchIP  netip.Addr
}

// Pipeline is the per-packet ingress state machine. All shared state
// (tables, health, counters) is injected; the pipeline itself holds nothing
// mutable, so invocations may run concurrently without coordination.
type Pipeline struct {
	cfg      Config
	l2       *table.Table
	arp      *table.Table
	routes   *table.Table
	backups  *table.Table
	health   *health.Store
	counters *stats.Counters
}

// New builds the ingress pipeline over the given tables and state stores.
func New(cfg Config, tables *table.Set, hs *health.Store, counters *stats.Counters) (*Pipeline, error) {
	l2, err := tables.Get(table.L2TableID)
	if err != nil {
		return nil, err
	}
	arp, err := tables.Get(table.ARPTableID)
	if err != nil {
		return nil, err
	}
	routes, err := tables.Get(table.RouteTableID)
	if err != nil {
		return nil, err
	}
	backups, err := tables.Get(table.BackupTableID)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		cfg:      cfg,
		l2:       l2,
		arp:      arp,
		routes:   routes,
		backups:  backups,
		health:   hs,
		counters: counters,
	}, nil
}

// Process runs the ingress stages for one packet. The packet is mutated in
// place; the returned decision tells the driver where to send it. Every
// branch terminates in a defined decision — no lookup miss is an error.
func (p *Pipeline) Process(pkt *core.ParsedPacket, ingressPort core.PortID, now time.Time) Result {
	// Liveness inferred from traffic: any packet proves its ingress port up.
	p.health.MarkSeen(ingressPort, now)

	switch {
	case pkt.ARPValid && pkt.ARP.Opcode == core.ARPOpRequest:
		return p.processARP(pkt, ingressPort)
	case pkt.IPv4Valid:
		return p.processIPv4(pkt, ingressPort)
	default:
		return p.processL2(pkt, ingressPort)
	}
}

// processARP answers ARP requests for addresses the switch knows. The reply
// reflects back out the ingress port.
func (p *Pipeline) processARP(pkt *core.ParsedPacket, ingressPort core.PortID) Result {
	key := pkt.ARP.TargetIP.As4()
	res := p.arp.Lookup(key[:])
	if !res.Hit {
		return p.applyDefault(p.arp.Default(), ingressPort, OutcomeARPMiss)
	}

	resolved := res.Action.Params.NextHopMAC
	arp := &pkt.ARP

	// Swap sender/target, answering as the owner of the requested address.
	arp.Opcode = core.ARPOpReply
	arp.TargetMAC = arp.SenderMAC
	arp.TargetIP, arp.SenderIP = arp.SenderIP, arp.TargetIP
	arp.SenderMAC = resolved

	pkt.Ethernet.DstMAC = pkt.Ethernet.SrcMAC
	pkt.Ethernet.SrcMAC = p.cfg.SwitchMAC

	return Result{Decision: core.Forward(ingressPort), Outcome: OutcomeARPReply}
}

// processIPv4 is the failover routing branch.
func (p *Pipeline) processIPv4(pkt *core.ParsedPacket, ingressPort core.PortID) Result {
	dst := pkt.IPv4.DstIP

	// Local delivery: packets for the switch itself reflect back untouched,
	// no TTL decrement and no table lookup.
	if dst == p.cfg.SwitchIP {
		return Result{Decision: core.Forward(ingressPort), Outcome: OutcomeLocal}
	}

	primary := p.routes.LookupAddr(dst)
	if !primary.Hit {
		p.counters.IncDrop(ingressPort)
		return Result{Decision: core.Drop(), Outcome: OutcomeNoRoute}
	}

	hop := primary.Action.Params
	outcome := OutcomeForward

	if !p.health.IsUp(hop.EgressPort) {
		// Primary link down: second lookup in the backup table for the same
		// destination. The activation counter is scoped to the failed
		// primary port.
		primaryPort := hop.EgressPort
		backup := p.backups.LookupAddr(dst)
		if !backup.Hit {
			p.counters.IncDrop(ingressPort)
			return Result{Decision: core.Drop(), Outcome: OutcomeNoRoute}
		}
		hop = backup.Action.Params
		outcome = OutcomeBackup
		p.counters.IncBackupActivation(primaryPort)
	}

	// TTL guard: the decrement happens exactly once, and a packet whose TTL
	// would reach zero is dropped before the egress assignment becomes
	// final.
	if pkt.IPv4.TTL <= 1 {
		p.counters.IncDrop(ingressPort)
		return Result{Decision: core.Drop(), Outcome: OutcomeTTLExpired}
	}
	pkt.IPv4.TTL--

	pkt.Ethernet.SrcMAC = p.cfg.SwitchMAC
	pkt.Ethernet.DstMAC = hop.NextHopMAC

	return Result{
		Decision:    core.Forward(hop.EgressPort),
		Outcome:     outcome,
		IPv4Mutated: true,
	}
}

// processL2 applies the plain Ethernet table to anything that is neither an
// ARP request nor IPv4.
func (p *Pipeline) processL2(pkt *core.ParsedPacket, ingressPort core.PortID) Result {
	res := p.l2.Lookup(pkt.Ethernet.DstMAC[:])
	if !res.Hit {
		return p.applyDefault(p.l2.Default(), ingressPort, OutcomeL2Drop)
	}
	return p.applyDefault(res.Action, ingressPort, OutcomeL2Drop)
}

// applyDefault applies a plain L2 action, used both for table hits and for
// the configured default on a miss.
func (p *Pipeline) applyDefault(act table.Action, ingressPort core.PortID, dropOutcome Outcome) Result {
	switch act.ID {
	case table.ActionForward:
		return Result{Decision: core.Forward(act.Params.EgressPort), Outcome: OutcomeL2Forward}
	case table.ActionBroadcast:
		return Result{Decision: core.Broadcast(act.Params.Group), Outcome: OutcomeL2Flood}
	default:
		p.counters.IncDrop(ingressPort)
		return Result{Decision: core.Drop(), Outcome: dropOutcome}
	}
}
