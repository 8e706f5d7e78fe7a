package daemon

import (
	"icc.tech/switch-agent/internal/config"
	"icc.tech/switch-agent/internal/core"
	"icc.tech/switch-agent/internal/log"
	"icc.tech/switch-agent/internal/table"
)

// buildTables creates the switch's table set with its per-table default
// actions: the L2 table floods unknown destinations, everything else drops
// on miss.
func buildTables(cfg *config.Config) *table.Set {
	set := table.NewSet()
	set.Add(table.New(table.L2TableID, table.KindExact, table.BroadcastAction(cfg.Dataplane.FloodGroup)))
	set.Add(table.New(table.ARPTableID, table.KindExact, table.DropAction()))
	set.Add(table.New(table.RouteTableID, table.KindLPM, table.DropAction()))
	set.Add(table.New(table.BackupTableID, table.KindLPM, table.DropAction()))
	return set
}

// populateTables installs the statically configured entries through the
// same insert interface an external control plane would use.
func populateTables(set *table.Set, cfg *config.Config) error {
	for _, e := range cfg.Tables.L2 {
		key := table.ExactKey(e.MAC[:])
		// L2 forwarding does not rewrite addresses, so no next-hop MAC.
		if err := set.InsertEntry(table.L2TableID, key, table.ForwardAction(e.Port, core.MAC{}), 0); err != nil {
			return err
		}
	}
	for _, e := range cfg.Tables.ARP {
		ip := e.IP.As4()
		key := table.ExactKey(ip[:])
		if err := set.InsertEntry(table.ARPTableID, key, table.ARPReplyAction(e.MAC), 0); err != nil {
			return err
		}
	}
	for _, e := range cfg.Tables.Routes {
		key := table.PrefixKey(e.Prefix)
		if err := set.InsertEntry(table.RouteTableID, key, table.ForwardAction(e.Port, e.NextHopMAC), e.Priority); err != nil {
			return err
		}
	}
	for _, e := range cfg.Tables.BackupRoutes {
		key := table.PrefixKey(e.Prefix)
		if err := set.InsertEntry(table.BackupTableID, key, table.ForwardAction(e.Port, e.NextHopMAC), e.Priority); err != nil {
			return err
		}
	}

	log.GetLogger().Infof("tables populated: l2=%d arp=%d routes=%d backup_routes=%d",
		len(cfg.Tables.L2), len(cfg.Tables.ARP), len(cfg.Tables.Routes), len(cfg.Tables.BackupRoutes))
	return nil
}
