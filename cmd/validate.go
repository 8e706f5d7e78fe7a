package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"icc.tech/switch-agent/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration without starting the data plane",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		fmt.Printf("config ok: %d port(s), %d route(s), %d backup route(s), %d arp entrie(s), %d l2 entrie(s)\n",
			len(cfg.Ports), len(cfg.Tables.Routes), len(cfg.Tables.BackupRoutes),
			len(cfg.Tables.ARP), len(cfg.Tables.L2))
		return nil
	},
}
