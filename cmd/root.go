// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "switch-agent",
	Short: "switch-agent - programmable switch data plane with fast failover",
	Long: `switch-agent models a programmable network switch data plane: packets are
parsed, verified, run through a failover-aware ingress match-action stage,
checksummed, and deparsed back to the wire.

The ingress stage keeps per-port liveness state and redirects traffic to
configured backup routes the moment a primary link is observed down, without
any control-plane round trip.`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "/etc/switch-agent/config.yml",
		"config file path")

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}
