package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"icc.tech/switch-agent/internal/daemon"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the switch data plane",
	Long: `Run loads the configuration, populates the forwarding tables, and replays
every configured port's input capture through the pipeline, writing the
forwarded traffic to the ports' output captures.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := daemon.New(configFile)
		if err != nil {
			return err
		}
		if err := d.Start(); err != nil {
			return fmt.Errorf("failed to start daemon: %w", err)
		}
		return d.Run()
	},
}
