package main

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "stackback",
		Short: "Back up Docker Compose stacks with stop/tar/start",
		Long: `Stackback safely archives Docker Compose stacks on the local host.

For each configured stack it stops the services, writes an uncompressed
timestamped tar archive of the stack directory, and restarts the services.
After all stacks are processed it prunes archives older than the retention
window, gathers disk statistics, and emails a plain-text status report.

Stacks are processed strictly one at a time, in configured order. The process
exits 0 when no error occurred during backup operations and 1 otherwise, so
schedulers can alert on failures even when mail delivery is down.

Examples:
  stackback                   # Run a full backup of all configured stacks
  stackback config show       # Show configuration
  stackback history           # View past run outcomes`,
		Args:          cobra.NoArgs,
		RunE:          runBackup,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/stackback/config.yaml)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
