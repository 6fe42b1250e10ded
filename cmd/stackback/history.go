package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/stackback/pkg/stackback/config"
	"github.com/jamesainslie/stackback/pkg/stackback/history"
	"github.com/jamesainslie/stackback/pkg/stackback/types"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View past backup runs",
	Long: `View the outcomes of past backup runs.

Each run records its status, archive count and size, and the space freed by
retention cleanup in a local store.`,
	RunE: runHistory,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove old history entries",
	Long:  `Remove history entries older than the history retention period.`,
	RunE:  runHistoryClean,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of runs to show")

	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

// openHistory opens the configured history store.
func openHistory() (*history.Store, *config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return nil, nil, err
	}
	return store, cfg, nil
}

// runHistory lists recent runs newest-first.
func runHistory(cmd *cobra.Command, args []string) error {
	store, _, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(historyLimit)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("No backup runs recorded yet.")
		fmt.Println("Run 'stackback' to perform a backup.")
		return nil
	}

	fmt.Printf("\n%-20s  %-8s  %-16s  %-10s  %-10s  %-10s\n",
		"TIME", "STATUS", "HOST", "ARCHIVES", "SIZE", "FREED")
	fmt.Println(strings.Repeat("-", 84))

	for _, e := range entries {
		fmt.Printf("%-20s  %-8s  %-16s  %-10s  %-10s  %-10s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			e.Status,
			e.Host,
			humanize.Comma(int64(e.Archives)),
			types.FormatBytes(e.ArchivedBytes),
			types.FormatBytes(e.FreedBytes),
		)
	}

	fmt.Println(strings.Repeat("-", 84))
	fmt.Printf("\nShowing %d runs. Use --limit to see more.\n", len(entries))
	return nil
}

// runHistoryClean removes entries past the history retention window.
func runHistoryClean(cmd *cobra.Command, args []string) error {
	store, cfg, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	retention := cfg.History.RetentionDays
	if retention <= 0 {
		retention = config.DefaultHistoryRetentionDays
	}

	removed, err := store.Cleanup(retention)
	if err != nil {
		return err
	}

	fmt.Printf("Removed %d history entries older than %d days.\n", removed, retention)
	return nil
}
