package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/stackback/pkg/stackback/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage stackback configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/stackback/config.yaml (if set)
  2. ~/.config/stackback/config.yaml

Environment variables can override config file settings using the STACKBACK_
prefix:
  STACKBACK_BACKUP_DIR=/mnt/backups
  STACKBACK_RETENTION_DAYS=14
  STACKBACK_SMTP_HOST=mail.example.com`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration settings from all sources.`,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Long:  `Create a default configuration file if one doesn't exist.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the configuration file.`,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// runConfigShow displays the current configuration.
func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	fmt.Println("Current Configuration:")
	fmt.Println("----------------------")
	fmt.Printf("stacks:                %s\n", strings.Join(cfg.Stacks, ", "))
	fmt.Printf("base_dir:              %s\n", cfg.BaseDir)
	fmt.Printf("extra_stack_path:      %s\n", cfg.ExtraStackPath)
	fmt.Printf("backup_dir:            %s\n", cfg.BackupDir)
	fmt.Printf("retention_days:        %d\n", cfg.RetentionDays)
	fmt.Printf("subject_tag:           %s\n", cfg.SubjectTag)
	fmt.Printf("smtp.host:             %s\n", cfg.SMTP.Host)
	fmt.Printf("smtp.port:             %d\n", cfg.SMTP.Port)
	fmt.Printf("smtp.from:             %s\n", cfg.SMTP.From)
	fmt.Printf("smtp.to:               %s\n", cfg.SMTP.To)
	fmt.Printf("log.path:              %s\n", cfg.Log.Path)
	fmt.Printf("history.enabled:       %t\n", cfg.History.Enabled)
	fmt.Printf("history.path:          %s\n", cfg.History.Path)
	fmt.Printf("history.retention:     %d days\n", cfg.History.RetentionDays)

	if err := cfg.Validate(); err != nil {
		fmt.Printf("\nWarning: configuration is incomplete: %v\n", err)
	}
	return nil
}

// runConfigInit writes a default config file if none exists.
func runConfigInit(cmd *cobra.Command, args []string) error {
	dir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("Config file already exists: %s\n", path)
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking config file: %w", err)
	}

	// The config carries SMTP credentials; keep it private to the owner.
	if err := os.WriteFile(path, []byte(config.DefaultYAML), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}

	fmt.Printf("Created default config file: %s\n", path)
	return nil
}

// runConfigPath prints the configuration file location.
func runConfigPath(cmd *cobra.Command, args []string) error {
	if cfgFile != "" {
		fmt.Println(cfgFile)
		return nil
	}

	dir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	fmt.Println(filepath.Join(dir, "config.yaml"))
	return nil
}
