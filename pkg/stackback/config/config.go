// Package config loads stackback configuration from YAML and environment
// variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/jamesainslie/stackback/pkg/stackback/types"
	"github.com/spf13/viper"
)

// SMTPConfig configures the mail relay for run reports. An empty host
// disables notifications.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	To       string `mapstructure:"to"`
}

// LogConfig configures the transcript log file.
type LogConfig struct {
	Path string `mapstructure:"path"`
}

// HistoryConfig configures the local run-history store.
type HistoryConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// Config is the full stackback configuration.
type Config struct {
	// Stacks are the stack names living under BaseDir.
	Stacks []string `mapstructure:"stacks"`

	// BaseDir is the directory containing most stacks.
	BaseDir string `mapstructure:"base_dir"`

	// ExtraStackPath optionally names one stack located outside BaseDir.
	ExtraStackPath string `mapstructure:"extra_stack_path"`

	// BackupDir is the destination root for created archives.
	BackupDir string `mapstructure:"backup_dir"`

	// RetentionDays is the local archive retention window.
	RetentionDays int `mapstructure:"retention_days"`

	// SubjectTag prefixes the report mail subject.
	SubjectTag string `mapstructure:"subject_tag"`

	SMTP    SMTPConfig    `mapstructure:"smtp"`
	Log     LogConfig     `mapstructure:"log"`
	History HistoryConfig `mapstructure:"history"`
}

// Load reads configuration from cfgFile when given, otherwise from
// $XDG_CONFIG_HOME/stackback/config.yaml falling back to
// ~/.config/stackback/config.yaml. Environment variables override file
// settings with the STACKBACK_ prefix (STACKBACK_BACKUP_DIR,
// STACKBACK_SMTP_HOST, ...). A missing config file is fine; defaults apply.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			v.AddConfigPath(filepath.Join(xdgConfigHome, "stackback"))
		}
		if homeDir, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".config", "stackback"))
		}
	}

	v.SetEnvPrefix("STACKBACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if cfgFile != "" {
			return nil, fmt.Errorf("reading config file %s: %w", cfgFile, err)
		}
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// No config file found is acceptable; defaults apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.Log.Path == "" {
		cfg.Log.Path = DefaultLogPath()
	}
	if cfg.History.Path == "" {
		cfg.History.Path = DefaultHistoryPath()
	}

	return &cfg, nil
}

// Validate performs presence checks only; anything beyond that is out of
// scope.
func (c *Config) Validate() error {
	if len(c.Stacks) == 0 && c.ExtraStackPath == "" {
		return errors.New("no stacks configured")
	}
	if len(c.Stacks) > 0 && c.BaseDir == "" {
		return errors.New("base_dir is required when stacks are configured")
	}
	if c.BackupDir == "" {
		return errors.New("backup_dir is required")
	}
	if c.RetentionDays <= 0 {
		return errors.New("retention_days must be positive")
	}
	return nil
}

// StackList builds the run's worklist in configured order, with the optional
// standalone stack appended last.
func (c *Config) StackList() []types.Stack {
	stacks := make([]types.Stack, 0, len(c.Stacks)+1)
	for _, name := range c.Stacks {
		stacks = append(stacks, types.NewStack(name, c.BaseDir))
	}
	if c.ExtraStackPath != "" {
		stacks = append(stacks, types.NewStandaloneStack(c.ExtraStackPath))
	}
	return stacks
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "stackback"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "stackback"), nil
}

// DefaultLogPath returns the default transcript location,
// $XDG_STATE_HOME/stackback/stackback.log.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "stackback", "stackback.log")
}

// DefaultHistoryPath returns the default run-history store location,
// $XDG_DATA_HOME/stackback/history.
func DefaultHistoryPath() string {
	return filepath.Join(xdg.DataHome, "stackback", "history")
}
