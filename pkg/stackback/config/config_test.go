package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "stacks: [grafana]\n"))
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseDir, cfg.BaseDir)
	assert.Equal(t, DefaultBackupDir, cfg.BackupDir)
	assert.Equal(t, DefaultRetentionDays, cfg.RetentionDays)
	assert.Equal(t, DefaultSubjectTag, cfg.SubjectTag)
	assert.Equal(t, DefaultSMTPPort, cfg.SMTP.Port)
	assert.True(t, cfg.History.Enabled)
	assert.NotEmpty(t, cfg.Log.Path)
	assert.NotEmpty(t, cfg.History.Path)
}

func TestLoadFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
stacks:
  - grafana
  - postgres
base_dir: /srv/stacks
extra_stack_path: /opt/dockge
backup_dir: /mnt/backups
retention_days: 14
subject_tag: "[prod]"
smtp:
  host: mail.example.com
  port: 465
  username: backup
  password: hunter2
  from: backup@example.com
  to: ops@example.com
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"grafana", "postgres"}, cfg.Stacks)
	assert.Equal(t, "/srv/stacks", cfg.BaseDir)
	assert.Equal(t, "/opt/dockge", cfg.ExtraStackPath)
	assert.Equal(t, "/mnt/backups", cfg.BackupDir)
	assert.Equal(t, 14, cfg.RetentionDays)
	assert.Equal(t, "[prod]", cfg.SubjectTag)
	assert.Equal(t, "mail.example.com", cfg.SMTP.Host)
	assert.Equal(t, 465, cfg.SMTP.Port)
	require.NoError(t, cfg.Validate())
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("STACKBACK_BACKUP_DIR", "/env/backups")
	t.Setenv("STACKBACK_SMTP_HOST", "env-relay")

	cfg, err := Load(writeConfig(t, "stacks: [grafana]\nbackup_dir: /file/backups\n"))
	require.NoError(t, err)

	assert.Equal(t, "/env/backups", cfg.BackupDir)
	assert.Equal(t, "env-relay", cfg.SMTP.Host)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"no stacks", func(c *Config) { c.Stacks = nil; c.ExtraStackPath = "" }, "no stacks"},
		{"standalone only", func(c *Config) { c.Stacks = nil; c.ExtraStackPath = "/opt/dockge" }, ""},
		{"missing base dir", func(c *Config) { c.BaseDir = "" }, "base_dir"},
		{"missing backup dir", func(c *Config) { c.BackupDir = "" }, "backup_dir"},
		{"zero retention", func(c *Config) { c.RetentionDays = 0 }, "retention_days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Stacks:        []string{"grafana"},
				BaseDir:       "/opt/stacks",
				BackupDir:     "/var/backups/docker",
				RetentionDays: 28,
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestStackList(t *testing.T) {
	cfg := &Config{
		Stacks:         []string{"grafana", "postgres"},
		BaseDir:        "/opt/stacks",
		ExtraStackPath: "/opt/dockge",
	}

	stacks := cfg.StackList()
	require.Len(t, stacks, 3)
	assert.Equal(t, "grafana", stacks[0].Name)
	assert.Equal(t, filepath.Join("/opt/stacks", "postgres"), stacks[1].Dir)
	assert.Equal(t, "dockge", stacks[2].Name)
	assert.Equal(t, "/opt", stacks[2].BaseDir)
}
