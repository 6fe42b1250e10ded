package config

import "github.com/spf13/viper"

// Default configuration values.
const (
	DefaultBaseDir       = "/opt/stacks"
	DefaultBackupDir     = "/var/backups/docker"
	DefaultRetentionDays = 28
	DefaultSubjectTag    = "[backup]"
	DefaultSMTPPort      = 587

	// DefaultHistoryRetentionDays bounds how long run-history entries are
	// kept before `history clean` removes them.
	DefaultHistoryRetentionDays = 180
)

// setDefaults installs defaults on the given viper instance. Every key gets a
// default, including empty ones, so environment overrides bind to keys the
// config file never mentions.
func setDefaults(v *viper.Viper) {
	v.SetDefault("stacks", []string{})
	v.SetDefault("base_dir", DefaultBaseDir)
	v.SetDefault("extra_stack_path", "")
	v.SetDefault("backup_dir", DefaultBackupDir)
	v.SetDefault("retention_days", DefaultRetentionDays)
	v.SetDefault("subject_tag", DefaultSubjectTag)
	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", DefaultSMTPPort)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "")
	v.SetDefault("smtp.to", "")
	v.SetDefault("log.path", "")
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "")
	v.SetDefault("history.retention_days", DefaultHistoryRetentionDays)
}

// DefaultYAML is the config file written by `stackback config init`.
const DefaultYAML = `# Stackback configuration

# Stack names to back up, living under base_dir.
stacks:
  - grafana
  - postgres

# Directory containing most stacks.
base_dir: /opt/stacks

# Path to a single stack located outside base_dir (optional).
extra_stack_path: ""

# Destination for the created .tar archives.
backup_dir: /var/backups/docker

# Days to keep local archives.
retention_days: 28

# Prefix for the report mail subject.
subject_tag: "[backup]"

# Mail relay for run reports. Leave host empty to disable notifications.
smtp:
  host: ""
  port: 587
  username: ""
  password: ""
  from: ""
  to: ""

# Transcript log file (empty means $XDG_STATE_HOME/stackback/stackback.log).
log:
  path: ""

# Local run-history store.
history:
  enabled: true
  # Store location (empty means $XDG_DATA_HOME/stackback/history).
  path: ""
  retention_days: 180
`
