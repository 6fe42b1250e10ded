package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jamesainslie/stackback/pkg/stackback/backup"
	"github.com/jamesainslie/stackback/pkg/stackback/config"
	"github.com/jamesainslie/stackback/pkg/stackback/history"
	"github.com/jamesainslie/stackback/pkg/stackback/report"
	"github.com/jamesainslie/stackback/pkg/stackback/runlog"
	"github.com/jamesainslie/stackback/pkg/stackback/runner"
	"github.com/spf13/cobra"
)

// errBackupFailed maps a failed run to exit status 1.
var errBackupFailed = errors.New("backup run finished with errors")

// runBackup executes one full backup run: orchestrate, notify, record
// history, persist the transcript, and derive the exit status.
func runBackup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	outcome := &runlog.Outcome{}
	rec := runlog.NewRecorder(os.Stderr, outcome)

	orch := backup.NewOrchestrator(cfg, rec, outcome, runner.NewExecRunner(rec))
	result := orch.Run(cmd.Context())

	rec.Infof("### Phase 4: Finalizing report and sending notification ###")
	notify(cmd.Context(), cfg, rec, result)
	rec.Infof("--- Backup run finished ---")

	recordHistory(cfg, result)

	if err := runlog.AppendTranscript(cfg.Log.Path, rec.Entries(), result.Start); err != nil {
		// The transcript is the last reporting channel left; stderr is
		// all that remains when it fails.
		fmt.Fprintf(os.Stderr, "FATAL: Could not write transcript to %s: %v\n", cfg.Log.Path, err)
	}

	// The exit status reflects backup operations only; Result.Success was
	// snapshotted before notification.
	if !result.Success {
		return errBackupFailed
	}
	return nil
}

// notify composes the run report and sends it through the configured mail
// relay. A delivery failure is recorded as ERROR but the run's outcome is
// already fixed; the report itself states the correct status.
func notify(ctx context.Context, cfg *config.Config, rec *runlog.Recorder, result *backup.Result) {
	data := report.Data{
		Tag:           cfg.SubjectTag,
		Success:       result.Success,
		Hostname:      hostname(),
		Date:          time.Now(),
		RetentionDays: cfg.RetentionDays,
		BackupDir:     cfg.BackupDir,
		Archives:      result.Archives,
		Deleted:       result.Deleted,
		FreedBytes:    result.FreedBytes,
		Disk:          result.Disk,
		ContentSize:   result.ContentSize,
		Entries:       rec.Entries(),
	}
	body := report.Compose(data)

	settings := report.MailSettings{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		To:       cfg.SMTP.To,
	}
	if !settings.Configured() {
		rec.Warnf("SMTP host not configured; skipping email notification.")
		return
	}

	rec.Infof("Sending email notification...")
	if err := report.NewMailer(settings).Send(ctx, report.Subject(data), body); err != nil {
		rec.Errorf("Failed to send email: %v", err)
		return
	}
	rec.Infof("Email sent successfully.")
}

// recordHistory appends the run summary to the local history store. Store
// trouble never alters the backup outcome.
func recordHistory(cfg *config.Config, result *backup.Result) {
	if !cfg.History.Enabled {
		return
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open history store: %v\n", err)
		return
	}
	defer store.Close()

	status := "FAILURE"
	if result.Success {
		status = "SUCCESS"
	}

	entry := history.NewEntry(result.Start, hostname(), status)
	entry.Archives = len(result.Archives)
	entry.ArchivedBytes = result.ArchivedBytes()
	entry.Deleted = len(result.Deleted)
	entry.FreedBytes = result.FreedBytes

	if err := store.Append(entry); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not record run history: %v\n", err)
	}
}

// hostname returns the host's name for the report subject and history.
func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "UNKNOWN_HOST"
	}
	return name
}
