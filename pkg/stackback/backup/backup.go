// Package backup sequences a full run: stop, archive, and restart each
// configured stack in order, then prune old archives and gather disk
// statistics. Stacks are processed strictly one at a time; stopping two
// stacks' services concurrently against shared host resources is deliberately
// avoided.
package backup

import (
	"context"
	"os"
	"sort"
	"time"

	"github.com/jamesainslie/stackback/pkg/stackback/archive"
	"github.com/jamesainslie/stackback/pkg/stackback/compose"
	"github.com/jamesainslie/stackback/pkg/stackback/config"
	"github.com/jamesainslie/stackback/pkg/stackback/disk"
	"github.com/jamesainslie/stackback/pkg/stackback/retention"
	"github.com/jamesainslie/stackback/pkg/stackback/runlog"
	"github.com/jamesainslie/stackback/pkg/stackback/runner"
	"github.com/jamesainslie/stackback/pkg/stackback/types"
)

// Result is the run context: every accumulator a single run owns. It feeds
// the report, the history entry, and the process exit status.
type Result struct {
	Start       time.Time
	Archives    []types.ArchiveRecord
	Deleted     []string
	FreedBytes  int64
	Disk        *disk.Usage
	ContentSize string

	// Success snapshots the outcome of the backup phases. Notification
	// failures that happen later never change it.
	Success bool
}

// ArchivedBytes sums the sizes of all created archives.
func (r *Result) ArchivedBytes() int64 {
	var total int64
	for _, a := range r.Archives {
		total += a.Bytes
	}
	return total
}

// Orchestrator wires the phase components together for one run.
type Orchestrator struct {
	cfg       *config.Config
	rec       *runlog.Recorder
	outcome   *runlog.Outcome
	lifecycle *compose.Controller
	archiver  *archive.Archiver
	pruner    *retention.Pruner
	inspector *disk.Inspector
}

// NewOrchestrator builds an orchestrator running external commands through
// run.
func NewOrchestrator(cfg *config.Config, rec *runlog.Recorder, outcome *runlog.Outcome, run runner.Runner) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		rec:       rec,
		outcome:   outcome,
		lifecycle: compose.NewController(run, rec),
		archiver:  archive.NewArchiver(run, rec, cfg.BackupDir),
		pruner:    retention.NewPruner(rec),
		inspector: disk.NewInspector(rec),
	}
}

// Run executes the whole backup sequence and returns the run context. No
// phase failure aborts the run; each phase records its own errors and the
// next one proceeds. The only skip rule: a stack whose stop fails gets
// neither an archive attempt nor a restart.
func (o *Orchestrator) Run(ctx context.Context) *Result {
	result := &Result{Start: time.Now()}

	o.rec.Infof("### Phase 0: Initializing directories ###")
	if err := os.MkdirAll(o.cfg.BackupDir, 0o755); err != nil {
		o.rec.Errorf("Could not create backup directory %s: %v", o.cfg.BackupDir, err)
	}

	o.rec.Infof("### Phase 1: Processing stacks sequentially (Stop -> Archive -> Start) ###")
	for _, st := range o.cfg.StackList() {
		o.processStack(ctx, st, result)
	}

	o.rec.Infof("### Phase 2: Running local retention cleanup ###")
	result.Deleted, result.FreedBytes = o.pruner.Prune(ctx, o.cfg.BackupDir, o.cfg.RetentionDays)

	o.rec.Infof("### Phase 3: Gathering disk usage ###")
	result.Disk, result.ContentSize = o.inspector.Inspect(ctx, o.cfg.BackupDir)

	sort.Slice(result.Archives, func(i, j int) bool {
		return result.Archives[i].Path < result.Archives[j].Path
	})
	result.Success = !o.outcome.Failed()
	return result
}

// processStack runs the stop -> archive -> start sequence for one stack.
// The restart is attempted even when archiving failed, to keep downtime
// short.
func (o *Orchestrator) processStack(ctx context.Context, st types.Stack, result *Result) {
	o.rec.Infof("--- Starting backup for stack: %s ---", st.Name)

	// A missing stack directory downgrades the whole stack to a skip; it
	// never fails the run.
	if info, err := os.Stat(st.Dir); err != nil || !info.IsDir() {
		o.rec.Warnf("Stack directory not found at %s. Skipping backup for %s.", st.Dir, st.Name)
		return
	}

	if !o.lifecycle.SetState(ctx, st.Dir, compose.StateStopped) {
		o.rec.Warnf("Skipping archive and start for %s due to failure or directory issue.", st.Name)
		return
	}

	if record, ok := o.archiver.Archive(ctx, st); ok {
		result.Archives = append(result.Archives, *record)
	} else {
		o.rec.Errorf("Archiving failed for %s. Attempting to restart.", st.Name)
	}

	o.lifecycle.SetState(ctx, st.Dir, compose.StateRunning)
}
