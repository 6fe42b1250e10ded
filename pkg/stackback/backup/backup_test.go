package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jamesainslie/stackback/pkg/stackback/config"
	"github.com/jamesainslie/stackback/pkg/stackback/runlog"
	"github.com/jamesainslie/stackback/pkg/stackback/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRunner simulates docker and tar. tar writes its target file; docker
// invocations fail when their stack directory is listed in failDown.
type scriptedRunner struct {
	commands []runner.Command
	failDown map[string]bool
	tarSize  int
}

func (s *scriptedRunner) Run(_ context.Context, cmd runner.Command, _ string) (string, error) {
	s.commands = append(s.commands, cmd)

	switch cmd.Name {
	case "tar":
		// Args: -c -f <target> -C <contextDir> <entry>
		return "", os.WriteFile(cmd.Args[2], make([]byte, s.tarSize), 0o644)
	case "docker":
		if verbOf(cmd) == "down" && s.failDown[stackDirOf(cmd)] {
			return "", errors.New("exit status 1")
		}
		return "", nil
	}
	return "", nil
}

// verbOf extracts the compose subcommand from a docker invocation.
func verbOf(cmd runner.Command) string {
	return cmd.Args[3]
}

// stackDirOf extracts the stack directory from a docker invocation's -f path.
func stackDirOf(cmd runner.Command) string {
	return filepath.Dir(cmd.Args[2])
}

func (s *scriptedRunner) invocations(name, verb string) []runner.Command {
	var out []runner.Command
	for _, cmd := range s.commands {
		if cmd.Name != name {
			continue
		}
		if verb != "" && verbOf(cmd) != verb {
			continue
		}
		out = append(out, cmd)
	}
	return out
}

// newFixture creates a base directory with the named stacks plus a backup
// root, and returns a ready orchestrator around the scripted runner.
func newFixture(t *testing.T, stackNames []string, script runner.Runner) (*Orchestrator, *config.Config, *runlog.Recorder, *runlog.Outcome) {
	t.Helper()

	baseDir := t.TempDir()
	for _, name := range stackNames {
		dir := filepath.Join(baseDir, name)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "compose.yaml"), []byte("services: {}\n"), 0o644))
	}

	cfg := &config.Config{
		Stacks:        stackNames,
		BaseDir:       baseDir,
		BackupDir:     filepath.Join(t.TempDir(), "backups"),
		RetentionDays: 28,
	}

	outcome := &runlog.Outcome{}
	rec := runlog.NewDiscardRecorder(outcome)
	return NewOrchestrator(cfg, rec, outcome, script), cfg, rec, outcome
}

func TestRunAllStacksSucceed(t *testing.T) {
	script := &scriptedRunner{tarSize: 1024}
	o, cfg, _, _ := newFixture(t, []string{"postgres", "grafana"}, script)

	result := o.Run(context.Background())

	assert.True(t, result.Success)
	require.Len(t, result.Archives, 2)

	// Archives sorted alphabetically by path regardless of processing order.
	assert.Contains(t, result.Archives[0].Path, "grafana")
	assert.Contains(t, result.Archives[1].Path, "postgres")
	assert.Equal(t, int64(2048), result.ArchivedBytes())

	for _, a := range result.Archives {
		assert.True(t, strings.HasPrefix(a.Path, cfg.BackupDir))
		_, err := os.Stat(a.Path)
		assert.NoError(t, err)
	}

	// Nothing eligible for pruning.
	assert.Empty(t, result.Deleted)
	assert.Zero(t, result.FreedBytes)

	// Each stack was stopped, archived, and restarted.
	assert.Len(t, script.invocations("docker", "down"), 2)
	assert.Len(t, script.invocations("tar", ""), 2)
	assert.Len(t, script.invocations("docker", "up"), 2)
}

func TestRunStopFailureSkipsArchiveAndRestart(t *testing.T) {
	script := &scriptedRunner{tarSize: 512}
	o, cfg, rec, outcome := newFixture(t, []string{"broken", "healthy"}, script)
	script.failDown = map[string]bool{filepath.Join(cfg.BaseDir, "broken"): true}

	result := o.Run(context.Background())

	assert.False(t, result.Success)
	assert.True(t, outcome.Failed())

	// Only the healthy stack produced an archive and a restart.
	require.Len(t, result.Archives, 1)
	assert.Contains(t, result.Archives[0].Path, "healthy")

	ups := script.invocations("docker", "up")
	require.Len(t, ups, 1)
	assert.Equal(t, filepath.Join(cfg.BaseDir, "healthy"), stackDirOf(ups[0]))

	var skipped bool
	for _, e := range rec.Entries() {
		if e.Level == runlog.LevelWarning && strings.Contains(e.Message, "Skipping archive and start for broken") {
			skipped = true
		}
	}
	assert.True(t, skipped)
}

func TestRunMissingStackDirectoryIsBenign(t *testing.T) {
	script := &scriptedRunner{tarSize: 512}
	o, cfg, rec, outcome := newFixture(t, []string{"present"}, script)
	cfg.Stacks = append(cfg.Stacks, "absent")

	result := o.Run(context.Background())

	assert.True(t, result.Success)
	assert.False(t, outcome.Failed())
	require.Len(t, result.Archives, 1)
	assert.Contains(t, result.Archives[0].Path, "present")

	// No docker or tar invocation ever named the absent stack.
	for _, cmd := range script.commands {
		assert.NotContains(t, cmd.String(), "absent")
	}

	var warned bool
	for _, e := range rec.Entries() {
		if e.Level == runlog.LevelWarning && strings.Contains(e.Message, "Skipping backup for absent") {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestRunArchiveFailureStillRestarts(t *testing.T) {
	script := &failingTarRunner{}
	o, _, rec, outcome := newFixture(t, []string{"grafana"}, script)

	result := o.Run(context.Background())

	assert.False(t, result.Success)
	assert.True(t, outcome.Failed())
	assert.Empty(t, result.Archives)

	// Restart was attempted despite the failed archive.
	require.Len(t, script.ups, 1)

	var restartLogged bool
	for _, e := range rec.Entries() {
		if e.Level == runlog.LevelError && strings.Contains(e.Message, "Archiving failed for grafana") {
			restartLogged = true
		}
	}
	assert.True(t, restartLogged)
}

// failingTarRunner succeeds for docker and fails every tar invocation.
type failingTarRunner struct {
	ups []runner.Command
}

func (f *failingTarRunner) Run(_ context.Context, cmd runner.Command, _ string) (string, error) {
	if cmd.Name == "tar" {
		return "", errors.New("exit status 2")
	}
	if cmd.Name == "docker" && verbOf(cmd) == "up" {
		f.ups = append(f.ups, cmd)
	}
	return "", nil
}

func TestRunIncludesStandaloneStack(t *testing.T) {
	script := &scriptedRunner{tarSize: 256}
	o, cfg, _, _ := newFixture(t, []string{"grafana"}, script)

	extra := filepath.Join(t.TempDir(), "dockge")
	require.NoError(t, os.MkdirAll(extra, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(extra, "docker-compose.yml"), []byte("services: {}\n"), 0o644))
	cfg.ExtraStackPath = extra

	result := o.Run(context.Background())

	require.Len(t, result.Archives, 2)
	var names []string
	for _, a := range result.Archives {
		names = append(names, filepath.Base(filepath.Dir(a.Path)))
	}
	assert.ElementsMatch(t, []string{"grafana", "dockge"}, names)
}
