package runner

import (
	"context"
	"runtime"
	"testing"

	"github.com/jamesainslie/stackback/pkg/stackback/runlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner() (*ExecRunner, *runlog.Recorder, *runlog.Outcome) {
	out := &runlog.Outcome{}
	rec := runlog.NewDiscardRecorder(out)
	return NewExecRunner(rec), rec, out
}

func skipWithoutUnixTools(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires unix coreutils")
	}
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "docker compose -f /opt/stacks/a/compose.yaml down",
		New("docker", "compose", "-f", "/opt/stacks/a/compose.yaml", "down").String())
	assert.Equal(t, "hostname", New("hostname").String())
}

func TestRunSuccess(t *testing.T) {
	skipWithoutUnixTools(t)
	r, rec, out := newTestRunner()

	output, err := r.Run(context.Background(), New("echo", "hello", "world"), "Echoing")
	require.NoError(t, err)
	assert.Equal(t, "hello world", output)
	assert.False(t, out.Failed())

	entries := rec.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, runlog.LevelInfo, entries[0].Level)
	assert.Contains(t, entries[0].Message, "Echoing")
	assert.Contains(t, entries[0].Message, "echo hello world")
	assert.Equal(t, runlog.LevelInfo, entries[1].Level)
}

func TestRunExitFailure(t *testing.T) {
	skipWithoutUnixTools(t)
	r, rec, out := newTestRunner()

	_, err := r.Run(context.Background(), New("false"), "Failing on purpose")
	require.Error(t, err)
	assert.True(t, out.Failed())

	entries := rec.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, runlog.LevelError, entries[1].Level)
	assert.Contains(t, entries[1].Message, "Failed: Failing on purpose")
}

func TestRunLaunchFailure(t *testing.T) {
	r, rec, out := newTestRunner()

	_, err := r.Run(context.Background(), New("stackback-no-such-binary"), "Launching nothing")
	require.Error(t, err)
	assert.True(t, out.Failed())

	entries := rec.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, runlog.LevelError, entries[1].Level)
	assert.Contains(t, entries[1].Message, "Could not launch")
}
