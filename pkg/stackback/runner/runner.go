// Package runner executes external commands for the backup run. It is the
// single chokepoint for docker compose and tar invocations, so every failure
// path funnels into the run log uniformly. Commands are always argument
// vectors; nothing is ever passed through a shell.
package runner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/jamesainslie/stackback/pkg/stackback/runlog"
)

// Command is an external command as an explicit argument vector.
type Command struct {
	Name string
	Args []string
}

// New builds a command from a program name and its arguments.
func New(name string, args ...string) Command {
	return Command{Name: name, Args: args}
}

// String renders the command for log lines. The rendered form is never
// executed.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Runner runs external commands. The concrete implementation is ExecRunner;
// tests substitute fakes.
type Runner interface {
	// Run executes the command and returns its trimmed standard output.
	// Failures are already recorded in the run log when Run returns an
	// error.
	Run(ctx context.Context, cmd Command, description string) (string, error)
}

// ExecRunner runs commands via os/exec and records every start, success, and
// failure in the run log.
type ExecRunner struct {
	rec *runlog.Recorder
}

// NewExecRunner creates a runner recording into rec.
func NewExecRunner(rec *runlog.Recorder) *ExecRunner {
	return &ExecRunner{rec: rec}
}

// Run implements Runner. A nonzero exit records an ERROR carrying the
// description and the command's standard error; a launch failure (binary not
// found, permission denied) records a distinct ERROR.
func (r *ExecRunner) Run(ctx context.Context, cmd Command, description string) (string, error) {
	r.rec.Infof("Starting command: %s (%s)", description, cmd)

	var stdout, stderr bytes.Buffer
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	switch {
	case err == nil:
		r.rec.Infof("Successfully finished: %s", description)
		return strings.TrimSpace(stdout.String()), nil

	case isExitFailure(err):
		r.rec.Errorf("Failed: %s. Error: %s", description, strings.TrimSpace(stderr.String()))
		return "", err

	default:
		r.rec.Errorf("Could not launch %q for %s: %v", cmd.Name, description, err)
		return "", err
	}
}

// isExitFailure reports whether err means the command ran and exited nonzero,
// as opposed to failing to launch at all.
func isExitFailure(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}
