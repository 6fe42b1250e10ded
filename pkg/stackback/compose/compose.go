// Package compose stops and starts Docker Compose stacks through the
// external docker binary.
package compose

import (
	"context"
	"os"
	"path/filepath"

	"github.com/jamesainslie/stackback/pkg/stackback/runlog"
	"github.com/jamesainslie/stackback/pkg/stackback/runner"
)

// State is the desired state of a stack.
type State string

const (
	StateStopped State = "stopped"
	StateRunning State = "running"
)

// Descriptor filenames in order of preference. No further probing beyond
// these two.
const (
	primaryDescriptor  = "compose.yaml"
	fallbackDescriptor = "docker-compose.yml"
)

// Controller drives stack lifecycle transitions. It never retries: a failed
// stop or start surfaces once through the runner's ERROR entry and the run
// moves on.
type Controller struct {
	run runner.Runner
	rec *runlog.Recorder
}

// NewController creates a controller using run for docker invocations.
func NewController(run runner.Runner, rec *runlog.Recorder) *Controller {
	return &Controller{run: run, rec: rec}
}

// SetState brings the stack at stackDir to the desired state. A missing
// stack directory is a benign no-op: one WARNING, success, and no docker
// invocation, so a single absent stack cannot abort the whole run.
func (c *Controller) SetState(ctx context.Context, stackDir string, desired State) bool {
	info, err := os.Stat(stackDir)
	if err != nil || !info.IsDir() {
		c.rec.Warnf("Stack directory not found at %s. Skipping %s.", stackDir, verb(desired))
		return true
	}

	c.rec.Infof("%s stack in %s...", actionText(desired), stackDir)

	cmd := runner.New("docker", "compose", "-f", filepath.Join(stackDir, descriptor(stackDir)), verb(desired))
	if desired == StateRunning {
		cmd.Args = append(cmd.Args, "-d")
	}

	_, err = c.run.Run(ctx, cmd, actionText(desired)+" "+filepath.Base(stackDir))
	return err == nil
}

// descriptor resolves the compose file to use for stackDir, preferring
// compose.yaml.
func descriptor(stackDir string) string {
	if _, err := os.Stat(filepath.Join(stackDir, primaryDescriptor)); err == nil {
		return primaryDescriptor
	}
	return fallbackDescriptor
}

// verb maps a desired state to the docker compose subcommand.
func verb(desired State) string {
	if desired == StateRunning {
		return "up"
	}
	return "down"
}

func actionText(desired State) string {
	if desired == StateRunning {
		return "Starting"
	}
	return "Stopping"
}
