// Package runlog collects the ordered, leveled log of a single backup run.
// Every entry is kept in memory for the mail report and the persisted
// transcript, and mirrored to the console as it is recorded. Whether the run
// counts as failed is tracked by a separate Outcome so that logging itself
// carries no control flow.
package runlog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Level is the severity of a log entry. The spellings appear verbatim in the
// transcript and the mail report.
type Level string

const (
	LevelInfo    Level = "INFO"
	LevelWarning Level = "WARNING"
	LevelError   Level = "ERROR"
)

// timeLayout is the timestamp format used in transcript lines.
const timeLayout = "2006-01-02 15:04:05"

// Entry is one recorded log line.
type Entry struct {
	Time    time.Time
	Level   Level
	Message string
}

// Line renders the entry in the transcript format.
func (e Entry) Line() string {
	return fmt.Sprintf("[%s] [%s] %s", e.Time.Format(timeLayout), e.Level, e.Message)
}

// Outcome derives the run's overall success from observed entry severities.
// An ERROR flips it to failed for the rest of the run; nothing resets it.
type Outcome struct {
	failed bool
}

// Observe notes the severity of a recorded entry.
func (o *Outcome) Observe(level Level) {
	if level == LevelError {
		o.failed = true
	}
}

// Failed reports whether any ERROR-level entry was observed.
func (o *Outcome) Failed() bool {
	return o.failed
}

// Recorder accumulates entries in order and mirrors each one to a console
// logger as it arrives. It is not safe for concurrent use; the run is
// strictly sequential.
type Recorder struct {
	entries []Entry
	console *log.Logger
	outcome *Outcome
	now     func() time.Time
}

// NewRecorder creates a recorder mirroring to the given writer, typically
// os.Stderr. Observed severities are reported to outcome.
func NewRecorder(w io.Writer, outcome *Outcome) *Recorder {
	console := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	})
	return &Recorder{
		console: console,
		outcome: outcome,
		now:     time.Now,
	}
}

// NewDiscardRecorder creates a recorder without console output, for tests.
func NewDiscardRecorder(outcome *Outcome) *Recorder {
	return NewRecorder(io.Discard, outcome)
}

// Record appends a timestamped entry, mirrors it to the console, and reports
// its severity to the outcome tracker.
func (r *Recorder) Record(level Level, message string) {
	entry := Entry{Time: r.now(), Level: level, Message: message}
	r.entries = append(r.entries, entry)

	switch level {
	case LevelWarning:
		r.console.Warn(message)
	case LevelError:
		r.console.Error(message)
	default:
		r.console.Info(message)
	}

	r.outcome.Observe(level)
}

// Infof records an INFO entry.
func (r *Recorder) Infof(format string, args ...interface{}) {
	r.Record(LevelInfo, fmt.Sprintf(format, args...))
}

// Warnf records a WARNING entry.
func (r *Recorder) Warnf(format string, args ...interface{}) {
	r.Record(LevelWarning, fmt.Sprintf(format, args...))
}

// Errorf records an ERROR entry.
func (r *Recorder) Errorf(format string, args ...interface{}) {
	r.Record(LevelError, fmt.Sprintf(format, args...))
}

// Entries returns a copy of the ordered entry sequence.
func (r *Recorder) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Lines renders all entries in transcript format.
func (r *Recorder) Lines() []string {
	lines := make([]string, len(r.entries))
	for i, e := range r.entries {
		lines[i] = e.Line()
	}
	return lines
}

// AppendTranscript appends a run transcript to the log file at path: a banner
// naming the run start time, every entry line, then a blank separator line.
// Parent directories are created as needed.
func AppendTranscript(path string, entries []Entry, start time.Time) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	rule := strings.Repeat("=", 50)
	b.WriteString(rule + "\n")
	b.WriteString("--- STACKBACK RUN ---\n")
	b.WriteString("Date and Time: " + start.Format(timeLayout) + "\n")
	b.WriteString(rule + "\n")
	for _, e := range entries {
		b.WriteString(e.Line() + "\n")
	}
	b.WriteString("\n")

	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("writing transcript: %w", err)
	}
	return nil
}
