// Package archive creates one uncompressed tar archive per stack.
// Compression is deliberately omitted to keep stack downtime short, at the
// cost of larger files.
package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/stackback/pkg/stackback/runlog"
	"github.com/jamesainslie/stackback/pkg/stackback/runner"
	"github.com/jamesainslie/stackback/pkg/stackback/types"
)

// archiveExt is the extension of produced archives. The retention pruner
// matches the same extension.
const archiveExt = ".tar"

// timestampLayout names archives <identity>_<YYYYMMDD_HHMMSS>.tar.
const timestampLayout = "20060102_150405"

// Archiver archives stack directories into a backup root.
type Archiver struct {
	run        runner.Runner
	rec        *runlog.Recorder
	backupRoot string

	// now is replaceable in tests to pin archive filenames.
	now func() time.Time
}

// NewArchiver creates an archiver writing under backupRoot.
func NewArchiver(run runner.Runner, rec *runlog.Recorder, backupRoot string) *Archiver {
	return &Archiver{
		run:        run,
		rec:        rec,
		backupRoot: backupRoot,
		now:        time.Now,
	}
}

// Archive tars the stack directory into <backupRoot>/<name>/ and returns the
// record for the created file. The archive holds a single top-level directory
// because tar runs with the stack's base directory as its context.
// A nil record with ok false means the archive step failed; the failure is
// already in the run log. A stat failure on the produced file is tolerated:
// the record carries "N/A" instead of a size.
func (a *Archiver) Archive(ctx context.Context, st types.Stack) (*types.ArchiveRecord, bool) {
	destDir := filepath.Join(a.backupRoot, st.Name)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		a.rec.Errorf("Could not create backup directory %s: %v", destDir, err)
		return nil, false
	}

	target := filepath.Join(destDir, fmt.Sprintf("%s_%s%s", st.Name, a.now().Format(timestampLayout), archiveExt))
	a.rec.Infof("Creating uncompressed archive for '%s' at %s...", st.Name, target)

	cmd := tarCreateCommand(target, st.BaseDir, st.Name)
	if _, err := a.run.Run(ctx, cmd, "Archiving "+st.Name); err != nil {
		return nil, false
	}

	record := &types.ArchiveRecord{Path: target, HumanSize: "N/A"}
	if info, err := os.Stat(target); err == nil {
		record.Bytes = info.Size()
		record.HumanSize = types.FormatBytes(info.Size())
	}

	a.rec.Infof("Archive created successfully for %s. Size: %s (%s bytes).",
		st.Name, record.HumanSize, humanize.Comma(record.Bytes))
	return record, true
}

// tarCreateCommand builds the tar invocation as a typed argument vector:
// tar -c -f <target> -C <contextDir> <entry>. Constructing the vector here,
// with the context directory and entry as separate parameters, is what keeps
// a malformed -C assembly impossible.
func tarCreateCommand(target, contextDir, entry string) runner.Command {
	return runner.New("tar", "-c", "-f", target, "-C", contextDir, entry)
}
