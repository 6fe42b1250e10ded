// Package disk reports filesystem capacity and backup-directory footprint
// for the run report.
package disk

import (
	"context"
	"io/fs"
	"os"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"
	"github.com/jamesainslie/stackback/pkg/stackback/runlog"
	"github.com/jamesainslie/stackback/pkg/stackback/types"
)

// sizeUnavailable is reported when the backup directory cannot be sized.
const sizeUnavailable = "N/A"

// Usage describes the filesystem holding the backup root.
type Usage struct {
	Total       uint64
	Used        uint64
	Free        uint64
	UsedPercent float64
	Mount       string
}

// Inspector gathers disk statistics once per run.
type Inspector struct {
	rec *runlog.Recorder
}

// NewInspector creates an inspector recording into rec.
func NewInspector(rec *runlog.Recorder) *Inspector {
	return &Inspector{rec: rec}
}

// Inspect returns capacity information for the filesystem containing root and
// the human-readable aggregate size of everything under root. A capacity
// query failure yields a nil Usage with an ERROR; a missing backup root
// yields a WARNING and "N/A" for the content size. Neither is fatal to the
// run.
func (i *Inspector) Inspect(ctx context.Context, root string) (*Usage, string) {
	var usage *Usage
	u, err := statFilesystem(root)
	if err != nil {
		i.rec.Errorf("Error getting disk usage for %s: %v", root, err)
	} else {
		usage = u
	}

	contentSize := sizeUnavailable
	if info, err := os.Stat(root); err == nil && info.IsDir() {
		if size, err := treeSize(ctx, root); err == nil {
			contentSize = types.FormatBytes(size)
		} else {
			i.rec.Errorf("Error calculating size of %s: %v", root, err)
		}
	} else {
		i.rec.Warnf("Backup directory %s not found for size calculation.", root)
	}

	return usage, contentSize
}

// treeSize sums the sizes of all regular files under root.
func treeSize(ctx context.Context, root string) (int64, error) {
	var total atomic.Int64

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, walkErr error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if walkErr != nil || d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total.Add(info.Size())
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total.Load(), nil
}
