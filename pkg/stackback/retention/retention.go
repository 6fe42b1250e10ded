// Package retention deletes archives older than the configured window and
// accounts for the space they freed.
package retention

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/jamesainslie/stackback/pkg/stackback/runlog"
	"github.com/jamesainslie/stackback/pkg/stackback/types"
)

// archiveExt limits the sweep to archive files; anything else under the
// backup root is left alone.
const archiveExt = ".tar"

// candidate is an archive found during enumeration, with its size captured
// before deletion.
type candidate struct {
	path string
	size int64
}

// Pruner removes expired archives beneath a backup root.
type Pruner struct {
	rec *runlog.Recorder

	// now is replaceable in tests to pin the age threshold.
	now func() time.Time
}

// NewPruner creates a pruner recording into rec.
func NewPruner(rec *runlog.Recorder) *Pruner {
	return &Pruner{rec: rec, now: time.Now}
}

// Prune deletes every regular *.tar file under root whose age strictly
// exceeds maxAgeDays; a file aged exactly the threshold is kept. It returns
// the deleted paths and the bytes freed. One undeletable file never aborts
// the sweep: a vanished file is a WARNING, any other deletion error an
// ERROR, and the sweep continues. Only an enumeration failure ends the phase,
// with an ERROR and empty results.
func (p *Pruner) Prune(ctx context.Context, root string, maxAgeDays int) ([]string, int64) {
	p.rec.Infof("Starting local backup cleanup: deleting files older than %d days.", maxAgeDays)

	candidates, err := p.enumerate(ctx, root, maxAgeDays)
	if err != nil {
		p.rec.Errorf("Error enumerating old backups under %s: %v", root, err)
		return nil, 0
	}

	var (
		deleted []string
		freed   int64
	)
	for _, c := range candidates {
		if err := os.Remove(c.path); err != nil {
			if os.IsNotExist(err) {
				p.rec.Warnf("File not found during cleanup: %s", c.path)
			} else {
				p.rec.Errorf("Error deleting file %s: %v", c.path, err)
			}
			continue
		}
		freed += c.size
		deleted = append(deleted, c.path)
		p.rec.Infof("Deleted old backup: %s", c.path)
	}

	p.rec.Infof("Local cleanup finished. Total files deleted: %d. Freed space: %s",
		len(deleted), types.FormatBytes(freed))
	return deleted, freed
}

// enumerate walks root collecting expired archives. fastwalk traverses
// concurrently, so the collection is guarded; the result comes back sorted
// for deterministic deletion order.
func (p *Pruner) enumerate(ctx context.Context, root string, maxAgeDays int) ([]candidate, error) {
	cutoff := p.now().Add(-time.Duration(maxAgeDays) * 24 * time.Hour)

	var (
		mu    sync.Mutex
		found []candidate
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, walkErr error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() || !strings.EqualFold(filepath.Ext(path), archiveExt) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		// Strictly older than the window; an archive aged exactly
		// maxAgeDays survives.
		if !info.ModTime().Before(cutoff) {
			return nil
		}

		mu.Lock()
		found = append(found, candidate{path: path, size: info.Size()})
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(found, func(i, j int) bool { return found[i].path < found[j].path })
	return found, nil
}
