// Package report renders the plain-text run report and delivers it by mail.
// The layout is fixed-width ASCII so the report reads cleanly in any mail
// client.
package report

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jamesainslie/stackback/pkg/stackback/disk"
	"github.com/jamesainslie/stackback/pkg/stackback/runlog"
	"github.com/jamesainslie/stackback/pkg/stackback/types"
)

// Column widths of the archive table. The separator spans both columns plus
// the gap between them.
const (
	fileWidth = 50
	sizeWidth = 8
)

var separator = strings.Repeat("-", fileWidth+sizeWidth+6)

// Data is everything the report needs from a finished run.
type Data struct {
	Tag           string
	Success       bool
	Hostname      string
	Date          time.Time
	RetentionDays int
	BackupDir     string

	Archives    []types.ArchiveRecord
	Deleted     []string
	FreedBytes  int64
	Disk        *disk.Usage
	ContentSize string
	Entries     []runlog.Entry
}

// Status renders the overall outcome for the subject and headline.
func (d Data) Status() string {
	if d.Success {
		return "SUCCESS"
	}
	return "FAILURE"
}

// Subject builds the mail subject line.
func Subject(d Data) string {
	return fmt.Sprintf("%s %s: Docker stack backup completed on %s (%s)",
		d.Tag, d.Status(), d.Hostname, d.Date.Format("2006-01-02"))
}

// Compose renders the full report body: archive table, disk usage, retention
// summary, then the complete log transcript.
func Compose(d Data) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Docker Stacks Backup Report (%s)\n\n", d.Status())
	b.WriteString(archiveSection(d.Archives))
	b.WriteString("\n")
	b.WriteString(diskSection(d.Disk, d.BackupDir, d.ContentSize))
	b.WriteString("\n")
	b.WriteString(retentionSection(d.Deleted, d.FreedBytes, d.RetentionDays))
	b.WriteString("\n--- Full Log ---\n")
	for _, e := range d.Entries {
		b.WriteString(e.Line() + "\n")
	}

	return b.String()
}

// archiveSection renders the created-archives table, alphabetical by path.
func archiveSection(archives []types.ArchiveRecord) string {
	var b strings.Builder
	b.WriteString("SUMMARY OF CREATED ARCHIVES (Alphabetical by filename):\n")

	if len(archives) == 0 {
		b.WriteString("- No new archives created.\n")
		return b.String()
	}

	sorted := make([]types.ArchiveRecord, len(archives))
	copy(sorted, archives)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	var total int64
	b.WriteString(separator + "\n")
	fmt.Fprintf(&b, "%-*s    %-*s\n", sizeWidth, "SIZE", fileWidth, "FILENAME")
	b.WriteString(separator + "\n")
	for _, a := range sorted {
		total += a.Bytes
		fmt.Fprintf(&b, "%*s    %-*s\n", sizeWidth, types.FormatBytes(a.Bytes), fileWidth, a.Path)
	}
	b.WriteString(separator + "\n")
	fmt.Fprintf(&b, "%*s    %-*s\n", sizeWidth, types.FormatBytes(total), fileWidth, "TOTAL SIZE OF NEW ARCHIVES")
	b.WriteString(separator + "\n")

	return b.String()
}

// diskSection renders mount capacity and the size of the backup directory's
// contents, or a placeholder when the capacity query failed.
func diskSection(usage *disk.Usage, backupDir, contentSize string) string {
	if usage == nil {
		return "DISK USAGE CHECK:\n- Disk usage information not available.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "DISK USAGE CHECK (on %s):\n", usage.Mount)
	b.WriteString(separator + "\n")
	fmt.Fprintf(&b, "Disk: %s | Total: %s | Used: %s | Usage: %.0f%%\n",
		mountLabel(usage.Mount),
		types.FormatBytes(int64(usage.Total)),
		types.FormatBytes(int64(usage.Used)),
		usage.UsedPercent)
	fmt.Fprintf(&b, "Backup Content Size (%s): %s\n", backupDir, contentSize)
	b.WriteString(separator + "\n")

	return b.String()
}

// retentionSection renders the deleted-archives list, alphabetical, with the
// total space freed.
func retentionSection(deleted []string, freedBytes int64, retentionDays int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "RETENTION CLEANUP (Older than %d days):\n", retentionDays)
	b.WriteString(separator + "\n")

	if len(deleted) == 0 {
		fmt.Fprintf(&b, "No files older than %d days were deleted.\n", retentionDays)
		b.WriteString(separator + "\n")
		return b.String()
	}

	sorted := make([]string, len(deleted))
	copy(sorted, deleted)
	sort.Strings(sorted)

	retentionWidth := fileWidth + sizeWidth + 5
	fmt.Fprintf(&b, "%-*s\n", retentionWidth, "DELETED FILENAME")
	b.WriteString(separator + "\n")
	for _, name := range sorted {
		fmt.Fprintf(&b, "%-*s\n", retentionWidth, name)
	}
	b.WriteString(separator + "\n")
	fmt.Fprintf(&b, "%*s    %-*s\n", sizeWidth, types.FormatBytes(freedBytes), fileWidth, "TOTAL SPACE FREED")
	b.WriteString(separator + "\n")

	return b.String()
}

// mountLabel shortens a mount path to its final component for the one-line
// disk summary; the root mount stays "/".
func mountLabel(mount string) string {
	if mount == "/" {
		return "/"
	}
	return filepath.Base(mount)
}
