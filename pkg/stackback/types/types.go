// Package types provides the core data types shared across stackback:
// stack descriptors, archive records, and byte-size formatting helpers.
package types

import (
	"fmt"
	"path/filepath"
)

// Stack describes one Docker Compose stack to back up. It is built once at
// startup and never mutated afterwards.
type Stack struct {
	// Name is the stack identifier. It doubles as the archive identity:
	// the destination subdirectory and the archive filename prefix.
	Name string

	// BaseDir is the directory containing the stack directory. tar runs
	// with this as its context directory so archives hold a single
	// top-level entry instead of absolute paths.
	BaseDir string

	// Dir is the stack directory itself, BaseDir/Name.
	Dir string
}

// NewStack builds a descriptor for a stack living under the common base
// directory.
func NewStack(name, baseDir string) Stack {
	return Stack{
		Name:    name,
		BaseDir: baseDir,
		Dir:     filepath.Join(baseDir, name),
	}
}

// NewStandaloneStack builds a descriptor for a stack configured by explicit
// path outside the common base directory. Its name and base derive from the
// path, so the archive identity rules collapse into the same fields as a
// regular stack.
func NewStandaloneStack(path string) Stack {
	return Stack{
		Name:    filepath.Base(path),
		BaseDir: filepath.Dir(path),
		Dir:     path,
	}
}

// ArchiveRecord describes one archive produced during a run.
type ArchiveRecord struct {
	// Path is the absolute path of the created archive file.
	Path string

	// HumanSize is the archive size formatted by FormatBytes, or "N/A"
	// when the size could not be read.
	HumanSize string

	// Bytes is the archive size in bytes, zero when unavailable.
	Bytes int64
}

// byteUnits are the magnitude suffixes used by FormatBytes. int64 tops out
// within the exabyte range, so the list stops at E.
var byteUnits = [...]string{"B", "K", "M", "G", "T", "P", "E"}

// FormatBytes converts a byte count to a compact human-readable string using
// the largest unit that keeps the scaled value below 1024. Plain bytes render
// as an integer, everything else with one decimal place.
//
//	FormatBytes(0)          == "0B"
//	FormatBytes(1024)       == "1.0K"
//	FormatBytes(1536)       == "1.5K"
//	FormatBytes(1073741824) == "1.0G"
func FormatBytes(n int64) string {
	if n == 0 {
		return "0B"
	}

	size := float64(n)
	i := 0
	for size >= 1024 && i < len(byteUnits)-1 {
		size /= 1024
		i++
	}

	if i == 0 {
		return fmt.Sprintf("%d%s", int64(size), byteUnits[i])
	}
	return fmt.Sprintf("%.1f%s", size, byteUnits[i])
}
