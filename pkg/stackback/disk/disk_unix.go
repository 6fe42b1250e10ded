//go:build !windows

package disk

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"

	"golang.org/x/sys/unix"
)

// statFilesystem queries capacity for the filesystem containing path.
func statFilesystem(path string) (*Usage, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return nil, err
	}

	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bavail * uint64(stat.Bsize)
	used := total - free
	if total == 0 {
		return nil, errors.New("filesystem reports zero total size")
	}

	mount, err := mountPoint(path)
	if err != nil {
		mount = path
	}

	return &Usage{
		Total:       total,
		Used:        used,
		Free:        free,
		UsedPercent: float64(used) / float64(total) * 100,
		Mount:       mount,
	}, nil
}

// mountPoint walks up from path until the device ID changes, which marks the
// mount containing path.
func mountPoint(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	dev, err := deviceID(abs)
	if err != nil {
		return "", err
	}

	for abs != "/" {
		parent := filepath.Dir(abs)
		parentDev, err := deviceID(parent)
		if err != nil {
			return "", err
		}
		if parentDev != dev {
			return abs, nil
		}
		abs = parent
	}
	return "/", nil
}

// deviceID returns the device number of the filesystem entry at path.
func deviceID(path string) (uint64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, errors.New("unsupported stat result")
	}
	return uint64(st.Dev), nil
}
