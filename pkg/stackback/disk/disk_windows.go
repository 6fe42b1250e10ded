//go:build windows

package disk

import "errors"

// statFilesystem is not implemented on Windows; stackback targets Unix hosts
// running Docker Compose.
func statFilesystem(path string) (*Usage, error) {
	return nil, errors.New("disk capacity query not supported on windows")
}
