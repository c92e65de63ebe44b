//go:build !darwin && !linux && !windows

package birthtime

import (
	"fmt"
	"os"
	"time"
)

// creationTime always fails on platforms without a known birth time source.
func creationTime(path string, _ os.FileInfo) (time.Time, error) {
	return time.Time{}, fmt.Errorf("%w: %s: unsupported platform", ErrUnavailable, path)
}
