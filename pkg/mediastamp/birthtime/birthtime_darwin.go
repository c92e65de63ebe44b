//go:build darwin

package birthtime

import (
	"fmt"
	"os"
	"syscall"
	"time"
)

// creationTime reads Birthtimespec from the stat structure.
func creationTime(path string, info os.FileInfo) (time.Time, error) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s: no stat data", ErrUnavailable, path)
	}
	return time.Unix(stat.Birthtimespec.Sec, stat.Birthtimespec.Nsec), nil
}
