//go:build linux

package birthtime

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// creationTime uses statx(2) with STATX_BTIME. Kernels before 4.11 and
// filesystems without birth time support leave the BTIME bit unset.
func creationTime(path string, _ os.FileInfo) (time.Time, error) {
	var stat unix.Statx_t
	if err := unix.Statx(unix.AT_FDCWD, path, 0, unix.STATX_BTIME, &stat); err != nil {
		return time.Time{}, &os.PathError{Op: "statx", Path: path, Err: err}
	}
	if stat.Mask&unix.STATX_BTIME == 0 {
		return time.Time{}, fmt.Errorf("%w: %s: filesystem does not record birth time", ErrUnavailable, path)
	}
	return time.Unix(stat.Btime.Sec, int64(stat.Btime.Nsec)), nil
}
