//go:build windows

package birthtime

import (
	"fmt"
	"os"
	"syscall"
	"time"
)

func creationTime(path string, info os.FileInfo) (time.Time, error) {
	data, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s: no file attribute data", ErrUnavailable, path)
	}
	return time.Unix(0, data.CreationTime.Nanoseconds()), nil
}
