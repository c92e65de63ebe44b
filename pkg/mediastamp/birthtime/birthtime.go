// Package birthtime reads the creation (birth) time of a file from the
// filesystem. Birth time is not available on every platform or filesystem;
// when it is missing, Of returns an error wrapping ErrUnavailable instead of
// substituting another timestamp.
package birthtime

import (
	"errors"
	"os"
	"time"
)

// ErrUnavailable indicates the platform or filesystem does not report a birth time.
var ErrUnavailable = errors.New("creation time unavailable")

// Func reads the creation time of the file at path. info is the result of
// os.Stat on the same path and may be used to avoid a second stat call.
type Func func(path string, info os.FileInfo) (time.Time, error)

// Of returns the creation time of the file at path.
func Of(path string, info os.FileInfo) (time.Time, error) {
	return creationTime(path, info)
}

var _ Func = Of
