package sidecar

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/jamesainslie/mediastamp/pkg/mediastamp/logging"
	"github.com/jamesainslie/mediastamp/pkg/mediastamp/media"
	"github.com/jamesainslie/mediastamp/pkg/mediastamp/types"
)

// ErrFilesystem wraps every filesystem failure that aborts a run.
// The underlying error stays reachable through errors.Is and errors.As.
var ErrFilesystem = errors.New("filesystem operation failed")

// Writer performs a single linear pass over one directory.
type Writer struct {
	opts Options
}

// New creates a Writer with the given options.
// It fails fast when no directory is configured.
func New(opts Options) (*Writer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Writer{opts: opts}, nil
}

// Run lists the directory and processes every entry in order. The first
// filesystem error aborts the pass and is returned wrapped in ErrFilesystem;
// sidecars written before the failure stay on disk.
func (w *Writer) Run(ctx context.Context) (*types.RunResult, error) {
	start := time.Now()
	logger := logging.Get("sidecar")

	dir, err := filepath.Abs(w.opts.Dir)
	if err != nil {
		return nil, fsError(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fsError(err)
	}
	logger.Debug("directory listed", "dir", dir, "entries", len(entries))

	result := &types.RunResult{
		Dir:      dir,
		Outcomes: make([]types.Outcome, 0, len(entries)),
	}

	for _, de := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		outcome, err := w.process(dir, de)
		if err != nil {
			logger.Error("run aborted", "path", filepath.Join(dir, de.Name()), "error", err)
			return nil, err
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	result.Elapsed = time.Since(start)
	logger.Info("run complete",
		"dir", dir,
		"entries", len(result.Outcomes),
		"media", result.MediaCount(),
		"created", result.CreatedCount(),
		"skipped", result.SkippedCount())

	return result, nil
}

// process classifies one entry and, for media, ensures its sidecar exists.
func (w *Writer) process(dir string, de fs.DirEntry) (types.Outcome, error) {
	name := de.Name()
	path := filepath.Join(dir, name)

	entry := types.Entry{
		Name: name,
		Path: path,
		Ext:  media.Ext(name),
	}

	// An entry whose stat fails, such as a dangling or looping symlink,
	// is not a regular file.
	info, err := os.Stat(path)
	if err == nil {
		entry.IsRegular = info.Mode().IsRegular()
	} else {
		logging.Get("sidecar").Debug("stat failed, treating as non-media", "path", path, "error", err)
	}

	outcome := types.Outcome{
		Entry:          entry,
		Classification: w.opts.Extensions.Classify(name, entry.IsRegular),
		SidecarStatus:  types.SidecarNone,
	}

	if outcome.Classification != types.ClassMedia {
		w.notice("%s is not a photo or video file", path)
		return outcome, nil
	}

	created, err := w.opts.CreationTime(path, info)
	if err != nil {
		return types.Outcome{}, fsError(err)
	}

	outcome.Entry.Size = info.Size()
	outcome.Entry.ModTime = info.ModTime()
	outcome.Entry.CreateTime = created
	w.notice("%s is a photo or video file (%s)", path, outcome.Entry.HumanSize())

	outcome.SidecarPath = Path(dir, name)
	status, err := writeOnce(outcome.SidecarPath, FormatTimestamp(created.In(w.opts.Location)))
	if err != nil {
		return types.Outcome{}, fsError(err)
	}
	outcome.SidecarStatus = status

	if status == types.SidecarCreated {
		w.notice("Sidecar %s created", outcome.SidecarPath)
	} else {
		w.notice("Sidecar %s already exists, left unchanged", outcome.SidecarPath)
	}

	return outcome, nil
}

// notice writes one line to the configured output. Write errors on the
// notice stream are not filesystem errors and are ignored.
func (w *Writer) notice(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(w.opts.Out, format+"\n", args...)
}

// writeOnce creates path exclusively and writes line plus a newline.
// If anything already exists at path, including a directory or a dangling
// symlink, it returns SidecarExists and leaves it alone. The file handle is
// closed even when the write fails.
func writeOnce(path, line string) (status types.SidecarStatus, err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return types.SidecarExists, nil
		}
		return "", err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			status, err = "", closeErr
		}
	}()

	if _, err := f.WriteString(line + "\n"); err != nil {
		return "", err
	}
	return types.SidecarCreated, nil
}

// Path returns the sidecar path for the entry called name in dir.
func Path(dir, name string) string {
	return filepath.Join(dir, name+types.SidecarSuffix)
}

// FormatTimestamp renders t as "2006-01-02 15:04:05.000000", dropping the
// fractional part when it has no microseconds.
func FormatTimestamp(t time.Time) string {
	if t.Nanosecond()/int(time.Microsecond) == 0 {
		return t.Format("2006-01-02 15:04:05")
	}
	return t.Format("2006-01-02 15:04:05.000000")
}

func fsError(err error) error {
	return fmt.Errorf("%w: %w", ErrFilesystem, err)
}
