package sidecar

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jamesainslie/mediastamp/pkg/mediastamp/birthtime"
	"github.com/jamesainslie/mediastamp/pkg/mediastamp/media"
	"github.com/jamesainslie/mediastamp/pkg/mediastamp/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedBirth = time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC)

// fixedClock returns a CreationTime func reporting fixedBirth for every file.
func fixedClock(string, os.FileInfo) (time.Time, error) {
	return fixedBirth, nil
}

// newTestWriter builds a writer over dir with a deterministic clock.
func newTestWriter(t *testing.T, dir string, out *bytes.Buffer) *Writer {
	t.Helper()
	opts := Options{
		Dir:          dir,
		CreationTime: fixedClock,
		Location:     time.UTC,
	}
	if out != nil {
		opts.Out = out
	}
	w, err := New(opts)
	require.NoError(t, err)
	return w
}

// createFiles creates empty files under dir.
func createFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("content of "+name), 0o644))
	}
}

// listNames returns the sorted names in dir.
func listNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// snapshot maps every file name in dir to its contents.
func snapshot(t *testing.T, dir string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	for _, name := range listNames(t, dir) {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		require.NoError(t, err)
		if info.IsDir() {
			out[name] = "<dir>"
			continue
		}
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		out[name] = string(data)
	}
	return out
}

func TestNew(t *testing.T) {
	t.Run("requires a directory", func(t *testing.T) {
		_, err := New(Options{})
		assert.ErrorIs(t, err, ErrNoDirectory)
	})

	t.Run("applies defaults", func(t *testing.T) {
		w, err := New(Options{Dir: t.TempDir()})
		require.NoError(t, err)
		assert.Equal(t, media.DefaultExtensions.List(), w.opts.Extensions.List())
		assert.NotNil(t, w.opts.Out)
		assert.NotNil(t, w.opts.CreationTime)
		assert.Equal(t, time.Local, w.opts.Location)
	})
}

func TestWriter_MediaAndNonMedia(t *testing.T) {
	dir := t.TempDir()
	createFiles(t, dir, "a.jpg", "b.txt")

	res, err := newTestWriter(t, dir, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"a.jpg", "a.jpg.txt", "b.txt"}, listNames(t, dir))

	data, err := os.ReadFile(filepath.Join(dir, "a.jpg.txt"))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01 10:20:30\n", string(data))

	require.Len(t, res.Outcomes, 2)
	assert.Equal(t, types.ClassMedia, res.Outcomes[0].Classification)
	assert.Equal(t, types.SidecarCreated, res.Outcomes[0].SidecarStatus)
	assert.Equal(t, filepath.Join(dir, "a.jpg.txt"), res.Outcomes[0].SidecarPath)
	assert.Equal(t, fixedBirth, res.Outcomes[0].Entry.CreateTime)
	assert.Equal(t, int64(len("content of a.jpg")), res.Outcomes[0].Entry.Size)
	assert.Equal(t, types.ClassNonMedia, res.Outcomes[1].Classification)
	assert.Equal(t, types.SidecarNone, res.Outcomes[1].SidecarStatus)
	assert.Empty(t, res.Outcomes[1].SidecarPath)
	assert.Equal(t, dir, res.Dir)
}

func TestWriter_SecondRunChangesNothing(t *testing.T) {
	dir := t.TempDir()
	createFiles(t, dir, "a.jpg", "b.txt", "clip.mov")

	// A clock that moves on every call would change sidecar contents if
	// anything were rewritten.
	tick := fixedBirth
	moving := func(string, os.FileInfo) (time.Time, error) {
		tick = tick.Add(time.Hour)
		return tick, nil
	}

	first, err := New(Options{Dir: dir, CreationTime: moving, Location: time.UTC})
	require.NoError(t, err)
	res1, err := first.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res1.CreatedCount())
	before := snapshot(t, dir)

	res2, err := first.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res2.CreatedCount())
	assert.Equal(t, 2, res2.SkippedCount())
	assert.Equal(t, before, snapshot(t, dir))
}

func TestWriter_CaseInsensitiveExtensions(t *testing.T) {
	dir := t.TempDir()
	createFiles(t, dir, "PHOTO.JPG", "VIDEO.MP4", "photo.jpg", "Scan.TiFf")

	res, err := newTestWriter(t, dir, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, res.MediaCount())
	for _, name := range []string{"PHOTO.JPG.txt", "VIDEO.MP4.txt", "photo.jpg.txt", "Scan.TiFf.txt"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
}

func TestWriter_ExistingSidecarBlocksRegeneration(t *testing.T) {
	dir := t.TempDir()
	createFiles(t, dir, "x.jpg")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.jpg.txt"), []byte("hand written\n"), 0o600))

	res, err := newTestWriter(t, dir, nil).Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "x.jpg.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hand written\n", string(data))

	require.Len(t, res.Outcomes, 2)
	assert.Equal(t, types.SidecarExists, res.Outcomes[0].SidecarStatus)
	assert.Equal(t, types.ClassNonMedia, res.Outcomes[1].Classification)
}

func TestWriter_DirectoryAtSidecarPathIsLeftAlone(t *testing.T) {
	dir := t.TempDir()
	createFiles(t, dir, "y.png")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "y.png.txt"), 0o755))

	res, err := newTestWriter(t, dir, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.SidecarExists, res.Outcomes[0].SidecarStatus)
	assert.DirExists(t, filepath.Join(dir, "y.png.txt"))
}

func TestWriter_OnlySubdirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "2023"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "holiday.jpg"), 0o755))
	createFiles(t, filepath.Join(dir, "2023"), "nested.jpg")

	var out bytes.Buffer
	res, err := newTestWriter(t, dir, &out).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, res.MediaCount())
	assert.Equal(t, 0, res.CreatedCount())
	assert.Equal(t, []string{"2023", "holiday.jpg"}, listNames(t, dir))
	assert.NoFileExists(t, filepath.Join(dir, "2023", "nested.jpg.txt"), "traversal must not recurse")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.Contains(t, line, "is not a photo or video file")
	}
}

func TestWriter_EmptyDirectory(t *testing.T) {
	res, err := newTestWriter(t, t.TempDir(), nil).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Outcomes)
}

func TestWriter_Notices(t *testing.T) {
	dir := t.TempDir()
	createFiles(t, dir, "a.jpg", "b.txt")

	var out bytes.Buffer
	_, err := newTestWriter(t, dir, &out).Run(context.Background())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3, "one line per entry plus one per media entry")
	assert.Contains(t, lines[0], filepath.Join(dir, "a.jpg")+" is a photo or video file")
	assert.Contains(t, lines[1], "Sidecar "+filepath.Join(dir, "a.jpg.txt")+" created")
	assert.Contains(t, lines[2], filepath.Join(dir, "b.txt")+" is not a photo or video file")

	out.Reset()
	_, err = newTestWriter(t, dir, &out).Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "already exists, left unchanged")
}

func TestWriter_CustomExtensions(t *testing.T) {
	dir := t.TempDir()
	createFiles(t, dir, "a.jpg", "b.heic")

	w, err := New(Options{
		Dir:          dir,
		Extensions:   media.NewExtensionSet(".heic"),
		CreationTime: fixedClock,
	})
	require.NoError(t, err)

	_, err = w.Run(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "b.heic.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "a.jpg.txt"))
}

func TestWriter_DanglingSymlinkIsNonMedia(t *testing.T) {
	dir := t.TempDir()
	if err := os.Symlink(filepath.Join(dir, "missing.jpg"), filepath.Join(dir, "broken.jpg")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	res, err := newTestWriter(t, dir, nil).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 1)
	assert.Equal(t, types.ClassNonMedia, res.Outcomes[0].Classification)
	assert.NoFileExists(t, filepath.Join(dir, "broken.jpg.txt"))
}

func TestWriter_SymlinkLoopIsNonMedia(t *testing.T) {
	dir := t.TempDir()
	createFiles(t, dir, "a.jpg")
	if err := os.Symlink("loop.jpg", filepath.Join(dir, "loop.jpg")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	var out bytes.Buffer
	res, err := newTestWriter(t, dir, &out).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 2)

	assert.Equal(t, types.ClassMedia, res.Outcomes[0].Classification)
	assert.Equal(t, types.SidecarCreated, res.Outcomes[0].SidecarStatus)
	assert.Equal(t, types.ClassNonMedia, res.Outcomes[1].Classification)
	assert.Equal(t, types.SidecarNone, res.Outcomes[1].SidecarStatus)

	assert.Contains(t, out.String(), filepath.Join(dir, "loop.jpg")+" is not a photo or video file")
	assert.FileExists(t, filepath.Join(dir, "a.jpg.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "loop.jpg.txt"))
}

func TestWriter_SymlinkToMediaIsFollowed(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(t.TempDir(), "original.jpg")
	require.NoError(t, os.WriteFile(target, []byte("jpeg"), 0o644))
	if err := os.Symlink(target, filepath.Join(dir, "link.jpg")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	res, err := newTestWriter(t, dir, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.SidecarCreated, res.Outcomes[0].SidecarStatus)
	assert.FileExists(t, filepath.Join(dir, "link.jpg.txt"))
}

func TestWriter_MissingDirectoryIsFatal(t *testing.T) {
	w := newTestWriter(t, filepath.Join(t.TempDir(), "nope"), nil)

	res, err := w.Run(context.Background())
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrFilesystem)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestWriter_FileInsteadOfDirectoryIsFatal(t *testing.T) {
	dir := t.TempDir()
	createFiles(t, dir, "a.jpg")

	_, err := newTestWriter(t, filepath.Join(dir, "a.jpg"), nil).Run(context.Background())
	assert.ErrorIs(t, err, ErrFilesystem)
}

func TestWriter_CreationTimeFailureAborts(t *testing.T) {
	dir := t.TempDir()
	createFiles(t, dir, "a.jpg", "b.jpg", "c.jpg")

	failOnB := func(path string, _ os.FileInfo) (time.Time, error) {
		if filepath.Base(path) == "b.jpg" {
			return time.Time{}, birthtime.ErrUnavailable
		}
		return fixedBirth, nil
	}

	w, err := New(Options{Dir: dir, CreationTime: failOnB})
	require.NoError(t, err)

	res, err := w.Run(context.Background())
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrFilesystem)
	assert.ErrorIs(t, err, birthtime.ErrUnavailable)

	assert.FileExists(t, filepath.Join(dir, "a.jpg.txt"), "work before the failure is kept")
	assert.NoFileExists(t, filepath.Join(dir, "b.jpg.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "c.jpg.txt"), "the pass stops at the first failure")
}

func TestWriter_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	createFiles(t, dir, "a.jpg")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestWriter(t, dir, nil).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, filepath.Join(dir, "a.jpg.txt"))
}

func TestWriter_RealCreationTime(t *testing.T) {
	dir := t.TempDir()
	createFiles(t, dir, "clip.mkv")

	w, err := New(Options{Dir: dir})
	require.NoError(t, err)

	res, err := w.Run(context.Background())
	if errors.Is(err, birthtime.ErrUnavailable) {
		t.Skipf("birth time not supported here: %v", err)
	}
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "clip.mkv.txt"))
	require.NoError(t, err)
	want := FormatTimestamp(res.Outcomes[0].Entry.CreateTime.In(time.Local)) + "\n"
	assert.Equal(t, want, string(data))
}

func TestPath(t *testing.T) {
	assert.Equal(t, filepath.Join("photos", "IMG_0001.JPG.txt"), Path("photos", "IMG_0001.JPG"))
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{"whole seconds", time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC), "2024-03-01 10:20:30"},
		{"microseconds", time.Date(2024, 3, 1, 10, 20, 30, 123456000, time.UTC), "2024-03-01 10:20:30.123456"},
		{"leading zero micros", time.Date(2024, 3, 1, 10, 20, 30, 5000, time.UTC), "2024-03-01 10:20:30.000005"},
		{"sub-microsecond only", time.Date(2024, 3, 1, 10, 20, 30, 999, time.UTC), "2024-03-01 10:20:30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatTimestamp(tt.in))
		})
	}
}
