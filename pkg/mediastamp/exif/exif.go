// Package exif reads capture metadata embedded in image files. It is used
// for display only; sidecars always record the filesystem creation time.
package exif

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	goexif "github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// ErrNoEXIF is returned when a file carries no readable EXIF block.
var ErrNoEXIF = errors.New("no EXIF data")

// Info is the subset of EXIF data mediastamp reports.
type Info struct {
	// Captured is DateTimeOriginal, falling back to DateTime. Zero when absent.
	Captured time.Time

	// Camera is "Make Model", trimmed. Empty when absent.
	Camera string

	// Tags maps every decoded tag name to its string form.
	Tags map[string]string
}

// Read decodes the EXIF block of the file at path.
func Read(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	x, err := goexif.Decode(f)
	if err != nil && (x == nil || goexif.IsCriticalError(err)) {
		return nil, fmt.Errorf("%w: %v", ErrNoEXIF, err)
	}

	info := &Info{Tags: make(map[string]string)}
	_ = x.Walk(tagCollector(info.Tags))

	if t, err := x.DateTime(); err == nil {
		info.Captured = t
	}
	info.Camera = strings.TrimSpace(stringTag(x, goexif.Make) + " " + stringTag(x, goexif.Model))

	return info, nil
}

func stringTag(x *goexif.Exif, name goexif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

type tagCollector map[string]string

func (c tagCollector) Walk(name goexif.FieldName, tag *tiff.Tag) error {
	c[string(name)] = tag.String()
	return nil
}
