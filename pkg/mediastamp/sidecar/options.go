// Package sidecar writes a companion text file next to every photo or video
// in a directory, recording the file's creation timestamp. A sidecar is
// created at most once: an existing file at the sidecar path is never
// touched, so later runs leave earlier results in place.
package sidecar

import (
	"errors"
	"io"
	"time"

	"github.com/jamesainslie/mediastamp/pkg/mediastamp/birthtime"
	"github.com/jamesainslie/mediastamp/pkg/mediastamp/media"
)

// ErrNoDirectory is returned by New when Options.Dir is empty.
var ErrNoDirectory = errors.New("no directory specified")

// Options configures the writer.
type Options struct {
	// Dir is the directory whose direct children are processed. Required.
	Dir string

	// Extensions is the media allow-list. The zero value selects
	// media.DefaultExtensions.
	Extensions media.ExtensionSet

	// Out receives one notice line per entry plus one per media entry.
	// Nil discards notices.
	Out io.Writer

	// CreationTime reads an entry's birth time. Nil selects birthtime.Of.
	CreationTime birthtime.Func

	// Location is the zone timestamps are rendered in. Nil selects time.Local.
	Location *time.Location
}

// Validate checks required fields and fills in defaults.
func (o *Options) Validate() error {
	if o.Dir == "" {
		return ErrNoDirectory
	}
	if o.Extensions.Len() == 0 {
		o.Extensions = media.DefaultExtensions
	}
	if o.Out == nil {
		o.Out = io.Discard
	}
	if o.CreationTime == nil {
		o.CreationTime = birthtime.Of
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	return nil
}
