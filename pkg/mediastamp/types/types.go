// Package types provides core data types for mediastamp.
// It includes structures for directory entries, per-entry outcomes and run
// results, along with utility functions for parsing and formatting sizes.
package types

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Size constants for binary (IEC) units.
const (
	KiB int64 = 1024
	MiB int64 = 1024 * KiB
	GiB int64 = 1024 * MiB
	TiB int64 = 1024 * GiB
)

// SidecarSuffix is appended to an entry's name to form its sidecar name.
const SidecarSuffix = ".txt"

// Entry describes one direct child of the scanned directory.
// It is populated from the filesystem and never mutated by mediastamp.
type Entry struct {
	// Name is the base name of the entry.
	Name string `json:"name"`

	// Path is the absolute path to the entry.
	Path string `json:"path"`

	// IsRegular reports whether the entry is a regular file (symlinks followed).
	IsRegular bool `json:"is_regular"`

	// Ext is the lowercase extension including the dot (e.g., ".jpg").
	Ext string `json:"ext"`

	// Size is the file size in bytes. Only set for media entries.
	Size int64 `json:"size,omitempty"`

	// ModTime is the last modification time. Only set for media entries.
	ModTime time.Time `json:"mod_time,omitempty"`

	// CreateTime is the filesystem birth time. Only set for media entries.
	CreateTime time.Time `json:"create_time,omitempty"`
}

// HumanSize returns the entry size formatted as a human-readable string.
func (e *Entry) HumanSize() string {
	return FormatSize(e.Size)
}

// Classification is the result of matching an entry against the allow-list.
type Classification string

const (
	// ClassMedia marks a regular file whose extension is allow-listed.
	ClassMedia Classification = "media"
	// ClassNonMedia marks everything else, directories included.
	ClassNonMedia Classification = "non-media"
)

// SidecarStatus records what happened to an entry's sidecar during a run.
type SidecarStatus string

const (
	// SidecarNone means no sidecar applies (non-media entry).
	SidecarNone SidecarStatus = "none"
	// SidecarCreated means the sidecar was written by this run.
	SidecarCreated SidecarStatus = "created"
	// SidecarExists means a file already occupied the sidecar path and was left alone.
	SidecarExists SidecarStatus = "exists"
)

// Outcome is the per-entry result of a run.
type Outcome struct {
	Entry          Entry          `json:"entry"`
	Classification Classification `json:"classification"`
	SidecarPath    string         `json:"sidecar_path,omitempty"`
	SidecarStatus  SidecarStatus  `json:"sidecar_status"`
}

// RunResult contains the aggregated results of one pass over a directory.
type RunResult struct {
	// Dir is the absolute path of the scanned directory.
	Dir string `json:"dir"`

	// Outcomes holds one element per listed entry, in listing order.
	Outcomes []Outcome `json:"outcomes"`

	// Elapsed is the wall time taken by the pass.
	Elapsed time.Duration `json:"elapsed"`
}

// MediaCount returns the number of entries classified as media.
func (r *RunResult) MediaCount() int {
	return r.count(func(o Outcome) bool { return o.Classification == ClassMedia })
}

// CreatedCount returns the number of sidecars written during the run.
func (r *RunResult) CreatedCount() int {
	return r.count(func(o Outcome) bool { return o.SidecarStatus == SidecarCreated })
}

// SkippedCount returns the number of media entries whose sidecar already existed.
func (r *RunResult) SkippedCount() int {
	return r.count(func(o Outcome) bool { return o.SidecarStatus == SidecarExists })
}

// MediaBytes returns the total size of all media entries.
func (r *RunResult) MediaBytes() int64 {
	var total int64
	for _, o := range r.Outcomes {
		if o.Classification == ClassMedia {
			total += o.Entry.Size
		}
	}
	return total
}

func (r *RunResult) count(match func(Outcome) bool) int {
	n := 0
	for _, o := range r.Outcomes {
		if match(o) {
			n++
		}
	}
	return n
}

// sizePattern matches size strings like "100M", "2G", "500K", "1.5GB", etc.
var sizePattern = regexp.MustCompile(`(?i)^\s*([0-9]+(?:\.[0-9]+)?)\s*([KMGT]?(?:i?B)?)\s*$`)

// ErrInvalidSize indicates that the size string could not be parsed.
var ErrInvalidSize = errors.New("invalid size format")

// ErrNegativeSize indicates that a negative size value was provided.
var ErrNegativeSize = errors.New("size cannot be negative")

// ParseSize parses a human-readable size string and returns the size in bytes.
// It accepts plain bytes ("1024") and K, M, G, T suffixes optionally followed
// by B or iB, in any case. All units are binary.
//
// Returns ErrInvalidSize if the format is not recognized.
// Returns ErrNegativeSize if the value is negative.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidSize)
	}

	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativeSize
	}

	matches := sizePattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	suffix := strings.ToUpper(matches[2])
	suffix = strings.TrimSuffix(suffix, "IB")
	suffix = strings.TrimSuffix(suffix, "B")

	var multiplier int64
	switch suffix {
	case "":
		multiplier = 1
	case "K":
		multiplier = KiB
	case "M":
		multiplier = MiB
	case "G":
		multiplier = GiB
	case "T":
		multiplier = TiB
	default:
		return 0, fmt.Errorf("%w: unknown suffix %q", ErrInvalidSize, suffix)
	}

	return int64(value * float64(multiplier)), nil
}

// FormatSize converts a size in bytes to a human-readable string using
// binary (IEC) units, e.g. FormatSize(1536*1024) returns "1.5 MiB".
func FormatSize(bytes int64) string {
	return humanize.IBytes(uint64(bytes))
}
