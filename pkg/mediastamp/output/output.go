// Package output renders a sidecar run report in one of several formats
// (pretty, plain, json, yaml).
//
// Formatters are looked up by name in a registry:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, output.NewResult(run, time.Local)); err != nil {
//	    return err
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jamesainslie/mediastamp/pkg/mediastamp/sidecar"
	"github.com/jamesainslie/mediastamp/pkg/mediastamp/types"
)

// ErrUnknownFormat is returned by Get for unregistered formatter names.
var ErrUnknownFormat = errors.New("unknown output format")

// EntryInfo is one directory entry as shown in the report.
type EntryInfo struct {
	Path  string `json:"path" yaml:"path"`
	Name  string `json:"name" yaml:"name"`
	Ext   string `json:"ext,omitempty" yaml:"ext,omitempty"`
	Class string `json:"class" yaml:"class"`

	// The fields below are only set for media entries.
	Size      int64     `json:"size,omitempty" yaml:"size,omitempty"`
	SizeHuman string    `json:"size_human,omitempty" yaml:"size_human,omitempty"`
	ModTime   time.Time `json:"mod_time,omitzero" yaml:"mod_time,omitempty"`
	Created   string    `json:"created,omitempty" yaml:"created,omitempty"`
	Sidecar   string    `json:"sidecar,omitempty" yaml:"sidecar,omitempty"`
	Status    string    `json:"status" yaml:"status"`
}

// IsMedia reports whether the entry was classified as a photo or video.
func (e EntryInfo) IsMedia() bool {
	return e.Class == string(types.ClassMedia)
}

// Stats summarises a run.
type Stats struct {
	Entries    int           `json:"entries" yaml:"entries"`
	Media      int           `json:"media" yaml:"media"`
	Created    int           `json:"created" yaml:"created"`
	Skipped    int           `json:"skipped" yaml:"skipped"`
	MediaBytes int64         `json:"media_bytes" yaml:"media_bytes"`
	Duration   time.Duration `json:"-" yaml:"-"`
}

// Result is the report handed to a Formatter.
type Result struct {
	// Source is the absolute directory that was processed.
	Source  string      `json:"source" yaml:"source"`
	Entries []EntryInfo `json:"entries" yaml:"entries"`
	Stats   Stats       `json:"stats" yaml:"stats"`

	// HistoryID is the run history record, empty when history is disabled.
	HistoryID string   `json:"history_id,omitempty" yaml:"history_id,omitempty"`
	Warnings  []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// NewResult converts a run into a report. Creation times are rendered in
// loc, nil meaning time.Local, exactly as they were written to sidecars.
func NewResult(run *types.RunResult, loc *time.Location) *Result {
	if loc == nil {
		loc = time.Local
	}

	res := &Result{
		Source:  run.Dir,
		Entries: make([]EntryInfo, 0, len(run.Outcomes)),
		Stats: Stats{
			Entries:    len(run.Outcomes),
			Media:      run.MediaCount(),
			Created:    run.CreatedCount(),
			Skipped:    run.SkippedCount(),
			MediaBytes: run.MediaBytes(),
			Duration:   run.Elapsed,
		},
	}

	for _, o := range run.Outcomes {
		info := EntryInfo{
			Path:   o.Entry.Path,
			Name:   o.Entry.Name,
			Ext:    o.Entry.Ext,
			Class:  string(o.Classification),
			Status: string(o.SidecarStatus),
		}
		if o.Classification == types.ClassMedia {
			info.Size = o.Entry.Size
			info.SizeHuman = o.Entry.HumanSize()
			info.ModTime = o.Entry.ModTime
			info.Created = sidecar.FormatTimestamp(o.Entry.CreateTime.In(loc))
			info.Sidecar = o.SidecarPath
		}
		res.Entries = append(res.Entries, info)
	}
	return res
}

// Media returns only the media entries, in directory order.
func (r *Result) Media() []EntryInfo {
	var out []EntryInfo
	for _, e := range r.Entries {
		if e.IsMedia() {
			out = append(out, e)
		}
	}
	return out
}

// Formatter renders a Result.
type Formatter interface {
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates an empty formatter registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]FormatterFactory)}
}

// Register adds or replaces the formatter called name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
	return factory(), nil
}

// Available returns the registered formatter names, sorted.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry holds the built-in formatters.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}

// IsStructured reports whether the named format is meant for machines.
// Per-entry notices are moved to stderr for these so stdout stays parseable.
func IsStructured(name string) bool {
	return name == "json" || name == "yaml"
}
