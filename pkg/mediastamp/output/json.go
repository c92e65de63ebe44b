package output

import (
	"bytes"
	"encoding/json"
)

// document is the structure shared by the json and yaml formatters.
type document struct {
	Source    string      `json:"source" yaml:"source"`
	Entries   []EntryInfo `json:"entries" yaml:"entries"`
	Stats     Stats       `json:"stats" yaml:"stats"`
	Duration  string      `json:"duration" yaml:"duration"`
	HistoryID string      `json:"history_id,omitempty" yaml:"history_id,omitempty"`
	Warnings  []string    `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func newDocument(r *Result) document {
	entries := r.Entries
	if entries == nil {
		entries = []EntryInfo{}
	}
	return document{
		Source:    r.Source,
		Entries:   entries,
		Stats:     r.Stats,
		Duration:  r.Stats.Duration.String(),
		HistoryID: r.HistoryID,
		Warnings:  r.Warnings,
	}
}

// JSONFormatter writes the report as a single indented JSON object.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(newDocument(r))
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

var _ Formatter = (*JSONFormatter)(nil)
