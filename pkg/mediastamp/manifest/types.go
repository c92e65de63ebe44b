// Package manifest keeps a history of sidecar runs as one JSON document per
// run, so earlier results can be listed and inspected later.
package manifest

import "time"

// OperationType identifies what produced an entry.
type OperationType string

const (
	// OpStamp is a one-off run from the command line.
	OpStamp OperationType = "stamp"
	// OpWatch is a run triggered by a directory change in watch mode.
	OpWatch OperationType = "watch"
)

// Entry is one recorded run.
type Entry struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Operation OperationType `json:"operation"`
	Dir       string        `json:"dir"`
	Files     []FileRecord  `json:"files"`
	Summary   Summary       `json:"summary"`
}

// FileRecord is one media file seen during a run.
type FileRecord struct {
	Path    string    `json:"path"`
	Sidecar string    `json:"sidecar"`
	Status  string    `json:"status"`
	Size    int64     `json:"size"`
	Created time.Time `json:"created"`
}

// Summary holds the run totals.
type Summary struct {
	Entries    int   `json:"entries"`
	Media      int   `json:"media"`
	Created    int   `json:"created"`
	Skipped    int   `json:"skipped"`
	MediaBytes int64 `json:"media_bytes"`
}
