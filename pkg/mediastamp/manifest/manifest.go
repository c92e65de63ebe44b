package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jamesainslie/mediastamp/pkg/mediastamp/logging"
	"github.com/jamesainslie/mediastamp/pkg/mediastamp/types"
)

var (
	// ErrNoDir is returned by New for an empty directory.
	ErrNoDir = errors.New("manifest directory cannot be empty")

	// ErrNotFound is returned by Get when no entry matches.
	ErrNotFound = errors.New("history entry not found")

	// ErrAmbiguous is returned by Get when a prefix matches several entries.
	ErrAmbiguous = errors.New("history entry ID is ambiguous")
)

const entryExt = ".json"

// Manifest reads and writes run entries in a directory.
type Manifest struct {
	dir string
	mu  sync.Mutex
}

// New creates a Manifest over dir. The directory is created on first write.
func New(dir string) (*Manifest, error) {
	if dir == "" {
		return nil, ErrNoDir
	}
	return &Manifest{dir: dir}, nil
}

// Dir returns the manifest directory.
func (m *Manifest) Dir() string {
	return m.dir
}

// EnsureDir creates the manifest directory if it does not exist.
func (m *Manifest) EnsureDir() error {
	return os.MkdirAll(m.dir, 0o755)
}

// LogRun records the media outcomes of a completed run.
func (m *Manifest) LogRun(op OperationType, run *types.RunResult) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := &Entry{
		ID:        generateID(op, time.Now()),
		Timestamp: time.Now().UTC(),
		Operation: op,
		Dir:       run.Dir,
		Files:     []FileRecord{},
		Summary: Summary{
			Entries:    len(run.Outcomes),
			Media:      run.MediaCount(),
			Created:    run.CreatedCount(),
			Skipped:    run.SkippedCount(),
			MediaBytes: run.MediaBytes(),
		},
	}
	for _, o := range run.Outcomes {
		if o.Classification != types.ClassMedia {
			continue
		}
		entry.Files = append(entry.Files, FileRecord{
			Path:    o.Entry.Path,
			Sidecar: o.SidecarPath,
			Status:  string(o.SidecarStatus),
			Size:    o.Entry.Size,
			Created: o.Entry.CreateTime,
		})
	}

	if err := m.EnsureDir(); err != nil {
		return nil, fmt.Errorf("failed to create manifest directory: %w", err)
	}
	if err := m.write(entry); err != nil {
		return nil, fmt.Errorf("failed to write manifest entry: %w", err)
	}

	logging.Get("manifest").Debug("run recorded", "id", entry.ID, "files", len(entry.Files))
	return entry, nil
}

// write stores entry via a temp file and rename so readers never see a
// partial document.
func (m *Manifest) write(entry *Entry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	path := filepath.Join(m.dir, entry.ID+entryExt)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// List returns entries newest first. A limit of zero or less returns all.
// Unreadable files are skipped.
func (m *Manifest) List(limit int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := m.readAll()
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Count returns the number of stored entries.
func (m *Manifest) Count() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	names, err := m.names()
	return len(names), err
}

// Get returns the entry with the given ID, or the single entry whose ID
// starts with id.
func (m *Manifest) Get(id string) (*Entry, error) {
	if id == "" || strings.ContainsAny(id, `/\`) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, err := m.read(id + entryExt); err == nil {
		return entry, nil
	}

	names, err := m.names()
	if err != nil {
		return nil, err
	}
	var match string
	for _, name := range names {
		if !strings.HasPrefix(name, id) {
			continue
		}
		if match != "" {
			return nil, fmt.Errorf("%w: %q", ErrAmbiguous, id)
		}
		match = name
	}
	if match == "" {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return m.read(match)
}

// Cleanup removes entries older than retentionDays and returns how many
// were removed. Zero or less keeps everything.
func (m *Manifest) Cleanup(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read manifest directory: %w", err)
	}

	logger := logging.Get("manifest")
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), entryExt) {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(m.dir, e.Name())); err != nil {
			logger.Warn("failed to remove history entry", "file", e.Name(), "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}

// names returns the entry file names in the directory.
func (m *Manifest) names() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read manifest directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), entryExt) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (m *Manifest) readAll() ([]Entry, error) {
	names, err := m.names()
	if err != nil {
		return nil, err
	}

	entries := []Entry{}
	for _, name := range names {
		entry, err := m.read(name)
		if err != nil {
			logging.Get("manifest").Debug("skipping unreadable entry", "file", name, "error", err)
			continue
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

func (m *Manifest) read(name string) (*Entry, error) {
	data, err := os.ReadFile(filepath.Join(m.dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entry: %w", err)
	}
	return &entry, nil
}

// generateID returns an ID like "stamp-20240615-103000-1b4e28ba".
func generateID(op OperationType, at time.Time) string {
	return fmt.Sprintf("%s-%s-%s", op, at.UTC().Format("20060102-150405"), uuid.NewString()[:8])
}
