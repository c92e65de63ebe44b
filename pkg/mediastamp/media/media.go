// Package media classifies directory entries as photo or video files by
// their extension. Matching is case-insensitive and the allow-list is an
// immutable set built once.
package media

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/jamesainslie/mediastamp/pkg/mediastamp/types"
)

// Groups maps a media group name to its allow-listed extensions.
var Groups = map[string][]string{
	"image": {".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff"},
	"video": {".mp4", ".mov", ".avi", ".mkv", ".wmv"},
}

// DefaultExtensions is the allow-list used when none is configured.
var DefaultExtensions = NewExtensionSet(append(append([]string{}, Groups["image"]...), Groups["video"]...)...)

// ExtensionSet is an immutable set of lowercase extensions with a leading dot.
type ExtensionSet struct {
	exts map[string]struct{}
}

// NewExtensionSet builds a set from the given extensions.
// Entries are lowercased and given a leading dot if they lack one; blanks are ignored.
func NewExtensionSet(exts ...string) ExtensionSet {
	set := ExtensionSet{exts: make(map[string]struct{}, len(exts))}
	for _, ext := range exts {
		ext = normalize(ext)
		if ext == "" {
			continue
		}
		set.exts[ext] = struct{}{}
	}
	return set
}

// Contains reports whether ext is in the set, ignoring case.
func (s ExtensionSet) Contains(ext string) bool {
	ext = normalize(ext)
	if ext == "" {
		return false
	}
	_, ok := s.exts[ext]
	return ok
}

// Len returns the number of extensions in the set.
func (s ExtensionSet) Len() int {
	return len(s.exts)
}

// List returns the extensions in sorted order.
func (s ExtensionSet) List() []string {
	out := make([]string, 0, len(s.exts))
	for ext := range s.exts {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Ext returns the lowercase extension of name, including the dot.
// Leading dots belong to the name, so ".jpg" has no extension.
func Ext(name string) string {
	base := strings.TrimLeft(filepath.Base(name), ".")
	return strings.ToLower(filepath.Ext(base))
}

// Classify returns ClassMedia when isRegular is set and the extension of
// name is in the set. Directories and special files are always non-media.
func (s ExtensionSet) Classify(name string, isRegular bool) types.Classification {
	if isRegular && s.Contains(Ext(name)) {
		return types.ClassMedia
	}
	return types.ClassNonMedia
}

func normalize(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || ext == "." {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
