// Package config provides configuration management for mediastamp.
package config

import (
	"time"

	"github.com/jamesainslie/mediastamp/pkg/mediastamp/media"
)

// Default configuration values.
const (
	// AppName names the config, state and manifest directories.
	AppName = "mediastamp"

	// EnvPrefix prefixes environment overrides, e.g. MEDIASTAMP_DIR.
	EnvPrefix = "MEDIASTAMP"

	// DefaultOutput is the run report format.
	DefaultOutput = "pretty"

	// DefaultRetentionDays is the default number of days to retain run history.
	DefaultRetentionDays = 30

	// DefaultDebounce is how long watch mode waits for events to settle.
	DefaultDebounce = 500 * time.Millisecond

	// DefaultLogMaxSize is the log size that triggers rotation.
	DefaultLogMaxSize = "10MB"
)

// DefaultExtensions returns the photo and video extensions recognised when
// the extensions key is unset.
func DefaultExtensions() []string {
	return media.DefaultExtensions.List()
}

// DefaultComponents returns the per-component log levels.
func DefaultComponents() map[string]string {
	return map[string]string{
		"sidecar":  "info",
		"watcher":  "info",
		"manifest": "warn",
	}
}
