package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/jamesainslie/mediastamp/pkg/mediastamp/types"
	"github.com/spf13/viper"
)

// ErrInvalidConfig is returned by Validate for out-of-range settings.
var ErrInvalidConfig = errors.New("invalid configuration")

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size" yaml:"max_size"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	Daily      bool   `mapstructure:"daily" yaml:"daily"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level" yaml:"level"`
	Path       string            `mapstructure:"path" yaml:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation" yaml:"rotation"`
	Components map[string]string `mapstructure:"components" yaml:"components"`
}

// ManifestConfig configures run history.
type ManifestConfig struct {
	Enabled       bool   `mapstructure:"enabled" yaml:"enabled"`
	Path          string `mapstructure:"path" yaml:"path"`
	RetentionDays int    `mapstructure:"retention_days" yaml:"retention_days"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

// Config represents the application configuration.
type Config struct {
	// Dir is the directory to process when none is given on the command line.
	Dir        string         `mapstructure:"dir" yaml:"dir"`
	Extensions []string       `mapstructure:"extensions" yaml:"extensions"`
	Output     string         `mapstructure:"output" yaml:"output"`
	Manifest   ManifestConfig `mapstructure:"manifest" yaml:"manifest"`
	Logging    LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Watch      WatchConfig    `mapstructure:"watch" yaml:"watch"`

	// File is the config file that was read, empty when only defaults applied.
	File string `mapstructure:"-" yaml:"-"`
}

// New returns a viper instance with defaults, search paths and
// MEDIASTAMP_ environment binding configured. Callers may bind flags to it
// before passing it to Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if dir, err := ConfigDir(); err == nil {
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("dir", "")
	v.SetDefault("extensions", DefaultExtensions())
	v.SetDefault("output", DefaultOutput)

	v.SetDefault("manifest.enabled", false)
	v.SetDefault("manifest.path", "")
	v.SetDefault("manifest.retention_days", DefaultRetentionDays)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.rotation.max_size", DefaultLogMaxSize)
	v.SetDefault("logging.rotation.max_age", 30)
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.rotation.daily", true)
	v.SetDefault("logging.components", DefaultComponents())

	v.SetDefault("watch.debounce", DefaultDebounce)

	return v
}

// Load reads configuration into a Config. When file is non-empty it is read
// and must exist; otherwise config.yaml is looked up in ConfigDir and a
// missing file means defaults. A nil v selects New().
func Load(v *viper.Viper, file string) (*Config, error) {
	if v == nil {
		v = New()
	}
	if file != "" {
		v.SetConfigFile(file)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if cfg.Manifest.Path == "" {
		dir, err := ManifestDir()
		if err != nil {
			return nil, err
		}
		cfg.Manifest.Path = dir
	}

	var err error
	if cfg.Manifest.Path, err = ExpandPath(cfg.Manifest.Path); err != nil {
		return nil, err
	}
	if cfg.Logging.Path, err = ExpandPath(cfg.Logging.Path); err != nil {
		return nil, err
	}
	if cfg.Dir, err = ExpandPath(cfg.Dir); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks settings that cannot be expressed as defaults.
func (c *Config) Validate() error {
	if c.Manifest.RetentionDays < 0 {
		return fmt.Errorf("%w: manifest.retention_days must not be negative", ErrInvalidConfig)
	}
	if c.Watch.Debounce <= 0 {
		return fmt.Errorf("%w: watch.debounce must be positive", ErrInvalidConfig)
	}
	if _, err := types.ParseSize(c.Logging.Rotation.MaxSize); err != nil {
		return fmt.Errorf("%w: logging.rotation.max_size: %w", ErrInvalidConfig, err)
	}
	return nil
}

// ConfigDir returns $XDG_CONFIG_HOME/mediastamp, or ~/.config/mediastamp
// when XDG_CONFIG_HOME is unset.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, AppName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", AppName), nil
}

// ConfigPath returns the default config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// ManifestDir returns the default run history directory.
func ManifestDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".manifest"), nil
}

// StateDir returns $XDG_STATE_HOME/mediastamp for log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, AppName)
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(StateDir(), AppName+".log")
}

// WriteDefault writes a commented default config file to ConfigPath and
// returns its path. An existing file is left untouched and created is false.
func WriteDefault() (path string, created bool, err error) {
	path, err = ConfigPath()
	if err != nil {
		return "", false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create config directory: %w", err)
	}

	manifestDir, err := ManifestDir()
	if err != nil {
		return "", false, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return path, false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, defaultTemplate,
		EnvPrefix,
		strings.Join(DefaultExtensions(), ", "),
		DefaultOutput,
		manifestDir, DefaultRetentionDays,
		DefaultLogPath(), DefaultLogMaxSize,
		DefaultDebounce,
	); err != nil {
		return "", false, fmt.Errorf("failed to write default config: %w", err)
	}
	return path, true, nil
}

const defaultTemplate = `# mediastamp configuration

# Directory to process when none is given on the command line.
# Also settable with %s_DIR.
dir: ""

# Photo and video extensions (case-insensitive).
extensions: [%s]

# Run report format: pretty, plain, json or yaml.
output: %s

# Run history. Off by default: without it nothing but the sidecars is written.
manifest:
  enabled: false
  path: %s
  retention_days: %d

# Logging
logging:
  # debug, info, warn, error
  level: info
  # Empty means %s
  path: ""
  rotation:
    max_size: %s
    max_age: 30       # days
    max_backups: 5
    daily: true
  components:
    sidecar: info
    watcher: info
    manifest: warn

# Watch mode
watch:
  debounce: %s
`

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, path[1:]), nil
}
