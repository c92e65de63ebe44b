package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jamesainslie/mediastamp/pkg/mediastamp/types"
)

// isolate points config lookups at a fresh temp directory.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "xdg"))
	return home
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path, err := ConfigPath()
	if err != nil {
		t.Fatalf("ConfigPath() error = %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load(nil, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Dir != "" {
		t.Errorf("Dir = %q, want empty", cfg.Dir)
	}
	if cfg.Output != DefaultOutput {
		t.Errorf("Output = %q, want %q", cfg.Output, DefaultOutput)
	}
	if len(cfg.Extensions) != 11 {
		t.Errorf("len(Extensions) = %d, want 11", len(cfg.Extensions))
	}
	if cfg.Manifest.Enabled {
		t.Error("Manifest.Enabled = true, want false")
	}
	if want := filepath.Join(home, "xdg", AppName, ".manifest"); cfg.Manifest.Path != want {
		t.Errorf("Manifest.Path = %q, want %q", cfg.Manifest.Path, want)
	}
	if cfg.Manifest.RetentionDays != DefaultRetentionDays {
		t.Errorf("Manifest.RetentionDays = %d, want %d", cfg.Manifest.RetentionDays, DefaultRetentionDays)
	}
	if cfg.Watch.Debounce != DefaultDebounce {
		t.Errorf("Watch.Debounce = %v, want %v", cfg.Watch.Debounce, DefaultDebounce)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Rotation.MaxSize != DefaultLogMaxSize {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Logging.Components["manifest"] != "warn" {
		t.Errorf("Logging.Components = %v", cfg.Logging.Components)
	}
	if cfg.File != "" {
		t.Errorf("File = %q, want empty when no file exists", cfg.File)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_FromFile(t *testing.T) {
	home := isolate(t)
	path := writeConfig(t, `
dir: ~/Pictures
extensions: [.heic, .JPG]
output: json
manifest:
  enabled: true
  retention_days: 7
logging:
  level: debug
  rotation:
    max_size: 1MB
watch:
  debounce: 2s
`)

	cfg, err := Load(nil, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if want := filepath.Join(home, "Pictures"); cfg.Dir != want {
		t.Errorf("Dir = %q, want %q", cfg.Dir, want)
	}
	if strings.Join(cfg.Extensions, ",") != ".heic,.JPG" {
		t.Errorf("Extensions = %v", cfg.Extensions)
	}
	if cfg.Output != "json" {
		t.Errorf("Output = %q, want json", cfg.Output)
	}
	if !cfg.Manifest.Enabled || cfg.Manifest.RetentionDays != 7 {
		t.Errorf("Manifest = %+v", cfg.Manifest)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Rotation.MaxSize != "1MB" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Logging.Rotation.MaxBackups != 5 {
		t.Errorf("unset nested keys should keep defaults, MaxBackups = %d", cfg.Logging.Rotation.MaxBackups)
	}
	if cfg.Watch.Debounce != 2*time.Second {
		t.Errorf("Watch.Debounce = %v, want 2s", cfg.Watch.Debounce)
	}
	if cfg.File != path {
		t.Errorf("File = %q, want %q", cfg.File, path)
	}
}

func TestLoad_ExplicitFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("dir: /srv/photos\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(nil, path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Dir != "/srv/photos" {
		t.Errorf("Dir = %q, want /srv/photos", cfg.Dir)
	}
	if cfg.File != path {
		t.Errorf("File = %q, want %q", cfg.File, path)
	}
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	isolate(t)

	if _, err := Load(nil, filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load() expected error for a missing explicit config file")
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	isolate(t)
	writeConfig(t, "dir: [unterminated\n")

	if _, err := Load(nil, ""); err == nil {
		t.Fatal("Load() expected error for malformed YAML")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	isolate(t)
	writeConfig(t, "dir: /from/file\noutput: plain\n")
	t.Setenv("MEDIASTAMP_DIR", "/from/env")
	t.Setenv("MEDIASTAMP_MANIFEST_RETENTION_DAYS", "3")
	t.Setenv("MEDIASTAMP_WATCH_DEBOUNCE", "250ms")

	cfg, err := Load(nil, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Dir != "/from/env" {
		t.Errorf("Dir = %q, want /from/env", cfg.Dir)
	}
	if cfg.Output != "plain" {
		t.Errorf("Output = %q, want plain from file", cfg.Output)
	}
	if cfg.Manifest.RetentionDays != 3 {
		t.Errorf("Manifest.RetentionDays = %d, want 3", cfg.Manifest.RetentionDays)
	}
	if cfg.Watch.Debounce != 250*time.Millisecond {
		t.Errorf("Watch.Debounce = %v, want 250ms", cfg.Watch.Debounce)
	}
}

func TestLoad_SetOverridesEverything(t *testing.T) {
	isolate(t)
	t.Setenv("MEDIASTAMP_OUTPUT", "plain")

	v := New()
	v.Set("output", "yaml")

	cfg, err := Load(v, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Output != "yaml" {
		t.Errorf("Output = %q, want yaml", cfg.Output)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := &Config{}
		c.Manifest.RetentionDays = 30
		c.Watch.Debounce = time.Second
		c.Logging.Rotation.MaxSize = "10MB"
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"zero retention keeps everything", func(c *Config) { c.Manifest.RetentionDays = 0 }, false},
		{"negative retention", func(c *Config) { c.Manifest.RetentionDays = -1 }, true},
		{"zero debounce", func(c *Config) { c.Watch.Debounce = 0 }, true},
		{"bad max size", func(c *Config) { c.Logging.Rotation.MaxSize = "lots" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}

	t.Run("size error is reachable", func(t *testing.T) {
		c := valid()
		c.Logging.Rotation.MaxSize = "-5MB"
		if err := c.Validate(); !errors.Is(err, types.ErrNegativeSize) {
			t.Errorf("Validate() error = %v, want ErrNegativeSize", err)
		}
	})
}

func TestConfigDir(t *testing.T) {
	t.Run("xdg config home", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")
		dir, err := ConfigDir()
		if err != nil {
			t.Fatalf("ConfigDir() error = %v", err)
		}
		if want := filepath.Join("/custom/config", AppName); dir != want {
			t.Errorf("ConfigDir() = %q, want %q", dir, want)
		}
	})

	t.Run("home fallback", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		t.Setenv("XDG_CONFIG_HOME", "")
		dir, err := ConfigDir()
		if err != nil {
			t.Fatalf("ConfigDir() error = %v", err)
		}
		if want := filepath.Join(home, ".config", AppName); dir != want {
			t.Errorf("ConfigDir() = %q, want %q", dir, want)
		}
	})
}

func TestManifestDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	dir, err := ManifestDir()
	if err != nil {
		t.Fatalf("ManifestDir() error = %v", err)
	}
	if want := filepath.Join("/cfg", AppName, ".manifest"); dir != want {
		t.Errorf("ManifestDir() = %q, want %q", dir, want)
	}
}

func TestWriteDefault(t *testing.T) {
	isolate(t)

	path, created, err := WriteDefault()
	if err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}
	if !created {
		t.Error("first WriteDefault() should create the file")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read written config: %v", err)
	}
	for _, want := range []string{"dir:", "extensions: [.avi,", "output: pretty", "retention_days: 30", "debounce: 500ms"} {
		if !strings.Contains(string(content), want) {
			t.Errorf("default config missing %q", want)
		}
	}

	cfg, err := Load(nil, "")
	if err != nil {
		t.Fatalf("Load() of written default error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("written default should validate: %v", err)
	}
	if len(cfg.Extensions) != 11 {
		t.Errorf("written default extensions = %v", cfg.Extensions)
	}

	if err := os.WriteFile(path, []byte("output: plain\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, created, err = WriteDefault()
	if err != nil {
		t.Fatalf("second WriteDefault() error = %v", err)
	}
	if created {
		t.Error("second WriteDefault() should not overwrite")
	}
	content, _ = os.ReadFile(path)
	if string(content) != "output: plain\n" {
		t.Errorf("existing config was modified: %q", content)
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/Pictures", filepath.Join(home, "Pictures")},
		{"/abs/path", "/abs/path"},
		{"relative", "relative"},
		{"~user/x", "~user/x"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ExpandPath(tt.in)
			if err != nil {
				t.Fatalf("ExpandPath() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStatePaths(t *testing.T) {
	if filepath.Base(StateDir()) != AppName {
		t.Errorf("StateDir() = %q", StateDir())
	}
	if DefaultLogPath() != filepath.Join(StateDir(), "mediastamp.log") {
		t.Errorf("DefaultLogPath() = %q", DefaultLogPath())
	}
}
