// Package logging provides component loggers for mediastamp backed by a
// rotating log file, with optional mirroring to stderr.
//
// Basic usage:
//
//	if err := logging.Init(logging.DefaultConfig()); err != nil {
//	    return err
//	}
//	defer logging.Close()
//
//	logger := logging.Get("sidecar")
//	logger.Info("run complete", "dir", dir, "created", n)
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// ErrInvalidLevel is returned when an invalid log level string is provided.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel parses a level name. Empty means info and "warning" is
// accepted as an alias for warn.
func ParseLevel(s string) (log.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return log.InfoLevel, nil
	case "warning":
		s = "warn"
	}
	level, err := log.ParseLevel(s)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
	}
	return level, nil
}

// Config configures the logging system.
type Config struct {
	// Level is the default log level (debug, info, warn, error).
	Level string

	// Path is the log file path. Empty uses DefaultLogPath().
	Path string

	// Rotation configures log file rotation.
	Rotation RotationConfig

	// Components maps component names to their log levels.
	Components map[string]string

	// ConsoleLevel mirrors records at this level and above to stderr.
	// Empty disables console output.
	ConsoleLevel string
}

// Logger is a component-scoped logger. Records always go to the log file
// (io.Discard before Init) and optionally to stderr.
type Logger struct {
	sinks     []*log.Logger
	component string
}

// Component returns the name the logger was created with.
func (l *Logger) Component() string {
	return l.component
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.emit(log.DebugLevel, msg, args...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...interface{}) {
	l.emit(log.InfoLevel, msg, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.emit(log.WarnLevel, msg, args...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...interface{}) {
	l.emit(log.ErrorLevel, msg, args...)
}

func (l *Logger) emit(level log.Level, msg string, args ...interface{}) {
	for _, sink := range l.sinks {
		sink.Log(level, msg, args...)
	}
}

// With returns a logger that adds the given key/value pairs to every record.
func (l *Logger) With(args ...interface{}) *Logger {
	child := &Logger{component: l.component, sinks: make([]*log.Logger, len(l.sinks))}
	for i, sink := range l.sinks {
		child.sinks[i] = sink.With(args...)
	}
	return child
}

type state struct {
	mu          sync.RWMutex
	initialized bool
	writer      *RotatingWriter
	console     io.Writer
	level       log.Level
	consoleOn   bool
	consoleLvl  log.Level
	components  map[string]log.Level
	loggers     map[string]*Logger
}

var global = &state{
	console:    os.Stderr,
	components: make(map[string]log.Level),
	loggers:    make(map[string]*Logger),
}

// Init opens the log file and configures levels. Calling Init again closes
// the previous file first. Loggers obtained before Init are rebuilt.
func Init(cfg Config) error {
	global.mu.Lock()
	defer global.mu.Unlock()

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}

	components := make(map[string]log.Level, len(cfg.Components))
	for comp, lvl := range cfg.Components {
		parsed, err := ParseLevel(lvl)
		if err != nil {
			return fmt.Errorf("parsing level for component %s: %w", comp, err)
		}
		components[comp] = parsed
	}

	consoleOn := cfg.ConsoleLevel != ""
	var consoleLvl log.Level
	if consoleOn {
		if consoleLvl, err = ParseLevel(cfg.ConsoleLevel); err != nil {
			return fmt.Errorf("parsing console level: %w", err)
		}
	}

	path := cfg.Path
	if path == "" {
		path = DefaultLogPath()
	}
	writer, err := NewRotatingWriter(path, cfg.Rotation)
	if err != nil {
		return fmt.Errorf("creating log writer: %w", err)
	}

	if global.writer != nil {
		_ = global.writer.Close()
	}

	global.writer = writer
	global.level = level
	global.components = components
	global.consoleOn = consoleOn
	global.consoleLvl = consoleLvl
	global.initialized = true

	for component := range global.loggers {
		global.loggers[component] = newLogger(component)
	}
	return nil
}

// Get returns the logger for component, creating it on first use.
func Get(component string) *Logger {
	global.mu.RLock()
	logger, ok := global.loggers[component]
	global.mu.RUnlock()
	if ok {
		return logger
	}

	global.mu.Lock()
	defer global.mu.Unlock()
	if logger, ok := global.loggers[component]; ok {
		return logger
	}
	logger = newLogger(component)
	global.loggers[component] = logger
	return logger
}

// newLogger must be called with global.mu held.
func newLogger(component string) *Logger {
	level := global.level
	if override, ok := global.components[component]; ok {
		level = override
	}

	if !global.initialized {
		return &Logger{
			component: component,
			sinks: []*log.Logger{log.NewWithOptions(io.Discard, log.Options{
				Level:  level,
				Prefix: component,
			})},
		}
	}

	logger := &Logger{
		component: component,
		sinks: []*log.Logger{log.NewWithOptions(global.writer, log.Options{
			Level:           level,
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          component,
		})},
	}
	if global.consoleOn {
		logger.sinks = append(logger.sinks, log.NewWithOptions(global.console, log.Options{
			Level:           global.consoleLvl,
			ReportTimestamp: true,
			TimeFormat:      time.TimeOnly,
			Prefix:          component,
		}))
	}
	return logger
}

// Close flushes and closes the log file. Loggers fall back to discarding
// until the next Init.
func Close() error {
	global.mu.Lock()
	defer global.mu.Unlock()

	if !global.initialized {
		return nil
	}

	var err error
	if global.writer != nil {
		if closeErr := global.writer.Close(); closeErr != nil {
			err = fmt.Errorf("closing log writer: %w", closeErr)
		}
		global.writer = nil
	}

	global.initialized = false
	global.level = log.InfoLevel
	global.components = make(map[string]log.Level)
	global.loggers = make(map[string]*Logger)
	return err
}

// DefaultLogPath returns $XDG_STATE_HOME/mediastamp/mediastamp.log.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "mediastamp", "mediastamp.log")
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Level:    "info",
		Path:     DefaultLogPath(),
		Rotation: DefaultRotationConfig(),
	}
}
