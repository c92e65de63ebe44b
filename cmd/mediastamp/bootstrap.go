package main

import (
	"github.com/jamesainslie/mediastamp/pkg/mediastamp/config"
	"github.com/jamesainslie/mediastamp/pkg/mediastamp/logging"
	"github.com/jamesainslie/mediastamp/pkg/mediastamp/types"
)

// initLogging starts file logging from cfg. Verbose mode mirrors debug
// records to stderr.
func initLogging(cfg *config.Config, verbose bool) error {
	logCfg := logging.Config{
		Level:      cfg.Logging.Level,
		Path:       cfg.Logging.Path,
		Rotation:   parseRotationConfig(cfg.Logging.Rotation),
		Components: cfg.Logging.Components,
	}
	if logCfg.Path == "" {
		logCfg.Path = config.DefaultLogPath()
	}
	if verbose {
		logCfg.Level = "debug"
		logCfg.ConsoleLevel = "debug"
	}
	return logging.Init(logCfg)
}

// parseRotationConfig converts the config file's rotation settings. An empty
// or unparseable max_size falls back to the logging default.
func parseRotationConfig(rc config.RotationConfig) logging.RotationConfig {
	maxSize := logging.DefaultRotationConfig().MaxSize
	if rc.MaxSize != "" {
		if parsed, err := types.ParseSize(rc.MaxSize); err == nil && parsed > 0 {
			maxSize = parsed
		}
	}
	return logging.RotationConfig{
		MaxSize:    maxSize,
		MaxAge:     rc.MaxAge,
		MaxBackups: rc.MaxBackups,
		Daily:      rc.Daily,
	}
}
