package main

import (
	"fmt"
	"log/slog"

	"github.com/atlanticdynamic/appforge/internal/config"
	"github.com/atlanticdynamic/appforge/internal/config/logs"
	"github.com/atlanticdynamic/appforge/internal/logging"
)

// configFlagName is shared by every command that loads a config file.
const configFlagName = "config"

// loadConfig reads the config file at path, or the defaults when path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.NewDefault()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("default config is invalid: %w", err)
		}
		return cfg, nil
	}
	cfg, err := config.NewConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// setupLogger installs the default logger described by cfg. A non-empty
// levelOverride replaces the configured level.
func setupLogger(cfg *config.Config, levelOverride string) (slog.Handler, error) {
	logCfg := cfg.Logging
	if levelOverride != "" {
		level, err := logs.LevelFromString(levelOverride)
		if err != nil {
			return nil, err
		}
		logCfg.Level = level
	}

	handler, err := logCfg.Handler()
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	slog.SetDefault(slog.New(handler))
	return handler, nil
}

// setupCLILogger installs a plain text logger for commands that run before a
// config is available.
func setupCLILogger(levelOverride string) {
	logging.SetupLogger(levelOverride)
}
