package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// NewConfig loads configuration from a TOML file, applies defaults and validates it
func NewConfig(filePath string) (*Config, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: config file does not exist: %s", ErrFailedToLoadConfig, filePath)
	}

	ext := filepath.Ext(filePath)
	if ext != ".toml" {
		return nil, fmt.Errorf(
			"%w: unsupported config format: %s, only .toml is supported",
			ErrFailedToLoadConfig,
			ext,
		)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToLoadConfig, err)
	}

	return NewConfigFromBytes(data)
}

// NewConfigFromReader loads configuration from an io.Reader providing TOML data
func NewConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config data: %w", ErrFailedToLoadConfig, err)
	}
	return NewConfigFromBytes(data)
}

// NewConfigFromBytes loads configuration from TOML bytes
func NewConfigFromBytes(data []byte) (*Config, error) {
	cfg := &Config{}

	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		var strictErr *toml.StrictMissingError
		if errors.As(err, &strictErr) {
			return nil, fmt.Errorf("%w: unknown keys: %s", ErrFailedToLoadConfig, strictErr.String())
		}
		return nil, fmt.Errorf("%w: failed to parse TOML: %w", ErrFailedToLoadConfig, err)
	}

	if cfg.Version != "" && cfg.Version != VersionLatest {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedConfigVer, cfg.Version)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToValidateConfig, err)
	}

	return cfg, nil
}
