package logs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		config    Config
		wantError bool
	}{
		{
			name:      "Valid Config",
			config:    Config{Format: FormatJSON, Level: LevelInfo},
			wantError: false,
		},
		{
			name:      "Valid Config - Text Format with trace",
			config:    Config{Format: FormatText, Level: LevelTrace},
			wantError: false,
		},
		{
			name:      "Valid Config - file output",
			config:    Config{Format: FormatText, Level: LevelDebug, Output: "file:///var/log/appforge.log"},
			wantError: false,
		},
		{
			name:      "Invalid Format",
			config:    Config{Format: Format("custom"), Level: LevelInfo},
			wantError: true,
		},
		{
			name:      "Invalid Level",
			config:    Config{Format: FormatJSON, Level: Level("verbose")},
			wantError: true,
		},
		{
			name:      "Invalid Output scheme",
			config:    Config{Output: "syslog://localhost"},
			wantError: true,
		},
		{
			name:      "Empty Config",
			config:    Config{},
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()

			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Validate_ErrorMessages(t *testing.T) {
	t.Parallel()

	bothInvalid := Config{
		Format: Format("yaml"),
		Level:  Level("critical"),
	}
	err := bothInvalid.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidLogFormat)
	assert.ErrorIs(t, err, ErrInvalidLogLevel)
	assert.Contains(t, err.Error(), "invalid log format: yaml")
	assert.Contains(t, err.Error(), "invalid log level: critical")
}

func TestFromString(t *testing.T) {
	t.Parallel()

	lvl, err := LevelFromString("warning")
	require.NoError(t, err)
	assert.Equal(t, LevelWarn, lvl)

	_, err = LevelFromString("loud")
	assert.ErrorIs(t, err, ErrInvalidLogLevel)

	f, err := FormatFromString("txt")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)
}

func TestConfig_Handler(t *testing.T) {
	t.Parallel()

	t.Run("defaults to a text handler", func(t *testing.T) {
		cfg := Config{}
		h, err := cfg.Handler()
		require.NoError(t, err)
		assert.NotNil(t, h)
	})

	t.Run("json handler writing to a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "appforge.log")
		cfg := Config{Format: FormatJSON, Level: LevelDebug, Output: path}
		h, err := cfg.Handler()
		require.NoError(t, err)
		assert.FileExists(t, path)
		assert.NotNil(t, h)
	})
}
