package config

import (
	"testing"

	"github.com/atlanticdynamic/appforge/internal/config/errz"
	"github.com/atlanticdynamic/appforge/internal/config/logs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "unsupported version",
			mutate:  func(c *Config) { c.Version = "v0" },
			wantErr: errz.ErrUnsupportedConfigVer,
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = logs.Level("loud") },
			wantErr: logs.ErrInvalidLogLevel,
		},
		{
			name:    "missing template dir",
			mutate:  func(c *Config) { c.Paths.TemplateDir = " " },
			wantErr: errz.ErrMissingRequiredField,
		},
		{
			name: "workspace inside template",
			mutate: func(c *Config) {
				c.Paths.TemplateDir = "/srv/template"
				c.Paths.WorkspaceRoot = "/srv/template/builds"
			},
			wantErr: errz.ErrPathConflict,
		},
		{
			name: "downloads inside template",
			mutate: func(c *Config) {
				c.Paths.TemplateDir = "/srv/template"
				c.Paths.DownloadsDir = "/srv/template"
			},
			wantErr: errz.ErrPathConflict,
		},
		{
			name:    "invalid template identifier",
			mutate:  func(c *Config) { c.Template.Identifier = "Not Valid!" },
			wantErr: errz.ErrInvalidValue,
		},
		{
			name:    "empty package step",
			mutate:  func(c *Config) { c.Toolchain.Package = []string{""} },
			wantErr: errz.ErrMissingRequiredField,
		},
		{
			name:    "absolute artifact path",
			mutate:  func(c *Config) { c.Toolchain.ArtifactPath = "/tmp/app.apk" },
			wantErr: errz.ErrInvalidValue,
		},
		{
			name:    "escaping artifact path",
			mutate:  func(c *Config) { c.Toolchain.ArtifactPath = "../app.apk" },
			wantErr: errz.ErrInvalidValue,
		},
		{
			name:    "env without equals",
			mutate:  func(c *Config) { c.Toolchain.Env = []string{"PATH"} },
			wantErr: errz.ErrInvalidValue,
		},
		{
			name:    "zero workers",
			mutate:  func(c *Config) { c.Pool.MaxConcurrentJobs = 0 },
			wantErr: errz.ErrInvalidValue,
		},
		{
			name:    "bad cron schedule",
			mutate:  func(c *Config) { c.Retention.Schedule = "every tuesday" },
			wantErr: errz.ErrInvalidValue,
		},
		{
			name: "disabled retention skips schedule",
			mutate: func(c *Config) {
				c.Retention.Disabled = true
				c.Retention.Schedule = "every tuesday"
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := NewDefault()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestValidate_JoinsErrors(t *testing.T) {
	t.Parallel()

	cfg := NewDefault()
	cfg.Pool.MaxConcurrentJobs = 0
	cfg.Pool.HistorySize = 0
	cfg.Toolchain.Env = []string{"BROKEN"}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pool.max_concurrent_jobs")
	assert.Contains(t, err.Error(), "pool.history_size")
	assert.Contains(t, err.Error(), "BROKEN")
}
