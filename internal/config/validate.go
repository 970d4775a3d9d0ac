package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/atlanticdynamic/appforge/internal/appconfig"
	"github.com/atlanticdynamic/appforge/internal/config/errz"
	"github.com/robfig/cron/v3"
)

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if c.Version != VersionLatest {
		return fmt.Errorf("%w: %s", ErrUnsupportedConfigVer, c.Version)
	}

	errs := []error{}

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}

	errs = append(errs, c.Paths.validate()...)
	errs = append(errs, c.Template.validate()...)
	errs = append(errs, c.Toolchain.validate()...)

	if c.Pool.MaxConcurrentJobs < 1 {
		errs = append(errs, fmt.Errorf("%w: pool.max_concurrent_jobs must be at least 1, got %d",
			errz.ErrInvalidValue, c.Pool.MaxConcurrentJobs))
	}
	if c.Pool.QueueSize < 0 {
		errs = append(errs, fmt.Errorf("%w: pool.queue_size must not be negative, got %d",
			errz.ErrInvalidValue, c.Pool.QueueSize))
	}
	if c.Pool.HistorySize < 1 {
		errs = append(errs, fmt.Errorf("%w: pool.history_size must be at least 1, got %d",
			errz.ErrInvalidValue, c.Pool.HistorySize))
	}

	if c.HTTP.DrainTimeout < 0 {
		errs = append(errs, fmt.Errorf("%w: http.drain_timeout must not be negative",
			errz.ErrInvalidValue))
	}

	if !c.Retention.Disabled {
		if _, err := cron.ParseStandard(c.Retention.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("%w: retention.schedule %q: %w",
				errz.ErrInvalidValue, c.Retention.Schedule, err))
		}
		if c.Retention.MaxAge <= 0 {
			errs = append(errs, fmt.Errorf("%w: retention.max_age must be positive",
				errz.ErrInvalidValue))
		}
	}

	return errors.Join(errs...)
}

func (p Paths) validate() []error {
	errs := []error{}
	required := map[string]string{
		"paths.template_dir":   p.TemplateDir,
		"paths.workspace_root": p.WorkspaceRoot,
		"paths.downloads_dir":  p.DownloadsDir,
	}
	for _, name := range []string{"paths.template_dir", "paths.workspace_root", "paths.downloads_dir"} {
		if strings.TrimSpace(required[name]) == "" {
			errs = append(errs, fmt.Errorf("%w: %s", errz.ErrMissingRequiredField, name))
		}
	}
	if len(errs) > 0 {
		return errs
	}

	// Workspaces inside the template would be copied into every later job.
	if isWithin(p.TemplateDir, p.WorkspaceRoot) {
		errs = append(errs, fmt.Errorf("%w: paths.workspace_root %s is inside paths.template_dir %s",
			errz.ErrPathConflict, p.WorkspaceRoot, p.TemplateDir))
	}
	if isWithin(p.TemplateDir, p.DownloadsDir) {
		errs = append(errs, fmt.Errorf("%w: paths.downloads_dir %s is inside paths.template_dir %s",
			errz.ErrPathConflict, p.DownloadsDir, p.TemplateDir))
	}
	return errs
}

func (t Template) validate() []error {
	errs := []error{}
	if strings.TrimSpace(t.PackageName) == "" {
		errs = append(errs, fmt.Errorf("%w: template.package_name", errz.ErrMissingRequiredField))
	}
	if strings.TrimSpace(t.Version) == "" {
		errs = append(errs, fmt.Errorf("%w: template.version", errz.ErrMissingRequiredField))
	}
	if !appconfig.IsValidIdentifier(t.Identifier) {
		errs = append(errs, fmt.Errorf("%w: template.identifier %q is not a reverse-domain identifier",
			errz.ErrInvalidValue, t.Identifier))
	}
	return errs
}

func (t Toolchain) validate() []error {
	errs := []error{}
	steps := []struct {
		name string
		argv []string
	}{
		{"toolchain.clean", t.Clean},
		{"toolchain.dependencies", t.Dependencies},
		{"toolchain.package", t.Package},
	}
	for _, step := range steps {
		if len(step.argv) == 0 || strings.TrimSpace(step.argv[0]) == "" {
			errs = append(errs, fmt.Errorf("%w: %s", errz.ErrMissingRequiredField, step.name))
		}
	}
	if filepath.IsAbs(t.ArtifactPath) || strings.HasPrefix(filepath.Clean(t.ArtifactPath), "..") {
		errs = append(errs, fmt.Errorf("%w: toolchain.artifact_path must be relative to the workspace, got %s",
			errz.ErrInvalidValue, t.ArtifactPath))
	}
	if t.CompileSdkVersion < 1 {
		errs = append(errs, fmt.Errorf("%w: toolchain.compile_sdk_version must be positive",
			errz.ErrInvalidValue))
	}
	if t.StepTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: toolchain.step_timeout must be positive",
			errz.ErrInvalidValue))
	}
	for _, kv := range t.Env {
		if !strings.Contains(kv, "=") {
			errs = append(errs, fmt.Errorf("%w: toolchain.env entry %q is not KEY=VALUE",
				errz.ErrInvalidValue, kv))
		}
	}
	return errs
}

// isWithin reports whether child resolves to parent or a path below it.
func isWithin(parent, child string) bool {
	absParent, err := filepath.Abs(parent)
	if err != nil {
		return false
	}
	absChild, err := filepath.Abs(child)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absParent, absChild)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
