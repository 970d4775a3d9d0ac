package template

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/atlanticdynamic/appforge/internal/fsutil"
)

// Materializer copies a Source into job workspaces.
type Materializer struct {
	source *Source
	logger *slog.Logger
}

// Option configures a Materializer
type Option func(*Materializer)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(m *Materializer) {
		m.logger = logger
	}
}

// WithLogHandler sets the log handler
func WithLogHandler(handler slog.Handler) Option {
	return func(m *Materializer) {
		m.logger = slog.New(handler)
	}
}

// NewMaterializer creates a Materializer for source
func NewMaterializer(source *Source, opts ...Option) *Materializer {
	m := &Materializer{
		source: source,
		logger: slog.Default().WithGroup("template.Materializer"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Materialize re-verifies the manifest and copies the template into
// workspace, which must already exist. Excluded paths are skipped, file
// modes are kept, and symlinks are neither followed nor copied.
func (m *Materializer) Materialize(ctx context.Context, workspace string) error {
	if err := m.source.Verify(); err != nil {
		return err
	}

	root := m.source.Root()
	copied := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		slashRel := filepath.ToSlash(rel)

		if Excluded(slashRel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		dst := filepath.Join(workspace, rel)
		switch {
		case d.Type()&fs.ModeSymlink != 0:
			m.logger.Debug("Skipping symlink in template", "path", slashRel)
			return nil
		case d.IsDir():
			info, err := d.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(dst, info.Mode().Perm()|0o700)
		case d.Type().IsRegular():
			copied++
			return fsutil.CopyFile(path, dst)
		default:
			m.logger.Debug("Skipping special file in template", "path", slashRel)
			return nil
		}
	})
	if err != nil {
		return fmt.Errorf("failed to materialize template into %s: %w", workspace, err)
	}

	m.logger.Debug("Template materialized", "workspace", workspace, "files", copied)
	return nil
}
