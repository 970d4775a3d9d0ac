// Package workspace allocates isolated per-job directories and reclaims old ones.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/uuid/v5"
)

// ErrCollision is returned when a job id already has a directory.
var ErrCollision = errors.New("workspace already exists")

// Manager owns the workspace root. Each workspace is named by its job id.
type Manager struct {
	root   string
	logger *slog.Logger
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithLogHandler sets the log handler
func WithLogHandler(handler slog.Handler) Option {
	return func(m *Manager) {
		m.logger = slog.New(handler)
	}
}

// NewManager creates root if needed and returns a Manager for it.
func NewManager(root string, opts ...Option) (*Manager, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root %s: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace root %s: %w", abs, err)
	}

	m := &Manager{
		root:   abs,
		logger: slog.Default().WithGroup("workspace.Manager"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Root returns the absolute workspace root.
func (m *Manager) Root() string {
	return m.root
}

// Path returns the workspace directory for id, whether or not it exists.
func (m *Manager) Path(id uuid.UUID) string {
	return filepath.Join(m.root, id.String())
}

// Create exclusively creates the workspace for a caller-chosen id.
func (m *Manager) Create(id uuid.UUID) (string, error) {
	path := m.Path(id)
	if err := os.Mkdir(path, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrCollision, path)
		}
		return "", fmt.Errorf("failed to create workspace %s: %w", path, err)
	}
	m.logger.Debug("Workspace allocated", "id", id, "path", path)
	return path, nil
}

// Prune deletes job-id-named directories directly under dir that were last
// modified before cutoff. Entries whose names are not job ids are left alone.
func Prune(dir string, cutoff time.Time, keep func(uuid.UUID) bool) ([]uuid.UUID, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var removed []uuid.UUID
	var errs []error
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id, err := uuid.FromString(entry.Name())
		if err != nil {
			continue
		}
		if keep != nil && keep(id) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, id)
	}
	return removed, errors.Join(errs...)
}
