// Package publish copies build artifacts to stable, job-addressed locations.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/atlanticdynamic/appforge/internal/fsutil"
	"github.com/gofrs/uuid/v5"
)

var (
	// ErrPublish is matched by every PublishError.
	ErrPublish = errors.New("publish failed")

	// ErrArtifactMissing means the toolchain reported success but produced no artifact.
	ErrArtifactMissing = errors.New("build artifact not found")
)

// PublishError describes a failure to publish an artifact.
type PublishError struct {
	Artifact string
	Err      error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPublish, e.Artifact, e.Err)
}

// Unwrap exposes ErrPublish and the underlying cause.
func (e *PublishError) Unwrap() []error {
	return []error{ErrPublish, e.Err}
}

// Publisher owns the downloads directory.
type Publisher struct {
	downloadsDir string
	logger       *slog.Logger
}

// Option configures a Publisher
type Option func(*Publisher)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithLogHandler sets the log handler
func WithLogHandler(handler slog.Handler) Option {
	return func(p *Publisher) {
		p.logger = slog.New(handler)
	}
}

// NewPublisher creates downloadsDir if needed and returns a Publisher for it.
func NewPublisher(downloadsDir string, opts ...Option) (*Publisher, error) {
	abs, err := filepath.Abs(downloadsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve downloads dir %s: %w", downloadsDir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create downloads dir %s: %w", abs, err)
	}
	p := &Publisher{
		downloadsDir: abs,
		logger:       slog.Default().WithGroup("publish.Publisher"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Dir returns the absolute downloads directory.
func (p *Publisher) Dir() string {
	return p.downloadsDir
}

// Publish copies the artifact to <downloads>/<jobID>/<artifact name> and
// returns the destination. The artifact inside the workspace is left in
// place, and the destination only ever appears complete.
func (p *Publisher) Publish(ctx context.Context, artifact string, jobID uuid.UUID) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	info, err := os.Stat(artifact)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", &PublishError{Artifact: artifact, Err: ErrArtifactMissing}
	case err != nil:
		return "", &PublishError{Artifact: artifact, Err: err}
	case !info.Mode().IsRegular():
		return "", &PublishError{Artifact: artifact, Err: fmt.Errorf("%w: not a regular file", ErrArtifactMissing)}
	}

	dst := filepath.Join(p.downloadsDir, jobID.String(), filepath.Base(artifact))
	if err := fsutil.CopyFileAtomic(artifact, dst); err != nil {
		return "", &PublishError{Artifact: artifact, Err: err}
	}

	p.logger.Info("Artifact published", "job", jobID, "path", dst, "bytes", info.Size())
	return dst, nil
}

// DownloadPath returns the URL path under which a published artifact is
// served, relative to the downloads mount.
func DownloadPath(jobID uuid.UUID, artifact string) string {
	return path.Join(jobID.String(), filepath.Base(artifact))
}
