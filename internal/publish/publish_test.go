package publish

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/atlanticdynamic/appforge/internal/testutil"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const artifactRel = "build/app/outputs/flutter-apk/app-release.apk"

func newPublisher(t *testing.T) *Publisher {
	t.Helper()
	handler, _ := testutil.NewBufferedHandler()
	p, err := NewPublisher(filepath.Join(t.TempDir(), "downloads"), WithLogHandler(handler))
	require.NoError(t, err)
	return p
}

func TestPublish(t *testing.T) {
	t.Parallel()

	p := newPublisher(t)
	assert.DirExists(t, p.Dir())

	workspace := t.TempDir()
	artifact := testutil.WriteFile(t, workspace, artifactRel, "APK-BYTES")
	id := uuid.Must(uuid.NewV4())

	dst, err := p.Publish(context.Background(), artifact, id)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(p.Dir(), id.String(), "app-release.apk"), dst)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "APK-BYTES", string(data))
	assert.FileExists(t, artifact, "artifact is copied, not moved")
}

func TestPublish_MissingArtifact(t *testing.T) {
	t.Parallel()

	p := newPublisher(t)
	id := uuid.Must(uuid.NewV4())
	_, err := p.Publish(context.Background(), filepath.Join(t.TempDir(), artifactRel), id)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPublish)
	assert.ErrorIs(t, err, ErrArtifactMissing)

	var pubErr *PublishError
	require.True(t, errors.As(err, &pubErr))
	assert.NoDirExists(t, filepath.Join(p.Dir(), id.String()))
}

func TestPublish_ArtifactIsDirectory(t *testing.T) {
	t.Parallel()

	p := newPublisher(t)
	dir := filepath.Join(t.TempDir(), "app-release.apk")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	_, err := p.Publish(context.Background(), dir, uuid.Must(uuid.NewV4()))
	assert.ErrorIs(t, err, ErrArtifactMissing)
}

func TestPublish_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newPublisher(t).Publish(ctx, "/nowhere", uuid.Must(uuid.NewV4()))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDownloadPath(t *testing.T) {
	t.Parallel()

	id := uuid.Must(uuid.FromString("0b5e7f4e-7f39-4a8b-9f58-0d1f2d0c1e2a"))
	assert.Equal(t, "0b5e7f4e-7f39-4a8b-9f58-0d1f2d0c1e2a/app-release.apk", DownloadPath(id, "/ws/build/app-release.apk"))
}
