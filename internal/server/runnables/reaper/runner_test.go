package reaper

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	lifecycle "github.com/atlanticdynamic/appforge/internal/server/finitestate"
	"github.com/atlanticdynamic/appforge/internal/testutil"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// jobDir creates dir/<id>/marker with the given age.
func jobDir(t *testing.T, dir string, age time.Duration) uuid.UUID {
	t.Helper()
	id := uuid.Must(uuid.NewV4())
	testutil.WriteFile(t, dir, id.String()+"/marker", "x")
	stamp := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(filepath.Join(dir, id.String()), stamp, stamp))
	return id
}

func newTestRunner(t *testing.T, spec string, dirs []string, opts ...Option) *Runner {
	t.Helper()
	handler, _ := testutil.NewBufferedHandler()
	r, err := NewRunner(spec, time.Hour, dirs, append([]Option{WithLogHandler(handler)}, opts...)...)
	require.NoError(t, err)
	return r
}

func TestNewRunner_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewRunner("not a schedule", time.Hour, []string{"/tmp"})
	require.Error(t, err)
	_, err = NewRunner("@hourly", 0, []string{"/tmp"})
	require.Error(t, err)
	_, err = NewRunner("@hourly", time.Hour, nil)
	require.Error(t, err)

	r, err := NewRunner("@hourly", time.Hour, []string{"/tmp"})
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusNew, r.GetState())
	assert.Equal(t, "reaper.Runner", r.String())
}

func TestSweep(t *testing.T) {
	t.Parallel()

	workspaces := t.TempDir()
	downloads := t.TempDir()

	expired := jobDir(t, workspaces, 2*time.Hour)
	expiredDownload := jobDir(t, downloads, 2*time.Hour)
	fresh := jobDir(t, workspaces, time.Minute)
	active := jobDir(t, workspaces, 3*time.Hour)
	testutil.WriteFile(t, workspaces, "downloads/keep.txt", "not a job")
	stamp := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(workspaces, "downloads"), stamp, stamp))

	r := newTestRunner(t, "@hourly", []string{workspaces, downloads},
		WithActiveCheck(func(id uuid.UUID) bool { return id == active }))

	removed, err := r.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	assert.NoDirExists(t, filepath.Join(workspaces, expired.String()))
	assert.NoDirExists(t, filepath.Join(downloads, expiredDownload.String()))
	assert.DirExists(t, filepath.Join(workspaces, fresh.String()))
	assert.DirExists(t, filepath.Join(workspaces, active.String()), "active jobs are never swept")
	assert.DirExists(t, filepath.Join(workspaces, "downloads"), "non-job directories are left alone")
}

func TestSweep_MissingDirIsNotAnError(t *testing.T) {
	t.Parallel()

	r := newTestRunner(t, "@hourly", []string{filepath.Join(t.TempDir(), "missing")})
	removed, err := r.Sweep()
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestSweep_Clock(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	id := jobDir(t, dir, time.Minute)

	r := newTestRunner(t, "@hourly", []string{dir},
		WithClock(func() time.Time { return time.Now().Add(2 * time.Hour) }))
	removed, err := r.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoDirExists(t, filepath.Join(dir, id.String()))
}

func TestRun_SweepsOnSchedule(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	id := jobDir(t, dir, 2*time.Hour)
	r := newTestRunner(t, "@every 1s", []string{dir})

	ctx, cancel := context.WithCancel(t.Context())
	errCh := make(chan error, 1)
	go func() { errCh <- r.Run(ctx) }()

	require.Eventually(t, r.IsRunning, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, id.String()))
		return os.IsNotExist(err)
	}, 5*time.Second, 20*time.Millisecond)

	r.Stop()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
	cancel()
	assert.Equal(t, lifecycle.StatusStopped, r.GetState())
}
