package toolchain

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/atlanticdynamic/appforge/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunner(t *testing.T) {
	t.Parallel()

	t.Run("captures interleaved output", func(t *testing.T) {
		dir := t.TempDir()
		script := testutil.WriteScript(t, dir, "step.sh", "echo out1; echo err1 >&2; echo out2")

		res, err := NewExecRunner(nil).Run(context.Background(), dir, []string{script})
		require.NoError(t, err)
		assert.Equal(t, 0, res.ExitCode)
		assert.Equal(t, "out1\nerr1\nout2\n", string(res.Output))
	})

	t.Run("reports exit code", func(t *testing.T) {
		dir := t.TempDir()
		script := testutil.WriteScript(t, dir, "fail.sh", "echo broken; exit 3")

		res, err := NewExecRunner(nil).Run(context.Background(), dir, []string{script})
		require.NoError(t, err)
		assert.Equal(t, 3, res.ExitCode)
		assert.Equal(t, "broken\n", string(res.Output))
	})

	t.Run("runs in dir with extra env", func(t *testing.T) {
		dir := t.TempDir()
		script := testutil.WriteScript(t, dir, "env.sh", `pwd; echo "$APPFORGE_TEST"`)

		res, err := NewExecRunner([]string{"APPFORGE_TEST=hello"}).Run(context.Background(), dir, []string{script})
		require.NoError(t, err)
		assert.Contains(t, string(res.Output), "hello")
	})

	t.Run("missing binary", func(t *testing.T) {
		res, err := NewExecRunner(nil).Run(context.Background(), t.TempDir(), []string{"appforge-no-such-binary"})
		require.Error(t, err)
		assert.Equal(t, -1, res.ExitCode)
	})

	t.Run("empty argv", func(t *testing.T) {
		_, err := NewExecRunner(nil).Run(context.Background(), t.TempDir(), nil)
		require.Error(t, err)
	})

	t.Run("killed on cancel", func(t *testing.T) {
		dir := t.TempDir()
		script := testutil.WriteScript(t, dir, "slow.sh", "echo started; exec sleep 30")

		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		start := time.Now()
		res, err := NewExecRunner(nil).Run(ctx, dir, []string{script})
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, -1, res.ExitCode)
		assert.Less(t, time.Since(start), 10*time.Second)
	})

	t.Run("cancel kills spawned children", func(t *testing.T) {
		dir := t.TempDir()
		marker := filepath.Join(dir, "marker")
		script := testutil.WriteScript(t, dir, "spawn.sh", "(sleep 1; touch "+marker+") & wait")

		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		res, err := NewExecRunner(nil).Run(ctx, dir, []string{script})
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, -1, res.ExitCode)

		time.Sleep(1500 * time.Millisecond)
		assert.NoFileExists(t, marker)
	})
}
