package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/atlanticdynamic/appforge/internal/config"
	"github.com/atlanticdynamic/appforge/internal/content"
	"github.com/atlanticdynamic/appforge/internal/job/finitestate"
	"github.com/atlanticdynamic/appforge/internal/rewrite"
	"github.com/atlanticdynamic/appforge/internal/template"
	"github.com/atlanticdynamic/appforge/internal/testutil"
	"github.com/atlanticdynamic/appforge/internal/toolchain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const writeArtifact = `mkdir -p build/app/outputs/flutter-apk
printf 'dummy apk' > build/app/outputs/flutter-apk/app-release.apk`

// stubConfig returns a config whose toolchain steps are shell scripts. The
// package script body is packageBody.
func stubConfig(t *testing.T, packageBody string) *config.Config {
	t.Helper()
	tools := t.TempDir()
	root := t.TempDir()

	cfg := config.NewDefault()
	cfg.Paths.TemplateDir = testutil.WriteTemplate(t)
	cfg.Paths.WorkspaceRoot = filepath.Join(root, "builds")
	cfg.Paths.DownloadsDir = filepath.Join(root, "downloads")
	cfg.Toolchain.Clean = []string{testutil.WriteScript(t, tools, "clean.sh", "exit 0")}
	cfg.Toolchain.Dependencies = []string{testutil.WriteScript(t, tools, "deps.sh", "echo resolving")}
	cfg.Toolchain.Package = []string{testutil.WriteScript(t, tools, "package.sh", packageBody)}
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestEndToEnd_Success(t *testing.T) {
	t.Parallel()

	cfg := stubConfig(t, writeArtifact)
	handler, _ := testutil.NewBufferedHandler()
	obs := &recordingObserver{}
	p, err := FromConfig(cfg, handler, obs)
	require.NoError(t, err)

	j := newTestJob(t, validPayload)
	require.NoError(t, p.Run(t.Context(), j))

	assert.Equal(t, finitestate.StageCompleted, j.GetState())
	require.FileExists(t, j.ArtifactPath())
	data, err := os.ReadFile(j.ArtifactPath())
	require.NoError(t, err)
	assert.Equal(t, "dummy apk", string(data))

	downloads, err := filepath.Abs(cfg.Paths.DownloadsDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(downloads, j.ID.String(), "app-release.apk"), j.ArtifactPath())

	ws := j.WorkspacePath()
	assert.FileExists(t, filepath.Join(ws, filepath.FromSlash(toolchain.DefaultArtifactPath)),
		"publishing copies, never moves")
	assert.FileExists(t, filepath.Join(ws, filepath.FromSlash(content.ConfigAssetPath)))
	assert.FileExists(t, filepath.Join(ws, filepath.FromSlash(rewrite.EntryPointPath("com.acme.myapp"))))
	assert.NoFileExists(t, filepath.Join(ws, filepath.FromSlash(testutil.TemplateEntryPoint)))
	assert.Contains(t, testutil.ReadFile(t, ws, rewrite.PubspecPath), "name: my_app")
	assert.Contains(t, testutil.ReadFile(t, ws, rewrite.BuildGradlePath), `applicationId "com.acme.myapp"`)

	for rel := range testutil.TemplateJunk {
		assert.True(t, template.Excluded(rel), rel)
		assert.NoFileExists(t, filepath.Join(ws, filepath.FromSlash(rel)))
	}

	assert.Equal(t, finitestate.PipelineStages, obs.stages)
}

func TestEndToEnd_CompileFailure(t *testing.T) {
	t.Parallel()

	cfg := stubConfig(t, `echo "e: MainActivity.kt: unresolved reference" >&2
exit 1`)
	handler, _ := testutil.NewBufferedHandler()
	p, err := FromConfig(cfg, handler, nil)
	require.NoError(t, err)

	j := newTestJob(t, validPayload)
	err = p.Run(t.Context(), j)
	require.ErrorIs(t, err, toolchain.ErrBuild)

	assert.Equal(t, finitestate.StageFailed, j.GetState())
	f := j.Failure()
	require.NotNil(t, f)
	assert.Equal(t, finitestate.StageBuilding, f.Stage)
	assert.Contains(t, string(f.Output()), "unresolved reference")

	assert.DirExists(t, j.WorkspacePath(), "failed workspaces stay for inspection")
	assert.Empty(t, j.ArtifactPath())

	downloads, err := os.ReadDir(cfg.Paths.DownloadsDir)
	require.NoError(t, err)
	assert.Empty(t, downloads)
}

func TestEndToEnd_ConcurrentJobsAreIsolated(t *testing.T) {
	t.Parallel()

	cfg := stubConfig(t, writeArtifact)
	handler, _ := testutil.NewBufferedHandler()
	p, err := FromConfig(cfg, handler, nil)
	require.NoError(t, err)

	payloads := []string{
		validPayload,
		`{"appName":"Other","identifier":"org.other.app","pages":[{"title":"Web","type":"webview","url":"https://example.com"}],"settings":{"dark":true}}`,
	}
	type result struct {
		err        error
		workspace  string
		identifier string
	}
	results := make(chan result, len(payloads))
	for _, payload := range payloads {
		j := newTestJob(t, payload)
		go func() {
			err := p.Run(t.Context(), j)
			r := result{err: err, workspace: j.WorkspacePath()}
			if app := j.App(); app != nil {
				r.identifier = app.Identifier
			}
			results <- r
		}()
	}

	seen := map[string]bool{}
	for range payloads {
		r := <-results
		require.NoError(t, r.err)
		assert.False(t, seen[r.workspace], "workspaces must not be shared")
		seen[r.workspace] = true
		assert.Contains(t, testutil.ReadFile(t, r.workspace, rewrite.BuildGradlePath),
			`applicationId "`+r.identifier+`"`)
	}
	assert.Len(t, seen, 2)
}

func TestFromConfig_CorruptTemplate(t *testing.T) {
	t.Parallel()

	cfg := stubConfig(t, writeArtifact)
	require.NoError(t, os.Remove(filepath.Join(cfg.Paths.TemplateDir, filepath.FromSlash(rewrite.PubspecPath))))

	_, err := FromConfig(cfg, nil, nil)
	require.ErrorIs(t, err, template.ErrTemplateCorrupt)
}
