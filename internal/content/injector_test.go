package content

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/atlanticdynamic/appforge/internal/appconfig"
	"github.com/atlanticdynamic/appforge/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleApp() *appconfig.AppConfig {
	return &appconfig.AppConfig{
		AppName:    "Acme Shop",
		Identifier: "com.acme.myapp",
		Version:    "1.0.0",
		Pages: []appconfig.Page{
			{Title: "Home", Type: appconfig.PageTypeContent, Content: "Prices from $5", ImageURL: "https://cdn/hero.png"},
			{Title: "Site", Type: appconfig.PageTypeExternalView, URL: "https://acme.example"},
		},
		Settings: map[string]any{"darkMode": true},
	}
}

func newInjector(t *testing.T) *Injector {
	t.Helper()
	handler, _ := testutil.NewBufferedHandler()
	return NewInjector(WithLogHandler(handler))
}

func TestInject_WritesConfigAsset(t *testing.T) {
	t.Parallel()

	workspace := testutil.WriteTemplate(t)
	require.NoError(t, newInjector(t).Inject(context.Background(), workspace, sampleApp()))

	var doc Document
	require.NoError(t, json.Unmarshal([]byte(testutil.ReadFile(t, workspace, ConfigAssetPath)), &doc))

	assert.Equal(t, "Acme Shop", doc.AppName)
	assert.Equal(t, "com.acme.myapp", doc.Identifier)
	assert.Equal(t, "1.0.0", doc.Version)
	assert.Equal(t, true, doc.Settings["darkMode"])
	require.Len(t, doc.Pages, 2)
	require.Len(t, doc.Pages[0].Images, 1)
	assert.Equal(t, DefaultImageWidth, *doc.Pages[0].Images[0].Width)
	assert.Equal(t, appconfig.PageTypeWebview, doc.Pages[1].Type)
}

func TestInject_ControllerConstants(t *testing.T) {
	t.Parallel()

	workspace := testutil.WriteTemplate(t)
	require.NoError(t, newInjector(t).Inject(context.Background(), workspace, sampleApp()))

	controller := testutil.ReadFile(t, workspace, ControllerPath)
	assert.NotContains(t, controller, pagesPlaceholder)
	assert.NotContains(t, controller, settingsPlaceholder)
	assert.Contains(t, controller, "List<Map<String, dynamic>> _pages = [\n")
	assert.Contains(t, controller, `"title": "Home"`)
	assert.Contains(t, controller, `Prices from \$5`)
	assert.Contains(t, controller, "Map<String, dynamic> _appSettings = {\n  \"darkMode\": true\n};")
	assert.Contains(t, controller, "List<Map<String, dynamic>> get pages => _pages;")

	// the asset keeps the raw value
	assert.Contains(t, testutil.ReadFile(t, workspace, ConfigAssetPath), `"Prices from $5"`)
}

func TestInject_ControllerMissing(t *testing.T) {
	t.Parallel()

	workspace := t.TempDir()
	require.NoError(t, newInjector(t).Inject(context.Background(), workspace, sampleApp()))
	assert.FileExists(t, filepath.Join(workspace, filepath.FromSlash(ConfigAssetPath)))
	assert.NoFileExists(t, filepath.Join(workspace, filepath.FromSlash(ControllerPath)))
}

func TestInject_ControllerWithoutPlaceholders(t *testing.T) {
	t.Parallel()

	workspace := t.TempDir()
	const src = "class AppController {}\n"
	testutil.WriteFile(t, workspace, ControllerPath, src)

	require.NoError(t, newInjector(t).Inject(context.Background(), workspace, sampleApp()))
	assert.Equal(t, src, testutil.ReadFile(t, workspace, ControllerPath))
}

func TestInject_DoesNotMutateApp(t *testing.T) {
	t.Parallel()

	app := sampleApp()
	require.NoError(t, newInjector(t).Inject(context.Background(), t.TempDir(), app))
	assert.Empty(t, app.Pages[0].Images)
	assert.Equal(t, appconfig.PageTypeExternalView, app.Pages[1].Type)
}

func TestInject_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	workspace := t.TempDir()

	err := newInjector(t).Inject(ctx, workspace, sampleApp())
	assert.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(workspace)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDartLiteral(t *testing.T) {
	t.Parallel()

	out, err := dartLiteral(map[string]any{"price": "$5", "tag": "<b>"})
	require.NoError(t, err)
	assert.Contains(t, out, `"price": "\$5"`)
	assert.Contains(t, out, `"tag": "<b>"`)
	assert.False(t, strings.HasSuffix(out, "\n"))
}
