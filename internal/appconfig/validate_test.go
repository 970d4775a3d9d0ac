package appconfig

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPayload = `{
  "appName": "Acme Shop",
  "identifier": "com.acme.myapp",
  "version": "2.1.0",
  "pages": [
    {"title": "Home", "type": "content", "content": "Welcome"},
    {"title": "Site", "type": "webview", "url": "https://acme.example", "hiddenSelectors": [".ads"]}
  ],
  "settings": {"darkMode": true}
}`

func TestValidate_Accepts(t *testing.T) {
	t.Parallel()

	cfg, err := Validate([]byte(validPayload))
	require.NoError(t, err)
	assert.Equal(t, "Acme Shop", cfg.AppName)
	assert.Equal(t, "com.acme.myapp", cfg.Identifier)
	assert.Equal(t, "2.1.0", cfg.Version)
	require.Len(t, cfg.Pages, 2)
	assert.Equal(t, PageTypeWebview, cfg.Pages[1].Type)
	assert.Equal(t, []string{".ads"}, cfg.Pages[1].HiddenSelectors)
	assert.Equal(t, true, cfg.Settings["darkMode"])
}

func TestValidate_Defaults(t *testing.T) {
	t.Parallel()

	t.Run("identifier and version", func(t *testing.T) {
		cfg, err := Validate([]byte(`{"appName":"My Test App","pages":[{"title":"A","type":"content"}],"settings":{}}`))
		require.NoError(t, err)
		assert.Equal(t, "com.example.mytestapp", cfg.Identifier)
		assert.Equal(t, DefaultVersion, cfg.Version)
		assert.Empty(t, cfg.Settings)
	})

	t.Run("legacy packageName", func(t *testing.T) {
		cfg, err := Validate([]byte(`{"appName":"X","packageName":"com.legacy.app","pages":[{"title":"A"}],"settings":{}}`))
		require.NoError(t, err)
		assert.Equal(t, "com.legacy.app", cfg.Identifier)
	})

	t.Run("identifier wins over packageName", func(t *testing.T) {
		cfg, err := Validate([]byte(`{"appName":"X","identifier":"com.fresh.app","packageName":"com.legacy.app","pages":[{"title":"A"}],"settings":{}}`))
		require.NoError(t, err)
		assert.Equal(t, "com.fresh.app", cfg.Identifier)
	})

	t.Run("externalView alias accepted", func(t *testing.T) {
		cfg, err := Validate([]byte(`{"appName":"X","pages":[{"title":"A","type":"externalView","url":"https://x.example"}],"settings":{}}`))
		require.NoError(t, err)
		assert.Equal(t, PageTypeExternalView, cfg.Pages[0].Type)
	})
}

func TestValidate_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
		field   string
	}{
		{"undecodable json", `{"appName": `, ""},
		{"not an object", `[1,2,3]`, ""},
		{"missing appName", `{"pages":[{"title":"A"}],"settings":{}}`, "appName"},
		{"whitespace appName", `{"appName":"   ","pages":[{"title":"A"}],"settings":{}}`, "appName"},
		{"numeric appName", `{"appName":7,"pages":[{"title":"A"}],"settings":{}}`, "appName"},
		{"empty pages", `{"appName":"X","pages":[],"settings":{}}`, "pages"},
		{"pages not array", `{"appName":"X","pages":{"title":"A"},"settings":{}}`, "pages"},
		{"settings absent", `{"appName":"X","pages":[{"title":"A"}]}`, "settings"},
		{"settings null", `{"appName":"X","pages":[{"title":"A"}],"settings":null}`, "settings"},
		{"settings array", `{"appName":"X","pages":[{"title":"A"}],"settings":[]}`, "settings"},
		{"pages emptied by differently cased key", `{"appName":"X","pages":[{"title":"A"}],"Pages":[],"settings":{}}`, "pages"},
		{"appName blanked by differently cased key", `{"appName":"X","AppName":"  ","pages":[{"title":"A"}],"settings":{}}`, "appName"},
		{"settings nulled by differently cased key", `{"appName":"X","pages":[{"title":"A"}],"settings":{},"Settings":null}`, "settings"},
		{"keyword identifier segment", `{"appName":"X","identifier":"com.acme.in","pages":[{"title":"A"}],"settings":{}}`, "identifier"},
		{"bad identifier", `{"appName":"X","identifier":"Not Valid!","pages":[{"title":"A"}],"settings":{}}`, "identifier"},
		{"bad version", `{"appName":"X","version":"latest","pages":[{"title":"A"}],"settings":{}}`, "version"},
		{"unknown page type", `{"appName":"X","pages":[{"title":"A","type":"gallery"}],"settings":{}}`, "pages[0].type"},
		{"webview without url", `{"appName":"X","pages":[{"title":"A","type":"webview"}],"settings":{}}`, "pages[0].url"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg, err := Validate([]byte(tc.payload))
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.ErrorIs(t, err, ErrInvalidAppConfig)

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tc.field, vErr.Field)
		})
	}
}

func TestValidate_ReportsAllShapeProblems(t *testing.T) {
	t.Parallel()

	_, err := Validate([]byte(`{"pages":[]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "appName")
	assert.Contains(t, err.Error(), "pages")
	assert.Contains(t, err.Error(), "settings")
}

func TestBlockTextContent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "hello", Block{Type: BlockTypeText, Content: []byte(`"hello"`)}.TextContent())
	assert.Empty(t, Block{Type: BlockTypeMixed, Content: []byte(`[{"type":"text"}]`)}.TextContent())
	assert.Empty(t, Block{Type: BlockTypeText}.TextContent())
}

func TestPageTypeCanonical(t *testing.T) {
	t.Parallel()

	assert.Equal(t, PageTypeWebview, PageTypeExternalView.Canonical())
	assert.Equal(t, PageTypeContent, PageTypeContent.Canonical())
	assert.True(t, PageTypeExternalView.IsValid())
	assert.False(t, PageType("gallery").IsValid())
}
