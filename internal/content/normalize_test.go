package content

import (
	"encoding/json"
	"testing"

	"github.com/atlanticdynamic/appforge/internal/appconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textBlock(s string) appconfig.Block {
	raw, _ := json.Marshal(s)
	return appconfig.Block{Type: appconfig.BlockTypeText, Content: raw}
}

func imageBlock(url string) appconfig.Block {
	return appconfig.Block{Type: appconfig.BlockTypeImage, URL: url}
}

func f(v float64) *float64 { return &v }

func TestFoldLegacyImage(t *testing.T) {
	t.Parallel()

	t.Run("folds into empty list", func(t *testing.T) {
		p := FoldLegacyImage(appconfig.Page{ImageURL: "https://cdn/a.png"})
		require.Len(t, p.Images, 1)
		assert.Equal(t, "https://cdn/a.png", p.Images[0].URL)
	})

	t.Run("list already populated", func(t *testing.T) {
		p := FoldLegacyImage(appconfig.Page{
			ImageURL: "https://cdn/a.png",
			Images:   []appconfig.PageImage{{URL: "https://cdn/b.png"}},
		})
		require.Len(t, p.Images, 1)
		assert.Equal(t, "https://cdn/b.png", p.Images[0].URL)
	})
}

func TestFoldTextBlocks(t *testing.T) {
	t.Parallel()

	t.Run("joins with blank line", func(t *testing.T) {
		p := FoldTextBlocks(appconfig.Page{
			Content: "fallback",
			Blocks:  []appconfig.Block{textBlock("first"), imageBlock("https://cdn/x.png"), textBlock("second")},
		})
		assert.Equal(t, "first\n\nsecond", p.Content)
	})

	t.Run("keeps fallback without text", func(t *testing.T) {
		p := FoldTextBlocks(appconfig.Page{
			Content: "fallback",
			Blocks:  []appconfig.Block{textBlock("   "), imageBlock("https://cdn/x.png")},
		})
		assert.Equal(t, "fallback", p.Content)
	})
}

func TestFoldImageBlocks(t *testing.T) {
	t.Parallel()

	p := FoldImageBlocks(appconfig.Page{
		Images: []appconfig.PageImage{{URL: "https://cdn/a.png", Alt: "original"}},
		Blocks: []appconfig.Block{
			imageBlock("https://cdn/b.png"),
			{Type: appconfig.BlockTypeImage, URL: "https://cdn/a.png", Alt: "duplicate"},
			{Type: appconfig.BlockTypeImage, URL: "https://cdn/c.png", Align: appconfig.PositionFull, Width: f(120)},
			imageBlock(""),
		},
	})

	require.Len(t, p.Images, 3)
	assert.Equal(t, "https://cdn/a.png", p.Images[0].URL)
	assert.Equal(t, "original", p.Images[0].Alt, "first occurrence wins")
	assert.Equal(t, "https://cdn/b.png", p.Images[1].URL)
	assert.Equal(t, appconfig.PositionFull, p.Images[2].Position)
	assert.Equal(t, 120.0, *p.Images[2].Width)
}

func TestLegacyImageAndBlockWithSameURL(t *testing.T) {
	t.Parallel()

	p := Normalize(appconfig.Page{
		Title:    "Home",
		ImageURL: "https://cdn/hero.png",
		Blocks:   []appconfig.Block{imageBlock("https://cdn/hero.png")},
	})
	require.Len(t, p.Images, 1)
	assert.Equal(t, "https://cdn/hero.png", p.Images[0].URL)
}

func TestApplyImageDefaults(t *testing.T) {
	t.Parallel()

	p := ApplyImageDefaults(appconfig.Page{Images: []appconfig.PageImage{
		{URL: "a"},
		{URL: "b", Width: f(0), Margin: f(2), Position: appconfig.PositionLeft},
	}})

	assert.Equal(t, DefaultImageWidth, *p.Images[0].Width)
	assert.Equal(t, DefaultImageMargin, *p.Images[0].Margin)
	assert.Equal(t, DefaultImagePosition, p.Images[0].Position)

	assert.Equal(t, 0.0, *p.Images[1].Width, "explicit zero is kept")
	assert.Equal(t, 2.0, *p.Images[1].Margin)
	assert.Equal(t, appconfig.PositionLeft, p.Images[1].Position)
}

func TestCanonicalType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, appconfig.PageTypeWebview, CanonicalType(appconfig.Page{Type: appconfig.PageTypeExternalView}).Type)
	assert.Equal(t, appconfig.PageTypeContent, CanonicalType(appconfig.Page{}).Type)
	assert.Equal(t, appconfig.PageTypeWebview, CanonicalType(appconfig.Page{Type: appconfig.PageTypeWebview}).Type)
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()

	pages := []appconfig.Page{
		{
			Title:    "Home",
			Content:  "fallback",
			ImageURL: "https://cdn/hero.png",
			Blocks: []appconfig.Block{
				textBlock("Hello"),
				imageBlock("https://cdn/hero.png"),
				imageBlock("https://cdn/second.png"),
				{Type: appconfig.BlockTypeTable, Data: json.RawMessage(`[["a","b"]]`)},
				textBlock("World"),
			},
		},
		{Title: "Site", Type: appconfig.PageTypeExternalView, URL: "https://acme.example", HiddenSelectors: []string{".ads"}},
		{Title: "Empty", Images: []appconfig.PageImage{}},
		{
			Title:  "Gallery",
			Images: []appconfig.PageImage{{URL: "x", Width: f(50)}, {URL: "x"}, {URL: "y", Margin: f(0)}},
		},
	}

	for _, p := range pages {
		t.Run(p.Title, func(t *testing.T) {
			once := Normalize(p)
			twice := Normalize(once)
			assert.Equal(t, once, twice)
		})
	}
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	in := appconfig.Page{
		Title:  "Gallery",
		Images: []appconfig.PageImage{{URL: "x"}},
		Blocks: []appconfig.Block{imageBlock("y")},
	}
	_ = Normalize(in)

	require.Len(t, in.Images, 1)
	assert.Nil(t, in.Images[0].Width)
	assert.Equal(t, appconfig.PageType(""), in.Type)
}
