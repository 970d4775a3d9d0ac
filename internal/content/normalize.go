package content

import (
	"strings"

	"github.com/atlanticdynamic/appforge/internal/appconfig"
)

// Layout applied to images that do not specify their own.
const (
	DefaultImageWidth    = 300.0
	DefaultImageMargin   = 8.0
	DefaultImagePosition = appconfig.PositionCenter
)

// NormalizePages returns normalized copies of pages. The input is not modified.
func NormalizePages(pages []appconfig.Page) []appconfig.Page {
	out := make([]appconfig.Page, len(pages))
	for i, p := range pages {
		out[i] = Normalize(p)
	}
	return out
}

// Normalize applies every page rule in order. Normalize(Normalize(p)) equals
// Normalize(p).
func Normalize(p appconfig.Page) appconfig.Page {
	p = clonePage(p)
	p = CanonicalType(p)
	p = FoldLegacyImage(p)
	p = FoldTextBlocks(p)
	p = FoldImageBlocks(p)
	p = ApplyImageDefaults(p)
	return p
}

// CanonicalType maps legacy page types to their current name. A page with
// no type is a content page.
func CanonicalType(p appconfig.Page) appconfig.Page {
	if p.Type == "" {
		p.Type = appconfig.PageTypeContent
	}
	p.Type = p.Type.Canonical()
	return p
}

// FoldLegacyImage moves the single legacy imageUrl into the image list when
// the list is empty.
func FoldLegacyImage(p appconfig.Page) appconfig.Page {
	if len(p.Images) == 0 && strings.TrimSpace(p.ImageURL) != "" {
		p.Images = []appconfig.PageImage{{URL: p.ImageURL}}
	}
	return p
}

// FoldTextBlocks replaces the plain-text fallback with the text blocks
// joined by a blank line, when at least one text block has content.
func FoldTextBlocks(p appconfig.Page) appconfig.Page {
	var texts []string
	for _, b := range p.Blocks {
		if b.Type != appconfig.BlockTypeText {
			continue
		}
		if s := b.TextContent(); strings.TrimSpace(s) != "" {
			texts = append(texts, s)
		}
	}
	if len(texts) > 0 {
		p.Content = strings.Join(texts, "\n\n")
	}
	return p
}

// FoldImageBlocks appends image blocks to the image list in block order and
// then drops repeated URLs, keeping the first occurrence.
func FoldImageBlocks(p appconfig.Page) appconfig.Page {
	images := append([]appconfig.PageImage(nil), p.Images...)
	for _, b := range p.Blocks {
		if b.Type != appconfig.BlockTypeImage || strings.TrimSpace(b.URL) == "" {
			continue
		}
		images = append(images, appconfig.PageImage{
			URL:      b.URL,
			Alt:      b.Alt,
			Position: b.Align,
			Width:    cloneFloat(b.Width),
		})
	}

	seen := make(map[string]struct{}, len(images))
	deduped := images[:0]
	for _, img := range images {
		if _, dup := seen[img.URL]; dup {
			continue
		}
		seen[img.URL] = struct{}{}
		deduped = append(deduped, img)
	}
	if len(deduped) == 0 {
		p.Images = nil
	} else {
		p.Images = deduped
	}
	return p
}

// ApplyImageDefaults fills in width, margin and position where absent.
func ApplyImageDefaults(p appconfig.Page) appconfig.Page {
	for i := range p.Images {
		img := &p.Images[i]
		if img.Width == nil {
			img.Width = ptr(DefaultImageWidth)
		}
		if img.Margin == nil {
			img.Margin = ptr(DefaultImageMargin)
		}
		if img.Position == "" {
			img.Position = DefaultImagePosition
		}
	}
	return p
}

func clonePage(p appconfig.Page) appconfig.Page {
	if p.Images != nil {
		images := make([]appconfig.PageImage, len(p.Images))
		for i, img := range p.Images {
			img.Width = cloneFloat(img.Width)
			img.Margin = cloneFloat(img.Margin)
			images[i] = img
		}
		p.Images = images
	}
	if p.Blocks != nil {
		p.Blocks = append([]appconfig.Block(nil), p.Blocks...)
	}
	if p.HiddenSelectors != nil {
		p.HiddenSelectors = append([]string(nil), p.HiddenSelectors...)
	}
	return p
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	return ptr(*f)
}

func ptr(v float64) *float64 {
	return &v
}
