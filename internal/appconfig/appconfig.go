// Package appconfig defines the declarative description of a generated app
// and validates raw JSON payloads into it.
package appconfig

import (
	"encoding/json"
	"strings"
)

// DefaultVersion is used when a payload omits the version.
const DefaultVersion = "1.0.0"

// PageType selects how a page renders in the generated app.
type PageType string

const (
	PageTypeContent PageType = "content"
	PageTypeWebview PageType = "webview"

	// PageTypeExternalView is the legacy spelling of PageTypeWebview.
	PageTypeExternalView PageType = "externalView"
)

// Canonical maps legacy page type spellings onto their current name.
func (t PageType) Canonical() PageType {
	if t == PageTypeExternalView {
		return PageTypeWebview
	}
	return t
}

// IsValid reports whether t names a known page type, including legacy aliases.
func (t PageType) IsValid() bool {
	switch t.Canonical() {
	case PageTypeContent, PageTypeWebview:
		return true
	default:
		return false
	}
}

// BlockType identifies a content block.
type BlockType string

const (
	BlockTypeText   BlockType = "text"
	BlockTypeTable  BlockType = "table"
	BlockTypeImage  BlockType = "image"
	BlockTypeButton BlockType = "button"
	BlockTypeMixed  BlockType = "mixed"
)

// ImagePosition is the horizontal placement of a page image.
type ImagePosition string

const (
	PositionLeft   ImagePosition = "left"
	PositionRight  ImagePosition = "right"
	PositionCenter ImagePosition = "center"
	PositionFull   ImagePosition = "full"
)

// AppConfig is the validated description of one app to generate. It is not
// modified once a job starts.
type AppConfig struct {
	AppName    string         `json:"appName"`
	Identifier string         `json:"identifier"`
	Version    string         `json:"version"`
	Pages      []Page         `json:"pages"`
	Settings   map[string]any `json:"settings"`
}

// Page is one navigation entry of the generated app.
type Page struct {
	Title string   `json:"title"`
	Type  PageType `json:"type"`

	// content pages
	Content     string      `json:"content,omitempty"`
	RichContent string      `json:"richContent,omitempty"`
	ImageURL    string      `json:"imageUrl,omitempty"`
	Images      []PageImage `json:"images,omitempty"`
	Blocks      []Block     `json:"blocks,omitempty"`

	// webview pages
	URL             string   `json:"url,omitempty"`
	HiddenSelectors []string `json:"hiddenSelectors,omitempty"`
}

// PageImage is an image shown on a content page. Width and Margin are
// pointers so an explicit zero survives normalization.
type PageImage struct {
	URL      string        `json:"url"`
	Alt      string        `json:"alt,omitempty"`
	Position ImagePosition `json:"position,omitempty"`
	Width    *float64      `json:"width,omitempty"`
	Margin   *float64      `json:"margin,omitempty"`
}

// Block is one unit of page content. Which fields are meaningful depends on Type.
type Block struct {
	Type    BlockType       `json:"type"`
	Content json.RawMessage `json:"content,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	URL     string          `json:"url,omitempty"`
	Alt     string          `json:"alt,omitempty"`
	Align   ImagePosition   `json:"align,omitempty"`
	Width   *float64        `json:"width,omitempty"`
	Text    string          `json:"text,omitempty"`
	Action  string          `json:"action,omitempty"`
	Style   map[string]any  `json:"style,omitempty"`
}

// TextContent returns the block content when it is a JSON string, and ""
// for any other shape.
func (b Block) TextContent() string {
	if len(b.Content) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(b.Content, &s); err != nil {
		return ""
	}
	return s
}

// PackageName derives the package manifest name for appName: lowercase,
// runs of characters outside [a-z0-9] collapsed to "_", never starting
// with a digit.
func PackageName(appName string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(appName) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	name := b.String()
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "app_" + name
		name = strings.TrimSuffix(name, "_")
	}
	return name
}
