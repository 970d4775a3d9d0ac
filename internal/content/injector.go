// Package content turns an app's pages and settings into build-time data
// inside a workspace.
package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/atlanticdynamic/appforge/internal/appconfig"
)

// Workspace-relative locations written by the injector.
const (
	ConfigAssetPath = "assets/config.json"
	ControllerPath  = "lib/controllers/app_controller.dart"
)

// Controller placeholders replaced with generated constants.
const (
	pagesPlaceholder    = "List<Map<String, dynamic>> _pages = [];"
	settingsPlaceholder = "Map<String, dynamic> _appSettings = {};"
)

// Document is the shape of the injected config asset.
type Document struct {
	AppName    string           `json:"appName"`
	Identifier string           `json:"identifier"`
	Version    string           `json:"version"`
	Pages      []appconfig.Page `json:"pages"`
	Settings   map[string]any   `json:"settings"`
}

// NewDocument builds the asset document for app with normalized pages.
func NewDocument(app *appconfig.AppConfig) Document {
	settings := app.Settings
	if settings == nil {
		settings = map[string]any{}
	}
	return Document{
		AppName:    app.AppName,
		Identifier: app.Identifier,
		Version:    app.Version,
		Pages:      NormalizePages(app.Pages),
		Settings:   settings,
	}
}

// Injector writes app content into workspaces.
type Injector struct {
	logger *slog.Logger
}

// Option configures an Injector
type Option func(*Injector)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(i *Injector) {
		i.logger = logger
	}
}

// WithLogHandler sets the log handler
func WithLogHandler(handler slog.Handler) Option {
	return func(i *Injector) {
		i.logger = slog.New(handler)
	}
}

// NewInjector creates an Injector
func NewInjector(opts ...Option) *Injector {
	i := &Injector{
		logger: slog.Default().WithGroup("content.Injector"),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Inject writes the config asset and, when the app controller carries the
// placeholders, the generated page and settings constants.
func (i *Injector) Inject(ctx context.Context, workspace string, app *appconfig.AppConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc := NewDocument(app)

	data, err := encode(doc, "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config asset: %w", err)
	}
	assetPath := filepath.Join(workspace, filepath.FromSlash(ConfigAssetPath))
	if err := os.MkdirAll(filepath.Dir(assetPath), 0o755); err != nil {
		return fmt.Errorf("failed to create asset directory: %w", err)
	}
	if err := os.WriteFile(assetPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", ConfigAssetPath, err)
	}
	i.logger.Debug("Config asset written", "path", ConfigAssetPath, "pages", len(doc.Pages))

	return i.injectController(workspace, doc)
}

func (i *Injector) injectController(workspace string, doc Document) error {
	path := filepath.Join(workspace, filepath.FromSlash(ControllerPath))
	src, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		i.logger.Info("App controller not present, skipping constants", "path", ControllerPath)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", ControllerPath, err)
	}

	pages, err := dartLiteral(doc.Pages)
	if err != nil {
		return fmt.Errorf("failed to encode pages: %w", err)
	}
	settings, err := dartLiteral(doc.Settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	out := string(src)
	replaced := 0
	for _, sub := range [][2]string{
		{pagesPlaceholder, "List<Map<String, dynamic>> _pages = " + pages + ";"},
		{settingsPlaceholder, "Map<String, dynamic> _appSettings = " + settings + ";"},
	} {
		if strings.Contains(out, sub[0]) {
			out = strings.Replace(out, sub[0], sub[1], 1)
			replaced++
		}
	}
	if replaced == 0 {
		i.logger.Debug("App controller has no placeholders", "path", ControllerPath)
		return nil
	}

	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", ControllerPath, err)
	}
	i.logger.Debug("App controller constants injected", "path", ControllerPath, "placeholders", replaced)
	return nil
}

func encode(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// dartLiteral renders v as JSON that is also a valid Dart collection
// literal. "$" only occurs inside JSON strings, where Dart would otherwise
// interpolate it.
func dartLiteral(v any) (string, error) {
	data, err := encode(v, "  ")
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(strings.TrimRight(string(data), "\n"), "$", `\$`), nil
}
