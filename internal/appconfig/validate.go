package appconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var versionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+([-+][0-9A-Za-z.+-]+)?$`)

// wireConfig accepts the legacy packageName spelling alongside identifier.
type wireConfig struct {
	AppName     string         `json:"appName"`
	Identifier  string         `json:"identifier"`
	PackageName string         `json:"packageName"`
	Version     string         `json:"version"`
	Pages       []Page         `json:"pages"`
	Settings    map[string]any `json:"settings"`
}

// Validate checks a raw JSON payload and returns the decoded AppConfig with
// identifier and version defaults applied. It touches nothing outside its
// argument. Every problem found is reported, joined; each one is a
// *ValidationError.
func Validate(raw []byte) (*AppConfig, error) {
	if !gjson.ValidBytes(raw) {
		return nil, invalid("", "payload is not valid JSON")
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return nil, invalid("", "payload must be a JSON object")
	}

	if errs := checkShape(root); len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	var w wireConfig
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, invalid("", "cannot decode payload: %v", err)
	}

	cfg := &AppConfig{
		AppName:    strings.TrimSpace(w.AppName),
		Identifier: w.Identifier,
		Version:    w.Version,
		Pages:      w.Pages,
		Settings:   w.Settings,
	}
	if cfg.Identifier == "" {
		cfg.Identifier = w.PackageName
	}
	if cfg.Identifier == "" {
		cfg.Identifier = DefaultIdentifier(cfg.AppName)
	}
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}

	if errs := cfg.check(); len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// checkShape inspects the raw document before decoding so that type
// mismatches produce field-level messages instead of decoder errors.
func checkShape(root gjson.Result) []error {
	var errs []error

	name := root.Get("appName")
	switch {
	case !name.Exists():
		errs = append(errs, invalid("appName", "is required"))
	case name.Type != gjson.String:
		errs = append(errs, invalid("appName", "must be a string"))
	case strings.TrimSpace(name.Str) == "":
		errs = append(errs, invalid("appName", "must not be empty"))
	}

	pages := root.Get("pages")
	switch {
	case !pages.Exists():
		errs = append(errs, invalid("pages", "is required"))
	case !pages.IsArray():
		errs = append(errs, invalid("pages", "must be an array"))
	case len(pages.Array()) == 0:
		errs = append(errs, invalid("pages", "at least one page is required"))
	}

	settings := root.Get("settings")
	switch {
	case !settings.Exists() || settings.Type == gjson.Null:
		errs = append(errs, invalid("settings", "is required"))
	case !settings.IsObject():
		errs = append(errs, invalid("settings", "must be an object"))
	}

	for _, field := range []string{"identifier", "packageName", "version"} {
		v := root.Get(field)
		if v.Exists() && v.Type != gjson.String && v.Type != gjson.Null {
			errs = append(errs, invalid(field, "must be a string"))
		}
	}
	return errs
}

func (c *AppConfig) check() []error {
	var errs []error

	// The raw shape checks match keys exactly while decoding folds case, so
	// the decoded values are checked again.
	if c.AppName == "" {
		errs = append(errs, invalid("appName", "must not be empty"))
	}
	if len(c.Pages) == 0 {
		errs = append(errs, invalid("pages", "at least one page is required"))
	}
	if c.Settings == nil {
		errs = append(errs, invalid("settings", "must be an object"))
	}

	if !IsValidIdentifier(c.Identifier) {
		errs = append(errs, invalid("identifier",
			"%q is not a reverse-domain identifier (lowercase segments separated by dots, none a reserved word)", c.Identifier))
	}
	if !versionPattern.MatchString(c.Version) {
		errs = append(errs, invalid("version", "%q is not a semantic version", c.Version))
	}

	for i, p := range c.Pages {
		field := fmt.Sprintf("pages[%d]", i)
		if p.Type == "" {
			continue
		}
		if !p.Type.IsValid() {
			errs = append(errs, invalid(field+".type", "unknown page type %q", p.Type))
			continue
		}
		if p.Type.Canonical() == PageTypeWebview && strings.TrimSpace(p.URL) == "" {
			errs = append(errs, invalid(field+".url", "webview pages need a url"))
		}
	}
	return errs
}
