// Package rewrite turns the identity baked into a materialized template into
// the identity of the app being generated.
package rewrite

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/atlanticdynamic/appforge/internal/fsutil"
	"github.com/goccy/go-yaml"
)

// Version pins written into the build descriptor unless overridden.
const (
	DefaultCompileSdkVersion = 35
	DefaultNdkVersion        = "25.1.8937393"
)

// Rewriter applies identity rules to workspaces. It holds no per-job state
// and is safe for concurrent use.
type Rewriter struct {
	defaults          Identity
	compileSdkVersion int
	ndkVersion        string
	credentialsDir    string
	logger            *slog.Logger
}

// Option configures a Rewriter
type Option func(*Rewriter)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(r *Rewriter) {
		r.logger = logger
	}
}

// WithLogHandler sets the log handler
func WithLogHandler(handler slog.Handler) Option {
	return func(r *Rewriter) {
		r.logger = slog.New(handler)
	}
}

// WithVersionPins sets the compileSdkVersion and ndkVersion written to the build descriptor
func WithVersionPins(compileSdkVersion int, ndkVersion string) Option {
	return func(r *Rewriter) {
		if compileSdkVersion > 0 {
			r.compileSdkVersion = compileSdkVersion
		}
		if ndkVersion != "" {
			r.ndkVersion = ndkVersion
		}
	}
}

// WithCredentialsDir sets the directory holding per-identifier
// google-services.json files
func WithCredentialsDir(dir string) Option {
	return func(r *Rewriter) {
		r.credentialsDir = dir
	}
}

// New creates a Rewriter for a template whose current identity is defaults.
func New(defaults Identity, opts ...Option) (*Rewriter, error) {
	if err := defaults.validate(); err != nil {
		return nil, fmt.Errorf("template identity: %w", err)
	}
	r := &Rewriter{
		defaults:          defaults,
		compileSdkVersion: DefaultCompileSdkVersion,
		ndkVersion:        DefaultNdkVersion,
		logger:            slog.Default().WithGroup("rewrite.Rewriter"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Rewrite rewrites every identity-bearing file in workspace to id, moves
// the entry point to the directory derived from id.Identifier, copies the
// app's credential file when one is configured, and checks the result.
func (r *Rewriter) Rewrite(ctx context.Context, workspace string, id Identity) error {
	if err := id.validate(); err != nil {
		return &RewriteError{Path: ".", Err: err}
	}

	if err := r.applyRules(ctx, workspace, r.Rules(id)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.relocateEntryPoint(workspace, id.Identifier); err != nil {
		return err
	}
	if err := r.copyCredentials(workspace, id.Identifier); err != nil {
		return err
	}
	return r.verifyPubspec(workspace, id)
}

func (r *Rewriter) applyRules(ctx context.Context, workspace string, rules []Rule) error {
	var order []string
	byPath := map[string][]Rule{}
	for _, rule := range rules {
		if _, seen := byPath[rule.Path]; !seen {
			order = append(order, rule.Path)
		}
		byPath[rule.Path] = append(byPath[rule.Path], rule)
	}

	for _, rel := range order {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.rewriteFile(workspace, rel, byPath[rel]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Rewriter) rewriteFile(workspace, rel string, rules []Rule) error {
	mandatory := mandatoryFiles[rel]
	path := filepath.Join(workspace, filepath.FromSlash(rel))

	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if mandatory {
			return &RewriteError{Path: rel, Err: ErrMandatoryFileMissing}
		}
		r.logger.Info("Optional identity file not present, skipping", "path", rel)
		return nil
	}
	if err != nil {
		return &RewriteError{Path: rel, Err: err}
	}

	for _, rule := range rules {
		updated, ok := rule.Apply(content)
		if !ok {
			if rule.Optional {
				r.logger.Debug("Optional rule matched nothing", "path", rel, "rule", rule.Name)
				continue
			}
			if mandatory {
				return &RewriteError{Path: rel, Rule: rule.Name, Err: ErrAnchorNotFound}
			}
			r.logger.Warn("Rule matched nothing in optional file, skipping", "path", rel, "rule", rule.Name)
			continue
		}
		content = updated
	}

	if err := os.WriteFile(path, content, 0o644); err != nil {
		return &RewriteError{Path: rel, Err: err}
	}
	r.logger.Debug("Identity file rewritten", "path", rel, "rules", len(rules))
	return nil
}

// relocateEntryPoint rewrites the entry point's package line and moves it
// under the directory named by identifier, pruning directories the move
// leaves empty. An entry point missing from the template is synthesized.
func (r *Rewriter) relocateEntryPoint(workspace, identifier string) error {
	kotlinRoot := filepath.Join(workspace, filepath.FromSlash(KotlinRoot))
	oldDir := entryPointDir(kotlinRoot, r.defaults.Identifier)
	newDir := entryPointDir(kotlinRoot, identifier)
	oldPath := filepath.Join(oldDir, EntryPointName)
	newPath := filepath.Join(newDir, EntryPointName)
	rel := EntryPointPath(identifier)

	existed := true
	content, err := os.ReadFile(oldPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		existed = false
		content = []byte(entryPointFragment(r.defaults.Identifier))
		r.logger.Info("Entry point missing from template, synthesizing", "path", EntryPointPath(r.defaults.Identifier))
	case err != nil:
		return &RewriteError{Path: EntryPointPath(r.defaults.Identifier), Err: err}
	}

	loc := packageLine.FindIndex(content)
	if loc == nil {
		return &RewriteError{Path: EntryPointPath(r.defaults.Identifier), Rule: "package", Err: ErrAnchorNotFound}
	}
	updated := make([]byte, 0, len(content)+len(identifier))
	updated = append(updated, content[:loc[0]]...)
	updated = append(updated, "package "+identifier...)
	updated = append(updated, content[loc[1]:]...)

	if err := os.MkdirAll(newDir, 0o755); err != nil {
		return &RewriteError{Path: rel, Err: err}
	}
	if err := os.WriteFile(newPath, updated, 0o644); err != nil {
		return &RewriteError{Path: rel, Err: err}
	}
	if oldPath == newPath {
		r.logger.Debug("Entry point updated in place", "path", rel)
		return nil
	}

	if existed {
		if err := os.Remove(oldPath); err != nil {
			return &RewriteError{Path: EntryPointPath(r.defaults.Identifier), Err: err}
		}
	}
	if err := fsutil.PruneEmptyDirs(oldDir, kotlinRoot); err != nil {
		return &RewriteError{Path: EntryPointPath(r.defaults.Identifier), Err: err}
	}
	r.logger.Debug("Entry point relocated", "from", EntryPointPath(r.defaults.Identifier), "to", rel)
	return nil
}

func (r *Rewriter) copyCredentials(workspace, identifier string) error {
	if r.credentialsDir == "" {
		return nil
	}
	src := filepath.Join(r.credentialsDir, identifier, "google-services.json")
	if !fsutil.Exists(src) {
		r.logger.Debug("No credential file for identifier", "identifier", identifier)
		return nil
	}
	dst := filepath.Join(workspace, filepath.FromSlash(GoogleServicesPath))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return &RewriteError{Path: GoogleServicesPath, Err: err}
	}
	if err := fsutil.CopyFile(src, dst); err != nil {
		return &RewriteError{Path: GoogleServicesPath, Err: err}
	}
	r.logger.Info("Credential file installed", "identifier", identifier)
	return nil
}

type pubspecIdentity struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// verifyPubspec re-parses the package manifest to catch rewrites that left
// it malformed or pointing at the wrong identity.
func (r *Rewriter) verifyPubspec(workspace string, id Identity) error {
	data, err := os.ReadFile(filepath.Join(workspace, PubspecPath))
	if err != nil {
		return &RewriteError{Path: PubspecPath, Err: err}
	}
	var got pubspecIdentity
	if err := yaml.Unmarshal(data, &got); err != nil {
		return &RewriteError{Path: PubspecPath, Err: fmt.Errorf("%w: %w", ErrManifestMismatch, err)}
	}
	if got.Name != id.PackageName || got.Version != id.Version {
		return &RewriteError{
			Path: PubspecPath,
			Err: fmt.Errorf("%w: got name=%q version=%q, want name=%q version=%q",
				ErrManifestMismatch, got.Name, got.Version, id.PackageName, id.Version),
		}
	}
	return nil
}
