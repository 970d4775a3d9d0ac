// Package template owns the read-only template project and copies it into
// job workspaces.
package template

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultManifest lists the relative paths every template must contain.
var DefaultManifest = []string{
	"lib/main.dart",
	"lib/controllers/app_controller.dart",
	"lib/screens/home_screen.dart",
	"pubspec.yaml",
	"android/app/build.gradle",
	"android/app/src/main/AndroidManifest.xml",
}

// Source is the canonical template project on disk. Nothing in this
// repository writes below its root.
type Source struct {
	root     string
	manifest []string
}

// SourceOption configures a Source
type SourceOption func(*Source)

// WithManifest replaces the list of required relative paths
func WithManifest(paths []string) SourceOption {
	return func(s *Source) {
		s.manifest = append([]string(nil), paths...)
	}
}

// NewSource resolves root and verifies it against the manifest.
func NewSource(root string, opts ...SourceOption) (*Source, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve template dir %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, &TemplateCorruptError{Root: abs, Missing: []string{"."}}
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("template dir %s is not a directory", abs)
	}

	s := &Source{root: abs, manifest: DefaultManifest}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Verify(); err != nil {
		return nil, err
	}
	return s, nil
}

// Root returns the absolute template directory.
func (s *Source) Root() string {
	return s.root
}

// Manifest returns the required relative paths.
func (s *Source) Manifest() []string {
	return append([]string(nil), s.manifest...)
}

// Verify reports a *TemplateCorruptError naming every manifest path that is
// missing or is a directory.
func (s *Source) Verify() error {
	var missing []string
	for _, rel := range s.manifest {
		info, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(rel)))
		if err != nil || info.IsDir() {
			missing = append(missing, rel)
		}
	}
	if len(missing) > 0 {
		return &TemplateCorruptError{Root: s.root, Missing: missing}
	}
	return nil
}
