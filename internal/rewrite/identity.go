package rewrite

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/atlanticdynamic/appforge/internal/appconfig"
)

// Identity is the set of values that name an app across its project files.
type Identity struct {
	DisplayName string
	PackageName string
	Identifier  string
	Version     string
}

// IdentityFor derives the identity to write for a validated app.
func IdentityFor(app *appconfig.AppConfig) Identity {
	return Identity{
		DisplayName: app.AppName,
		PackageName: appconfig.PackageName(app.AppName),
		Identifier:  app.Identifier,
		Version:     app.Version,
	}
}

func (id Identity) validate() error {
	switch {
	case strings.TrimSpace(id.DisplayName) == "":
		return fmt.Errorf("%w: empty display name", ErrInvalidIdentity)
	case id.PackageName == "":
		return fmt.Errorf("%w: empty package name", ErrInvalidIdentity)
	case !appconfig.IsValidIdentifier(id.Identifier):
		return fmt.Errorf("%w: identifier %q", ErrInvalidIdentity, id.Identifier)
	case strings.TrimSpace(id.Version) == "":
		return fmt.Errorf("%w: empty version", ErrInvalidIdentity)
	}
	return nil
}

// entryPointDir returns the entry-point directory for identifier under kotlinRoot.
func entryPointDir(kotlinRoot, identifier string) string {
	return filepath.Join(append([]string{kotlinRoot}, appconfig.Segments(identifier)...)...)
}

// EntryPointPath returns the slash-separated workspace path of the entry
// point for identifier.
func EntryPointPath(identifier string) string {
	return KotlinRoot + "/" + strings.Join(appconfig.Segments(identifier), "/") + "/" + EntryPointName
}

func entryPointFragment(identifier string) string {
	return "package " + identifier + `

import io.flutter.embedding.android.FlutterActivity

class MainActivity: FlutterActivity()
`
}
