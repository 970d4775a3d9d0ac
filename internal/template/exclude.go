package template

import (
	"path"
	"strings"
)

// excludedSegments never reach a workspace, wherever they appear in a path.
var excludedSegments = map[string]struct{}{
	".gradle":    {},
	".dart_tool": {},
	".pub-cache": {},
	".idea":      {},
	"build":      {},
}

// excludedNames are dropped by exact file name.
var excludedNames = map[string]struct{}{
	".flutter-plugins":              {},
	".flutter-plugins-dependencies": {},
	"local.properties":              {},
}

// Excluded reports whether the slash-separated relative path is a
// transient or machine-local artifact that must not be copied.
func Excluded(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if _, ok := excludedSegments[seg]; ok {
			return true
		}
	}
	name := path.Base(rel)
	if _, ok := excludedNames[name]; ok {
		return true
	}
	return strings.HasSuffix(name, ".lock")
}
