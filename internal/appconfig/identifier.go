package appconfig

import (
	"regexp"
	"strings"
)

// DefaultNamespace prefixes identifiers derived from the app name.
const DefaultNamespace = "com.example."

var identifierPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*(\.[a-z][a-z0-9_]*)*$`)

// reservedSegments cannot name a package in the generated Android sources:
// Kotlin hard keywords and Java reserved words.
var reservedSegments = map[string]bool{
	"as": true, "break": true, "class": true, "continue": true, "do": true,
	"else": true, "false": true, "for": true, "fun": true, "if": true,
	"in": true, "interface": true, "is": true, "null": true, "object": true,
	"package": true, "return": true, "super": true, "this": true, "throw": true,
	"true": true, "try": true, "typealias": true, "typeof": true, "val": true,
	"var": true, "when": true, "while": true,

	"abstract": true, "assert": true, "boolean": true, "byte": true, "case": true,
	"catch": true, "char": true, "const": true, "default": true, "double": true,
	"enum": true, "extends": true, "final": true, "finally": true, "float": true,
	"goto": true, "implements": true, "import": true, "instanceof": true, "int": true,
	"long": true, "native": true, "new": true, "private": true, "protected": true,
	"public": true, "short": true, "static": true, "strictfp": true, "switch": true,
	"synchronized": true, "throws": true, "transient": true, "void": true, "volatile": true,
}

// IsValidIdentifier reports whether id is a reverse-domain identifier whose
// segments are all usable as package names.
func IsValidIdentifier(id string) bool {
	if !identifierPattern.MatchString(id) {
		return false
	}
	for _, segment := range Segments(id) {
		if reservedSegments[segment] {
			return false
		}
	}
	return true
}

// DefaultIdentifier derives an identifier from the display name: the name
// lowercased with everything outside [a-z0-9] removed, under DefaultNamespace.
// A result that is empty, starts with a digit, or is a reserved word is
// prefixed with "app".
func DefaultIdentifier(appName string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(appName) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	segment := b.String()
	if segment == "" || (segment[0] >= '0' && segment[0] <= '9') || reservedSegments[segment] {
		segment = "app" + segment
	}
	return DefaultNamespace + segment
}

// Segments splits an identifier into its dot-separated parts.
func Segments(id string) []string {
	return strings.Split(id, ".")
}
