package rewrite

import (
	"bytes"
	"regexp"
	"strings"
)

// Rule is one anchored substitution in one workspace file.
type Rule struct {
	// Path is slash-separated and relative to the workspace.
	Path string

	// Name labels the rule in logs and errors.
	Name string

	// Anchor must match the field together with its current value. Only the
	// first match is replaced.
	Anchor *regexp.Regexp

	// Replacement is expanded with regexp submatch syntax (${1}).
	Replacement string

	// InsertAfter, when set, is used if Anchor matches nothing: Insert is
	// added as a new line after the first line matching InsertAfter.
	InsertAfter *regexp.Regexp
	Insert      string

	// Optional rules may match nothing without failing the rewrite.
	Optional bool
}

// Apply rewrites content and reports whether the rule took effect.
func (r Rule) Apply(content []byte) ([]byte, bool) {
	if loc := r.Anchor.FindSubmatchIndex(content); loc != nil {
		var out []byte
		out = append(out, content[:loc[0]]...)
		out = r.Anchor.Expand(out, []byte(r.Replacement), content, loc)
		out = append(out, content[loc[1]:]...)
		return out, true
	}

	if r.InsertAfter == nil {
		return content, false
	}
	loc := r.InsertAfter.FindIndex(content)
	if loc == nil {
		return content, false
	}
	lineEnd := loc[1]
	if nl := bytes.IndexByte(content[lineEnd:], '\n'); nl >= 0 {
		lineEnd += nl + 1
	} else {
		lineEnd = len(content)
	}

	var out []byte
	out = append(out, content[:lineEnd]...)
	if lineEnd > 0 && content[lineEnd-1] != '\n' {
		out = append(out, '\n')
	}
	out = append(out, r.Insert...)
	out = append(out, '\n')
	out = append(out, content[lineEnd:]...)
	return out, true
}

// literal escapes s for use inside a Replacement template.
func literal(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func xmlEscape(s string) string {
	return xmlEscaper.Replace(s)
}

var dartEscaper = strings.NewReplacer(
	`\`, `\\`,
	"'", `\'`,
	"$", `\$`,
	"\n", `\n`,
)

func dartEscape(s string) string {
	return dartEscaper.Replace(s)
}
