package template

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTemplateCorrupt is matched by every TemplateCorruptError.
var ErrTemplateCorrupt = errors.New("template source is corrupt")

// TemplateCorruptError lists the manifest files missing from a template
// source. It is fatal at startup and fails any job that observes it.
type TemplateCorruptError struct {
	Root    string
	Missing []string
}

func (e *TemplateCorruptError) Error() string {
	return fmt.Sprintf("%s: %s is missing %s", ErrTemplateCorrupt, e.Root, strings.Join(e.Missing, ", "))
}

func (e *TemplateCorruptError) Unwrap() error {
	return ErrTemplateCorrupt
}
