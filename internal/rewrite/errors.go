package rewrite

import (
	"errors"
	"fmt"
)

var (
	// ErrRewrite is matched by every RewriteError.
	ErrRewrite = errors.New("identity rewrite failed")

	// ErrMandatoryFileMissing means a file that always carries identity is absent.
	ErrMandatoryFileMissing = errors.New("mandatory identity file is missing")

	// ErrAnchorNotFound means a rule's anchor matched nothing.
	ErrAnchorNotFound = errors.New("anchor not found")

	// ErrManifestMismatch means the rewritten package manifest does not
	// carry the expected name and version.
	ErrManifestMismatch = errors.New("package manifest does not match identity")

	// ErrInvalidIdentity means the requested identity cannot be written.
	ErrInvalidIdentity = errors.New("invalid identity")
)

// RewriteError describes a failed rewrite of one workspace file.
type RewriteError struct {
	Path string
	Rule string
	Err  error
}

func (e *RewriteError) Error() string {
	if e.Rule == "" {
		return fmt.Sprintf("%s: %s: %v", ErrRewrite, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s (%s): %v", ErrRewrite, e.Path, e.Rule, e.Err)
}

// Unwrap exposes both ErrRewrite and the underlying cause.
func (e *RewriteError) Unwrap() []error {
	return []error{ErrRewrite, e.Err}
}
