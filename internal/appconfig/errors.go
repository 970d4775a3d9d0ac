package appconfig

import (
	"errors"
	"fmt"
)

// ErrInvalidAppConfig is matched by every ValidationError.
var ErrInvalidAppConfig = errors.New("invalid app config")

// ValidationError describes one user-correctable problem with a payload.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrInvalidAppConfig, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrInvalidAppConfig, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidAppConfig
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
