package model

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks a caller contract violation: missing or malformed
// container or item data. It is never a recoverable runtime condition.
var ErrInvalidInput = errors.New("invalid input")

// GeometryError reports a violated packing constraint, such as incompatible
// boxes or a stack taller than the door. Callers surface Reason to the user.
type GeometryError struct {
	Reason string
}

func (e *GeometryError) Error() string {
	return "geometry constraint violated: " + e.Reason
}

// NewGeometryError formats a GeometryError.
func NewGeometryError(format string, args ...any) error {
	return &GeometryError{Reason: fmt.Sprintf(format, args...)}
}

// IsGeometryError reports whether err wraps a *GeometryError.
func IsGeometryError(err error) bool {
	var ge *GeometryError
	return errors.As(err, &ge)
}
