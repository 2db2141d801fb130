// Package apperr defines the error taxonomy shared by the grading services.
// Handlers match on the sentinel kinds with errors.Is; anything that doesn't
// wrap one of them surfaces as a generic internal error.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrAlreadyReleased      = errors.New("already released")
	ErrPendingCorrections   = errors.New("pending corrections")
	ErrNotAMember           = errors.New("not a team member")
	ErrInvalidWeight        = errors.New("invalid weight")
	ErrInvalidPenaltyFactor = errors.New("invalid penalty factor")
	ErrInvalidAnswer        = errors.New("invalid answer")
)

// NotFound wraps ErrNotFound with the entity name and id.
func NotFound(entity, id string) error {
	return fmt.Errorf("%s %q: %w", entity, id, ErrNotFound)
}

// Invalid wraps a validation sentinel with a human-readable reason.
func Invalid(kind error, format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, kind)...)
}
