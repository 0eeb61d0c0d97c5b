package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrReferenceNotFound indicates a document referenced a parent that
	// does not exist.
	ErrReferenceNotFound = errors.New("referenced document not found")
	// ErrConcurrentModification indicates a simultaneous transition on the
	// same record; the caller should retry.
	ErrConcurrentModification = errors.New("record modified concurrently")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// InvalidTransitionError reports a status transition attempted from a state
// outside the allowed source set. It always carries both states so the
// caller can present actionable feedback.
type InvalidTransitionError struct {
	Entity  string
	Current string
	Target  string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: invalid transition %s -> %s", e.Entity, e.Current, e.Target)
}

// NewInvalidTransition builds an InvalidTransitionError.
func NewInvalidTransition(entity, current, target string) error {
	return &InvalidTransitionError{Entity: entity, Current: current, Target: target}
}

// IsInvalidTransition reports whether err is an InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var ite *InvalidTransitionError
	return errors.As(err, &ite)
}

// CascadeError reports a failed multi-entity deletion. The whole unit of
// work is rolled back when it occurs; partial cascades never persist.
type CascadeError struct {
	Parent string
	Child  string
	Err    error
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("cascade delete %s -> %s: %v", e.Parent, e.Child, e.Err)
}

func (e *CascadeError) Unwrap() error { return e.Err }
