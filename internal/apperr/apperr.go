// Package apperr defines the error kinds shared by the ordering core.
//
// Every error returned from the core wraps exactly one kind, so callers can
// branch with errors.Is without knowing the specific failure:
//
//	ErrEmptyItems = fmt.Errorf("%w: items are required", apperr.ErrValidation)
//
// None of the kinds are fatal. Validation errors need user correction; the rest
// need the caller to reload the order and decide again.
package apperr

import "errors"

var (
	// ErrValidation marks malformed input rejected before any state change.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTransition marks a status change not reachable from the current status.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrInvalidState marks an operation not allowed in the order's current state.
	ErrInvalidState = errors.New("invalid state")

	// ErrNotFound marks an unknown order, session, line or account.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks an optimistic-concurrency revision mismatch.
	ErrConflict = errors.New("conflict")
)

// Kind returns the kind sentinel wrapped by err, or nil if err carries none.
func Kind(err error) error {
	for _, k := range []error{ErrValidation, ErrInvalidTransition, ErrInvalidState, ErrNotFound, ErrConflict} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
