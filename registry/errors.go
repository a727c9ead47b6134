package registry

import "errors"

var (
	// ErrNotFound is returned when the hearing id is not in the active set
	ErrNotFound = errors.New("hearing not found")
	// ErrInvalidReason is returned when NOT_READY is declared without a qualifying reason
	ErrInvalidReason = errors.New("invalid readiness reason")
	// ErrInvalidTransition is returned when the requested status change is not allowed
	ErrInvalidTransition = errors.New("invalid status transition")
)
