package device

import "errors"

var (
	// ErrNotFound indicates a unit was not found
	ErrNotFound = errors.New("device not found")

	// ErrTimeout indicates an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrNotConnected indicates the backend is not connected
	ErrNotConnected = errors.New("backend not connected")

	// ErrUnsupported indicates an operation is not supported by the unit
	ErrUnsupported = errors.New("operation not supported")

	// ErrValidation indicates a payload or level failed validation
	ErrValidation = errors.New("validation error")
)
