package generations

import "errors"

var (
	// ErrNotFound covers unknown, expired and purged generations.
	ErrNotFound = errors.New("generation not found")
	// ErrInvalidInput wraps request validation failures.
	ErrInvalidInput = errors.New("invalid generation request")
	// ErrForbidden means the caller does not own the analysis or generation.
	ErrForbidden = errors.New("generation owned by another user")
)
