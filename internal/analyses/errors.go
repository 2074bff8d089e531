package analyses

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
)

const (
	ErrorCodeValidation = "validation_error"
	ErrorCodeTooLarge   = "payload_too_large"
	ErrorCodeInternal   = "internal_error"
)
