package services

import "errors"

// Error taxonomy shared by all services. Handlers translate these to HTTP
// status codes; anything else is reported as an opaque internal error.
var (
	ErrValidation        = errors.New("validation failed")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidSession    = errors.New("invalid session token")
)
