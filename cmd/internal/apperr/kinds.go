package apperr

import "errors"

// Sentinel error kinds (stable for errors.Is and for mapping to HTTP status codes).
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not_found")
	ErrValidation   = errors.New("validation_failed")
	ErrInternal     = errors.New("internal")
)
