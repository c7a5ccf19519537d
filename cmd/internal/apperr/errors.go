// Package apperr defines the error vocabulary shared by the identity core and the HTTP layer.
//
// Every error that crosses a layer boundary is either one of the sentinel kinds,
// an *Error carrying a kind, or a *ValidationError. Translation from lower layers
// is explicit; nothing converts implicitly.
package apperr

import "errors"

// Error is a typed operation error with a stable Op + Kind contract for callers/tests.
// Msg may include human-readable context; it must never include secrets or passwords.
type Error struct {
	Op   string
	Kind error
	Msg  string
	Err  error

	// Transient marks failures that may succeed if the caller retries later
	// (worker pool saturation, hashing timeout).
	Transient bool
}

func (e *Error) Error() string {
	s := e.Op
	if s == "" {
		s = "error"
	}
	if e.Kind != nil {
		s += ": " + e.Kind.Error()
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// New returns an *Error of the given kind.
func New(op string, kind error, msg string) error {
	return &Error{Op: op, Kind: kind, Msg: msg}
}

// Internal wraps err as an internal failure of op.
func Internal(op string, err error) error {
	return &Error{Op: op, Kind: ErrInternal, Err: err}
}

// Transient wraps err as a retryable internal failure of op.
func Transient(op string, err error) error {
	return &Error{Op: op, Kind: ErrInternal, Err: err, Transient: true}
}

// Unauthorized returns the uniform authentication failure.
// The reason is never part of the message; log it separately.
func Unauthorized(op string) error {
	return &Error{Op: op, Kind: ErrUnauthorized}
}

// Forbidden reports an authenticated caller that lacks rights.
func Forbidden(op, msg string) error {
	return &Error{Op: op, Kind: ErrForbidden, Msg: msg}
}

// NotFound reports a missing resource.
func NotFound(op, resource string) error {
	return &Error{Op: op, Kind: ErrNotFound, Msg: resource}
}

// IsUnauthorized reports whether err represents ErrUnauthorized.
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }

// IsForbidden reports whether err represents ErrForbidden.
func IsForbidden(err error) bool { return errors.Is(err, ErrForbidden) }

// IsNotFound reports whether err represents ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsValidation reports whether err represents ErrValidation.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsInternal reports whether err represents ErrInternal.
func IsInternal(err error) bool { return errors.Is(err, ErrInternal) }

// IsTransient reports whether any *Error in err's chain is marked transient.
func IsTransient(err error) bool {
	var e *Error
	for err != nil {
		if !errors.As(err, &e) {
			return false
		}
		if e.Transient {
			return true
		}
		err = e.Err
	}
	return false
}
