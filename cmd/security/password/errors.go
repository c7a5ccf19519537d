package password

import "errors"

// Policy errors. Callers report these against the password field.
var (
	ErrPasswordEmpty    = errors.New("password empty")
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
	ErrWeakPassword     = errors.New("weak password")
)

// Verification and runtime errors.
var (
	// ErrBadCredentials is a mismatch. The Hasher reports it with kind Unauthorized.
	ErrBadCredentials = errors.New("bad credentials")
	// ErrInvalidHash is a stored record that cannot be parsed or is out of bounds.
	ErrInvalidHash = errors.New("invalid password hash")

	ErrPoolSaturated = errors.New("password worker pool saturated")
	ErrHashTimeout   = errors.New("password hashing timed out")
)

// PolicyMessage returns the caller-facing message for a policy error, or "" if err is not one.
func PolicyMessage(err error) string {
	switch {
	case errors.Is(err, ErrPasswordEmpty):
		return "can't be blank"
	case errors.Is(err, ErrPasswordTooShort):
		return "is too short"
	case errors.Is(err, ErrPasswordTooLong):
		return "is too long"
	case errors.Is(err, ErrWeakPassword):
		return "is too weak"
	default:
		return ""
	}
}
