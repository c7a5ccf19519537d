package session

import (
	"errors"

	"conduit/cmd/security/token"
)

// Reasons an Authorization header was rejected. They appear in logs, never in responses.
const (
	ReasonMissing   = "missing"
	ReasonScheme    = "scheme"
	ReasonMalformed = "malformed"
	ReasonSignature = "signature"
	ReasonExpired   = "expired"
	ReasonInvalid   = "invalid"
)

func verifyReason(err error) string {
	switch {
	case errors.Is(err, token.ErrInvalidSignature):
		return ReasonSignature
	case errors.Is(err, token.ErrExpired):
		return ReasonExpired
	case errors.Is(err, token.ErrMalformed):
		return ReasonMalformed
	default:
		return ReasonInvalid
	}
}
