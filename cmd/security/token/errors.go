package token

import "errors"

// Public, stable errors for callers.
var (
	ErrInvalidSignature = errors.New("token signature invalid")
	ErrMalformed        = errors.New("token malformed")
	ErrExpired          = errors.New("token expired")

	// ErrInvalidIdentity is returned by Issue for the nil user id.
	ErrInvalidIdentity = errors.New("token identity invalid")

	ErrSecretMissing  = errors.New("token secret missing")
	ErrSecretTooShort = errors.New("token secret too short")
)
