// Package session resolves the caller identity of a request from its Authorization header.
//
// The header carries a stateless session token under the "Token" scheme:
//
//	Authorization: Token <jws>
//
// Extraction never touches storage. Every failure is reported to the caller as
// the same apperr.ErrUnauthorized; the specific reason is logged at debug level only.
package session
