// Package ids provides the identifier primitives used across conduit.
package ids

import (
	"crypto/rand"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// NewUserID returns a random (version 4) user id.
func NewUserID() uuid.UUID {
	return uuid.New()
}

// NewRequestID returns a ULID string (26 chars) for request correlation.
// ULIDs sort by creation time, which keeps log searches by id range useful.
func NewRequestID(now time.Time) string {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return ulid.Make().String()
	}
	return id.String()
}
