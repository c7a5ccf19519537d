package session

import (
	"log/slog"
	"strings"

	"conduit/cmd/internal/apperr"

	"github.com/google/uuid"
)

// Scheme is the Authorization scheme word. It is matched case-insensitively.
const Scheme = "Token"

// HeaderLookup is the part of a request the extractor reads. http.Header satisfies it.
type HeaderLookup interface {
	Values(key string) []string
}

// Verifier checks a session token and returns the identity it carries.
// *token.Codec satisfies it.
type Verifier interface {
	Verify(token string) (uuid.UUID, error)
}

// Extractor turns request headers into caller identities.
type Extractor struct {
	verifier Verifier
	log      *slog.Logger
}

// NewExtractor returns an Extractor backed by verifier. A nil logger discards.
func NewExtractor(verifier Verifier, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Extractor{verifier: verifier, log: log}
}

// Required returns the caller identity, or apperr.ErrUnauthorized when the header
// is absent or invalid for any reason.
func (x *Extractor) Required(h HeaderLookup) (uuid.UUID, error) {
	id, present, err := x.extract(h)
	if err != nil {
		return uuid.Nil, err
	}
	if !present {
		return uuid.Nil, x.reject(ReasonMissing)
	}
	return id, nil
}

// Optional returns (uuid.Nil, false, nil) when no Authorization header is sent.
// A header that is present but invalid, blank included, is still apperr.ErrUnauthorized.
func (x *Extractor) Optional(h HeaderLookup) (uuid.UUID, bool, error) {
	id, present, err := x.extract(h)
	if err != nil || !present {
		return uuid.Nil, false, err
	}
	return id, true, nil
}

func (x *Extractor) extract(h HeaderLookup) (uuid.UUID, bool, error) {
	values := h.Values("Authorization")
	if len(values) == 0 {
		return uuid.Nil, false, nil
	}
	// From here on the caller sent something: every failure is a rejection.
	if len(values) > 1 {
		return uuid.Nil, true, x.reject(ReasonMalformed)
	}
	raw := strings.TrimSpace(values[0])
	if raw == "" {
		return uuid.Nil, true, x.reject(ReasonMalformed)
	}

	scheme, tok, ok := strings.Cut(raw, " ")
	if !ok || !strings.EqualFold(scheme, Scheme) {
		return uuid.Nil, true, x.reject(ReasonScheme)
	}
	if tok == "" || strings.ContainsAny(tok, " \t") {
		return uuid.Nil, true, x.reject(ReasonMalformed)
	}

	id, err := x.verifier.Verify(tok)
	if err != nil {
		return uuid.Nil, true, x.reject(verifyReason(err))
	}
	return id, true, nil
}

func (x *Extractor) reject(reason string) error {
	x.log.Debug("auth.token.reject", "reason", reason)
	return apperr.Unauthorized("session.extract")
}
