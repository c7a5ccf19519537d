package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultLifetime is how long an issued token stays valid.
const DefaultLifetime = 14 * 24 * time.Hour

var signingMethod = jwt.SigningMethodHS384

// Claims is the signed payload: {"user_id": "<uuid>", "exp": <unix seconds>}.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	jwt.RegisteredClaims
}

// Codec signs and verifies session tokens with a single shared secret.
// It is immutable after construction and safe for concurrent use.
type Codec struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
	parser   *jwt.Parser
}

// Option configures a Codec.
type Option func(*Codec)

// WithLifetime overrides DefaultLifetime. Non-positive values are ignored.
func WithLifetime(d time.Duration) Option {
	return func(c *Codec) {
		if d > 0 {
			c.lifetime = d
		}
	}
}

// WithClock overrides the clock used for issuing and for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCodec constructs a Codec. Any non-empty secret length is accepted;
// minimum-length policy is enforced by the caller at startup (see SecretFromEnv).
func NewCodec(secret []byte, opts ...Option) (*Codec, error) {
	if len(secret) == 0 {
		return nil, ErrSecretMissing
	}
	c := &Codec{
		secret:   append([]byte(nil), secret...),
		lifetime: DefaultLifetime,
		now:      time.Now,
		parser:   jwt.NewParser(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Issue returns a signed token for id that expires after the codec lifetime.
// The nil id is refused with ErrInvalidIdentity.
func (c *Codec) Issue(id uuid.UUID) (string, error) {
	if id == uuid.Nil {
		return "", ErrInvalidIdentity
	}
	claims := Claims{
		UserID: id,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(c.now().Add(c.lifetime)),
		},
	}
	return jwt.NewWithClaims(signingMethod, claims).SignedString(c.secret)
}

// Verify checks the token MAC, then its claims, then its expiry, and returns the caller identity.
//
// Errors:
//   - ErrInvalidSignature: the MAC does not match (any tampering lands here)
//   - ErrMalformed: MAC matched but the content is not a usable token
//   - ErrExpired: exp is not strictly after now
func (c *Codec) Verify(tok string) (uuid.UUID, error) {
	if tok == "" {
		return uuid.Nil, ErrMalformed
	}

	dot := strings.LastIndexByte(tok, '.')
	if dot < 0 {
		return uuid.Nil, ErrInvalidSignature
	}
	signingInput, rawSig := tok[:dot], tok[dot+1:]

	sig, err := c.parser.DecodeSegment(rawSig)
	if err != nil {
		return uuid.Nil, ErrInvalidSignature
	}
	// HMAC comparison is constant-time (hmac.Equal).
	if err := signingMethod.Verify(signingInput, sig, c.secret); err != nil {
		return uuid.Nil, ErrInvalidSignature
	}

	var claims Claims
	parsed, _, err := c.parser.ParseUnverified(tok, &claims)
	if err != nil {
		return uuid.Nil, errors.Join(ErrMalformed, err)
	}
	if parsed.Method == nil || parsed.Method.Alg() != signingMethod.Alg() {
		return uuid.Nil, ErrMalformed
	}
	if claims.UserID == uuid.Nil || claims.ExpiresAt == nil {
		return uuid.Nil, ErrMalformed
	}

	if !claims.ExpiresAt.Time.After(c.now()) {
		return uuid.Nil, ErrExpired
	}
	return claims.UserID, nil
}
