package password

import (
	"context"
	"errors"

	"conduit/cmd/internal/apperr"
)

// dummyPassword only feeds the dummy record used for timing parity.
const dummyPassword = "conduit-dummy-password-for-timing-only"

// Hasher is the request-path surface: every derivation runs on the Pool.
type Hasher struct {
	cfg   Config
	pool  *Pool
	dummy string
}

// NewHasher builds a Hasher and derives its dummy record once, synchronously.
func NewHasher(cfg Config, pool *Pool) (*Hasher, error) {
	if pool == nil {
		pool = NewPool(cfg.Pool, nil)
	}
	dummy, err := cfg.Params.encode(dummyPassword)
	if err != nil {
		return nil, apperr.Internal("password.NewHasher", err)
	}
	return &Hasher{cfg: cfg, pool: pool, dummy: dummy}, nil
}

// Validate applies the password policy without touching the pool.
func (h *Hasher) Validate(plaintext string) error {
	return h.cfg.Validate(plaintext)
}

// Hash returns a fresh record for plaintext.
//
// Policy violations come back as the package policy errors (see PolicyMessage).
// Everything else is an internal error; pool saturation and timeouts are transient.
func (h *Hasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := h.cfg.Validate(plaintext); err != nil {
		return "", err
	}

	var record string
	err := h.pool.Do(ctx, "hash", func() error {
		var err error
		record, err = h.cfg.Params.encode(plaintext)
		return err
	})
	if err != nil {
		return "", asInternal("password.hash", err)
	}
	return record, nil
}

// Verify returns nil when plaintext matches record.
//
// A mismatch is ErrBadCredentials with kind Unauthorized. A malformed record is
// ErrInvalidHash with kind Internal: it means stored data is corrupt, not that the caller erred.
func (h *Hasher) Verify(ctx context.Context, plaintext, record string) error {
	var ok bool
	err := h.pool.Do(ctx, "verify", func() error {
		var err error
		ok, err = h.cfg.Verify(record, plaintext)
		return err
	})
	if err != nil {
		return asInternal("password.verify", err)
	}
	if !ok {
		return &apperr.Error{Op: "password.verify", Kind: apperr.ErrUnauthorized, Err: ErrBadCredentials}
	}
	return nil
}

// DummyVerify spends the same work as Verify against a record that never matches
// a real caller. Login uses it when the account does not exist.
//
// It fails the way Verify does: ErrBadCredentials when the work ran, a transient
// internal error when the pool could not run it. It never returns nil.
func (h *Hasher) DummyVerify(ctx context.Context, plaintext string) error {
	err := h.Verify(ctx, plaintext, h.dummy)
	if err == nil {
		return &apperr.Error{Op: "password.verify", Kind: apperr.ErrUnauthorized, Err: ErrBadCredentials}
	}
	return err
}

func asInternal(op string, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Internal(op, err)
}
