package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argon2Version = argon2.Version // 0x13 (19)
)

// Hash validates password against the policy and returns an encoded Argon2id record.
// Format:
// $argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<salt_b64>$<hash_b64>
//
// Hash is CPU and memory heavy; request paths go through Hasher, which runs it on the pool.
func (c Config) Hash(password string) (string, error) {
	if err := c.Validate(password); err != nil {
		return "", err
	}
	return c.Params.encode(password)
}

func (p Argon2idParams) encode(password string) (string, error) {
	salt := make([]byte, p.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, p.Iterations, p.MemoryKiB, p.Parallelism, p.KeyLength)

	b64 := base64.RawStdEncoding
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Version,
		p.MemoryKiB,
		p.Iterations,
		p.Parallelism,
		b64.EncodeToString(salt),
		b64.EncodeToString(key),
	), nil
}

// Verify checks whether password matches the given encoded record.
// Returns (true, nil) for a match, (false, nil) for mismatch,
// and (false, ErrInvalidHash) for malformed/unsupported records.
func (c Config) Verify(encoded, password string) (bool, error) {
	params, salt, expected, err := decode(encoded)
	if err != nil {
		return false, err
	}

	// Stored records are untrusted input: refuse costs far above the configured
	// profile instead of letting one record pin a worker for seconds.
	if !withinReasonableBounds(params, c.Params) {
		return false, ErrInvalidHash
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		params.Iterations,
		params.MemoryKiB,
		params.Parallelism,
		params.KeyLength,
	)

	return subtle.ConstantTimeCompare(key, expected) == 1, nil
}

func withinReasonableBounds(got Argon2idParams, limits Argon2idParams) bool {
	// Older/smaller settings still verify; wildly larger ones do not.
	if got.MemoryKiB > limits.MemoryKiB*4 {
		return false
	}
	if got.Iterations > limits.Iterations*4 {
		return false
	}
	if uint32(got.Parallelism) > uint32(limits.Parallelism)*4+4 {
		return false
	}
	if got.SaltLength < 8 || got.SaltLength > 64 {
		return false
	}
	if got.KeyLength < 16 || got.KeyLength > 128 {
		return false
	}
	return true
}

// decode parses the encoded record and returns params, salt and expected key.
func decode(encoded string) (Argon2idParams, []byte, []byte, error) {
	// Expected:
	// $argon2id$v=19$m=19456,t=2,p=1$<salt>$<hash>
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}
	if parts[2] != "v="+strconv.Itoa(argon2Version) {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	mem, it, par, ok := parseCost(parts[3])
	if !ok {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}
	hash, err := b64.DecodeString(parts[5])
	if err != nil || len(hash) == 0 {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	params := Argon2idParams{
		MemoryKiB:   mem,
		Iterations:  it,
		Parallelism: par,
		SaltLength:  uint32(len(salt)), // #nosec G115 -- bounded by the record length.
		KeyLength:   uint32(len(hash)), // #nosec G115 -- bounded by the record length.
	}
	return params, salt, hash, nil
}

// parseCost reads "m=<n>,t=<n>,p=<n>" in that exact order.
func parseCost(s string) (mem, it uint32, par uint8, ok bool) {
	fields := strings.Split(s, ",")
	if len(fields) != 3 {
		return 0, 0, 0, false
	}
	vals := make([]uint64, 3)
	for i, prefix := range []string{"m=", "t=", "p="} {
		raw, found := strings.CutPrefix(fields[i], prefix)
		if !found {
			return 0, 0, 0, false
		}
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || n == 0 {
			return 0, 0, 0, false
		}
		vals[i] = n
	}
	if vals[2] > 255 {
		return 0, 0, 0, false
	}
	return uint32(vals[0]), uint32(vals[1]), uint8(vals[2]), true
}
