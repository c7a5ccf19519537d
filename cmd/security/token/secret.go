package token

import (
	"os"
	"strings"
)

const (
	// SecretEnvKey is the env var name for the token signing secret.
	// #nosec G101 -- not a credential; it's an environment variable name.
	SecretEnvKey = "CONDUIT_HMAC_KEY"

	// LegacySecretEnvKey is read when SecretEnvKey is unset.
	LegacySecretEnvKey = "HMAC_KEY"
)

// SecretFromEnv returns the configured secret bytes (trimmed), enforcing a minimum byte length.
// If both env vars are missing/blank -> ErrSecretMissing.
// If too short -> ErrSecretTooShort.
func SecretFromEnv(minBytes int) ([]byte, error) {
	raw := strings.TrimSpace(os.Getenv(SecretEnvKey))
	if raw == "" {
		raw = strings.TrimSpace(os.Getenv(LegacySecretEnvKey))
	}
	return CheckSecret(raw, minBytes)
}

// CheckSecret applies the same policy as SecretFromEnv to an already-loaded value.
// Length is measured in bytes, not runes, because the key is used as raw bytes.
func CheckSecret(raw string, minBytes int) ([]byte, error) {
	if raw == "" {
		return nil, ErrSecretMissing
	}
	b := []byte(raw)
	if minBytes > 0 && len(b) < minBytes {
		return nil, ErrSecretTooShort
	}
	return b, nil
}
