package app

import (
	"errors"
	"fmt"

	"conduit/cmd/security/token"
)

// ValidateSecurityConfig enforces the startup security policy and returns the
// token signing secret. There is no fallback secret: a missing or short key is fatal.
func ValidateSecurityConfig(cfg Config) ([]byte, error) {
	secret, err := token.SecretFromEnv(cfg.HMACMinBytes)
	switch {
	case err == nil:
		return secret, nil
	case errors.Is(err, token.ErrSecretMissing):
		return nil, fmt.Errorf("security policy: %s (or %s) is not set", token.SecretEnvKey, token.LegacySecretEnvKey)
	case errors.Is(err, token.ErrSecretTooShort):
		return nil, fmt.Errorf("security policy: %s is too short (min %d bytes)", token.SecretEnvKey, cfg.HMACMinBytes)
	default:
		return nil, err
	}
}
