package authapi

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every variable read by LoadConfigFromEnv.
const EnvPrefix = "CONDUIT_AUTH_"

// Config controls auth API behavior and security defaults.
type Config struct {
	TrustProxy   bool  `env:"TRUST_PROXY" envDefault:"false"`
	MaxBodyBytes int64 `env:"MAX_BODY_BYTES" envDefault:"1048576"`

	// Failed logins per client IP and per email inside a sliding window.
	LoginIPMax       int           `env:"LOGIN_IP_MAX" envDefault:"20"`
	LoginIPWindow    time.Duration `env:"LOGIN_IP_WINDOW" envDefault:"5m"`
	LoginEmailMax    int           `env:"LOGIN_EMAIL_MAX" envDefault:"5"`
	LoginEmailWindow time.Duration `env:"LOGIN_EMAIL_WINDOW" envDefault:"15m"`
}

// DefaultConfig returns the values LoadConfigFromEnv uses when nothing is set.
func DefaultConfig() Config {
	return Config{
		MaxBodyBytes:     1 << 20,
		LoginIPMax:       20,
		LoginIPWindow:    5 * time.Minute,
		LoginEmailMax:    5,
		LoginEmailWindow: 15 * time.Minute,
	}
}

// LoadConfigFromEnv loads auth config from CONDUIT_AUTH_* variables.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("auth config: %w", err)
	}
	if cfg.MaxBodyBytes <= 0 {
		return Config{}, fmt.Errorf("%sMAX_BODY_BYTES must be positive", EnvPrefix)
	}
	if cfg.LoginIPMax < 0 || cfg.LoginEmailMax < 0 {
		return Config{}, fmt.Errorf("%sLOGIN_*_MAX must not be negative", EnvPrefix)
	}
	return cfg, nil
}
