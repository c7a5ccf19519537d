package password

import (
	"fmt"
	"runtime"
	"time"

	"github.com/caarlos0/env/v11"
)

// Argon2idParams controls Argon2id hashing cost.
// MemoryKiB is in KiB as required by argon2.IDKey.
type Argon2idParams struct {
	MemoryKiB   uint32 `env:"ARGON2_MEMORY_KIB"`
	Iterations  uint32 `env:"ARGON2_ITERATIONS"`
	Parallelism uint8  `env:"ARGON2_PARALLELISM"`
	SaltLength  uint32 `env:"ARGON2_SALT_LEN"`
	KeyLength   uint32 `env:"ARGON2_KEY_LEN"`
}

// Policy controls password validation and anti-DoS boundaries.
type Policy struct {
	MinLength int `env:"PASSWORD_MIN_LEN"`
	MaxLength int `env:"PASSWORD_MAX_LEN"`
	// If true, enable an extra, minimal weak-pattern rejection.
	RejectVeryWeak bool `env:"PASSWORD_REJECT_VERY_WEAK"`
}

// PoolConfig sizes the hashing worker pool independently of HTTP concurrency.
type PoolConfig struct {
	Workers      int           `env:"HASH_WORKERS"`
	QueueTimeout time.Duration `env:"HASH_QUEUE_TIMEOUT"`
	Timeout      time.Duration `env:"HASH_TIMEOUT"`
}

// Config is the single configuration surface for this package.
type Config struct {
	Params Argon2idParams
	Policy Policy
	Pool   PoolConfig
}

// EnvPrefix is prepended to every variable read by FromEnv.
const EnvPrefix = "CONDUIT_"

// DefaultConfig returns the pinned cost profile: argon2id v19, m=19456 KiB, t=2, p=1.
// Hash and Verify share it; Verify reads the actual cost from each record.
func DefaultConfig() Config {
	workers := runtime.NumCPU()
	if workers <= 0 {
		workers = 1
	}
	if workers > 64 {
		workers = 64
	}

	return Config{
		Params: Argon2idParams{
			MemoryKiB:   19 * 1024,
			Iterations:  2,
			Parallelism: 1,
			SaltLength:  16, // 128 bits
			KeyLength:   32,
		},
		Policy: Policy{
			MinLength:      8,
			MaxLength:      256,
			RejectVeryWeak: false,
		},
		Pool: PoolConfig{
			Workers:      workers,
			QueueTimeout: 2 * time.Second,
			Timeout:      10 * time.Second,
		},
	}
}

// FromEnv loads config from environment variables on top of DefaultConfig.
//
// Env surface (all prefixed with CONDUIT_):
// - PASSWORD_MIN_LEN, PASSWORD_MAX_LEN, PASSWORD_REJECT_VERY_WEAK
// - ARGON2_MEMORY_KIB, ARGON2_ITERATIONS, ARGON2_PARALLELISM, ARGON2_SALT_LEN, ARGON2_KEY_LEN
// - HASH_WORKERS, HASH_QUEUE_TIMEOUT, HASH_TIMEOUT
func FromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("password config: %w", err)
	}
	if err := cfg.Check(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Check enforces the accepted ranges for every knob.
func (c Config) Check() error {
	p := c.Params
	switch {
	case p.MemoryKiB < 8*1024 || p.MemoryKiB > 1024*1024: // 8 MiB .. 1 GiB
		return fmt.Errorf("%sARGON2_MEMORY_KIB: out of range [%d..%d]", EnvPrefix, 8*1024, 1024*1024)
	case p.Iterations < 1 || p.Iterations > 20:
		return fmt.Errorf("%sARGON2_ITERATIONS: out of range [1..20]", EnvPrefix)
	case p.Parallelism < 1 || p.Parallelism > 64:
		return fmt.Errorf("%sARGON2_PARALLELISM: out of range [1..64]", EnvPrefix)
	case p.SaltLength < 16 || p.SaltLength > 64:
		return fmt.Errorf("%sARGON2_SALT_LEN: out of range [16..64]", EnvPrefix)
	case p.KeyLength < 16 || p.KeyLength > 64:
		return fmt.Errorf("%sARGON2_KEY_LEN: out of range [16..64]", EnvPrefix)
	}

	if c.Policy.MinLength < 1 || c.Policy.MaxLength > 4096 {
		return fmt.Errorf("password policy invalid: lengths out of range")
	}
	if c.Policy.MinLength > c.Policy.MaxLength {
		return fmt.Errorf(
			"password policy invalid: min_len(%d) > max_len(%d)",
			c.Policy.MinLength,
			c.Policy.MaxLength,
		)
	}

	if c.Pool.Workers < 1 || c.Pool.Workers > 256 {
		return fmt.Errorf("%sHASH_WORKERS: out of range [1..256]", EnvPrefix)
	}
	if c.Pool.QueueTimeout <= 0 || c.Pool.Timeout <= 0 {
		return fmt.Errorf("%sHASH_QUEUE_TIMEOUT and %sHASH_TIMEOUT must be positive", EnvPrefix, EnvPrefix)
	}
	return nil
}
