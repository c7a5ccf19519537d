package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every variable read into Config.
const EnvPrefix = "CONDUIT_"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout   time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	MaxHeaderBytes    int           `env:"HTTP_MAX_HEADER_BYTES" envDefault:"1048576"`

	// Postgres is used when DatabaseURL is set; otherwise SQLite at SQLitePath.
	DatabaseURL string `env:"DATABASE_URL"`
	DBSchema    string `env:"DB_SCHEMA" envDefault:"conduit"`
	DBMaxConns  int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns  int32  `env:"DB_MIN_CONNS" envDefault:"0"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:":memory:"`

	// Login throttles move to Redis when set.
	RedisURL string `env:"REDIS_URL"`

	HMACMinBytes int `env:"HMAC_MIN_BYTES" envDefault:"32"`

	// If true, /readyz returns 503 unless Postgres is configured and reachable.
	ReadinessRequireDB bool `env:"READINESS_REQUIRE_DB" envDefault:"false"`
}

// LoadConfig reads an optional .env from the working directory, then the environment.
// Variables already present in the environment win over .env entries.
func LoadConfig() (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}
	return configFromEnv()
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

func configFromEnv() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("app config: %w", err)
	}

	// Unprefixed fallback, as set by most hosting platforms.
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}

	if cfg.HMACMinBytes < 16 {
		return Config{}, fmt.Errorf("%sHMAC_MIN_BYTES must be at least 16", EnvPrefix)
	}
	if cfg.DBMaxConns < 1 || cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		return Config{}, fmt.Errorf("%sDB_MIN_CONNS/%sDB_MAX_CONNS out of range", EnvPrefix, EnvPrefix)
	}
	return cfg, nil
}
