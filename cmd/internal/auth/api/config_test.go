package authapi

import (
	"testing"
	"time"
)

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Fatalf("defaults drifted: %+v vs %+v", cfg, DefaultConfig())
	}
}

func TestLoadConfigFromEnv_Override(t *testing.T) {
	t.Setenv("CONDUIT_AUTH_TRUST_PROXY", "true")
	t.Setenv("CONDUIT_AUTH_LOGIN_EMAIL_MAX", "3")
	t.Setenv("CONDUIT_AUTH_LOGIN_EMAIL_WINDOW", "1m")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}
	if !cfg.TrustProxy || cfg.LoginEmailMax != 3 || cfg.LoginEmailWindow != time.Minute {
		t.Fatalf("override failed: %+v", cfg)
	}
}

func TestLoadConfigFromEnv_Invalid(t *testing.T) {
	t.Setenv("CONDUIT_AUTH_MAX_BODY_BYTES", "0")
	if _, err := LoadConfigFromEnv(); err == nil {
		t.Fatalf("expected error for zero body limit")
	}
}
