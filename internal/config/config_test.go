package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	os.Setenv("MONGODB_URI", "mongodb://localhost:27017/testdb")
	os.Setenv("MONGODB_DATABASE", "opencourse_test")
	os.Setenv("REDIS_HOST", "localhost")
	os.Setenv("REDIS_PORT", "6379")
	os.Setenv("JWT_SECRET", "testsecret123456789012345678901234")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.MongoDB.URI == "" || cfg.Redis.Host == "" {
		t.Fatalf("unexpected empty config values: %+v", cfg)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	os.Setenv("JWT_SECRET", "testsecret123456789012345678901234")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.JWT.AccessTokenTTL != 30*time.Minute {
		t.Fatalf("expected 30m access token TTL, got %v", cfg.JWT.AccessTokenTTL)
	}
	if cfg.OTP.Length != 5 || cfg.OTP.MaxAttempts != 5 {
		t.Fatalf("unexpected OTP defaults: %+v", cfg.OTP)
	}
	if cfg.OTP.TTL != 2*time.Minute {
		t.Fatalf("expected 2m OTP TTL, got %v", cfg.OTP.TTL)
	}
}
