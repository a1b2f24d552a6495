package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"SERVER_PORT", "SERVER_HOST", "DB_PATH", "CORS_ALLOWED_ORIGINS", "FEDFUNDS_PATH",
		"RATES_REFRESH_SCHEDULE", "DEFAULT_REFERENCE_RATE", "REDIS_URL", "CACHE_TTL",
		"LOG_LEVEL", "LOG_PRETTY", "YAHOO_MAX_RETRIES",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Addr != "localhost:8080" {
		t.Errorf("Addr = %q, want localhost:8080", cfg.Server.Addr)
	}
	if cfg.Rates.DefaultRate != 0.05 {
		t.Errorf("DefaultRate = %v, want 0.05", cfg.Rates.DefaultRate)
	}
	if cfg.Rates.RefreshSchedule != "@daily" {
		t.Errorf("RefreshSchedule = %q", cfg.Rates.RefreshSchedule)
	}
	if cfg.Cache.TTL != 12*time.Hour {
		t.Errorf("TTL = %v, want 12h", cfg.Cache.TTL)
	}
	if cfg.Yahoo.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.Yahoo.MaxRetries)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 {
		t.Errorf("AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_HOST", "0.0.0.0")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("CACHE_TTL", "30m")
	t.Setenv("LOG_PRETTY", "true")
	t.Setenv("DEFAULT_REFERENCE_RATE", "0.0425")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Addr != "0.0.0.0:9090" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if got := cfg.CORS.AllowedOrigins; len(got) != 2 || got[1] != "https://b.example" {
		t.Errorf("AllowedOrigins = %v", got)
	}
	if cfg.Cache.TTL != 30*time.Minute {
		t.Errorf("TTL = %v", cfg.Cache.TTL)
	}
	if !cfg.Log.Pretty {
		t.Error("Pretty should be true")
	}
	if cfg.Rates.DefaultRate != 0.0425 {
		t.Errorf("DefaultRate = %v", cfg.Rates.DefaultRate)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"DEFAULT_REFERENCE_RATE": "five",
		"CACHE_TTL":              "forever",
		"LOG_PRETTY":             "maybe",
		"YAHOO_MAX_RETRIES":      "-1",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%s", key, value)
			}
		})
	}
}
