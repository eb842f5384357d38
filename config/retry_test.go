package config

import (
	"strings"
	"testing"
	"time"
)

func clearRetryEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"RETRY_BUDGET", "SERVER_RETRIES", "SETTLE_INTERVAL", "OCTET_TOLERANCE"} {
		t.Setenv(name, "")
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()

	if cfg.InternetRetries != 15 {
		t.Errorf("Expected InternetRetries=15, got %d", cfg.InternetRetries)
	}
	if cfg.ServerRetries != 1 {
		t.Errorf("Expected ServerRetries=1, got %d", cfg.ServerRetries)
	}
	if cfg.SettleInterval != time.Second {
		t.Errorf("Expected SettleInterval=1s, got %v", cfg.SettleInterval)
	}
	if cfg.OctetTolerance != 5 {
		t.Errorf("Expected OctetTolerance=5, got %d", cfg.OctetTolerance)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should be valid, got error: %v", err)
	}
}

func TestRetryConfig_ApplyEnv_Defaults(t *testing.T) {
	clearRetryEnv(t)

	cfg := DefaultRetryConfig()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}
	if *cfg != *DefaultRetryConfig() {
		t.Errorf("expected defaults to be unchanged, got %+v", cfg)
	}
}

func TestRetryConfig_ApplyEnv_ValidValues(t *testing.T) {
	clearRetryEnv(t)
	t.Setenv("RETRY_BUDGET", "30")
	t.Setenv("SERVER_RETRIES", "0")
	t.Setenv("SETTLE_INTERVAL", "2s")
	t.Setenv("OCTET_TOLERANCE", "10")

	cfg := DefaultRetryConfig()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}

	if cfg.InternetRetries != 30 {
		t.Errorf("Expected InternetRetries=30, got %d", cfg.InternetRetries)
	}
	if cfg.ServerRetries != 0 {
		t.Errorf("Expected ServerRetries=0, got %d", cfg.ServerRetries)
	}
	if cfg.SettleInterval != 2*time.Second {
		t.Errorf("Expected SettleInterval=2s, got %v", cfg.SettleInterval)
	}
	if cfg.OctetTolerance != 10 {
		t.Errorf("Expected OctetTolerance=10, got %d", cfg.OctetTolerance)
	}
}

func TestRetryConfig_ApplyEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		name        string
		envVar      string
		value       string
		errContains string
	}{
		{"non-numeric budget", "RETRY_BUDGET", "lots", "must be a valid integer"},
		{"negative budget", "RETRY_BUDGET", "-1", "must be between"},
		{"negative server retries", "SERVER_RETRIES", "-2", "must be between"},
		{"bad duration", "SETTLE_INTERVAL", "soon", "invalid duration format"},
		{"zero duration", "SETTLE_INTERVAL", "0s", "must be positive"},
		{"tolerance above octet range", "OCTET_TOLERANCE", "256", "must be between"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearRetryEnv(t)
			t.Setenv(tt.envVar, tt.value)

			cfg := DefaultRetryConfig()
			err := cfg.ApplyEnv()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.envVar) || !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("error %q should mention %s and %q", err, tt.envVar, tt.errContains)
			}
		})
	}
}

func TestRetryConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RetryConfig)
		wantErr bool
	}{
		{"defaults", func(c *RetryConfig) {}, false},
		{"no retries", func(c *RetryConfig) { c.InternetRetries = 0; c.ServerRetries = 0 }, false},
		{"negative internet retries", func(c *RetryConfig) { c.InternetRetries = -1 }, true},
		{"negative server retries", func(c *RetryConfig) { c.ServerRetries = -1 }, true},
		{"zero settle interval", func(c *RetryConfig) { c.SettleInterval = 0 }, true},
		{"negative tolerance", func(c *RetryConfig) { c.OctetTolerance = -1 }, true},
		{"tolerance too large", func(c *RetryConfig) { c.OctetTolerance = 300 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultRetryConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
