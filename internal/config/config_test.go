package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.DefaultCurrency != "SOL" {
		t.Errorf("DefaultCurrency = %q", cfg.DefaultCurrency)
	}
	if cfg.ConfirmTimeout != 90*time.Second {
		t.Errorf("ConfirmTimeout = %v, want 90s", cfg.ConfirmTimeout)
	}
	if !cfg.ChainVerifyPayments {
		t.Error("ChainVerifyPayments should default to true")
	}
	if cfg.ChallengeTTL != 5*time.Minute {
		t.Errorf("ChallengeTTL = %v, want 5m", cfg.ChallengeTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CONFIRM_TIMEOUT_SECONDS", "30")
	t.Setenv("CHAIN_VERIFY_PAYMENTS", "false")
	t.Setenv("BASE_URL", "https://pay.example.com/")

	cfg := Load()

	if cfg.ConfirmTimeout != 30*time.Second {
		t.Errorf("ConfirmTimeout = %v, want 30s", cfg.ConfirmTimeout)
	}
	if cfg.ChainVerifyPayments {
		t.Error("ChainVerifyPayments should be disabled")
	}
	if cfg.BaseURL != "https://pay.example.com" {
		t.Errorf("BaseURL = %q, trailing slash should be stripped", cfg.BaseURL)
	}
}
