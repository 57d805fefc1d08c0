package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "8084" {
		t.Errorf("Expected Port to be 8084, got %s", cfg.Port)
	}

	if cfg.Env != "development" {
		t.Errorf("Expected Env to be development, got %s", cfg.Env)
	}

	if cfg.Backtest.HoldingDays != 30 {
		t.Errorf("Expected HoldingDays to be 30, got %d", cfg.Backtest.HoldingDays)
	}

	if cfg.Backtest.SentimentWindowBeforeDays != 7 {
		t.Errorf("Expected SentimentWindowBeforeDays to be 7, got %d", cfg.Backtest.SentimentWindowBeforeDays)
	}

	if !cfg.Backtest.MatchLookbackStart.IsZero() {
		t.Errorf("Expected MatchLookbackStart to default to zero, got %v", cfg.Backtest.MatchLookbackStart)
	}

	if cfg.Database.Enabled {
		t.Error("Expected database to be disabled by default")
	}
}

func TestLoadWithCustomValues(t *testing.T) {
	os.Setenv("PORT", "9000")
	os.Setenv("ENV", "production")
	os.Setenv("HOLDING_DAYS", "60")
	os.Setenv("MATCH_LOOKBACK_START", "2015-01-01")
	os.Setenv("PER_CALL_TIMEOUT", "30s")

	defer func() {
		os.Unsetenv("PORT")
		os.Unsetenv("ENV")
		os.Unsetenv("HOLDING_DAYS")
		os.Unsetenv("MATCH_LOOKBACK_START")
		os.Unsetenv("PER_CALL_TIMEOUT")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Expected Port to be 9000, got %s", cfg.Port)
	}

	if cfg.Env != "production" {
		t.Errorf("Expected Env to be production, got %s", cfg.Env)
	}

	if cfg.Backtest.HoldingDays != 60 {
		t.Errorf("Expected HoldingDays to be 60, got %d", cfg.Backtest.HoldingDays)
	}

	want := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	if !cfg.Backtest.MatchLookbackStart.Equal(want) {
		t.Errorf("Expected MatchLookbackStart to be %v, got %v", want, cfg.Backtest.MatchLookbackStart)
	}

	if cfg.Backtest.PerCallTimeout != 30*time.Second {
		t.Errorf("Expected PerCallTimeout to be 30s, got %v", cfg.Backtest.PerCallTimeout)
	}
}

func TestValidateDatabaseURLRequiredWhenEnabled(t *testing.T) {
	os.Setenv("DATABASE_ENABLED", "true")
	defer os.Unsetenv("DATABASE_ENABLED")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when DATABASE_ENABLED=true without DATABASE_URL, got nil")
	}
}

func TestValidateRejectsBadEnv(t *testing.T) {
	os.Setenv("ENV", "sandbox")
	defer os.Unsetenv("ENV")

	_, err := Load()
	if err == nil {
		t.Error("Expected error for unknown ENV, got nil")
	}
}

func TestValidateRejectsBadHoldingDays(t *testing.T) {
	os.Setenv("HOLDING_DAYS", "0")
	defer os.Unsetenv("HOLDING_DAYS")

	_, err := Load()
	if err == nil {
		t.Error("Expected error for HOLDING_DAYS=0, got nil")
	}
}
