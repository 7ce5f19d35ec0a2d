package config

import (
	"os"
	"testing"
)

func TestLoadConfig_Defaults(t *testing.T) {
	// 1. Setup Required Envs (to bypass validation)
	required := map[string]string{
		"APCA_API_KEY_ID":     "test_key",
		"APCA_API_SECRET_KEY": "test_secret",
		"APCA_API_BASE_URL":   "https://paper-api.alpaca.markets",
	}
	for k, v := range required {
		os.Setenv(k, v)
		defer os.Unsetenv(k)
	}

	// 2. Ensure Optional Envs are Unset
	optionals := []string{
		"STOP_LOSS_PERCENT",
		"TAKE_PROFIT_PERCENT",
		"TAKE_PROFIT_2_PERCENT",
		"TAKE_PROFIT_3_PERCENT",
		"TRAILING_STOP_PERCENT",
		"TIME_STOP_MINUTES",
		"MONITOR_INTERVAL_SEC",
		"MAX_POSITIONS",
	}
	for _, k := range optionals {
		os.Unsetenv(k)
	}

	// 3. Load Config
	cfg := Load()

	// 4. Verify Defaults
	if cfg.StopLossPct != 0.03 {
		t.Errorf("Expected StopLossPct 0.03, got %f", cfg.StopLossPct)
	}
	if cfg.TakeProfit1Pct != 0.05 {
		t.Errorf("Expected TakeProfit1Pct 0.05, got %f", cfg.TakeProfit1Pct)
	}
	if cfg.TakeProfit2Pct != 0.10 {
		t.Errorf("Expected TakeProfit2Pct 0.10, got %f", cfg.TakeProfit2Pct)
	}
	if cfg.TakeProfit3Pct != 0.15 {
		t.Errorf("Expected TakeProfit3Pct 0.15, got %f", cfg.TakeProfit3Pct)
	}
	if cfg.TrailingStopPct != 0.02 {
		t.Errorf("Expected TrailingStopPct 0.02, got %f", cfg.TrailingStopPct)
	}
	if cfg.TimeStopMinutes != 180 {
		t.Errorf("Expected TimeStopMinutes 180, got %d", cfg.TimeStopMinutes)
	}
	if cfg.MonitorIntervalSec != 10 {
		t.Errorf("Expected MonitorIntervalSec 10, got %d", cfg.MonitorIntervalSec)
	}
	if cfg.MaxPositions != 5 {
		t.Errorf("Expected MaxPositions 5, got %d", cfg.MaxPositions)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	envs := map[string]string{
		"APCA_API_KEY_ID":       "test_key",
		"APCA_API_SECRET_KEY":   "test_secret",
		"APCA_API_BASE_URL":     "https://paper-api.alpaca.markets",
		"STOP_LOSS_PERCENT":     "0.05",
		"TIME_STOP_MINUTES":     "90.0", // float-formatted, must still parse
		"TRAILING_STOP_PERCENT": "0.015",
	}
	for k, v := range envs {
		os.Setenv(k, v)
		defer os.Unsetenv(k)
	}

	cfg := Load()

	if cfg.StopLossPct != 0.05 {
		t.Errorf("Expected StopLossPct 0.05, got %f", cfg.StopLossPct)
	}
	if cfg.TimeStopMinutes != 90 {
		t.Errorf("Expected TimeStopMinutes 90, got %d", cfg.TimeStopMinutes)
	}
	if cfg.TrailingStopPct != 0.015 {
		t.Errorf("Expected TrailingStopPct 0.015, got %f", cfg.TrailingStopPct)
	}
}

func TestLoadConfig_NonPositiveIntervalsClamped(t *testing.T) {
	// A zero or negative interval would panic time.NewTicker at startup.
	envs := map[string]string{
		"APCA_API_KEY_ID":      "test_key",
		"APCA_API_SECRET_KEY":  "test_secret",
		"APCA_API_BASE_URL":    "https://paper-api.alpaca.markets",
		"MONITOR_INTERVAL_SEC": "0",
		"SCAN_INTERVAL_MIN":    "-5",
	}
	for k, v := range envs {
		os.Setenv(k, v)
		defer os.Unsetenv(k)
	}

	cfg := Load()

	if cfg.MonitorIntervalSec != 10 {
		t.Errorf("Expected MonitorIntervalSec clamped to 10, got %d", cfg.MonitorIntervalSec)
	}
	if cfg.ScanIntervalMins != 15 {
		t.Errorf("Expected ScanIntervalMins clamped to 15, got %d", cfg.ScanIntervalMins)
	}
}
