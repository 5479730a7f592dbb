package config

import (
	"strings"
	"testing"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if cfg.Storage != StorageMemory || cfg.LoanAnnualRate != 0.05 || cfg.ScoreGate != ScoreGateRandom {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Port != "8080" || cfg.ReminderDaysAhead != 5 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestNewConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"postgres without dsn", map[string]string{"STORAGE": "postgres"}, "DB_CONN"},
		{"unknown storage", map[string]string{"STORAGE": "redis"}, "STORAGE"},
		{"empty jwt secret", map[string]string{"JWT_SECRET": ""}, "JWT_SECRET"},
		{"rate out of range", map[string]string{"LOAN_ANNUAL_RATE": "1.5"}, "LOAN_ANNUAL_RATE"},
		{"rate not a number", map[string]string{"LOAN_ANNUAL_RATE": "five"}, "LOAN_ANNUAL_RATE"},
		{"unknown gate", map[string]string{"SCORE_GATE": "bureau"}, "SCORE_GATE"},
		{"score out of range", map[string]string{"SCORE_FIXED_VALUE": "11"}, "SCORE_FIXED_VALUE"},
		{"unknown rate source", map[string]string{"LOAN_RATE_SOURCE": "ecb"}, "LOAN_RATE_SOURCE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := NewConfig()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestNewConfigPostgres(t *testing.T) {
	t.Setenv("STORAGE", "postgres")
	t.Setenv("DB_CONN", "host=localhost dbname=bank")
	t.Setenv("SCORE_GATE", "fixed")
	t.Setenv("SCORE_FIXED_VALUE", "3")

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if cfg.DBConn != "host=localhost dbname=bank" || cfg.ScoreFixedValue != 3 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}
