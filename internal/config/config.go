package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Storage backends
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Loan rate sources
const (
	RateSourceFixed = "fixed"
	RateSourceCBR   = "cbr"
)

// Credit score gates
const (
	ScoreGateRandom = "random"
	ScoreGateFixed  = "fixed"
)

// Config holds application configuration
type Config struct {
	Port       string
	Storage    string
	DBConn     string
	LogLevel   string
	JWTSecret  string
	HMACSecret string
	CBRURL     string

	LoanRateSource  string
	LoanAnnualRate  float64
	ScoreGate       string
	ScoreFixedValue int

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string

	RabbitMQURL      string
	RabbitMQExchange string

	ReminderCron      string
	ReminderDaysAhead int
}

// NewConfig loads configuration from a .env file, if present, and environment variables
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	rate, err := strconv.ParseFloat(getEnv("LOAN_ANNUAL_RATE", "0.05"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid LOAN_ANNUAL_RATE: %w", err)
	}
	fixedScore, err := strconv.Atoi(getEnv("SCORE_FIXED_VALUE", "7"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCORE_FIXED_VALUE: %w", err)
	}
	daysAhead, err := strconv.Atoi(getEnv("REMINDER_DAYS_AHEAD", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid REMINDER_DAYS_AHEAD: %w", err)
	}

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		Storage:           getEnv("STORAGE", StorageMemory),
		DBConn:            getEnv("DB_CONN", ""),
		LogLevel:          getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:         getEnv("JWT_SECRET", "secret"),
		HMACSecret:        getEnv("HMAC_SECRET", "a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6"),
		CBRURL:            getEnv("CBR_URL", "https://www.cbr.ru/DailyInfoWebServ/DailyInfo.asmx"),
		LoanRateSource:    getEnv("LOAN_RATE_SOURCE", RateSourceFixed),
		LoanAnnualRate:    rate,
		ScoreGate:         getEnv("SCORE_GATE", ScoreGateRandom),
		ScoreFixedValue:   fixedScore,
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getEnv("SMTP_PORT", "587"),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
		SenderEmail:       getEnv("SENDER_EMAIL", "noreply@bank.local"),
		RabbitMQURL:       getEnv("RABBITMQ_URL", ""),
		RabbitMQExchange:  getEnv("RABBITMQ_EXCHANGE", "bank_events"),
		ReminderCron:      getEnv("REMINDER_CRON", "0 9 * * *"),
		ReminderDaysAhead: daysAhead,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.DBConn == "" {
			return fmt.Errorf("DB_CONN is required for postgres storage")
		}
	default:
		return fmt.Errorf("unknown STORAGE %q", c.Storage)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.HMACSecret == "" {
		return fmt.Errorf("HMAC_SECRET is required")
	}
	if c.LoanRateSource != RateSourceFixed && c.LoanRateSource != RateSourceCBR {
		return fmt.Errorf("unknown LOAN_RATE_SOURCE %q", c.LoanRateSource)
	}
	if c.LoanAnnualRate <= 0 || c.LoanAnnualRate >= 1 {
		return fmt.Errorf("LOAN_ANNUAL_RATE must be between 0 and 1, got %v", c.LoanAnnualRate)
	}
	if c.ScoreGate != ScoreGateRandom && c.ScoreGate != ScoreGateFixed {
		return fmt.Errorf("unknown SCORE_GATE %q", c.ScoreGate)
	}
	if c.ScoreFixedValue < 1 || c.ScoreFixedValue > 10 {
		return fmt.Errorf("SCORE_FIXED_VALUE must be between 1 and 10, got %d", c.ScoreFixedValue)
	}
	if c.ReminderDaysAhead < 0 {
		return fmt.Errorf("REMINDER_DAYS_AHEAD must not be negative")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
