package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config stores runtime configuration loaded from environment variables.
type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// DBDSN empty keeps attempts and contact requests in memory.
	DBDSN             string `env:"DB_DSN"`
	DBMaxOpenConns    int    `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	DBMaxIdleConns    int    `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBConnMaxLifeMins int    `env:"DB_CONN_MAX_LIFETIME_MINUTES" envDefault:"15"`

	CSRFEnforced       bool `env:"CSRF_ENFORCED" envDefault:"false"`
	RateLimitPerMinute int  `env:"RATE_LIMIT_PER_MINUTE" envDefault:"30"`

	SubmitLocked    bool   `env:"SUBMIT_LOCKED" envDefault:"false"`
	QuestionBankDir string `env:"QUESTION_BANK_DIR"`
	AdminTokenHash  string `env:"ADMIN_TOKEN_HASH"`

	SMTPHost        string `env:"SMTP_HOST"`
	SMTPPort        int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser        string `env:"SMTP_USER"`
	SMTPPass        string `env:"SMTP_PASS"`
	SMTPFrom        string `env:"SMTP_FROM" envDefault:"noreply@mockexam.local"`
	ContactNotifyTo string `env:"CONTACT_NOTIFY_TO"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.DBDSN = strings.TrimSpace(cfg.DBDSN)
	cfg.AdminTokenHash = strings.TrimSpace(cfg.AdminTokenHash)
	if cfg.RateLimitPerMinute <= 0 {
		cfg.RateLimitPerMinute = 30
	}
	// Production enforces CSRF unless CSRF_ENFORCED says otherwise.
	if _, set := os.LookupEnv("CSRF_ENFORCED"); !set && cfg.IsProduction() {
		cfg.CSRFEnforced = true
	}
	return cfg, nil
}

func (c Config) DBConnMaxLifetime() time.Duration {
	return time.Duration(c.DBConnMaxLifeMins) * time.Minute
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}
