package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// External transcription service (batch + streaming endpoints).
	TranscribeBaseURL string        `env:"TRANSCRIBE_BASE_URL,required"`
	TranscribeTimeout time.Duration `env:"TRANSCRIBE_TIMEOUT" envDefault:"5m"`

	// Hosted auth/database backend.
	BackendURL string `env:"BACKEND_URL"`
	BackendKey string `env:"BACKEND_KEY"`

	// Hosted payments provider.
	PaymentSecretKey   string `env:"PAYMENT_SECRET_KEY"`
	CheckoutSuccessURL string `env:"CHECKOUT_SUCCESS_URL" envDefault:"http://localhost:5173/pricing/pay/checkout/success"`
	CheckoutCancelURL  string `env:"CHECKOUT_CANCEL_URL" envDefault:"http://localhost:5173/pricing/pay/checkout/cancel"`

	// Email delivery API.
	EmailServiceID  string `env:"EMAIL_SERVICE_ID"`
	EmailTemplateID string `env:"EMAIL_TEMPLATE_ID"`
	EmailPublicKey  string `env:"EMAIL_PUBLIC_KEY"`

	HTTPAddr       string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout    time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout   time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"5m"`
	IdleTimeout    time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
	MaxUploadBytes int64         `env:"MAX_UPLOAD_BYTES" envDefault:"524288000"`
	CORSOrigin     string        `env:"CORS_ORIGIN" envDefault:"*"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile           string
	HTTPAddr          string
	LogLevel          string
	TranscribeBaseURL string
	BackendURL        string
}

// Load reads configuration from .env file, environment variables, and CLI overrides.
// Priority: CLI flags > environment variables > .env file > struct defaults.
func Load(overrides Overrides) (*Config, error) {
	// Load .env file (silent if missing)
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Apply CLI overrides (non-empty values win)
	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.TranscribeBaseURL != "" {
		cfg.TranscribeBaseURL = overrides.TranscribeBaseURL
	}
	if overrides.BackendURL != "" {
		cfg.BackendURL = overrides.BackendURL
	}

	return cfg, nil
}
