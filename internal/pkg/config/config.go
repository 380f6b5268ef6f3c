package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/abhigyan-p512/subscription-management/internal/pkg/env"
)

// Config holds all process configuration, loaded once at startup. Secrets are
// required with no fallback defaults; Load fails when they are absent.
type Config struct {
	AppEnv  string `validate:"required,oneof=dev test prod"`
	AppHost string
	AppPort string `validate:"required"`

	DBUser     string `validate:"required"`
	DBPassword string
	DBHost     string `validate:"required"`
	DBPort     string `validate:"required"`
	DBName     string `validate:"required"`

	CacheHost string
	CachePort string

	FrontendURL string

	JWTSecret           string `validate:"required,min=16"`
	StripeSecretKey     string `validate:"required"`
	StripeWebhookSecret string `validate:"required"`
}

// Load reads the environment and validates the resulting config.
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:  env.GetEnv("APP_ENV", "prod"),
		AppHost: env.GetEnv("APP_HOST", "localhost"),
		AppPort: env.GetEnv("APP_PORT", "5000"),

		DBUser:     env.GetEnv("DB_USER", ""),
		DBPassword: env.GetEnv("DB_PASSWORD", ""),
		DBHost:     env.GetEnv("DB_HOST", "127.0.0.1"),
		DBPort:     env.GetEnv("DB_PORT", "3306"),
		DBName:     env.GetEnv("DB_NAME", ""),

		CacheHost: env.GetEnv("CACHE_HOST", "localhost"),
		CachePort: env.GetEnv("CACHE_PORT", "6379"),

		FrontendURL: env.GetEnv("FRONTEND_URL", "http://localhost:3000"),

		JWTSecret:           env.GetEnv("JWT_SECRET", ""),
		StripeSecretKey:     env.GetEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: env.GetEnv("STRIPE_WEBHOOK_SECRET", ""),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// IsProduction reports whether the process runs with production error output.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "prod"
}
