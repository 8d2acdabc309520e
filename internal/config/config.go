package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config is the full environment-driven configuration. Every external
// integration is optional: missing payment credentials disable checkout,
// a missing database URL degrades the catalog to the embedded static
// dataset, missing brokers disable event publication.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	DatabaseURL   string `env:"DATABASE_URL"`
	ProductsTable string `env:"PRODUCTS_TABLE" envDefault:"products"`

	SquareEnvironment   string `env:"SQUARE_ENVIRONMENT" envDefault:"sandbox"`
	SquareAccessToken   string `env:"SQUARE_ACCESS_TOKEN"`
	SquareApplicationID string `env:"SQUARE_APPLICATION_ID"`
	SquareLocationID    string `env:"SQUARE_LOCATION_ID"`

	WebhookSignatureKey    string `env:"SQUARE_WEBHOOK_SIGNATURE_KEY"`
	WebhookNotificationURL string `env:"SQUARE_WEBHOOK_NOTIFICATION_URL"`

	ResendAPIKey     string `env:"RESEND_API_KEY"`
	OrderNotifyEmail string `env:"ORDER_NOTIFY_EMAIL"`

	KafkaBrokers string `env:"KAFKA_BROKERS"`

	CouponTableJSON string `env:"COUPON_TABLE_JSON"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.SquareEnvironment != "sandbox" && cfg.SquareEnvironment != "production" {
		return nil, fmt.Errorf("invalid SQUARE_ENVIRONMENT %q", cfg.SquareEnvironment)
	}

	return cfg, nil
}

// PaymentsConfigured reports whether the checkout endpoints can operate.
// The application id is required too: without it the config endpoint would
// hand the storefront credentials it cannot tokenize against.
func (c *Config) PaymentsConfigured() bool {
	return c.SquareAccessToken != "" && c.SquareApplicationID != "" && c.SquareLocationID != ""
}

func (c *Config) Brokers() []string {
	if c.KafkaBrokers == "" {
		return nil
	}
	return strings.Split(c.KafkaBrokers, ",")
}
