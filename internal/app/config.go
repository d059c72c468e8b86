package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (ORDERS_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (ORDERS_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Payment     PaymentConfig
	Shipping    ShippingConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// PaymentConfig controls the payment service adapter.
type PaymentConfig struct {
	URL         string        `usage:"Payment service base URL" flag:"payment-url"`
	Timeout     time.Duration `default:"5s"    usage:"Per-attempt authorization timeout"`
	MaxAttempts int           `default:"3"     usage:"Authorization attempts before reporting unavailable" flag:"payment-max-attempts"`
	BaseDelay   time.Duration `default:"100ms" usage:"Initial retry backoff" flag:"payment-base-delay"`
	MaxDelay    time.Duration `default:"2s"    usage:"Maximum retry backoff" flag:"payment-max-delay"`
	Multiplier  float64       `default:"2.0"   usage:"Backoff multiplier" flag:"payment-multiplier"`
}

// ShippingConfig controls the shipment notification dispatcher.
type ShippingConfig struct {
	URL       string        `usage:"Shipping service base URL" flag:"shipping-url"`
	Timeout   time.Duration `default:"5s"  usage:"Per-notification delivery timeout"`
	QueueSize int           `default:"256" usage:"Shipment notification queue capacity" flag:"shipping-queue-size"`
}

// RateLimitConfig controls the per-client rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins []string `default:"*" usage:"Allowed CORS origins"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "ORDERS",
		Files:     []string{"config.yaml", "/etc/orders/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set ORDERS_DATABASE_URL or DATABASE_URL")
	}
	if cfg.Payment.URL == "" {
		return nil, errors.New("payment service URL is required: set ORDERS_PAYMENT_URL")
	}
	if cfg.Shipping.URL == "" {
		return nil, errors.New("shipping service URL is required: set ORDERS_SHIPPING_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables that
// use standard names like DATABASE_URL and PORT to the application's
// ORDERS_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
