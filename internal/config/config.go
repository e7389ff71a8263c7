// Package config loads the trading client's runtime configuration from
// environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AppConfig aggregates the client's runtime configuration.
type AppConfig struct {
	ExchangeURL        string
	ClientID           string
	ClientSecret       string
	InsecureSkipVerify bool

	Instrument      string
	SpreadThreshold decimal.Decimal
	Edge            decimal.Decimal
	Size            decimal.Decimal
	StaleTimeout    time.Duration
	TickInterval    time.Duration

	// BookApplyMode is the explicit surfacing of the snapshot-vs-diff open
	// question: "snapshot" clears and rebuilds the book mirror on every
	// book.* notification (the only implemented mode); "diff" is rejected
	// at load time rather than silently falling back to snapshot behavior.
	BookApplyMode string
	// BookChannel overrides the public book channel name, selecting
	// between the raw feed and a grouped/interval-limited variant.
	BookChannel string

	EventLogPath string
	MetricsAddr  string
}

// Load reads AppConfig from the environment and validates it. Credentials
// are read here but treated as opaque strings by every other component;
// acquiring them is this package's sole responsibility.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ExchangeURL:        getEnv("EXCHANGE_URL", "wss://www.deribit.com/ws/api/v2"),
		ClientID:           os.Getenv("DERIBIT_CLIENT_ID"),
		ClientSecret:       os.Getenv("DERIBIT_CLIENT_SECRET"),
		InsecureSkipVerify: getEnvBool("EXCHANGE_TLS_INSECURE_SKIP_VERIFY", false),

		Instrument:      getEnv("TRADING_INSTRUMENT", "BTC-PERPETUAL"),
		SpreadThreshold: getEnvDecimal("STRATEGY_SPREAD_THRESHOLD", decimal.NewFromFloat(10.0)),
		Edge:            getEnvDecimal("STRATEGY_EDGE", decimal.NewFromFloat(0.5)),
		Size:            getEnvDecimal("STRATEGY_SIZE", decimal.NewFromFloat(10.0)),
		StaleTimeout:    getEnvDuration("STRATEGY_STALE_TIMEOUT", 5*time.Second),
		TickInterval:    getEnvDuration("STRATEGY_TICK_INTERVAL", 1*time.Second),

		BookApplyMode: getEnv("BOOK_APPLY_MODE", "snapshot"),
		BookChannel:   getEnv("BOOK_CHANNEL", ""),

		EventLogPath: getEnv("EVENT_LOG_PATH", "events.log"),
		MetricsAddr:  getEnv("METRICS_ADDR", ":9464"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *AppConfig) validate() error {
	var missing []string

	if c.ClientID == "" {
		missing = append(missing, "DERIBIT_CLIENT_ID")
	}
	if c.ClientSecret == "" {
		missing = append(missing, "DERIBIT_CLIENT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if c.BookApplyMode != "snapshot" {
		return fmt.Errorf("config: book apply mode %q is not implemented (only \"snapshot\" is supported)", c.BookApplyMode)
	}

	if !c.SpreadThreshold.IsPositive() {
		return fmt.Errorf("config: STRATEGY_SPREAD_THRESHOLD must be positive, got %s", c.SpreadThreshold)
	}
	if !c.Size.IsPositive() {
		return fmt.Errorf("config: STRATEGY_SIZE must be positive, got %s", c.Size)
	}
	if c.Edge.IsNegative() {
		return fmt.Errorf("config: STRATEGY_EDGE must not be negative, got %s", c.Edge)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	switch strings.ToLower(value) {
	case "true", "1", "yes", "y", "on":
		return true
	case "false", "0", "no", "n", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if parsed, err := decimal.NewFromString(value); err == nil {
		return parsed
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if parsed, err := time.ParseDuration(value); err == nil {
		return parsed
	}
	return defaultValue
}
