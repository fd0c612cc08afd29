package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration values.
type Config struct {
	// Server
	Port        string
	Environment string

	// Redis (empty addr = in-process inventory and session store)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Booking engine
	MaxSeatsPerBooking int
	HoldTTL            time.Duration
	HoldSweepInterval  time.Duration
	SessionTTL         time.Duration
	Currency           string

	// Payment
	PaymentProvider string
	PaymentTimeout  time.Duration
	StripeKey       string

	// PubNub delivery channel
	PubNubPublishKey   string
	PubNubSubscribeKey string

	// Storage
	SQLitePath string
}

// Load reads config.yaml if present and falls back to environment variables.
func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	viper.SetDefault("PORT", "8090")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("MAX_SEATS_PER_BOOKING", 4)
	viper.SetDefault("HOLD_TTL", "10m")
	viper.SetDefault("HOLD_SWEEP_INTERVAL", "30s")
	viper.SetDefault("SESSION_TTL", "30m")
	viper.SetDefault("CURRENCY", "GHS")
	viper.SetDefault("PAYMENT_PROVIDER", "sandbox")
	viper.SetDefault("PAYMENT_TIMEOUT", "30s")
	viper.SetDefault("STRIPE_KEY", "")
	viper.SetDefault("PUBNUB_PUBLISH_KEY", "")
	viper.SetDefault("PUBNUB_SUBSCRIBE_KEY", "")
	viper.SetDefault("SQLITE_PATH", "")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	cfg := &Config{
		Port:               viper.GetString("PORT"),
		Environment:        viper.GetString("ENVIRONMENT"),
		RedisAddr:          viper.GetString("REDIS_ADDR"),
		RedisPassword:      viper.GetString("REDIS_PASSWORD"),
		RedisDB:            viper.GetInt("REDIS_DB"),
		MaxSeatsPerBooking: viper.GetInt("MAX_SEATS_PER_BOOKING"),
		HoldTTL:            viper.GetDuration("HOLD_TTL"),
		HoldSweepInterval:  viper.GetDuration("HOLD_SWEEP_INTERVAL"),
		SessionTTL:         viper.GetDuration("SESSION_TTL"),
		Currency:           viper.GetString("CURRENCY"),
		PaymentProvider:    viper.GetString("PAYMENT_PROVIDER"),
		PaymentTimeout:     viper.GetDuration("PAYMENT_TIMEOUT"),
		StripeKey:          viper.GetString("STRIPE_KEY"),
		PubNubPublishKey:   viper.GetString("PUBNUB_PUBLISH_KEY"),
		PubNubSubscribeKey: viper.GetString("PUBNUB_SUBSCRIBE_KEY"),
		SQLitePath:         viper.GetString("SQLITE_PATH"),
	}

	if cfg.MaxSeatsPerBooking < 1 {
		cfg.MaxSeatsPerBooking = 1
	}

	return cfg
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
