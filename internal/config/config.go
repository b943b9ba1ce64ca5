package config

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	RunAddress    string `env:"RUN_ADDRESS"`
	DatabaseDSN   string `env:"DATABASE_URI"`
	MigrationsDir string `env:"MIGRATIONS_DIR"`

	JWTActorSecret string `env:"JWT_SECRET"`
	WebhookSecret  string `env:"WEBHOOK_SECRET"`

	PixProviderAddress    string `env:"PIX_PROVIDER_ADDRESS"`
	CardProviderAddress   string `env:"CARD_PROVIDER_ADDRESS"`
	BoletoProviderAddress string `env:"BOLETO_PROVIDER_ADDRESS"`
	ShippingAPIAddress    string `env:"SHIPPING_API_ADDRESS"`
	AddressAPIAddress     string `env:"ADDRESS_API_ADDRESS"`

	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT"`
	QuoteTTL        time.Duration `env:"QUOTE_TTL"`
	WorkerInterval  time.Duration `env:"WORKER_INTERVAL"`
	DraftWindow     time.Duration `env:"DRAFT_WINDOW"`
}

func LoadConfig() (*Config, error) {
	// a missing .env file is fine, env vars may come from the environment.
	_ = godotenv.Load()

	var flagsConfig, envConfig Config

	if envParseErr := env.Parse(&envConfig); envParseErr != nil {
		return nil, fmt.Errorf("parse env config: %s", envParseErr.Error())
	}

	loadFlags(&flagsConfig)

	conf := mergeConfig(&envConfig, &flagsConfig)
	if conf.DatabaseDSN == "" {
		return nil, errors.New("database DSN is not set")
	}
	if conf.JWTActorSecret == "" {
		return nil, errors.New("JWT secret is not set")
	}
	if conf.WebhookSecret == "" {
		return nil, errors.New("webhook secret is not set")
	}
	return conf, nil
}

func MustLoadConfig() *Config {
	config, err := LoadConfig()
	if err != nil {
		panic(err)
	}
	return config
}

func loadFlags(flagConfig *Config) {
	flag.StringVar(&flagConfig.RunAddress, "a", "localhost:8080", "Run address in format host:port")
	flag.StringVar(&flagConfig.DatabaseDSN, "d", "", "Database DSN")
	flag.StringVar(&flagConfig.MigrationsDir, "m", "internal/db/migrations", "Database migrations directory")

	flag.StringVar(&flagConfig.JWTActorSecret, "jwt-secret", "", "JWT signing secret")
	flag.StringVar(&flagConfig.WebhookSecret, "webhook-secret", "", "Webhook HMAC secret")

	flag.StringVar(&flagConfig.PixProviderAddress, "pix", "", "Pix provider base URL")
	flag.StringVar(&flagConfig.CardProviderAddress, "card", "", "Card provider base URL")
	flag.StringVar(&flagConfig.BoletoProviderAddress, "boleto", "", "Boleto provider base URL")
	flag.StringVar(&flagConfig.ShippingAPIAddress, "shipping", "", "Shipping quotes API base URL")
	flag.StringVar(&flagConfig.AddressAPIAddress, "addresses", "", "Address book API base URL")

	flag.DurationVar(&flagConfig.ProviderTimeout, "provider-timeout", 10*time.Second, "Payment provider request timeout")
	flag.DurationVar(&flagConfig.QuoteTTL, "quote-ttl", 5*time.Minute, "Shipping quote freshness window")
	flag.DurationVar(&flagConfig.WorkerInterval, "worker-interval", time.Minute, "Release worker pass interval")
	flag.DurationVar(&flagConfig.DraftWindow, "draft-window", 30*time.Minute, "Unpaid checkout draft lifetime")

	flag.Parse()
}

func mergeConfig(envConfig, flagsConfig *Config) *Config {
	return &Config{
		RunAddress:    defaultIfBlank(envConfig.RunAddress, flagsConfig.RunAddress),
		DatabaseDSN:   defaultIfBlank(envConfig.DatabaseDSN, flagsConfig.DatabaseDSN),
		MigrationsDir: defaultIfBlank(envConfig.MigrationsDir, flagsConfig.MigrationsDir),

		JWTActorSecret: defaultIfBlank(envConfig.JWTActorSecret, flagsConfig.JWTActorSecret),
		WebhookSecret:  defaultIfBlank(envConfig.WebhookSecret, flagsConfig.WebhookSecret),

		PixProviderAddress:    defaultIfBlank(envConfig.PixProviderAddress, flagsConfig.PixProviderAddress),
		CardProviderAddress:   defaultIfBlank(envConfig.CardProviderAddress, flagsConfig.CardProviderAddress),
		BoletoProviderAddress: defaultIfBlank(envConfig.BoletoProviderAddress, flagsConfig.BoletoProviderAddress),
		ShippingAPIAddress:    defaultIfBlank(envConfig.ShippingAPIAddress, flagsConfig.ShippingAPIAddress),
		AddressAPIAddress:     defaultIfBlank(envConfig.AddressAPIAddress, flagsConfig.AddressAPIAddress),

		ProviderTimeout: defaultIfZero(envConfig.ProviderTimeout, flagsConfig.ProviderTimeout),
		QuoteTTL:        defaultIfZero(envConfig.QuoteTTL, flagsConfig.QuoteTTL),
		WorkerInterval:  defaultIfZero(envConfig.WorkerInterval, flagsConfig.WorkerInterval),
		DraftWindow:     defaultIfZero(envConfig.DraftWindow, flagsConfig.DraftWindow),
	}
}

func defaultIfBlank(value string, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}

func defaultIfZero(value time.Duration, defaultValue time.Duration) time.Duration {
	if value == 0 {
		return defaultValue
	}
	return value
}
