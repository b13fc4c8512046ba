// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	id "custos/pkg/domain"
)

// Config is the full runtime configuration. Postgres, Redis, and Kafka
// are optional: without DATABASE_URL the service runs on the in-memory
// stores, which is the mode unit tests and local demos use.
type Config struct {
	Addr     string `env:"CUSTOS_ADDR" envDefault:":8080"`
	LogLevel string `env:"CUSTOS_LOG_LEVEL" envDefault:"info"`

	// AuthorityID is the one party allowed to register products.
	AuthorityID string `env:"CUSTOS_AUTHORITY_ID,required"`

	TokenSecret string        `env:"CUSTOS_TOKEN_SECRET,required"`
	TokenTTL    time.Duration `env:"CUSTOS_TOKEN_TTL" envDefault:"24h"`

	DatabaseURL string `env:"DATABASE_URL"`

	RedisURL string        `env:"REDIS_URL"`
	CacheTTL time.Duration `env:"CUSTOS_CACHE_TTL" envDefault:"5m"`

	KafkaBrokers   []string      `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic     string        `env:"KAFKA_TOPIC" envDefault:"custos.custody-events"`
	OutboxInterval time.Duration `env:"CUSTOS_OUTBOX_INTERVAL" envDefault:"1s"`

	ShutdownTimeout time.Duration `env:"CUSTOS_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &cfg, nil
}

// Authority parses the configured registering authority id.
func (c *Config) Authority() (id.PartyID, error) {
	authority, err := id.ParsePartyID(c.AuthorityID)
	if err != nil {
		return id.NilParty, fmt.Errorf("CUSTOS_AUTHORITY_ID: %w", err)
	}
	return authority, nil
}
