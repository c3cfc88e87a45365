package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// CallbackSecret keys the MAC on callback action tokens. Kept separate
	// from the brain shared secret so the two rotate independently.
	CallbackSecret string `env:"CALLBACK_SECRET"`

	// IdentityCache selects the identity snapshot store: "memory" or "redis".
	IdentityCache    string        `env:"IDENTITY_CACHE,    default=memory"`
	IdentityTTL      time.Duration `env:"IDENTITY_TTL,      default=300s"`
	BroadcastWorkers int           `env:"BROADCAST_WORKERS, default=4"`

	Brain BrainConfig
	Redis RedisConfig
}

type BrainConfig struct {
	Endpoint    string        `env:"BRAIN_ENDPOINT,     default=https://brain.pconlabs.net:8080"`
	DevEndpoint string        `env:"BRAIN_DEV_ENDPOINT, default=http://localhost:5000"`
	Secret      string        `env:"BRAIN_SECRET"`
	Timeout     time.Duration `env:"BRAIN_TIMEOUT,      default=15s"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	DB       int    `env:"REDIS_DB,       default=0"`
	Password string `env:"REDIS_PASSWORD"`
}

// BrainEndpoint returns the brain base URL for the configured environment.
// Development talks to a locally running brain instance.
func (c *Config) BrainEndpoint() string {
	if c.Env == "development" {
		return c.Brain.DevEndpoint
	}
	return c.Brain.Endpoint
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
