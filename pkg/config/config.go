package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const defaultJWTSecret = "your-secret-key-change-this-in-production"

type Config struct {
	APIPort     string `env:"API_PORT" envDefault:"8080"`
	DBPath      string `env:"DB_PATH" envDefault:"./data/nocturne.db"`
	JWTSecret   string `env:"JWT_SECRET"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	RedisURL    string `env:"REDIS_URL"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"text"`
	SeedDemo    bool   `env:"SEED_DEMO" envDefault:"false"`

	GatewayTimeout   time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"5s"`
	BreakerThreshold int           `env:"GATEWAY_BREAKER_THRESHOLD" envDefault:"5"`
	BreakerTimeout   time.Duration `env:"GATEWAY_BREAKER_TIMEOUT" envDefault:"30s"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// UsingDefaultSecret reports whether JWT_SECRET was left unset; the default
// is filled in so development servers still start.
func (c *Config) UsingDefaultSecret() bool {
	if c.JWTSecret == "" {
		c.JWTSecret = defaultJWTSecret
		return true
	}
	return c.JWTSecret == defaultJWTSecret
}

func (c *Config) JSONLogs() bool { return c.LogFormat == "json" }
