package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/Simplici0/partpricing/internal/core"
	"github.com/Simplici0/partpricing/pkg/logx"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env           string `envconfig:"APP_ENV" default:"development"`
	AdminEmail    string `envconfig:"ADMIN_EMAIL"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`
	SessionSecret string `envconfig:"SESSION_SECRET"`
	DBPath        string `envconfig:"DB_PATH" default:"./dev.db"`
	Port          string `envconfig:"PORT" default:"8080"`
	MaxUploadMB   int64  `envconfig:"MAX_UPLOAD_MB" default:"20"`

	RedisURL     string `envconfig:"REDIS_URL"`
	KafkaBrokers string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string `envconfig:"KAFKA_TOPIC" default:"pricing-runs"`
}

// Load reads the optional .env file, then the process environment.
func Load() (Config, error) {
	// Best-effort: production injects real environment variables.
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logx.Warn().Err(err).Msg("could not load .env file")
	}
	return FromEnv()
}

// FromEnv reads configuration from the process environment only.
func FromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process environment config: %w", err)
	}

	if cfg.AdminEmail == "" {
		logx.Warn().Msg("ADMIN_EMAIL is not set")
	}
	if cfg.AdminPassword == "" {
		logx.Warn().Msg("ADMIN_PASSWORD is not set")
	}
	if cfg.SessionSecret == "" {
		if cfg.Environment().IsProduction() {
			return Config{}, errors.New("SESSION_SECRET is required in production")
		}
		logx.Warn().Msg("SESSION_SECRET is not set, using an insecure development secret")
		cfg.SessionSecret = "insecure-development-secret"
	}

	return cfg, nil
}

func (c Config) Environment() core.Environment {
	return core.ParseEnvironment(c.Env)
}

// IsDev reports whether migrations should run automatically at startup.
func (c Config) IsDev() bool {
	env := c.Environment()
	return env == core.Development || env == core.Testing
}

// Brokers splits KAFKA_BROKERS; it is empty when event publishing is disabled.
func (c Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func (c Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}
