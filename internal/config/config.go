// Package config loads server and historian settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
)

// Config holds every setting read from the environment. A .env file is loaded by the
// commands through godotenv/autoload before Load runs.
type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"debug"`

	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	AutoStart      int           `env:"AUTO_START_PLAYERS" envDefault:"2"`
	TargetScore    int           `env:"TARGET_SCORE" envDefault:"0"`
	TokenExpire    time.Duration `env:"TOKEN_EXPIRE_TIME" envDefault:"0s"`
	RateInterval   time.Duration `env:"WS_RATE_INTERVAL" envDefault:"100ms"`
	RateBurst      int           `env:"WS_RATE_BURST" envDefault:"10"`
	// IdleTimeout reaps games nobody has joined for this long.
	IdleTimeout time.Duration `env:"IDLE_GAME_TIMEOUT" envDefault:"10m"`

	Redis     RedisConfig
	Database  DatabaseConfig
	Historian HistorianConfig
}

// RedisConfig configures the action log queue. An empty Addr disables it.
type RedisConfig struct {
	Addr      string `env:"REDIS_ADDR"`
	DB        int    `env:"REDIS_DB" envDefault:"0"`
	QueueName string `env:"HISTORIAN_QUEUE_NAME" envDefault:"uno_actions"`
}

// DatabaseConfig selects the archive backend. An empty Driver disables the archive.
type DatabaseConfig struct {
	Driver     string `env:"DB_DRIVER"`
	URL        string `env:"DATABASE_URL"`
	User       string `env:"POSTGRES_USER"`
	Password   string `env:"POSTGRES_PASSWORD"`
	Host       string `env:"PG_HOST" envDefault:"localhost"`
	PGPort     string `env:"PG_PORT" envDefault:"5432"`
	Name       string `env:"PG_DATABASE" envDefault:"uno"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"uno.db"`
}

// HistorianConfig tunes the action queue consumer.
type HistorianConfig struct {
	BatchSize int `env:"HISTORIAN_BATCH_SIZE" envDefault:"20"`
	FlushMS   int `env:"HISTORIAN_FLUSH_MS" envDefault:"500"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	switch cfg.Database.Driver {
	case "", "postgres", "sqlite":
	default:
		return Config{}, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}
	if cfg.AutoStart < 0 || cfg.AutoStart == 1 {
		return Config{}, fmt.Errorf("AUTO_START_PLAYERS must be 0 or at least 2, got %d", cfg.AutoStart)
	}
	return cfg, nil
}

// Addr is the listen address derived from Port.
func (c Config) Addr() string {
	return ":" + c.Port
}

// Level returns the configured logrus level, falling back to debug.
func (c Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.DebugLevel
	}
	return lvl
}

// DSN returns the Postgres connection string, preferring DATABASE_URL.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", d.User, d.Password, d.Host, d.PGPort, d.Name)
}

// FlushDelay is the interval between forced batch flushes.
func (h HistorianConfig) FlushDelay() time.Duration {
	return time.Duration(h.FlushMS) * time.Millisecond
}
