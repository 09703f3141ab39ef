// Package config defines the application configuration tree and its loading,
// defaulting, and validation.  Infrastructure sections reuse the config
// structs owned by the respective infrastructure packages, so a section and
// the code it configures can never drift apart.
package config

import (
	"fmt"
	"time"

	"github.com/turtacn/ChemNotation/internal/infrastructure/database/postgres"
	"github.com/turtacn/ChemNotation/internal/infrastructure/database/redis"
	"github.com/turtacn/ChemNotation/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ChemNotation/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ChemNotation/internal/infrastructure/monitoring/prometheus"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ValidationConfig tunes the interactive validation layer.
type ValidationConfig struct {
	Debounce     time.Duration `mapstructure:"debounce"`
	MemoCapacity int           `mapstructure:"memo_capacity"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
}

// DepictionConfig tunes the 2D renderer.
type DepictionConfig struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

// FeatureConfig switches optional infrastructure on and off.  With everything
// off the service runs fully in-process: local engine, no persistence, no
// events.
type FeatureConfig struct {
	Persistence bool `mapstructure:"persistence"`
	Caching     bool `mapstructure:"caching"`
	Events      bool `mapstructure:"events"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Top-level configuration
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root of the configuration tree.
type Config struct {
	Server     ServerConfig             `mapstructure:"server"`
	Validation ValidationConfig         `mapstructure:"validation"`
	Depiction  DepictionConfig          `mapstructure:"depiction"`
	Features   FeatureConfig            `mapstructure:"features"`
	Postgres   postgres.PostgresConfig  `mapstructure:"postgres"`
	Redis      redis.RedisConfig        `mapstructure:"redis"`
	Kafka      kafka.ProducerConfig     `mapstructure:"kafka"`
	Log        logging.LogConfig        `mapstructure:"log"`
	Metrics    prometheus.MetricsConfig `mapstructure:"metrics"`
}

// Validate checks cross-field consistency.  Field-level defaults are applied
// by ApplyDefaults before validation runs.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1, 65535], got %d", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode must be debug, release, or test, got %q", c.Server.Mode)
	}
	if c.Validation.Debounce < 0 {
		return fmt.Errorf("validation.debounce must be >= 0")
	}
	if c.Depiction.Width < 0 || c.Depiction.Height < 0 {
		return fmt.Errorf("depiction dimensions must be >= 0")
	}
	if c.Features.Persistence {
		if c.Postgres.Host == "" {
			return fmt.Errorf("postgres.host is required when features.persistence is enabled")
		}
		if c.Postgres.Database == "" {
			return fmt.Errorf("postgres.database is required when features.persistence is enabled")
		}
	}
	if c.Features.Caching && c.Redis.Mode != "cluster" && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when features.caching is enabled")
	}
	if c.Features.Events && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when features.events is enabled")
	}
	return nil
}
