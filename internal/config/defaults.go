package config

import "time"

// ApplyDefaults fills every unset field with the platform default.  Explicit
// zero values that are meaningful (e.g. validation.debounce: 0 for immediate
// resolution) must be expressed through their dedicated sentinel, not by
// omission.
func ApplyDefaults(cfg *Config) {
	// Server
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15 * time.Second
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = 4 << 20 // molfile/SDF uploads
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	// Validation
	if cfg.Validation.MemoCapacity == 0 {
		cfg.Validation.MemoCapacity = 256
	}
	if cfg.Validation.CacheTTL == 0 {
		cfg.Validation.CacheTTL = 15 * time.Minute
	}

	// Depiction
	if cfg.Depiction.Width == 0 {
		cfg.Depiction.Width = 400
	}
	if cfg.Depiction.Height == 0 {
		cfg.Depiction.Height = 400
	}

	// Postgres
	if cfg.Postgres.Port == 0 {
		cfg.Postgres.Port = 5432
	}
	if cfg.Postgres.SSLMode == "" {
		cfg.Postgres.SSLMode = "disable"
	}
	if cfg.Postgres.MigrationsPath == "" {
		cfg.Postgres.MigrationsPath = "file://migrations"
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if len(cfg.Log.OutputPaths) == 0 {
		cfg.Log.OutputPaths = []string{"stdout"}
	}

	// Metrics
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "chemnote"
	}
}
