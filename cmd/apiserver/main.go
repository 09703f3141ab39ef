// API server entry point for ChemNotation.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/ChemNotation/internal/application/structure"
	"github.com/turtacn/ChemNotation/internal/config"
	"github.com/turtacn/ChemNotation/internal/domain/backend"
	"github.com/turtacn/ChemNotation/internal/domain/depiction"
	"github.com/turtacn/ChemNotation/internal/infrastructure/database/postgres"
	"github.com/turtacn/ChemNotation/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/ChemNotation/internal/infrastructure/database/redis"
	"github.com/turtacn/ChemNotation/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ChemNotation/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ChemNotation/internal/infrastructure/monitoring/prometheus"
	httpserver "github.com/turtacn/ChemNotation/internal/interfaces/http"
	"github.com/turtacn/ChemNotation/internal/interfaces/http/handlers"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *httpPort > 0 {
		cfg.Server.Port = *httpPort
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", logging.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting ChemNotation API server",
		logging.Int("port", cfg.Server.Port),
		logging.Bool("persistence", cfg.Features.Persistence),
		logging.Bool("caching", cfg.Features.Caching),
		logging.Bool("events", cfg.Features.Events))

	metrics := prometheus.NewMetrics(cfg.Metrics)
	probes := map[string]handlers.Probe{}

	// Optional persistence.
	var repo structure.Repository
	if cfg.Features.Persistence {
		if cfg.Postgres.MigrationsPath != "" {
			if err := postgres.RunMigrations(cfg.Postgres.DSN(), cfg.Postgres.MigrationsPath); err != nil {
				return fmt.Errorf("migrations failed: %w", err)
			}
		}
		conn, err := postgres.NewConnection(ctx, cfg.Postgres, logger)
		if err != nil {
			return fmt.Errorf("postgres connection failed: %w", err)
		}
		defer conn.Close()
		repo = repositories.NewStructureRepository(conn.Pool(), logger)
		probes["postgres"] = conn.Ping
	}

	// Optional caching.
	var cache structure.Cache
	if cfg.Features.Caching {
		client, err := redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		defer client.Close()
		cache = redis.NewRedisCache(client, logger)
		probes["redis"] = client.Ping
	}

	// Optional event publishing.
	var producer structure.Publisher
	if cfg.Features.Events {
		p, err := kafka.NewProducer(cfg.Kafka, logger)
		if err != nil {
			return fmt.Errorf("kafka producer failed: %w", err)
		}
		defer p.Close()
		producer = p
	}

	comp := backend.NewComposite(backend.NewLocal(), nil, logger)
	comp.Warm(ctx)
	for engine, state := range comp.States() {
		metrics.BackendState.WithLabelValues(engine).Set(backendStateGauge(state))
	}

	svc := structure.NewService(structure.Options{
		Composite: comp,
		Repo:      repo,
		Cache:     cache,
		Producer:  producer,
		Metrics:   metrics,
		Logger:    logger,
		Render:    depiction.RenderOptions{Width: cfg.Depiction.Width, Height: cfg.Depiction.Height},
		CacheTTL:  cfg.Validation.CacheTTL,
		Source:    "apiserver",
	})

	router := httpserver.NewRouter(httpserver.RouterConfig{
		StructureHandler: handlers.NewStructureHandler(svc, logger),
		HealthHandler:    handlers.NewHealthHandler(svc, probes, logger),
		Logger:           logger,
		Metrics:          metrics,
		Mode:             cfg.Server.Mode,
	})

	srv := httpserver.NewServer(router, httpserver.ServerOptions{
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	if err := srv.Shutdown(context.Background()); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// backendStateGauge maps a lifecycle state name onto the gauge encoding:
// ready=1, loading=0.5, unloaded/failed=0.
func backendStateGauge(state string) float64 {
	switch state {
	case backend.StateReady.String():
		return 1
	case backend.StateLoading.String():
		return 0.5
	default:
		return 0
	}
}

// loadConfig loads from the file when it exists, otherwise from environment
// variables alone.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "config file %s not found, using environment and defaults\n", path)
		return config.LoadFromEnv()
	}
	return config.Load(path)
}
