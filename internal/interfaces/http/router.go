// Package http assembles the gin route tree and the HTTP server lifecycle.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/ChemNotation/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ChemNotation/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ChemNotation/internal/interfaces/http/handlers"
	"github.com/turtacn/ChemNotation/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and cross-cutting dependencies needed
// to build the route tree.
type RouterConfig struct {
	StructureHandler *handlers.StructureHandler
	HealthHandler    *handlers.HealthHandler

	Logger  logging.Logger
	Metrics *prometheus.Metrics
	Mode    string // gin mode: "debug" | "release" | "test"
}

// NewRouter builds the complete route tree.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	log := cfg.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestLogging(log))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api/v1")
	if h := cfg.StructureHandler; h != nil {
		structures := api.Group("/structures")
		structures.POST("/validate", h.Validate)
		structures.GET("/summary", h.Summary)
		structures.GET("/depiction", h.Depict)
		structures.POST("/import", h.Import)
		structures.GET("/records", h.ListRecords)
		structures.GET("/records/:id", h.GetRecord)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
	return r
}
