package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/ChemNotation/internal/application/structure"
	"github.com/turtacn/ChemNotation/internal/infrastructure/monitoring/logging"
)

// readinessTimeout bounds each dependency probe.
const readinessTimeout = 2 * time.Second

// Probe checks one dependency (database ping, cache ping).
type Probe func(ctx context.Context) error

// HealthHandler serves liveness and readiness.
type HealthHandler struct {
	svc    structure.Service
	probes map[string]Probe
	log    logging.Logger
}

// NewHealthHandler wires the handler.  probes may be nil.
func NewHealthHandler(svc structure.Service, probes map[string]Probe, log logging.Logger) *HealthHandler {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &HealthHandler{svc: svc, probes: probes, log: log.Named("handler.health")}
}

// Liveness reports that the process is up.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness reports engine states and dependency probe results.  The local
// engine is always ready, so a failing optional dependency degrades the
// response body but only a failing probe flips the status code.
func (h *HealthHandler) Readiness(c *gin.Context) {
	status := http.StatusOK
	deps := make(map[string]string, len(h.probes))
	for name, probe := range h.probes {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		err := probe(ctx)
		cancel()
		if err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			h.log.Warn("readiness probe failed", logging.String("dependency", name), logging.Err(err))
		} else {
			deps[name] = "ok"
		}
	}

	body := gin.H{
		"status":  "ok",
		"engines": h.svc.EngineStates(),
	}
	if len(deps) > 0 {
		body["dependencies"] = deps
	}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	c.JSON(status, body)
}
