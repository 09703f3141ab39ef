package backend

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/turtacn/ChemNotation/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/ChemNotation/pkg/errors"
)

// Factory constructs a Backend.  Factories may be slow (loading a native
// library, dialing a remote service); the Handle makes sure a factory runs at
// most once regardless of how many goroutines trigger the load.
type Factory func(ctx context.Context) (Backend, error)

// Handle wraps a lazily-loaded Backend with its lifecycle state.  The load
// happens on first use; concurrent first uses collapse into a single factory
// call.  A failed load is terminal — the handle stays Failed and every later
// Load returns the original error.
type Handle struct {
	name    string
	factory Factory
	log     logging.Logger

	sf singleflight.Group

	mu      sync.RWMutex
	state   State
	backend Backend
	loadErr error
}

// NewHandle creates an unloaded handle for a named engine.
func NewHandle(name string, factory Factory, log logging.Logger) *Handle {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Handle{
		name:    name,
		factory: factory,
		log:     log.Named("backend").With(logging.String("engine", name)),
		state:   StateUnloaded,
	}
}

// Name returns the engine name.
func (h *Handle) Name() string { return h.name }

// State returns the current lifecycle state.
func (h *Handle) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Ready returns the loaded Backend when the handle is Ready.
func (h *Handle) Ready() (Backend, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.state == StateReady {
		return h.backend, true
	}
	return nil, false
}

// Load returns the Backend, loading it on first call.  Concurrent callers
// share one factory invocation.  After a failure, Load keeps returning the
// recorded error without re-invoking the factory.
func (h *Handle) Load(ctx context.Context) (Backend, error) {
	h.mu.RLock()
	state, backend, loadErr := h.state, h.backend, h.loadErr
	h.mu.RUnlock()

	switch state {
	case StateReady:
		return backend, nil
	case StateFailed:
		return nil, loadErr
	}

	v, err, _ := h.sf.Do(h.name, func() (interface{}, error) {
		// A racing caller may have finished the transition already.
		h.mu.Lock()
		switch h.state {
		case StateReady:
			b := h.backend
			h.mu.Unlock()
			return b, nil
		case StateFailed:
			e := h.loadErr
			h.mu.Unlock()
			return nil, e
		}
		h.state = StateLoading
		h.mu.Unlock()

		h.log.Info("loading backend engine")
		b, err := h.factory(ctx)

		h.mu.Lock()
		defer h.mu.Unlock()
		if err != nil {
			h.state = StateFailed
			h.loadErr = apperrors.Wrap(err, apperrors.ErrCodeBackendLoadFailed, "backend engine failed to load").
				WithDetail(h.name)
			h.log.Error("backend engine load failed", logging.Err(err))
			return nil, h.loadErr
		}
		h.state = StateReady
		h.backend = b
		h.log.Info("backend engine ready",
			logging.String("capabilities", b.Capabilities().String()))
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Backend), nil
}
