package backend

import (
	"context"
	"errors"

	"github.com/turtacn/ChemNotation/internal/domain/depiction"
	"github.com/turtacn/ChemNotation/internal/domain/notation"
	"github.com/turtacn/ChemNotation/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ChemNotation/pkg/types/chem"
)

// Composite routes operations across registered engines.  Handles are tried
// in registration order; the first one that is loadable, capable of the
// operation, and succeeds wins.  The local engine terminates every dispatch,
// so Composite never fails because an optional engine is missing — it
// degrades instead.
type Composite struct {
	local   Backend
	handles []*Handle
	log     logging.Logger
}

// NewComposite builds a dispatcher over the optional handles with local as
// the fallback engine.
func NewComposite(local Backend, handles []*Handle, log logging.Logger) *Composite {
	if local == nil {
		local = NewLocal()
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Composite{local: local, handles: handles, log: log.Named("backend.composite")}
}

// Dispatch is the outcome envelope: which engine served the operation and
// whether the result is degraded (an optional engine was configured but the
// operation fell back to local).
type Dispatch struct {
	Engine   string
	Degraded bool
}

// Process validates and canonicalizes input on the best available engine.
// Parse failures are returned as-is: an invalid notation is invalid on every
// engine, so no fallback is attempted for *notation.ParseError.
func (c *Composite) Process(ctx context.Context, input string) (*Result, Dispatch, error) {
	need := CapValidate | CapCanonicalize | CapProperties
	for _, h := range c.handles {
		b, err := h.Load(ctx)
		if err != nil || !b.Capabilities().Has(need) {
			continue
		}
		res, err := b.Process(ctx, input)
		if err == nil {
			return res, Dispatch{Engine: b.Name()}, nil
		}
		if isParseError(err) {
			return nil, Dispatch{Engine: b.Name()}, err
		}
		c.log.Warn("engine failed, falling back",
			logging.String("engine", b.Name()), logging.Err(err))
	}
	res, err := c.local.Process(ctx, input)
	return res, Dispatch{Engine: c.local.Name(), Degraded: c.degraded()}, err
}

// Depict renders input on the best depiction-capable engine.
func (c *Composite) Depict(ctx context.Context, input string, format chem.DepictionFormat, opts depiction.RenderOptions) ([]byte, Dispatch, error) {
	for _, h := range c.handles {
		b, err := h.Load(ctx)
		if err != nil || !b.Capabilities().Has(CapDepict) {
			continue
		}
		out, err := b.Depict(ctx, input, format, opts)
		if err == nil {
			return out, Dispatch{Engine: b.Name()}, nil
		}
		if isParseError(err) {
			return nil, Dispatch{Engine: b.Name()}, err
		}
		c.log.Warn("engine depiction failed, falling back",
			logging.String("engine", b.Name()), logging.Err(err))
	}
	out, err := c.local.Depict(ctx, input, format, opts)
	return out, Dispatch{Engine: c.local.Name(), Degraded: c.degraded()}, err
}

// Warm triggers loading of every handle without waiting for first use.
// Errors are recorded on the handles and logged; Warm itself never fails.
func (c *Composite) Warm(ctx context.Context) {
	for _, h := range c.handles {
		if _, err := h.Load(ctx); err != nil {
			c.log.Warn("engine warmup failed",
				logging.String("engine", h.Name()), logging.Err(err))
		}
	}
}

// States reports the lifecycle state of every registered handle, keyed by
// engine name.  Used by the health endpoint.
func (c *Composite) States() map[string]string {
	out := make(map[string]string, len(c.handles)+1)
	out[c.local.Name()] = StateReady.String()
	for _, h := range c.handles {
		out[h.Name()] = h.State().String()
	}
	return out
}

// degraded reports whether optional engines are configured; when they are
// and local serves the request, the caller sees a degraded result.
func (c *Composite) degraded() bool { return len(c.handles) > 0 }

func isParseError(err error) bool {
	var pe *notation.ParseError
	return errors.As(err, &pe)
}
