// Package backend abstracts the chemistry engine behind validation,
// canonicalization, property derivation, and depiction.  The built-in local
// engine always works; optional external engines (native toolkit bindings,
// remote services) are registered as lazily-loaded handles and the composite
// dispatcher routes each operation to the best available engine, falling
// back to local when necessary.
package backend

import (
	"context"
	"strings"

	"github.com/turtacn/ChemNotation/internal/domain/depiction"
	"github.com/turtacn/ChemNotation/internal/domain/notation"
	"github.com/turtacn/ChemNotation/pkg/types/chem"
)

// Capability is a bit set of the operations a backend can serve.
type Capability uint8

const (
	CapValidate Capability = 1 << iota
	CapCanonicalize
	CapProperties
	CapDepict

	// CapAll marks a full-featured backend.  The local engine always
	// advertises CapAll.
	CapAll = CapValidate | CapCanonicalize | CapProperties | CapDepict
)

// Has reports whether c includes every capability in want.
func (c Capability) Has(want Capability) bool { return c&want == want }

func (c Capability) String() string {
	if c == 0 {
		return "none"
	}
	var parts []string
	if c.Has(CapValidate) {
		parts = append(parts, "validate")
	}
	if c.Has(CapCanonicalize) {
		parts = append(parts, "canonicalize")
	}
	if c.Has(CapProperties) {
		parts = append(parts, "properties")
	}
	if c.Has(CapDepict) {
		parts = append(parts, "depict")
	}
	return strings.Join(parts, "|")
}

// State is the lifecycle position of a lazily-loaded backend.
//
//	Unloaded ──► Loading ──► Ready
//	                  └────► Failed (terminal)
//
// Failed is terminal: a backend that failed to load is never retried, so a
// broken engine cannot flap between states under load.
type State int32

const (
	StateUnloaded State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of processing one notation string.
type Result struct {
	Canonical  string
	Properties notation.Properties
	Molecule   *notation.Molecule
}

// Backend is one chemistry engine.  Implementations must be safe for
// concurrent use.
type Backend interface {
	// Name identifies the engine in logs, metrics, and API responses.
	Name() string

	// Capabilities reports which operations this engine serves.
	Capabilities() Capability

	// Process parses, canonicalizes, and derives properties for input.
	// Rejected notations return a *notation.ParseError (possibly wrapped).
	Process(ctx context.Context, input string) (*Result, error)

	// Depict renders input in the requested format.
	Depict(ctx context.Context, input string, format chem.DepictionFormat, opts depiction.RenderOptions) ([]byte, error)
}
