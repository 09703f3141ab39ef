package backend

import (
	"context"

	"github.com/turtacn/ChemNotation/internal/domain/depiction"
	"github.com/turtacn/ChemNotation/internal/domain/notation"
	apperrors "github.com/turtacn/ChemNotation/pkg/errors"
	"github.com/turtacn/ChemNotation/pkg/types/chem"
)

// LocalName is the engine name of the built-in implementation.
const LocalName = "local"

// localBackend is the built-in pure-Go engine.  It needs no loading, cannot
// fail to initialize, and advertises every capability, which makes it the
// guaranteed fallback of the composite dispatcher.
type localBackend struct{}

// NewLocal returns the built-in engine.
func NewLocal() Backend { return localBackend{} }

func (localBackend) Name() string { return LocalName }

func (localBackend) Capabilities() Capability { return CapAll }

func (localBackend) Process(ctx context.Context, input string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := notation.Parse(input)
	if err != nil {
		return nil, err
	}
	return &Result{
		Canonical:  notation.Canonicalize(m),
		Properties: notation.ComputeProperties(m),
		Molecule:   m,
	}, nil
}

func (localBackend) Depict(ctx context.Context, input string, format chem.DepictionFormat, opts depiction.RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := notation.Parse(input)
	if err != nil {
		return nil, err
	}
	layout := depiction.ComputeLayout(m)
	switch format {
	case chem.FormatPNG:
		return depiction.RenderPNG(layout, opts)
	case chem.FormatSVG, "":
		return depiction.RenderSVG(layout, opts), nil
	default:
		return nil, apperrors.InvalidParam("unsupported depiction format").WithDetail(string(format))
	}
}
