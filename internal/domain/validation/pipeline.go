// Package validation drives interactive notation checking: a debounced
// session state machine with monotonic sequence numbers and last-writer-wins
// result application, backed by a memo cache and the backend dispatcher.
package validation

import (
	"context"
	"errors"

	"github.com/turtacn/ChemNotation/internal/domain/backend"
	"github.com/turtacn/ChemNotation/internal/domain/notation"
	"github.com/turtacn/ChemNotation/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ChemNotation/pkg/types/chem"
)

// Resolver turns one notation string into a validation result.  Resolve
// never fails: a rejected notation is a result with Valid=false, and
// engine-level failures surface as internal-kind errors in the DTO.
type Resolver interface {
	Resolve(ctx context.Context, input string) chem.ValidationResultDTO
}

// Pipeline adapts the backend dispatcher to the Resolver contract.
type Pipeline struct {
	comp *backend.Composite
	log  logging.Logger
}

// NewPipeline wraps the dispatcher.
func NewPipeline(comp *backend.Composite, log logging.Logger) *Pipeline {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Pipeline{comp: comp, log: log.Named("validation.pipeline")}
}

// Resolve processes input and folds every outcome into a DTO.
func (p *Pipeline) Resolve(ctx context.Context, input string) chem.ValidationResultDTO {
	dto, _ := p.ResolveDispatch(ctx, input)
	return dto
}

// ResolveDispatch is Resolve plus the dispatch envelope, for callers that
// surface the serving engine (compound summaries, metrics).
func (p *Pipeline) ResolveDispatch(ctx context.Context, input string) (chem.ValidationResultDTO, backend.Dispatch) {
	res, disp, err := p.comp.Process(ctx, input)
	if err != nil {
		return chem.ValidationResultDTO{
			Valid:    false,
			Notation: input,
			Error:    notationError(err),
		}, disp
	}
	p.log.Debug("notation resolved",
		logging.String("engine", disp.Engine),
		logging.String("canonical", res.Canonical))
	return chem.ValidationResultDTO{
		Valid:            true,
		Notation:         input,
		CanonicalForm:    res.Canonical,
		MolecularFormula: res.Properties.Formula,
		MolecularWeight:  res.Properties.Weight,
		AtomCount:        res.Properties.AtomCount,
		BondCount:        res.Properties.BondCount,
		RingCount:        res.Properties.RingCount,
		FormalCharge:     res.Properties.FormalCharge,
	}, disp
}

// notationError maps a processing failure to the wire error shape.
func notationError(err error) *chem.NotationErrorDTO {
	var pe *notation.ParseError
	if errors.As(err, &pe) {
		return &chem.NotationErrorDTO{
			Kind:    string(pe.Kind),
			Offset:  pe.Offset,
			Message: pe.Message,
		}
	}
	return &chem.NotationErrorDTO{
		Kind:    "internal",
		Offset:  0,
		Message: err.Error(),
	}
}
