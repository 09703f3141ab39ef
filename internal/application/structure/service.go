// Package structure provides the application-level service for structure
// operations: validation with caching and persistence, depiction, file
// import, and compound summaries.  It sits between the HTTP/CLI interfaces
// and the domain, wiring the optional infrastructure (cache, repository,
// event producer) around the always-available notation core.
package structure

import (
	"context"
	"time"

	"github.com/turtacn/ChemNotation/internal/domain/backend"
	"github.com/turtacn/ChemNotation/internal/domain/depiction"
	"github.com/turtacn/ChemNotation/internal/domain/notation"
	"github.com/turtacn/ChemNotation/internal/domain/validation"
	"github.com/turtacn/ChemNotation/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ChemNotation/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ChemNotation/internal/infrastructure/monitoring/prometheus"
	apperrors "github.com/turtacn/ChemNotation/pkg/errors"
	"github.com/turtacn/ChemNotation/pkg/types/chem"
	"github.com/turtacn/ChemNotation/pkg/types/common"
)

// cacheKeyPrefix namespaces validation entries inside the shared cache.
const cacheKeyPrefix = "validate:"

// Repository is the persistence surface the service needs.  Implemented by
// the PostgreSQL structure repository; nil disables persistence.
type Repository interface {
	Save(ctx context.Context, rec *chem.StructureRecordDTO) (*chem.StructureRecordDTO, error)
	FindByID(ctx context.Context, id common.ID) (*chem.StructureRecordDTO, error)
	FindByCanonical(ctx context.Context, canonical string) (*chem.StructureRecordDTO, error)
	List(ctx context.Context, p common.Pagination) ([]*chem.StructureRecordDTO, int64, error)
}

// Cache is the read-through cache surface.  Implemented by the Redis cache;
// nil disables caching.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Publisher emits lifecycle events.  Implemented by the Kafka producer; nil
// disables events.
type Publisher interface {
	PublishAsync(ctx context.Context, msg *kafka.Message)
}

// Service is the application-facing contract for structure operations.
type Service interface {
	Validate(ctx context.Context, input string) (chem.ValidationResultDTO, error)
	Depict(ctx context.Context, input string, format chem.DepictionFormat, opts depiction.RenderOptions) ([]byte, string, error)
	Import(ctx context.Context, format string, data []byte) (*ImportResult, error)
	Summarize(ctx context.Context, input string) (chem.CompoundSummaryDTO, error)
	ListRecords(ctx context.Context, p common.Pagination) (*RecordPage, error)
	GetRecord(ctx context.Context, id common.ID) (*chem.StructureRecordDTO, error)
	EngineStates() map[string]string
}

// ImportResult reports the outcome of a molfile or SDF import.
type ImportResult struct {
	Format    string          `json:"format"`
	Total     int             `json:"total"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Entries   []ImportedEntry `json:"entries"`
}

// ImportedEntry is the per-record outcome of an import.
type ImportedEntry struct {
	Index    int                      `json:"index"`
	Name     string                   `json:"name,omitempty"`
	Result   chem.ValidationResultDTO `json:"result"`
	RecordID common.ID                `json:"record_id,omitempty"`
}

// RecordPage is one page of persisted structure records.
type RecordPage struct {
	Records    []*chem.StructureRecordDTO `json:"records"`
	Pagination common.Pagination          `json:"pagination"`
}

// Options wires the service.  Only Composite is required; every other
// collaborator is optional and disables its feature when nil.
type Options struct {
	Composite *backend.Composite
	Repo      Repository
	Cache     Cache
	Producer  Publisher
	Metrics   *prometheus.Metrics
	Logger    logging.Logger
	Render    depiction.RenderOptions
	CacheTTL  time.Duration
	Source    string // event source identifier, e.g. "apiserver"
}

type serviceImpl struct {
	comp     *backend.Composite
	pipeline *validation.Pipeline
	repo     Repository
	cache    Cache
	producer Publisher
	metrics  *prometheus.Metrics
	logger   logging.Logger
	render   depiction.RenderOptions
	cacheTTL time.Duration
	source   string
}

// NewService builds the structure application service.
func NewService(opts Options) Service {
	log := opts.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}
	comp := opts.Composite
	if comp == nil {
		comp = backend.NewComposite(backend.NewLocal(), nil, log)
	}
	render := opts.Render
	if render.Width == 0 && render.Height == 0 {
		render = depiction.DefaultRenderOptions()
	}
	ttl := opts.CacheTTL
	if ttl == 0 {
		ttl = 15 * time.Minute
	}
	source := opts.Source
	if source == "" {
		source = "chemnote"
	}
	return &serviceImpl{
		comp:     comp,
		pipeline: validation.NewPipeline(comp, log),
		repo:     opts.Repo,
		cache:    opts.Cache,
		producer: opts.Producer,
		metrics:  opts.Metrics,
		logger:   log.Named("structure.service"),
		render:   render,
		cacheTTL: ttl,
		source:   source,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Validate
// ─────────────────────────────────────────────────────────────────────────────

// Validate resolves a notation string.  Results are served from the shared
// cache when available; fresh valid results are persisted and announced as
// events.  Validate itself never fails for a rejected notation — the DTO
// carries the error.
func (s *serviceImpl) Validate(ctx context.Context, input string) (chem.ValidationResultDTO, error) {
	dto, _, err := s.validate(ctx, input)
	return dto, err
}

func (s *serviceImpl) validate(ctx context.Context, input string) (chem.ValidationResultDTO, backend.Dispatch, error) {
	if s.cache != nil {
		var cached chem.ValidationResultDTO
		if err := s.cache.Get(ctx, cacheKeyPrefix+input, &cached); err == nil {
			s.countCache("validation", true)
			return cached, backend.Dispatch{Engine: "cache"}, nil
		}
		s.countCache("validation", false)
	}

	start := time.Now()
	dto, disp := s.pipeline.ResolveDispatch(ctx, input)
	if s.metrics != nil {
		s.metrics.ObserveValidation(disp.Engine, dto.Valid, disp.Degraded, time.Since(start))
	}

	if dto.Valid {
		s.persistAndAnnounce(ctx, input, dto)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKeyPrefix+input, dto, s.cacheTTL); err != nil {
			s.logger.Warn("validation cache write failed", logging.Err(err))
		}
	}
	return dto, disp, nil
}

// persistAndAnnounce stores the validated structure and emits the lifecycle
// event.  Both are best-effort: the validation result stands even when the
// registry or the broker is down.
func (s *serviceImpl) persistAndAnnounce(ctx context.Context, input string, dto chem.ValidationResultDTO) common.ID {
	var recordID common.ID
	if s.repo != nil {
		saved, err := s.repo.Save(ctx, &chem.StructureRecordDTO{
			CanonicalForm:    dto.CanonicalForm,
			MolecularFormula: dto.MolecularFormula,
			MolecularWeight:  dto.MolecularWeight,
			SourceNotation:   input,
		})
		if err != nil {
			s.logger.Warn("failed to persist structure record",
				logging.String("canonical", dto.CanonicalForm), logging.Err(err))
		} else {
			recordID = saved.ID
		}
	}

	if s.producer != nil {
		msg, err := kafka.StructureValidatedMessage(s.source, chem.StructureValidatedEvent{
			RecordID:         recordID,
			CanonicalForm:    dto.CanonicalForm,
			MolecularFormula: dto.MolecularFormula,
			MolecularWeight:  dto.MolecularWeight,
			OccurredAt:       common.NewTimestamp(),
		})
		if err != nil {
			s.logger.Warn("failed to build validation event", logging.Err(err))
		} else {
			s.publish(ctx, msg)
		}
	}
	return recordID
}

// publish hands the message to the async producer and counts the attempt.
func (s *serviceImpl) publish(ctx context.Context, msg *kafka.Message) {
	s.producer.PublishAsync(context.WithoutCancel(ctx), msg)
	if s.metrics != nil {
		s.metrics.EventsPublishedTotal.WithLabelValues(msg.Topic, "enqueued").Inc()
	}
}

func (s *serviceImpl) countCache(name string, hit bool) {
	if s.metrics == nil {
		return
	}
	if hit {
		s.metrics.CacheHitsTotal.WithLabelValues(name).Inc()
	} else {
		s.metrics.CacheMissesTotal.WithLabelValues(name).Inc()
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Depict
// ─────────────────────────────────────────────────────────────────────────────

// Depict renders input and returns the image bytes plus their MIME type.
func (s *serviceImpl) Depict(ctx context.Context, input string, format chem.DepictionFormat, opts depiction.RenderOptions) ([]byte, string, error) {
	if format == "" {
		format = chem.FormatSVG
	}
	if !format.IsValid() {
		return nil, "", apperrors.New(apperrors.CodeInvalidParam, "unsupported depiction format")
	}
	if opts.Width == 0 && opts.Height == 0 {
		opts = s.render
	}

	start := time.Now()
	out, _, err := s.comp.Depict(ctx, input, format, opts)
	if s.metrics != nil {
		s.metrics.ObserveDepiction(string(format), err, time.Since(start))
	}
	if err != nil {
		return nil, "", err
	}
	return out, format.ContentType(), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Import
// ─────────────────────────────────────────────────────────────────────────────

// Import parses a molfile ("mol") or SD file ("sdf"), re-validates every
// record through the canonical notation path, and persists the valid ones.
// One bad record does not abort the rest.
func (s *serviceImpl) Import(ctx context.Context, format string, data []byte) (*ImportResult, error) {
	type entry struct {
		mol  *notation.Molecule
		name string
	}
	var entries []entry

	switch format {
	case "mol":
		mol, err := notation.ParseMolfile(string(data))
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry{mol: mol})
	case "sdf":
		records, err := notation.ParseSDF(string(data))
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			entries = append(entries, entry{mol: r.Molecule, name: r.Name})
		}
	default:
		return nil, apperrors.New(apperrors.CodeInvalidParam, "unsupported import format")
	}

	result := &ImportResult{Format: format, Total: len(entries)}
	for i, e := range entries {
		canonical := notation.Canonicalize(e.mol)
		// The canonical string round-trips through the full validation path,
		// so imported structures get the same checks as typed ones.
		dto, _ := s.pipeline.ResolveDispatch(ctx, canonical)
		item := ImportedEntry{Index: i, Name: e.name, Result: dto}
		if dto.Valid {
			item.RecordID = s.persistAndAnnounce(ctx, canonical, dto)
			result.Succeeded++
		} else {
			result.Failed++
		}
		result.Entries = append(result.Entries, item)
	}

	if s.metrics != nil {
		s.metrics.ImportsTotal.WithLabelValues(format, "ok").Add(float64(result.Succeeded))
		s.metrics.ImportsTotal.WithLabelValues(format, "error").Add(float64(result.Failed))
	}
	if s.producer != nil && result.Total > 0 {
		msg, err := kafka.StructureImportedMessage(s.source, chem.StructureImportedEvent{
			Format:     format,
			Total:      result.Total,
			Succeeded:  result.Succeeded,
			Failed:     result.Failed,
			OccurredAt: common.NewTimestamp(),
		})
		if err != nil {
			s.logger.Warn("failed to build import event", logging.Err(err))
		} else {
			s.publish(ctx, msg)
		}
	}
	s.logger.Info("structure import finished",
		logging.String("format", format),
		logging.Int("total", result.Total),
		logging.Int("failed", result.Failed))
	return result, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Summarize
// ─────────────────────────────────────────────────────────────────────────────

// Summarize combines validation and depiction availability for one notation.
func (s *serviceImpl) Summarize(ctx context.Context, input string) (chem.CompoundSummaryDTO, error) {
	dto, disp, err := s.validate(ctx, input)
	if err != nil {
		return chem.CompoundSummaryDTO{}, err
	}
	return chem.CompoundSummaryDTO{
		Validation:   dto,
		HasDepiction: dto.Valid,
		Degraded:     disp.Degraded,
		Backend:      disp.Engine,
	}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Records
// ─────────────────────────────────────────────────────────────────────────────

// ListRecords pages through the persisted registry.
func (s *serviceImpl) ListRecords(ctx context.Context, p common.Pagination) (*RecordPage, error) {
	if s.repo == nil {
		return nil, apperrors.New(apperrors.ErrCodeNotImplemented, "persistence is disabled")
	}
	records, total, err := s.repo.List(ctx, p)
	if err != nil {
		return nil, err
	}
	p.Total = total
	return &RecordPage{Records: records, Pagination: p}, nil
}

// GetRecord fetches one persisted record.
func (s *serviceImpl) GetRecord(ctx context.Context, id common.ID) (*chem.StructureRecordDTO, error) {
	if s.repo == nil {
		return nil, apperrors.New(apperrors.ErrCodeNotImplemented, "persistence is disabled")
	}
	return s.repo.FindByID(ctx, id)
}

// EngineStates reports backend lifecycle states for the health endpoint.
func (s *serviceImpl) EngineStates() map[string]string {
	return s.comp.States()
}
