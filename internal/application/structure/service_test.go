package structure

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ChemNotation/internal/domain/depiction"
	"github.com/turtacn/ChemNotation/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ChemNotation/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/ChemNotation/pkg/errors"
	"github.com/turtacn/ChemNotation/pkg/types/chem"
	"github.com/turtacn/ChemNotation/pkg/types/common"
)

// MockRepository is a testify mock of the Repository interface.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Save(ctx context.Context, rec *chem.StructureRecordDTO) (*chem.StructureRecordDTO, error) {
	args := m.Called(ctx, rec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chem.StructureRecordDTO), args.Error(1)
}

func (m *MockRepository) FindByID(ctx context.Context, id common.ID) (*chem.StructureRecordDTO, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chem.StructureRecordDTO), args.Error(1)
}

func (m *MockRepository) FindByCanonical(ctx context.Context, canonical string) (*chem.StructureRecordDTO, error) {
	args := m.Called(ctx, canonical)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chem.StructureRecordDTO), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, p common.Pagination) ([]*chem.StructureRecordDTO, int64, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*chem.StructureRecordDTO), args.Get(1).(int64), args.Error(2)
}

// memCache is an in-process Cache for tests.
type memCache struct {
	mu      sync.Mutex
	entries map[string]chem.ValidationResultDTO
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]chem.ValidationResultDTO)}
}

func (c *memCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if !ok {
		return apperrors.New(apperrors.ErrCodeNotFound, "cache miss")
	}
	*dest.(*chem.ValidationResultDTO) = v
	return nil
}

func (c *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value.(chem.ValidationResultDTO)
	return nil
}

// capturePublisher records published messages.
type capturePublisher struct {
	mu       sync.Mutex
	messages []*kafka.Message
}

func (p *capturePublisher) PublishAsync(_ context.Context, msg *kafka.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
}

func (p *capturePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages)
}

func (p *capturePublisher) last() *kafka.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.messages) == 0 {
		return nil
	}
	return p.messages[len(p.messages)-1]
}

func depictionOpts(w, h int) depiction.RenderOptions {
	return depiction.RenderOptions{Width: w, Height: h}
}

const ethanolMolfile = `ethanol
  ChemNote

  3  2  0  0  0  0  0  0  0  0999 V2000
    0.0000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    1.5000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    2.2500    1.2990    0.0000 O   0  0  0  0  0  0  0  0  0  0  0  0
  1  2  1  0  0  0  0
  2  3  1  0  0  0  0
M  END
`

const benzeneMolfile = `benzene
  ChemNote

  6  6  0  0  0  0  0  0  0  0999 V2000
    0.0000    1.5000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    1.2990    0.7500    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    1.2990   -0.7500    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    0.0000   -1.5000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
   -1.2990   -0.7500    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
   -1.2990    0.7500    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
  1  2  4  0  0  0  0
  2  3  4  0  0  0  0
  3  4  4  0  0  0  0
  4  5  4  0  0  0  0
  5  6  4  0  0  0  0
  6  1  4  0  0  0  0
M  END
`

func savedRecord(rec *chem.StructureRecordDTO) *chem.StructureRecordDTO {
	out := *rec
	if out.ID == "" {
		out.ID = common.NewID()
	}
	return &out
}

func TestService_ValidatePersistsAndPublishes(t *testing.T) {
	repo := &MockRepository{}
	repo.On("Save", mock.Anything, mock.MatchedBy(func(rec *chem.StructureRecordDTO) bool {
		return rec.CanonicalForm == "CCO" && rec.SourceNotation == "OCC"
	})).Return(savedRecord(&chem.StructureRecordDTO{CanonicalForm: "CCO"}), nil)
	pub := &capturePublisher{}

	svc := NewService(Options{Repo: repo, Producer: pub, Logger: logging.NewNopLogger()})

	dto, err := svc.Validate(context.Background(), "OCC")
	require.NoError(t, err)
	assert.True(t, dto.Valid)
	assert.Equal(t, "CCO", dto.CanonicalForm)
	assert.Equal(t, "C2H6O", dto.MolecularFormula)
	assert.InDelta(t, 46.07, dto.MolecularWeight, 0.01)

	repo.AssertExpectations(t)
	require.Equal(t, 1, pub.count())
	assert.Equal(t, kafka.TopicStructureValidated, pub.messages[0].Topic)
	assert.Equal(t, []byte("CCO"), pub.messages[0].Key)
}

func TestService_ValidateInvalidSkipsSideEffects(t *testing.T) {
	repo := &MockRepository{}
	pub := &capturePublisher{}
	svc := NewService(Options{Repo: repo, Producer: pub})

	dto, err := svc.Validate(context.Background(), "CC(C")
	require.NoError(t, err)
	require.False(t, dto.Valid)
	require.NotNil(t, dto.Error)
	assert.Equal(t, "unbalanced_branch", dto.Error.Kind)
	assert.Equal(t, 4, dto.Error.Offset)

	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	assert.Equal(t, 0, pub.count())
}

func TestService_ValidateServedFromCache(t *testing.T) {
	cache := newMemCache()
	repo := &MockRepository{}
	repo.On("Save", mock.Anything, mock.Anything).
		Return(savedRecord(&chem.StructureRecordDTO{CanonicalForm: "CCO"}), nil).Once()

	svc := NewService(Options{Repo: repo, Cache: cache})
	ctx := context.Background()

	first, err := svc.Validate(ctx, "CCO")
	require.NoError(t, err)

	// Second call hits the cache: no second Save.
	second, err := svc.Validate(ctx, "CCO")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	repo.AssertNumberOfCalls(t, "Save", 1)
}

func TestService_ValidateSurvivesRepositoryFailure(t *testing.T) {
	repo := &MockRepository{}
	repo.On("Save", mock.Anything, mock.Anything).
		Return(nil, apperrors.New(apperrors.ErrCodeDatabaseError, "down"))

	svc := NewService(Options{Repo: repo})
	dto, err := svc.Validate(context.Background(), "CCO")
	require.NoError(t, err, "persistence is best-effort")
	assert.True(t, dto.Valid)
}

func TestService_Depict(t *testing.T) {
	svc := NewService(Options{})
	ctx := context.Background()

	svg, mime, err := svc.Depict(ctx, "CCO", chem.FormatSVG, depictionOpts(0, 0))
	require.NoError(t, err)
	assert.Equal(t, "image/svg+xml", mime)
	assert.Contains(t, string(svg), "<svg")

	png, mime, err := svc.Depict(ctx, "CCO", chem.FormatPNG, depictionOpts(200, 200))
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])

	// Empty format defaults to SVG.
	out, mime, err := svc.Depict(ctx, "CCO", "", depictionOpts(0, 0))
	require.NoError(t, err)
	assert.Equal(t, "image/svg+xml", mime)
	assert.NotEmpty(t, out)

	_, _, err = svc.Depict(ctx, "CCO", "bmp", depictionOpts(0, 0))
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidParam))

	_, _, err = svc.Depict(ctx, "CC(C", chem.FormatSVG, depictionOpts(0, 0))
	assert.Error(t, err, "parse errors propagate")
}

func TestService_ImportSDF(t *testing.T) {
	repo := &MockRepository{}
	repo.On("Save", mock.Anything, mock.Anything).
		Return(savedRecord(&chem.StructureRecordDTO{}), nil)
	pub := &capturePublisher{}
	svc := NewService(Options{Repo: repo, Producer: pub})

	sdf := ethanolMolfile + "> <CAS>\n64-17-5\n\n$$$$\n" + benzeneMolfile + "$$$$\n"
	res, err := svc.Import(context.Background(), "sdf", []byte(sdf))
	require.NoError(t, err)

	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, "ethanol", res.Entries[0].Name)
	assert.Equal(t, "C2H6O", res.Entries[0].Result.MolecularFormula)
	assert.Equal(t, "C6H6", res.Entries[1].Result.MolecularFormula)

	// Two per-record validation events plus one batch import event.
	require.Equal(t, 3, pub.count())
	last := pub.last()
	assert.Equal(t, kafka.TopicStructureImported, last.Topic)
}

func TestService_ImportMolfile(t *testing.T) {
	svc := NewService(Options{})
	res, err := svc.Import(context.Background(), "mol", []byte(ethanolMolfile))
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
	assert.Equal(t, "CCO", res.Entries[0].Result.CanonicalForm)
}

func TestService_ImportRejectsUnknownFormat(t *testing.T) {
	svc := NewService(Options{})
	_, err := svc.Import(context.Background(), "cdx", []byte("x"))
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidParam))
}

func TestService_Summarize(t *testing.T) {
	svc := NewService(Options{})
	ctx := context.Background()

	sum, err := svc.Summarize(ctx, "c1ccccc1")
	require.NoError(t, err)
	assert.True(t, sum.Validation.Valid)
	assert.True(t, sum.HasDepiction)
	assert.False(t, sum.Degraded)
	assert.Equal(t, "local", sum.Backend)

	sum, err = svc.Summarize(ctx, "CX")
	require.NoError(t, err)
	assert.False(t, sum.Validation.Valid)
	assert.False(t, sum.HasDepiction)
}

func TestService_RecordsRequirePersistence(t *testing.T) {
	svc := NewService(Options{})
	ctx := context.Background()

	_, err := svc.ListRecords(ctx, common.Pagination{Page: 1, PageSize: 10})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotImplemented))

	_, err = svc.GetRecord(ctx, common.NewID())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotImplemented))
}

func TestService_ListRecords(t *testing.T) {
	repo := &MockRepository{}
	records := []*chem.StructureRecordDTO{
		{CanonicalForm: "CCO"},
		{CanonicalForm: "C"},
	}
	repo.On("List", mock.Anything, mock.Anything).Return(records, int64(2), nil)

	svc := NewService(Options{Repo: repo})
	page, err := svc.ListRecords(context.Background(), common.Pagination{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, page.Records, 2)
	assert.Equal(t, int64(2), page.Pagination.Total)
}

func TestService_EngineStates(t *testing.T) {
	svc := NewService(Options{})
	states := svc.EngineStates()
	assert.Equal(t, "ready", states["local"])
}
