package backend

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ChemNotation/internal/domain/depiction"
	"github.com/turtacn/ChemNotation/internal/domain/notation"
	"github.com/turtacn/ChemNotation/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/ChemNotation/pkg/errors"
	"github.com/turtacn/ChemNotation/pkg/types/chem"
)

// fakeBackend lets tests script an engine's behavior.
type fakeBackend struct {
	name    string
	caps    Capability
	process func(ctx context.Context, input string) (*Result, error)
	depict  func(ctx context.Context, input string) ([]byte, error)
}

func (f *fakeBackend) Name() string             { return f.name }
func (f *fakeBackend) Capabilities() Capability { return f.caps }

func (f *fakeBackend) Process(ctx context.Context, input string) (*Result, error) {
	if f.process != nil {
		return f.process(ctx, input)
	}
	return NewLocal().Process(ctx, input)
}

func (f *fakeBackend) Depict(ctx context.Context, input string, format chem.DepictionFormat, opts depiction.RenderOptions) ([]byte, error) {
	if f.depict != nil {
		return f.depict(ctx, input)
	}
	return NewLocal().Depict(ctx, input, format, opts)
}

func TestLocal_Process(t *testing.T) {
	res, err := NewLocal().Process(context.Background(), "OCC")
	require.NoError(t, err)
	assert.Equal(t, "CCO", res.Canonical)
	assert.Equal(t, "C2H6O", res.Properties.Formula)
	assert.InDelta(t, 46.07, res.Properties.Weight, 0.01)
	assert.Equal(t, 3, res.Molecule.AtomCount())
}

func TestLocal_ProcessInvalid(t *testing.T) {
	_, err := NewLocal().Process(context.Background(), "CC(C")
	require.Error(t, err)
	var pe *notation.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, notation.ErrUnbalancedBranch, pe.Kind)
	assert.Equal(t, 4, pe.Offset)
}

func TestLocal_DepictFormats(t *testing.T) {
	local := NewLocal()
	svg, err := local.Depict(context.Background(), "CCO", chem.FormatSVG, depiction.RenderOptions{})
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")

	png, err := local.Depict(context.Background(), "CCO", chem.FormatPNG, depiction.RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, byte(0x89), png[0])

	_, err = local.Depict(context.Background(), "CCO", "bmp", depiction.RenderOptions{})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidParam))
}

func TestHandle_LifecycleStates(t *testing.T) {
	h := NewHandle("ext", func(ctx context.Context) (Backend, error) {
		return &fakeBackend{name: "ext", caps: CapAll}, nil
	}, logging.NewNopLogger())

	assert.Equal(t, StateUnloaded, h.State())
	_, ok := h.Ready()
	assert.False(t, ok)

	b, err := h.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ext", b.Name())
	assert.Equal(t, StateReady, h.State())

	got, ok := h.Ready()
	require.True(t, ok)
	assert.Equal(t, b, got)
}

func TestHandle_ConcurrentLoadsCollapse(t *testing.T) {
	var calls int32
	gate := make(chan struct{})
	h := NewHandle("slow", func(ctx context.Context) (Backend, error) {
		atomic.AddInt32(&calls, 1)
		<-gate
		return &fakeBackend{name: "slow", caps: CapAll}, nil
	}, logging.NewNopLogger())

	const workers = 16
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.Load(context.Background())
		}(i)
	}
	close(gate)
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "worker %d", i)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "factory must run exactly once")
	assert.Equal(t, StateReady, h.State())
}

func TestHandle_FailedIsTerminal(t *testing.T) {
	var calls int32
	boom := errors.New("library missing")
	h := NewHandle("broken", func(ctx context.Context) (Backend, error) {
		atomic.AddInt32(&calls, 1)
		return nil, boom
	}, logging.NewNopLogger())

	_, err := h.Load(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeBackendLoadFailed))
	assert.Equal(t, StateFailed, h.State())

	// Subsequent loads return the recorded error without another attempt.
	_, err2 := h.Load(context.Background())
	require.Error(t, err2)
	assert.Equal(t, err, err2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestComposite_PrefersRegisteredEngine(t *testing.T) {
	ext := &fakeBackend{name: "ext", caps: CapAll}
	h := NewHandle("ext", func(ctx context.Context) (Backend, error) { return ext, nil }, nil)
	c := NewComposite(NewLocal(), []*Handle{h}, logging.NewNopLogger())

	res, disp, err := c.Process(context.Background(), "CCO")
	require.NoError(t, err)
	assert.Equal(t, "ext", disp.Engine)
	assert.False(t, disp.Degraded)
	assert.Equal(t, "CCO", res.Canonical)
}

func TestComposite_FallsBackWhenLoadFails(t *testing.T) {
	h := NewHandle("broken", func(ctx context.Context) (Backend, error) {
		return nil, errors.New("no such engine")
	}, logging.NewNopLogger())
	c := NewComposite(NewLocal(), []*Handle{h}, logging.NewNopLogger())

	res, disp, err := c.Process(context.Background(), "OCC")
	require.NoError(t, err)
	assert.Equal(t, LocalName, disp.Engine)
	assert.True(t, disp.Degraded, "fallback past a configured engine is degraded")
	assert.Equal(t, "CCO", res.Canonical)
}

func TestComposite_FallsBackOnEngineError(t *testing.T) {
	flaky := &fakeBackend{
		name: "flaky",
		caps: CapAll,
		process: func(ctx context.Context, input string) (*Result, error) {
			return nil, errors.New("engine crashed")
		},
	}
	h := NewHandle("flaky", func(ctx context.Context) (Backend, error) { return flaky, nil }, nil)
	c := NewComposite(NewLocal(), []*Handle{h}, logging.NewNopLogger())

	res, disp, err := c.Process(context.Background(), "CCO")
	require.NoError(t, err)
	assert.Equal(t, LocalName, disp.Engine)
	assert.True(t, disp.Degraded)
	assert.NotNil(t, res)
}

func TestComposite_ParseErrorsDoNotFallBack(t *testing.T) {
	var localUsed bool
	ext := &fakeBackend{name: "ext", caps: CapAll}
	h := NewHandle("ext", func(ctx context.Context) (Backend, error) { return ext, nil }, nil)
	local := &fakeBackend{
		name: LocalName,
		caps: CapAll,
		process: func(ctx context.Context, input string) (*Result, error) {
			localUsed = true
			return NewLocal().Process(ctx, input)
		},
	}
	c := NewComposite(local, []*Handle{h}, logging.NewNopLogger())

	_, disp, err := c.Process(context.Background(), "CX")
	require.Error(t, err)
	assert.Equal(t, "ext", disp.Engine)
	assert.False(t, localUsed, "an invalid notation is invalid everywhere")
}

func TestComposite_CapabilityRouting(t *testing.T) {
	// The registered engine cannot depict, so depiction routes to local
	// while processing stays on the engine.
	noDepict := &fakeBackend{name: "nodepict", caps: CapValidate | CapCanonicalize | CapProperties}
	h := NewHandle("nodepict", func(ctx context.Context) (Backend, error) { return noDepict, nil }, nil)
	c := NewComposite(NewLocal(), []*Handle{h}, logging.NewNopLogger())

	_, disp, err := c.Process(context.Background(), "CCO")
	require.NoError(t, err)
	assert.Equal(t, "nodepict", disp.Engine)

	_, disp, err = c.Depict(context.Background(), "CCO", chem.FormatSVG, depiction.RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, LocalName, disp.Engine)
	assert.True(t, disp.Degraded)
}

func TestComposite_NoHandlesIsNotDegraded(t *testing.T) {
	c := NewComposite(NewLocal(), nil, logging.NewNopLogger())
	_, disp, err := c.Process(context.Background(), "CCO")
	require.NoError(t, err)
	assert.Equal(t, LocalName, disp.Engine)
	assert.False(t, disp.Degraded)
}

func TestComposite_WarmAndStates(t *testing.T) {
	ok := NewHandle("ok", func(ctx context.Context) (Backend, error) {
		return &fakeBackend{name: "ok", caps: CapAll}, nil
	}, nil)
	bad := NewHandle("bad", func(ctx context.Context) (Backend, error) {
		return nil, errors.New("nope")
	}, nil)
	c := NewComposite(NewLocal(), []*Handle{ok, bad}, logging.NewNopLogger())

	c.Warm(context.Background())

	states := c.States()
	assert.Equal(t, "ready", states[LocalName])
	assert.Equal(t, "ready", states["ok"])
	assert.Equal(t, "failed", states["bad"])
}

func TestCapabilityString(t *testing.T) {
	assert.Equal(t, "none", Capability(0).String())
	assert.Equal(t, "validate", CapValidate.String())
	assert.Equal(t, "validate|canonicalize|properties|depict", CapAll.String())
}
