package depiction

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ChemNotation/internal/domain/notation"
)

func mustParse(t *testing.T, input string) *notation.Molecule {
	t.Helper()
	m, err := notation.Parse(input)
	require.NoError(t, err, "parse %q", input)
	return m
}

func TestComputeLayout_PlacesEveryAtom(t *testing.T) {
	inputs := []string{"C", "CCO", "CC(C)C", "C1CCCCC1", "c1ccccc1", "CC(=O)Oc1ccccc1C(=O)O"}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			m := mustParse(t, in)
			l := ComputeLayout(m)
			require.False(t, l.Overflow)
			require.Len(t, l.Coords, m.AtomCount())
			// No two atoms may collapse onto the same point.
			for i := 0; i < m.AtomCount(); i++ {
				for j := i + 1; j < m.AtomCount(); j++ {
					d := math.Hypot(l.Coords[i].X-l.Coords[j].X, l.Coords[i].Y-l.Coords[j].Y)
					assert.Greater(t, d, 0.05, "atoms %d and %d overlap", i, j)
				}
			}
		})
	}
}

func TestComputeLayout_BondLengths(t *testing.T) {
	m := mustParse(t, "CCCCC")
	l := ComputeLayout(m)
	for bi := 0; bi < m.BondCount(); bi++ {
		b := m.Bond(bi)
		d := math.Hypot(
			l.Coords[b.From].X-l.Coords[b.To].X,
			l.Coords[b.From].Y-l.Coords[b.To].Y)
		assert.InDelta(t, bondLength, d, 1e-6, "bond %d", bi)
	}
}

func TestComputeLayout_RegularRing(t *testing.T) {
	m := mustParse(t, "C1CCCCC1")
	l := ComputeLayout(m)

	// All six atoms equidistant from the centroid, ring bonds at unit length.
	var cx, cy float64
	for _, p := range l.Coords {
		cx += p.X
		cy += p.Y
	}
	cx /= 6
	cy /= 6
	want := bondLength / (2 * math.Sin(math.Pi/6))
	for i, p := range l.Coords {
		assert.InDelta(t, want, math.Hypot(p.X-cx, p.Y-cy), 1e-6, "atom %d radius", i)
	}
	for bi := 0; bi < m.BondCount(); bi++ {
		b := m.Bond(bi)
		d := math.Hypot(l.Coords[b.From].X-l.Coords[b.To].X, l.Coords[b.From].Y-l.Coords[b.To].Y)
		assert.InDelta(t, bondLength, d, 1e-6)
	}
}

func TestComputeLayout_RingSubstituentsKeepClearance(t *testing.T) {
	// Branches growing off ring attachments must steer around the placed
	// ring geometry instead of landing on it.
	inputs := []string{
		"Cc1ccccc1C",
		"CC(=O)Oc1ccccc1C(=O)O",
		"CC(C)c1ccccc1",
		"Oc1ccccc1O",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			m := mustParse(t, in)
			l := ComputeLayout(m)
			require.False(t, l.Overflow)
			for i := 0; i < m.AtomCount(); i++ {
				for j := i + 1; j < m.AtomCount(); j++ {
					d := math.Hypot(l.Coords[i].X-l.Coords[j].X, l.Coords[i].Y-l.Coords[j].Y)
					assert.Greater(t, d, 0.3, "atoms %d and %d too close", i, j)
				}
			}
			// Substituents attach to the ring at unit bond length.
			for bi := 0; bi < m.BondCount(); bi++ {
				b := m.Bond(bi)
				d := math.Hypot(
					l.Coords[b.From].X-l.Coords[b.To].X,
					l.Coords[b.From].Y-l.Coords[b.To].Y)
				assert.InDelta(t, bondLength, d, 1e-6, "bond %d", bi)
			}
		})
	}
}

func TestComputeLayout_Deterministic(t *testing.T) {
	m := mustParse(t, "CC(=O)Oc1ccccc1C(=O)O")
	first := ComputeLayout(m)
	for i := 0; i < 5; i++ {
		again := ComputeLayout(m)
		assert.Equal(t, first.Coords, again.Coords)
	}
}

func TestComputeLayout_Overflow(t *testing.T) {
	m := mustParse(t, strings.Repeat("C", MaxLayoutAtoms+1))
	l := ComputeLayout(m)
	assert.True(t, l.Overflow)
	assert.Empty(t, l.Coords)
}

func TestRenderSVG_Basic(t *testing.T) {
	l := ComputeLayout(mustParse(t, "CCO"))
	out := string(RenderSVG(l, DefaultRenderOptions()))

	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, "</svg>")
	// Two single bonds and an OH label.
	assert.Equal(t, 2, strings.Count(out, "<line"))
	assert.Contains(t, out, ">OH</text>")
	// Implicit carbons carry no label.
	assert.NotContains(t, out, ">C</text>")
}

func TestRenderSVG_AromaticCircle(t *testing.T) {
	l := ComputeLayout(mustParse(t, "c1ccccc1"))
	out := string(RenderSVG(l, DefaultRenderOptions()))
	assert.Equal(t, 6, strings.Count(out, "<line"))
	assert.Equal(t, 1, strings.Count(out, "<circle"))
}

func TestRenderSVG_DoubleBondParallelLines(t *testing.T) {
	l := ComputeLayout(mustParse(t, "C=C"))
	out := string(RenderSVG(l, DefaultRenderOptions()))
	assert.Equal(t, 2, strings.Count(out, "<line"))
}

func TestRenderSVG_OverflowPlaceholder(t *testing.T) {
	l := ComputeLayout(mustParse(t, strings.Repeat("C", MaxLayoutAtoms+1)))
	out := string(RenderSVG(l, DefaultRenderOptions()))
	assert.Contains(t, out, "structure too large")
	assert.Zero(t, strings.Count(out, "<line"))
}

func TestRenderSVG_ChargedAtomLabel(t *testing.T) {
	l := ComputeLayout(mustParse(t, "[NH4+]"))
	out := string(RenderSVG(l, DefaultRenderOptions()))
	assert.Contains(t, out, ">NH4+</text>")
}

func TestRenderPNG_Basic(t *testing.T) {
	l := ComputeLayout(mustParse(t, "c1ccccc1"))
	data, err := RenderPNG(l, DefaultRenderOptions())
	require.NoError(t, err)
	// PNG signature.
	require.GreaterOrEqual(t, len(data), 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, data[:8])
}

func TestRenderPNG_Overflow(t *testing.T) {
	l := ComputeLayout(mustParse(t, strings.Repeat("C", MaxLayoutAtoms+1)))
	data, err := RenderPNG(l, DefaultRenderOptions())
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestRenderOptions_Normalization(t *testing.T) {
	l := ComputeLayout(mustParse(t, "C"))
	out := string(RenderSVG(l, RenderOptions{}))
	assert.Contains(t, out, `width="400"`)

	out = string(RenderSVG(l, RenderOptions{Width: 200, Height: 150}))
	assert.Contains(t, out, `width="200"`)
	assert.Contains(t, out, `height="150"`)
}
