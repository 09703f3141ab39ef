package notation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, input string) *Molecule {
	t.Helper()
	m, err := Parse(input)
	require.NoError(t, err, "parse %q", input)
	return m
}

func TestCanonicalize_Determinism(t *testing.T) {
	// Different writings of the same molecule must collapse to one string.
	tests := []struct {
		name   string
		inputs []string
	}{
		{name: "ethanol", inputs: []string{"CCO", "OCC", "C(O)C"}},
		{name: "isobutane", inputs: []string{"CC(C)C", "C(C)(C)C"}},
		{name: "acetic acid", inputs: []string{"CC(=O)O", "OC(C)=O", "C(C)(=O)O"}},
		{name: "aromatic benzene", inputs: []string{"c1ccccc1", "c1ccccc1"}},
		{name: "kekule benzene", inputs: []string{"C1=CC=CC=C1", "C=1C=CC=CC1"}},
		{name: "propanol", inputs: []string{"CCCO", "OCCC"}},
		{name: "bromochloromethane", inputs: []string{"ClCBr", "BrCCl", "C(Cl)Br"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := Canonicalize(mustParse(t, tt.inputs[0]))
			for _, in := range tt.inputs[1:] {
				assert.Equal(t, want, Canonicalize(mustParse(t, in)),
					"canonical form of %q diverged from %q", in, tt.inputs[0])
			}
		})
	}
}

func TestCanonicalize_EthanolLiteral(t *testing.T) {
	assert.Equal(t, "CCO", Canonicalize(mustParse(t, "CCO")))
	assert.Equal(t, "CCO", Canonicalize(mustParse(t, "OCC")))
}

func TestCanonicalize_Idempotent(t *testing.T) {
	inputs := []string{
		"CCO",
		"CC(C)C",
		"CC(=O)O",
		"c1ccccc1",
		"C1=CC=CC=C1",
		"c1ccc2ccccc2c1",
		"[NH4+]",
		"[13C]CO",
		"C#N",
		"ClC(Cl)Cl",
		"C1CCCCC1",
		"OCC(O)CO", // glycerol
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			first := Canonicalize(mustParse(t, in))
			reparsed, err := Parse(first)
			require.NoError(t, err, "canonical output %q must re-parse", first)
			assert.Equal(t, first, Canonicalize(reparsed))
		})
	}
}

func TestCanonicalize_RoundTripPreservesGraph(t *testing.T) {
	inputs := []string{"CCO", "CC(C)C", "c1ccccc1", "C1CCCCC1", "CC(=O)O"}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			orig := mustParse(t, in)
			round, err := Parse(Canonicalize(orig))
			require.NoError(t, err)
			assert.Equal(t, orig.AtomCount(), round.AtomCount())
			assert.Equal(t, orig.BondCount(), round.BondCount())
			assert.Equal(t, orig.RingCount(), round.RingCount())
			assert.Equal(t, ComputeProperties(orig).Formula, ComputeProperties(round).Formula)
		})
	}
}

func TestCanonicalize_BracketPreservation(t *testing.T) {
	t.Run("charge survives", func(t *testing.T) {
		out := Canonicalize(mustParse(t, "[NH4+]"))
		m := mustParse(t, out)
		assert.Equal(t, 1, m.Atom(0).Charge)
		assert.Equal(t, 4, m.Atom(0).ImplicitH)
	})

	t.Run("isotope survives", func(t *testing.T) {
		out := Canonicalize(mustParse(t, "[13C]C"))
		m := mustParse(t, out)
		found := false
		for i := 0; i < m.AtomCount(); i++ {
			if m.Atom(i).Isotope == 13 {
				found = true
			}
		}
		assert.True(t, found, "canonical form %q lost the isotope label", out)
	})

	t.Run("plain atoms stay bare", func(t *testing.T) {
		out := Canonicalize(mustParse(t, "CCO"))
		assert.NotContains(t, out, "[")
	})
}

func TestCanonicalize_Empty(t *testing.T) {
	assert.Equal(t, "", Canonicalize(nil))
}
