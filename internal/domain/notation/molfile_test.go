package notation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/turtacn/ChemNotation/pkg/errors"
)

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

func TestParseMolfile_Ethanol(t *testing.T) {
	m, err := ParseMolfile(ethanolMolfile)
	require.NoError(t, err)
	assert.Equal(t, 3, m.AtomCount())
	assert.Equal(t, 2, m.BondCount())

	props := ComputeProperties(m)
	assert.Equal(t, "C2H6O", props.Formula)
	assert.InDelta(t, 46.07, props.Weight, 0.01)

	// The molfile and line-notation routes must agree on canonical form.
	assert.Equal(t, Canonicalize(mustParse(t, "CCO")), Canonicalize(m))
}

func TestParseMolfile_AromaticBonds(t *testing.T) {
	m, err := ParseMolfile(benzeneMolfile)
	require.NoError(t, err)
	assert.Equal(t, 1, m.RingCount())
	for i := 0; i < m.AtomCount(); i++ {
		assert.True(t, m.Atom(i).Aromatic)
		assert.Equal(t, 1, m.Atom(i).ImplicitH)
	}
	assert.Equal(t, "C6H6", ComputeProperties(m).Formula)
	assert.Equal(t, Canonicalize(mustParse(t, "c1ccccc1")), Canonicalize(m))
}

func TestParseMolfile_ChargeProperty(t *testing.T) {
	mol := `ammonium
  ChemNote

  1  0  0  0  0  0  0  0  0  0999 V2000
    0.0000    0.0000    0.0000 N   0  0  0  0  0  0  0  0  0  0  0  0
M  CHG  1   1   1
M  END
`
	m, err := ParseMolfile(mol)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Atom(0).Charge)
	assert.Equal(t, 1, m.FormalCharge())
	// Neutral-rule hydrogens still apply: N with +1 fills to four.
	assert.Equal(t, 4, m.Atom(0).ImplicitH)
}

func TestParseMolfile_Errors(t *testing.T) {
	t.Run("too short", func(t *testing.T) {
		_, err := ParseMolfile("just one line")
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConversionFailed))
	})

	t.Run("unsupported element", func(t *testing.T) {
		mol := `unobtainium
  ChemNote

  1  0  0  0  0  0  0  0  0  0999 V2000
    0.0000    0.0000    0.0000 Uue 0  0  0  0  0  0  0  0  0  0  0  0
M  END
`
		_, err := ParseMolfile(mol)
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeStructureUnsupported))
	})

	t.Run("bond out of range", func(t *testing.T) {
		mol := `broken
  ChemNote

  1  1  0  0  0  0  0  0  0  0999 V2000
    0.0000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
  1  9  1  0  0  0  0
M  END
`
		_, err := ParseMolfile(mol)
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConversionFailed))
	})
}

func TestParseSDF_MultipleRecords(t *testing.T) {
	data := ethanolMolfile + `> <CAS>
64-17-5

$$$$
` + benzeneMolfile + `> <CAS>
71-43-2

$$$$
`
	records, err := ParseSDF(data)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "ethanol", records[0].Name)
	assert.Equal(t, "64-17-5", records[0].Fields["CAS"])
	assert.Equal(t, "C2H6O", ComputeProperties(records[0].Molecule).Formula)

	assert.Equal(t, "benzene", records[1].Name)
	assert.Equal(t, "71-43-2", records[1].Fields["CAS"])
}

func TestParseSDF_Empty(t *testing.T) {
	_, err := ParseSDF("\n$$$$\n")
	require.Error(t, err)
}
