package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes the root command with the given args and captures stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidateCommand_Accepted(t *testing.T) {
	out, err := runCLI(t, "validate", "OCC")

	require.NoError(t, err)
	assert.Contains(t, out, "CCO")
	assert.Contains(t, out, "C2H6O")
}

func TestValidateCommand_RejectedSetsExitError(t *testing.T) {
	out, err := runCLI(t, "validate", "CC(C")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 notations rejected")
	assert.Contains(t, out, "unbalanced_branch")
	assert.Contains(t, out, "offset 4")
}

func TestValidateCommand_JSONOutput(t *testing.T) {
	out, err := runCLI(t, "-o", "json", "validate", "C")

	require.NoError(t, err)
	var dto struct {
		Valid            bool   `json:"valid"`
		CanonicalForm    string `json:"canonical_form"`
		MolecularFormula string `json:"molecular_formula"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &dto))
	assert.True(t, dto.Valid)
	assert.Equal(t, "C", dto.CanonicalForm)
	assert.Equal(t, "CH4", dto.MolecularFormula)
}

// runCLIWithInput is runCLI with a stdin stream attached.
func runCLIWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(input))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidateCommand_InteractiveStdin(t *testing.T) {
	out, err := runCLIWithInput(t, "OCC\nOCC\nCC(C\n", "validate", "-i")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3 notations rejected")
	assert.Contains(t, out, "CCO")
	// The repeated input resolves from the session memo.
	assert.Contains(t, out, "(cached)")
	assert.Contains(t, out, "unbalanced_branch")
}

func TestValidateCommand_InteractiveSkipsBlankLines(t *testing.T) {
	out, err := runCLIWithInput(t, "\n  \nC\n", "validate", "-i")

	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "CH4"))
}

func TestValidateCommand_InteractiveRejectsArgs(t *testing.T) {
	_, err := runCLIWithInput(t, "", "validate", "-i", "CCO")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "takes no arguments")
}

func TestValidateCommand_QuietSuppressesOutput(t *testing.T) {
	out, err := runCLI(t, "validate", "-q", "CCO", "CC(C")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 notations rejected")
	assert.NotContains(t, out, "CCO:")
}

func TestRenderCommand_WritesSVGFile(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "ethanol.svg")

	_, err := runCLI(t, "render", "CCO", "--out", outPath)

	require.NoError(t, err)
	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestRenderCommand_RejectsBadNotation(t *testing.T) {
	_, err := runCLI(t, "render", "CX")
	require.Error(t, err)
}

func TestImportCommand_SDFile(t *testing.T) {
	sdf := `ethanol
  ChemNote

  3  2  0  0  0  0  0  0  0  0999 V2000
    0.0000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    1.5000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    2.2500    1.2990    0.0000 O   0  0  0  0  0  0  0  0  0  0  0  0
  1  2  1  0  0  0  0
  2  3  1  0  0  0  0
M  END
$$$$
`
	path := filepath.Join(t.TempDir(), "one.sdf")
	require.NoError(t, os.WriteFile(path, []byte(sdf), 0o644))

	out, err := runCLI(t, "import", path)

	require.NoError(t, err)
	assert.Contains(t, out, "imported 1 records (1 ok, 0 rejected)")
	assert.Contains(t, out, "ethanol: CCO")
}

func TestImportCommand_MissingFile(t *testing.T) {
	_, err := runCLI(t, "import", filepath.Join(t.TempDir(), "absent.sdf"))
	require.Error(t, err)
}
