package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/ChemNotation/internal/application/structure"
)

// newImportCmd creates the import command: parse a molfile or SD file and
// validate every record.
func newImportCmd(state *cliState) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a molfile or SD file and validate every record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f := format
			if f == "" {
				switch {
				case strings.HasSuffix(path, ".mol"):
					f = "mol"
				default:
					f = "sdf"
				}
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}

			result, err := state.svc.Import(cmd.Context(), f, data)
			if err != nil {
				return err
			}

			if strings.EqualFold(state.opts.OutputFormat, "json") {
				return state.printResult(cmd, result)
			}
			printImportSummary(cmd, result)
			if result.Failed > 0 {
				return fmt.Errorf("%d of %d records rejected", result.Failed, result.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "input format: mol|sdf (default inferred from extension)")
	return cmd
}

func printImportSummary(cmd *cobra.Command, result *structure.ImportResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "imported %d records (%d ok, %d rejected)\n",
		result.Total, result.Succeeded, result.Failed)
	for _, e := range result.Entries {
		name := e.Name
		if name == "" {
			name = fmt.Sprintf("record %d", e.Index+1)
		}
		if e.Result.Valid {
			fmt.Fprintf(out, "  %s: %s  %s\n", name, e.Result.CanonicalForm, e.Result.MolecularFormula)
		} else {
			fmt.Fprintf(out, "  %s: REJECTED %s: %s\n", name, e.Result.Error.Kind, e.Result.Error.Message)
		}
	}
}
