package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/ChemNotation/internal/domain/backend"
	"github.com/turtacn/ChemNotation/internal/domain/validation"
	"github.com/turtacn/ChemNotation/pkg/types/chem"
)

// newValidateCmd creates the validate command.  Each argument is one notation
// string; exit status is non-zero when any of them is rejected.  With
// --interactive the command instead reads notations line by line from stdin
// through a validation session, so repeated inputs resolve from the memo.
func newValidateCmd(state *cliState) *cobra.Command {
	var quiet bool
	var interactive bool

	cmd := &cobra.Command{
		Use:   "validate <notation> [notation...]",
		Short: "Validate notation strings and print canonical forms and properties",
		Args: func(cmd *cobra.Command, args []string) error {
			if interactive {
				if len(args) > 0 {
					return fmt.Errorf("--interactive reads from stdin and takes no arguments")
				}
				return nil
			}
			return cobra.MinimumNArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if interactive {
				return state.runInteractive(cmd)
			}
			rejected := 0
			for _, notation := range args {
				dto, err := state.svc.Validate(cmd.Context(), notation)
				if err != nil {
					return err
				}
				if !dto.Valid {
					rejected++
				}
				if quiet {
					continue
				}
				if err := state.printResult(cmd, formatValidation(state.opts.OutputFormat, dto)); err != nil {
					return err
				}
			}
			if rejected > 0 {
				return fmt.Errorf("%d of %d notations rejected", rejected, len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress per-notation output, set exit status only")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "read notations line by line from stdin")
	return cmd
}

// runInteractive drives a validation session over stdin: one notation per
// line, one result per line, EOF ends the loop.  Repeated inputs are served
// from the session memo and marked as cached in text output.
func (s *cliState) runInteractive(cmd *cobra.Command) error {
	comp := backend.NewComposite(backend.NewLocal(), nil, s.logger)
	comp.Warm(cmd.Context())
	sess := validation.NewImmediateSession(validation.NewPipeline(comp, s.logger),
		validation.SessionOptions{Logger: s.logger})
	defer sess.Close()

	events := make(chan validation.Event, 1)
	unsubscribe := sess.OnResult(func(ev validation.Event) { events <- ev })
	defer unsubscribe()

	rejected, total := 0, 0
	sc := bufio.NewScanner(cmd.InOrStdin())
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		seq := sess.Submit(line)
		ev := <-events
		for ev.Seq != seq {
			ev = <-events
		}
		total++
		if !ev.Result.Valid {
			rejected++
		}
		out := formatValidation(s.opts.OutputFormat, ev.Result)
		if text, ok := out.(string); ok && ev.FromCache {
			out = text + "  (cached)"
		}
		if err := s.printResult(cmd, out); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	if rejected > 0 {
		return fmt.Errorf("%d of %d notations rejected", rejected, total)
	}
	return nil
}

// formatValidation returns the DTO for JSON output or a one-line summary for
// text output.
func formatValidation(format string, dto chem.ValidationResultDTO) interface{} {
	if strings.EqualFold(format, "json") {
		return dto
	}
	if !dto.Valid {
		return fmt.Sprintf("%s: REJECTED %s at offset %d: %s",
			dto.Notation, dto.Error.Kind, dto.Error.Offset, dto.Error.Message)
	}
	return fmt.Sprintf("%s: %s  formula=%s  weight=%.2f  atoms=%d bonds=%d rings=%d",
		dto.Notation, dto.CanonicalForm, dto.MolecularFormula, dto.MolecularWeight,
		dto.AtomCount, dto.BondCount, dto.RingCount)
}
