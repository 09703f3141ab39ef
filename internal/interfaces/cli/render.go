package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/ChemNotation/internal/domain/depiction"
	"github.com/turtacn/ChemNotation/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ChemNotation/pkg/types/chem"
)

// newRenderCmd creates the render command: depict one notation to a file or
// stdout.
func newRenderCmd(state *cliState) *cobra.Command {
	var (
		format  string
		width   int
		height  int
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "render <notation>",
		Short: "Render a 2D depiction as SVG or PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := chem.DepictionFormat(strings.ToLower(format))
			if outPath != "" && format == "" {
				// Infer format from the output file extension.
				switch {
				case strings.HasSuffix(outPath, ".png"):
					f = chem.FormatPNG
				case strings.HasSuffix(outPath, ".svg"):
					f = chem.FormatSVG
				}
			}

			data, _, err := state.svc.Depict(cmd.Context(), args[0], f, depiction.RenderOptions{
				Width:  width,
				Height: height,
			})
			if err != nil {
				return err
			}

			if outPath == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(outPath, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outPath, err)
			}
			state.logger.Info("depiction written",
				logging.String("path", outPath), logging.Int("bytes", len(data)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "depiction format: svg|png (default svg, or inferred from --out extension)")
	cmd.Flags().IntVar(&width, "width", 0, "image width in pixels (default 400)")
	cmd.Flags().IntVar(&height, "height", 0, "image height in pixels (default 400)")
	cmd.Flags().StringVar(&outPath, "out", "", "output file path (default stdout)")
	return cmd
}
