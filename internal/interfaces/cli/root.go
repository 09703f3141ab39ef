// Package cli implements the chemnote command-line tool.  All commands run
// the validation stack in-process: no server, database, or broker is needed.
package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/ChemNotation/internal/application/structure"
	"github.com/turtacn/ChemNotation/internal/infrastructure/monitoring/logging"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// RootOptions holds global CLI flags.
type RootOptions struct {
	LogLevel     string
	OutputFormat string
	Verbose      bool
}

// cliState carries the initialized service and logger through the command
// tree.  It is populated by the root PersistentPreRunE.
type cliState struct {
	svc    structure.Service
	logger logging.Logger
	opts   *RootOptions
}

// NewRootCommand creates the root command with global flags and subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	state := &cliState{opts: opts}

	cmd := &cobra.Command{
		Use:   "chemnote",
		Short: "ChemNotation CLI — validate, canonicalize, and depict chemical line notations",
		Long: "chemnote validates chemical line-notation strings, derives molecular\n" +
			"properties, renders 2D depictions, and imports molfile/SD files, all\n" +
			"without a running server.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return state.init()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "text", "output format (text, json)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable verbose output")

	cmd.AddCommand(
		newValidateCmd(state),
		newRenderCmd(state),
		newImportCmd(state),
	)
	return cmd
}

// init builds the logger and the in-process service.
func (s *cliState) init() error {
	level := strings.ToLower(s.opts.LogLevel)
	if s.opts.Verbose {
		level = "debug"
	}
	logger, err := logging.NewLogger(logging.LogConfig{
		Level:            level,
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}
	s.logger = logger
	s.svc = structure.NewService(structure.Options{Logger: logger, Source: "chemnote-cli"})
	return nil
}

// printResult writes data to stdout in the selected output format.
func (s *cliState) printResult(cmd *cobra.Command, data interface{}) error {
	if strings.EqualFold(s.opts.OutputFormat, "json") {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	switch v := data.(type) {
	case string:
		fmt.Fprintln(cmd.OutOrStdout(), v)
	case fmt.Stringer:
		fmt.Fprintln(cmd.OutOrStdout(), v.String())
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", v)
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %s\n", err.Error())
		return err
	}
	return nil
}
