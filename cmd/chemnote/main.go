// chemnote is the offline CLI for validating, canonicalizing, and depicting
// chemical line notations.
package main

import (
	"os"

	"github.com/turtacn/ChemNotation/internal/interfaces/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
