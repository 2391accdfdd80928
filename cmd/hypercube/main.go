// Command hypercube adds, extracts, inspects and seals partitions in a
// .vhc container.
package main

import (
	"os"

	"github.com/codeology-limited/hypercube/internal/processhardening"
)

func main() {
	processhardening.New().HardenProcess()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
