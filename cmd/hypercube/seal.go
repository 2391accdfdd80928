package main

import (
	"crypto/rand"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codeology-limited/hypercube/internal/seal"
)

var sealCmd = &cobra.Command{
	Use:   "seal <container.vhc>",
	Short: "Fill a container's remaining capacity with chaff partitions",
	Args:  cobra.ExactArgs(1),
	RunE:  runSeal,
}

func init() {
	rootCmd.AddCommand(sealCmd)
}

func runSeal(cmd *cobra.Command, args []string) error {
	path := args[0]

	added, err := seal.SealFile(path, rand.Reader)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Sealed %s with %d chaff blocks\n", path, added)
	return nil
}
