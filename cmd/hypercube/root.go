package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hypercube",
	Short: "Single-file multi-tenant chaffing-and-winnowing containers",
	Long: `hypercube stores one or more secret-protected partitions inside a
single .vhc file. Every block in the file is opaque: nothing about it
reveals which partition it belongs to, or how many partitions the file
actually holds. A partition's data is recovered by scanning every block
in the file and keeping the ones that authenticate under a given secret.`,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
