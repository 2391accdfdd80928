package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codeology-limited/hypercube/internal/container"
	"github.com/codeology-limited/hypercube/internal/partition"
)

var (
	extractSecret string
	extractKdf    string
)

var extractCmd = &cobra.Command{
	Use:   "extract <container.vhc> <output>",
	Short: "Recover a partition by scanning every block and authenticating with a secret",
	Args:  cobra.ExactArgs(2),
	RunE:  runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVarP(&extractSecret, "secret", "s", "", "Partition secret (prompted if omitted)")
	extractCmd.Flags().StringVar(&extractKdf, "kdf", "none", "Harden the secret before use: none, argon2id, or scrypt (must match the add)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	inputPath, outputPath := args[0], args[1]

	secret, err := resolveSecret(extractSecret)
	if err != nil {
		return err
	}

	h, blocks, err := container.Read(inputPath)
	if err != nil {
		return err
	}

	secretBytes, err := hardenSecret(secret, h, extractKdf)
	if err != nil {
		return err
	}

	serialized := make([][]byte, len(blocks))
	copy(serialized, blocks)

	data, err := partition.Recover(serialized, secretBytes, h)
	if err != nil {
		return err
	}

	if err := os.WriteFile(outputPath, data, 0o600); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Recovered %d bytes to %s\n", len(data), outputPath)
	return nil
}
