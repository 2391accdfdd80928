package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codeology-limited/hypercube/internal/container"
)

var infoCmd = &cobra.Command{
	Use:   "info <container.vhc>",
	Short: "Show a container's public geometry",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	path := args[0]

	h, err := container.Header(path)
	if err != nil {
		return err
	}
	blockCount, err := container.BlockCount(path)
	if err != nil {
		return err
	}
	stat, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}

	capacity := h.TheoreticalBlockCount()
	fmt.Printf("File: %s\n", path)
	fmt.Printf("Actual size: %d bytes\n", stat.Size())
	fmt.Printf("Version: %d\n", h.Version)
	fmt.Println()
	fmt.Println("Cube Geometry:")
	fmt.Printf("  Cube id: %d\n", h.CubeID)
	fmt.Printf("  Partitions: %d\n", h.Dimension)
	fmt.Printf("  Blocks per partition: %d\n", h.BlocksPerPartition)
	fmt.Printf("  Block payload: %d bytes\n", h.BlockSize)
	fmt.Printf("  MAC width: %d bits\n", h.MacBits)
	fmt.Printf("  Fragment size: %d bytes\n", h.FragmentSize)
	fmt.Printf("  Compression: %s\n", h.Compression)
	fmt.Printf("  AONT: %s\n", h.Aont)
	fmt.Printf("  Hash: %s\n", h.Hash)
	fmt.Println()
	fmt.Println("Capacity:")
	fmt.Printf("  Blocks in use: %d / %d\n", blockCount, capacity)
	fmt.Printf("  Sealed: %v\n", blockCount == capacity)

	return nil
}
