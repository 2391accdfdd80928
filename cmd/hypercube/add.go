package main

import (
	"crypto/rand"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codeology-limited/hypercube/internal/compress"
	"github.com/codeology-limited/hypercube/internal/container"
	"github.com/codeology-limited/hypercube/internal/cube"
	"github.com/codeology-limited/hypercube/internal/hcerr"
	"github.com/codeology-limited/hypercube/internal/partition"
	"github.com/codeology-limited/hypercube/internal/seal"
)

var (
	addSecret      string
	addCompression string
	addAont        string
	addHash        string
	addDimension   int
	addMacBits     int
	addSeal        bool
	addKdf         string
)

var addCmd = &cobra.Command{
	Use:   "add <input> <output.vhc>",
	Short: "Add a partition to a container, creating it if needed",
	Args:  cobra.ExactArgs(2),
	RunE:  runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringVarP(&addSecret, "secret", "s", "", "Partition secret (prompted if omitted)")
	addCmd.Flags().StringVar(&addCompression, "compression", string(cube.CompressionZstd), "zstd, lz4, brotli, or none")
	addCmd.Flags().StringVar(&addAont, "aont", string(cube.AontRivest), "rivest or oaep")
	addCmd.Flags().StringVar(&addHash, "hash", string(cube.HashSha3), "sha3, blake3, or sha256")
	addCmd.Flags().IntVar(&addDimension, "dimension", 32, "Cube dimension for a new container (multiple of 8)")
	addCmd.Flags().IntVar(&addMacBits, "mac-bits", 256, "MAC width: 128, 256, or 512")
	addCmd.Flags().BoolVar(&addSeal, "seal", false, "Fill remaining capacity with chaff after adding")
	addCmd.Flags().StringVar(&addKdf, "kdf", "none", "Harden the secret before use: none, argon2id, or scrypt")
}

func runAdd(cmd *cobra.Command, args []string) error {
	inputPath, outputPath := args[0], args[1]

	secret, err := resolveSecret(addSecret)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	h, err := loadOrCreateHeader(outputPath, data)
	if err != nil {
		return err
	}

	secretBytes, err := hardenSecret(secret, h, addKdf)
	if err != nil {
		return err
	}

	dataBlocks := h.DataBlocksPerPartition()
	blocks, err := partition.Create(data, secretBytes, h, &dataBlocks, rand.Reader)
	if err != nil {
		return err
	}

	current, err := container.BlockCount(outputPath)
	if err != nil {
		return err
	}
	capacity := h.TheoreticalBlockCount()
	if len(blocks)+current > capacity {
		return hcerr.New(hcerr.Capacity, "container does not have room for this partition")
	}

	if err := container.Append(outputPath, blocks, rand.Reader); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Added %d blocks to %s\n", len(blocks), outputPath)

	if addSeal {
		added, err := seal.SealFile(outputPath, rand.Reader)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Sealed container with %d chaff blocks\n", added)
	}

	return nil
}

// loadOrCreateHeader returns the existing container's header, or builds
// and writes a fresh one sized for data.
func loadOrCreateHeader(path string, data []byte) (*cube.Header, error) {
	if _, err := os.Stat(path); err == nil {
		return container.Header(path)
	}

	if addDimension < 8 || addDimension%8 != 0 {
		return nil, hcerr.New(hcerr.Geometry, "dimension must be a multiple of 8")
	}

	cfg := cube.Hypercube(addDimension)
	compressed, err := compressForAnalysis(data)
	if err != nil {
		return nil, err
	}
	analysis := cube.Analyze(len(data), len(compressed), cfg)

	blockSize := analysis.BlockSizeBytes
	if blockSize < 32 {
		blockSize = 32
	}
	if blockSize%2 != 0 {
		blockSize++
	}

	h, err := cube.New(cfg.ID, cfg.Partitions, cfg.BlocksPerPartition, blockSize, addMacBits)
	if err != nil {
		return nil, err
	}
	h.Compression = cube.Compression(addCompression)
	h.Aont = cube.Aont(addAont)
	h.Hash = cube.HashAlgorithm(addHash)
	h.FragmentSize = cube.CalculateFragmentSize(blockSize)

	if err := container.Write(path, h, nil); err != nil {
		return nil, err
	}
	return h, nil
}

func compressForAnalysis(data []byte) ([]byte, error) {
	return compress.Compress(data, cube.Compression(addCompression))
}
