// Package container implements the on-disk .vhc file: a plaintext
// magic+header prefix followed by an opaque, unordered table of blocks.
// Blocks carry no partition identity; the only operations here are
// whole-file read, write, append (with a full reshuffle of every block
// in the file) and a header-only block-count query.
package container

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/codeology-limited/hypercube/internal/cube"
	"github.com/codeology-limited/hypercube/internal/hcerr"
	"github.com/codeology-limited/hypercube/internal/writecoalescing"
)

const headerLenFieldSize = 4

// Write creates path from scratch with header h and the given blocks.
func Write(path string, h *cube.Header, blocks [][]byte) error {
	headerBytes, err := h.ToBytes()
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return hcerr.Wrap(hcerr.IO, "create container", err)
	}
	defer f.Close()

	if err := writeHeader(f, headerBytes); err != nil {
		return err
	}

	offset := int64(len(cube.Magic) + headerLenFieldSize + len(headerBytes))
	if err := writeBlocks(f, blocks, offset); err != nil {
		return err
	}

	return nil
}

// Read loads the header and every block from path.
func Read(path string) (*cube.Header, [][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, hcerr.Wrap(hcerr.IO, "open container", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, hcerr.Wrap(hcerr.IO, "stat container", err)
	}

	h, headerSize, err := readHeader(f)
	if err != nil {
		return nil, nil, err
	}

	dataSize := info.Size() - headerSize
	if dataSize < 0 {
		return nil, nil, hcerr.New(hcerr.Format, "container shorter than its own header")
	}

	blockSize := h.TotalBlockSize()
	numBlocks := int(dataSize / int64(blockSize))

	blocks := make([][]byte, numBlocks)
	for i := 0; i < numBlocks; i++ {
		block := make([]byte, blockSize)
		if _, err := io.ReadFull(f, block); err != nil {
			return nil, nil, hcerr.Wrap(hcerr.IO, "read block", err)
		}
		blocks[i] = block
	}

	return h, blocks, nil
}

// Header reads just the header, without loading any blocks.
func Header(path string) (*cube.Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, hcerr.Wrap(hcerr.IO, "open container", err)
	}
	defer f.Close()

	h, _, err := readHeader(f)
	return h, err
}

// BlockCount reports how many blocks path holds, without loading them.
func BlockCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, hcerr.Wrap(hcerr.IO, "open container", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, hcerr.Wrap(hcerr.IO, "stat container", err)
	}

	h, headerSize, err := readHeader(f)
	if err != nil {
		return 0, err
	}

	dataSize := info.Size() - headerSize
	if dataSize < 0 {
		return 0, hcerr.New(hcerr.Format, "container shorter than its own header")
	}

	return int(dataSize / int64(h.TotalBlockSize())), nil
}

// Append adds newBlocks to path and reshuffles every block in the file
// using rng as the entropy source for the Fisher-Yates shuffle. This is
// the only place a block's position in the file is determined — once
// shuffled, nothing but a block's own sequence tag orders it relative to
// the others in its partition.
func Append(path string, newBlocks [][]byte, rng io.Reader) error {
	if len(newBlocks) == 0 {
		return nil
	}

	h, blocks, err := Read(path)
	if err != nil {
		return err
	}

	blocks = append(blocks, newBlocks...)
	if len(blocks) > 1 {
		if err := shuffle(blocks, rng); err != nil {
			return err
		}
	}

	return Write(path, h, blocks)
}

func writeHeader(f *os.File, headerBytes []byte) error {
	if _, err := f.Write(cube.Magic[:]); err != nil {
		return hcerr.Wrap(hcerr.IO, "write magic", err)
	}

	var lenBuf [headerLenFieldSize]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(headerBytes)))
	if _, err := f.Write(lenBuf[:]); err != nil {
		return hcerr.Wrap(hcerr.IO, "write header length", err)
	}

	if _, err := f.Write(headerBytes); err != nil {
		return hcerr.Wrap(hcerr.IO, "write header", err)
	}
	return nil
}

func readHeader(f *os.File) (*cube.Header, int64, error) {
	var magic [4]byte
	if _, err := io.ReadFull(f, magic[:]); err != nil {
		return nil, 0, hcerr.Wrap(hcerr.IO, "read magic", err)
	}
	if magic != cube.Magic {
		return nil, 0, hcerr.New(hcerr.Format, "invalid container magic bytes")
	}

	var lenBuf [headerLenFieldSize]byte
	if _, err := io.ReadFull(f, lenBuf[:]); err != nil {
		return nil, 0, hcerr.Wrap(hcerr.IO, "read header length", err)
	}
	headerLen := binary.LittleEndian.Uint32(lenBuf[:])

	headerBytes := make([]byte, headerLen)
	if _, err := io.ReadFull(f, headerBytes); err != nil {
		return nil, 0, hcerr.Wrap(hcerr.IO, "read header", err)
	}

	h, err := cube.FromBytes(headerBytes)
	if err != nil {
		return nil, 0, err
	}

	headerSize := int64(len(cube.Magic) + headerLenFieldSize + len(headerBytes))
	return h, headerSize, nil
}

// writeBlocks stages every block through a coalescing write buffer before
// the final flush to f, the same pattern gocryptfs uses to batch small
// writes ahead of encryption.
func writeBlocks(f *os.File, blocks [][]byte, startOffset int64) error {
	wb := writecoalescing.NewWriteBuffer(nil, func(data []byte, offset int64) error {
		if _, err := f.WriteAt(data, offset); err != nil {
			return hcerr.Wrap(hcerr.IO, "write block", err)
		}
		return nil
	})

	offset := startOffset
	for _, block := range blocks {
		if err := wb.Write(block, offset); err != nil {
			return err
		}
		offset += int64(len(block))
	}

	return wb.Close()
}

// shuffle performs an in-place Fisher-Yates shuffle driven by rng.
func shuffle(blocks [][]byte, rng io.Reader) error {
	for i := len(blocks) - 1; i > 0; i-- {
		j, err := randIntN(rng, i+1)
		if err != nil {
			return hcerr.Wrap(hcerr.IO, "shuffle blocks", err)
		}
		blocks[i], blocks[j] = blocks[j], blocks[i]
	}
	return nil
}

// randIntN draws an unbiased random integer in [0, n) from rng via
// rejection sampling over a little-endian uint32.
func randIntN(rng io.Reader, n int) (int, error) {
	if n <= 0 {
		return 0, hcerr.New(hcerr.IO, "randIntN: n must be positive")
	}
	max := uint32(n)
	limit := (^uint32(0) / max) * max
	var buf [4]byte
	for {
		if _, err := io.ReadFull(rng, buf[:]); err != nil {
			return 0, err
		}
		v := binary.LittleEndian.Uint32(buf[:])
		if v < limit {
			return int(v % max), nil
		}
	}
}
