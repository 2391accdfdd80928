// Package partition orchestrates the full per-partition pipeline:
// compress, prefix metadata, pad, segment, fragment, AONT-transform,
// unfragment, sequence, MAC-authenticate, serialize — and its exact
// inverse. Create and Recover are the only entry points callers need;
// everything else in this package is a pipeline stage.
package partition

import (
	"io"

	"github.com/codeology-limited/hypercube/internal/aont"
	"github.com/codeology-limited/hypercube/internal/compress"
	"github.com/codeology-limited/hypercube/internal/cube"
	"github.com/codeology-limited/hypercube/internal/hcerr"
	"github.com/codeology-limited/hypercube/internal/mac"
	"github.com/codeology-limited/hypercube/internal/memprotect"
	"github.com/codeology-limited/hypercube/internal/parallelcrypto"
	"github.com/codeology-limited/hypercube/internal/sequence"
	"github.com/codeology-limited/hypercube/internal/segment"
)

var pc = parallelcrypto.New()

// Create runs the forward pipeline over data, returning the serialized
// block records (each sequence || payload || mac). padToBlocks, if
// non-nil, pads the pre-transform payload out to exactly that many
// data blocks (used when every partition in a cube must occupy the
// same number of on-disk blocks, e.g. during seal).
func Create(data, secret []byte, h *cube.Header, padToBlocks *int, rng io.Reader) ([][]byte, error) {
	mp := memprotect.New()

	compressed, err := compress.Compress(data, h.Compression)
	if err != nil {
		return nil, err
	}

	meta := cube.PartitionMeta{
		CompressedSize: uint64(len(compressed)),
		OriginalSize:   uint64(len(data)),
	}
	withMeta := make([]byte, 0, cube.PartitionMetaSize+len(compressed))
	withMeta = append(withMeta, meta.ToBytes()...)
	withMeta = append(withMeta, compressed...)

	if padToBlocks != nil {
		target := *padToBlocks
		if target == 0 {
			return nil, hcerr.New(hcerr.Geometry, "pad target must be greater than zero")
		}
		targetBytes := h.BlockSize * target
		if len(withMeta) > targetBytes {
			return nil, hcerr.New(hcerr.Capacity, "payload exceeds padded block count")
		}
		padded := make([]byte, targetBytes)
		copy(padded, withMeta)
		withMeta = padded
	}

	blocks := segment.Segment(withMeta, h.BlockSize)
	fragments, fragsPerBlock := segment.FragmentAll(blocks, h.FragmentSize)

	transformed, err := aont.Apply(fragments, h.Aont, fragsPerBlock, rng)
	if err != nil {
		return nil, hcerr.Wrap(hcerr.Format, "apply aont", err)
	}

	transformedBlocks := segment.UnfragmentAll(transformed, fragsPerBlock)

	base, err := sequence.GenerateBase(rng)
	if err != nil {
		return nil, hcerr.Wrap(hcerr.IO, "generate sequence base", err)
	}
	sequenced := sequence.SequenceBlocks(transformedBlocks, base)

	authenticated := authenticateParallel(sequenced, secret, h.Hash, h.MacBits)

	serialized := make([][]byte, len(authenticated))
	for i, b := range authenticated {
		serialized[i] = b.ToBytes()
	}

	// withMeta held the plaintext payload through segmentation; wipe it
	// once every block has copied out what it needs.
	mp.SecureZero(withMeta)
	return serialized, nil
}

// Recover scans all blocks, authenticates every one that matches secret,
// reassembles them in sequence order, reverses the AONT, decompresses and
// returns the original payload.
func Recover(allBlocks [][]byte, secret []byte, h *cube.Header) ([]byte, error) {
	mp := memprotect.New()
	macBytes := h.MacBytes()
	expectedBlockSize := sequence.Size + h.BlockSize + macBytes

	var authenticated []mac.AuthenticatedBlock
	for _, block := range allBlocks {
		if len(block) != expectedBlockSize {
			continue
		}
		ab, ok := mac.FromBytes(block, macBytes)
		if !ok {
			continue
		}
		if mac.VerifyMAC(ab, secret, h.Hash, h.MacBits) {
			authenticated = append(authenticated, ab)
		}
	}

	if len(authenticated) == 0 {
		return nil, hcerr.New(hcerr.Integrity, "no blocks authenticated with this secret")
	}

	sequenced := make([]sequence.SequencedBlock, len(authenticated))
	for i, b := range authenticated {
		sequenced[i] = sequence.SequencedBlock{
			Sequence: sequence.FromBytes(b.SequenceBytes),
			Data:     b.Data,
		}
	}

	transformedBlocks, ok := sequence.UnsequenceBlocks(sequenced)
	if !ok {
		return nil, hcerr.New(hcerr.Integrity, "invalid sequence numbers")
	}

	fragments, fragsPerBlock := segment.FragmentAll(transformedBlocks, h.FragmentSize)
	fragments = aont.Reverse(fragments, h.Aont, fragsPerBlock)
	blocks := segment.UnfragmentAll(fragments, fragsPerBlock)

	var allData []byte
	for _, b := range blocks {
		allData = append(allData, b...)
	}

	if len(allData) < cube.PartitionMetaSize {
		return nil, hcerr.New(hcerr.Integrity, "data too short for metadata")
	}
	meta, err := cube.PartitionMetaFromBytes(allData)
	if err != nil {
		return nil, err
	}

	compressedStart := cube.PartitionMetaSize
	compressedEnd := compressedStart + int(meta.CompressedSize)
	if compressedEnd > len(allData) {
		return nil, hcerr.New(hcerr.Integrity, "invalid compressed size in metadata")
	}
	compressed := allData[compressedStart:compressedEnd]

	data, err := compress.Decompress(compressed, h.Compression)
	if err != nil {
		return nil, err
	}
	if uint64(len(data)) != meta.OriginalSize {
		return nil, hcerr.New(hcerr.Integrity, "original size mismatch after decompression")
	}

	mp.SecureZero(allData)
	return data, nil
}

// authenticateParallel fans the per-block MAC compute out across
// parallelcrypto's worker pool; each block's MAC is independent of every
// other, so there is no ordering constraint until the final slice is
// reassembled.
func authenticateParallel(blocks []sequence.SequencedBlock, secret []byte, algorithm cube.HashAlgorithm, macBits int) []mac.AuthenticatedBlock {
	out := make([]mac.AuthenticatedBlock, len(blocks))
	pc.ProcessBlocksOptimized(len(blocks), func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = mac.AuthenticatedBlock{
				SequenceBytes: blocks[i].Sequence.Bytes(),
				Data:          blocks[i].Data,
				Mac:           mac.ComputeMAC(blocks[i], secret, algorithm, macBits),
			}
		}
	})
	return out
}

// GenerateChaff produces random filler data of the given size from
// crypto/rand.
func GenerateChaff(size int) ([]byte, error) {
	return mac.RandBytes(size)
}
