// Package cube defines the hypercube geometry: the plaintext file header,
// its validation rules, and the partition metadata prefix that precedes
// every compressed payload. Nothing in this package is secret; the header
// is written to disk verbatim and never reveals how many partitions a
// container actually holds.
package cube

import (
	"encoding/binary"
	"encoding/json"

	"github.com/codeology-limited/hypercube/internal/hcerr"
)

// Compression identifies the compression backend a partition was written with.
type Compression string

const (
	CompressionZstd   Compression = "zstd"
	CompressionLz4    Compression = "lz4"
	CompressionBrotli Compression = "brotli"
	CompressionNone   Compression = "none"
)

// Aont identifies the all-or-nothing transform a partition was written with.
type Aont string

const (
	AontRivest Aont = "rivest"
	AontOaep   Aont = "oaep"
)

// HashAlgorithm identifies the keyed MAC primitive a partition was written with.
type HashAlgorithm string

const (
	HashSha3    HashAlgorithm = "sha3"
	HashBlake3  HashAlgorithm = "blake3"
	HashSha256  HashAlgorithm = "sha256"
)

// Magic is the 4-byte prefix of every .vhc file.
var Magic = [4]byte{'V', 'H', 'C', 0x01}

// Header is the plaintext global-parameter header written at the start of
// a container. It never carries partition identity or count.
type Header struct {
	Version            uint32        `json:"version"`
	CubeID             int           `json:"cube_id"`
	Dimension          int           `json:"dimension"`
	BlocksPerPartition int           `json:"blocks_per_partition"`
	BlockSize          int           `json:"block_size"`
	MacBits            int           `json:"mac_bits"`
	Compression        Compression   `json:"compression"`
	Aont               Aont          `json:"aont"`
	Hash               HashAlgorithm `json:"hash"`
	FragmentSize       int           `json:"fragment_size"`
}

// New builds and validates a Header for a hypercube (dimension == blocks
// per partition), applying the defaults used throughout the rest of the
// package for fields the caller doesn't override.
func New(cubeID, partitions, blocksPerPartition, blockSize, macBits int) (*Header, error) {
	if partitions < 8 || partitions%8 != 0 {
		return nil, hcerr.New(hcerr.Geometry, "dimension must be a multiple of 8 (8, 16, 24, 32, ...)")
	}
	if blocksPerPartition < 8 || blocksPerPartition%8 != 0 {
		return nil, hcerr.New(hcerr.Geometry, "blocks_per_partition must be a multiple of 8")
	}
	if blockSize < 32 || blockSize%2 != 0 {
		return nil, hcerr.New(hcerr.Geometry, "block_size must be even and at least 32 bytes")
	}
	if macBits != 128 && macBits != 256 && macBits != 512 {
		return nil, hcerr.New(hcerr.Geometry, "mac_bits must be 128, 256, or 512")
	}

	return &Header{
		Version:            1,
		CubeID:             cubeID,
		Dimension:          partitions,
		BlocksPerPartition: blocksPerPartition,
		BlockSize:          blockSize,
		MacBits:            macBits,
		Compression:        CompressionZstd,
		Aont:               AontRivest,
		Hash:               HashSha3,
		FragmentSize:       CalculateFragmentSize(blockSize),
	}, nil
}

// CalculateFragmentSize derives the fragment size for a given block size:
// it doubles the fragment while the doubled size still leaves more than 8
// fragments per block and stays within 256 bytes, then shrinks it back until it
// evenly divides the block size.
func CalculateFragmentSize(blockSize int) int {
	if blockSize == 0 {
		return 1
	}
	fragSize := 1
	for fragSize*2 <= blockSize && (blockSize/(fragSize*2)) > 8 && fragSize*2 <= 256 {
		fragSize *= 2
	}
	for fragSize > 1 && blockSize%fragSize != 0 {
		fragSize /= 2
	}
	return fragSize
}

// ToBytes serializes the header to JSON.
func (h *Header) ToBytes() ([]byte, error) {
	b, err := json.Marshal(h)
	if err != nil {
		return nil, hcerr.Wrap(hcerr.Format, "marshal header", err)
	}
	return b, nil
}

// FromBytes deserializes a header from JSON.
func FromBytes(data []byte) (*Header, error) {
	var h Header
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, hcerr.Wrap(hcerr.Format, "unmarshal header", err)
	}
	return &h, nil
}

// FragmentsPerBlock returns the number of fragments a data block splits into.
func (h *Header) FragmentsPerBlock() int {
	return h.BlockSize / h.FragmentSize
}

// MacBytes returns the MAC tag size in bytes.
func (h *Header) MacBytes() int {
	return h.MacBits / 8
}

// DataBlocksPerPartition returns the number of blocks available for
// payload once AONT overhead is accounted for: Rivest consumes one whole
// block for its key material, OAEP does not grow the block count.
func (h *Header) DataBlocksPerPartition() int {
	if h.Aont == AontRivest {
		if h.BlocksPerPartition <= 1 {
			return 1
		}
		return h.BlocksPerPartition - 1
	}
	return h.BlocksPerPartition
}

// TheoreticalBlockCount is the total capacity of the cube: dimension *
// blocks per partition.
func (h *Header) TheoreticalBlockCount() int {
	return h.BlocksPerPartition * h.Dimension
}

// TotalBlockSize is the on-disk size of one block record: sequence (16) +
// payload + MAC.
func (h *Header) TotalBlockSize() int {
	return h.BlockSize + 16 + h.MacBytes()
}

// PartitionMetaSize is the size in bytes of the PartitionMeta prefix.
const PartitionMetaSize = 16

// PartitionMeta precedes the compressed payload inside a partition's
// plaintext (pre-AONT) bytes. It is never stored separately; it is just
// the first 16 bytes of what gets segmented, fragmented and transformed
// like everything else.
type PartitionMeta struct {
	CompressedSize uint64
	OriginalSize   uint64
}

// ToBytes serializes the metadata prefix.
func (m PartitionMeta) ToBytes() []byte {
	buf := make([]byte, PartitionMetaSize)
	binary.LittleEndian.PutUint64(buf[0:8], m.CompressedSize)
	binary.LittleEndian.PutUint64(buf[8:16], m.OriginalSize)
	return buf
}

// PartitionMetaFromBytes deserializes the metadata prefix.
func PartitionMetaFromBytes(data []byte) (PartitionMeta, error) {
	if len(data) < PartitionMetaSize {
		return PartitionMeta{}, hcerr.New(hcerr.Format, "partition metadata too short")
	}
	return PartitionMeta{
		CompressedSize: binary.LittleEndian.Uint64(data[0:8]),
		OriginalSize:   binary.LittleEndian.Uint64(data[8:16]),
	}, nil
}
