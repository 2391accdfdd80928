// Package seal fills a container's remaining capacity with chaff
// partitions: random, undecipherable data whose secret nobody keeps. A
// fully sealed cube gives an observer nothing to distinguish real
// partitions from filler — every block looks identical until someone who
// holds the right secret collects and verifies theirs.
package seal

import (
	"io"

	"github.com/codeology-limited/hypercube/internal/container"
	"github.com/codeology-limited/hypercube/internal/cube"
	"github.com/codeology-limited/hypercube/internal/hcerr"
	"github.com/codeology-limited/hypercube/internal/partition"
)

// slack reserves a little headroom below a partition's raw byte capacity
// (on top of the metadata prefix) so that compression framing overhead on
// random, incompressible chaff never pushes the payload past the padded
// data blocks.
const slack = 64

// SealFile fills path's container up to its theoretical block capacity
// with chaff partitions and appends them in a single bulk write. It
// returns the number of blocks added. Calling SealFile on an already-full
// container is a no-op; calling it on an over-full container is an error.
func SealFile(path string, rng io.Reader) (int, error) {
	h, err := container.Header(path)
	if err != nil {
		return 0, err
	}

	current, err := container.BlockCount(path)
	if err != nil {
		return 0, err
	}

	capacity := h.TheoreticalBlockCount()
	if capacity == 0 {
		return 0, nil
	}
	if current > capacity {
		return 0, hcerr.New(hcerr.Capacity, "container already exceeds its theoretical capacity")
	}
	if current == capacity {
		return 0, nil
	}

	remaining := capacity - current
	var newBlocks [][]byte

	for remaining > 0 {
		dataBlocks := h.DataBlocksPerPartition()
		maxPayload := h.BlockSize * dataBlocks
		dataSize := maxPayload - cube.PartitionMetaSize - slack
		if dataSize < 1 {
			dataSize = 1
		}

		randomData := make([]byte, dataSize)
		if _, err := io.ReadFull(rng, randomData); err != nil {
			return 0, hcerr.Wrap(hcerr.IO, "generate chaff payload", err)
		}
		secret := make([]byte, 32)
		if _, err := io.ReadFull(rng, secret); err != nil {
			return 0, hcerr.Wrap(hcerr.IO, "generate chaff secret", err)
		}

		produced, err := partition.Create(randomData, secret, h, &dataBlocks, rng)
		if err != nil {
			return 0, err
		}
		if len(produced) == 0 {
			continue
		}

		take := len(produced)
		if take > remaining {
			take = remaining
		}
		newBlocks = append(newBlocks, produced[:take]...)
		remaining -= take
	}

	if err := container.Append(path, newBlocks, rng); err != nil {
		return 0, err
	}

	return len(newBlocks), nil
}
