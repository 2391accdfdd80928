// Package segment turns a flat byte payload into fixed-size blocks and
// back (Segment/Unsegment), and turns blocks into fixed-size fragments and
// back (Fragment/Unfragment). Both directions are pure slicing arithmetic
// with no cryptographic content of their own.
package segment

// Segment splits data into blockSize chunks, padding the last chunk with
// zeros. Empty input still yields one zero-padded block.
func Segment(data []byte, blockSize int) [][]byte {
	if len(data) == 0 {
		return [][]byte{make([]byte, blockSize)}
	}

	var blocks [][]byte
	for offset := 0; offset < len(data); offset += blockSize {
		end := offset + blockSize
		if end > len(data) {
			end = len(data)
		}
		block := make([]byte, blockSize)
		copy(block, data[offset:end])
		blocks = append(blocks, block)
	}
	return blocks
}

// Unsegment joins blocks back into the original data, trimming the
// padding the last block was given.
func Unsegment(blocks [][]byte, originalSize int) []byte {
	if len(blocks) == 0 {
		return nil
	}
	result := make([]byte, 0, originalSize)
	for i, block := range blocks {
		if i == len(blocks)-1 {
			remaining := originalSize - len(result)
			if remaining < 0 {
				remaining = 0
			}
			if remaining > len(block) {
				remaining = len(block)
			}
			result = append(result, block[:remaining]...)
		} else {
			result = append(result, block...)
		}
	}
	if len(result) > originalSize {
		result = result[:originalSize]
	}
	return result
}

// BlockCount returns how many blockSize blocks dataSize bytes need.
func BlockCount(dataSize, blockSize int) int {
	if dataSize == 0 {
		return 1
	}
	return (dataSize + blockSize - 1) / blockSize
}

// FragmentBlock splits one block into fragmentSize-byte fragments.
// blockSize must be evenly divisible by fragmentSize.
func FragmentBlock(block []byte, fragmentSize int) [][]byte {
	n := len(block) / fragmentSize
	fragments := make([][]byte, n)
	for i := 0; i < n; i++ {
		frag := make([]byte, fragmentSize)
		copy(frag, block[i*fragmentSize:(i+1)*fragmentSize])
		fragments[i] = frag
	}
	return fragments
}

// FragmentAll flattens every block into one fragment list, returning the
// fragments alongside how many fragments made up each original block.
func FragmentAll(blocks [][]byte, fragmentSize int) ([][]byte, int) {
	if len(blocks) == 0 {
		return nil, 0
	}
	fragsPerBlock := len(blocks[0]) / fragmentSize
	fragments := make([][]byte, 0, len(blocks)*fragsPerBlock)
	for _, block := range blocks {
		fragments = append(fragments, FragmentBlock(block, fragmentSize)...)
	}
	return fragments, fragsPerBlock
}

// UnfragmentBlock reassembles fragments into one block.
func UnfragmentBlock(fragments [][]byte) []byte {
	total := 0
	for _, f := range fragments {
		total += len(f)
	}
	block := make([]byte, 0, total)
	for _, f := range fragments {
		block = append(block, f...)
	}
	return block
}

// UnfragmentAll regroups a flat fragment list back into blocks of
// fragsPerBlock fragments each.
func UnfragmentAll(fragments [][]byte, fragsPerBlock int) [][]byte {
	if len(fragments) == 0 || fragsPerBlock == 0 {
		return nil
	}
	n := len(fragments) / fragsPerBlock
	blocks := make([][]byte, n)
	for i := 0; i < n; i++ {
		blocks[i] = UnfragmentBlock(fragments[i*fragsPerBlock : (i+1)*fragsPerBlock])
	}
	return blocks
}
