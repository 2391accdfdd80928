// Package sequence implements the 128-bit sequence tags attached to every
// transformed block. A tag is not a partition identifier: after the
// global reshuffle in internal/container, the only way to reconstruct a
// partition's original block order is to collect every block that
// authenticates with its secret and sort by this tag.
package sequence

import (
	"crypto/rand"
	"io"
	"sort"

	"github.com/codeology-limited/hypercube/internal/hcerr"
)

// Size is the sequence tag length in bytes (128 bits).
const Size = 16

// Number is a little-endian 128-bit counter, represented as two 64-bit
// halves since Go has no native uint128.
type Number struct {
	lo, hi uint64
}

// NewFromUint64 builds a Number from a 64-bit value (the high half is zero).
func NewFromUint64(v uint64) Number {
	return Number{lo: v}
}

// Bytes returns the little-endian 16-byte encoding.
func (n Number) Bytes() [Size]byte {
	var b [Size]byte
	putUint64LE(b[0:8], n.lo)
	putUint64LE(b[8:16], n.hi)
	return b
}

// FromBytes decodes a little-endian 16-byte sequence tag.
func FromBytes(b [Size]byte) Number {
	return Number{lo: getUint64LE(b[0:8]), hi: getUint64LE(b[8:16])}
}

// Increment advances the counter by one, wrapping across the 128-bit space.
func (n Number) Increment() Number {
	lo := n.lo + 1
	hi := n.hi
	if lo == 0 {
		hi++
	}
	return Number{lo: lo, hi: hi}
}

// Less reports whether n sorts before m (unsigned 128-bit comparison).
func (n Number) Less(m Number) bool {
	if n.hi != m.hi {
		return n.hi < m.hi
	}
	return n.lo < m.lo
}

// Equal reports whether n and m are the same 128-bit value.
func (n Number) Equal(m Number) bool {
	return n.hi == m.hi && n.lo == m.lo
}

// GenerateBase draws a random 128-bit sequence base from rng.
func GenerateBase(rng io.Reader) (Number, error) {
	var b [Size]byte
	if _, err := io.ReadFull(rng, b[:]); err != nil {
		return Number{}, hcerr.Wrap(hcerr.IO, "generate sequence base", err)
	}
	return FromBytes(b), nil
}

// GenerateBaseCSPRNG draws a random base using crypto/rand.
func GenerateBaseCSPRNG() (Number, error) {
	return GenerateBase(rand.Reader)
}

// SequencedBlock pairs a sequence tag with its block payload.
type SequencedBlock struct {
	Sequence Number
	Data     []byte
}

// ToBytes serializes a sequenced block as sequence || data.
func (s SequencedBlock) ToBytes() []byte {
	seq := s.Sequence.Bytes()
	out := make([]byte, 0, Size+len(s.Data))
	out = append(out, seq[:]...)
	out = append(out, s.Data...)
	return out
}

// SequencedBlockFromBytes parses sequence || data.
func SequencedBlockFromBytes(b []byte) (SequencedBlock, bool) {
	if len(b) < Size {
		return SequencedBlock{}, false
	}
	var seqBytes [Size]byte
	copy(seqBytes[:], b[:Size])
	data := make([]byte, len(b)-Size)
	copy(data, b[Size:])
	return SequencedBlock{Sequence: FromBytes(seqBytes), Data: data}, true
}

// SequenceBlocks assigns consecutive sequence tags starting at base.
func SequenceBlocks(blocks [][]byte, base Number) []SequencedBlock {
	result := make([]SequencedBlock, len(blocks))
	seq := base
	for i, block := range blocks {
		result[i] = SequencedBlock{Sequence: seq, Data: block}
		seq = seq.Increment()
	}
	return result
}

// UnsequenceBlocks sorts blocks by sequence tag and verifies the run is
// contiguous starting from the smallest tag present. It returns false if
// any tag is missing or duplicated.
func UnsequenceBlocks(blocks []SequencedBlock) ([][]byte, bool) {
	if len(blocks) == 0 {
		return nil, true
	}

	sorted := make([]SequencedBlock, len(blocks))
	copy(sorted, blocks)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Sequence.Less(sorted[j].Sequence)
	})

	base := sorted[0].Sequence
	want := base
	out := make([][]byte, len(sorted))
	for i, b := range sorted {
		if !b.Sequence.Equal(want) {
			return nil, false
		}
		out[i] = b.Data
		want = want.Increment()
	}
	return out, true
}

func putUint64LE(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

func getUint64LE(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}
