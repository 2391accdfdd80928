// Package aont implements the two all-or-nothing transforms hypercube
// supports: Rivest's 1997 package transform (randomized, grows the
// fragment count by one block's worth) and a deterministic 2-round
// OAEP-style Feistel (size-preserving). Both operate on flat fragment
// lists produced by internal/segment.
package aont

import (
	"crypto/rand"
	"encoding/binary"
	"io"

	"golang.org/x/crypto/sha3"

	"github.com/codeology-limited/hypercube/internal/cube"
)

const keySize = 32

// Apply runs the forward transform named by algorithm. fragsPerBlock is
// needed by Rivest to keep the appended key material block-aligned.
func Apply(fragments [][]byte, algorithm cube.Aont, fragsPerBlock int, rng io.Reader) ([][]byte, error) {
	switch algorithm {
	case cube.AontOaep:
		return oaepApply(fragments), nil
	default:
		return rivestApply(fragments, fragsPerBlock, rng)
	}
}

// Reverse runs the inverse transform named by algorithm.
func Reverse(fragments [][]byte, algorithm cube.Aont, fragsPerBlock int) [][]byte {
	switch algorithm {
	case cube.AontOaep:
		return oaepReverse(fragments)
	default:
		return rivestReverse(fragments, fragsPerBlock)
	}
}

// rivestApply implements:
//
//	m'[i] = m[i] XOR PRF(K, i)
//	key_block = K XOR H(0||m'[0]) XOR H(1||m'[1]) XOR ...
//
// then appends key_block, spread across fragsPerBlock fragments so the
// transformed fragment count stays a whole number of blocks.
func rivestApply(fragments [][]byte, fragsPerBlock int, rng io.Reader) ([][]byte, error) {
	if len(fragments) == 0 {
		return fragments, nil
	}
	if rng == nil {
		rng = rand.Reader
	}

	fragSize := len(fragments[0])
	out := make([][]byte, len(fragments))

	var key [keySize]byte
	if _, err := io.ReadFull(rng, key[:]); err != nil {
		return nil, err
	}

	for i, frag := range fragments {
		mask := prf(key[:], i, len(frag))
		out[i] = xorBytes(frag, mask)
	}

	keyBlock := key
	for i, frag := range out {
		h := hashIndexed(i, frag)
		xorInPlace(keyBlock[:], h[:])
	}

	keyFragsNeeded := (keySize + fragSize - 1) / fragSize
	for i := 0; i < fragsPerBlock; i++ {
		keyFrag := make([]byte, fragSize)
		if i < keyFragsNeeded {
			start := i * fragSize
			end := start + fragSize
			if end > keySize {
				end = keySize
			}
			if start < keySize {
				copy(keyFrag, keyBlock[start:end])
			}
		}
		out = append(out, keyFrag)
	}

	return out, nil
}

func rivestReverse(fragments [][]byte, fragsPerBlock int) [][]byte {
	if len(fragments) < fragsPerBlock+1 {
		return fragments
	}

	n := len(fragments) - fragsPerBlock
	data := fragments[:n]
	keyFrags := fragments[n:]

	fragSize := len(data[0])
	var keyBlock [keySize]byte
	keyFragsNeeded := (keySize + fragSize - 1) / fragSize
	for i := 0; i < keyFragsNeeded && i < len(keyFrags); i++ {
		frag := keyFrags[i]
		start := i * fragSize
		end := start + fragSize
		if end > keySize {
			end = keySize
		}
		if start < keySize {
			copy(keyBlock[start:end], frag)
		}
	}

	for i, frag := range data {
		h := hashIndexed(i, frag)
		xorInPlace(keyBlock[:], h[:])
	}

	out := make([][]byte, len(data))
	for i, frag := range data {
		mask := prf(keyBlock[:], i, len(frag))
		out[i] = xorBytes(frag, mask)
	}
	return out
}

// prf expands SHA3-256("hypercube_rivest_prf" || key || index || counter)
// to the requested length.
func prf(key []byte, index, length int) []byte {
	result := make([]byte, 0, length)
	var ctr uint64
	var idxBuf, ctrBuf [8]byte
	binary.LittleEndian.PutUint64(idxBuf[:], uint64(index))
	for len(result) < length {
		binary.LittleEndian.PutUint64(ctrBuf[:], ctr)
		h := sha3.New256()
		h.Write([]byte("hypercube_rivest_prf"))
		h.Write(key)
		h.Write(idxBuf[:])
		h.Write(ctrBuf[:])
		sum := h.Sum(nil)
		need := length - len(result)
		if need > len(sum) {
			need = len(sum)
		}
		result = append(result, sum[:need]...)
		ctr++
	}
	return result
}

func hashIndexed(index int, data []byte) [keySize]byte {
	var idxBuf [8]byte
	binary.LittleEndian.PutUint64(idxBuf[:], uint64(index))
	h := sha3.New256()
	h.Write(idxBuf[:])
	h.Write(data)
	var out [keySize]byte
	copy(out[:], h.Sum(nil))
	return out
}

// oaepApply runs a 2-round Feistel: mask the right half with a hash of
// the left half, then mask the left half with a hash of the (now masked)
// right half.
func oaepApply(fragments [][]byte) [][]byte {
	if len(fragments) < 2 {
		return fragments
	}
	out := cloneFragments(fragments)
	mid := len(out) / 2

	leftHash := computeHalfHash(out[:mid])
	for i := mid; i < len(out); i++ {
		mask := expandHash(leftHash, len(out[i]))
		xorInPlace(out[i], mask)
	}

	rightHash := computeHalfHash(out[mid:])
	for i := 0; i < mid; i++ {
		mask := expandHash(rightHash, len(out[i]))
		xorInPlace(out[i], mask)
	}

	return out
}

func oaepReverse(fragments [][]byte) [][]byte {
	if len(fragments) < 2 {
		return fragments
	}
	out := cloneFragments(fragments)
	mid := len(out) / 2

	rightHash := computeHalfHash(out[mid:])
	for i := 0; i < mid; i++ {
		mask := expandHash(rightHash, len(out[i]))
		xorInPlace(out[i], mask)
	}

	leftHash := computeHalfHash(out[:mid])
	for i := mid; i < len(out); i++ {
		mask := expandHash(leftHash, len(out[i]))
		xorInPlace(out[i], mask)
	}

	return out
}

func computeHalfHash(fragments [][]byte) [32]byte {
	h := sha3.New256()
	h.Write([]byte("hypercube_aont_half"))
	for _, f := range fragments {
		h.Write(f)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func expandHash(seed [32]byte, length int) []byte {
	result := make([]byte, 0, length)
	var ctr uint64
	var ctrBuf [8]byte
	for len(result) < length {
		binary.LittleEndian.PutUint64(ctrBuf[:], ctr)
		h := sha3.New256()
		h.Write(seed[:])
		h.Write(ctrBuf[:])
		sum := h.Sum(nil)
		need := length - len(result)
		if need > len(sum) {
			need = len(sum)
		}
		result = append(result, sum[:need]...)
		ctr++
	}
	return result
}

func xorBytes(data, key []byte) []byte {
	out := make([]byte, len(data))
	copy(out, data)
	xorInPlace(out, key)
	return out
}

func xorInPlace(data, key []byte) {
	n := len(data)
	if len(key) < n {
		n = len(key)
	}
	for i := 0; i < n; i++ {
		data[i] ^= key[i]
	}
}

func cloneFragments(fragments [][]byte) [][]byte {
	out := make([][]byte, len(fragments))
	for i, f := range fragments {
		c := make([]byte, len(f))
		copy(c, f)
		out[i] = c
	}
	return out
}
