// Package mac implements the keyed MAC abstraction hypercube uses to
// authenticate blocks: HMAC-SHA3-256, keyed BLAKE3, and HMAC-SHA256, each
// truncated or expanded to the configured tag width, with constant-time
// verification.
package mac

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"io"

	"golang.org/x/crypto/sha3"
	"lukechampine.com/blake3"

	"github.com/codeology-limited/hypercube/internal/cube"
	"github.com/codeology-limited/hypercube/internal/sequence"
)

// AuthenticatedBlock is a block record: sequence tag + transformed
// payload + MAC tag.
type AuthenticatedBlock struct {
	SequenceBytes [sequence.Size]byte
	Data          []byte
	Mac           []byte
}

// ToBytes serializes sequence || data || mac.
func (b AuthenticatedBlock) ToBytes() []byte {
	out := make([]byte, 0, sequence.Size+len(b.Data)+len(b.Mac))
	out = append(out, b.SequenceBytes[:]...)
	out = append(out, b.Data...)
	out = append(out, b.Mac...)
	return out
}

// FromBytes parses a block record given the known MAC width.
func FromBytes(b []byte, macBytes int) (AuthenticatedBlock, bool) {
	if len(b) < sequence.Size+macBytes {
		return AuthenticatedBlock{}, false
	}
	dataLen := len(b) - sequence.Size - macBytes
	var seqBytes [sequence.Size]byte
	copy(seqBytes[:], b[:sequence.Size])
	data := make([]byte, dataLen)
	copy(data, b[sequence.Size:sequence.Size+dataLen])
	tag := make([]byte, macBytes)
	copy(tag, b[sequence.Size+dataLen:])
	return AuthenticatedBlock{SequenceBytes: seqBytes, Data: data, Mac: tag}, true
}

// ComputeMAC computes the MAC for a sequenced block.
func ComputeMAC(block sequence.SequencedBlock, secret []byte, algorithm cube.HashAlgorithm, macBits int) []byte {
	return computeMACRaw(block.ToBytes(), secret, algorithm, macBits)
}

func computeMACRaw(data, secret []byte, algorithm cube.HashAlgorithm, macBits int) []byte {
	macBytes := macBits / 8

	switch algorithm {
	case cube.HashBlake3:
		key := blake3.Sum256(secret)
		h := blake3.New(32, key[:])
		h.Write(data)
		return truncateMAC(h.Sum(nil), macBytes)
	case cube.HashSha256:
		h := hmac.New(sha256.New, secret)
		h.Write(data)
		return truncateMAC(h.Sum(nil), macBytes)
	default: // cube.HashSha3
		h := hmac.New(sha3.New256, secret)
		h.Write(data)
		return truncateMAC(h.Sum(nil), macBytes)
	}
}

// truncateMAC shrinks mac to bytes if it's longer, or expands it by
// repeatedly appending blake3.Sum256(result) until it's long enough.
func truncateMAC(tag []byte, bytes int) []byte {
	if bytes <= len(tag) {
		out := make([]byte, bytes)
		copy(out, tag[:bytes])
		return out
	}
	result := append([]byte(nil), tag...)
	for len(result) < bytes {
		ext := blake3.Sum256(result)
		result = append(result, ext[:]...)
	}
	return result[:bytes]
}

// VerifyMAC reports whether block authenticates under secret.
func VerifyMAC(block AuthenticatedBlock, secret []byte, algorithm cube.HashAlgorithm, macBits int) bool {
	message := make([]byte, 0, sequence.Size+len(block.Data))
	message = append(message, block.SequenceBytes[:]...)
	message = append(message, block.Data...)

	expected := computeMACRaw(message, secret, algorithm, macBits)
	return constantTimeCompare(expected, block.Mac)
}

func constantTimeCompare(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}

// AuthenticateBlocks computes a MAC for every sequenced block.
func AuthenticateBlocks(blocks []sequence.SequencedBlock, secret []byte, algorithm cube.HashAlgorithm, macBits int) []AuthenticatedBlock {
	out := make([]AuthenticatedBlock, len(blocks))
	for i, block := range blocks {
		out[i] = AuthenticatedBlock{
			SequenceBytes: block.Sequence.Bytes(),
			Data:          block.Data,
			Mac:           ComputeMAC(block, secret, algorithm, macBits),
		}
	}
	return out
}

// RandBytes returns n CSPRNG bytes read from crypto/rand.
func RandBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
