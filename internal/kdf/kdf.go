// Package kdf turns a human passphrase into the flat byte secret that
// internal/partition's Create/Recover expect. It sits in front of the
// core pipeline as an optional convenience: nothing it derives is
// persisted, and the salt it uses comes entirely from a container's
// already-public header fields, so no extra state needs to travel with
// the container.
package kdf

import (
	"encoding/binary"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/scrypt"
	"golang.org/x/crypto/sha3"

	"github.com/codeology-limited/hypercube/internal/cube"
	"github.com/codeology-limited/hypercube/internal/hcerr"
)

// Variant names a password-hardening function.
type Variant string

const (
	VariantArgon2id Variant = "argon2id"
	VariantScrypt   Variant = "scrypt"
)

const (
	saltLabel = "hypercube-kdf-salt-v1"
	saltSize  = 32
	keySize   = 32

	argon2Memory      = 64 * 1024
	argon2Iterations  = 3
	argon2Parallelism = 4

	scryptLogN = 17
	scryptR    = 8
	scryptP    = 1
)

// DeriveSecret hardens passphrase into a 32-byte secret using variant. The
// salt is derived via HKDF over the container's public header fields
// (cube_id, dimension, block_size, mac_bits), so the same header always
// yields the same salt without storing one.
func DeriveSecret(passphrase []byte, h *cube.Header, variant Variant) ([]byte, error) {
	salt, err := deriveSalt(h)
	if err != nil {
		return nil, err
	}

	switch variant {
	case VariantScrypt:
		key, err := scrypt.Key(passphrase, salt, 1<<scryptLogN, scryptR, scryptP, keySize)
		if err != nil {
			return nil, hcerr.Wrap(hcerr.IO, "scrypt derive", err)
		}
		return key, nil
	default: // VariantArgon2id
		return argon2.IDKey(passphrase, salt, argon2Iterations, argon2Memory, argon2Parallelism, keySize), nil
	}
}

// deriveSalt expands the header's public fields into a fixed-size salt
// via HKDF-SHA3-256: the fields are the input key material and a constant
// label is the HKDF info; no secret goes in.
func deriveSalt(h *cube.Header) ([]byte, error) {
	ikm := make([]byte, 0, 32)
	ikm = appendUint64(ikm, uint64(h.CubeID))
	ikm = appendUint64(ikm, uint64(h.Dimension))
	ikm = appendUint64(ikm, uint64(h.BlockSize))
	ikm = appendUint64(ikm, uint64(h.MacBits))

	r := hkdf.New(sha3.New256, ikm, nil, []byte(saltLabel))
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(r, salt); err != nil {
		return nil, hcerr.Wrap(hcerr.IO, "derive kdf salt", err)
	}
	return salt, nil
}

func appendUint64(b []byte, v uint64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return append(b, buf[:]...)
}
