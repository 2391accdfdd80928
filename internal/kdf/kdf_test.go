package kdf

import (
	"bytes"
	"testing"

	"github.com/codeology-limited/hypercube/internal/cube"
)

func testHeader(t *testing.T) *cube.Header {
	t.Helper()
	h, err := cube.New(1, 8, 8, 64, 256)
	if err != nil {
		t.Fatalf("cube.New: %v", err)
	}
	return h
}

func TestDeriveSecretIsDeterministic(t *testing.T) {
	h := testHeader(t)
	pass := []byte("correct horse battery staple")

	a, err := DeriveSecret(pass, h, VariantArgon2id)
	if err != nil {
		t.Fatalf("DeriveSecret: %v", err)
	}
	b, err := DeriveSecret(pass, h, VariantArgon2id)
	if err != nil {
		t.Fatalf("DeriveSecret: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("DeriveSecret should be deterministic for the same passphrase and header")
	}
	if len(a) != keySize {
		t.Errorf("got %d bytes, want %d", len(a), keySize)
	}
}

func TestDeriveSecretDiffersByVariant(t *testing.T) {
	h := testHeader(t)
	pass := []byte("same passphrase")

	argon, err := DeriveSecret(pass, h, VariantArgon2id)
	if err != nil {
		t.Fatalf("DeriveSecret argon2id: %v", err)
	}
	scryptKey, err := DeriveSecret(pass, h, VariantScrypt)
	if err != nil {
		t.Fatalf("DeriveSecret scrypt: %v", err)
	}
	if bytes.Equal(argon, scryptKey) {
		t.Error("different KDF variants should not produce identical keys")
	}
}

func TestDeriveSecretDiffersByPassphrase(t *testing.T) {
	h := testHeader(t)
	a, err := DeriveSecret([]byte("passphrase-one"), h, VariantArgon2id)
	if err != nil {
		t.Fatalf("DeriveSecret: %v", err)
	}
	b, err := DeriveSecret([]byte("passphrase-two"), h, VariantArgon2id)
	if err != nil {
		t.Fatalf("DeriveSecret: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Error("different passphrases should not produce identical keys")
	}
}

func TestDeriveSecretDiffersByHeaderGeometry(t *testing.T) {
	pass := []byte("same passphrase")
	h1 := testHeader(t)
	h2, err := cube.New(2, 8, 8, 64, 256)
	if err != nil {
		t.Fatalf("cube.New: %v", err)
	}

	a, err := DeriveSecret(pass, h1, VariantArgon2id)
	if err != nil {
		t.Fatalf("DeriveSecret: %v", err)
	}
	b, err := DeriveSecret(pass, h2, VariantArgon2id)
	if err != nil {
		t.Fatalf("DeriveSecret: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Error("different cube IDs should salt to different keys")
	}
}
