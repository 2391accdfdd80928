package partition

import (
	"bytes"
	"crypto/rand"
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

func TestCreateRecoverRoundtrip(t *testing.T) {
	h := testHeader(t)
	secret := []byte("partition-secret")
	data := []byte("the quick brown fox jumps over the lazy dog, repeated for good measure")

	blocks, err := Create(data, secret, h, nil, rand.Reader)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(blocks) == 0 {
		t.Fatal("Create returned no blocks")
	}
	for _, b := range blocks {
		if len(b) != h.TotalBlockSize() {
			t.Fatalf("block size = %d, want %d", len(b), h.TotalBlockSize())
		}
	}

	recovered, err := Recover(blocks, secret, h)
	if err != nil {
		t.Fatalf("Recover: %v", err)
	}
	if !bytes.Equal(recovered, data) {
		t.Errorf("recovered = %q, want %q", recovered, data)
	}
}

func TestRecoverFailsWithWrongSecret(t *testing.T) {
	h := testHeader(t)
	data := []byte("sensitive payload")

	blocks, err := Create(data, []byte("correct-secret"), h, nil, rand.Reader)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = Recover(blocks, []byte("wrong-secret"), h)
	if err == nil {
		t.Error("expected Recover to fail with the wrong secret")
	}
}

func TestRecoverScansAmongUnrelatedBlocks(t *testing.T) {
	h := testHeader(t)
	secretA := []byte("secret-a")
	secretB := []byte("secret-b")

	blocksA, err := Create([]byte("partition A payload"), secretA, h, nil, rand.Reader)
	if err != nil {
		t.Fatalf("Create A: %v", err)
	}
	blocksB, err := Create([]byte("partition B payload, a different size"), secretB, h, nil, rand.Reader)
	if err != nil {
		t.Fatalf("Create B: %v", err)
	}

	// mix the two partitions' blocks together, as they would be after a
	// container-wide reshuffle; recovering with secretA should only see
	// partition A's data.
	mixed := append(append([][]byte{}, blocksA...), blocksB...)

	got, err := Recover(mixed, secretA, h)
	if err != nil {
		t.Fatalf("Recover with secretA: %v", err)
	}
	if !bytes.Equal(got, []byte("partition A payload")) {
		t.Errorf("recovered = %q, want partition A payload", got)
	}
}

func TestCreateWithPadToBlocks(t *testing.T) {
	h := testHeader(t)
	secret := []byte("secret")
	data := []byte("short")
	pad := 3

	blocks, err := Create(data, secret, h, &pad, rand.Reader)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	recovered, err := Recover(blocks, secret, h)
	if err != nil {
		t.Fatalf("Recover: %v", err)
	}
	if !bytes.Equal(recovered, data) {
		t.Errorf("recovered = %q, want %q", recovered, data)
	}
}

func TestCreateRejectsPayloadExceedingPadTarget(t *testing.T) {
	h := testHeader(t)
	// no compression, so the repeated bytes cannot shrink under the target
	h.Compression = cube.CompressionNone
	secret := []byte("secret")
	data := bytes.Repeat([]byte{0xFF}, h.BlockSize*4)
	pad := 1

	_, err := Create(data, secret, h, &pad, rand.Reader)
	if err == nil {
		t.Error("expected Create to reject a payload larger than the padded capacity")
	}
}

func TestGenerateChaffProducesRequestedSize(t *testing.T) {
	chaff, err := GenerateChaff(128)
	if err != nil {
		t.Fatalf("GenerateChaff: %v", err)
	}
	if len(chaff) != 128 {
		t.Errorf("got %d bytes, want 128", len(chaff))
	}
}

func TestRecoverRejectsEmptyBlockSet(t *testing.T) {
	h := testHeader(t)
	_, err := Recover(nil, []byte("secret"), h)
	if err == nil {
		t.Error("expected Recover to fail on an empty block set")
	}
}
