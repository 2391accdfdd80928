package seal

import (
	"crypto/rand"
	"path/filepath"
	"testing"

	"github.com/codeology-limited/hypercube/internal/container"
	"github.com/codeology-limited/hypercube/internal/cube"
	"github.com/codeology-limited/hypercube/internal/partition"
)

func testHeader(t *testing.T) *cube.Header {
	t.Helper()
	h, err := cube.New(1, 8, 8, 64, 256)
	if err != nil {
		t.Fatalf("cube.New: %v", err)
	}
	return h
}

func TestSealFileFillsToCapacity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.vhc")
	h := testHeader(t)
	if err := container.Write(path, h, nil); err != nil {
		t.Fatalf("Write: %v", err)
	}

	added, err := SealFile(path, rand.Reader)
	if err != nil {
		t.Fatalf("SealFile: %v", err)
	}

	capacity := h.TheoreticalBlockCount()
	if added != capacity {
		t.Errorf("added = %d, want %d", added, capacity)
	}

	count, err := container.BlockCount(path)
	if err != nil {
		t.Fatalf("BlockCount: %v", err)
	}
	if count != capacity {
		t.Errorf("BlockCount = %d, want %d", count, capacity)
	}
}

func TestSealFileIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.vhc")
	h := testHeader(t)
	if err := container.Write(path, h, nil); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if _, err := SealFile(path, rand.Reader); err != nil {
		t.Fatalf("first SealFile: %v", err)
	}

	added, err := SealFile(path, rand.Reader)
	if err != nil {
		t.Fatalf("second SealFile: %v", err)
	}
	if added != 0 {
		t.Errorf("second SealFile added = %d, want 0 (already sealed)", added)
	}
}

func TestSealFileTopsUpRemainderAfterRealPartition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.vhc")
	h := testHeader(t)
	if err := container.Write(path, h, nil); err != nil {
		t.Fatalf("Write: %v", err)
	}

	dataBlocks := h.DataBlocksPerPartition()
	blocks, err := partition.Create([]byte("a real partition's payload"), []byte("real-secret"), h, &dataBlocks, rand.Reader)
	if err != nil {
		t.Fatalf("partition.Create: %v", err)
	}
	if err := container.Append(path, blocks, rand.Reader); err != nil {
		t.Fatalf("Append: %v", err)
	}

	before, err := container.BlockCount(path)
	if err != nil {
		t.Fatalf("BlockCount: %v", err)
	}

	added, err := SealFile(path, rand.Reader)
	if err != nil {
		t.Fatalf("SealFile: %v", err)
	}
	capacity := h.TheoreticalBlockCount()
	if added != capacity-before {
		t.Errorf("added = %d, want %d", added, capacity-before)
	}

	// the real partition must still recover cleanly after sealing mixes
	// in chaff and the container reshuffles.
	_, allBlocks, err := container.Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	recovered, err := partition.Recover(allBlocks, []byte("real-secret"), h)
	if err != nil {
		t.Fatalf("Recover after seal: %v", err)
	}
	if string(recovered) != "a real partition's payload" {
		t.Errorf("recovered = %q, want original payload", recovered)
	}
}
