package mac

import (
	"bytes"
	"testing"

	"github.com/codeology-limited/hypercube/internal/cube"
	"github.com/codeology-limited/hypercube/internal/sequence"
)

func TestComputeVerifyMACAllAlgorithms(t *testing.T) {
	secret := []byte("super-secret-key")
	block := sequence.SequencedBlock{Sequence: sequence.NewFromUint64(7), Data: []byte("payload bytes")}

	algorithms := []cube.HashAlgorithm{cube.HashSha3, cube.HashBlake3, cube.HashSha256}
	macBitsOptions := []int{128, 256, 512}

	for _, algo := range algorithms {
		for _, macBits := range macBitsOptions {
			tag := ComputeMAC(block, secret, algo, macBits)
			if len(tag) != macBits/8 {
				t.Fatalf("%s/%d: tag length = %d, want %d", algo, macBits, len(tag), macBits/8)
			}

			ab := AuthenticatedBlock{SequenceBytes: block.Sequence.Bytes(), Data: block.Data, Mac: tag}
			if !VerifyMAC(ab, secret, algo, macBits) {
				t.Errorf("%s/%d: VerifyMAC failed for correctly computed tag", algo, macBits)
			}
		}
	}
}

func TestVerifyMACFailsWithWrongSecret(t *testing.T) {
	block := sequence.SequencedBlock{Sequence: sequence.NewFromUint64(1), Data: []byte("data")}
	tag := ComputeMAC(block, []byte("secret-a"), cube.HashSha3, 256)
	ab := AuthenticatedBlock{SequenceBytes: block.Sequence.Bytes(), Data: block.Data, Mac: tag}

	if VerifyMAC(ab, []byte("secret-b"), cube.HashSha3, 256) {
		t.Error("VerifyMAC succeeded with the wrong secret")
	}
}

func TestVerifyMACFailsWithTamperedData(t *testing.T) {
	block := sequence.SequencedBlock{Sequence: sequence.NewFromUint64(1), Data: []byte("data")}
	secret := []byte("secret")
	tag := ComputeMAC(block, secret, cube.HashBlake3, 256)

	ab := AuthenticatedBlock{SequenceBytes: block.Sequence.Bytes(), Data: []byte("tampr"), Mac: tag}
	if VerifyMAC(ab, secret, cube.HashBlake3, 256) {
		t.Error("VerifyMAC succeeded with tampered data")
	}
}

func TestTruncateMACExpandsShortTags(t *testing.T) {
	short := []byte{1, 2, 3, 4}
	out := truncateMAC(short, 64)
	if len(out) != 64 {
		t.Fatalf("expanded length = %d, want 64", len(out))
	}
	if !bytes.HasPrefix(out, short) {
		t.Error("expanded tag should retain the original bytes as a prefix")
	}
}

func TestAuthenticatedBlockToBytesFromBytesRoundtrip(t *testing.T) {
	secret := []byte("secret")
	block := sequence.SequencedBlock{Sequence: sequence.NewFromUint64(42), Data: bytes.Repeat([]byte{0xAB}, 32)}
	tag := ComputeMAC(block, secret, cube.HashSha256, 256)
	ab := AuthenticatedBlock{SequenceBytes: block.Sequence.Bytes(), Data: block.Data, Mac: tag}

	raw := ab.ToBytes()
	got, ok := FromBytes(raw, len(tag))
	if !ok {
		t.Fatal("FromBytes failed to parse a valid record")
	}
	if got.SequenceBytes != ab.SequenceBytes {
		t.Error("sequence bytes mismatch after roundtrip")
	}
	if !bytes.Equal(got.Data, ab.Data) {
		t.Error("data mismatch after roundtrip")
	}
	if !bytes.Equal(got.Mac, ab.Mac) {
		t.Error("mac mismatch after roundtrip")
	}
}

func TestFromBytesRejectsTooShortInput(t *testing.T) {
	_, ok := FromBytes([]byte{1, 2, 3}, 32)
	if ok {
		t.Error("expected FromBytes to reject input shorter than sequence+mac size")
	}
}

func TestAuthenticateBlocksProducesVerifiableTags(t *testing.T) {
	secret := []byte("secret")
	blocks := sequence.SequenceBlocks([][]byte{[]byte("aaaa"), []byte("bbbb"), []byte("cccc")}, sequence.NewFromUint64(0))

	authenticated := AuthenticateBlocks(blocks, secret, cube.HashSha3, 256)
	if len(authenticated) != len(blocks) {
		t.Fatalf("got %d authenticated blocks, want %d", len(authenticated), len(blocks))
	}
	for i, ab := range authenticated {
		if !VerifyMAC(ab, secret, cube.HashSha3, 256) {
			t.Errorf("block %d failed verification", i)
		}
	}
}

func TestRandBytesReturnsRequestedLength(t *testing.T) {
	buf, err := RandBytes(32)
	if err != nil {
		t.Fatalf("RandBytes: %v", err)
	}
	if len(buf) != 32 {
		t.Errorf("got %d bytes, want 32", len(buf))
	}
}
