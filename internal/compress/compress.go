// Package compress provides a uniform compress/decompress interface over
// zstd, lz4, brotli and the identity "none" backend, dispatched by
// cube.Compression.
package compress

import (
	"bytes"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/codeology-limited/hypercube/internal/cube"
	"github.com/codeology-limited/hypercube/internal/hcerr"
)

// Compress compresses data with the named algorithm.
func Compress(data []byte, algorithm cube.Compression) ([]byte, error) {
	switch algorithm {
	case cube.CompressionZstd:
		return compressZstd(data)
	case cube.CompressionLz4:
		return compressLz4(data)
	case cube.CompressionBrotli:
		return compressBrotli(data)
	case cube.CompressionNone:
		return bytes.Clone(data), nil
	default:
		return nil, hcerr.New(hcerr.Unsupported, "compression: "+string(algorithm))
	}
}

// Decompress decompresses data with the named algorithm.
func Decompress(data []byte, algorithm cube.Compression) ([]byte, error) {
	switch algorithm {
	case cube.CompressionZstd:
		return decompressZstd(data)
	case cube.CompressionLz4:
		return decompressLz4(data)
	case cube.CompressionBrotli:
		return decompressBrotli(data)
	case cube.CompressionNone:
		return bytes.Clone(data), nil
	default:
		return nil, hcerr.New(hcerr.Unsupported, "compression: "+string(algorithm))
	}
}

func compressZstd(data []byte) ([]byte, error) {
	w, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, hcerr.Wrap(hcerr.Format, "zstd encoder", err)
	}
	defer w.Close()
	return w.EncodeAll(data, nil), nil
}

func decompressZstd(data []byte) ([]byte, error) {
	r, err := zstd.NewReader(nil)
	if err != nil {
		return nil, hcerr.Wrap(hcerr.Format, "zstd decoder", err)
	}
	defer r.Close()
	out, err := r.DecodeAll(data, nil)
	if err != nil {
		return nil, hcerr.Wrap(hcerr.Format, "zstd: decompress", err)
	}
	return out, nil
}

// lz4 frames are size-prepended (u32 LE original length) so decompression
// can preallocate, matching the original implementation's framing.
func compressLz4(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	var lenPrefix [4]byte
	putUint32LE(lenPrefix[:], uint32(len(data)))
	buf.Write(lenPrefix[:])

	w := lz4.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, hcerr.Wrap(hcerr.Format, "lz4: compress", err)
	}
	if err := w.Close(); err != nil {
		return nil, hcerr.Wrap(hcerr.Format, "lz4: compress", err)
	}
	return buf.Bytes(), nil
}

func decompressLz4(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, hcerr.New(hcerr.Format, "lz4: frame too short")
	}
	origLen := getUint32LE(data[:4])
	r := lz4.NewReader(bytes.NewReader(data[4:]))
	out := make([]byte, 0, origLen)
	buf := bytes.NewBuffer(out)
	if _, err := io.Copy(buf, r); err != nil {
		return nil, hcerr.Wrap(hcerr.Format, "lz4: decompress", err)
	}
	return buf.Bytes(), nil
}

func compressBrotli(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := brotli.NewWriterOptions(&buf, brotli.WriterOptions{Quality: 4, LGWin: 22})
	if _, err := w.Write(data); err != nil {
		return nil, hcerr.Wrap(hcerr.Format, "brotli: compress", err)
	}
	if err := w.Close(); err != nil {
		return nil, hcerr.Wrap(hcerr.Format, "brotli: compress", err)
	}
	return buf.Bytes(), nil
}

func decompressBrotli(data []byte) ([]byte, error) {
	r := brotli.NewReader(bytes.NewReader(data))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, hcerr.Wrap(hcerr.Format, "brotli: decompress", err)
	}
	return buf.Bytes(), nil
}

func putUint32LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func getUint32LE(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
