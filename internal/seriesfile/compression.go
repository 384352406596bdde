package seriesfile

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Extension is the file extension of an uncompressed artifact.
const Extension = ".txt"

// maxDecompressedSize bounds how much a compressed artifact may expand.
const maxDecompressedSize = 512 * 1024 * 1024

// Compression selects how artifacts are stored.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

// AllCompressions lists every codec, in the order readers probe for artifacts.
var AllCompressions = []Compression{CompressionNone, CompressionGzip, CompressionZstd}

// ParseCompression maps a config value to a Compression.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CompressionNone, nil
	case "gzip", "gz":
		return CompressionGzip, nil
	case "zstd", "zst":
		return CompressionZstd, nil
	default:
		return "", fmt.Errorf("unknown compression %q", s)
	}
}

// Suffix returns the extension appended after ".txt".
func (c Compression) Suffix() string {
	switch c {
	case CompressionGzip:
		return ".gz"
	case CompressionZstd:
		return ".zst"
	default:
		return ""
	}
}

// ArtifactPath returns the storage key of a sensor's artifact: <prefix>/<id>.txt[.gz|.zst].
func ArtifactPath(prefix, sensorID string, c Compression) string {
	name := sensorID + Extension + c.Suffix()
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// CompressionFromPath derives the codec from an artifact key.
func CompressionFromPath(p string) Compression {
	switch {
	case strings.HasSuffix(p, Extension+CompressionGzip.Suffix()):
		return CompressionGzip
	case strings.HasSuffix(p, Extension+CompressionZstd.Suffix()):
		return CompressionZstd
	default:
		return CompressionNone
	}
}

// Compress encodes data with c.
func Compress(data []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionGzip:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("gzip write: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("gzip close: %w", err)
		}
		return buf.Bytes(), nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd encoder: %w", err)
		}
		defer enc.Close()
		return enc.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
	default:
		return nil, fmt.Errorf("unknown compression %q", c)
	}
}

// Decompress reverses Compress.
func Decompress(data []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionGzip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer r.Close()
		return readLimited(r)
	case CompressionZstd:
		dec, err := zstd.NewReader(bytes.NewReader(data), zstd.WithDecoderMaxMemory(maxDecompressedSize))
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		defer dec.Close()
		return readLimited(dec)
	default:
		return nil, fmt.Errorf("unknown compression %q", c)
	}
}

func readLimited(r io.Reader) ([]byte, error) {
	out, err := io.ReadAll(io.LimitReader(r, maxDecompressedSize+1))
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	if len(out) > maxDecompressedSize {
		return nil, fmt.Errorf("decompressed artifact exceeds %d bytes", maxDecompressedSize)
	}
	return out, nil
}
