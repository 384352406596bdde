package seriesfile

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCompression(t *testing.T) {
	for in, want := range map[string]Compression{
		"":     CompressionNone,
		"none": CompressionNone,
		"GZIP": CompressionGzip,
		"zst":  CompressionZstd,
		"zstd": CompressionZstd,
	} {
		got, err := ParseCompression(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseCompression("lz4")
	assert.Error(t, err)
}

func TestArtifactPath(t *testing.T) {
	assert.Equal(t, "TEMP.txt", ArtifactPath("", "TEMP", CompressionNone))
	assert.Equal(t, "runs/TEMP.txt.gz", ArtifactPath("runs", "TEMP", CompressionGzip))
	assert.Equal(t, "TEMP.txt.zst", ArtifactPath("", "TEMP", CompressionZstd))

	for _, c := range AllCompressions {
		assert.Equal(t, c, CompressionFromPath(ArtifactPath("p", "X", c)))
	}
}

func TestCompress_RoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("1700000000 23.50\n"), 1000)

	for _, c := range AllCompressions {
		t.Run(string(c), func(t *testing.T) {
			packed, err := Compress(data, c)
			require.NoError(t, err)
			if c != CompressionNone {
				assert.Less(t, len(packed), len(data))
			}

			unpacked, err := Decompress(packed, c)
			require.NoError(t, err)
			assert.Equal(t, data, unpacked)
		})
	}
}

func TestDecompress_Corrupt(t *testing.T) {
	_, err := Decompress([]byte("not gzip"), CompressionGzip)
	assert.Error(t, err)

	_, err = Decompress([]byte("not zstd"), CompressionZstd)
	assert.Error(t, err)
}
