package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifestPath(t *testing.T) {
	assert.Equal(t, "_manifest.msgpack", ManifestPath(""))
	assert.Equal(t, "runs/2024/_manifest.msgpack", ManifestPath("runs/2024"))
}

func TestDecodeManifest_Corrupt(t *testing.T) {
	_, err := DecodeManifest([]byte{0xc1, 0x00})
	assert.Error(t, err)
}

func TestEncodeManifest_PreservesFields(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	in := &Manifest{
		RunID:       "abc",
		CreatedAt:   created,
		Compression: "none",
		Sensors:     []ManifestEntry{{ID: "T", Kind: "float", Count: 9, Path: "T.txt", Failed: true}},
	}
	data, err := EncodeManifest(in)
	require.NoError(t, err)

	out, err := DecodeManifest(data)
	require.NoError(t, err)
	assert.True(t, created.Equal(out.CreatedAt))
	assert.Equal(t, in.Sensors, out.Sensors)
	assert.Equal(t, "abc", out.RunID)
}
