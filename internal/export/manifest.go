package export

import (
	"fmt"
	"path"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// ManifestName is the object name of the run manifest.
const ManifestName = "_manifest.msgpack"

// Manifest describes one emission run. It is informational: readers locate
// artifacts by sensor id and never consult it.
type Manifest struct {
	RunID       string          `msgpack:"run_id"`
	CreatedAt   time.Time       `msgpack:"created_at"`
	Compression string          `msgpack:"compression"`
	Sensors     []ManifestEntry `msgpack:"sensors"`
}

// ManifestEntry is one sensor's line in the manifest.
type ManifestEntry struct {
	ID     string `msgpack:"id"`
	Kind   string `msgpack:"kind"`
	Count  int    `msgpack:"count"`
	Path   string `msgpack:"path"`
	Failed bool   `msgpack:"failed,omitempty"`
}

// ManifestPath returns the manifest key under prefix.
func ManifestPath(prefix string) string {
	if prefix == "" {
		return ManifestName
	}
	return path.Join(prefix, ManifestName)
}

// EncodeManifest serializes m with msgpack.
func EncodeManifest(m *Manifest) ([]byte, error) {
	data, err := msgpack.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	return data, nil
}

// DecodeManifest parses a manifest written by EncodeManifest.
func DecodeManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := msgpack.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return &m, nil
}
