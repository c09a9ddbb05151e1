package fragment

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/segmentio/encoding/json"
)

// Manifest describes one fragment's identity and on-disk tile payload
// the way a fixture directory records it: id (assigned position among
// an array's fragments, oldest first), storage kind, the rectangle it
// covers, and a path to its (optionally zstd-compressed) tile bytes.
type Manifest struct {
	ID        int32      `json:"id"`
	Dense     bool       `json:"dense"`
	Bounds    [][2]int64 `json:"bounds"`
	Coords    [][]int64  `json:"coords,omitempty"` // sparse fragments only
	DataPath  string     `json:"data_path"`
	Zstd      bool       `json:"zstd"`
	Timestamp int64      `json:"timestamp"`
}

// LoadManifests decodes a fragment manifest list from path using
// segmentio/encoding/json, the fast-path decoder for many small
// fixed-shape records.
func LoadManifests(path string) ([]Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fragment manifest %s: %w", path, err)
	}
	var manifests []Manifest
	if err := json.Unmarshal(data, &manifests); err != nil {
		return nil, fmt.Errorf("decoding fragment manifest %s: %w", path, err)
	}
	return manifests, nil
}

// LoadTileBytes reads a fragment's backing data file, transparently
// decompressing it when the manifest marks it zstd-encoded.
func LoadTileBytes(m Manifest) ([]byte, error) {
	raw, err := os.ReadFile(m.DataPath)
	if err != nil {
		return nil, fmt.Errorf("reading fragment data %s: %w", m.DataPath, err)
	}
	if !m.Zstd {
		return raw, nil
	}
	dec, err := zstd.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("opening zstd fragment data %s: %w", m.DataPath, err)
	}
	defer dec.Close()
	out, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("decompressing zstd fragment data %s: %w", m.DataPath, err)
	}
	return out, nil
}
