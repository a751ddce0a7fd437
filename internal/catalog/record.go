// Package catalog builds and persists per-photo feature records: the path,
// perceptual hash, capture time and embedding vector every downstream stage
// works from. Feature providers may fail per photo; the record simply carries
// fewer signals in that case.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
)

// PhotoRecord describes one physical image file and its derived signals.
// Path is the unique join key within a batch. Hash, CaptureTime and Embedding
// are optional: an empty hash, nil capture time or nil/empty embedding means
// the signal is unavailable for this photo.
type PhotoRecord struct {
	Path        string    `json:"path"`
	Hash        string    `json:"hash,omitempty"`         // 64-bit perceptual hash, hex encoded
	CaptureTime *int64    `json:"capture_time,omitempty"` // epoch milliseconds
	Embedding   []float32 `json:"embedding,omitempty"`
}

// HasCaptureTime reports whether a capture timestamp is available.
func (r *PhotoRecord) HasCaptureTime() bool {
	return r.CaptureTime != nil
}

// HasEmbedding reports whether an embedding vector is available.
func (r *PhotoRecord) HasEmbedding() bool {
	return len(r.Embedding) > 0
}

// Manifest is the serialized form of a scanned batch.
type Manifest struct {
	Photos []PhotoRecord `json:"photos"`
	Count  int           `json:"count"`
}

// WriteManifest writes records to a JSON manifest file.
func WriteManifest(path string, records []PhotoRecord) error {
	data, err := json.MarshalIndent(Manifest{Photos: records, Count: len(records)}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// ReadManifest loads records from a JSON manifest file.
func ReadManifest(path string) ([]PhotoRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return m.Photos, nil
}
