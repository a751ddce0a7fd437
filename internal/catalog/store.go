package catalog

import (
	"bytes"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"

	_ "github.com/mattn/go-sqlite3"
)

// Store is a sqlite cache of computed photo signals keyed by (path, mod time).
// A record is reused on rescan only while the file is unmodified.
type Store struct {
	db *sql.DB
}

// OpenStore opens (and if needed initializes) a signal cache at dbPath.
func OpenStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS photos (
		path TEXT PRIMARY KEY,
		mod_time INTEGER NOT NULL,
		hash TEXT,
		capture_time INTEGER,
		embedding BLOB
	);
	CREATE INDEX IF NOT EXISTS idx_photos_hash ON photos(hash);`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the cached record for path if one exists for the given file
// modification time. The second return value reports a cache hit.
func (s *Store) Get(path string, modTime int64) (*PhotoRecord, bool, error) {
	row := s.db.QueryRow(
		"SELECT hash, capture_time, embedding FROM photos WHERE path = ? AND mod_time = ?",
		path, modTime,
	)

	var hash sql.NullString
	var captureTime sql.NullInt64
	var embedding []byte
	if err := row.Scan(&hash, &captureTime, &embedding); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache lookup for %s: %w", path, err)
	}

	rec := &PhotoRecord{Path: path}
	if hash.Valid {
		rec.Hash = hash.String
	}
	if captureTime.Valid {
		ct := captureTime.Int64
		rec.CaptureTime = &ct
	}
	if len(embedding) > 0 {
		vec, err := decodeEmbedding(embedding)
		if err != nil {
			return nil, false, fmt.Errorf("cache embedding for %s: %w", path, err)
		}
		rec.Embedding = vec
	}
	return rec, true, nil
}

// Put stores or replaces the cached record for a file.
func (s *Store) Put(rec PhotoRecord, modTime int64) error {
	var hash any
	if rec.Hash != "" {
		hash = rec.Hash
	}
	var captureTime any
	if rec.CaptureTime != nil {
		captureTime = *rec.CaptureTime
	}
	var embedding any
	if len(rec.Embedding) > 0 {
		embedding = encodeEmbedding(rec.Embedding)
	}

	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO photos (path, mod_time, hash, capture_time, embedding) VALUES (?, ?, ?, ?, ?)",
		rec.Path, modTime, hash, captureTime, embedding,
	)
	if err != nil {
		return fmt.Errorf("cache store for %s: %w", rec.Path, err)
	}
	return nil
}

// encodeEmbedding packs a float32 vector as little-endian bytes.
func encodeEmbedding(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

// decodeEmbedding unpacks a little-endian float32 vector.
func decodeEmbedding(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("embedding blob has %d bytes, not a multiple of 4", len(data))
	}
	vec := make([]float32, len(data)/4)
	r := bytes.NewReader(data)
	if err := binary.Read(r, binary.LittleEndian, &vec); err != nil {
		return nil, err
	}
	return vec, nil
}
