// Package storage keeps a local manifest of fetched model artifacts.
//
// The manifest is a BoltDB file next to the artifacts. Each record is keyed by
// model identifier and stores where the artifact came from and its digest, so
// repeated fetches can be audited without re-downloading anything.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	// ManifestFile is the database file name created inside the data path.
	ManifestFile = "fetch-manifest.db"

	artifactsBucket = "artifacts"
)

// ErrNotFound is returned when no record exists for a model.
var ErrNotFound = errors.New("artifact record not found")

// ArtifactRecord describes one fetched model artifact.
type ArtifactRecord struct {
	Model     string    `json:"model"`
	Name      string    `json:"name"`
	FileID    string    `json:"file_id"`
	Size      int64     `json:"size"`
	SHA256    string    `json:"sha256"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Store provides persistent storage for artifact records using BoltDB.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) the manifest inside dataPath.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, ManifestFile)

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(artifactsBucket)); err != nil {
			return fmt.Errorf("create artifacts bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database. Closing twice is a no-op.
func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// Put stores rec, replacing any previous record for the same model.
func (s *Store) Put(rec ArtifactRecord) error {
	if rec.Model == "" {
		return fmt.Errorf("artifact record needs a model")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(artifactsBucket))

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal artifact record: %w", err)
		}
		return b.Put([]byte(rec.Model), data)
	})
}

// Get returns the record for model or ErrNotFound.
func (s *Store) Get(model string) (ArtifactRecord, error) {
	var rec ArtifactRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(artifactsBucket)).Get([]byte(model))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, model)
		}
		return json.Unmarshal(data, &rec)
	})
	return rec, err
}
