package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	tempDir := t.TempDir()

	store, err := New(tempDir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	if store.db == nil {
		t.Error("Store database is nil")
	}

	dbPath := filepath.Join(tempDir, ManifestFile)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestNew_InvalidPath(t *testing.T) {
	invalidPath := filepath.Join(t.TempDir(), "missing", "nested")

	_, err := New(invalidPath)
	if err == nil {
		t.Error("Expected error for invalid path, got nil")
	}
}

func TestStore_Close(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Errorf("Error closing store: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("Error closing already closed store: %v", err)
	}
}

func TestStore_PutGet(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	fetched := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	rec := ArtifactRecord{
		Model:     "svm",
		Name:      "svm_model.pkl",
		FileID:    "abc123",
		Size:      2048,
		SHA256:    "deadbeef",
		FetchedAt: fetched,
	}
	if err := store.Put(rec); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get("svm")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != rec.Name || got.FileID != rec.FileID || got.Size != rec.Size || got.SHA256 != rec.SHA256 {
		t.Errorf("Record mismatch: got %+v, want %+v", got, rec)
	}
	if !got.FetchedAt.Equal(fetched) {
		t.Errorf("FetchedAt mismatch: got %v, want %v", got.FetchedAt, fetched)
	}

	rec.Size = 4096
	if err := store.Put(rec); err != nil {
		t.Fatalf("Put overwrite failed: %v", err)
	}
	got, _ = store.Get("svm")
	if got.Size != 4096 {
		t.Errorf("Expected overwritten size 4096, got %d", got.Size)
	}
}

func TestStore_GetMissing(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	_, err = store.Get("xgboost")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestStore_PutRequiresModel(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	if err := store.Put(ArtifactRecord{Name: "x.pkl"}); err == nil {
		t.Error("Expected error for record without model")
	}
}

func TestStore_Reopen(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	for _, model := range []string{"xgboost", "random_forest", "svm"} {
		if err := store.Put(ArtifactRecord{Model: model, Name: model + "_model.pkl"}); err != nil {
			t.Fatalf("Put %s failed: %v", model, err)
		}
	}
	store.Close()

	store, err = New(dir)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer store.Close()

	for _, model := range []string{"random_forest", "svm", "xgboost"} {
		rec, err := store.Get(model)
		if err != nil {
			t.Errorf("Get %s after reopen failed: %v", model, err)
			continue
		}
		if rec.Name != model+"_model.pkl" {
			t.Errorf("record %s: unexpected name %s", model, rec.Name)
		}
	}
}
