package storage_test

import (
	"context"
	"encoding/json"
	"frame-differencer/internal/storage"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFileStorage_PutGet(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := storage.NewFileStorage(ctx, storage.FileConfig{Directory: dir})
	if err != nil {
		t.Fatal(err)
	}

	key := storage.DeltaKey("stream-a", 7)
	data := []byte{0, 1, 2, 3}
	metadata := map[string]string{"shape": "1,2,2", "sequence": "7"}

	url, err := s.Put(ctx, key, data, metadata)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(filepath.Join(dir, "Frame", "delta", "stream-a", "0000000007.bin"), url); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	got, err := s.Get(ctx, url)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(data, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	raw, err := os.ReadFile(url + ".meta.json")
	if err != nil {
		t.Fatal(err)
	}
	var gotMetadata map[string]string
	if err := json.Unmarshal(raw, &gotMetadata); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(metadata, gotMetadata); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestFileStorage_GetMissing(t *testing.T) {
	ctx := context.Background()
	s, err := storage.NewFileStorage(ctx, storage.FileConfig{Directory: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, filepath.Join(t.TempDir(), "missing.bin")); err == nil {
		t.Errorf("Expected error for missing object")
	}
}
