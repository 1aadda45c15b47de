package storage

import (
	"context"
	"fmt"
)

type Storage interface {
	// Put stores data with the given key and metadata and returns the storage URL
	Put(ctx context.Context, key string, data []byte, metadata map[string]string) (string, error)
	// Get retrieves data from the given storage URL
	Get(ctx context.Context, url string) ([]byte, error)
}

// DeltaKey is the object key of an archived delta.
func DeltaKey(streamID string, sequence uint64) string {
	return fmt.Sprintf("Frame/delta/%s/%010d.bin", streamID, sequence)
}
