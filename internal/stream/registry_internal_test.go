package stream

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func TestRegistry_ReleaseDuringIngest(t *testing.T) {
	r, err := NewRegistry(1, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	s, err := r.Create(Options{Width: 2, Height: 2, ColorDepth: 1})
	if err != nil {
		t.Fatal(err)
	}

	// hold the stream as a long ingestion would
	s.mu.Lock()
	defer s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// evicts s, then removes the replacement
		replacement, err := r.Create(Options{Width: 1, Height: 1, ColorDepth: 1})
		if err != nil {
			t.Error(err)
			return
		}
		r.Delete(replacement.ID)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("eviction blocked behind an ingestion in progress")
	}
	if r.Len() != 0 {
		t.Errorf("Expected empty registry, got %d", r.Len())
	}
}
