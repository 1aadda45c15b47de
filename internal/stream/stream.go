package stream

import (
	"frame-differencer/internal/diff/frame"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/xerrors"
)

type Options struct {
	Width      int
	Height     int
	ColorDepth int
	// Samples whose delta is not above Threshold are not counted as changed.
	Threshold uint8
}

type Result struct {
	Sequence uint64
	Delta    *frame.Buffer
	Summary  frame.Summary
}

// Stream serializes access to one differencer. Shape queries never block.
type Stream struct {
	ID        string
	CreatedAt time.Time
	Threshold uint8

	shape frame.Shape

	mu          sync.Mutex
	differencer *frame.Differencer
	// written under mu, read without it
	sequence atomic.Uint64
}

func newStream(id string, o Options) (*Stream, error) {
	d, err := frame.New(o.Width, o.Height, o.ColorDepth)
	if err != nil {
		return nil, xerrors.Errorf("failed to create differencer: %w", err)
	}

	return &Stream{
		ID:          id,
		CreatedAt:   time.Now(),
		Threshold:   o.Threshold,
		shape:       d.Shape(),
		differencer: d,
	}, nil
}

func (s *Stream) Shape() frame.Shape {
	return s.shape
}

// Sequence returns the number of frames ingested so far. It does not wait for
// an ingestion in progress.
func (s *Stream) Sequence() uint64 {
	return s.sequence.Load()
}

func (s *Stream) Ingest(f *frame.Buffer) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delta, err := s.differencer.Ingest(f)
	if err != nil {
		return nil, err
	}
	sequence := s.sequence.Add(1)

	return &Result{
		Sequence: sequence,
		Delta:    delta,
		Summary:  frame.Summarize(delta, s.Threshold),
	}, nil
}
