package stream

import (
	"errors"
	"frame-differencer/internal/diff/frame"
	"log/slog"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/xerrors"
)

var (
	ErrNotFound      = errors.New("stream not found")
	ErrFrameTooLarge = errors.New("frame too large")
)

// Registry holds the live streams. When it is full, creating a stream evicts
// the least recently used one.
type Registry struct {
	streams    *lru.Cache[string, *Stream]
	maxSamples int
	logger     *slog.Logger
}

// NewRegistry keeps at most size streams. Streams whose frames hold more than
// maxSamples samples are refused; zero or less means no limit.
func NewRegistry(size int, maxSamples int, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Registry{
		maxSamples: maxSamples,
		logger:     logger,
	}
	c, err := lru.NewWithEvict[string, *Stream](size, r.onEvict)
	if err != nil {
		return nil, xerrors.Errorf("failed to create stream cache: %w", err)
	}
	r.streams = c

	return r, nil
}

func (r *Registry) onEvict(id string, s *Stream) {
	r.logger.Info("stream released", "stream", id, "shape", s.Shape().String(), "frames", s.Sequence())
}

func (r *Registry) Create(o Options) (*Stream, error) {
	shape := frame.Shape{ColorDepth: o.ColorDepth, Height: o.Height, Width: o.Width}
	if r.maxSamples > 0 && shape.Valid() && shape.Len() > r.maxSamples {
		return nil, xerrors.Errorf("shape %s has %d samples, limit is %d: %w", shape, shape.Len(), r.maxSamples, ErrFrameTooLarge)
	}

	s, err := newStream(uuid.NewString(), o)
	if err != nil {
		return nil, err
	}

	r.streams.Add(s.ID, s)
	r.logger.Info("stream created", "stream", s.ID, "shape", s.Shape().String(), "threshold", s.Threshold)

	return s, nil
}

func (r *Registry) Get(id string) (*Stream, error) {
	s, ok := r.streams.Get(id)
	if !ok {
		return nil, xerrors.Errorf("%s: %w", id, ErrNotFound)
	}
	return s, nil
}

func (r *Registry) Delete(id string) bool {
	return r.streams.Remove(id)
}

func (r *Registry) Len() int {
	return r.streams.Len()
}
