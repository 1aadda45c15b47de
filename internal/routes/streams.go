package routes

import (
	"encoding/json"
	"errors"
	"frame-differencer/internal/diff/frame"
	"frame-differencer/internal/myhttp"
	"frame-differencer/internal/stream"
	"net/http"

	"golang.org/x/xerrors"
)

type CreateStreamRequest struct {
	Width      int   `json:"width"`
	Height     int   `json:"height"`
	ColorDepth int   `json:"colorDepth"`
	Threshold  uint8 `json:"threshold,omitempty"`
}

type StreamResponse struct {
	ID        string `json:"id"`
	Shape     []int  `json:"shape"`
	Threshold uint8  `json:"threshold"`
	Sequence  uint64 `json:"sequence"`
}

func newStreamResponse(s *stream.Stream) StreamResponse {
	shape := s.Shape().Triple()
	return StreamResponse{
		ID:        s.ID,
		Shape:     shape[:],
		Threshold: s.Threshold,
		Sequence:  s.Sequence(),
	}
}

func CreateStream(registry *stream.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request CreateStreamRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&request); err != nil {
			writeError(w, r, http.StatusBadRequest, xerrors.Errorf("failed to decode request: %w", err))
			return
		}

		s, err := registry.Create(stream.Options{
			Width:      request.Width,
			Height:     request.Height,
			ColorDepth: request.ColorDepth,
			Threshold:  request.Threshold,
		})
		if err != nil {
			if errors.Is(err, frame.ErrInvalidDimensions) || errors.Is(err, stream.ErrFrameTooLarge) {
				writeError(w, r, http.StatusBadRequest, err)
				return
			}
			myhttp.Logger(r.Context()).Error("failed to create stream", "error", err)
			writeError(w, r, http.StatusInternalServerError, errors.New(http.StatusText(http.StatusInternalServerError)))
			return
		}

		w.Header().Set("Location", "/streams/"+s.ID)
		writeJSON(w, r, http.StatusCreated, newStreamResponse(s))
	}
}

func GetStream(registry *stream.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := registry.Get(r.PathValue("id"))
		if err != nil {
			writeError(w, r, http.StatusNotFound, err)
			return
		}

		writeJSON(w, r, http.StatusOK, newStreamResponse(s))
	}
}

func DeleteStream(registry *stream.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !registry.Delete(r.PathValue("id")) {
			writeError(w, r, http.StatusNotFound, xerrors.Errorf("%s: %w", r.PathValue("id"), stream.ErrNotFound))
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
