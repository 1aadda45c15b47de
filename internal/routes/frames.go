package routes

import (
	"context"
	"errors"
	"frame-differencer/internal/diff/frame"
	"frame-differencer/internal/myhttp"
	"frame-differencer/internal/storage"
	"frame-differencer/internal/stream"
	"io"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/xerrors"
)

// Archive stores deltas that changed at least MinChangeRatio of their samples.
type Archive struct {
	Storage        storage.Storage
	MinChangeRatio float64
}

func (a *Archive) enabled() bool {
	return a != nil && a.Storage != nil
}

func IngestFrame(registry *stream.Registry, archive *Archive, metrics *Metrics) http.HandlerFunc {
	if metrics == nil {
		metrics = NewNoopMetrics()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := otel.Tracer("frame-differencer/routes").Start(r.Context(), "IngestFrame")
		defer span.End()
		logger := myhttp.Logger(ctx)

		s, err := registry.Get(r.PathValue("id"))
		if err != nil {
			writeError(w, r, http.StatusNotFound, err)
			return
		}
		expected := s.Shape()
		span.SetAttributes(attribute.String("stream.id", s.ID), attribute.String("frame.shape", expected.Header()))

		if v := r.Header.Get(HeaderFrameShape); v != "" {
			actual, err := frame.ParseShape(v)
			if err != nil {
				writeError(w, r, http.StatusBadRequest, err)
				return
			}
			if actual != expected {
				metrics.ShapeMismatches.Add(ctx, 1)
				span.SetStatus(codes.Error, "shape mismatch")
				writeShapeMismatch(w, r, &frame.ShapeMismatchError{Expected: expected, Actual: actual})
				return
			}
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, int64(expected.Len())))
		if err != nil {
			var maxBytesError *http.MaxBytesError
			if errors.As(err, &maxBytesError) {
				writeError(w, r, http.StatusRequestEntityTooLarge, xerrors.Errorf("frame larger than %s: %w", expected, frame.ErrBufferSize))
				return
			}
			writeError(w, r, http.StatusBadRequest, xerrors.Errorf("failed to read frame: %w", err))
			return
		}

		buffer, err := frame.NewBufferFrom(expected, body)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err)
			return
		}

		result, err := s.Ingest(buffer)
		if err != nil {
			var mismatch *frame.ShapeMismatchError
			if errors.As(err, &mismatch) {
				metrics.ShapeMismatches.Add(ctx, 1)
				writeShapeMismatch(w, r, mismatch)
				return
			}
			span.RecordError(err)
			logger.Error("failed to ingest frame", "stream", s.ID, "error", err)
			writeError(w, r, http.StatusInternalServerError, errors.New(http.StatusText(http.StatusInternalServerError)))
			return
		}

		metrics.FramesIngested.Add(ctx, 1)
		metrics.ChangedSamples.Record(ctx, int64(result.Summary.ChangedSamples))
		span.SetAttributes(
			attribute.Int64("frame.sequence", int64(result.Sequence)),
			attribute.Float64("frame.change_ratio", result.Summary.ChangeRatio),
		)

		if location := archiveDelta(ctx, span, archive, s, result); location != "" {
			w.Header().Set(HeaderDeltaLocation, location)
		}

		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set(HeaderFrameShape, expected.Header())
		w.Header().Set(HeaderFrameSequence, strconv.FormatUint(result.Sequence, 10))
		w.Header().Set(HeaderChangedSamples, strconv.Itoa(result.Summary.ChangedSamples))
		w.Header().Set(HeaderChangeRatio, strconv.FormatFloat(result.Summary.ChangeRatio, 'f', -1, 64))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(result.Delta.Pix()); err != nil {
			logger.Debug("failed to write delta", "stream", s.ID, "error", err)
		}
	}
}

// archiveDelta returns where the delta was stored, or "" if it was not.
// Storage errors are logged and swallowed.
func archiveDelta(ctx context.Context, span trace.Span, archive *Archive, s *stream.Stream, result *stream.Result) string {
	if !archive.enabled() || result.Summary.ChangedSamples == 0 || result.Summary.ChangeRatio < archive.MinChangeRatio {
		return ""
	}

	location, err := archive.Storage.Put(ctx, storage.DeltaKey(s.ID, result.Sequence), result.Delta.Pix(), map[string]string{
		"stream":          s.ID,
		"shape":           s.Shape().Header(),
		"sequence":        strconv.FormatUint(result.Sequence, 10),
		"changed-samples": strconv.Itoa(result.Summary.ChangedSamples),
	})
	if err != nil {
		span.RecordError(err)
		myhttp.Logger(ctx).Error("failed to archive delta", "stream", s.ID, "sequence", result.Sequence, "error", err)
		return ""
	}
	return location
}
