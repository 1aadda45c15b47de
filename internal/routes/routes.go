package routes

import (
	"encoding/json"
	"frame-differencer/internal/diff/frame"
	"frame-differencer/internal/myhttp"
	"net/http"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"golang.org/x/xerrors"
)

const (
	HeaderFrameShape     = "X-Frame-Shape"
	HeaderFrameSequence  = "X-Frame-Sequence"
	HeaderChangedSamples = "X-Changed-Samples"
	HeaderChangeRatio    = "X-Change-Ratio"
	HeaderDeltaLocation  = "X-Delta-Location"
)

type Metrics struct {
	FramesIngested  metric.Int64Counter
	ShapeMismatches metric.Int64Counter
	ChangedSamples  metric.Int64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	framesIngested, err := meter.Int64Counter("frames_ingested_total")
	if err != nil {
		return nil, xerrors.Errorf("failed to create counter: %w", err)
	}
	shapeMismatches, err := meter.Int64Counter("frame_shape_mismatches_total")
	if err != nil {
		return nil, xerrors.Errorf("failed to create counter: %w", err)
	}
	changedSamples, err := meter.Int64Histogram("frame_changed_samples")
	if err != nil {
		return nil, xerrors.Errorf("failed to create histogram: %w", err)
	}

	return &Metrics{
		FramesIngested:  framesIngested,
		ShapeMismatches: shapeMismatches,
		ChangedSamples:  changedSamples,
	}, nil
}

func NewNoopMetrics() *Metrics {
	m, _ := NewMetrics(noop.Meter{})
	return m
}

type ErrorResponse struct {
	Error    string `json:"error"`
	Expected []int  `json:"expected,omitempty"`
	Actual   []int  `json:"actual,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		myhttp.Logger(r.Context()).Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	writeJSON(w, r, status, ErrorResponse{Error: err.Error()})
}

func writeShapeMismatch(w http.ResponseWriter, r *http.Request, err *frame.ShapeMismatchError) {
	expected := err.Expected.Triple()
	actual := err.Actual.Triple()
	writeJSON(w, r, http.StatusUnprocessableEntity, ErrorResponse{
		Error:    err.Error(),
		Expected: expected[:],
		Actual:   actual[:],
	})
}
