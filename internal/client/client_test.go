package client_test

import (
	"context"
	"errors"
	"frame-differencer/internal/client"
	"frame-differencer/internal/diff/frame"
	"frame-differencer/internal/myhttp"
	"frame-differencer/internal/retry"
	"frame-differencer/internal/routes"
	"frame-differencer/internal/stream"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry, err := stream.NewRegistry(8, 1<<20, logger)
	if err != nil {
		t.Fatal(err)
	}

	mux := myhttp.NewServerMux(logger, nil)
	mux.HandleFuncWithMiddleware("POST /streams", routes.CreateStream(registry))
	mux.HandleFuncWithMiddleware("GET /streams/{id}", routes.GetStream(registry))
	mux.HandleFuncWithMiddleware("DELETE /streams/{id}", routes.DeleteStream(registry))
	mux.HandleFuncWithMiddleware("POST /streams/{id}/frames", routes.IngestFrame(registry, nil, nil))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestClient_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := client.New(newServer(t).URL+"/", nil)

	info, err := c.CreateStream(ctx, routes.CreateStreamRequest{Width: 2, Height: 2, ColorDepth: 1})
	if err != nil {
		t.Fatal(err)
	}
	shape := frame.Shape{ColorDepth: 1, Height: 2, Width: 2}
	if diff := cmp.Diff(shape, info.Shape); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	f := frame.NewBuffer(shape)
	f.Set(0, 0, 0, 100)
	f.Set(0, 1, 1, 50)
	result, err := c.Ingest(ctx, info.ID, f)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]uint8{100, 0, 0, 50}, result.Delta.Pix()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if result.Sequence != 1 || result.ChangedSamples != 2 || result.ChangeRatio != 0.5 {
		t.Errorf("Unexpected result %+v", result)
	}

	result, err = c.Ingest(ctx, info.ID, frame.NewBuffer(shape))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]uint8{0, 0, 0, 0}, result.Delta.Pix()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	got, err := c.GetStream(ctx, info.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Sequence != 2 {
		t.Errorf("Expected sequence 2, got %d", got.Sequence)
	}

	if err := c.DeleteStream(ctx, info.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := c.GetStream(ctx, info.ID); !errors.Is(err, client.ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

func TestClient_ShapeMismatch(t *testing.T) {
	ctx := context.Background()
	c := client.New(newServer(t).URL, nil)

	info, err := c.CreateStream(ctx, routes.CreateStreamRequest{Width: 4, Height: 2, ColorDepth: 3})
	if err != nil {
		t.Fatal(err)
	}

	_, err = c.Ingest(ctx, info.ID, frame.NewBuffer(frame.Shape{ColorDepth: 1, Height: 2, Width: 4}))
	var mismatch *frame.ShapeMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("want *frame.ShapeMismatchError, got %v", err)
	}
	want := frame.ShapeMismatchError{
		Expected: frame.Shape{ColorDepth: 3, Height: 2, Width: 4},
		Actual:   frame.Shape{ColorDepth: 1, Height: 2, Width: 4},
	}
	if diff := cmp.Diff(want, *mismatch); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if !errors.Is(err, frame.ErrShapeMismatch) {
		t.Errorf("Expected error to match ErrShapeMismatch")
	}
}

func TestClient_InvalidDimensions(t *testing.T) {
	c := client.New(newServer(t).URL, nil)

	if _, err := c.CreateStream(context.Background(), routes.CreateStreamRequest{Width: 0, Height: 2, ColorDepth: 3}); err == nil {
		t.Errorf("Expected error for invalid dimensions")
	}
}

func TestClient_IngestIsNotRetriedAfterResponse(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	config := retry.DefaultConfig()
	config.On = "5xx,connect-failure"
	config.Strategy = retry.StrategyConstant
	config.Base = time.Millisecond
	httpClient, err := client.NewHTTPClient(config)
	if err != nil {
		t.Fatal(err)
	}
	c := client.New(server.URL, httpClient)

	if _, err := c.Ingest(context.Background(), "s", frame.NewBuffer(frame.Shape{ColorDepth: 1, Height: 1, Width: 1})); err == nil {
		t.Errorf("Expected error for unavailable server")
	}
	if diff := cmp.Diff(int32(1), atomic.LoadInt32(&calls)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	// reads are idempotent and keep retrying
	atomic.StoreInt32(&calls, 0)
	if _, err := c.GetStream(context.Background(), "s"); err == nil {
		t.Errorf("Expected error for unavailable server")
	}
	if diff := cmp.Diff(int32(config.MaxRetryCount+1), atomic.LoadInt32(&calls)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestNewHTTPClient(t *testing.T) {
	config := retry.DefaultConfig()
	config.On = "gateway-error,sometimes"
	if _, err := client.NewHTTPClient(config); err == nil {
		t.Errorf("Expected error for invalid retry policy")
	}
}
