package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"frame-differencer/internal/diff/frame"
	"frame-differencer/internal/retry"
	"frame-differencer/internal/routes"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/xerrors"
)

var ErrNotFound = errors.New("stream not found")

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type StreamInfo struct {
	ID        string
	Shape     frame.Shape
	Threshold uint8
	Sequence  uint64
}

type IngestResult struct {
	Delta          *frame.Buffer
	Sequence       uint64
	ChangedSamples int
	ChangeRatio    float64
	// DeltaLocation is set when the server archived the delta.
	DeltaLocation string
}

var defaultRetryOn = retry.MustRetryOn(retry.DefaultRetryOn)

// NewDefaultHTTPClient returns a traced client that retries gateway errors,
// 409/429 and connection failures with exponential backoff. Frame ingestion is
// a POST, so it is only retried when the request never got a response.
func NewDefaultHTTPClient() *http.Client {
	return &http.Client{
		Transport: &retry.Transport{
			Base:          otelhttp.NewTransport(http.DefaultTransport),
			RetryStrategy: retry.NewExponentialBackOff(50*time.Millisecond, 2*time.Second, 5, nil),
			RetryOn:       defaultRetryOn,
		},
		Timeout: 30 * time.Second,
	}
}

// NewHTTPClient is NewDefaultHTTPClient with a caller supplied retry policy.
func NewHTTPClient(config retry.Config) (*http.Client, error) {
	transport, err := config.NewTransport(otelhttp.NewTransport(http.DefaultTransport))
	if err != nil {
		return nil, xerrors.Errorf("failed to create transport: %w", err)
	}
	return &http.Client{
		Transport: transport,
		Timeout:   30 * time.Second,
	}, nil
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = NewDefaultHTTPClient()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *Client) CreateStream(ctx context.Context, request routes.CreateStreamRequest) (*StreamInfo, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, xerrors.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/streams", bytes.NewReader(body))
	if err != nil {
		return nil, xerrors.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var response routes.StreamResponse
	if err := c.doJSON(req, http.StatusCreated, &response); err != nil {
		return nil, err
	}
	return newStreamInfo(response)
}

func (c *Client) GetStream(ctx context.Context, id string) (*StreamInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/streams/"+id, nil)
	if err != nil {
		return nil, xerrors.Errorf("failed to create request: %w", err)
	}

	var response routes.StreamResponse
	if err := c.doJSON(req, http.StatusOK, &response); err != nil {
		return nil, err
	}
	return newStreamInfo(response)
}

func (c *Client) DeleteStream(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/streams/"+id, nil)
	if err != nil {
		return xerrors.Errorf("failed to create request: %w", err)
	}
	return c.doJSON(req, http.StatusNoContent, nil)
}

// Ingest sends f to the stream and returns the delta against the previous
// frame. A frame of the wrong shape yields a *frame.ShapeMismatchError.
func (c *Client) Ingest(ctx context.Context, id string, f *frame.Buffer) (*IngestResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/streams/"+id+"/frames", bytes.NewReader(f.Pix()))
	if err != nil {
		return nil, xerrors.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set(routes.HeaderFrameShape, f.Shape().Header())

	response, err := c.httpClient.Do(req)
	if err != nil {
		return nil, xerrors.Errorf("failed to send frame: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, decodeError(response)
	}

	shape, err := frame.ParseShape(response.Header.Get(routes.HeaderFrameShape))
	if err != nil {
		return nil, xerrors.Errorf("failed to parse delta shape: %w", err)
	}
	pix, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, xerrors.Errorf("failed to read delta: %w", err)
	}
	delta, err := frame.NewBufferFrom(shape, pix)
	if err != nil {
		return nil, xerrors.Errorf("failed to decode delta: %w", err)
	}

	result := &IngestResult{
		Delta:         delta,
		DeltaLocation: response.Header.Get(routes.HeaderDeltaLocation),
	}
	if result.Sequence, err = strconv.ParseUint(response.Header.Get(routes.HeaderFrameSequence), 10, 64); err != nil {
		return nil, xerrors.Errorf("failed to parse sequence: %w", err)
	}
	if result.ChangedSamples, err = strconv.Atoi(response.Header.Get(routes.HeaderChangedSamples)); err != nil {
		return nil, xerrors.Errorf("failed to parse changed samples: %w", err)
	}
	if result.ChangeRatio, err = strconv.ParseFloat(response.Header.Get(routes.HeaderChangeRatio), 64); err != nil {
		return nil, xerrors.Errorf("failed to parse change ratio: %w", err)
	}

	return result, nil
}

func (c *Client) doJSON(req *http.Request, wantStatus int, v any) error {
	response, err := c.httpClient.Do(req)
	if err != nil {
		return xerrors.Errorf("failed to send request: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != wantStatus {
		return decodeError(response)
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(v); err != nil {
		return xerrors.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(response *http.Response) error {
	var e routes.ErrorResponse
	if err := json.NewDecoder(response.Body).Decode(&e); err != nil {
		e.Error = http.StatusText(response.StatusCode)
	}

	switch response.StatusCode {
	case http.StatusNotFound:
		return xerrors.Errorf("%s: %w", e.Error, ErrNotFound)
	case http.StatusUnprocessableEntity:
		expected, err := shapeFromTriple(e.Expected)
		if err != nil {
			return err
		}
		actual, err := shapeFromTriple(e.Actual)
		if err != nil {
			return err
		}
		return &frame.ShapeMismatchError{Expected: expected, Actual: actual}
	default:
		return xerrors.Errorf("unexpected status %d: %s", response.StatusCode, e.Error)
	}
}

func shapeFromTriple(v []int) (frame.Shape, error) {
	if len(v) != 3 {
		return frame.Shape{}, xerrors.Errorf("invalid shape %v", v)
	}
	return frame.Shape{ColorDepth: v[0], Height: v[1], Width: v[2]}, nil
}

func newStreamInfo(response routes.StreamResponse) (*StreamInfo, error) {
	shape, err := shapeFromTriple(response.Shape)
	if err != nil {
		return nil, err
	}
	return &StreamInfo{
		ID:        response.ID,
		Shape:     shape,
		Threshold: response.Threshold,
		Sequence:  response.Sequence,
	}, nil
}
