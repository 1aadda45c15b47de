package main

import (
	"context"
	"flag"
	"frame-differencer/internal/client"
	"frame-differencer/internal/diff/frame"
	"frame-differencer/internal/retry"
	"frame-differencer/internal/routes"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

func envOrDefaultValue[T any](key string, defaultValue T) T {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	switch any(defaultValue).(type) {
	case string:
		return any(value).(T)
	case int:
		if intValue, err := strconv.Atoi(value); err == nil {
			return any(intValue).(T)
		}
	case uint:
		if uintValue, err := strconv.ParseUint(value, 10, 0); err == nil {
			return any(uint(uintValue)).(T)
		}
	case bool:
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return any(boolValue).(T)
		}
	case time.Duration:
		if durationValue, err := time.ParseDuration(value); err == nil {
			return any(durationValue).(T)
		}
	}

	return defaultValue
}

type Feeder struct {
	Client    *client.Client
	Logger    *slog.Logger
	Width     int
	Height    int
	Depth     int
	Threshold uint
	Frames    int
	Interval  time.Duration
	Keep      bool
}

func main() {
	_ = godotenv.Load()

	var server string
	var streams int
	retryConfig := retry.DefaultConfig()
	feeder := &Feeder{}
	flag.StringVar(&server, "server", envOrDefaultValue("SERVER", "http://127.0.0.1:8383"), "Frame differencer base URL")
	flag.IntVar(&streams, "streams", envOrDefaultValue("STREAMS", 1), "Number of concurrent streams")
	flag.IntVar(&feeder.Width, "width", envOrDefaultValue("WIDTH", 64), "Frame width")
	flag.IntVar(&feeder.Height, "height", envOrDefaultValue("HEIGHT", 48), "Frame height")
	flag.IntVar(&feeder.Depth, "color-depth", envOrDefaultValue("COLOR_DEPTH", 3), "Channels per pixel")
	flag.UintVar(&feeder.Threshold, "threshold", envOrDefaultValue("THRESHOLD", uint(0)), "Delta above which a sample counts as changed")
	flag.IntVar(&feeder.Frames, "frames", envOrDefaultValue("FRAMES", 30), "Frames per stream")
	flag.DurationVar(&feeder.Interval, "interval", envOrDefaultValue("INTERVAL", 100*time.Millisecond), "Delay between frames")
	flag.BoolVar(&feeder.Keep, "keep", envOrDefaultValue("KEEP", false), "Keep streams on the server when done")
	flag.StringVar(&retryConfig.On, "retry-on", envOrDefaultValue("RETRY_ON", retryConfig.On), "Comma separated retry conditions and status codes")
	flag.StringVar(&retryConfig.Strategy, "retry-strategy", envOrDefaultValue("RETRY_STRATEGY", retryConfig.Strategy), "never, constant or exponential")
	flag.DurationVar(&retryConfig.Base, "retry-base", envOrDefaultValue("RETRY_BASE", retryConfig.Base), "Constant delay or first exponential step")
	flag.DurationVar(&retryConfig.Max, "retry-max", envOrDefaultValue("RETRY_MAX", retryConfig.Max), "Upper bound of the exponential delay")
	flag.UintVar(&retryConfig.MaxRetryCount, "retry-count", envOrDefaultValue("RETRY_COUNT", retryConfig.MaxRetryCount), "Retries per request")
	flag.Parse()

	if feeder.Threshold > 255 {
		log.Fatalf("threshold must be at most 255, got %d", feeder.Threshold)
	}

	feeder.Logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	httpClient, err := client.NewHTTPClient(retryConfig)
	if err != nil {
		log.Fatalf("invalid retry configuration: %v", err)
	}
	feeder.Client = client.New(server, httpClient)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	eg, ctx := errgroup.WithContext(ctx)
	for i := 0; i < streams; i++ {
		eg.Go(func() error {
			return feeder.run(ctx)
		})
	}
	if err := eg.Wait(); err != nil {
		log.Fatalf("feed failed: %v", err)
	}
}

func (f *Feeder) run(ctx context.Context) error {
	info, err := f.Client.CreateStream(ctx, routes.CreateStreamRequest{
		Width:      f.Width,
		Height:     f.Height,
		ColorDepth: f.Depth,
		Threshold:  uint8(f.Threshold),
	})
	if err != nil {
		return xerrors.Errorf("failed to create stream: %w", err)
	}
	logger := f.Logger.With("stream", info.ID)
	logger.Info("stream created", "shape", info.Shape.String())

	if !f.Keep {
		defer func() {
			if err := f.Client.DeleteStream(context.Background(), info.ID); err != nil {
				logger.Warn("failed to delete stream", "error", err)
			}
		}()
	}

	ticker := time.NewTicker(f.Interval)
	defer ticker.Stop()

	for i := 0; i < f.Frames; i++ {
		result, err := f.Client.Ingest(ctx, info.ID, movingSquare(info.Shape, i))
		if err != nil {
			return xerrors.Errorf("failed to ingest frame %d: %w", i, err)
		}
		logger.Info("frame ingested",
			"sequence", result.Sequence,
			"changedSamples", result.ChangedSamples,
			"changeRatio", result.ChangeRatio,
			"deltaLocation", result.DeltaLocation,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}

	return nil
}

// movingSquare draws a bright square that advances one pixel per step across
// a dark background.
func movingSquare(shape frame.Shape, step int) *frame.Buffer {
	b := frame.NewBuffer(shape)
	side := max(1, min(shape.Width, shape.Height)/4)
	x0 := step % max(1, shape.Width-side+1)
	y0 := (step / max(1, shape.Width-side+1)) % max(1, shape.Height-side+1)

	for c := 0; c < shape.ColorDepth; c++ {
		v := uint8(200 - 40*(c%3))
		for y := y0; y < y0+side; y++ {
			for x := x0; x < x0+side; x++ {
				b.Set(c, y, x, v)
			}
		}
	}
	return b
}
