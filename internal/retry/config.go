package retry

import (
	"net/http"
	"time"

	"golang.org/x/xerrors"
)

// Config is the user facing form of a retrying transport.
type Config struct {
	On            string
	Strategy      string
	Base          time.Duration
	Max           time.Duration
	MaxRetryCount uint
}

func DefaultConfig() Config {
	return Config{
		On:            DefaultRetryOn,
		Strategy:      StrategyExponential,
		Base:          50 * time.Millisecond,
		Max:           2 * time.Second,
		MaxRetryCount: 5,
	}
}

// NewTransport wraps base in a Transport configured by c.
func (c Config) NewTransport(base http.RoundTripper) (*Transport, error) {
	retryOn, err := NewRetryOnFromString(c.On)
	if err != nil {
		return nil, xerrors.Errorf("failed to parse retry policy: %w", err)
	}
	strategy, err := NewStrategyFromString(c.Strategy, c.Base, c.Max, c.MaxRetryCount)
	if err != nil {
		return nil, xerrors.Errorf("failed to create retry strategy: %w", err)
	}

	return &Transport{
		Base:          base,
		RetryStrategy: strategy,
		RetryOn:       retryOn,
	}, nil
}
