package retry

import (
	"errors"
	"math"
	"math/rand"
	"time"

	"golang.org/x/exp/constraints"
	"golang.org/x/xerrors"
)

// Strategy returns how long to wait before retry number n, or true once no
// more retries are allowed.
type Strategy interface {
	Sleep(n uint) (time.Duration, bool)
}

const (
	StrategyNever       = "never"
	StrategyConstant    = "constant"
	StrategyExponential = "exponential"
)

// NewStrategyFromString builds the named strategy. base is the constant delay
// or the first exponential step; max caps the exponential delay.
func NewStrategyFromString(name string, base time.Duration, max time.Duration, maxRetryCount uint) (Strategy, error) {
	if base < 0 || max < 0 {
		return nil, xerrors.Errorf("negative retry delay: base=%s max=%s", base, max)
	}

	switch name {
	case StrategyNever:
		return NewNever(), nil
	case StrategyConstant:
		return NewConstant(base, maxRetryCount), nil
	case "", StrategyExponential:
		if base == 0 {
			return nil, xerrors.New("exponential retry needs a positive base delay")
		}
		if max < base {
			return nil, xerrors.Errorf("retry max %s is below base %s", max, base)
		}
		return NewExponentialBackOff(base, max, maxRetryCount, nil), nil
	default:
		return nil, xerrors.Errorf("unknown retry strategy: %s", name)
	}
}

type never struct{}

func NewNever() *never {
	return &never{}
}

func (nr *never) Sleep(n uint) (time.Duration, bool) {
	return 0, true
}

type constant struct {
	delay         time.Duration
	maxRetryCount uint
}

func NewConstant(delay time.Duration, maxRetryCount uint) *constant {
	return &constant{
		delay:         delay,
		maxRetryCount: maxRetryCount,
	}
}

func (c *constant) Sleep(retryCount uint) (time.Duration, bool) {
	if retryCount >= c.maxRetryCount {
		return 0, true
	}
	return c.delay, false
}

type Entropy func(int64) int64

type exponentialBackOff struct {
	base          time.Duration
	max           time.Duration
	maxRetryCount uint
	entropy       Entropy
}

func NewExponentialBackOff(base time.Duration, max time.Duration, maxRetryCount uint, entropy Entropy) *exponentialBackOff {
	return &exponentialBackOff{
		base:          base,
		max:           max,
		maxRetryCount: maxRetryCount,
		entropy:       entropy,
	}
}

func (eb *exponentialBackOff) Sleep(retryCount uint) (time.Duration, bool) {
	entropy := eb.getEntropy()
	if retryCount >= eb.maxRetryCount {
		return 0, true
	}

	if retryCount >= 63 {
		return time.Duration(entropy(min(math.MaxInt64, int64(eb.max)))), false
	}

	delay, err := checkedMulInt64(1<<retryCount, int64(eb.base))
	if err != nil {
		return time.Duration(entropy(min(math.MaxInt64, int64(eb.max)))), false
	}
	return time.Duration(entropy(min(delay, int64(eb.max)))), false
}

func (eb *exponentialBackOff) getEntropy() Entropy {
	if eb.entropy == nil {
		return rand.Int63n
	}
	return eb.entropy
}

func min[T constraints.Ordered](l T, r T) T {
	if l > r {
		return r
	}
	return l
}

var OverflowError = errors.New("overflow")

func checkedMulInt64(l int64, r int64) (int64, error) {
	if l == 0 || r == 0 {
		return l * r, nil
	}
	if l > math.MaxInt64/r {
		return 0, OverflowError
	}
	return l * r, nil
}
