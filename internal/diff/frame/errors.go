package frame

import (
	"errors"
	"fmt"
)

var (
	ErrShapeMismatch     = errors.New("shape mismatch")
	ErrInvalidDimensions = errors.New("invalid dimensions")
	ErrBufferSize        = errors.New("buffer size does not match shape")
)

// ShapeMismatchError is returned by Ingest when a frame does not have the
// configured shape. The differencer state is unchanged when it is returned.
type ShapeMismatchError struct {
	Expected Shape
	Actual   Shape
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("resolution mismatch: expected %s, got %s", e.Expected, e.Actual)
}

func (e *ShapeMismatchError) Is(target error) bool {
	return target == ErrShapeMismatch
}

type InvalidDimensionsError struct {
	Width      int
	Height     int
	ColorDepth int
}

func (e *InvalidDimensionsError) Error() string {
	return fmt.Sprintf("invalid dimensions: width=%d height=%d colorDepth=%d must be positive with a sample count that fits in int", e.Width, e.Height, e.ColorDepth)
}

func (e *InvalidDimensionsError) Is(target error) bool {
	return target == ErrInvalidDimensions
}
