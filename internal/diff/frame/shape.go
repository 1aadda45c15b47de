package frame

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/xerrors"
)

// Shape is the (color depth, height, width) triple of a frame.
type Shape struct {
	ColorDepth int
	Height     int
	Width      int
}

// Len is the number of samples. It is only meaningful for a Valid shape.
func (s Shape) Len() int {
	return s.ColorDepth * s.Height * s.Width
}

// Valid reports whether every dimension is positive and the sample count fits
// in an int.
func (s Shape) Valid() bool {
	if s.ColorDepth <= 0 || s.Height <= 0 || s.Width <= 0 {
		return false
	}
	return s.Height <= math.MaxInt/s.Width && s.ColorDepth <= math.MaxInt/(s.Height*s.Width)
}

func (s Shape) String() string {
	return fmt.Sprintf("(%d, %d, %d)", s.ColorDepth, s.Height, s.Width)
}

// Header renders the shape the way ParseShape reads it.
func (s Shape) Header() string {
	return fmt.Sprintf("%d,%d,%d", s.ColorDepth, s.Height, s.Width)
}

func (s Shape) Triple() [3]int {
	return [3]int{s.ColorDepth, s.Height, s.Width}
}

func ParseShape(v string) (Shape, error) {
	parts := strings.Split(v, ",")
	if len(parts) != 3 {
		return Shape{}, xerrors.Errorf("invalid shape %q: want depth,height,width", v)
	}

	var dims [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Shape{}, xerrors.Errorf("invalid shape %q: %w", v, err)
		}
		dims[i] = n
	}

	return Shape{ColorDepth: dims[0], Height: dims[1], Width: dims[2]}, nil
}
