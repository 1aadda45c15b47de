package frame

import (
	"golang.org/x/xerrors"
)

// Buffer is a dense planar frame. Samples are laid out channel by channel,
// each channel row-major, so (c, y, x) lives at c*H*W + y*W + x.
type Buffer struct {
	shape Shape
	pix   []uint8
}

func NewBuffer(shape Shape) *Buffer {
	return &Buffer{
		shape: shape,
		pix:   make([]uint8, shape.Len()),
	}
}

// NewBufferFrom wraps pix without copying.
func NewBufferFrom(shape Shape, pix []uint8) (*Buffer, error) {
	if !shape.Valid() {
		return nil, &InvalidDimensionsError{Width: shape.Width, Height: shape.Height, ColorDepth: shape.ColorDepth}
	}
	if len(pix) != shape.Len() {
		return nil, xerrors.Errorf("%d samples for shape %s: %w", len(pix), shape, ErrBufferSize)
	}
	return &Buffer{
		shape: shape,
		pix:   pix,
	}, nil
}

func (b *Buffer) Shape() Shape {
	return b.shape
}

func (b *Buffer) Pix() []uint8 {
	return b.pix
}

func (b *Buffer) Offset(c int, y int, x int) int {
	return (c*b.shape.Height+y)*b.shape.Width + x
}

func (b *Buffer) At(c int, y int, x int) uint8 {
	return b.pix[b.Offset(c, y, x)]
}

func (b *Buffer) Set(c int, y int, x int, v uint8) {
	b.pix[b.Offset(c, y, x)] = v
}

func (b *Buffer) Clone() *Buffer {
	pix := make([]uint8, len(b.pix))
	copy(pix, b.pix)
	return &Buffer{
		shape: b.shape,
		pix:   pix,
	}
}
