package frame

// Differencer computes the saturating delta of each ingested frame against
// the frame ingested before it. It is not safe for concurrent use.
type Differencer struct {
	shape Shape
	// slots[current] holds the latest frame, the other slot the one before.
	slots   [2]*Buffer
	current int
}

func New(width int, height int, colorDepth int) (*Differencer, error) {
	shape := Shape{ColorDepth: colorDepth, Height: height, Width: width}
	if !shape.Valid() {
		return nil, &InvalidDimensionsError{
			Width:      width,
			Height:     height,
			ColorDepth: colorDepth,
		}
	}

	return &Differencer{
		shape: shape,
		slots: [2]*Buffer{NewBuffer(shape), NewBuffer(shape)},
	}, nil
}

func NewGrayscale(width int, height int) (*Differencer, error) {
	return New(width, height, 1)
}

func NewRGB(width int, height int) (*Differencer, error) {
	return New(width, height, 3)
}

func (d *Differencer) Shape() Shape {
	return d.shape
}

// Ingest returns newFrame minus the current frame, floored at zero, and makes
// newFrame the current frame. The samples are copied, so the caller keeps
// ownership of newFrame.
func (d *Differencer) Ingest(newFrame *Buffer) (*Buffer, error) {
	if newFrame == nil {
		return nil, &ShapeMismatchError{Expected: d.shape}
	}
	if newFrame.shape != d.shape || len(newFrame.pix) != d.shape.Len() {
		return nil, &ShapeMismatchError{Expected: d.shape, Actual: newFrame.shape}
	}

	delta := NewBuffer(d.shape)
	latest := d.slots[d.current].pix
	for i, v := range newFrame.pix {
		delta.pix[i] = SaturatingSub(v, latest[i])
	}

	// The previous slot is the oldest generation; overwrite it and promote it.
	next := 1 - d.current
	copy(d.slots[next].pix, newFrame.pix)
	d.current = next

	return delta, nil
}

func SaturatingSub(a uint8, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return 0
}
