package l1tensor

import (
	"errors"
	"fmt"
)

const (
	// Channels is the size of the last tensor dimension: 19 heatmap
	// channels (18 parts plus background) followed by 38 PAF channels.
	Channels = 57

	// HeatmapChannels counts the heatmap layers, including the unused
	// background channel 18.
	HeatmapChannels = 19

	// PAFOffset is the first PAF channel.
	PAFOffset = 19

	// GridScale is the ratio between image pixels and tensor grid cells.
	GridScale = 8
)

// ErrShape is wrapped by every shape contract violation.
var ErrShape = errors.New("tensor shape mismatch")

// Tensor is one decoded network output with the batch dimension stripped.
// Values are stored row-major as [height][width][Channels].
type Tensor struct {
	Height int
	Width  int
	data   []float32
}

// New wraps data as a [height][width][channels] tensor. The channel count
// must equal Channels and len(data) must match the shape.
func New(height, width, channels int, data []float32) (*Tensor, error) {
	if channels != Channels {
		return nil, fmt.Errorf("%w: expected [%d][%d][%d], got [%d][%d][%d]",
			ErrShape, height, width, Channels, height, width, channels)
	}
	if height <= 0 || width <= 0 {
		return nil, fmt.Errorf("%w: grid must be non-empty, got [%d][%d][%d]", ErrShape, height, width, channels)
	}
	if !fits(height, width, len(data)) {
		return nil, fmt.Errorf("%w: [%d][%d][%d] does not match %d values",
			ErrShape, height, width, channels, len(data))
	}
	return &Tensor{Height: height, Width: width, data: data}, nil
}

// fits reports whether n values are exactly a [height][width][Channels] grid.
// The product is only formed once each factor is known to be bounded by n,
// so huge dimensions cannot wrap around to a matching length.
func fits(height, width, n int) bool {
	if height <= 0 || width <= 0 {
		return false
	}
	cells := n / Channels
	if height > cells || width > cells/height {
		return false
	}
	return height*width*Channels == n
}

// Zeros allocates an all-zero tensor of the given grid size. It is for
// tensors built in code; it panics unless both dimensions are positive.
func Zeros(height, width int) *Tensor {
	if height <= 0 || width <= 0 {
		panic(fmt.Sprintf("l1tensor.Zeros: non-positive grid [%d][%d]", height, width))
	}
	return &Tensor{Height: height, Width: width, data: make([]float32, height*width*Channels)}
}

// FromNested copies a [height][width][channels] array into a Tensor.
// Ragged rows or a channel count other than Channels are rejected.
func FromNested(v [][][]float32) (*Tensor, error) {
	if len(v) == 0 || len(v[0]) == 0 {
		return nil, fmt.Errorf("%w: expected [height][width][%d], got empty array", ErrShape, Channels)
	}
	h, w := len(v), len(v[0])
	t := Zeros(h, w)
	for y, row := range v {
		if len(row) != w {
			return nil, fmt.Errorf("%w: row %d has width %d, expected %d", ErrShape, y, len(row), w)
		}
		for x, cell := range row {
			if len(cell) != Channels {
				return nil, fmt.Errorf("%w: expected [%d][%d][%d], got %d channels at (%d,%d)",
					ErrShape, h, w, Channels, len(cell), y, x)
			}
			copy(t.data[t.offset(y, x):], cell)
		}
	}
	return t, nil
}

func (t *Tensor) offset(y, x int) int {
	return (y*t.Width + x) * Channels
}

// Shape returns [height, width, Channels].
func (t *Tensor) Shape() []int {
	return []int{t.Height, t.Width, Channels}
}

// At returns the value at grid row y, column x and channel c.
func (t *Tensor) At(y, x, c int) float32 {
	return t.data[t.offset(y, x)+c]
}

// Set stores v at grid row y, column x and channel c.
func (t *Tensor) Set(y, x, c int, v float32) {
	t.data[t.offset(y, x)+c] = v
}

// InBounds reports whether (y, x) addresses a grid cell.
func (t *Tensor) InBounds(y, x int) bool {
	return y >= 0 && y < t.Height && x >= 0 && x < t.Width
}

// Data exposes the backing slice. Callers must treat it as read-only.
func (t *Tensor) Data() []float32 {
	return t.data
}

// Validate re-checks the shape invariant. It guards tensors built as
// struct literals rather than through New.
func (t *Tensor) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: nil tensor", ErrShape)
	}
	if !fits(t.Height, t.Width, len(t.data)) {
		return fmt.Errorf("%w: [%d][%d][%d] does not match %d values",
			ErrShape, t.Height, t.Width, Channels, len(t.data))
	}
	return nil
}

// MaxChannel returns the largest value in channel c and its cell.
func (t *Tensor) MaxChannel(c int) (v float32, y, x int) {
	for yy := 0; yy < t.Height; yy++ {
		for xx := 0; xx < t.Width; xx++ {
			if s := t.At(yy, xx, c); s > v {
				v, y, x = s, yy, xx
			}
		}
	}
	return v, y, x
}
