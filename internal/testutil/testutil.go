// Package testutil provides shared test fixtures: synthetic network output
// tensors with painted heatmap peaks and part affinity fields.
package testutil

import (
	"math"

	"github.com/banshee-data/pose.report/internal/pose/l1tensor"
	"github.com/banshee-data/pose.report/internal/pose/l2parts"
	"github.com/banshee-data/pose.report/internal/pose/l3limbs"
)

// Point is a grid cell.
type Point struct {
	Y, X int
}

// Skeleton places part types on the grid.
type Skeleton map[l2parts.PartType]Point

// Shift returns a copy of s moved by (dy, dx).
func (s Skeleton) Shift(dy, dx int) Skeleton {
	out := make(Skeleton, len(s))
	for pt, p := range s {
		out[pt] = Point{Y: p.Y + dy, X: p.X + dx}
	}
	return out
}

// Standing is an upright figure with its neck at (4, 5). It fits in a
// 20-row, 12-column grid and has every part type except the ears.
func Standing() Skeleton {
	return Skeleton{
		l2parts.Nose:      {2, 5},
		l2parts.Neck:      {4, 5},
		l2parts.RShoulder: {4, 3},
		l2parts.RElbow:    {7, 2},
		l2parts.RWrist:    {10, 2},
		l2parts.LShoulder: {4, 7},
		l2parts.LElbow:    {7, 8},
		l2parts.LWrist:    {10, 8},
		l2parts.RHip:      {10, 4},
		l2parts.RKnee:     {13, 4},
		l2parts.RAnkle:    {16, 4},
		l2parts.LHip:      {10, 6},
		l2parts.LKnee:     {13, 6},
		l2parts.LAnkle:    {16, 6},
		l2parts.REye:      {1, 4},
		l2parts.LEye:      {1, 6},
	}
}

// Builder paints a zero tensor.
type Builder struct {
	T *l1tensor.Tensor
}

// NewBuilder returns a builder over a zero [height][width][57] tensor.
func NewBuilder(height, width int) *Builder {
	return &Builder{T: l1tensor.Zeros(height, width)}
}

// Peak sets a single heatmap cell.
func (b *Builder) Peak(pt l2parts.PartType, p Point, v float32) *Builder {
	b.T.Set(p.Y, p.X, pt.Channel(), v)
	return b
}

// Blob adds an isotropic Gaussian of the given peak height and sigma, in
// cells, centred on p.
func (b *Builder) Blob(pt l2parts.PartType, p Point, peak float32, sigma float64) *Builder {
	for y := 0; y < b.T.Height; y++ {
		for x := 0; x < b.T.Width; x++ {
			dy, dx := float64(y-p.Y), float64(x-p.X)
			v := float64(peak) * math.Exp(-(dy*dy+dx*dx)/(2*sigma*sigma))
			c := pt.Channel()
			b.T.Set(y, x, c, b.T.At(y, x, c)+float32(v))
		}
	}
	return b
}

// Limb paints the affinity field of lt with magnitude mag along every cell
// the line integral samples between from and to.
func (b *Builder) Limb(lt l3limbs.LimbType, from, to Point, mag float32) *Builder {
	dRow, dCol := float64(to.Y-from.Y), float64(to.X-from.X)
	norm := math.Hypot(dRow, dCol)
	if norm == 0 {
		return b
	}
	chX, chY := lt.PAFChannels()
	for s := 0; s < l3limbs.PAFSamples; s++ {
		frac := float64(s) / l3limbs.PAFSamples
		y := int(float64(from.Y) + frac*dRow + 0.5)
		x := int(float64(from.X) + frac*dCol + 0.5)
		b.T.Set(y, x, chX, mag*float32(dCol/norm))
		b.T.Set(y, x, chY, mag*float32(dRow/norm))
	}
	return b
}

// Skeleton paints a peak of height conf for every part in s and a unit
// affinity field for every limb type whose endpoints are both present.
func (b *Builder) Skeleton(s Skeleton, conf float32) *Builder {
	for pt, p := range s {
		b.Peak(pt, p, conf)
	}
	for _, lt := range l3limbs.LimbTypes() {
		from, okFrom := s[lt.From()]
		to, okTo := s[lt.To()]
		if okFrom && okTo {
			b.Limb(lt, from, to, 1)
		}
	}
	return b
}
