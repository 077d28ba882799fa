package l5match

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/pose.report/internal/pose/l2parts"
	"github.com/banshee-data/pose.report/internal/pose/l4bodies"
)

const (
	// DefaultBoundingBoxSize is the side every body box is scaled to.
	DefaultBoundingBoxSize = 200.0

	positionLen = 2 * l2parts.PartTypeCount
	confOffset  = positionLen
	sumIndex    = 3 * l2parts.PartTypeCount

	// VectorLen is the length of a match vector.
	VectorLen = sumIndex + 1
)

// Vector is a pose match vector:
//
//	[0, 36)  x,y of each part type relative to the body box, L2-normalised
//	[36, 54) confidence of each part type
//	54       sum of confidences
//
// Part types absent from the body leave their slots at zero.
type Vector [VectorLen]float64

// Positions returns the position slots.
func (v *Vector) Positions() []float64 {
	return v[:positionLen]
}

// Confidence returns the confidence slot of part type pt.
func (v *Vector) Confidence(pt l2parts.PartType) float64 {
	return v[confOffset+int(pt)]
}

// ConfidenceSum returns the summed confidence slot.
func (v *Vector) ConfidenceSum() float64 {
	return v[sumIndex]
}

// Box is a square, axis-aligned box in image pixels.
type Box struct {
	X, Y int // top-left corner
	Size int
}

// Matcher builds and compares match vectors.
type Matcher struct {
	BoundingBoxSize float64
}

// NewMatcher returns a matcher scaling bodies to a box of the given side.
func NewMatcher(boundingBoxSize float64) *Matcher {
	return &Matcher{BoundingBoxSize: boundingBoxSize}
}

// DefaultMatcher returns a matcher with DefaultBoundingBoxSize.
func DefaultMatcher() *Matcher {
	return NewMatcher(DefaultBoundingBoxSize)
}

// SquaredBoundingBox returns the smallest square enclosing the parts' pixel
// positions, centred on their bounding rectangle. The short side is padded
// equally on both ends, rounding the top-left corner down by integer halving.
func SquaredBoundingBox(parts []*l2parts.Part) Box {
	if len(parts) == 0 {
		return Box{}
	}
	minX, minY := math.MaxInt, math.MaxInt
	maxX, maxY := math.MinInt, math.MinInt
	for _, p := range parts {
		minX = min(minX, p.PixelX())
		minY = min(minY, p.PixelY())
		maxX = max(maxX, p.PixelX())
		maxY = max(maxY, p.PixelY())
	}
	w, h := maxX-minX, maxY-minY
	size := max(w, h)
	return Box{
		X:    minX - (size-w)/2,
		Y:    minY - (size-h)/2,
		Size: size,
	}
}

// MatchVector computes the match vector of body. When all parts coincide the
// box has zero size and the position slots stay zero.
func (m *Matcher) MatchVector(body *l4bodies.Body) Vector {
	var v Vector
	if body == nil || len(body.Parts) == 0 {
		return v
	}

	box := SquaredBoundingBox(body.Parts)
	scale := 0.0
	if box.Size > 0 {
		scale = m.BoundingBoxSize / float64(box.Size)
	}

	for _, p := range body.Parts {
		i := int(p.Type)
		v[2*i] = float64(p.PixelX()-box.X) * scale
		v[2*i+1] = float64(p.PixelY()-box.Y) * scale
		v[confOffset+i] = float64(p.Confidence)
		v[sumIndex] += float64(p.Confidence)
	}

	pos := v.Positions()
	if norm := floats.Norm(pos, 2); norm > 0 {
		floats.Scale(1/norm, pos)
	}
	return v
}

// WeightedDistance is the distance from a to b: the absolute difference of
// each position slot weighted by a's confidence for that part type, divided
// by a's confidence sum. It is not symmetric. A zero confidence sum yields 0.
func WeightedDistance(a, b *Vector) float64 {
	sum := a.ConfidenceSum()
	if sum == 0 {
		return 0
	}
	var d float64
	for i := 0; i < positionLen; i++ {
		d += a[confOffset+i/2] * math.Abs(a[i]-b[i])
	}
	return d / sum
}

// BodyDistance is WeightedDistance between the match vectors of two bodies.
func (m *Matcher) BodyDistance(from, to *l4bodies.Body) float64 {
	a, b := m.MatchVector(from), m.MatchVector(to)
	return WeightedDistance(&a, &b)
}
