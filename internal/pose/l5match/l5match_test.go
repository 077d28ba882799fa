package l5match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/pose.report/internal/pose/l2parts"
	"github.com/banshee-data/pose.report/internal/pose/l4bodies"
)

type joint struct {
	pt   l2parts.PartType
	x, y int
	conf float32
}

func body(dx, dy, scale int, joints ...joint) *l4bodies.Body {
	b := l4bodies.NewBody(0)
	for _, j := range joints {
		b.Parts = append(b.Parts, &l2parts.Part{
			Type:       j.pt,
			X:          j.x*scale + dx,
			Y:          j.y*scale + dy,
			Confidence: j.conf,
		})
	}
	return b
}

// tee is a neck with a tall nose above it and shoulders either side.
func tee(dx, dy, scale int) *l4bodies.Body {
	return body(dx, dy, scale,
		joint{l2parts.Neck, 5, 5, 0.9},
		joint{l2parts.Nose, 5, 2, 0.8},
		joint{l2parts.RShoulder, 3, 5, 0.7},
		joint{l2parts.LShoulder, 7, 5, 0.6},
	)
}

// squat has the same joints with a short neck and a wide span.
func squat(dx, dy, scale int) *l4bodies.Body {
	return body(dx, dy, scale,
		joint{l2parts.Neck, 5, 5, 0.9},
		joint{l2parts.Nose, 5, 4, 0.8},
		joint{l2parts.RShoulder, 1, 5, 0.7},
		joint{l2parts.LShoulder, 9, 5, 0.6},
	)
}

func TestSquaredBoundingBox(t *testing.T) {
	t.Parallel()

	t.Run("wide", func(t *testing.T) {
		b := body(0, 0, 1, joint{l2parts.Nose, 1, 1, 1}, joint{l2parts.Neck, 4, 2, 1})
		// pixels (8,8) and (32,16): 24 wide, 8 tall
		assert.Equal(t, Box{X: 8, Y: 0, Size: 24}, SquaredBoundingBox(b.Parts))
	})

	t.Run("tall", func(t *testing.T) {
		b := body(0, 0, 1, joint{l2parts.Nose, 3, 1, 1}, joint{l2parts.Neck, 4, 5, 1})
		// pixels (24,8) and (32,40): 8 wide, 32 tall
		assert.Equal(t, Box{X: 12, Y: 8, Size: 32}, SquaredBoundingBox(b.Parts))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, Box{}, SquaredBoundingBox(nil))
	})
}

func TestMatchVector(t *testing.T) {
	t.Parallel()

	m := DefaultMatcher()
	v := m.MatchVector(tee(0, 0, 1))

	assert.InDelta(t, 1.0, floats.Norm(v.Positions(), 2), 1e-12)
	assert.InDelta(t, 3.0, v.ConfidenceSum(), 1e-6)
	assert.InDelta(t, 0.9, v.Confidence(l2parts.Neck), 1e-6)
	assert.Zero(t, v.Confidence(l2parts.RHip))

	// Absent part types keep zero positions.
	assert.Zero(t, v[2*int(l2parts.RHip)])
	assert.Zero(t, v[2*int(l2parts.RHip)+1])
}

func TestMatchVectorInvariance(t *testing.T) {
	t.Parallel()

	m := DefaultMatcher()
	base := m.MatchVector(tee(0, 0, 1))
	moved := m.MatchVector(tee(11, 7, 1))
	scaled := m.MatchVector(tee(3, 2, 3))

	assert.Equal(t, base, moved)
	assert.InDeltaSlice(t, base[:], scaled[:], 1e-12)
	assert.InDelta(t, 0.0, WeightedDistance(&base, &scaled), 1e-12)
}

func TestMatchVectorDegenerate(t *testing.T) {
	t.Parallel()

	m := DefaultMatcher()

	single := m.MatchVector(body(0, 0, 1, joint{l2parts.Nose, 4, 4, 0.5}))
	for _, x := range single.Positions() {
		assert.Zero(t, x)
	}
	assert.InDelta(t, 0.5, single.ConfidenceSum(), 1e-6)

	empty := m.MatchVector(l4bodies.NewBody(0))
	assert.Equal(t, Vector{}, empty)
	assert.Equal(t, Vector{}, m.MatchVector(nil))
}

func TestWeightedDistance(t *testing.T) {
	t.Parallel()

	var a, b Vector
	a[0], a[1] = 0.6, 0.8 // nose
	a[confOffset+0], a[confOffset+1], a[sumIndex] = 1, 3, 4
	b[2] = 1 // neck x
	b[confOffset+0], b[confOffset+1], b[sumIndex] = 1, 1, 2

	// nose differs by 1.4 in total, neck by 1.
	assert.InDelta(t, (1*1.4+3*1.0)/4, WeightedDistance(&a, &b), 1e-12)
	assert.InDelta(t, (1*1.4+1*1.0)/2, WeightedDistance(&b, &a), 1e-12)
	assert.Zero(t, WeightedDistance(&a, &a))

	var zero Vector
	assert.Zero(t, WeightedDistance(&zero, &a))
	assert.InDelta(t, (1*1.4+3*0.0)/4, WeightedDistance(&a, &zero), 1e-12)
}

func TestBodyDistance(t *testing.T) {
	t.Parallel()

	m := DefaultMatcher()
	assert.Zero(t, m.BodyDistance(tee(0, 0, 1), tee(20, 1, 1)))
	assert.Greater(t, m.BodyDistance(tee(0, 0, 1), squat(0, 0, 1)), 0.0)
}

func TestSolveAssignment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cost [][]float64
		want []int
	}{
		{
			name: "square",
			cost: [][]float64{{4, 1, 3}, {2, 0, 5}, {3, 2, 2}},
			want: []int{1, 0, 2},
		},
		{
			name: "more rows",
			cost: [][]float64{{5}, {1}, {3}},
			want: []int{-1, 0, -1},
		},
		{
			name: "more columns",
			cost: [][]float64{{5, 2, 9}},
			want: []int{1},
		},
		{
			name: "forbidden",
			cost: [][]float64{{1, forbidden}, {forbidden, forbidden}},
			want: []int{0, -1},
		},
		{
			name: "more rows near zero costs",
			cost: [][]float64{{0.179}, {0.179}, {0}},
			want: []int{-1, -1, 0},
		},
		{
			name: "more columns gated",
			cost: [][]float64{{forbidden, 0.3, 0.1}, {0.2, forbidden, forbidden}},
			want: []int{2, 0},
		},
		{
			name: "no columns",
			cost: [][]float64{{}, {}},
			want: []int{-1, -1},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, solveAssignment(tc.cost))
		})
	}
	assert.Nil(t, solveAssignment(nil))
}

func TestAssignBodies(t *testing.T) {
	t.Parallel()

	m := DefaultMatcher()
	previous := []*l4bodies.Body{tee(0, 0, 1), squat(0, 0, 1)}

	t.Run("swapped order", func(t *testing.T) {
		current := []*l4bodies.Body{squat(10, 3, 1), tee(12, 1, 1)}
		assert.Equal(t, []int{1, 0}, m.AssignBodies(previous, current, 0))
	})

	t.Run("gated", func(t *testing.T) {
		current := []*l4bodies.Body{tee(4, 4, 1), squat(2, 2, 1)}
		got := m.AssignBodies(previous[:1], current, 1e-9)
		assert.Equal(t, []int{0, -1}, got)
	})

	t.Run("more current than previous", func(t *testing.T) {
		current := []*l4bodies.Body{squat(0, 0, 1), squat(3, 3, 1), tee(0, 0, 1)}
		assert.Equal(t, []int{-1, -1, 0}, m.AssignBodies(previous[:1], current, 0))
	})

	t.Run("more previous than current", func(t *testing.T) {
		current := []*l4bodies.Body{squat(5, 5, 1)}
		assert.Equal(t, []int{1}, m.AssignBodies(previous, current, 0))
	})

	t.Run("no previous", func(t *testing.T) {
		got := m.AssignBodies(nil, []*l4bodies.Body{tee(0, 0, 1)}, 0)
		require.Len(t, got, 1)
		assert.Equal(t, -1, got[0])
	})

	t.Run("no current", func(t *testing.T) {
		assert.Nil(t, m.AssignBodies(previous, nil, 0))
	})
}
