package l5match

import (
	"math"

	"github.com/banshee-data/pose.report/internal/pose/l4bodies"
)

// forbidden marks a cost-matrix cell the solver must never select.
const forbidden = 1e18

// solveAssignment runs Kuhn-Munkres with row and column potentials over an
// n×m cost matrix and returns assignment[i] = column for row i, or -1.
// Cells at or above forbidden are never assigned. Rows left over when
// n > m get -1.
func solveAssignment(cost [][]float64) []int {
	n := len(cost)
	if n == 0 {
		return nil
	}
	m := len(cost[0])
	result := make([]int, n)
	for i := range result {
		result[i] = -1
	}
	if m == 0 {
		return result
	}

	// Gated cells cost more than every real assignment together, so the
	// solver takes one only when nothing else is left. Padding rows and
	// columns cost nothing.
	gate := 1.0
	for _, row := range cost {
		for _, c := range row {
			if c < forbidden {
				gate += c
			}
		}
	}
	dim := max(n, m)
	at := func(i, j int) float64 {
		if i >= n || j >= m {
			return 0
		}
		if c := cost[i][j]; c < forbidden {
			return c
		}
		return gate
	}

	const inf = math.MaxFloat64 / 2

	// 1-indexed; column 0 is the virtual start of each augmenting path.
	u := make([]float64, dim+1)
	v := make([]float64, dim+1)
	owner := make([]int, dim+1)
	prev := make([]int, dim+1)
	minv := make([]float64, dim+1)
	used := make([]bool, dim+1)

	for row := 1; row <= dim; row++ {
		owner[0] = row
		col := 0
		for j := 1; j <= dim; j++ {
			minv[j] = inf
			used[j] = false
		}

		for {
			used[col] = true
			i0 := owner[col]
			delta := inf
			next := -1
			for j := 1; j <= dim; j++ {
				if used[j] {
					continue
				}
				if cur := at(i0-1, j-1) - u[i0] - v[j]; cur < minv[j] {
					minv[j] = cur
					prev[j] = col
				}
				if minv[j] < delta {
					delta = minv[j]
					next = j
				}
			}
			if next < 0 {
				break
			}
			for j := 0; j <= dim; j++ {
				if used[j] {
					u[owner[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			col = next
			if owner[col] == 0 {
				break
			}
		}

		for col != 0 {
			owner[col] = owner[prev[col]]
			col = prev[col]
		}
	}

	for j := 1; j <= m; j++ {
		i := owner[j] - 1
		if i >= 0 && i < n && cost[i][j-1] < forbidden {
			result[i] = j - 1
		}
	}
	return result
}

// AssignBodies matches each current body to at most one previous body so that
// the summed BodyDistance(current, previous) is minimal. Pairs further apart
// than maxDistance are never matched; a maxDistance <= 0 disables gating.
// The result has one entry per current body: the index into previous, or -1.
func (m *Matcher) AssignBodies(previous, current []*l4bodies.Body, maxDistance float64) []int {
	if len(current) == 0 {
		return nil
	}
	prevVecs := make([]Vector, len(previous))
	for j, b := range previous {
		prevVecs[j] = m.MatchVector(b)
	}

	cost := make([][]float64, len(current))
	for i, b := range current {
		cv := m.MatchVector(b)
		cost[i] = make([]float64, len(previous))
		for j := range previous {
			d := WeightedDistance(&cv, &prevVecs[j])
			if maxDistance > 0 && d > maxDistance {
				d = forbidden
			}
			cost[i][j] = d
		}
	}
	return solveAssignment(cost)
}
