package l3limbs

import (
	"fmt"
	"math"

	"github.com/banshee-data/pose.report/internal/pose/l1tensor"
	"github.com/banshee-data/pose.report/internal/pose/l2parts"
)

// PAFSamples is the number of points sampled along a candidate limb.
const PAFSamples = 10

// minDirectionNorm rejects candidate pairs whose endpoints coincide.
const minDirectionNorm = 1e-12

// ScoreParams holds the acceptance thresholds for limb candidates.
type ScoreParams struct {
	StepThreshold  float32 // per-sample alignment needed to count a sample
	TotalThreshold float32 // exclusive lower bound on the summed score
	CountThreshold int     // minimum number of counted samples
}

// DefaultScoreParams returns production defaults.
func DefaultScoreParams() ScoreParams {
	return ScoreParams{StepThreshold: 0.1, TotalThreshold: 4.4, CountThreshold: 2}
}

// Validate checks the parameters.
func (p ScoreParams) Validate() error {
	for name, v := range map[string]float32{"step": p.StepThreshold, "total": p.TotalThreshold} {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return fmt.Errorf("%s paf score threshold must be finite, got %v", name, v)
		}
	}
	if p.CountThreshold < 0 {
		return fmt.Errorf("paf count threshold must be non-negative, got %d", p.CountThreshold)
	}
	return nil
}

// PAFScore integrates the limb's affinity field along the segment between
// from and to. It returns the summed per-sample alignment, the number of
// samples above stepThreshold, and ok=false when the endpoints coincide.
//
// Samples are taken at t/PAFSamples of the way for t in [0, PAFSamples) and
// read from the nearest cell. The x field channel pairs with the column
// direction and the y channel with the row direction.
func PAFScore(t *l1tensor.Tensor, limbType LimbType, from, to *l2parts.Part, stepThreshold float32) (total float32, count int, ok bool) {
	dRow := float64(to.Y - from.Y)
	dCol := float64(to.X - from.X)
	norm := math.Sqrt(dRow*dRow + dCol*dCol)
	if norm <= minDirectionNorm {
		return 0, 0, false
	}
	rowDir, colDir := dRow/norm, dCol/norm
	chX, chY := limbType.PAFChannels()

	for s := 0; s < PAFSamples; s++ {
		frac := float64(s) / PAFSamples
		y := int(float64(from.Y) + frac*dRow + 0.5)
		x := int(float64(from.X) + frac*dCol + 0.5)

		step := float32(colDir*float64(t.At(y, x, chX)) + rowDir*float64(t.At(y, x, chY)))
		total += step
		if step > stepThreshold {
			count++
		}
	}
	return total, count, true
}

// ScoreCandidates scores every (from, to) pair of the limb type and returns
// the pairs that pass both thresholds, in generation order (from-major).
// Candidates are not deduplicated by shared parts; see SelectLimbs.
func ScoreCandidates(t *l1tensor.Tensor, limbType LimbType, from, to []*l2parts.Part, params ScoreParams) []*Limb {
	if len(from) == 0 || len(to) == 0 {
		return nil
	}

	candidates := make([]*Limb, 0, len(from)*len(to)/2+1)
	for _, fp := range from {
		for _, tp := range to {
			total, count, ok := PAFScore(t, limbType, fp, tp, params.StepThreshold)
			if !ok {
				continue
			}
			if total > params.TotalThreshold && count >= params.CountThreshold {
				candidates = append(candidates, &Limb{Type: limbType, Score: total, From: fp, To: tp})
			}
		}
	}
	return candidates
}
