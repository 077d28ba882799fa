package l3limbs

import (
	"sort"

	"github.com/banshee-data/pose.report/internal/pose/l1tensor"
	"github.com/banshee-data/pose.report/internal/pose/l2parts"
)

// SelectLimbs greedily accepts candidates in descending score order,
// rejecting any candidate that reuses a part already taken by an accepted
// limb. Equal scores keep their input order, so the result is a pure
// function of the candidate slice. The input slice is not modified.
//
// All candidates are expected to share one limb type; a part may still
// appear in limbs of other types.
func SelectLimbs(candidates []*Limb) []*Limb {
	if len(candidates) == 0 {
		return nil
	}

	ordered := make([]*Limb, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Score > ordered[j].Score
	})

	assigned := make(map[l2parts.PartKey]struct{}, 2*len(ordered))
	var accepted []*Limb
	for _, c := range ordered {
		fk, tk := c.From.Key(), c.To.Key()
		if _, taken := assigned[fk]; taken {
			continue
		}
		if _, taken := assigned[tk]; taken {
			continue
		}
		accepted = append(accepted, c)
		assigned[fk] = struct{}{}
		assigned[tk] = struct{}{}
	}
	return accepted
}

// Connect runs scoring and selection for one limb type over the detected
// parts. It returns the accepted limbs and the number of scored candidates.
func Connect(t *l1tensor.Tensor, limbType LimbType, parts *l2parts.PartsByType, params ScoreParams) ([]*Limb, int) {
	candidates := ScoreCandidates(t, limbType, parts[limbType.From()], parts[limbType.To()], params)
	return SelectLimbs(candidates), len(candidates)
}
