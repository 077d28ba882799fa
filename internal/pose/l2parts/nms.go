package l2parts

import (
	"fmt"
	"math"

	"github.com/banshee-data/pose.report/internal/pose/l1tensor"
)

// NMSParams controls heatmap peak extraction.
type NMSParams struct {
	// WindowSize sets the suppression window. A window of size w spans
	// offsets [-(w-1)/2, (w+1)/2) around the centre cell on both axes.
	WindowSize int
	// Threshold is the exclusive lower bound on a peak's confidence.
	Threshold float32
}

// DefaultNMSParams returns production defaults.
func DefaultNMSParams() NMSParams {
	return NMSParams{WindowSize: 4, Threshold: 0.15}
}

// Validate checks the parameters.
func (p NMSParams) Validate() error {
	if p.WindowSize < 1 {
		return fmt.Errorf("nms window size must be at least 1, got %d", p.WindowSize)
	}
	if math.IsNaN(float64(p.Threshold)) || math.IsInf(float64(p.Threshold), 0) {
		return fmt.Errorf("nms threshold must be finite, got %v", p.Threshold)
	}
	return nil
}

// window returns the inclusive-exclusive offset range of the NMS window.
func (p NMSParams) window() (lo, hi int) {
	return -(p.WindowSize - 1) / 2, (p.WindowSize + 1) / 2
}

// DetectParts scans the heatmap channel of partType and returns one Part per
// cell that is the maximum of its window and exceeds the threshold. Cells
// closer to the border than the window reach are not considered. Parts are
// returned in scan order; Instance is the position in the returned slice.
//
// Adjacent cells tied at the window maximum each produce a Part.
func DetectParts(t *l1tensor.Tensor, partType PartType, params NMSParams) []*Part {
	lo, hi := params.window()
	ch := partType.Channel()

	var parts []*Part
	for y := -lo; y < t.Height-hi; y++ {
		for x := -lo; x < t.Width-hi; x++ {
			var best float32
			for dy := lo; dy < hi; dy++ {
				for dx := lo; dx < hi; dx++ {
					if v := t.At(y+dy, x+dx, ch); v > best {
						best = v
					}
				}
			}
			if best > params.Threshold && best == t.At(y, x, ch) {
				parts = append(parts, &Part{
					Type:       partType,
					Instance:   len(parts),
					Y:          y,
					X:          x,
					Confidence: best,
				})
			}
		}
	}
	return parts
}

// DetectAll runs DetectParts for every part type.
func DetectAll(t *l1tensor.Tensor, params NMSParams) *PartsByType {
	var all PartsByType
	for _, pt := range PartTypes() {
		all[pt] = DetectParts(t, pt, params)
	}
	return &all
}
