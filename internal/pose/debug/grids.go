package debug

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/pose.report/internal/pose/l1tensor"
	"github.com/banshee-data/pose.report/internal/pose/l2parts"
	"github.com/banshee-data/pose.report/internal/pose/l3limbs"
)

// plotY maps a grid row to a plot ordinate so that row 0 is at the top.
func plotY(row int) float64 {
	return -float64(row)
}

// heatGrid exposes the per-cell maximum over all part heatmaps as a
// plotter.GridXYZ. Grid row r of the plot is tensor row Height-1-r so that
// ordinates increase upwards.
type heatGrid struct {
	t *l1tensor.Tensor
}

func (g heatGrid) Dims() (c, r int) { return g.t.Width, g.t.Height }

func (g heatGrid) X(c int) float64 { return float64(c) }

func (g heatGrid) Y(r int) float64 { return plotY(g.t.Height - 1 - r) }

func (g heatGrid) Z(c, r int) float64 {
	row := g.t.Height - 1 - r
	var best float32
	for _, pt := range l2parts.PartTypes() {
		if v := g.t.At(row, c, pt.Channel()); v > best {
			best = v
		}
	}
	return float64(best)
}

// pafField draws the summed affinity vector of every cell whose magnitude
// exceeds MinMagnitude as a short segment starting at the cell centre.
type pafField struct {
	t            *l1tensor.Tensor
	MinMagnitude float64
	LineStyle    draw.LineStyle
}

func newPAFField(t *l1tensor.Tensor) *pafField {
	return &pafField{
		t:            t,
		MinMagnitude: 0.1,
		LineStyle:    draw.LineStyle{Color: generateColors(3)[2], Width: vg.Points(1)},
	}
}

func (f *pafField) vector(y, x int) (dx, dy float64) {
	for _, lt := range l3limbs.LimbTypes() {
		chX, chY := lt.PAFChannels()
		dx += float64(f.t.At(y, x, chX))
		dy += float64(f.t.At(y, x, chY))
	}
	return dx, dy
}

// Plot implements plot.Plotter.
func (f *pafField) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	for y := 0; y < f.t.Height; y++ {
		for x := 0; x < f.t.Width; x++ {
			dx, dy := f.vector(y, x)
			if dx*dx+dy*dy < f.MinMagnitude*f.MinMagnitude {
				continue
			}
			// Rows grow downwards in the tensor and upwards on the plot.
			x0, y0 := float64(x), plotY(y)
			x1, y1 := x0+0.5*dx, y0-0.5*dy
			pts := []vg.Point{{X: trX(x0), Y: trY(y0)}, {X: trX(x1), Y: trY(y1)}}
			c.StrokeLines(f.LineStyle, c.ClipLinesXY(pts)...)
		}
	}
}

// DataRange implements plot.DataRanger.
func (f *pafField) DataRange() (xmin, xmax, ymin, ymax float64) {
	return -1, float64(f.t.Width), plotY(f.t.Height), 1
}

var (
	_ plot.Plotter    = (*pafField)(nil)
	_ plot.DataRanger = (*pafField)(nil)
	_ plotter.GridXYZ = heatGrid{}
)
