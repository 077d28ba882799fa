package debug

import (
	"fmt"
	"image/color"
	"path/filepath"
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/pose.report/internal/fsutil"
	"github.com/banshee-data/pose.report/internal/monitoring"
	"github.com/banshee-data/pose.report/internal/pose/l1tensor"
	"github.com/banshee-data/pose.report/internal/pose/l2parts"
	"github.com/banshee-data/pose.report/internal/pose/l3limbs"
	"github.com/banshee-data/pose.report/internal/pose/pipeline"
)

// Output file names, one per stage.
const (
	PartHeatmapFile    = "PartHeatmap.png"
	PafFieldFile       = "PafField.png"
	PartCandidatesFile = "PartCandidates.png"
	LimbCandidatesFile = "LimbCandidates.png"
	BodiesFile         = "Bodies.png"
)

// Files lists the plots written for every frame, in write order.
var Files = []string{PartHeatmapFile, PafFieldFile, PartCandidatesFile, LimbCandidatesFile, BodiesFile}

const (
	plotWidth  = 8 * vg.Inch
	plotHeight = 8 * vg.Inch
)

// Writer renders each observed decode into a fixed set of PNG files under
// its directory, overwriting the previous frame. It implements
// pipeline.Observer.
type Writer struct {
	mu  sync.Mutex
	fs  fsutil.FileSystem
	dir string
}

// NewWriter creates dir on fsys and returns a writer into it.
func NewWriter(fsys fsutil.FileSystem, dir string) (*Writer, error) {
	if dir == "" {
		return nil, fmt.Errorf("debug output dir is empty")
	}
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	return &Writer{fs: fsys, dir: dir}, nil
}

// Dir is the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Observe implements pipeline.Observer.
func (w *Writer) Observe(t *l1tensor.Tensor, r *pipeline.Result) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	plots := []struct {
		name  string
		build func() (*plot.Plot, error)
	}{
		{PartHeatmapFile, func() (*plot.Plot, error) { return partHeatmap(t) }},
		{PafFieldFile, func() (*plot.Plot, error) { return pafPlot(t), nil }},
		{PartCandidatesFile, func() (*plot.Plot, error) { return partCandidates(r) }},
		{LimbCandidatesFile, func() (*plot.Plot, error) { return limbCandidates(r) }},
		{BodiesFile, func() (*plot.Plot, error) { return bodies(r) }},
	}
	for _, p := range plots {
		pl, err := p.build()
		if err != nil {
			return fmt.Errorf("%s: %w", p.name, err)
		}
		if err := w.save(pl, p.name); err != nil {
			return err
		}
	}
	monitoring.Debugf("[debug] wrote %d plots to %s", len(plots), w.dir)
	return nil
}

func (w *Writer) save(p *plot.Plot, name string) error {
	wt, err := p.WriterTo(plotWidth, plotHeight, "png")
	if err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	f, err := w.fs.Create(filepath.Join(w.dir, name))
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := wt.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	return f.Close()
}

func newGridPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Grid column"
	p.Y.Label.Text = "Grid row (negated)"
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p
}

func partHeatmap(t *l1tensor.Tensor) (*plot.Plot, error) {
	p := newGridPlot("Part heatmaps (max over part types)")
	if t.Width < 2 || t.Height < 2 {
		// A heat map needs neighbouring cells to size its tiles.
		return p, nil
	}
	hm := plotter.NewHeatMap(heatGrid{t: t}, palette.Heat(32, 1))
	if hm.Max <= hm.Min {
		hm.Max = hm.Min + 1
	}
	p.Add(hm)
	return p, nil
}

func pafPlot(t *l1tensor.Tensor) *plot.Plot {
	p := newGridPlot("Part affinity fields")
	p.Add(newPAFField(t))
	return p
}

func partCandidates(r *pipeline.Result) (*plot.Plot, error) {
	p := newGridPlot(fmt.Sprintf("Part candidates (%d)", r.Stats.Parts))
	p.X.Min, p.X.Max = 0, float64(r.Width)
	p.Y.Min, p.Y.Max = plotY(r.Height), 0

	colors := generateColors(l2parts.PartTypeCount)
	for _, pt := range l2parts.PartTypes() {
		parts := r.Parts[pt]
		if len(parts) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(parts))
		for i, part := range parts {
			pts[i].X, pts[i].Y = float64(part.X), plotY(part.Y)
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, err
		}
		s.GlyphStyle.Color = colors[pt]
		s.GlyphStyle.Radius = vg.Points(3)
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(s)
		p.Legend.Add(pt.String(), s)
	}
	return p, nil
}

func segment(l *l3limbs.Limb, c color.Color) (*plotter.Line, error) {
	line, err := plotter.NewLine(plotter.XYs{
		{X: float64(l.From.X), Y: plotY(l.From.Y)},
		{X: float64(l.To.X), Y: plotY(l.To.Y)},
	})
	if err != nil {
		return nil, err
	}
	line.LineStyle.Color = c
	line.LineStyle.Width = vg.Points(2)
	return line, nil
}

func limbCandidates(r *pipeline.Result) (*plot.Plot, error) {
	p := newGridPlot(fmt.Sprintf("Accepted limbs (%d of %d candidates)", r.Stats.Limbs, r.Stats.Candidates))
	p.X.Min, p.X.Max = 0, float64(r.Width)
	p.Y.Min, p.Y.Max = plotY(r.Height), 0

	colors := generateColors(l3limbs.LimbTypeCount)
	for _, lt := range l3limbs.LimbTypes() {
		for i, l := range r.Limbs[lt] {
			line, err := segment(l, colors[lt])
			if err != nil {
				return nil, err
			}
			p.Add(line)
			if i == 0 {
				p.Legend.Add(lt.String(), line)
			}
		}
	}
	return p, nil
}

func bodies(r *pipeline.Result) (*plot.Plot, error) {
	p := newGridPlot(fmt.Sprintf("Bodies (%d)", len(r.Bodies)))
	p.X.Min, p.X.Max = 0, float64(r.Width)
	p.Y.Min, p.Y.Max = plotY(r.Height), 0

	colors := generateColors(len(r.Bodies))
	for i, b := range r.Bodies {
		for _, l := range b.Limbs {
			if l.Type.Auxiliary() {
				continue
			}
			line, err := segment(l, colors[i])
			if err != nil {
				return nil, err
			}
			p.Add(line)
		}
		pts := make(plotter.XYs, len(b.Parts))
		for j, part := range b.Parts {
			pts[j].X, pts[j].Y = float64(part.X), plotY(part.Y)
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, err
		}
		s.GlyphStyle.Color = colors[i]
		s.GlyphStyle.Radius = vg.Points(3)
		p.Add(s)
		p.Legend.Add(fmt.Sprintf("body %d (%d parts)", b.ID, b.PartCount()), s)
	}
	return p, nil
}
