package monitor

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/pose.report/internal/httputil"
	"github.com/banshee-data/pose.report/internal/pose/l1tensor"
	"github.com/banshee-data/pose.report/internal/pose/l2parts"
)

const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

type renderer interface {
	Render(w io.Writer) error
}

// handleHeatmapChart renders one heatmap channel of the last decoded tensor.
// Query params:
//   - part (optional; part type name, default "neck")
func (ws *WebServer) handleHeatmapChart(w http.ResponseWriter, r *http.Request) {
	pt := l2parts.Neck
	if name := r.URL.Query().Get("part"); name != "" {
		var err error
		if pt, err = l2parts.PartTypeByName(name); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
	}
	t, _ := ws.last()
	if t == nil {
		httputil.NotFound(w, "no frame decoded yet")
		return
	}

	// echarts category axes run bottom-up, so rows are listed in reverse.
	xs := make([]string, t.Width)
	for x := range xs {
		xs[x] = strconv.Itoa(x)
	}
	ys := make([]string, t.Height)
	for i := range ys {
		ys[i] = strconv.Itoa(t.Height - 1 - i)
	}

	var maxVal float32
	data := make([]opts.HeatMapData, 0, t.Width*t.Height)
	for y := 0; y < t.Height; y++ {
		for x := 0; x < t.Width; x++ {
			v := t.At(y, x, pt.Channel())
			if v > maxVal {
				maxVal = v
			}
			data = append(data, opts.HeatMapData{Value: [3]interface{}{x, t.Height - 1 - y, v}})
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Pose Heatmap", Theme: "dark", Width: "900px", Height: "700px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Part Heatmap", Subtitle: fmt.Sprintf("part=%s grid=%dx%d", pt, t.Width, t.Height)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: "x (grid)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: ys, Name: "y (grid)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        maxVal,
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	hm.SetXAxis(xs).AddSeries(pt.String(), data)

	ws.renderChart(w, hm, "heatmap")
}

// handleBodiesChart renders the parts of every decoded body as one scatter
// series per body, in input pixel coordinates.
func (ws *WebServer) handleBodiesChart(w http.ResponseWriter, r *http.Request) {
	_, res := ws.last()
	if res == nil {
		httputil.NotFound(w, "no frame decoded yet")
		return
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Pose Bodies", Theme: "dark", Width: "900px", Height: "700px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Decoded Bodies", Subtitle: fmt.Sprintf("bodies=%d parts=%d limbs=%d", len(res.Bodies), res.Stats.Parts, res.Stats.Limbs)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: res.Width * l1tensor.GridScale, Name: "x (px)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -res.Height * l1tensor.GridScale, Max: 0, Name: "-y (px)", NameLocation: "middle", NameGap: 30}),
	)

	for i, b := range res.Bodies {
		points := make([]opts.ScatterData, 0, len(b.Parts))
		for _, p := range b.Parts {
			points = append(points, opts.ScatterData{
				Name:  p.Type.String(),
				Value: []interface{}{p.PixelX(), -p.PixelY(), p.Confidence},
			})
		}
		scatter.AddSeries(fmt.Sprintf("body %d", i), points, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 10}))
	}
	if len(res.Bodies) == 0 {
		scatter.AddSeries("no bodies", []opts.ScatterData{})
	}

	ws.renderChart(w, scatter, "bodies")
}

func (ws *WebServer) renderChart(w http.ResponseWriter, c renderer, what string) {
	var buf bytes.Buffer
	if err := c.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render %s chart: %v", what, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
