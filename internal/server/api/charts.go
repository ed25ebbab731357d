package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ayusman/fingercount/internal/store"
)

// plotPNG handles GET /api/sessions/{id}/plot.png and renders the finger count
// of every frame as a line.
func (h *SessionHandler) plotPNG(w http.ResponseWriter, r *http.Request, id string) {
	sess, ok := h.lookup(w, id)
	if !ok {
		return
	}

	readings, err := h.store.Readings().ListBySession(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list readings")
		return
	}

	img, err := renderCountPlot(sess, readings)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to render plot: %v", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(img)
}

func renderCountPlot(sess *store.Session, readings []store.Reading) ([]byte, error) {
	p := plot.New()
	p.Title.Text = "Fingers per frame"
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Fingers"
	p.Y.Min = 0
	p.Y.Max = store.MaxFingers
	p.X.Min = 0
	p.X.Max = float64(max(len(readings), 1))
	p.Add(plotter.NewGrid())

	if len(readings) > 0 {
		pts := make(plotter.XYs, len(readings))
		for i, rd := range readings {
			pts[i] = plotter.XY{X: float64(rd.Frame), Y: float64(rd.Fingers)}
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("line: %w", err)
		}
		line.Width = vg.Points(1)
		p.Add(line)
	}

	wt, err := p.WriterTo(10*vg.Inch, 3*vg.Inch, "png")
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// chartPage handles GET /api/sessions/{id}/chart and renders an HTML page with
// the count histogram and the count over time.
func (h *SessionHandler) chartPage(w http.ResponseWriter, r *http.Request, id string) {
	sess, ok := h.lookup(w, id)
	if !ok {
		return
	}

	readings, err := h.store.Readings().ListBySession(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list readings")
		return
	}
	sum := store.Summarize(id, readings)

	x := make([]string, len(sum.Histogram))
	y := make([]opts.BarData, len(sum.Histogram))
	for i, n := range sum.Histogram {
		x[i] = strconv.Itoa(i)
		y[i] = opts.BarData{Value: n}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Session " + sess.ID, Width: "100%", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Finger count histogram",
			Subtitle: fmt.Sprintf("frames=%d mean=%.2f sd=%.2f", sum.Frames, sum.Mean, sum.StdDev),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("frames", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	frames := make([]int, len(readings))
	counts := make([]opts.LineData, len(readings))
	for i, rd := range readings {
		frames[i] = rd.Frame
		counts[i] = opts.LineData{Value: rd.Fingers}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{Title: "Fingers per frame"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: store.MaxFingers}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	line.SetXAxis(frames).AddSeries("fingers", counts)

	page := components.NewPage()
	page.AddCharts(bar, line)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("render error: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
