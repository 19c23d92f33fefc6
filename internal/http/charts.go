package http

import (
	"bytes"
	"image/color"
	"math"
	"net/http"

	"agcarbon/internal/core"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// chartKind names one of the dashboard charts.
type chartKind string

const (
	chartRegistry chartKind = "registry" // credits by registry, top 10
	chartType     chartKind = "type"     // project count by type
	chartStatus   chartKind = "status"   // issued vs retired by status
	chartCountry  chartKind = "country"  // credits by country, top 15
)

// handleChart renders one chart PNG for the request's selection.
// Rendered images are cached per (kind, selection); the cache never
// outlives the dataset, which is immutable for the process lifetime.
func (s *Server) handleChart(kind chartKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds, err := s.source.Dataset(r.Context())
		if err != nil {
			http.Error(w, "dataset unavailable", http.StatusServiceUnavailable)
			return
		}

		sel := parseSelection(r, s.defaults)
		key := string(kind) + "|" + selectionKey(sel)
		if png, ok := s.chartCache.Get(key); ok {
			servePNG(w, png)
			return
		}

		bundle := core.BuildBundle(ds, sel)

		var png []byte
		switch kind {
		case chartRegistry:
			png, err = renderBarTotals("Credits Issued by Registry", "tCO2eq", bundle.CreditsByRegistry)
		case chartType:
			png, err = renderBarCounts("Projects by Type", bundle.CountByType)
		case chartStatus:
			png, err = renderStatusBars("Issued vs Retired by Status", bundle.CreditsByStatus)
		case chartCountry:
			png, err = renderBarTotals("Credits Issued by Country", "tCO2eq", bundle.CreditsByCountry)
		default:
			http.NotFound(w, r)
			return
		}
		if err != nil {
			s.log.ErrorContext(r.Context(), "chart rendering failed", "chart", string(kind), "error", err)
			http.Error(w, "chart rendering failed", http.StatusInternalServerError)
			return
		}
		if png == nil {
			http.Error(w, "no data for chart", http.StatusNotFound)
			return
		}

		s.chartCache.Set(key, png)
		servePNG(w, png)
	}
}

func servePNG(w http.ResponseWriter, png []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func newBarPlot(title, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.Y.Label.Text = ylabel
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.YAlign = draw.YCenter
	p.X.Tick.Label.XAlign = draw.XRight
	return p
}

// renderBarTotals draws a descending bar chart of group sums. A nil or
// empty series yields a nil image; the caller answers 404 and the page
// hides the slot.
func renderBarTotals(title, ylabel string, groups []core.GroupTotal) ([]byte, error) {
	if len(groups) == 0 {
		return nil, nil
	}

	values := make(plotter.Values, len(groups))
	labels := make([]string, len(groups))
	for i, g := range groups {
		values[i] = g.Total
		labels[i] = g.Key
	}

	p := newBarPlot(title, ylabel)
	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return nil, err
	}
	bars.Color = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(labels...)

	return plotPNG(p, 10*vg.Inch, 5*vg.Inch)
}

// renderBarCounts draws the count-by-type distribution as a bar chart.
func renderBarCounts(title string, groups []core.GroupCount) ([]byte, error) {
	if len(groups) == 0 {
		return nil, nil
	}

	values := make(plotter.Values, len(groups))
	labels := make([]string, len(groups))
	for i, g := range groups {
		values[i] = float64(g.Count)
		labels[i] = g.Key
	}

	p := newBarPlot(title, "projects")
	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return nil, err
	}
	bars.Color = color.RGBA{R: 34, G: 139, B: 34, A: 255}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(labels...)

	return plotPNG(p, 10*vg.Inch, 5*vg.Inch)
}

// renderStatusBars draws issued and retired totals side by side per
// status.
func renderStatusBars(title string, series []core.StatusCredits) ([]byte, error) {
	if len(series) == 0 {
		return nil, nil
	}

	issued := make(plotter.Values, len(series))
	retired := make(plotter.Values, len(series))
	labels := make([]string, len(series))
	for i, s := range series {
		issued[i] = s.Issued
		retired[i] = s.Retired
		labels[i] = s.Status
	}

	p := newBarPlot(title, "tCO2eq")

	barWidth := vg.Points(15)
	issuedBars, err := plotter.NewBarChart(issued, barWidth)
	if err != nil {
		return nil, err
	}
	issuedBars.Color = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	issuedBars.LineStyle.Width = vg.Length(0)
	issuedBars.Offset = -barWidth / 2

	retiredBars, err := plotter.NewBarChart(retired, barWidth)
	if err != nil {
		return nil, err
	}
	retiredBars.Color = color.RGBA{R: 255, G: 165, B: 0, A: 255}
	retiredBars.LineStyle.Width = vg.Length(0)
	retiredBars.Offset = barWidth / 2

	p.Add(issuedBars, retiredBars)
	p.Legend.Add("Issued", issuedBars)
	p.Legend.Add("Retired", retiredBars)
	p.Legend.Top = true
	p.NominalX(labels...)

	return plotPNG(p, 10*vg.Inch, 5*vg.Inch)
}

func plotPNG(p *plot.Plot, w, h vg.Length) ([]byte, error) {
	wt, err := p.WriterTo(w, h, "png")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
