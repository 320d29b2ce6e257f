package webui

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"mrivis/internal/httputil"
)

const defaultHistogramBins = 64

// handleHistogram renders a quick bar chart (HTML) of the volume intensity
// distribution using go-echarts. This is a debugging-only endpoint to sanity
// check normalization and windowing without leaving the browser.
// Query params:
//   - bins (optional; default 64, clamped to [8, 512])
func (s *Server) handleHistogram(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	bins := defaultHistogramBins
	if b := r.URL.Query().Get("bins"); b != "" {
		if v, err := strconv.Atoi(b); err == nil && v >= 8 && v <= 512 {
			bins = v
		}
	}

	counts := s.viewer.Histogram(bins)
	if counts == nil {
		httputil.InternalServerError(w, "no volume data available")
		return
	}

	labels := make([]string, len(counts))
	data := make([]opts.BarData, len(counts))
	for i, c := range counts {
		labels[i] = fmt.Sprintf("%.2f", float64(i)/float64(bins))
		data[i] = opts.BarData{Value: c}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Volume Intensity Histogram", Width: "1000px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Volume Intensity Histogram",
			Subtitle: fmt.Sprintf("series=%s bins=%d voxels=%d", s.series.Description, bins, s.volume.Width*s.volume.Height*s.volume.Depth),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "intensity"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "voxels"}),
	)
	bar.SetXAxis(labels)
	bar.AddSeries("voxels", data)

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
