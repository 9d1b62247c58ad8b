package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/groundstation/internal/db"
	"github.com/banshee-data/groundstation/internal/httputil"
	"github.com/banshee-data/groundstation/internal/station"
)

// showChart renders the recent readings and tones as an HTML line chart.
func (s *Server) showChart(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireMethod(w, r, http.MethodGet) || !s.requireHistory(w) {
		return
	}
	limit, err := httputil.QueryInt(r, "limit", db.DefaultHistoryLimit, 1, db.MaxHistoryLimit)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	cycles, err := s.history.RecentCycles(r.Context(), limit)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, "failed to read history: "+err.Error())
		return
	}

	page := components.NewPage()
	page.AddCharts(historyChart(cycles))

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("render error: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// chartSeries lays cycles out oldest first. Paused cycles before the first
// reading have no value and leave a gap.
func chartSeries(newestFirst []station.Cycle) (x []string, rssiData, toneData []opts.LineData) {
	n := len(newestFirst)
	x = make([]string, 0, n)
	rssiData = make([]opts.LineData, 0, n)
	toneData = make([]opts.LineData, 0, n)
	for i := n - 1; i >= 0; i-- {
		c := newestFirst[i]
		x = append(x, c.At.Format(time.TimeOnly))
		if c.Paused && !c.Replayed {
			rssiData = append(rssiData, opts.LineData{Value: "-"})
			toneData = append(toneData, opts.LineData{Value: "-"})
			continue
		}
		rssiData = append(rssiData, opts.LineData{Value: c.RSSI})
		toneData = append(toneData, opts.LineData{Value: c.ToneHz})
	}
	return x, rssiData, toneData
}

func historyChart(newestFirst []station.Cycle) *charts.Line {
	n := len(newestFirst)
	x, rssiData, toneData := chartSeries(newestFirst)

	subtitle := "no cycles recorded"
	if n > 0 {
		subtitle = fmt.Sprintf("session=%s cycles=%d", newestFirst[0].Session, n)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "RSSI history", Width: "100%", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "RSSI history", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "RSSI (dB)", Min: -110, Max: -40}),
	)
	line.ExtendYAxis(opts.YAxis{Name: "Tone (Hz)", Min: 0, Max: 3000})
	line.SetXAxis(x).
		AddSeries("RSSI", rssiData).
		AddSeries("Tone", toneData, charts.WithLineChartOpts(opts.LineChart{YAxisIndex: 1}))
	return line
}
