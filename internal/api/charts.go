package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/grip.monitor/internal/analog"
	"github.com/banshee-data/grip.monitor/internal/httputil"
	"github.com/banshee-data/grip.monitor/internal/vectors"
)

const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

// handleForceChart renders the grip, load and normal forces of the most
// recent frames as an HTML line chart. Stream breaks and missing values show
// as gaps.
func (s *Server) handleForceChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	last, err := intParam(r, "last", defaultFrameLimit, maxFrameLimit)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	d := s.rt.Decoder()
	buf := d.Buffer()
	from := buf.Len() - last
	if from < 0 {
		from = 0
	}
	frames := buf.Frames(from, last)

	x := make([]string, len(frames))
	grip := make([]opts.LineData, len(frames))
	load := make([]opts.LineData, len(frames))
	left := make([]opts.LineData, len(frames))
	right := make([]opts.LineData, len(frames))
	for i, f := range frames {
		x[i] = strconv.Itoa(from + i)
		grip[i] = lineValue(f.GripForce)
		load[i] = lineValue(f.LoadForceMagnitude)
		left[i] = lineValue(f.NormalForce[analog.LeftSensor])
		right[i] = lineValue(f.NormalForce[analog.RightSensor])
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "GRIP Forces", Theme: "dark", Width: "100%", Height: "720px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Grip and Load Force", Subtitle: fmt.Sprintf("session=%s frames=%d-%d state=%s", d.SessionID(), from, from+len(frames), d.State())}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frame", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Force (N)", NameLocation: "middle", NameGap: 30}),
	)
	line.SetXAxis(x).
		AddSeries("grip", grip).
		AddSeries("load", load).
		AddSeries("normal left", left).
		AddSeries("normal right", right)

	page := components.NewPage()
	page.SetAssetsHost(echartsAssetsPrefix)
	page.AddCharts(line)

	var out bytes.Buffer
	if err := page.Render(&out); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("render error: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(out.Bytes())
}

// lineValue maps Missing to echarts' gap marker.
func lineValue(v float64) opts.LineData {
	if v == vectors.Missing {
		return opts.LineData{Value: "-"}
	}
	return opts.LineData{Value: v}
}
