// Package stripchart draws decoded frames as PNG strip charts, one file per
// group of related traces, for reviewing a session offline.
package stripchart

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/grip.monitor/internal/analog"
	"github.com/banshee-data/grip.monitor/internal/packets"
	"github.com/banshee-data/grip.monitor/internal/security"
	"github.com/banshee-data/grip.monitor/internal/telemetry"
	"github.com/banshee-data/grip.monitor/internal/vectors"
)

// Trace is one line on a chart.
type Trace struct {
	Label string
	Value func(f telemetry.Frame) float64
}

// Chart is one PNG: Name is the file stem.
type Chart struct {
	Name   string
	Title  string
	YLabel string
	Traces []Trace
}

func component(pick func(telemetry.Frame) vectors.Vector3, axis int) func(telemetry.Frame) float64 {
	return func(f telemetry.Frame) float64 { return pick(f)[axis] }
}

func xyz(pick func(telemetry.Frame) vectors.Vector3) []Trace {
	return []Trace{
		{Label: "X", Value: component(pick, vectors.X)},
		{Label: "Y", Value: component(pick, vectors.Y)},
		{Label: "Z", Value: component(pick, vectors.Z)},
	}
}

// degrees converts a radian channel, leaving Missing alone.
func degrees(v float64) float64 {
	if v == vectors.Missing {
		return v
	}
	return vectors.ToDegrees(v)
}

// DefaultCharts are the strips of the operator display.
func DefaultCharts() []Chart {
	return []Chart{
		{
			Name: "position", Title: "Manipulandum Position", YLabel: "Position (mm)",
			Traces: xyz(func(f telemetry.Frame) vectors.Vector3 { return f.Position }),
		},
		{
			Name: "rotations", Title: "Manipulandum Rotations", YLabel: "Angle (deg)",
			Traces: []Trace{
				{Label: "Roll", Value: func(f telemetry.Frame) float64 { return degrees(f.Rotations[vectors.X]) }},
				{Label: "Pitch", Value: func(f telemetry.Frame) float64 { return degrees(f.Rotations[vectors.Y]) }},
				{Label: "Yaw", Value: func(f telemetry.Frame) float64 { return degrees(f.Rotations[vectors.Z]) }},
			},
		},
		{
			Name: "forces", Title: "Grip and Load Force", YLabel: "Force (N)",
			Traces: []Trace{
				{Label: "Grip", Value: func(f telemetry.Frame) float64 { return f.GripForce }},
				{Label: "Load", Value: func(f telemetry.Frame) float64 { return f.LoadForceMagnitude }},
				{Label: "Normal left", Value: func(f telemetry.Frame) float64 { return f.NormalForce[analog.LeftSensor] }},
				{Label: "Normal right", Value: func(f telemetry.Frame) float64 { return f.NormalForce[analog.RightSensor] }},
			},
		},
		{
			Name: "cop", Title: "Center of Pressure", YLabel: "Offset (m)",
			Traces: []Trace{
				{Label: "Left Y", Value: component(func(f telemetry.Frame) vectors.Vector3 { return f.CenterOfPressure[analog.LeftSensor] }, vectors.Y)},
				{Label: "Left Z", Value: component(func(f telemetry.Frame) vectors.Vector3 { return f.CenterOfPressure[analog.LeftSensor] }, vectors.Z)},
				{Label: "Right Y", Value: component(func(f telemetry.Frame) vectors.Vector3 { return f.CenterOfPressure[analog.RightSensor] }, vectors.Y)},
				{Label: "Right Z", Value: component(func(f telemetry.Frame) vectors.Vector3 { return f.CenterOfPressure[analog.RightSensor] }, vectors.Z)},
			},
		},
		{
			Name: "acceleration", Title: "Acceleration", YLabel: "Acceleration (g)",
			Traces: xyz(func(f telemetry.Frame) vectors.Vector3 { return f.Acceleration }),
		},
		visibilityChart(),
	}
}

func visibilityChart() Chart {
	c := Chart{
		Name: "visibility", Title: "Marker Visibility", YLabel: "",
		Traces: []Trace{
			{Label: "Manipulandum", Value: func(f telemetry.Frame) float64 { return f.ManipulandumVisibility }},
			{Label: "Frame", Value: func(f telemetry.Frame) float64 { return f.FrameVisibility }},
			{Label: "Wrist", Value: func(f telemetry.Frame) float64 { return f.WristVisibility }},
			{Label: "Packets", Value: func(f telemetry.Frame) float64 { return f.PacketReceived }},
		},
	}
	for mrk := 0; mrk < telemetry.CodaMarkers; mrk++ {
		mrk := mrk
		c.Traces = append(c.Traces, Trace{
			Value: func(f telemetry.Frame) float64 { return f.MarkerVisibility[mrk] },
		})
	}
	return c
}

// Exporter writes charts into a directory.
type Exporter struct {
	OutputDir string
	Width     vg.Length
	Height    vg.Length
}

// NewExporter writes 14x6 inch charts into outputDir.
func NewExporter(outputDir string) *Exporter {
	return &Exporter{
		OutputDir: outputDir,
		Width:     14 * vg.Inch,
		Height:    6 * vg.Inch,
	}
}

// Export draws every chart over frames and returns the files written. The
// time axis counts seconds from the first frame at the nominal slice rate,
// so stream-break placeholders keep their width.
func (e *Exporter) Export(frames []telemetry.Frame, charts []Chart) ([]string, error) {
	if err := os.MkdirAll(e.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	var written []string
	for _, c := range charts {
		p, err := e.render(frames, c)
		if err != nil {
			return written, fmt.Errorf("chart %s: %w", c.Name, err)
		}
		file := filepath.Join(e.OutputDir, security.SanitizeFilename(c.Name)+".png")
		if err := p.Save(e.Width, e.Height, file); err != nil {
			return written, fmt.Errorf("save %s plot: %w", c.Name, err)
		}
		written = append(written, file)
	}
	return written, nil
}

func (e *Exporter) render(frames []telemetry.Frame, c Chart) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s (%d frames)", c.Title, len(frames))
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = c.YLabel

	colors := generateColors(len(c.Traces))
	for i, tr := range c.Traces {
		first := true
		for _, seg := range Segments(frames, tr.Value) {
			line, err := plotter.NewLine(seg)
			if err != nil {
				return nil, err
			}
			line.Color = colors[i]
			line.Width = vg.Points(1)
			p.Add(line)
			if first && tr.Label != "" {
				p.Legend.Add(tr.Label, line)
				first = false
			}
		}
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// Segments splits a channel into runs of available values. Missing values
// and stream breaks end a run, so they draw as gaps.
func Segments(frames []telemetry.Frame, value func(telemetry.Frame) float64) []plotter.XYs {
	var (
		out []plotter.XYs
		cur plotter.XYs
	)
	for i, f := range frames {
		v := value(f)
		if v == vectors.Missing || f.IsPlaceholder() {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: float64(i) * packets.DEFAULT_SECONDS_PER_SLICE, Y: v})
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// generateColors creates a palette of distinct colors for the traces of a chart
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}

	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64

	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}

	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
