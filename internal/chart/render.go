package chart

import (
	"errors"
	"fmt"
	"io"
	"math"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/FlyingRobots-Pequi/pidcal/internal/series"
)

// ErrNotEnoughData is returned when a chart has fewer than two samples to draw.
var ErrNotEnoughData = errors.New("not enough samples to draw")

// PNGSignature is the magic prefix of every rendered chart.
const PNGSignature = "\x89PNG\r\n\x1a\n"

// RenderOptions describes one chart image.
type RenderOptions struct {
	Title  string
	Unit   string
	Width  int
	Height int
}

var (
	setpointStyle = gochart.Style{
		StrokeColor:     drawing.ColorRed,
		StrokeWidth:     2,
		StrokeDashArray: []float64{5, 3},
	}
	actualStyle = gochart.Style{
		StrokeColor: drawing.ColorBlue,
		StrokeWidth: 2,
	}
)

// RenderPNG draws setpoint and actual against time. The X axis is fixed to rng,
// the Y axis autoscales.
func RenderPNG(w io.Writer, opts RenderOptions, view series.View, rng series.Range) error {
	if view.Len() < 2 {
		return ErrNotEnoughData
	}

	if rng.Max <= rng.Min {
		rng = series.Range{Min: view.T[0], Max: view.T[view.Len()-1]}
	}
	if rng.Max <= rng.Min {
		return ErrNotEnoughData
	}

	ch := gochart.Chart{
		Title:      opts.Title,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 12, Bottom: 12}},
		XAxis: gochart.XAxis{
			Name:  "t (s)",
			Range: &gochart.ContinuousRange{Min: rng.Min, Max: rng.Max},
		},
		YAxis: gochart.YAxis{
			Name:  opts.Unit,
			Range: yRange(view),
		},
		Series: []gochart.Series{
			gochart.ContinuousSeries{Name: "Setpoint", XValues: view.T, YValues: view.Setpoint, Style: setpointStyle},
			gochart.ContinuousSeries{Name: "Actual", XValues: view.T, YValues: view.Actual, Style: actualStyle},
		},
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}

	if err := ch.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// yRange spans both lines with a margin. go-chart rejects a zero-height range,
// so a flat signal is widened by one unit each way.
func yRange(view series.View) *gochart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range view.T {
		lo = math.Min(lo, math.Min(view.Setpoint[i], view.Actual[i]))
		hi = math.Max(hi, math.Max(view.Setpoint[i], view.Actual[i]))
	}
	if hi-lo < 1e-9 {
		return &gochart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}
	pad := (hi - lo) * 0.05
	return &gochart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}
