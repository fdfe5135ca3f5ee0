// Package chart is the chart surface the poll loop redraws.
//
// The poll loop hands every redraw a Frame of copied series views. WebSurface keeps
// the latest frame for HTTP readers, announces each redraw on the SSE hub and renders
// PNG charts on demand with go-chart.
package chart

import (
	"github.com/FlyingRobots-Pequi/pidcal/internal/controller"
	"github.com/FlyingRobots-Pequi/pidcal/internal/series"
)

// AxisFrame is the snapshot of one redrawn axis.
type AxisFrame struct {
	Key  series.Key
	View series.View
}

// Frame is one redraw: the axes that received a paired sample this tick.
type Frame struct {
	Now   float64
	Range series.Range
	Axes  []AxisFrame
}

// Controllers returns the distinct controllers in the frame, in order of appearance.
func (f Frame) Controllers() []controller.ID {
	var ids []controller.ID
	seen := make(map[controller.ID]bool)
	for _, a := range f.Axes {
		if !seen[a.Key.Controller] {
			seen[a.Key.Controller] = true
			ids = append(ids, a.Key.Controller)
		}
	}
	return ids
}

// Surface receives redraws. The views in a frame are copies the surface may keep.
// Redraw runs on the poll loop and must return promptly.
type Surface interface {
	Redraw(Frame)
}

// Discard is a Surface that ignores every redraw.
var Discard Surface = discard{}

type discard struct{}

func (discard) Redraw(Frame) {}
