package chart

import (
	"io"
	"sync"

	"github.com/FlyingRobots-Pequi/pidcal/internal/controller"
	"github.com/FlyingRobots-Pequi/pidcal/internal/series"
	"github.com/FlyingRobots-Pequi/pidcal/internal/telemetry"
)

// Publisher accepts events for browser clients.
type Publisher interface {
	Publish(telemetry.Event) error
}

// WebSurface keeps the latest view of every axis for the HTTP surface.
type WebSurface struct {
	pub    Publisher
	width  int
	height int

	mu    sync.RWMutex
	views map[series.Key]series.View
	now   float64
	rng   series.Range
}

// NewWebSurface creates a surface rendering width x height charts. pub may be nil.
func NewWebSurface(pub Publisher, width, height int) *WebSurface {
	return &WebSurface{
		pub:    pub,
		width:  width,
		height: height,
		views:  make(map[series.Key]series.View),
	}
}

// Redraw implements Surface. It stores the frame and publishes one redraw event per
// controller carrying the newest sample of each redrawn axis.
func (s *WebSurface) Redraw(f Frame) {
	s.mu.Lock()
	for _, a := range f.Axes {
		s.views[a.Key] = a.View
	}
	s.now = f.Now
	s.rng = f.Range
	s.mu.Unlock()

	if s.pub == nil {
		return
	}

	for _, id := range f.Controllers() {
		axes := make(map[string]interface{})
		for _, a := range f.Axes {
			if a.Key.Controller != id || a.View.Len() == 0 {
				continue
			}
			last := a.View.Len() - 1
			axes[string(a.Key.Axis)] = series.Sample{
				T:        a.View.T[last],
				Setpoint: a.View.Setpoint[last],
				Actual:   a.View.Actual[last],
			}
		}
		s.pub.Publish(telemetry.Event{
			Type:   telemetry.EventRedraw,
			Stream: string(id),
			Data: map[string]interface{}{
				"controller": id,
				"now":        f.Now,
				"range":      f.Range,
				"axes":       axes,
			},
		})
	}
}

// Reset forgets every stored view.
func (s *WebSurface) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views = make(map[series.Key]series.View)
	s.now = 0
	s.rng = series.Range{}
}

// View returns the stored view of one axis.
func (s *WebSurface) View(key series.Key) (series.View, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.views[key]
	return v, ok
}

// Range returns the elapsed time and visible range of the latest redraw.
func (s *WebSurface) Range() (now float64, rng series.Range) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now, s.rng
}

// Render writes the PNG chart of one axis. Axes never redrawn report ErrNotEnoughData.
func (s *WebSurface) Render(w io.Writer, key series.Key) error {
	c, ok := controller.Lookup(key.Controller)
	if !ok {
		return ErrNotEnoughData
	}

	s.mu.RLock()
	view := s.views[key]
	rng := s.rng
	s.mu.RUnlock()

	return RenderPNG(w, RenderOptions{
		Title:  c.Title + " - " + string(key.Axis),
		Unit:   c.Unit,
		Width:  s.width,
		Height: s.height,
	}, view, rng)
}
