package chart

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/FlyingRobots-Pequi/pidcal/internal/controller"
	"github.com/FlyingRobots-Pequi/pidcal/internal/series"
	"github.com/FlyingRobots-Pequi/pidcal/internal/telemetry"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []telemetry.Event
}

func (p *recordingPublisher) Publish(e telemetry.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func testView(n int) series.View {
	s, _ := series.NewAxisSeries(100)
	for i := 0; i < n; i++ {
		s.Append(float64(i)*0.05, float64(i), float64(i)*0.9)
	}
	return s.View()
}

var rateRoll = series.Key{Controller: controller.Rate, Axis: controller.Roll}

func TestRenderPNG(t *testing.T) {
	var buf bytes.Buffer
	err := RenderPNG(&buf, RenderOptions{Title: "Rate Controller - roll", Unit: "deg/s", Width: 600, Height: 300},
		testView(20), series.Range{Min: 0, Max: 10})
	if err != nil {
		t.Fatalf("RenderPNG() error: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte(PNGSignature)) {
		t.Errorf("output is not a PNG: % x", buf.Bytes()[:8])
	}
}

func TestRenderPNGFlatSignal(t *testing.T) {
	s, _ := series.NewAxisSeries(10)
	s.Append(0, 0, 0)
	s.Append(0.05, 0, 0)
	s.Append(0.1, 0, 0)

	var buf bytes.Buffer
	if err := RenderPNG(&buf, RenderOptions{Width: 300, Height: 150}, s.View(), series.Range{Min: 0, Max: 0.1}); err != nil {
		t.Fatalf("RenderPNG(flat) error: %v", err)
	}
}

func TestRenderPNGNotEnoughData(t *testing.T) {
	for _, n := range []int{0, 1} {
		var buf bytes.Buffer
		err := RenderPNG(&buf, RenderOptions{Width: 300, Height: 150}, testView(n), series.Range{Min: 0, Max: 10})
		if !errors.Is(err, ErrNotEnoughData) {
			t.Errorf("RenderPNG(%d samples) error = %v", n, err)
		}
	}
}

func TestRenderPNGDegenerateRangeFallsBackToData(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderPNG(&buf, RenderOptions{Width: 300, Height: 150}, testView(5), series.Range{}); err != nil {
		t.Fatalf("RenderPNG() error: %v", err)
	}
}

func TestFrameControllers(t *testing.T) {
	f := Frame{Axes: []AxisFrame{
		{Key: series.Key{Controller: controller.Rate, Axis: controller.Roll}},
		{Key: series.Key{Controller: controller.Rate, Axis: controller.Pitch}},
		{Key: series.Key{Controller: controller.Position, Axis: controller.Vertical}},
	}}
	got := f.Controllers()
	if len(got) != 2 || got[0] != controller.Rate || got[1] != controller.Position {
		t.Errorf("Controllers() = %v", got)
	}
}

func TestWebSurfaceRedraw(t *testing.T) {
	pub := &recordingPublisher{}
	s := NewWebSurface(pub, 600, 300)

	view := testView(3)
	s.Redraw(Frame{
		Now:   0.1,
		Range: series.Range{Min: 0, Max: 0.1},
		Axes:  []AxisFrame{{Key: rateRoll, View: view}},
	})

	got, ok := s.View(rateRoll)
	if !ok || got.Len() != 3 {
		t.Fatalf("View() = %+v, %v", got, ok)
	}
	if now, rng := s.Range(); now != 0.1 || rng.Max != 0.1 {
		t.Errorf("Range() = %v, %+v", now, rng)
	}

	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
	e := pub.events[0]
	if e.Type != telemetry.EventRedraw || e.Stream != "rate" {
		t.Errorf("event = %+v", e)
	}
	axes := e.Data["axes"].(map[string]interface{})
	last := axes["roll"].(series.Sample)
	if last.T != view.T[2] || last.Setpoint != 2 {
		t.Errorf("last sample = %+v", last)
	}
}

func TestWebSurfaceRender(t *testing.T) {
	s := NewWebSurface(nil, 400, 200)

	var buf bytes.Buffer
	if err := s.Render(&buf, rateRoll); !errors.Is(err, ErrNotEnoughData) {
		t.Errorf("Render() before any redraw error = %v", err)
	}

	s.Redraw(Frame{Now: 1, Range: series.Range{Min: 0, Max: 1}, Axes: []AxisFrame{{Key: rateRoll, View: testView(10)}}})
	buf.Reset()
	if err := s.Render(&buf, rateRoll); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte(PNGSignature)) {
		t.Error("Render() did not produce a PNG")
	}

	s.Reset()
	if _, ok := s.View(rateRoll); ok {
		t.Error("View() still present after Reset")
	}
}

func TestDiscard(t *testing.T) {
	Discard.Redraw(Frame{Axes: []AxisFrame{{Key: rateRoll}}})
}
