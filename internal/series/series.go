// Package series implements the rolling buffers behind each chart.
//
// Retention is by sample count: once an axis holds MaxDataLength samples the oldest
// are dropped first. Display is by time: VisibleRange clips the chart's X axis to the
// last window seconds and never deletes data. With an irregular poll rate the retained
// samples may therefore cover more or less than one window.
package series

import (
	"errors"
	"math"

	"github.com/FlyingRobots-Pequi/pidcal/internal/controller"
)

// ErrInvalidCapacity is returned for a non-positive maximum length.
var ErrInvalidCapacity = errors.New("series capacity must be positive")

// Sample is one point of an axis: elapsed seconds since connect, setpoint and actual.
type Sample struct {
	T        float64 `json:"t"`
	Setpoint float64 `json:"setpoint"`
	Actual   float64 `json:"actual"`
}

// AxisSeries is a count-bounded FIFO of samples kept as three parallel arrays.
type AxisSeries struct {
	t        []float64
	setpoint []float64
	actual   []float64
	capacity int
}

// NewAxisSeries creates an empty series holding at most capacity samples.
func NewAxisSeries(capacity int) (*AxisSeries, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &AxisSeries{
		t:        make([]float64, 0, capacity),
		setpoint: make([]float64, 0, capacity),
		actual:   make([]float64, 0, capacity),
		capacity: capacity,
	}, nil
}

// Append adds a sample and evicts the oldest ones beyond capacity.
func (s *AxisSeries) Append(t, setpoint, actual float64) {
	s.t = append(s.t, t)
	s.setpoint = append(s.setpoint, setpoint)
	s.actual = append(s.actual, actual)

	if excess := len(s.t) - s.capacity; excess > 0 {
		s.t = compact(s.t, excess)
		s.setpoint = compact(s.setpoint, excess)
		s.actual = compact(s.actual, excess)
	}
}

// compact drops the first n values, reusing the backing array so it never grows past capacity+1.
func compact(xs []float64, n int) []float64 {
	copy(xs, xs[n:])
	return xs[:len(xs)-n]
}

// Len returns the number of retained samples.
func (s *AxisSeries) Len() int {
	return len(s.t)
}

// Capacity returns the maximum number of retained samples.
func (s *AxisSeries) Capacity() int {
	return s.capacity
}

// Last returns the most recent sample.
func (s *AxisSeries) Last() (Sample, bool) {
	n := len(s.t)
	if n == 0 {
		return Sample{}, false
	}
	return Sample{T: s.t[n-1], Setpoint: s.setpoint[n-1], Actual: s.actual[n-1]}, true
}

// View returns an immutable copy of the series.
func (s *AxisSeries) View() View {
	return View{
		T:        append([]float64(nil), s.t...),
		Setpoint: append([]float64(nil), s.setpoint...),
		Actual:   append([]float64(nil), s.actual...),
	}
}

// Reset drops every sample.
func (s *AxisSeries) Reset() {
	s.t = s.t[:0]
	s.setpoint = s.setpoint[:0]
	s.actual = s.actual[:0]
}

// View is a read-only snapshot of an axis handed to chart surfaces.
type View struct {
	T        []float64 `json:"t"`
	Setpoint []float64 `json:"setpoint"`
	Actual   []float64 `json:"actual"`
}

// Len returns the number of samples in the view.
func (v View) Len() int {
	return len(v.T)
}

// Samples returns the view as a slice of samples.
func (v View) Samples() []Sample {
	out := make([]Sample, len(v.T))
	for i := range v.T {
		out[i] = Sample{T: v.T[i], Setpoint: v.Setpoint[i], Actual: v.Actual[i]}
	}
	return out
}

// Range is a closed X-axis interval in seconds.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// VisibleRange returns [max(0, now-window), now].
func VisibleRange(now, window float64) Range {
	return Range{Min: math.Max(0, now-window), Max: now}
}

// Key addresses one axis of one controller.
type Key struct {
	Controller controller.ID
	Axis       controller.Axis
}

// Buffer holds one AxisSeries per controller axis.
type Buffer struct {
	axes map[Key]*AxisSeries
}

// NewBuffer creates series for every axis of the given controllers.
func NewBuffer(controllers []controller.Controller, capacity int) (*Buffer, error) {
	b := &Buffer{axes: make(map[Key]*AxisSeries)}
	for _, c := range controllers {
		for _, axis := range c.Axes {
			s, err := NewAxisSeries(capacity)
			if err != nil {
				return nil, err
			}
			b.axes[Key{Controller: c.ID, Axis: axis}] = s
		}
	}
	return b, nil
}

// Axis returns the series for a key.
func (b *Buffer) Axis(key Key) (*AxisSeries, bool) {
	s, ok := b.axes[key]
	return s, ok
}

// Append appends to the series for key. Unknown keys are ignored.
func (b *Buffer) Append(key Key, t, setpoint, actual float64) bool {
	s, ok := b.axes[key]
	if !ok {
		return false
	}
	s.Append(t, setpoint, actual)
	return true
}

// Total returns the number of samples across all axes.
func (b *Buffer) Total() int {
	n := 0
	for _, s := range b.axes {
		n += s.Len()
	}
	return n
}

// Reset empties every series.
func (b *Buffer) Reset() {
	for _, s := range b.axes {
		s.Reset()
	}
}
