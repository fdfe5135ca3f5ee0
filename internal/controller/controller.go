// Package controller describes the cascaded control loops the calibrator charts
// and latches the most recent setpoint and actual of each.
package controller

// ID identifies a control loop.
type ID string

const (
	Rate     ID = "rate"
	Attitude ID = "attitude"
	Velocity ID = "velocity"
	Position ID = "position"
)

// Axis names one scalar channel within a controller.
type Axis string

const (
	Roll       Axis = "roll"
	Pitch      Axis = "pitch"
	Yaw        Axis = "yaw"
	Horizontal Axis = "horizontal"
	Vertical   Axis = "vertical"
)

// Controller is a named group of axes. It is a label only.
type Controller struct {
	ID    ID     `json:"id"`
	Title string `json:"title"`
	Unit  string `json:"unit"`
	Axes  []Axis `json:"axes"`
}

var catalogue = []Controller{
	{ID: Rate, Title: "Rate Controller", Unit: "deg/s", Axes: []Axis{Roll, Pitch, Yaw}},
	{ID: Attitude, Title: "Attitude Controller", Unit: "deg", Axes: []Axis{Roll, Pitch, Yaw}},
	{ID: Velocity, Title: "Velocity Controller", Unit: "m/s", Axes: []Axis{Horizontal, Vertical}},
	{ID: Position, Title: "Position Controller", Unit: "m", Axes: []Axis{Horizontal, Vertical}},
}

// All returns the controllers in display order. The slice is a copy.
func All() []Controller {
	out := make([]Controller, len(catalogue))
	for i, c := range catalogue {
		c.Axes = append([]Axis(nil), c.Axes...)
		out[i] = c
	}
	return out
}

// Lookup returns the controller with the given id.
func Lookup(id ID) (Controller, bool) {
	for _, c := range catalogue {
		if c.ID == id {
			c.Axes = append([]Axis(nil), c.Axes...)
			return c, true
		}
	}
	return Controller{}, false
}

// HasAxis reports whether the controller has the axis.
func (c Controller) HasAxis(axis Axis) bool {
	for _, a := range c.Axes {
		if a == axis {
			return true
		}
	}
	return false
}
