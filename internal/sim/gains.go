package sim

import (
	"go.einride.tech/pid"

	"github.com/FlyingRobots-Pequi/pidcal/internal/link"
)

// Gains holds the loop tunings. Roll, pitch and yaw share one rate and one attitude tuning.
type Gains struct {
	Rate       pid.ControllerConfig
	Attitude   pid.ControllerConfig
	VelocityXY pid.ControllerConfig
	VelocityZ  pid.ControllerConfig
	PositionXY pid.ControllerConfig
	PositionZ  pid.ControllerConfig
}

// DefaultGains returns a stable tuning for the toy airframe.
func DefaultGains() Gains {
	return Gains{
		Rate:       pid.ControllerConfig{ProportionalGain: 20, IntegralGain: 1, DerivativeGain: 0.005},
		Attitude:   pid.ControllerConfig{ProportionalGain: 6},
		VelocityXY: pid.ControllerConfig{ProportionalGain: 1.2, IntegralGain: 0.1},
		VelocityZ:  pid.ControllerConfig{ProportionalGain: 1.2, IntegralGain: 0.1},
		PositionXY: pid.ControllerConfig{ProportionalGain: 0.5},
		PositionZ:  pid.ControllerConfig{ProportionalGain: 0.5},
	}
}

// Params returns the gains as a PX4 style parameter table.
func (g Gains) Params() []link.ParamEntry {
	var out []link.ParamEntry
	add := func(id string, v float64) {
		out = append(out, link.ParamEntry{ID: id, Value: float64(float32(v))})
	}
	pidParams := func(prefix, suffix string, c pid.ControllerConfig) {
		add(prefix+"P"+suffix, c.ProportionalGain)
		add(prefix+"I"+suffix, c.IntegralGain)
		add(prefix+"D"+suffix, c.DerivativeGain)
	}

	for _, axis := range []string{"ROLL", "PITCH", "YAW"} {
		pidParams("MC_"+axis+"RATE_", "", g.Rate)
	}
	for _, axis := range []string{"ROLL", "PITCH", "YAW"} {
		add("MC_"+axis+"_P", g.Attitude.ProportionalGain)
	}
	pidParams("MPC_XY_VEL_", "_ACC", g.VelocityXY)
	pidParams("MPC_Z_VEL_", "_ACC", g.VelocityZ)
	add("MPC_XY_P", g.PositionXY.ProportionalGain)
	add("MPC_Z_P", g.PositionZ.ProportionalGain)

	for i := range out {
		out[i].TotalCount = len(out)
	}
	return out
}
