// Package decode turns telemetry messages into per-controller setpoint and actual readings.
//
//   - ATTITUDE_TARGET: rate setpoint from body rates, attitude setpoint from the quaternion
//   - ATTITUDE: rate and attitude actuals
//   - POSITION_TARGET_LOCAL_NED: velocity and position setpoints
//   - LOCAL_POSITION_NED: velocity and position actuals
//
// Angles and angular rates are reported in degrees. Vertical channels flip NED "down" to "up".
package decode

import (
	"math"

	"github.com/FlyingRobots-Pequi/pidcal/internal/controller"
	"github.com/FlyingRobots-Pequi/pidcal/internal/message"
)

// Decode maps one message to zero or more readings.
//
// A malformed attitude target quaternion still yields the rate setpoint; the error is
// returned alongside so the caller may log it, and the attitude setpoint is left untouched.
// Messages the decoder has no rule for produce no readings and no error.
func Decode(msg message.Message) ([]controller.Reading, error) {
	switch m := msg.(type) {
	case message.AttitudeTarget:
		return decodeAttitudeTarget(m)

	case message.Attitude:
		return []controller.Reading{
			{
				Controller: controller.Rate,
				Role:       controller.Actual,
				Values:     rollPitchYaw(m.RollSpeed, m.PitchSpeed, m.YawSpeed),
			},
			{
				Controller: controller.Attitude,
				Role:       controller.Actual,
				Values:     rollPitchYaw(m.Roll, m.Pitch, m.Yaw),
			},
		}, nil

	case message.PositionTarget:
		return ned(controller.Setpoint, m.X, m.Y, m.Z, m.VX, m.VY, m.VZ), nil

	case message.LocalPosition:
		return ned(controller.Actual, m.X, m.Y, m.Z, m.VX, m.VY, m.VZ), nil
	}

	return nil, nil
}

func decodeAttitudeTarget(m message.AttitudeTarget) ([]controller.Reading, error) {
	readings := []controller.Reading{{
		Controller: controller.Rate,
		Role:       controller.Setpoint,
		Values:     rollPitchYaw(m.BodyRollRate, m.BodyPitchRate, m.BodyYawRate),
	}}

	e, err := QuaternionToEuler(m.Q)
	if err != nil {
		return readings, err
	}

	return append(readings, controller.Reading{
		Controller: controller.Attitude,
		Role:       controller.Setpoint,
		Values: controller.Values{
			controller.Roll:  Degrees(e.Roll),
			controller.Pitch: Degrees(e.Pitch),
			controller.Yaw:   Degrees(e.Yaw),
		},
	}), nil
}

func rollPitchYaw(roll, pitch, yaw float32) controller.Values {
	return controller.Values{
		controller.Roll:  Degrees(float64(roll)),
		controller.Pitch: Degrees(float64(pitch)),
		controller.Yaw:   Degrees(float64(yaw)),
	}
}

// ned splits a local NED sample into velocity and position readings.
func ned(role controller.Role, x, y, z, vx, vy, vz float32) []controller.Reading {
	return []controller.Reading{
		{
			Controller: controller.Velocity,
			Role:       role,
			Values: controller.Values{
				controller.Horizontal: math.Hypot(float64(vx), float64(vy)),
				controller.Vertical:   -float64(vz),
			},
		},
		{
			Controller: controller.Position,
			Role:       role,
			Values: controller.Values{
				controller.Horizontal: math.Hypot(float64(x), float64(y)),
				controller.Vertical:   -float64(z),
			},
		},
	}
}
