package sim

import (
	"github.com/bluenviron/gomavlib/v2/pkg/dialects/common"
	mavmsg "github.com/bluenviron/gomavlib/v2/pkg/message"

	"github.com/FlyingRobots-Pequi/pidcal/internal/link"
	"github.com/FlyingRobots-Pequi/pidcal/internal/message"
)

// MAVLink enum values the emulator reports.
const (
	mavTypeQuadrotor   = 2
	mavAutopilotPX4    = 12
	mavStateActive     = 4
	mavParamTypeReal32 = 9
)

// Heartbeat is the liveness message of the emulated autopilot.
func Heartbeat() *common.MessageHeartbeat {
	return &common.MessageHeartbeat{
		Type:           mavTypeQuadrotor,
		Autopilot:      mavAutopilotPX4,
		SystemStatus:   mavStateActive,
		MavlinkVersion: 3,
	}
}

// ParamValues encodes a parameter table as PARAM_VALUE replies.
func ParamValues(params []link.ParamEntry) []mavmsg.Message {
	out := make([]mavmsg.Message, len(params))
	for i, p := range params {
		out[i] = &common.MessageParamValue{
			ParamId:    p.ID,
			ParamValue: float32(p.Value),
			ParamType:  mavParamTypeReal32,
			ParamCount: uint16(len(params)),
			ParamIndex: uint16(i),
		}
	}
	return out
}

// Encode converts a telemetry message to its dialect form. It returns nil for
// messages the emulator does not send.
func Encode(m message.Message, bootMs uint32) mavmsg.Message {
	switch m := m.(type) {
	case message.AttitudeTarget:
		return &common.MessageAttitudeTarget{
			TimeBootMs:    bootMs,
			Q:             m.Q,
			BodyRollRate:  m.BodyRollRate,
			BodyPitchRate: m.BodyPitchRate,
			BodyYawRate:   m.BodyYawRate,
		}

	case message.Attitude:
		return &common.MessageAttitude{
			TimeBootMs: bootMs,
			Roll:       m.Roll,
			Pitch:      m.Pitch,
			Yaw:        m.Yaw,
			Rollspeed:  m.RollSpeed,
			Pitchspeed: m.PitchSpeed,
			Yawspeed:   m.YawSpeed,
		}

	case message.PositionTarget:
		return &common.MessagePositionTargetLocalNed{
			TimeBootMs: bootMs,
			X:          m.X,
			Y:          m.Y,
			Z:          m.Z,
			Vx:         m.VX,
			Vy:         m.VY,
			Vz:         m.VZ,
		}

	case message.LocalPosition:
		return &common.MessageLocalPositionNed{
			TimeBootMs: bootMs,
			X:          m.X,
			Y:          m.Y,
			Z:          m.Z,
			Vx:         m.VX,
			Vy:         m.VY,
			Vz:         m.VZ,
		}
	}
	return nil
}
