package sim

import (
	"math"
	"testing"
	"time"

	"github.com/FlyingRobots-Pequi/pidcal/internal/decode"
	"github.com/FlyingRobots-Pequi/pidcal/internal/link"
	"github.com/FlyingRobots-Pequi/pidcal/internal/message"
)

const dt = 20 * time.Millisecond

func run(v *Vehicle, d time.Duration) {
	for i := 0; i < int(d/dt); i++ {
		v.Step(dt)
	}
}

func TestVehicleReachesTarget(t *testing.T) {
	target := Target{Position: Vec3{2, -1, -3}, Yaw: 0.4}
	v := NewVehicle(DefaultGains(), func(float64) Target { return target })

	run(v, 30*time.Second)

	s := v.State()
	for i := 0; i < 3; i++ {
		if math.Abs(s.Position[i]-target.Position[i]) > 0.2 {
			t.Errorf("position[%d] = %.3f, want %.3f", i, s.Position[i], target.Position[i])
		}
	}
	if math.Abs(s.Attitude[2]-target.Yaw) > 0.05 {
		t.Errorf("yaw = %.3f, want %.3f", s.Attitude[2], target.Yaw)
	}
	if v.Elapsed() != 30*time.Second {
		t.Errorf("Elapsed() = %v", v.Elapsed())
	}
}

func TestVehicleMovesTowardSetpoint(t *testing.T) {
	target := Target{Position: Vec3{0, 0, -2}}
	v := NewVehicle(DefaultGains(), func(float64) Target { return target })

	before := math.Abs(v.State().Position[2] - target.Position[2])
	run(v, 2*time.Second)
	after := math.Abs(v.State().Position[2] - target.Position[2])

	if after >= before {
		t.Errorf("vertical error grew from %.3f to %.3f", before, after)
	}
	if sp := v.Setpoints(); sp.Velocity[2] >= 0 {
		t.Errorf("climb commanded with velocity setpoint %.3f (NED)", sp.Velocity[2])
	}
}

func TestVehicleRespectsLimits(t *testing.T) {
	far := Target{Position: Vec3{100, 100, -50}}
	v := NewVehicle(DefaultGains(), func(float64) Target { return far })

	for i := 0; i < 200; i++ {
		v.Step(dt)
		sp := v.Setpoints()
		if math.Abs(sp.Attitude[0]) > maxTilt || math.Abs(sp.Attitude[1]) > maxTilt {
			t.Fatalf("tilt setpoint %v exceeds %v", sp.Attitude, maxTilt)
		}
		if math.Abs(sp.Velocity[0]) > maxSpeedXY || math.Abs(sp.Velocity[2]) > maxSpeedZ {
			t.Fatalf("velocity setpoint %v exceeds limits", sp.Velocity)
		}
	}
}

func TestStepProfile(t *testing.T) {
	a := Target{Yaw: 1}
	b := Target{Yaw: 2}
	p := StepProfile(5, a, b)

	if p(0) != a || p(4.9) != a || p(5) != b || p(10.1) != a {
		t.Errorf("StepProfile alternation wrong: %v %v %v %v", p(0), p(4.9), p(5), p(10.1))
	}
}

func TestTelemetryDecodes(t *testing.T) {
	v := NewVehicle(DefaultGains(), nil)
	run(v, 10*time.Second)
	sp := v.Setpoints()

	msgs := v.Telemetry()
	if len(msgs) != 4 {
		t.Fatalf("Telemetry() returned %d messages", len(msgs))
	}

	at := msgs[0].(message.AttitudeTarget)
	e, err := decode.QuaternionToEuler(at.Q)
	if err != nil {
		t.Fatalf("attitude target quaternion: %v", err)
	}
	got := [3]float64{e.Roll, e.Pitch, e.Yaw}
	for i := range got {
		if math.Abs(got[i]-sp.Attitude[i]) > 1e-4 {
			t.Errorf("euler[%d] = %.5f, want %.5f", i, got[i], sp.Attitude[i])
		}
	}
}

func TestEncodeConvertsBack(t *testing.T) {
	v := NewVehicle(DefaultGains(), nil)
	run(v, time.Second)

	for _, m := range v.Telemetry() {
		out := Encode(m, 1000)
		if out == nil {
			t.Fatalf("Encode(%v) = nil", m.Kind())
		}
		back, ok := link.Convert(out, 1, 1)
		if !ok || back != m {
			t.Errorf("Convert(Encode(%v)) = %+v, want %+v", m.Kind(), back, m)
		}
	}

	if Encode(message.Heartbeat{}, 0) != nil {
		t.Error("Encode(Heartbeat) should be nil")
	}
}

func TestHeartbeatConverts(t *testing.T) {
	m, ok := link.Convert(Heartbeat(), 7, 1)
	hb, isHB := m.(message.Heartbeat)
	if !ok || !isHB || hb.System != 7 || hb.Autopilot != mavAutopilotPX4 || hb.Vehicle != mavTypeQuadrotor {
		t.Errorf("Convert(Heartbeat()) = %+v", m)
	}
}

func TestParams(t *testing.T) {
	params := DefaultGains().Params()
	if len(params) != 20 {
		t.Fatalf("Params() returned %d entries", len(params))
	}

	byID := make(map[string]link.ParamEntry)
	for _, p := range params {
		if p.TotalCount != len(params) {
			t.Errorf("%s TotalCount = %d", p.ID, p.TotalCount)
		}
		byID[p.ID] = p
	}
	if byID["MC_ROLLRATE_P"].Value != 20 || byID["MPC_XY_P"].Value != 0.5 {
		t.Errorf("unexpected gains: %+v %+v", byID["MC_ROLLRATE_P"], byID["MPC_XY_P"])
	}
	if _, ok := byID["MPC_Z_VEL_I_ACC"]; !ok {
		t.Error("missing MPC_Z_VEL_I_ACC")
	}

	encoded := ParamValues(params)
	for i, out := range encoded {
		m, ok := link.Convert(out, 1, 1)
		pv := m.(message.ParamValue)
		if !ok || pv.ID != params[i].ID || int(pv.Index) != i || int(pv.Count) != len(params) {
			t.Errorf("PARAM_VALUE %d = %+v", i, pv)
		}
	}
}
