package decode

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/FlyingRobots-Pequi/pidcal/internal/controller"
	"github.com/FlyingRobots-Pequi/pidcal/internal/message"
)

const eps = 1e-6

func near(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestQuaternionIdentity(t *testing.T) {
	e, err := QuaternionToEuler([4]float32{1, 0, 0, 0})
	if err != nil {
		t.Fatalf("QuaternionToEuler(identity) error: %v", err)
	}
	if e.Roll != 0 || e.Pitch != 0 || e.Yaw != 0 {
		t.Errorf("identity = %+v, want zeros", e)
	}
}

func TestQuaternionKnownRotations(t *testing.T) {
	h := float32(math.Sqrt(0.5))
	tests := []struct {
		name string
		q    [4]float32
		want Euler
	}{
		{"roll 90", [4]float32{h, h, 0, 0}, Euler{Roll: math.Pi / 2}},
		{"yaw 90", [4]float32{h, 0, 0, h}, Euler{Yaw: math.Pi / 2}},
		{"yaw 180", [4]float32{0, 0, 0, 1}, Euler{Yaw: math.Pi}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := QuaternionToEuler(tt.q)
			if err != nil {
				t.Fatalf("error: %v", err)
			}
			if math.Abs(e.Roll-tt.want.Roll) > 1e-5 ||
				math.Abs(e.Pitch-tt.want.Pitch) > 1e-5 ||
				math.Abs(e.Yaw-tt.want.Yaw) > 1e-5 {
				t.Errorf("got %+v, want %+v", e, tt.want)
			}
		})
	}
}

func TestQuaternionPitchClamp(t *testing.T) {
	// 2*(w*y) for this float32 input lands a hair above 1.
	h := float32(math.Sqrt(0.5)) + 1e-7
	e, err := QuaternionToEuler([4]float32{h, 0, h, 0})
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if math.IsNaN(e.Pitch) {
		t.Fatal("pitch is NaN at gimbal lock")
	}
	if !near(e.Pitch, math.Pi/2) {
		t.Errorf("pitch = %v, want pi/2", e.Pitch)
	}

	e, err = QuaternionToEuler([4]float32{h, 0, -h, 0})
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if !near(e.Pitch, -math.Pi/2) {
		t.Errorf("pitch = %v, want -pi/2", e.Pitch)
	}
}

func TestQuaternionUnitSweepNeverNaN(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10000; i++ {
		w, x, y, z := rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()
		n := math.Sqrt(w*w + x*x + y*y + z*z)
		q := [4]float32{float32(w / n), float32(x / n), float32(y / n), float32(z / n)}
		e, err := QuaternionToEuler(q)
		if err != nil {
			t.Fatalf("unit quaternion %v rejected: %v", q, err)
		}
		if math.IsNaN(e.Roll) || math.IsNaN(e.Pitch) || math.IsNaN(e.Yaw) {
			t.Fatalf("NaN angle for %v: %+v", q, e)
		}
	}
}

func TestQuaternionMalformed(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))
	for _, q := range [][4]float32{
		{0, 0, 0, 0},
		{nan, 0, 0, 0},
		{1, inf, 0, 0},
	} {
		if _, err := QuaternionToEuler(q); !errors.Is(err, ErrMalformedQuaternion) {
			t.Errorf("QuaternionToEuler(%v) error = %v, want ErrMalformedQuaternion", q, err)
		}
	}
}

func TestDecodeAttitudeTarget(t *testing.T) {
	readings, err := Decode(message.AttitudeTarget{
		Q:             [4]float32{1, 0, 0, 0},
		BodyRollRate:  0.5,
		BodyPitchRate: -0.25,
		BodyYawRate:   1,
	})
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if len(readings) != 2 {
		t.Fatalf("got %d readings, want 2", len(readings))
	}

	rate := readings[0]
	if rate.Controller != controller.Rate || rate.Role != controller.Setpoint {
		t.Fatalf("first reading = %s/%s", rate.Controller, rate.Role)
	}
	if !near(rate.Values[controller.Roll], 0.5*180/math.Pi) {
		t.Errorf("roll rate = %v", rate.Values[controller.Roll])
	}
	if !near(rate.Values[controller.Pitch], -0.25*180/math.Pi) {
		t.Errorf("pitch rate = %v", rate.Values[controller.Pitch])
	}
	if !near(rate.Values[controller.Yaw], 180/math.Pi) {
		t.Errorf("yaw rate = %v", rate.Values[controller.Yaw])
	}

	att := readings[1]
	if att.Controller != controller.Attitude || att.Role != controller.Setpoint {
		t.Fatalf("second reading = %s/%s", att.Controller, att.Role)
	}
	for _, axis := range []controller.Axis{controller.Roll, controller.Pitch, controller.Yaw} {
		if att.Values[axis] != 0 {
			t.Errorf("attitude %s = %v, want 0", axis, att.Values[axis])
		}
	}
}

func TestDecodeAttitudeTargetMalformedQuaternion(t *testing.T) {
	readings, err := Decode(message.AttitudeTarget{BodyRollRate: 1})
	if !errors.Is(err, ErrMalformedQuaternion) {
		t.Fatalf("error = %v, want ErrMalformedQuaternion", err)
	}
	if len(readings) != 1 || readings[0].Controller != controller.Rate {
		t.Fatalf("readings = %+v, want only the rate setpoint", readings)
	}
}

func TestDecodeAttitude(t *testing.T) {
	readings, err := Decode(message.Attitude{
		Roll: 0.1, Pitch: 0.2, Yaw: -0.3,
		RollSpeed: 1, PitchSpeed: 2, YawSpeed: 3,
	})
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if len(readings) != 2 {
		t.Fatalf("got %d readings, want 2", len(readings))
	}
	if readings[0].Controller != controller.Rate || readings[0].Role != controller.Actual {
		t.Errorf("first reading = %s/%s", readings[0].Controller, readings[0].Role)
	}
	if !near(readings[0].Values[controller.Yaw], 3*180/math.Pi) {
		t.Errorf("yaw speed = %v", readings[0].Values[controller.Yaw])
	}
	if readings[1].Controller != controller.Attitude || readings[1].Role != controller.Actual {
		t.Errorf("second reading = %s/%s", readings[1].Controller, readings[1].Role)
	}
	if !near(readings[1].Values[controller.Yaw], float64(float32(-0.3))*180/math.Pi) {
		t.Errorf("yaw = %v", readings[1].Values[controller.Yaw])
	}
}

func TestDecodePositionTarget(t *testing.T) {
	readings, err := Decode(message.PositionTarget{X: 6, Y: 8, Z: -10, VX: 3, VY: 4, VZ: -2})
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if len(readings) != 2 {
		t.Fatalf("got %d readings, want 2", len(readings))
	}

	vel, pos := readings[0], readings[1]
	if vel.Controller != controller.Velocity || vel.Role != controller.Setpoint {
		t.Fatalf("velocity reading = %s/%s", vel.Controller, vel.Role)
	}
	if vel.Values[controller.Horizontal] != 5.0 {
		t.Errorf("horizontal speed = %v, want 5", vel.Values[controller.Horizontal])
	}
	if vel.Values[controller.Vertical] != 2 {
		t.Errorf("vertical speed = %v, want 2", vel.Values[controller.Vertical])
	}
	if pos.Controller != controller.Position {
		t.Fatalf("position reading = %s", pos.Controller)
	}
	if pos.Values[controller.Horizontal] != 10 {
		t.Errorf("horizontal position = %v, want 10", pos.Values[controller.Horizontal])
	}
	if pos.Values[controller.Vertical] != 10 {
		t.Errorf("vertical position = %v, want 10", pos.Values[controller.Vertical])
	}
}

func TestDecodeLocalPosition(t *testing.T) {
	readings, err := Decode(message.LocalPosition{VX: 3, VY: 4, VZ: 1.5, Z: -2})
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if readings[0].Role != controller.Actual || readings[1].Role != controller.Actual {
		t.Fatal("local position must decode to actuals")
	}
	if readings[0].Values[controller.Horizontal] != 5 {
		t.Errorf("horizontal speed = %v, want 5", readings[0].Values[controller.Horizontal])
	}
	if readings[0].Values[controller.Vertical] != -1.5 {
		t.Errorf("vertical speed = %v, want -1.5", readings[0].Values[controller.Vertical])
	}
	if readings[1].Values[controller.Vertical] != 2 {
		t.Errorf("altitude = %v, want 2", readings[1].Values[controller.Vertical])
	}
}

func TestDecodeIgnoresOtherKinds(t *testing.T) {
	for _, msg := range []message.Message{
		message.Heartbeat{System: 1},
		message.ParamValue{ID: "MC_ROLLRATE_P"},
	} {
		readings, err := Decode(msg)
		if err != nil || readings != nil {
			t.Errorf("Decode(%s) = %v, %v; want nothing", msg.Kind(), readings, err)
		}
	}
}
