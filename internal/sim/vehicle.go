package sim

import (
	"math"
	"time"

	"go.einride.tech/pid"
	"gonum.org/v1/gonum/num/quat"

	"github.com/FlyingRobots-Pequi/pidcal/internal/message"
)

const gravity = 9.81

// Airframe limits.
const (
	maxTilt        = 0.35 // rad
	maxRate        = 3.0  // rad/s
	maxSpeedXY     = 3.0  // m/s
	maxSpeedZ      = 1.5  // m/s
	maxVerticalAcc = 4.0  // m/s^2
	drag           = 0.1  // 1/s
)

// Vec3 is an x, y, z triple. Linear quantities are local NED; angular ones are roll, pitch, yaw.
type Vec3 [3]float64

// State is the rigid body state.
type State struct {
	Attitude Vec3 // rad
	Rates    Vec3 // rad/s
	Position Vec3 // m, NED
	Velocity Vec3 // m/s, NED
}

// Target is what the outer loop is asked to hold.
type Target struct {
	Position Vec3
	Yaw      float64
}

// Setpoints are the references each loop produced on the last step.
type Setpoints struct {
	Position Vec3
	Velocity Vec3
	Attitude Vec3
	Rates    Vec3
}

// Profile returns the target at t seconds.
type Profile func(t float64) Target

// StepProfile alternates between two targets every period seconds.
func StepProfile(period float64, a, b Target) Profile {
	return func(t float64) Target {
		if int(t/period)%2 == 0 {
			return a
		}
		return b
	}
}

// DefaultProfile moves between two hover points a few metres apart with a yaw swing.
func DefaultProfile() Profile {
	return StepProfile(8,
		Target{Position: Vec3{0, 0, -2}, Yaw: 0},
		Target{Position: Vec3{3, 2, -3}, Yaw: 0.5},
	)
}

// Vehicle is the simulated airframe and its cascaded controllers.
type Vehicle struct {
	profile Profile
	elapsed time.Duration

	state     State
	setpoints Setpoints

	rate     [3]pid.Controller
	attitude [3]pid.Controller
	velocity [3]pid.Controller
	position [3]pid.Controller
}

// NewVehicle creates a vehicle at rest at the origin.
func NewVehicle(g Gains, profile Profile) *Vehicle {
	if profile == nil {
		profile = DefaultProfile()
	}
	v := &Vehicle{profile: profile}
	for i := 0; i < 3; i++ {
		v.rate[i].Config = g.Rate
		v.attitude[i].Config = g.Attitude
	}
	v.velocity[0].Config, v.velocity[1].Config, v.velocity[2].Config = g.VelocityXY, g.VelocityXY, g.VelocityZ
	v.position[0].Config, v.position[1].Config, v.position[2].Config = g.PositionXY, g.PositionXY, g.PositionZ
	return v
}

// Step advances the simulation by dt.
func (v *Vehicle) Step(dt time.Duration) {
	v.elapsed += dt
	h := dt.Seconds()
	target := v.profile(v.elapsed.Seconds())
	s := &v.state
	sp := &v.setpoints

	sp.Position = target.Position

	var acc Vec3
	for i := 0; i < 3; i++ {
		limit := maxSpeedXY
		if i == 2 {
			limit = maxSpeedZ
		}
		sp.Velocity[i] = clamp(update(&v.position[i], sp.Position[i], s.Position[i], dt), limit)
		acc[i] = update(&v.velocity[i], sp.Velocity[i], s.Velocity[i], dt)
	}

	// Horizontal acceleration comes from tilting; yaw is ignored when mapping it.
	sp.Attitude = Vec3{
		clamp(math.Atan(acc[1]/gravity), maxTilt),
		clamp(-math.Atan(acc[0]/gravity), maxTilt),
		target.Yaw,
	}

	var angAcc Vec3
	for i := 0; i < 3; i++ {
		sp.Rates[i] = clamp(update(&v.attitude[i], sp.Attitude[i], s.Attitude[i], dt), maxRate)
		angAcc[i] = update(&v.rate[i], sp.Rates[i], s.Rates[i], dt)
	}

	for i := 0; i < 3; i++ {
		s.Rates[i] += angAcc[i] * h
		s.Attitude[i] += s.Rates[i] * h
	}

	linAcc := Vec3{
		-gravity * math.Tan(s.Attitude[1]),
		gravity * math.Tan(s.Attitude[0]),
		clamp(acc[2], maxVerticalAcc),
	}
	for i := 0; i < 3; i++ {
		s.Velocity[i] += (linAcc[i] - drag*s.Velocity[i]) * h
		s.Position[i] += s.Velocity[i] * h
	}
}

func update(c *pid.Controller, ref, actual float64, dt time.Duration) float64 {
	c.Update(pid.ControllerInput{
		ReferenceSignal:  ref,
		ActualSignal:     actual,
		SamplingInterval: dt,
	})
	return c.State.ControlSignal
}

func clamp(x, limit float64) float64 {
	return math.Max(-limit, math.Min(limit, x))
}

// State returns the current body state.
func (v *Vehicle) State() State {
	return v.state
}

// Setpoints returns the references of the last step.
func (v *Vehicle) Setpoints() Setpoints {
	return v.setpoints
}

// Elapsed returns the simulated time.
func (v *Vehicle) Elapsed() time.Duration {
	return v.elapsed
}

// Telemetry returns the messages a flight controller would stream for the current step.
func (v *Vehicle) Telemetry() []message.Message {
	s, sp := v.state, v.setpoints
	return []message.Message{
		message.AttitudeTarget{
			Q:             eulerToQuaternion(sp.Attitude),
			BodyRollRate:  float32(sp.Rates[0]),
			BodyPitchRate: float32(sp.Rates[1]),
			BodyYawRate:   float32(sp.Rates[2]),
		},
		message.Attitude{
			Roll:       float32(s.Attitude[0]),
			Pitch:      float32(s.Attitude[1]),
			Yaw:        float32(s.Attitude[2]),
			RollSpeed:  float32(s.Rates[0]),
			PitchSpeed: float32(s.Rates[1]),
			YawSpeed:   float32(s.Rates[2]),
		},
		message.PositionTarget{
			X: float32(sp.Position[0]), Y: float32(sp.Position[1]), Z: float32(sp.Position[2]),
			VX: float32(sp.Velocity[0]), VY: float32(sp.Velocity[1]), VZ: float32(sp.Velocity[2]),
		},
		message.LocalPosition{
			X: float32(s.Position[0]), Y: float32(s.Position[1]), Z: float32(s.Position[2]),
			VX: float32(s.Velocity[0]), VY: float32(s.Velocity[1]), VZ: float32(s.Velocity[2]),
		},
	}
}

// eulerToQuaternion composes yaw, pitch and roll rotations (ZYX) into (w, x, y, z).
func eulerToQuaternion(e Vec3) [4]float32 {
	axis := func(angle float64, i, j, k float64) quat.Number {
		s := math.Sin(angle / 2)
		return quat.Number{Real: math.Cos(angle / 2), Imag: i * s, Jmag: j * s, Kmag: k * s}
	}
	q := quat.Mul(quat.Mul(axis(e[2], 0, 0, 1), axis(e[1], 0, 1, 0)), axis(e[0], 1, 0, 0))
	return [4]float32{float32(q.Real), float32(q.Imag), float32(q.Jmag), float32(q.Kmag)}
}
