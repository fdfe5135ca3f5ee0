// Package message defines the closed set of telemetry messages the calibrator understands.
//
// Each variant carries exactly the fields the decoder needs. The link layer converts
// library frames into these values; anything it does not recognise never gets this far.
package message

// Kind identifies a message variant.
type Kind int

const (
	KindHeartbeat Kind = iota + 1
	KindParamValue
	KindAttitudeTarget
	KindAttitude
	KindPositionTarget
	KindLocalPosition
)

var kindNames = map[Kind]string{
	KindHeartbeat:      "HEARTBEAT",
	KindParamValue:     "PARAM_VALUE",
	KindAttitudeTarget: "ATTITUDE_TARGET",
	KindAttitude:       "ATTITUDE",
	KindPositionTarget: "POSITION_TARGET_LOCAL_NED",
	KindLocalPosition:  "LOCAL_POSITION_NED",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

// Message is implemented by every variant.
type Message interface {
	Kind() Kind
}

// Heartbeat is the periodic liveness message of a MAVLink component.
type Heartbeat struct {
	System    uint8
	Component uint8
	Autopilot uint8
	Vehicle   uint8
}

// ParamValue is one reply of the parameter enumeration.
type ParamValue struct {
	ID    string
	Value float32
	Count uint16
	Index uint16
}

// AttitudeTarget carries the commanded attitude quaternion (w, x, y, z) and body rates in rad/s.
type AttitudeTarget struct {
	Q             [4]float32
	BodyRollRate  float32
	BodyPitchRate float32
	BodyYawRate   float32
}

// Attitude carries the measured Euler angles in rad and angular speeds in rad/s.
type Attitude struct {
	Roll       float32
	Pitch      float32
	Yaw        float32
	RollSpeed  float32
	PitchSpeed float32
	YawSpeed   float32
}

// PositionTarget carries the commanded local NED position (m) and velocity (m/s).
type PositionTarget struct {
	X, Y, Z    float32
	VX, VY, VZ float32
}

// LocalPosition carries the estimated local NED position (m) and velocity (m/s).
type LocalPosition struct {
	X, Y, Z    float32
	VX, VY, VZ float32
}

func (Heartbeat) Kind() Kind      { return KindHeartbeat }
func (ParamValue) Kind() Kind     { return KindParamValue }
func (AttitudeTarget) Kind() Kind { return KindAttitudeTarget }
func (Attitude) Kind() Kind       { return KindAttitude }
func (PositionTarget) Kind() Kind { return KindPositionTarget }
func (LocalPosition) Kind() Kind  { return KindLocalPosition }
