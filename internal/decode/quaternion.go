package decode

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// ErrMalformedQuaternion is returned for quaternions with NaN/Inf components or zero norm.
var ErrMalformedQuaternion = errors.New("malformed quaternion")

// Euler holds roll, pitch and yaw in radians.
type Euler struct {
	Roll  float64
	Pitch float64
	Yaw   float64
}

// QuaternionToEuler converts q = (w, x, y, z) to Euler angles in radians.
// The asin argument for pitch is clamped to [-1, 1] so rounding on near-gimbal-lock
// inputs yields ±pi/2 rather than NaN.
func QuaternionToEuler(q [4]float32) (Euler, error) {
	n := quat.Number{
		Real: float64(q[0]),
		Imag: float64(q[1]),
		Jmag: float64(q[2]),
		Kmag: float64(q[3]),
	}
	if quat.IsNaN(n) || quat.IsInf(n) || quat.Abs(n) == 0 {
		return Euler{}, ErrMalformedQuaternion
	}

	w, x, y, z := n.Real, n.Imag, n.Jmag, n.Kmag

	t0 := 2.0 * (w*x + y*z)
	t1 := 1.0 - 2.0*(x*x+y*y)
	roll := math.Atan2(t0, t1)

	t2 := 2.0 * (w*y - z*x)
	t2 = math.Max(-1.0, math.Min(1.0, t2))
	pitch := math.Asin(t2)

	t3 := 2.0 * (w*z + x*y)
	t4 := 1.0 - 2.0*(y*y+z*z)
	yaw := math.Atan2(t3, t4)

	return Euler{Roll: roll, Pitch: pitch, Yaw: yaw}, nil
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
