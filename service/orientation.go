package service

import (
	"math"

	"github.com/Go-routine-4595/myo-rest-bridge/model"
)

// EulerAngles converts a unit quaternion to roll, pitch and yaw in radians.
func EulerAngles(q model.Quaternion) (roll, pitch, yaw float64) {
	x, y, z, w := float64(q.X), float64(q.Y), float64(q.Z), float64(q.W)

	roll = math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))
	// float noise can push the argument just past ±1
	pitch = math.Asin(math.Max(-1, math.Min(1, 2*(w*y-z*x))))
	yaw = math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))
	return roll, pitch, yaw
}

// RollGauge maps an angle in [-π, π] onto [0, 18]. Only exactly π reaches 18.
// Yaw uses the same mapping.
func RollGauge(a float64) int {
	return int(math.Floor((a + math.Pi) / (2 * math.Pi) * model.GaugeScale))
}

// PitchGauge maps an angle in [-π/2, π/2] onto [0, 18].
func PitchGauge(a float64) int {
	return int(math.Floor((a + math.Pi/2) / math.Pi * model.GaugeScale))
}

// Gauges returns the roll, pitch and yaw gauge levels of q.
func Gauges(q model.Quaternion) (roll, pitch, yaw int) {
	r, p, y := EulerAngles(q)
	return RollGauge(r), PitchGauge(p), RollGauge(y)
}
