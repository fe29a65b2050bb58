// Package qibla compares a compass heading with the qibla bearing.
//
// The bearing itself comes from the timings provider; this package only
// handles the wraparound arithmetic, the alignment policy and the stream of
// heading readings.
package qibla

import (
	"math"
	"strconv"
)

// Bearing is a compass angle in degrees clockwise from north. The zero value
// is "no fix yet".
type Bearing struct {
	deg   float64
	valid bool
}

// Degrees returns a valid bearing, normalized into [0, 360). NaN and
// infinities yield an unavailable bearing.
func Degrees(d float64) Bearing {
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return Bearing{}
	}
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return Bearing{deg: d, valid: true}
}

// Value returns the angle and whether it is available.
func (b Bearing) Value() (float64, bool) {
	return b.deg, b.valid
}

func (b Bearing) String() string {
	if !b.valid {
		return "--°"
	}
	return strconv.FormatFloat(math.Round(b.deg), 'f', 0, 64) + "°"
}

// AngularDifference returns the signed shortest rotation from current to
// target, in (-180, 180]. Positive means the target is clockwise, i.e. turn
// right. ok is false when either bearing is unavailable.
func AngularDifference(target, current Bearing) (diff float64, ok bool) {
	if !target.valid || !current.valid {
		return 0, false
	}
	diff = target.deg - current.deg
	for diff <= -180 {
		diff += 360
	}
	for diff > 180 {
		diff -= 360
	}
	return diff, true
}
