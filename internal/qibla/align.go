package qibla

import "math"

// Alignment is the verdict for a heading difference.
type Alignment int

const (
	Unknown Alignment = iota
	Off
	Close
	Aligned
)

func (a Alignment) String() string {
	switch a {
	case Off:
		return "off"
	case Close:
		return "close"
	case Aligned:
		return "aligned"
	default:
		return "unknown"
	}
}

// Tolerance is the band, in degrees, within which a heading counts as
// aligned or close.
type Tolerance struct {
	Aligned float64
	Close   float64
}

// DefaultTolerance matches the compass screen: within 5° is aligned, under
// 10° starts the "almost there" feedback.
var DefaultTolerance = Tolerance{Aligned: 5, Close: 10}

// Classify turns a difference into a verdict. ok=false yields Unknown.
func (t Tolerance) Classify(diff float64, ok bool) Alignment {
	if !ok {
		return Unknown
	}
	abs := math.Abs(diff)
	switch {
	case abs <= t.Aligned:
		return Aligned
	case abs < t.Close:
		return Close
	default:
		return Off
	}
}

// Direction is the instruction for closing the gap.
func Direction(diff float64, ok bool) string {
	switch {
	case !ok || diff == 0:
		return ""
	case diff > 0:
		return "turn right"
	default:
		return "turn left"
	}
}
