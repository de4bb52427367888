package palette

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-tracker/common"
)

// Stop is a single ramp breakpoint: the color reached at Altitude feet.
type Stop struct {
	Altitude float32    `mapstructure:"altitude"`
	Color    [4]float32 `mapstructure:"color"`
}

// Ramp maps altitude to color through fixed breakpoints with linear interpolation
// between neighbours and clamping at both ends. A Ramp is immutable after construction
// and safe for concurrent use.
type Ramp struct {
	stops []Stop
}

// DefaultStops is the altitude gradient used when no configuration overrides it:
// green at low level, through yellow and orange, to pink at cruise altitudes.
var DefaultStops = []Stop{
	{Altitude: 0, Color: [4]float32{0.2, 0.8, 0.2, 1}},
	{Altitude: 5000, Color: [4]float32{0.2, 0.8, 0.2, 1}},
	{Altitude: 15000, Color: [4]float32{1, 0.8, 0, 1}},
	{Altitude: 30000, Color: [4]float32{1, 0.5, 0, 1}},
	{Altitude: 45000, Color: [4]float32{1, 0.4, 0.3, 1}},
}

// NewRamp creates a Ramp from breakpoints. Stops are sorted by altitude.
//
// Parameters:
//   - stops: at least one breakpoint; altitudes must be distinct
//
// Returns:
//   - *Ramp: the ramp
//   - error: if stops is empty or two stops share an altitude
func NewRamp(stops []Stop) (*Ramp, error) {
	if len(stops) == 0 {
		return nil, fmt.Errorf("color ramp needs at least one stop")
	}
	s := slices.Clone(stops)
	slices.SortStableFunc(s, func(a, b Stop) int {
		switch {
		case a.Altitude < b.Altitude:
			return -1
		case a.Altitude > b.Altitude:
			return 1
		}
		return 0
	})
	for i := 1; i < len(s); i++ {
		if s[i].Altitude == s[i-1].Altitude {
			return nil, fmt.Errorf("color ramp has duplicate stop at %.0f ft", s[i].Altitude)
		}
	}
	return &Ramp{stops: s}, nil
}

// DefaultRamp returns a Ramp over DefaultStops.
func DefaultRamp() *Ramp {
	r, _ := NewRamp(DefaultStops)
	return r
}

// Color returns the color at an altitude. Altitudes below the first stop or above the
// last one return that boundary color.
//
// Parameters:
//   - altitude: altitude in feet
//
// Returns:
//   - [4]float32: RGBA color
func (r *Ramp) Color(altitude float32) [4]float32 {
	first, last := r.stops[0], r.stops[len(r.stops)-1]
	if altitude <= first.Altitude {
		return first.Color
	}
	if altitude >= last.Altitude {
		return last.Color
	}
	// first index whose altitude is > altitude; guaranteed in (0, len)
	i, _ := slices.BinarySearchFunc(r.stops, altitude, func(s Stop, a float32) int {
		if s.Altitude <= a {
			return -1
		}
		return 1
	})
	lo, hi := r.stops[i-1], r.stops[i]
	t := (altitude - lo.Altitude) / (hi.Altitude - lo.Altitude)
	return common.Lerp4(lo.Color, hi.Color, t)
}

// Range returns the altitude span covered by the ramp.
func (r *Ramp) Range() (lo, hi float32) {
	return r.stops[0].Altitude, r.stops[len(r.stops)-1].Altitude
}
