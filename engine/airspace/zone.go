// Package airspace builds translucent prism volumes for controlled airspace zones.
package airspace

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-tracker/engine/palette"
)

var (
	// ErrNoFeatures is returned when a GeoJSON document holds no usable zone.
	ErrNoFeatures = errors.New("airspace: no usable features")
	// ErrBadZone is returned when a zone cannot be turned into a volume.
	ErrBadZone = errors.New("airspace: bad zone")
)

// Zone is one airspace volume: a polygon ring extruded between two altitudes.
type Zone struct {
	Name  string                `msgpack:"name"`
	Class palette.AirspaceClass `msgpack:"class"`
	// Ring is the exterior ring as lon/lat pairs, without the closing duplicate.
	Ring      [][2]float64 `msgpack:"ring"`
	FloorFt   float32      `msgpack:"floor"`
	CeilingFt float32      `msgpack:"ceiling"`
}

// Valid reports whether the zone has enough distinct points to form a polygon.
func (z Zone) Valid() bool {
	return len(z.Ring) >= 3
}

// ParseAltitude converts a raw altitude property to feet. Flight levels ("FL") are
// hundreds of feet. Unparseable values are 0.
//
// Parameters:
//   - value: a number, a numeric string, or nil
//   - unit: the unit of measure, e.g. "FT" or "FL"
//
// Returns:
//   - float32: altitude in feet
func ParseAltitude(value any, unit string) float32 {
	var v float64
	switch x := value.(type) {
	case float64:
		v = x
	case float32:
		v = float64(x)
	case int:
		v = float64(x)
	case int64:
		v = float64(x)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		v = parsed
	default:
		return 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if strings.EqualFold(strings.TrimSpace(unit), "FL") {
		v *= 100
	}
	return float32(v)
}

// ClassOrder is the draw order of a class: D first, then C, then B on top.
func ClassOrder(c palette.AirspaceClass) int {
	switch c {
	case palette.ClassD:
		return 1
	case palette.ClassC:
		return 2
	case palette.ClassB:
		return 3
	}
	return 0
}

// Bounds is a geographic query rectangle in degrees.
type Bounds struct {
	West, South, East, North float64
}

// refetchShift is the fraction of the view span the center must move before zones are refetched.
const refetchShift = 0.2

// NeedsRefetch reports whether zones loaded for last should be refreshed for b.
// Zones are refetched when the center moves more than a fifth of the span on either axis.
func (b Bounds) NeedsRefetch(last *Bounds) bool {
	if last == nil {
		return true
	}
	latShift := math.Abs((b.North+b.South)/2 - (last.North+last.South)/2)
	lonShift := math.Abs((b.East+b.West)/2 - (last.East+last.West)/2)
	return latShift >= (b.North-b.South)*refetchShift || lonShift >= (b.East-b.West)*refetchShift
}
