package track

import (
	"strings"
	"unicode"
)

// Descriptor carries the raw identification fields a classifier needs.
type Descriptor struct {
	DBFlags  int    // bit 0 = military registry entry
	Emitter  string // ADS-B emitter category, e.g. "A3"
	TypeCode string // ICAO type designator, e.g. "B738"
	Callsign string
	Altitude float32 // feet
	Speed    float32 // knots
}

var (
	emitterCategories = map[string]Category{
		"A1": CategorySmall,
		"A2": CategorySmall,
		"A3": CategoryRegional,
		"A4": CategoryJet,
		"A5": CategoryWidebody,
		"A6": CategoryWidebody,
		"A7": CategoryHelicopter,
		"B1": CategorySmall,
		"B2": CategorySmall,
	}

	heliTypes     = []string{"R22", "R44", "R66", "B06", "B47", "EC35", "EC45", "AS50", "S76", "B412", "A109", "B429", "H60", "UH1"}
	wideTypes     = []string{"B74", "B77", "B78", "A33", "A34", "A35", "A38", "B76", "MD11"}
	milTypes      = []string{"F16", "F15", "F18", "F22", "F35", "C17", "C130", "C5", "KC", "B1", "B2", "B52", "E3", "E6", "P8", "V22"}
	heliCallsigns = []string{"LIFE", "MED", "HELI", "COAST", "RESCUE"}
	milCallsigns  = []string{"RCH", "REACH", "DUKE", "EVAC", "SPAR", "EXEC", "FORCE", "NAVY", "ARMY", "TOPCAT", "HAWK"}
	wideCallsigns = []string{"UAE", "QTR", "SIA", "CPA", "BAW", "DLH", "AFR", "KLM", "ANA", "JAL"}
)

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// Classify picks a Category from, in priority order: the military registry flag,
// the emitter category, the type designator, and finally callsign and flight-profile
// heuristics. Unclassifiable aircraft are jets.
//
// Parameters:
//   - d: identification fields of the aircraft
//
// Returns:
//   - Category: the rendering category
func Classify(d Descriptor) Category {
	if d.DBFlags&1 != 0 {
		return CategoryMilitary
	}
	if c, ok := emitterCategories[strings.ToUpper(d.Emitter)]; ok {
		return c
	}

	if t := strings.ToUpper(d.TypeCode); t != "" {
		switch {
		case hasAnyPrefix(t, heliTypes):
			return CategoryHelicopter
		case hasAnyPrefix(t, wideTypes):
			return CategoryWidebody
		case hasAnyPrefix(t, milTypes):
			return CategoryMilitary
		}
	}

	cs := strings.ToUpper(strings.TrimSpace(d.Callsign))
	if d.Altitude < 3000 && d.Speed < 150 {
		if hasAnyPrefix(cs, heliCallsigns) {
			return CategoryHelicopter
		}
		// N-number at low altitude and speed
		if len(cs) > 1 && cs[0] == 'N' && unicode.IsDigit(rune(cs[1])) {
			return CategoryHelicopter
		}
	}
	if hasAnyPrefix(cs, milCallsigns) {
		return CategoryMilitary
	}
	if d.Altitude < 10000 && d.Speed < 200 && (cs == "" || cs[0] == 'N') {
		return CategorySmall
	}
	if d.Altitude < 30000 && d.Speed < 400 {
		return CategoryRegional
	}
	if hasAnyPrefix(cs, wideCallsigns) {
		return CategoryWidebody
	}
	return CategoryJet
}
