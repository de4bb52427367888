package palette

import (
	"fmt"
	"strings"
)

// Theme selects one of the visual color tables.
type Theme int

const (
	ThemeDay Theme = iota
	ThemeNight
	ThemeRetro
)

// AirspaceClass is the regulatory class of an airspace zone.
type AirspaceClass int

const (
	ClassOther AirspaceClass = iota
	ClassB
	ClassC
	ClassD
)

// ParseAirspaceClass maps "B", "C", "D" (any case, optional "CLASS " prefix) to a class.
// Anything else is ClassOther.
func ParseAirspaceClass(s string) AirspaceClass {
	s = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "CLASS ")
	switch s {
	case "B":
		return ClassB
	case "C":
		return ClassC
	case "D":
		return ClassD
	}
	return ClassOther
}

func (c AirspaceClass) String() string {
	switch c {
	case ClassB:
		return "B"
	case ClassC:
		return "C"
	case ClassD:
		return "D"
	}
	return "other"
}

// ThemeConfig is the color table consumed by the generators. It holds no GPU state.
type ThemeConfig struct {
	Name string
	// AircraftTint, when non-nil, replaces the altitude color of aircraft and glow sprites.
	AircraftTint *[4]float32
	// TrailTint, when non-nil, replaces the altitude color of trail vertices.
	TrailTint    *[4]float32
	AltLineColor [4]float32
	// AirspaceFill is the translucent fill color per class. Edge lines reuse the RGB with EdgeAlpha.
	AirspaceFill map[AirspaceClass][4]float32
	EdgeAlpha    float32
	// HeatmapLow and HeatmapHigh bound the density color ramp. Alpha ramps with them.
	HeatmapLow  [4]float32
	HeatmapHigh [4]float32
}

var retroGreen = [4]float32{0, 1, 0, 1}

var themes = map[Theme]ThemeConfig{
	ThemeDay: {
		Name:         "day",
		AltLineColor: [4]float32{0.5, 0.5, 0.5, 0.3},
		AirspaceFill: map[AirspaceClass][4]float32{
			ClassB:     {0.27, 0.40, 1.0, 0.06},
			ClassC:     {0.60, 0.27, 1.0, 0.06},
			ClassD:     {0.27, 0.67, 1.0, 0.06},
			ClassOther: {0.27, 0.53, 1.0, 0.06},
		},
		EdgeAlpha:   0.3,
		HeatmapLow:  [4]float32{0, 100.0 / 255, 1, 0.15},
		HeatmapHigh: [4]float32{0, 1, 1, 0.60},
	},
	ThemeNight: {
		Name:         "night",
		AltLineColor: [4]float32{0.5, 0.5, 0.5, 0.3},
		AirspaceFill: map[AirspaceClass][4]float32{
			ClassB:     {0.33, 0.47, 1.0, 0.08},
			ClassC:     {0.67, 0.33, 1.0, 0.08},
			ClassD:     {0.33, 0.73, 1.0, 0.08},
			ClassOther: {0.33, 0.60, 1.0, 0.08},
		},
		EdgeAlpha:   0.3,
		HeatmapLow:  [4]float32{0, 80.0 / 255, 180.0 / 255, 0.15},
		HeatmapHigh: [4]float32{0, 1, 1, 0.70},
	},
	ThemeRetro: {
		Name:         "retro",
		AircraftTint: &retroGreen,
		TrailTint:    &retroGreen,
		AltLineColor: [4]float32{0, 1, 0, 0.3},
		AirspaceFill: map[AirspaceClass][4]float32{
			ClassB:     {0, 1, 0, 0.03},
			ClassC:     {0, 1, 0, 0.03},
			ClassD:     {0, 1, 0, 0.03},
			ClassOther: {0, 1, 0, 0.03},
		},
		EdgeAlpha:   0.3,
		HeatmapLow:  [4]float32{0, 60.0 / 255, 0, 0.15},
		HeatmapHigh: [4]float32{0, 1, 0, 0.70},
	},
}

// Config returns the color table of a theme. Unknown themes fall back to ThemeDay.
func (t Theme) Config() ThemeConfig {
	if c, ok := themes[t]; ok {
		return c
	}
	return themes[ThemeDay]
}

func (t Theme) String() string {
	return t.Config().Name
}

// Next cycles day -> night -> retro -> day.
func (t Theme) Next() Theme {
	return (t + 1) % 3
}

// ParseTheme parses a theme name.
//
// Parameters:
//   - s: "day", "night", or "retro" (case-insensitive)
//
// Returns:
//   - Theme: the parsed theme
//   - error: if the name is not recognized
func ParseTheme(s string) (Theme, error) {
	switch strings.ToLower(s) {
	case "day", "":
		return ThemeDay, nil
	case "night":
		return ThemeNight, nil
	case "retro":
		return ThemeRetro, nil
	}
	return ThemeDay, fmt.Errorf("unknown theme %q", s)
}

// AirspaceFillColor returns the fill color for a class.
func (c ThemeConfig) AirspaceFillColor(class AirspaceClass) [4]float32 {
	if col, ok := c.AirspaceFill[class]; ok {
		return col
	}
	return c.AirspaceFill[ClassOther]
}

// AirspaceEdgeColor returns the outline color for a class.
func (c ThemeConfig) AirspaceEdgeColor(class AirspaceClass) [4]float32 {
	col := c.AirspaceFillColor(class)
	col[3] = c.EdgeAlpha
	return col
}
