// Package config loads tracker settings from oxy_tracker.cfg.json through viper.
package config

import (
	"fmt"
	"time"

	"github.com/Carmen-Shannon/oxy-tracker/engine/palette"
	"github.com/spf13/viper"
)

// FileName is the configuration file looked up in the config directory.
const FileName = "oxy_tracker.cfg.json"

// SceneConfig is the typed view of the configuration consumed by the tracker.
type SceneConfig struct {
	LogLevel string
	LogsDir  string

	Theme     palette.Theme
	Ramp      *palette.Ramp
	Workers   int
	TickRate  float64
	Profiling bool

	Banks           int
	InitialCapacity int

	CenterLat, CenterLon float64
	Scale                float64

	MaxInstances int
	SpeedFactor  float32

	FadeNear, FadeFar float32
	MaxLabels         int
	AtlasStaleFrames  int

	TrailMaxLength  int
	TrailMinSpacing float32
	TrailStaleAfter int

	TerrainZoom           int
	TerrainSubdivisions   int
	TerrainElevationScale float32
	TerrainCacheSize      int
	TerrainWorkers        int

	AirspaceClasses     []palette.AirspaceClass
	AirspaceCacheFile   string
	AirspaceCacheMaxAge time.Duration

	// HeatmapRadius is the half-width in world units of the density heatmap around
	// the projection center; 0 disables it.
	HeatmapRadius  float32
	HeatmapRefresh int
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./trackerlogs")

	viper.SetDefault("theme", "day")
	viper.SetDefault("workers", 0)
	viper.SetDefault("tickRate", 60)
	viper.SetDefault("profiling", false)

	viper.SetDefault("buffers.banks", 3)
	viper.SetDefault("buffers.initialCapacity", 64)

	viper.SetDefault("projection.centerLat", 47.6)
	viper.SetDefault("projection.centerLon", -122.3)
	viper.SetDefault("projection.scale", 500.0)

	viper.SetDefault("aircraft.maxInstances", 1024)
	viper.SetDefault("aircraft.speedFactor", 0.0)

	viper.SetDefault("labels.fadeNear", 150.0)
	viper.SetDefault("labels.fadeFar", 300.0)
	viper.SetDefault("labels.maxLabels", 1024)
	viper.SetDefault("labels.staleFrames", 180)

	viper.SetDefault("trail.maxLength", 500)
	viper.SetDefault("trail.minSpacing", 0.1)
	viper.SetDefault("trail.staleAfter", 3)

	viper.SetDefault("terrain.zoom", 10)
	viper.SetDefault("terrain.subdivisions", 32)
	viper.SetDefault("terrain.elevationScale", 0.003)
	viper.SetDefault("terrain.cacheSize", 250)
	viper.SetDefault("terrain.workers", 4)

	viper.SetDefault("airspace.classes", []string{"B", "C", "D"})
	viper.SetDefault("airspace.cacheFile", "")
	viper.SetDefault("airspace.cacheMaxAge", "24h")

	viper.SetDefault("heatmap.radius", 0.0)
	viper.SetDefault("heatmap.refreshFrames", 30)
}

// Load reads configuration from the JSON file and sets default values.
// Defaults are in place even when the file cannot be read.
//
// Parameters:
//   - configDir: the directory containing oxy_tracker.cfg.json
//
// Returns:
//   - error: if the file is missing or malformed
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// Scene returns the typed configuration.
//
// Returns:
//   - SceneConfig: the configuration
//   - error: if the theme name or ramp stops are invalid
func Scene() (SceneConfig, error) {
	setDefaults()

	theme, err := palette.ParseTheme(viper.GetString("theme"))
	if err != nil {
		return SceneConfig{}, fmt.Errorf("invalid theme: %w", err)
	}

	stops := palette.DefaultStops
	if viper.IsSet("ramp") {
		stops = nil
		if err := viper.UnmarshalKey("ramp", &stops); err != nil {
			return SceneConfig{}, fmt.Errorf("invalid ramp: %w", err)
		}
	}
	ramp, err := palette.NewRamp(stops)
	if err != nil {
		return SceneConfig{}, fmt.Errorf("invalid ramp: %w", err)
	}

	var classes []palette.AirspaceClass
	for _, name := range viper.GetStringSlice("airspace.classes") {
		if c := palette.ParseAirspaceClass(name); c != palette.ClassOther {
			classes = append(classes, c)
		}
	}

	return SceneConfig{
		LogLevel: viper.GetString("logLevel"),
		LogsDir:  viper.GetString("logsDir"),

		Theme:     theme,
		Ramp:      ramp,
		Workers:   viper.GetInt("workers"),
		TickRate:  viper.GetFloat64("tickRate"),
		Profiling: viper.GetBool("profiling"),

		Banks:           viper.GetInt("buffers.banks"),
		InitialCapacity: viper.GetInt("buffers.initialCapacity"),

		CenterLat: viper.GetFloat64("projection.centerLat"),
		CenterLon: viper.GetFloat64("projection.centerLon"),
		Scale:     viper.GetFloat64("projection.scale"),

		MaxInstances: viper.GetInt("aircraft.maxInstances"),
		SpeedFactor:  float32(viper.GetFloat64("aircraft.speedFactor")),

		FadeNear:         float32(viper.GetFloat64("labels.fadeNear")),
		FadeFar:          float32(viper.GetFloat64("labels.fadeFar")),
		MaxLabels:        viper.GetInt("labels.maxLabels"),
		AtlasStaleFrames: viper.GetInt("labels.staleFrames"),

		TrailMaxLength:  viper.GetInt("trail.maxLength"),
		TrailMinSpacing: float32(viper.GetFloat64("trail.minSpacing")),
		TrailStaleAfter: viper.GetInt("trail.staleAfter"),

		TerrainZoom:           viper.GetInt("terrain.zoom"),
		TerrainSubdivisions:   viper.GetInt("terrain.subdivisions"),
		TerrainElevationScale: float32(viper.GetFloat64("terrain.elevationScale")),
		TerrainCacheSize:      viper.GetInt("terrain.cacheSize"),
		TerrainWorkers:        viper.GetInt("terrain.workers"),

		AirspaceClasses:     classes,
		AirspaceCacheFile:   viper.GetString("airspace.cacheFile"),
		AirspaceCacheMaxAge: viper.GetDuration("airspace.cacheMaxAge"),

		HeatmapRadius:  float32(viper.GetFloat64("heatmap.radius")),
		HeatmapRefresh: viper.GetInt("heatmap.refreshFrames"),
	}, nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}
