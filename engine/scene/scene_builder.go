package scene

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-tracker/engine/aircraft"
	"github.com/Carmen-Shannon/oxy-tracker/engine/airspace"
	"github.com/Carmen-Shannon/oxy-tracker/engine/buffer"
	"github.com/Carmen-Shannon/oxy-tracker/engine/geo"
	"github.com/Carmen-Shannon/oxy-tracker/engine/heatmap"
	"github.com/Carmen-Shannon/oxy-tracker/engine/label"
	"github.com/Carmen-Shannon/oxy-tracker/engine/palette"
	"github.com/Carmen-Shannon/oxy-tracker/engine/terrain"
	"github.com/Carmen-Shannon/oxy-tracker/engine/track"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithWorkers sets the number of worker goroutines that run the frame generators.
// Defaults to runtime.NumCPU()-1, at most 3 (one per generator).
//
// Parameters:
//   - n: the number of workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		s.workers = max(n, 1)
	}
}

// WithTheme sets the initial theme.
//
// Parameters:
//   - t: the theme
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithTheme(t palette.Theme) SceneBuilderOption {
	return func(s *scene) {
		s.theme = t
	}
}

// WithRamp sets the altitude color ramp shared by aircraft and trails.
//
// Parameters:
//   - r: the ramp; nil keeps the default
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithRamp(r *palette.Ramp) SceneBuilderOption {
	return func(s *scene) {
		if r != nil {
			s.ramp = r
		}
	}
}

// WithModelMatrix sets the scene root transform written to the frame uniforms.
func WithModelMatrix(m [16]float32) SceneBuilderOption {
	return func(s *scene) {
		s.model = m
	}
}

// WithBufferSet publishes frames into an existing buffer set.
func WithBufferSet(set *buffer.Set) SceneBuilderOption {
	return func(s *scene) {
		s.set = set
	}
}

// WithHistory uses an existing trail history store.
func WithHistory(h *track.History) SceneBuilderOption {
	return func(s *scene) {
		s.history = h
	}
}

// WithAtlas uses an existing label atlas.
func WithAtlas(a *label.Atlas) SceneBuilderOption {
	return func(s *scene) {
		s.atlas = a
	}
}

// WithAirspace uses an existing airspace layer.
func WithAirspace(l *airspace.Layer) SceneBuilderOption {
	return func(s *scene) {
		s.airspace = l
	}
}

// WithTerrain enables LoadTerrain.
//
// Parameters:
//   - cache: the tile mesh cache
//   - src: where missing tile heightmaps come from
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithTerrain(cache *terrain.Cache, src terrain.TileSource) SceneBuilderOption {
	return func(s *scene) {
		s.tiles = cache
		s.source = src
	}
}

// WithHeatmap enables the density heatmap over a ground rectangle.
//
// Parameters:
//   - ext: the world-space rectangle to cover
//   - refreshFrames: frames between texture uploads; values below 1 use heatmap.DefaultRefreshFrames
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithHeatmap(ext geo.Extent, refreshFrames int) SceneBuilderOption {
	return func(s *scene) {
		s.heat = heatmap.NewGrid()
		s.heat.SetExtent(ext)
		s.heatDirty = true
		if refreshFrames > 0 {
			s.heatRefresh = refreshFrames
		}
	}
}

// WithAnimatorOptions passes options to the aircraft light and rotor animator.
func WithAnimatorOptions(options ...aircraft.AnimatorOption) SceneBuilderOption {
	return func(s *scene) {
		s.animatorOpts = append(s.animatorOpts, options...)
	}
}

// WithAircraftOptions passes options to the aircraft generator, applied after the theme.
func WithAircraftOptions(options ...aircraft.GeneratorOption) SceneBuilderOption {
	return func(s *scene) {
		s.aircraftOpts = append(s.aircraftOpts, options...)
	}
}

// WithLabelOptions passes options to the label generator, applied after the theme.
func WithLabelOptions(options ...label.GeneratorOption) SceneBuilderOption {
	return func(s *scene) {
		s.labelOpts = append(s.labelOpts, options...)
	}
}

// WithLogger sets the scene logger. Components created by the scene share it.
func WithLogger(l *slog.Logger) SceneBuilderOption {
	return func(s *scene) {
		if l != nil {
			s.log = l
		}
	}
}
