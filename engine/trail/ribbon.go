package trail

import (
	"cmp"
	"slices"

	"github.com/Carmen-Shannon/oxy-tracker/engine/buffer"
	"github.com/Carmen-Shannon/oxy-tracker/engine/layout"
	"github.com/Carmen-Shannon/oxy-tracker/engine/palette"
	"github.com/Carmen-Shannon/oxy-tracker/engine/track"
)

const (
	minAlpha = 0.3
	// bridgeVertices separate consecutive trails in the shared triangle strip.
	bridgeVertices = 2
)

// AgeAlpha returns the opacity of sample i of an n-sample path: 0.3 for the oldest,
// 1 for the newest, linear in between. A single sample is fully opaque.
func AgeAlpha(i, n int) float32 {
	if n <= 1 {
		return 1
	}
	return minAlpha + (1-minAlpha)*float32(i)/float32(n-1)
}

// Colorizer picks the color of a trail sample.
type Colorizer struct {
	Ramp *palette.Ramp
	// Tint, when non-nil, replaces the ramp RGB.
	Tint *[4]float32
}

func (c Colorizer) color(s track.Sample, i, n int) [4]float32 {
	var col [4]float32
	if c.Tint != nil {
		col = *c.Tint
	} else {
		col = c.Ramp.Color(s.Altitude)
	}
	col[3] = AgeAlpha(i, n)
	return col
}

// WriteRibbon fills dst with the ribbon of path: two vertices per sample (direction
// +1 then -1) sharing position, color and the neighbor positions. The first sample's
// previous position and the last sample's next position are the sample itself.
//
// Parameters:
//   - dst: destination, must hold at least 2*len(path) records
//   - path: samples ordered oldest to newest
//   - c: color policy
//
// Returns:
//   - int: the number of vertices written (2*len(path))
func WriteRibbon(dst []layout.TrailVertex, path []track.Sample, c Colorizer) int {
	n := len(path)
	for i, s := range path {
		prev := path[max(i-1, 0)].Position
		next := path[min(i+1, n-1)].Position
		col := c.color(s, i, n)
		dst[2*i] = layout.TrailVertex{
			Position:     s.Position,
			Direction:    1,
			Color:        col,
			PrevPosition: prev,
			NextPosition: next,
		}
		dst[2*i+1] = dst[2*i]
		dst[2*i+1].Direction = -1
	}
	return 2 * n
}

// Result describes what Generate wrote. Trails is reused by the next Generate.
type Result struct {
	// Trails holds one range per entity trail, excluding bridge vertices, named by entity ID.
	Trails   []buffer.Range
	Vertices int
}

// Generator concatenates the ribbons of every entity into one vertex array.
// Generate must not be called concurrently with itself.
type Generator struct {
	colorizer Colorizer
	order     []int
	trails    []buffer.Range
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithRamp sets the altitude color ramp.
func WithRamp(r *palette.Ramp) GeneratorOption {
	return func(g *Generator) {
		if r != nil {
			g.colorizer.Ramp = r
		}
	}
}

// WithTint overrides the ramp color. Nil restores the ramp.
func WithTint(tint *[4]float32) GeneratorOption {
	return func(g *Generator) { g.colorizer.Tint = tint }
}

// NewGenerator creates a trail Generator.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - *Generator: the generator
func NewGenerator(options ...GeneratorOption) *Generator {
	g := &Generator{colorizer: Colorizer{Ramp: palette.DefaultRamp()}}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// Configure applies options to an existing generator. Not safe to call while Generate runs.
func (g *Generator) Configure(options ...GeneratorOption) {
	for _, opt := range options {
		opt(g)
	}
}

// Generate rewrites out with the ribbons of every valid entity that has a path,
// ordered by entity ID. Consecutive trails are joined by two degenerate vertices
// (the previous trail's last vertex and the next trail's first vertex, repeated)
// so a single triangle strip never spans two trails, and every trail starts on an
// even vertex index.
//
// Parameters:
//   - snap: the frame snapshot; entity paths are read from Entity.Path
//   - out: destination array
//
// Returns:
//   - Result: per-trail ranges and the vertex count
func (g *Generator) Generate(snap track.Snapshot, out *buffer.Array[layout.TrailVertex]) Result {
	g.order = g.order[:0]
	total := 0
	for i := range snap.Len() {
		e := snap.At(i)
		if !e.Valid() || len(e.Path) == 0 {
			continue
		}
		if len(g.order) > 0 {
			total += bridgeVertices
		}
		total += 2 * len(e.Path)
		g.order = append(g.order, i)
	}
	slices.SortFunc(g.order, func(a, b int) int {
		return cmp.Compare(snap.At(a).ID, snap.At(b).ID)
	})

	out.Reset()
	dst := out.Resize(total)
	res := Result{Trails: g.trails[:0], Vertices: total}
	at := 0
	for k, idx := range g.order {
		e := snap.At(idx)
		if k > 0 {
			// the second bridge vertex is filled once this trail's first vertex exists
			dst[at] = dst[at-1]
			at += bridgeVertices
		}
		n := WriteRibbon(dst[at:], e.Path, g.colorizer)
		if k > 0 {
			dst[at-1] = dst[at]
		}
		res.Trails = append(res.Trails, buffer.Range{Name: e.ID, Offset: at, Count: n})
		at += n
	}
	g.trails = res.Trails
	return res
}
