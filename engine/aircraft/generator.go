package aircraft

import (
	"cmp"
	"math"
	"slices"

	"github.com/Carmen-Shannon/oxy-tracker/common"
	"github.com/Carmen-Shannon/oxy-tracker/engine/buffer"
	"github.com/Carmen-Shannon/oxy-tracker/engine/layout"
	"github.com/Carmen-Shannon/oxy-tracker/engine/palette"
	"github.com/Carmen-Shannon/oxy-tracker/engine/track"
)

const (
	// DefaultMaxInstances caps the aircraft drawn per frame.
	DefaultMaxInstances = 1024

	glowBase      = 0.3
	glowAmplitude = 0.15
	spriteBase    = 7.0
	spriteSwing   = 1.5
)

var (
	glowOffset = [3]float32{0, 1, 0}
	rotorColor = [4]float32{0.3, 0.3, 0.3, 1}
	propColor  = [4]float32{0.2, 0.2, 0.2, 1}
)

// Output names the arrays the generator writes. Each is reset by the generator.
type Output struct {
	Bodies *buffer.Array[layout.AircraftInstance]
	Spin   *buffer.Array[layout.AircraftInstance]
	Glow   *buffer.Array[layout.GlowInstance]
}

// Result describes what Generate wrote. Its slices are reused by the next Generate.
type Result struct {
	// Categories holds one range per category present, in batching order.
	Categories []buffer.Range
	// Spin holds the rotor range (helicopters) followed by the propeller range (small aircraft).
	Spin []buffer.Range
	// Skipped counts invalid entities plus entities beyond the instance cap.
	Skipped int
}

// Generator builds aircraft body, spinning-part and glow sprite instances.
// Generate must not be called concurrently with itself.
type Generator struct {
	animator     *Animator
	ramp         *palette.Ramp
	tint         *[4]float32
	glowVisible  func(track.Entity) bool
	maxInstances int

	order      []int
	rotors     []layout.AircraftInstance
	props      []layout.AircraftInstance
	categories []buffer.Range
	spin       [2]buffer.Range
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithRamp sets the altitude color ramp.
func WithRamp(r *palette.Ramp) GeneratorOption {
	return func(g *Generator) {
		if r != nil {
			g.ramp = r
		}
	}
}

// WithTint overrides the altitude color of bodies and glow sprites. Nil restores the ramp.
func WithTint(tint *[4]float32) GeneratorOption {
	return func(g *Generator) { g.tint = tint }
}

// WithGlowFilter sets the predicate deciding which aircraft get a glow sprite.
// The default emits a sprite for every aircraft.
func WithGlowFilter(visible func(track.Entity) bool) GeneratorOption {
	return func(g *Generator) { g.glowVisible = visible }
}

// WithMaxInstances caps the number of aircraft drawn per frame.
func WithMaxInstances(n int) GeneratorOption {
	return func(g *Generator) { g.maxInstances = max(n, 1) }
}

// NewGenerator creates a Generator.
//
// Parameters:
//   - animator: the per-entity animation state; a fresh Animator is used when nil
//   - options: functional options
//
// Returns:
//   - *Generator: the generator
func NewGenerator(animator *Animator, options ...GeneratorOption) *Generator {
	if animator == nil {
		animator = NewAnimator()
	}
	g := &Generator{
		animator:     animator,
		ramp:         palette.DefaultRamp(),
		maxInstances: DefaultMaxInstances,
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// Configure applies options to an existing generator, typically on theme change.
// Not safe to call while Generate runs.
func (g *Generator) Configure(options ...GeneratorOption) {
	for _, opt := range options {
		opt(g)
	}
}

// Animator returns the generator's animation state.
func (g *Generator) Animator() *Animator { return g.animator }

// Generate advances animation by dt and rewrites every array of out.
//
// Bodies are ordered by category then ID so that each category is one contiguous
// instanced draw; Result.Categories lists the ranges. Glow sprites are written for
// bodies passing the glow filter, in the same order.
//
// Parameters:
//   - snap: the frame snapshot
//   - dt: elapsed seconds since the previous frame
//   - out: destination arrays
//
// Returns:
//   - Result: batching ranges and the skipped count
func (g *Generator) Generate(snap track.Snapshot, dt float32, out Output) Result {
	g.animator.Advance(snap, dt)

	g.order = g.order[:0]
	skipped := 0
	for i := range snap.Len() {
		if snap.At(i).Valid() {
			g.order = append(g.order, i)
		} else {
			skipped++
		}
	}
	slices.SortFunc(g.order, func(a, b int) int {
		ea, eb := snap.At(a), snap.At(b)
		if c := cmp.Compare(ea.Category.SortOrder(), eb.Category.SortOrder()); c != 0 {
			return c
		}
		return cmp.Compare(ea.ID, eb.ID)
	})
	if len(g.order) > g.maxInstances {
		skipped += len(g.order) - g.maxInstances
		g.order = g.order[:g.maxInstances]
	}

	out.Bodies.Reset()
	out.Spin.Reset()
	out.Glow.Reset()
	out.Bodies.EnsureCapacity(len(g.order))
	out.Glow.EnsureCapacity(len(g.order))

	res := Result{Categories: g.categories[:0], Skipped: skipped}
	rotors, props := g.rotors[:0], g.props[:0]
	selected := snap.Selected()

	for _, idx := range g.order {
		e := snap.At(idx)
		phase, rotor, _ := g.animator.State(e.ID)

		color := g.ramp.Color(e.Altitude)
		if g.tint != nil {
			color = *g.tint
		}
		glow := float32(glowBase + glowAmplitude*math.Sin(float64(phase)*0.5))

		inst := layout.AircraftInstance{
			Color:         color,
			LightPhase:    phase,
			GlowIntensity: glow,
			RotorAngle:    rotor,
		}
		common.BuildModelMatrix(inst.ModelMatrix[:], e.Position[0], e.Position[1], e.Position[2], 0, e.Heading, 0, 1, 1, 1)
		if selected != "" && e.ID == selected {
			inst.Flags |= layout.AircraftFlagSelected
		}

		n := out.Bodies.Len()
		if n == 0 || res.Categories[len(res.Categories)-1].Name != e.Category.String() {
			res.Categories = append(res.Categories, buffer.Range{Name: e.Category.String(), Offset: n})
		}
		res.Categories[len(res.Categories)-1].Count++
		out.Bodies.Append(inst)

		if g.glowVisible == nil || g.glowVisible(e) {
			out.Glow.Append(layout.GlowInstance{
				Position:   common.Add3(e.Position, glowOffset),
				Color:      color,
				SpriteSize: float32(spriteBase + spriteSwing*math.Sin(float64(phase)*0.3)),
				Opacity:    glow,
			})
		}

		switch e.Category {
		case track.CategoryHelicopter:
			part := layout.AircraftInstance{Color: rotorColor, LightPhase: phase, RotorAngle: rotor}
			common.BuildModelMatrix(part.ModelMatrix[:], e.Position[0], e.Position[1], e.Position[2], 0, rotor, 0, 1, 1, 1)
			rotors = append(rotors, part)
		case track.CategorySmall:
			part := layout.AircraftInstance{Color: propColor, LightPhase: phase, RotorAngle: rotor}
			common.BuildModelMatrix(part.ModelMatrix[:], e.Position[0], e.Position[1], e.Position[2], 0, e.Heading, rotor, 1, 1, 1)
			props = append(props, part)
		}
	}

	g.rotors, g.props = rotors, props
	g.categories = res.Categories
	spin := out.Spin.Resize(len(rotors) + len(props))
	copy(spin, rotors)
	copy(spin[len(rotors):], props)
	g.spin = [2]buffer.Range{
		{Name: "rotor", Offset: 0, Count: len(rotors)},
		{Name: "propeller", Offset: len(rotors), Count: len(props)},
	}
	res.Spin = g.spin[:]
	return res
}
