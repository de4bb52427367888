package aircraft

import (
	"fmt"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-tracker/engine/buffer"
	"github.com/Carmen-Shannon/oxy-tracker/engine/layout"
	"github.com/Carmen-Shannon/oxy-tracker/engine/palette"
	"github.com/Carmen-Shannon/oxy-tracker/engine/track"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOutput() Output {
	return Output{
		Bodies: buffer.NewArray[layout.AircraftInstance](0),
		Spin:   buffer.NewArray[layout.AircraftInstance](0),
		Glow:   buffer.NewArray[layout.GlowInstance](0),
	}
}

func TestGenerateOneInstancePerEntity(t *testing.T) {
	g := NewGenerator(NewAnimator(WithSeed(1)))
	for _, n := range []int{0, 1, 7, 300} {
		entities := make([]track.Entity, n)
		for i := range entities {
			entities[i] = track.Entity{
				ID:       fmt.Sprintf("a%04d", i),
				Position: [3]float32{float32(i), 10, 0},
				Altitude: float32(i * 100),
				Category: track.Categories[i%len(track.Categories)],
			}
		}
		out := newOutput()
		res := g.Generate(track.NewSnapshot(entities, ""), 1.0/60, out)
		assert.Equal(t, n, out.Bodies.Len())
		assert.Equal(t, n, out.Glow.Len())
		assert.Equal(t, 0, res.Skipped)

		total := 0
		for _, r := range res.Categories {
			assert.Equal(t, total, r.Offset)
			total += r.Count
		}
		assert.Equal(t, n, total)
	}
}

func TestGenerateInstanceContents(t *testing.T) {
	g := NewGenerator(NewAnimator(WithSeed(7)))
	e := track.Entity{ID: "abc123", Position: [3]float32{5, 20, -3}, Heading: math.Pi / 2, Altitude: 15000}
	out := newOutput()
	g.Generate(track.NewSnapshot([]track.Entity{e}, "abc123"), 0.1, out)

	require.Equal(t, 1, out.Bodies.Len())
	inst := out.Bodies.Slice()[0]
	assert.Equal(t, palette.DefaultRamp().Color(15000), inst.Color)
	assert.Equal(t, layout.AircraftFlagSelected, inst.Flags&layout.AircraftFlagSelected)
	assert.GreaterOrEqual(t, inst.GlowIntensity, float32(0.15))
	assert.LessOrEqual(t, inst.GlowIntensity, float32(0.45))

	// translation column
	assert.Equal(t, float32(5), inst.ModelMatrix[12])
	assert.Equal(t, float32(20), inst.ModelMatrix[13])
	assert.Equal(t, float32(-3), inst.ModelMatrix[14])
	// Ry(pi/2) maps +X to -Z
	assert.InDelta(t, 0, inst.ModelMatrix[0], 1e-6)
	assert.InDelta(t, -1, inst.ModelMatrix[2], 1e-6)

	phase, _, ok := g.Animator().State("abc123")
	require.True(t, ok)
	assert.Equal(t, phase, inst.LightPhase)

	glow := out.Glow.Slice()[0]
	assert.Equal(t, [3]float32{5, 21, -3}, glow.Position)
	assert.Equal(t, inst.GlowIntensity, glow.Opacity)
	assert.InDelta(t, 7, glow.SpriteSize, 1.5)
}

func TestGenerateUnselectedHasNoFlag(t *testing.T) {
	g := NewGenerator(nil)
	out := newOutput()
	g.Generate(track.NewSnapshot([]track.Entity{{ID: "a"}, {ID: "b"}}, "b"), 0, out)
	require.Equal(t, 2, out.Bodies.Len())
	assert.Equal(t, uint32(0), out.Bodies.Slice()[0].Flags)
	assert.Equal(t, layout.AircraftFlagSelected, out.Bodies.Slice()[1].Flags)
}

func TestGenerateSortsByCategoryThenID(t *testing.T) {
	entities := []track.Entity{
		{ID: "z", Category: track.CategoryRegional},
		{ID: "b", Category: track.CategoryJet},
		{ID: "h2", Category: track.CategoryHelicopter},
		{ID: "a", Category: track.CategoryJet},
		{ID: "h1", Category: track.CategoryHelicopter},
		{ID: "s1", Category: track.CategorySmall},
	}
	g := NewGenerator(NewAnimator(WithSeed(3)))
	out := newOutput()
	res := g.Generate(track.NewSnapshot(entities, ""), 0.5, out)

	assert.Equal(t, []buffer.Range{
		{Name: "jet", Offset: 0, Count: 2},
		{Name: "helicopter", Offset: 2, Count: 2},
		{Name: "small", Offset: 4, Count: 1},
		{Name: "regional", Offset: 5, Count: 1},
	}, res.Categories)

	assert.Equal(t, []buffer.Range{
		{Name: "rotor", Offset: 0, Count: 2},
		{Name: "propeller", Offset: 2, Count: 1},
	}, res.Spin)
	require.Equal(t, 3, out.Spin.Len())
	spin := out.Spin.Slice()
	assert.Equal(t, rotorColor, spin[0].Color)
	assert.Equal(t, propColor, spin[2].Color)
	assert.Equal(t, float32(0), spin[0].GlowIntensity)
}

func TestGenerateSkipsInvalidAndCaps(t *testing.T) {
	nan := float32(math.NaN())
	entities := []track.Entity{
		{ID: "ok1"}, {ID: ""}, {ID: "bad", Position: [3]float32{nan, 0, 0}}, {ID: "ok2"}, {ID: "ok3"},
	}
	g := NewGenerator(nil, WithMaxInstances(2))
	out := newOutput()
	res := g.Generate(track.NewSnapshot(entities, ""), 0, out)
	assert.Equal(t, 2, out.Bodies.Len())
	assert.Equal(t, 3, res.Skipped)
}

func TestGenerateTintAndGlowFilter(t *testing.T) {
	tint := [4]float32{0, 1, 0, 1}
	g := NewGenerator(nil,
		WithTint(&tint),
		WithGlowFilter(func(e track.Entity) bool { return e.ID != "hidden" }),
	)
	out := newOutput()
	g.Generate(track.NewSnapshot([]track.Entity{{ID: "hidden", Altitude: 40000}, {ID: "shown"}}, ""), 0, out)
	assert.Equal(t, 2, out.Bodies.Len())
	require.Equal(t, 1, out.Glow.Len())
	assert.Equal(t, tint, out.Bodies.Slice()[0].Color)
	assert.Equal(t, tint, out.Glow.Slice()[0].Color)

	g.Configure(WithTint(nil))
	g.Generate(track.NewSnapshot([]track.Entity{{ID: "shown", Altitude: 40000}}, ""), 0, out)
	assert.Equal(t, palette.DefaultRamp().Color(40000), out.Bodies.Slice()[0].Color)
}

func TestAnimatorAdvancesAndWraps(t *testing.T) {
	a := NewAnimator(WithSeed(42))
	heli := track.Entity{ID: "h", Category: track.CategoryHelicopter}
	jet := track.Entity{ID: "j", Category: track.CategoryJet}
	snap := track.NewSnapshot([]track.Entity{heli, jet}, "")

	a.Advance(snap, 0)
	p0, r0, ok := a.State("h")
	require.True(t, ok)
	assert.Less(t, p0, float32(2*math.Pi))
	assert.Equal(t, float32(0), r0)

	a.Advance(snap, 0.1)
	p1, r1, _ := a.State("h")
	assert.InDelta(t, float64(p0)+0.5, float64(p1), 1e-5)
	assert.InDelta(t, 0.1*0.7*2*math.Pi, float64(r1), 1e-5)
	_, jr, _ := a.State("j")
	assert.Equal(t, float32(0), jr)

	for range 10000 {
		a.Advance(snap, 0.05)
	}
	p, r, _ := a.State("h")
	assert.GreaterOrEqual(t, p, float32(0))
	assert.Less(t, p, float32(20*math.Pi))
	assert.GreaterOrEqual(t, r, float32(0))
	assert.Less(t, r, float32(2*math.Pi))

	a.Advance(track.NewSnapshot([]track.Entity{jet}, ""), 0.1)
	_, _, ok = a.State("h")
	assert.False(t, ok)
	assert.Equal(t, 1, a.Len())
}

func TestAnimatorSeedIsDeterministic(t *testing.T) {
	snap := track.NewSnapshot([]track.Entity{{ID: "x"}}, "")
	a, b := NewAnimator(WithSeed(9)), NewAnimator(WithSeed(9))
	a.Advance(snap, 0)
	b.Advance(snap, 0)
	pa, _, _ := a.State("x")
	pb, _, _ := b.State("x")
	assert.Equal(t, pa, pb)
}

func TestSpeedFactorAddsToRotorRate(t *testing.T) {
	a := NewAnimator(WithSeed(1), WithSpeedFactor(0.01))
	a.Advance(track.NewSnapshot([]track.Entity{{ID: "s", Category: track.CategorySmall, Speed: 100}}, ""), 0.1)
	_, r, _ := a.State("s")
	assert.InDelta(t, 0.1*(0.6*2*math.Pi+1), float64(r), 1e-5)
}
