package aircraft

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/Carmen-Shannon/oxy-tracker/engine/track"
)

const (
	// LightPhaseRate is how fast the navigation light phase advances, in radians per second.
	LightPhaseRate = 5.0
	// phaseWrap is a common period of sin(phase), sin(phase*0.5) and sin(phase*0.3),
	// so wrapping never causes a visible jump in blink, glow or sprite size.
	phaseWrap = 20 * math.Pi
	twoPi     = 2 * math.Pi
)

// RotorRate returns the base rotor or propeller angular speed of a category in radians per second.
// Categories without spinning parts return 0.
func RotorRate(c track.Category) float32 {
	switch c {
	case track.CategoryHelicopter:
		return 0.7 * twoPi
	case track.CategorySmall:
		return 0.6 * twoPi
	}
	return 0
}

type animState struct {
	phase float32
	rotor float32
	seen  uint64
}

// Animator owns the per-entity time accumulators (light phase and rotor angle).
// They live here rather than in GPU records so they survive buffer reuse.
// It is safe for concurrent use.
type Animator struct {
	mu          sync.Mutex
	states      map[string]*animState
	frame       uint64
	rng         *rand.Rand
	speedFactor float32
}

// AnimatorOption configures an Animator.
type AnimatorOption func(*Animator)

// WithSeed makes initial light phases reproducible.
func WithSeed(seed uint64) AnimatorOption {
	return func(a *Animator) {
		a.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithSpeedFactor adds factor*speed (knots) radians per second to the rotor rate of
// categories that have spinning parts.
func WithSpeedFactor(factor float32) AnimatorOption {
	return func(a *Animator) {
		a.speedFactor = max(factor, 0)
	}
}

// NewAnimator creates an Animator. New entities start at a random light phase in [0, 2π)
// so that fleets do not blink in unison.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - *Animator: the animator
func NewAnimator(options ...AnimatorOption) *Animator {
	a := &Animator{
		states: make(map[string]*animState),
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

// Advance steps every valid entity in the snapshot by dt seconds and forgets entities
// that are absent from it.
//
// Parameters:
//   - snap: the frame snapshot
//   - dt: elapsed seconds since the previous frame; negative values are treated as 0
func (a *Animator) Advance(snap track.Snapshot, dt float32) {
	dt = max(dt, 0)
	a.mu.Lock()
	defer a.mu.Unlock()

	a.frame++
	for i := range snap.Len() {
		e := snap.At(i)
		if !e.Valid() {
			continue
		}
		s, ok := a.states[e.ID]
		if !ok {
			s = &animState{phase: a.rng.Float32() * twoPi}
			a.states[e.ID] = s
		}
		s.seen = a.frame
		s.phase = wrap(s.phase+dt*LightPhaseRate, phaseWrap)

		rate := RotorRate(e.Category)
		if rate > 0 && e.Speed > 0 {
			rate += a.speedFactor * e.Speed
		}
		s.rotor = wrap(s.rotor+dt*rate, twoPi)
	}
	for id, s := range a.states {
		if s.seen != a.frame {
			delete(a.states, id)
		}
	}
}

// State returns the current light phase and rotor angle of an entity.
//
// Parameters:
//   - id: entity ID
//
// Returns:
//   - phase: light phase in radians, in [0, 20π)
//   - rotor: rotor angle in radians, in [0, 2π)
//   - ok: false if the entity has never been advanced
func (a *Animator) State(id string) (phase, rotor float32, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.states[id]
	if !ok {
		return 0, 0, false
	}
	return s.phase, s.rotor, true
}

// Len returns the number of animated entities.
func (a *Animator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.states)
}

func wrap(v, period float32) float32 {
	v = float32(math.Mod(float64(v), float64(period)))
	if v < 0 {
		v += period
	}
	return v
}
