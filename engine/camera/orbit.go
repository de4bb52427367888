package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-tracker/common"
)

const (
	defaultDistance  = 200
	defaultElevation = 0.5
	// followSmoothness is the per-60Hz-tick fraction of the gap closed while following.
	followSmoothness = 0.08
)

// Orbit revolves around a target point using spherical coordinates (distance,
// azimuth, elevation). It is the default Pose and is safe for concurrent use.
type Orbit struct {
	mu *sync.Mutex

	target    [3]float32
	distance  float32
	azimuth   float32 // around +Y
	elevation float32 // from the horizontal plane

	minDistance  float32
	maxDistance  float32
	minElevation float32
	maxElevation float32

	autoRotate      bool
	autoRotateSpeed float32 // radians per second

	follow    [3]float32
	following bool
}

var _ Pose = &Orbit{}

// OrbitOption configures an Orbit.
type OrbitOption func(*Orbit)

// WithDistanceRange bounds the orbit distance.
func WithDistanceRange(minDist, maxDist float32) OrbitOption {
	return func(o *Orbit) {
		if minDist > 0 && maxDist >= minDist {
			o.minDistance, o.maxDistance = minDist, maxDist
		}
	}
}

// WithAutoRotate enables continuous azimuth rotation.
//
// Parameters:
//   - speed: radians per second
//
// Returns:
//   - OrbitOption: functional option enabling auto-rotation
func WithAutoRotate(speed float32) OrbitOption {
	return func(o *Orbit) {
		o.autoRotate = true
		o.autoRotateSpeed = speed
	}
}

// NewOrbit creates an Orbit 200 units from the origin at 0.5 rad elevation.
//
// Parameters:
//   - options: functional options to configure the orbit
//
// Returns:
//   - *Orbit: the orbit pose
func NewOrbit(options ...OrbitOption) *Orbit {
	o := &Orbit{
		mu:           &sync.Mutex{},
		distance:     defaultDistance,
		elevation:    defaultElevation,
		minDistance:  10,
		maxDistance:  1000,
		minElevation: 0.05,
		maxElevation: math.Pi/2 - 0.05,
	}
	for _, option := range options {
		option(o)
	}
	o.clamp()
	return o
}

// clamp keeps distance and elevation within bounds. Caller must hold the mutex.
func (o *Orbit) clamp() {
	o.distance = common.Clamp(o.distance, o.minDistance, o.maxDistance)
	o.elevation = common.Clamp(o.elevation, o.minElevation, o.maxElevation)
}

func (o *Orbit) Position() [3]float32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.position()
}

// position computes the eye from spherical coordinates. Caller must hold the mutex.
func (o *Orbit) position() [3]float32 {
	cosElev := float32(math.Cos(float64(o.elevation)))
	sinElev := float32(math.Sin(float64(o.elevation)))
	cosAzim := float32(math.Cos(float64(o.azimuth)))
	sinAzim := float32(math.Sin(float64(o.azimuth)))
	return [3]float32{
		o.target[0] + o.distance*cosElev*sinAzim,
		o.target[1] + o.distance*sinElev,
		o.target[2] + o.distance*cosElev*cosAzim,
	}
}

func (o *Orbit) Target() [3]float32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.target
}

// SetTarget moves the pivot point immediately.
func (o *Orbit) SetTarget(t [3]float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.target = t
}

// Distance returns the current distance from the target.
func (o *Orbit) Distance() float32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.distance
}

// Rotate adds deltas to azimuth and elevation. Elevation is clamped short of the poles.
func (o *Orbit) Rotate(deltaAzimuth, deltaElevation float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.azimuth += deltaAzimuth
	o.elevation += deltaElevation
	o.clamp()
}

// Zoom scales the distance by (1 - delta/100). Positive delta moves closer.
func (o *Orbit) Zoom(delta float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.distance *= 1 - delta*0.01
	o.clamp()
}

// Pan moves the target along the camera's local right and up axes, scaled by distance.
//
// Parameters:
//   - dx: screen-space horizontal delta
//   - dy: screen-space vertical delta
func (o *Orbit) Pan(dx, dy float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	eye := o.position()
	forward := common.Normalize3(common.Sub3(o.target, eye), 1e-8, [3]float32{0, 0, -1})
	right := common.Normalize3(common.Cross3(forward, [3]float32{0, 1, 0}), 1e-8, [3]float32{1, 0, 0})
	up := common.Normalize3(common.Cross3(right, forward), 1e-8, [3]float32{0, 1, 0})

	scale := o.distance * 0.002
	for i := range 3 {
		o.target[i] += right[i]*(-dx*scale) + up[i]*(dy*scale)
	}
}

// Follow makes the target ease toward p on every Step. Use Unfollow to stop.
func (o *Orbit) Follow(p [3]float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.follow = p
	o.following = true
}

// Unfollow stops following.
func (o *Orbit) Unfollow() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.following = false
}

// Step advances follow easing and auto-rotation by dt seconds.
func (o *Orbit) Step(dt float32) {
	if dt <= 0 {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.following {
		f := 1 - float32(math.Pow(1-followSmoothness, float64(dt*60)))
		for i := range 3 {
			o.target[i] += (o.follow[i] - o.target[i]) * f
		}
	}
	if o.autoRotate {
		o.azimuth += o.autoRotateSpeed * dt
	}
}

// Reset restores the default distance and angles around the origin.
func (o *Orbit) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.target = [3]float32{}
	o.distance = defaultDistance
	o.azimuth = 0
	o.elevation = defaultElevation
	o.following = false
	o.clamp()
}
