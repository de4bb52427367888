package common

import "math"

// Sub3 returns a - b.
func Sub3(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

// Add3 returns a + b.
func Add3(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

// Cross3 returns the cross product a × b.
func Cross3(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// Dot3 returns the dot product of a and b.
func Dot3(a, b [3]float32) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

// Scale3 returns v * s.
func Scale3(v [3]float32, s float32) [3]float32 {
	return [3]float32{v[0] * s, v[1] * s, v[2] * s}
}

// Length3 returns the Euclidean length of v.
func Length3(v [3]float32) float32 {
	return float32(math.Sqrt(float64(Dot3(v, v))))
}

// Distance3 returns the Euclidean distance between a and b.
func Distance3(a, b [3]float32) float32 {
	return Length3(Sub3(a, b))
}

// Normalize3 scales v to unit length. If the length of v is below minLen the
// fallback vector is returned instead.
//
// Parameters:
//   - v: the vector to normalize
//   - minLen: the smallest length treated as non-degenerate
//   - fallback: the vector returned for degenerate input
//
// Returns:
//   - [3]float32: the normalized vector or fallback
func Normalize3(v [3]float32, minLen float32, fallback [3]float32) [3]float32 {
	l := Length3(v)
	if l < minLen || l == 0 {
		return fallback
	}
	inv := 1 / l
	return [3]float32{v[0] * inv, v[1] * inv, v[2] * inv}
}

// Clamp limits v to the closed range [lo, hi].
func Clamp[T ~int | ~float32 | ~float64](v, lo, hi T) T {
	return max(lo, min(v, hi))
}

// Lerp linearly interpolates between a and b by t.
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// Lerp4 linearly interpolates each component of two RGBA colors by t.
func Lerp4(a, b [4]float32, t float32) [4]float32 {
	return [4]float32{Lerp(a[0], b[0], t), Lerp(a[1], b[1], t), Lerp(a[2], b[2], t), Lerp(a[3], b[3], t)}
}
