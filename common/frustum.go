package common

import "math"

// Plane is the set of points p with dot(Normal, p) + Distance = 0.
// Points on the positive side are inside the frustum.
type Plane struct {
	Normal   [3]float32
	Distance float32
}

// Frustum holds the six clipping planes of a view-projection matrix.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
)

// ExtractFrustumFromMatrix extracts normalized clipping planes from a column-major
// view-projection matrix with WebGPU clip-space depth in [0, 1].
//
// Parameters:
//   - viewProj: 16 float32 values of the view-projection matrix
//
// Returns:
//   - Frustum: the frustum planes in world space
func ExtractFrustumFromMatrix(viewProj []float32) Frustum {
	row := func(i int) [4]float32 {
		return [4]float32{viewProj[i], viewProj[4+i], viewProj[8+i], viewProj[12+i]}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	var f Frustum
	for i, p := range [6][4]float32{
		FrustumLeft:   add4(r3, r0, 1),
		FrustumRight:  add4(r3, r0, -1),
		FrustumBottom: add4(r3, r1, 1),
		FrustumTop:    add4(r3, r1, -1),
		FrustumNear:   r2,
		FrustumFar:    add4(r3, r2, -1),
	} {
		plane := Plane{Normal: [3]float32{p[0], p[1], p[2]}, Distance: p[3]}
		if l := float32(math.Sqrt(float64(Dot3(plane.Normal, plane.Normal)))); l > 0 {
			plane.Normal = Scale3(plane.Normal, 1/l)
			plane.Distance /= l
		}
		f.Planes[i] = plane
	}
	return f
}

func add4(a, b [4]float32, sign float32) [4]float32 {
	return [4]float32{a[0] + sign*b[0], a[1] + sign*b[1], a[2] + sign*b[2], a[3] + sign*b[3]}
}

// ContainsSphere reports whether a sphere intersects or lies inside the frustum.
// A sphere is rejected only when it lies entirely on the negative side of some plane.
//
// Parameters:
//   - center: sphere center in world space
//   - radius: sphere radius (0 tests a single point)
//
// Returns:
//   - bool: true if the sphere is at least partially inside
func (f *Frustum) ContainsSphere(center [3]float32, radius float32) bool {
	for i := range f.Planes {
		if Dot3(f.Planes[i].Normal, center)+f.Planes[i].Distance < -radius {
			return false
		}
	}
	return true
}
