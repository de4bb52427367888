// Package model builds the procedural aircraft meshes drawn by instanced batches.
package model

import (
	"math"

	"github.com/Carmen-Shannon/oxy-tracker/common"
	"github.com/Carmen-Shannon/oxy-tracker/engine/layout"
)

// Mesh is an indexed triangle list shared by every instance of one batch.
type Mesh struct {
	Name     string
	Vertices []layout.AircraftVertex
	Indices  []uint32
	// BoundingRadius is the largest vertex distance from the model origin.
	BoundingRadius float32
}

// VertexData returns the vertex records as bytes.
func (m Mesh) VertexData() []byte {
	return common.SliceToBytes(m.Vertices)
}

// IndexData returns the indices as bytes.
func (m Mesh) IndexData() []byte {
	return common.SliceToBytes(m.Indices)
}

// IndexCount returns the number of indices to draw.
func (m Mesh) IndexCount() int {
	return len(m.Indices)
}

// ComputeBoundingRadius returns the maximum distance from the origin across all vertices.
//
// Parameters:
//   - vertices: the vertex data to compute the bounding radius from
//
// Returns:
//   - float32: the maximum distance from the origin
func ComputeBoundingRadius(vertices []layout.AircraftVertex) float32 {
	var maxDistSq float32
	for _, v := range vertices {
		p := v.Position
		distSq := p[0]*p[0] + p[1]*p[1] + p[2]*p[2]
		if distSq > maxDistSq {
			maxDistSq = distSq
		}
	}
	return float32(math.Sqrt(float64(maxDistSq)))
}

// meshBuilder appends primitives into one mesh. The model faces +Z with +Y up.
type meshBuilder struct {
	vertices []layout.AircraftVertex
	indices  []uint32
	scale    float32
}

func newMeshBuilder() *meshBuilder {
	return &meshBuilder{scale: 1}
}

func (b *meshBuilder) vertex(p, offset, n [3]float32) {
	s := b.scale
	b.vertices = append(b.vertices, layout.AircraftVertex{
		Position: [3]float32{(p[0] + offset[0]) * s, (p[1] + offset[1]) * s, (p[2] + offset[2]) * s},
		Normal:   n,
	})
}

func (b *meshBuilder) base() uint32 {
	return uint32(len(b.vertices))
}

func ring(i, segments int) (cos, sin float32) {
	a := float64(i) / float64(segments) * 2 * math.Pi
	return float32(math.Cos(a)), float32(math.Sin(a))
}

// cylinder adds a capped cylinder along Y, centered on offset.
func (b *meshBuilder) cylinder(radius, height float32, segments int, offset [3]float32) {
	base := b.base()
	half := height / 2
	for i := range segments {
		c, s := ring(i, segments)
		n := [3]float32{c, 0, s}
		b.vertex([3]float32{c * radius, -half, s * radius}, offset, n)
		b.vertex([3]float32{c * radius, half, s * radius}, offset, n)
	}
	for i := range uint32(segments) {
		next := (i + 1) % uint32(segments)
		bl, tl := base+i*2, base+i*2+1
		br, tr := base+next*2, base+next*2+1
		b.indices = append(b.indices, bl, br, tl, tl, br, tr)
	}

	bottom := b.base()
	b.vertex([3]float32{0, -half, 0}, offset, [3]float32{0, -1, 0})
	top := b.base()
	b.vertex([3]float32{0, half, 0}, offset, [3]float32{0, 1, 0})

	// caps repeat the rim so they can carry flat normals
	capBase := b.base()
	for i := range segments {
		c, s := ring(i, segments)
		b.vertex([3]float32{c * radius, -half, s * radius}, offset, [3]float32{0, -1, 0})
		b.vertex([3]float32{c * radius, half, s * radius}, offset, [3]float32{0, 1, 0})
	}
	for i := range uint32(segments) {
		next := (i + 1) % uint32(segments)
		b.indices = append(b.indices,
			bottom, capBase+next*2, capBase+i*2,
			top, capBase+i*2+1, capBase+next*2+1,
		)
	}
}

// cone adds an open cone whose base circle sits at offset and whose tip points +Z.
func (b *meshBuilder) cone(radius, height float32, segments int, offset [3]float32) {
	base := b.base()
	b.vertex([3]float32{0, 0, height}, offset, [3]float32{0, 0, 1})
	for i := range segments {
		c, s := ring(i, segments)
		n := common.Normalize3([3]float32{c, s, radius / height}, 1e-6, [3]float32{0, 0, 1})
		b.vertex([3]float32{c * radius, s * radius, 0}, offset, n)
	}
	for i := range uint32(segments) {
		next := (i + 1) % uint32(segments)
		b.indices = append(b.indices, base, base+1+i, base+1+next)
	}
}

// boxFaces lists each face normal and its corners as signs of the half extents.
var boxFaces = [6]struct {
	normal  [3]float32
	corners [4][3]float32
}{
	{[3]float32{0, 0, 1}, [4][3]float32{{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1}}},
	{[3]float32{0, 0, -1}, [4][3]float32{{1, -1, -1}, {-1, -1, -1}, {-1, 1, -1}, {1, 1, -1}}},
	{[3]float32{0, 1, 0}, [4][3]float32{{-1, 1, 1}, {1, 1, 1}, {1, 1, -1}, {-1, 1, -1}}},
	{[3]float32{0, -1, 0}, [4][3]float32{{-1, -1, -1}, {1, -1, -1}, {1, -1, 1}, {-1, -1, 1}}},
	{[3]float32{1, 0, 0}, [4][3]float32{{1, -1, 1}, {1, -1, -1}, {1, 1, -1}, {1, 1, 1}}},
	{[3]float32{-1, 0, 0}, [4][3]float32{{-1, -1, -1}, {-1, -1, 1}, {-1, 1, 1}, {-1, 1, -1}}},
}

// box adds an axis-aligned box with flat-shaded faces.
func (b *meshBuilder) box(size, offset [3]float32) {
	half := [3]float32{size[0] / 2, size[1] / 2, size[2] / 2}
	for _, f := range boxFaces {
		base := b.base()
		for _, c := range f.corners {
			b.vertex([3]float32{c[0] * half[0], c[1] * half[1], c[2] * half[2]}, offset, f.normal)
		}
		b.indices = append(b.indices, base, base+1, base+2, base, base+2, base+3)
	}
}

// sphere adds a UV sphere with segments longitudes and segments/2 latitudes.
func (b *meshBuilder) sphere(radius float32, segments int, offset [3]float32) {
	base := b.base()
	rings := segments / 2
	for lat := 0; lat <= rings; lat++ {
		theta := float64(lat) / float64(rings) * math.Pi
		sinT, cosT := float32(math.Sin(theta)), float32(math.Cos(theta))
		for lon := 0; lon <= segments; lon++ {
			phi := float64(lon) / float64(segments) * 2 * math.Pi
			n := [3]float32{sinT * float32(math.Cos(phi)), cosT, sinT * float32(math.Sin(phi))}
			b.vertex([3]float32{n[0] * radius, n[1] * radius, n[2] * radius}, offset, n)
		}
	}
	stride := uint32(segments + 1)
	for lat := range uint32(rings) {
		for lon := range uint32(segments) {
			tl := base + lat*stride + lon
			tr := tl + 1
			bl := tl + stride
			br := bl + 1
			b.indices = append(b.indices, tl, bl, tr, tr, bl, br)
		}
	}
}

func (b *meshBuilder) build(name string) Mesh {
	return Mesh{
		Name:           name,
		Vertices:       b.vertices,
		Indices:        b.indices,
		BoundingRadius: ComputeBoundingRadius(b.vertices),
	}
}
