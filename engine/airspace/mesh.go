package airspace

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-tracker/engine/geo"
	"github.com/Carmen-Shannon/oxy-tracker/engine/layout"
	"github.com/mmp/earcut-go"
)

// MinHeight is the smallest world-space thickness of a volume.
const MinHeight = 0.5

// Mesh is the geometry of one zone: a triangle list for the translucent fill and a
// line list for the outline.
type Mesh struct {
	Fill  []layout.AirspaceVertex
	Edges []layout.AirspaceVertex
}

// Heights returns the world-space floor and ceiling of a zone.
func Heights(z Zone) (floorY, ceilingY float32) {
	floorY = max(z.FloorFt, 0) * geo.AltitudeScale
	ceilingY = max(floorY+MinHeight, z.CeilingFt*geo.AltitudeScale)
	return floorY, ceilingY
}

// BuildMesh extrudes a zone into a closed prism.
//
// The fill is the triangulated floor, the ceiling with reversed winding, then two
// triangles per ring edge for the walls. The outline has, per ring edge, a floor
// segment, a ceiling segment and a vertical segment at the edge's first point.
//
// Parameters:
//   - z: the zone
//   - proj: lon/lat to world projection
//   - fill: fill color; its alpha is the volume translucency
//   - edge: outline color
//
// Returns:
//   - Mesh: the zone geometry
//   - error: wraps ErrBadZone when the ring cannot be triangulated
func BuildMesh(z Zone, proj *geo.Projection, fill, edge [4]float32) (Mesh, error) {
	if !z.Valid() {
		return Mesh{}, fmt.Errorf("%w: %q has %d points", ErrBadZone, z.Name, len(z.Ring))
	}

	pts := make([][2]float32, len(z.Ring))
	ring := make([]earcut.Vertex, len(z.Ring))
	for i, ll := range z.Ring {
		x, wz := proj.ToWorld(ll[0], ll[1])
		pts[i] = [2]float32{x, wz}
		ring[i].P = [2]float64{float64(x), float64(wz)}
	}

	tris := earcut.Triangulate(earcut.Polygon{Rings: [][]earcut.Vertex{ring}})
	if len(tris) == 0 {
		return Mesh{}, fmt.Errorf("%w: %q did not triangulate", ErrBadZone, z.Name)
	}

	floorY, ceilingY := Heights(z)
	n := len(pts)
	m := Mesh{
		Fill:  make([]layout.AirspaceVertex, 0, len(tris)*6+n*6),
		Edges: make([]layout.AirspaceVertex, 0, n*6),
	}
	vert := func(p [2]float32, y float32, c [4]float32) layout.AirspaceVertex {
		return layout.AirspaceVertex{Position: [3]float32{p[0], y, p[1]}, Color: c}
	}
	corner := func(v earcut.Vertex) [2]float32 {
		return [2]float32{float32(v.P[0]), float32(v.P[1])}
	}

	for _, tri := range tris {
		a, b, c := corner(tri.Vertices[0]), corner(tri.Vertices[1]), corner(tri.Vertices[2])
		m.Fill = append(m.Fill, vert(a, floorY, fill), vert(b, floorY, fill), vert(c, floorY, fill))
	}
	for _, tri := range tris {
		a, b, c := corner(tri.Vertices[0]), corner(tri.Vertices[1]), corner(tri.Vertices[2])
		m.Fill = append(m.Fill, vert(a, ceilingY, fill), vert(c, ceilingY, fill), vert(b, ceilingY, fill))
	}
	for i := range n {
		p0, p1 := pts[i], pts[(i+1)%n]
		f0, f1 := vert(p0, floorY, fill), vert(p1, floorY, fill)
		c0, c1 := vert(p0, ceilingY, fill), vert(p1, ceilingY, fill)
		m.Fill = append(m.Fill, f0, f1, c1, f0, c1, c0)

		m.Edges = append(m.Edges,
			vert(p0, floorY, edge), vert(p1, floorY, edge),
			vert(p0, ceilingY, edge), vert(p1, ceilingY, edge),
			vert(p0, floorY, edge), vert(p0, ceilingY, edge),
		)
	}
	return m, nil
}
