package terrain

import (
	"github.com/Carmen-Shannon/oxy-tracker/common"
	"github.com/Carmen-Shannon/oxy-tracker/engine/geo"
	"github.com/Carmen-Shannon/oxy-tracker/engine/layout"
)

const (
	DefaultSubdivisions = 32
	// DefaultElevationScale converts metres of elevation to world units.
	DefaultElevationScale = 0.003

	normalEpsilon = 1e-4
)

var up = [3]float32{0, 1, 0}

// Mesh is an indexed triangle list for one terrain tile.
type Mesh struct {
	Vertices []layout.TerrainVertex
	Indices  []uint32
}

// BuildMesh displaces an (s+1)x(s+1) vertex grid over the extent by the heightmap.
// Elevation below zero (sea) is clamped to zero before scaling. Each quad becomes the
// triangles (top-left, bottom-left, top-right) and (top-right, bottom-left,
// bottom-right). Normals use central differences inside the grid and one-sided
// differences at the border; degenerate normals fall back to +Y.
//
// Parameters:
//   - h: elevation source
//   - ext: world-space rectangle, MinZ at the north edge
//   - subdivisions: quads per side, at least 1
//   - scale: world units per metre of elevation
//
// Returns:
//   - Mesh: (s+1)^2 vertices and 6*s^2 indices
func BuildMesh(h Heightmap, ext geo.Extent, subdivisions int, scale float32) Mesh {
	s := max(subdivisions, 1)
	side := s + 1
	m := Mesh{
		Vertices: make([]layout.TerrainVertex, side*side),
		Indices:  make([]uint32, 0, s*s*6),
	}
	extX, extZ := ext.MaxX-ext.MinX, ext.MaxZ-ext.MinZ

	for iy := range side {
		for ix := range side {
			u := float32(ix) / float32(s)
			v := float32(iy) / float32(s)
			y := max(h.Elevation(u, v), 0) * scale
			m.Vertices[iy*side+ix] = layout.TerrainVertex{
				Position: [3]float32{ext.MinX + u*extX, y, ext.MinZ + v*extZ},
				TexCoord: [2]float32{u, v},
			}
		}
	}

	for iy := range s {
		for ix := range s {
			tl := uint32(iy*side + ix)
			tr := tl + 1
			bl := uint32((iy+1)*side + ix)
			br := bl + 1
			m.Indices = append(m.Indices, tl, bl, tr, tr, bl, br)
		}
	}

	pos := func(ix, iy int) [3]float32 { return m.Vertices[iy*side+ix].Position }
	for iy := range side {
		for ix := range side {
			dx := common.Sub3(pos(min(ix+1, s), iy), pos(max(ix-1, 0), iy))
			dz := common.Sub3(pos(ix, min(iy+1, s)), pos(ix, max(iy-1, 0)))
			m.Vertices[iy*side+ix].Normal = common.Normalize3(common.Cross3(dz, dx), normalEpsilon, up)
		}
	}
	return m
}

// Merge concatenates meshes into one vertex and index list, offsetting indices.
func Merge(meshes ...Mesh) Mesh {
	var nv, ni int
	for _, m := range meshes {
		nv += len(m.Vertices)
		ni += len(m.Indices)
	}
	out := Mesh{
		Vertices: make([]layout.TerrainVertex, 0, nv),
		Indices:  make([]uint32, 0, ni),
	}
	for _, m := range meshes {
		base := uint32(len(out.Vertices))
		out.Vertices = append(out.Vertices, m.Vertices...)
		for _, i := range m.Indices {
			out.Indices = append(out.Indices, base+i)
		}
	}
	return out
}
