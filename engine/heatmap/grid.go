package heatmap

import (
	"github.com/Carmen-Shannon/oxy-tracker/common"
	"github.com/Carmen-Shannon/oxy-tracker/engine/geo"
	"github.com/Carmen-Shannon/oxy-tracker/engine/layout"
	"github.com/Carmen-Shannon/oxy-tracker/engine/palette"
	"github.com/Carmen-Shannon/oxy-tracker/engine/track"
)

const (
	// Size is the number of cells along each side of the grid and texture.
	Size = 32

	// DefaultRefreshFrames is how often a scene re-uploads the texture while accumulating.
	DefaultRefreshFrames = 30

	// groundY lifts the quad above the terrain to avoid z-fighting.
	groundY = 0.01
)

// Grid accumulates aircraft detections into a Size x Size density grid over a
// rectangle of the ground plane. Row 0 is the north (MinZ) edge, column 0 the
// west (MinX) edge. A Grid is not safe for concurrent use.
type Grid struct {
	counts    [Size * Size]uint32
	max       uint32
	extent    geo.Extent
	hasExtent bool
}

// NewGrid creates an empty Grid with no extent. Accumulate ignores entities until
// SetExtent is called.
func NewGrid() *Grid {
	return &Grid{}
}

// SetExtent moves the grid. When the center moves by more than half the previous
// span on either axis, the counts are cleared and the new extent adopted; smaller
// moves keep the previous extent so density keeps accumulating in place.
//
// Parameters:
//   - ext: the ground rectangle to cover
//
// Returns:
//   - bool: true if the grid was reset
func (g *Grid) SetExtent(ext geo.Extent) bool {
	if ext.MaxX <= ext.MinX || ext.MaxZ <= ext.MinZ {
		return false
	}
	if !g.hasExtent {
		g.extent, g.hasExtent = ext, true
		return true
	}
	last := g.extent
	shiftX := abs((ext.MinX+ext.MaxX)/2 - (last.MinX+last.MaxX)/2)
	shiftZ := abs((ext.MinZ+ext.MaxZ)/2 - (last.MinZ+last.MaxZ)/2)
	if shiftX <= (last.MaxX-last.MinX)/2 && shiftZ <= (last.MaxZ-last.MinZ)/2 {
		return false
	}
	g.Reset()
	g.extent = ext
	return true
}

// Extent returns the covered rectangle and whether one was set.
func (g *Grid) Extent() (geo.Extent, bool) { return g.extent, g.hasExtent }

// Reset clears every cell.
func (g *Grid) Reset() {
	clear(g.counts[:])
	g.max = 0
}

// Accumulate adds one detection per valid entity inside the extent.
//
// Parameters:
//   - snap: the frame snapshot
//
// Returns:
//   - int: the number of detections added
func (g *Grid) Accumulate(snap track.Snapshot) int {
	if !g.hasExtent {
		return 0
	}
	added := 0
	for i := range snap.Len() {
		e := snap.At(i)
		if !e.Valid() {
			continue
		}
		x, y, ok := g.cell(e.Position)
		if !ok {
			continue
		}
		c := g.counts[y*Size+x] + 1
		g.counts[y*Size+x] = c
		g.max = max(g.max, c)
		added++
	}
	return added
}

func (g *Grid) cell(p [3]float32) (x, y int, ok bool) {
	nx := (p[0] - g.extent.MinX) / (g.extent.MaxX - g.extent.MinX)
	ny := (p[2] - g.extent.MinZ) / (g.extent.MaxZ - g.extent.MinZ)
	if nx < 0 || nx >= 1 || ny < 0 || ny >= 1 {
		return 0, 0, false
	}
	return min(int(nx*Size), Size-1), min(int(ny*Size), Size-1), true
}

// Count returns the detections in cell (x, y).
func (g *Grid) Count(x, y int) uint32 {
	if x < 0 || x >= Size || y < 0 || y >= Size {
		return 0
	}
	return g.counts[y*Size+x]
}

// Max returns the largest cell count.
func (g *Grid) Max() uint32 { return g.max }

// Empty reports whether no cell holds a detection.
func (g *Grid) Empty() bool { return g.max == 0 }

// Texels renders the grid as Size x Size premultiplied RGBA8 pixels, row-major from
// the north edge. Empty cells are transparent; others interpolate the theme's
// heatmap ramp by count relative to the busiest cell. The slice is newly allocated
// so it can be handed to a static buffer.
//
// Parameters:
//   - cfg: the theme supplying HeatmapLow and HeatmapHigh
//
// Returns:
//   - []byte: Size*Size*4 bytes
func (g *Grid) Texels(cfg palette.ThemeConfig) []byte {
	out := make([]byte, Size*Size*4)
	peak := float32(max(g.max, 1))
	for i, c := range g.counts {
		if c == 0 {
			continue
		}
		col := common.Lerp4(cfg.HeatmapLow, cfg.HeatmapHigh, float32(c)/peak)
		a := col[3]
		out[i*4+0] = unorm8(col[0] * a)
		out[i*4+1] = unorm8(col[1] * a)
		out[i*4+2] = unorm8(col[2] * a)
		out[i*4+3] = unorm8(a)
	}
	return out
}

// Quad returns the two ground triangles (NW, NE, SE and NW, SE, SW) spanning the
// extent, with texture coordinate (0, 0) at the north-west corner. It returns nil
// when no extent is set.
func (g *Grid) Quad() []layout.TexturedVertex {
	if !g.hasExtent {
		return nil
	}
	e := g.extent
	nw := layout.TexturedVertex{Position: [3]float32{e.MinX, groundY, e.MinZ}, TexCoord: [2]float32{0, 0}}
	ne := layout.TexturedVertex{Position: [3]float32{e.MaxX, groundY, e.MinZ}, TexCoord: [2]float32{1, 0}}
	se := layout.TexturedVertex{Position: [3]float32{e.MaxX, groundY, e.MaxZ}, TexCoord: [2]float32{1, 1}}
	sw := layout.TexturedVertex{Position: [3]float32{e.MinX, groundY, e.MaxZ}, TexCoord: [2]float32{0, 1}}
	return []layout.TexturedVertex{nw, ne, se, nw, se, sw}
}

func unorm8(v float32) byte {
	return byte(common.Clamp(v*255, 0, 255))
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
