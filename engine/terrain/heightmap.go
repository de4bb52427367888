package terrain

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-tracker/common"
)

// ErrBadTerrainTile is returned when elevation data cannot be decoded into a heightmap.
var ErrBadTerrainTile = errors.New("terrain: bad elevation tile")

// Heightmap samples ground elevation over a tile.
type Heightmap interface {
	// Elevation returns the elevation in metres at normalized tile coordinates,
	// u west to east and v north to south, both in [0, 1].
	Elevation(u, v float32) float32
}

// Flat is a Heightmap of constant elevation.
type Flat float32

func (f Flat) Elevation(_, _ float32) float32 { return float32(f) }

// Grid is a row-major elevation grid sampled by nearest neighbor.
type Grid struct {
	Width, Height int
	// Values holds Width*Height elevations in metres, north row first.
	Values []float32
}

var _ Heightmap = &Grid{}

// Elevation samples the nearest grid cell.
func (g *Grid) Elevation(u, v float32) float32 {
	ex := min(int(common.Clamp(u, 0, 1)*float32(g.Width-1)), g.Width-1)
	ey := min(int(common.Clamp(v, 0, 1)*float32(g.Height-1)), g.Height-1)
	return g.Values[ey*g.Width+ex]
}

// TerrariumElevation decodes one Terrarium-encoded pixel:
// elevation = R*256 + G + B/256 - 32768 metres.
func TerrariumElevation(r, g, b uint8) float32 {
	return float32(r)*256 + float32(g) + float32(b)/256 - 32768
}

// NewTerrarium builds a Grid from RGBA pixels in Terrarium encoding.
//
// Parameters:
//   - rgba: 4 bytes per pixel, row-major
//   - width, height: dimensions in pixels
//
// Returns:
//   - *Grid: the decoded grid
//   - error: ErrBadTerrainTile when the dimensions and pixel data disagree
func NewTerrarium(rgba []byte, width, height int) (*Grid, error) {
	if width < 2 || height < 2 || len(rgba) < width*height*4 {
		return nil, fmt.Errorf("%w: %dx%d with %d bytes", ErrBadTerrainTile, width, height, len(rgba))
	}
	g := &Grid{Width: width, Height: height, Values: make([]float32, width*height)}
	for i := range g.Values {
		p := rgba[i*4 : i*4+3]
		g.Values[i] = TerrariumElevation(p[0], p[1], p[2])
	}
	return g, nil
}

// DecodeTerrarium decodes an encoded Terrarium PNG into a Grid.
//
// Parameters:
//   - img: the encoded tile image
//
// Returns:
//   - *Grid: the decoded grid
//   - error: wraps ErrBadTerrainTile on any decode failure
func DecodeTerrarium(img *common.ImportedImage) (*Grid, error) {
	pix, w, h, err := img.Decode()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadTerrainTile, err)
	}
	return NewTerrarium(pix, int(w), int(h))
}
