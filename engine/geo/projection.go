// Package geo maps geographic coordinates to the tracker's world space: Web Mercator
// scaled so one degree of longitude is Scale world units, centered on a reference
// point, with +X east, -Z north and Y the scaled altitude.
package geo

import (
	"fmt"
	"math"

	"github.com/wroge/wgs84"
)

const (
	DefaultCenterLat = 47.6
	DefaultCenterLon = -122.3
	// DefaultScale is world units per degree of longitude.
	DefaultScale = 500.0
	// AltitudeScale converts feet to world units on the Y axis.
	AltitudeScale = 0.001

	earthRadius  = 6378137.0
	metresPerDeg = earthRadius * math.Pi / 180
)

type transformFunc = func(a, b, c float64) (float64, float64, float64)

// Projection converts between lon/lat and world XZ. It is immutable and safe for concurrent use.
type Projection struct {
	centerLat, centerLon float64
	scale                float64
	centerX, centerY     float64 // mercator degrees

	toMercator   transformFunc
	fromMercator transformFunc
}

// ProjectionOption configures a Projection.
type ProjectionOption func(*Projection)

// WithCenter sets the geographic point mapped to the world origin.
func WithCenter(lat, lon float64) ProjectionOption {
	return func(p *Projection) {
		p.centerLat, p.centerLon = lat, lon
	}
}

// WithScale sets world units per degree of longitude.
func WithScale(scale float64) ProjectionOption {
	return func(p *Projection) {
		if scale > 0 {
			p.scale = scale
		}
	}
}

// NewProjection creates a Projection centered on Seattle by default.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - *Projection: the projection
func NewProjection(options ...ProjectionOption) *Projection {
	epsg := wgs84.EPSG()
	p := &Projection{
		centerLat:    DefaultCenterLat,
		centerLon:    DefaultCenterLon,
		scale:        DefaultScale,
		toMercator:   epsg.Transform(4326, 3857),
		fromMercator: epsg.Transform(3857, 4326),
	}
	for _, opt := range options {
		opt(p)
	}
	p.centerX, p.centerY = p.mercatorDegrees(p.centerLon, p.centerLat)
	return p
}

// mercatorDegrees returns Web Mercator coordinates expressed in degrees of longitude.
func (p *Projection) mercatorDegrees(lon, lat float64) (x, y float64) {
	mx, my, _ := p.toMercator(lon, lat, 0)
	return mx / metresPerDeg, my / metresPerDeg
}

// Center returns the latitude and longitude of the world origin.
func (p *Projection) Center() (lat, lon float64) { return p.centerLat, p.centerLon }

// Scale returns world units per degree of longitude.
func (p *Projection) Scale() float64 { return p.scale }

// ToWorld projects a geographic point onto the ground plane.
//
// Parameters:
//   - lon, lat: degrees
//
// Returns:
//   - x: world X, east positive
//   - z: world Z, north negative
func (p *Projection) ToWorld(lon, lat float64) (x, z float32) {
	mx, my := p.mercatorDegrees(lon, lat)
	return float32((mx - p.centerX) * p.scale), float32(-(my - p.centerY) * p.scale)
}

// FromWorld is the inverse of ToWorld.
func (p *Projection) FromWorld(x, z float32) (lon, lat float64) {
	mx := (float64(x)/p.scale + p.centerX) * metresPerDeg
	my := (-float64(z)/p.scale + p.centerY) * metresPerDeg
	lon, lat, _ = p.fromMercator(mx, my, 0)
	return lon, lat
}

// WorldPosition returns the world position of a point at an altitude in feet.
func (p *Projection) WorldPosition(lon, lat float64, altitudeFt float32) [3]float32 {
	x, z := p.ToWorld(lon, lat)
	return [3]float32{x, max(altitudeFt, 0) * AltitudeScale, z}
}

// Tile is a slippy-map tile coordinate.
type Tile struct {
	Z, X, Y int
}

func (t Tile) String() string { return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y) }

// TileAt returns the tile containing a point at a zoom level.
func TileAt(lon, lat float64, zoom int) Tile {
	n := math.Exp2(float64(zoom))
	latRad := lat * math.Pi / 180
	x := int(math.Floor((lon + 180) / 360 * n))
	y := int(math.Floor((1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * n))
	maxIdx := int(n) - 1
	return Tile{Z: zoom, X: min(max(x, 0), maxIdx), Y: min(max(y, 0), maxIdx)}
}

// Bounds returns the geographic extent of the tile in degrees.
func (t Tile) Bounds() (minLon, minLat, maxLon, maxLat float64) {
	n := math.Exp2(float64(t.Z))
	minLon = float64(t.X)/n*360 - 180
	maxLon = float64(t.X+1)/n*360 - 180
	maxLat = tileLat(t.Y, n)
	minLat = tileLat(t.Y+1, n)
	return minLon, minLat, maxLon, maxLat
}

func tileLat(y int, n float64) float64 {
	return math.Atan(math.Sinh(math.Pi*(1-2*float64(y)/n))) * 180 / math.Pi
}

// Extent is an axis-aligned rectangle of the world ground plane.
type Extent struct {
	MinX, MinZ, MaxX, MaxZ float32
}

// TileExtent returns the world-space rectangle covered by a tile. The north edge is MinZ.
func (p *Projection) TileExtent(t Tile) Extent {
	minLon, minLat, maxLon, maxLat := t.Bounds()
	minX, minZ := p.ToWorld(minLon, maxLat)
	maxX, maxZ := p.ToWorld(maxLon, minLat)
	return Extent{MinX: minX, MinZ: minZ, MaxX: maxX, MaxZ: maxZ}
}
