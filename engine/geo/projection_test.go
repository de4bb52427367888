package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func mercatorDeg(lat float64) float64 {
	r := lat * math.Pi / 180
	return math.Log(math.Tan(math.Pi/4+r/2)) * 180 / math.Pi
}

func TestCenterMapsToOrigin(t *testing.T) {
	p := NewProjection()
	x, z := p.ToWorld(DefaultCenterLon, DefaultCenterLat)
	assert.InDelta(t, 0, x, 1e-3)
	assert.InDelta(t, 0, z, 1e-3)
}

func TestToWorldMatchesMercator(t *testing.T) {
	p := NewProjection()
	tests := []struct{ lon, lat float64 }{
		{-122.3, 47.6}, {-121.3, 47.6}, {-122.3, 48.6}, {-123.0, 46.9}, {0, 0},
	}
	for _, tt := range tests {
		x, z := p.ToWorld(tt.lon, tt.lat)
		wantX := (tt.lon - DefaultCenterLon) * DefaultScale
		wantZ := -(mercatorDeg(tt.lat) - mercatorDeg(DefaultCenterLat)) * DefaultScale
		assert.InDelta(t, wantX, x, 0.05, "lon=%v", tt.lon)
		assert.InDelta(t, wantZ, z, 0.05, "lat=%v", tt.lat)
	}
}

func TestNorthIsNegativeZ(t *testing.T) {
	p := NewProjection()
	_, z := p.ToWorld(DefaultCenterLon, DefaultCenterLat+0.1)
	assert.Less(t, z, float32(0))
	x, _ := p.ToWorld(DefaultCenterLon+0.1, DefaultCenterLat)
	assert.Greater(t, x, float32(0))
}

func TestFromWorldRoundTrip(t *testing.T) {
	p := NewProjection(WithCenter(40, -74), WithScale(250))
	lon, lat := -73.5, 40.3
	x, z := p.ToWorld(lon, lat)
	gotLon, gotLat := p.FromWorld(x, z)
	assert.InDelta(t, lon, gotLon, 1e-4)
	assert.InDelta(t, lat, gotLat, 1e-4)
	assert.Equal(t, 250.0, p.Scale())
}

func TestWorldPositionScalesAltitude(t *testing.T) {
	p := NewProjection()
	pos := p.WorldPosition(DefaultCenterLon, DefaultCenterLat, 35000)
	assert.InDelta(t, 35, pos[1], 1e-4)
	assert.Equal(t, float32(0), p.WorldPosition(0, 0, -100)[1])
}

func TestTiles(t *testing.T) {
	tile := TileAt(DefaultCenterLon, DefaultCenterLat, 10)
	assert.Equal(t, Tile{Z: 10, X: 164, Y: 357}, tile)
	assert.Equal(t, "10/164/357", tile.String())

	minLon, minLat, maxLon, maxLat := tile.Bounds()
	assert.Less(t, minLon, DefaultCenterLon)
	assert.Greater(t, maxLon, DefaultCenterLon)
	assert.Less(t, minLat, DefaultCenterLat)
	assert.Greater(t, maxLat, DefaultCenterLat)

	ext := NewProjection().TileExtent(tile)
	assert.Less(t, ext.MinX, ext.MaxX)
	assert.Less(t, ext.MinZ, ext.MaxZ)
	assert.InDelta(t, 360.0/1024*DefaultScale, ext.MaxX-ext.MinX, 0.05)
}
