package airspace

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-tracker/engine/geo"
	"github.com/Carmen-Shannon/oxy-tracker/engine/palette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(name string, class palette.AirspaceClass, floor, ceiling float32) Zone {
	return Zone{
		Name:  name,
		Class: class,
		Ring: [][2]float64{
			{-122.4, 47.5}, {-122.2, 47.5}, {-122.2, 47.7}, {-122.4, 47.7},
		},
		FloorFt:   floor,
		CeilingFt: ceiling,
	}
}

var (
	fillColor = [4]float32{0.2, 0.4, 1, 0.06}
	edgeColor = [4]float32{0.2, 0.4, 1, 0.3}
)

func TestBuildMeshPrism(t *testing.T) {
	m, err := BuildMesh(square("SEA", palette.ClassB, 0, 2500), geo.NewProjection(), fillColor, edgeColor)
	require.NoError(t, err)

	// 2 floor + 2 ceiling triangles, 4 walls of 2 triangles
	assert.Len(t, m.Fill, 2*3+2*3+4*6)
	assert.Len(t, m.Edges, 4*6)

	for i := range 6 {
		assert.Equal(t, float32(0), m.Fill[i].Position[1])
		assert.InDelta(t, 2.5, m.Fill[6+i].Position[1], 1e-6)
	}
	// ceiling winding is reversed
	assert.Equal(t, m.Fill[0].Position[0], m.Fill[6].Position[0])
	assert.Equal(t, m.Fill[2].Position[0], m.Fill[7].Position[0])
	assert.Equal(t, m.Fill[2].Position[2], m.Fill[7].Position[2])
	assert.Equal(t, m.Fill[1].Position[2], m.Fill[8].Position[2])
	assert.Equal(t, m.Fill[1].Position[0], m.Fill[8].Position[0])

	for _, v := range m.Fill {
		assert.Equal(t, fillColor, v.Color)
	}
	for _, v := range m.Edges {
		assert.Equal(t, edgeColor, v.Color)
	}

	// first edge group: floor segment, ceiling segment, vertical at the first point
	e := m.Edges[:6]
	assert.Equal(t, e[0].Position[0], e[4].Position[0])
	assert.Equal(t, float32(0), e[4].Position[1])
	assert.InDelta(t, 2.5, e[5].Position[1], 1e-6)
	assert.Equal(t, e[4].Position[0], e[5].Position[0])
	assert.Equal(t, e[1].Position[0], e[3].Position[0])
}

func TestMinimumHeight(t *testing.T) {
	floor, ceiling := Heights(square("thin", palette.ClassD, 1000, 1000))
	assert.InDelta(t, 1.0, floor, 1e-6)
	assert.InDelta(t, 1.5, ceiling, 1e-6)

	floor, ceiling = Heights(square("inverted", palette.ClassD, 3000, 0))
	assert.InDelta(t, 3.0, floor, 1e-6)
	assert.InDelta(t, 3.5, ceiling, 1e-6)
}

func TestBuildMeshRejectsDegenerateRing(t *testing.T) {
	z := Zone{Name: "line", Class: palette.ClassC, Ring: [][2]float64{{0, 0}, {1, 1}}}
	_, err := BuildMesh(z, geo.NewProjection(), fillColor, edgeColor)
	assert.ErrorIs(t, err, ErrBadZone)
}

func TestParseAltitude(t *testing.T) {
	tests := []struct {
		value any
		unit  string
		want  float32
	}{
		{float64(2500), "FT", 2500},
		{"4000", "FT", 4000},
		{float64(100), "FL", 10000},
		{"180", "fl", 18000},
		{nil, "FT", 0},
		{"SFC", "FT", 0},
		{true, "FT", 0},
		{int(700), "", 700},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseAltitude(tt.value, tt.unit), "%v %s", tt.value, tt.unit)
	}
}

func TestLayerOrderAndToggles(t *testing.T) {
	l := NewLayer(nil, WithWorkers(2))
	assert.False(t, l.Dirty())
	l.SetZones([]Zone{
		square("bravo", palette.ClassB, 0, 10000),
		square("delta", palette.ClassD, 0, 2500),
		square("charlie", palette.ClassC, 0, 4000),
		square("other", palette.ClassOther, 0, 4000),
		{Name: "broken", Class: palette.ClassD, Ring: [][2]float64{{0, 0}}},
	})
	assert.True(t, l.Dirty())

	res, err := l.Build(context.Background())
	require.NoError(t, err)
	assert.False(t, l.Dirty())
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Classes, 3)
	assert.Equal(t, []string{"D", "C", "B"}, []string{res.Classes[0].Name, res.Classes[1].Name, res.Classes[2].Name})
	assert.Equal(t, 0, res.Classes[0].Offset)
	assert.Equal(t, 36, res.Classes[0].Count)
	assert.Equal(t, 36, res.Classes[1].Offset)
	assert.Len(t, res.Fill, 3*36)
	assert.Len(t, res.Edges, 3*24)

	day := palette.ThemeDay.Config()
	assert.Equal(t, day.AirspaceFillColor(palette.ClassD), res.Fill[0].Color)
	assert.Equal(t, day.AirspaceEdgeColor(palette.ClassB), res.Edges[len(res.Edges)-1].Color)

	l.SetVisible(palette.ClassC, false)
	assert.True(t, l.Dirty())
	assert.False(t, l.Visible(palette.ClassC))
	res, err = l.Build(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Classes, 2)
	assert.Len(t, res.Fill, 2*36)

	l.SetVisible(palette.ClassC, false)
	assert.False(t, l.Dirty())
}

func TestLayerThemeChange(t *testing.T) {
	l := NewLayer(nil, WithClasses(palette.ClassB))
	l.SetZones([]Zone{square("bravo", palette.ClassB, 0, 10000)})
	_, err := l.Build(context.Background())
	require.NoError(t, err)

	retro := palette.ThemeRetro.Config()
	l.SetTheme(retro)
	assert.True(t, l.Dirty())
	res, err := l.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, retro.AirspaceFillColor(palette.ClassB), res.Fill[0].Color)
}

func TestLayerBuildCancelled(t *testing.T) {
	l := NewLayer(nil)
	l.SetZones([]Zone{square("bravo", palette.ClassB, 0, 10000)})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.Build(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, l.Dirty())
}

// onWarn runs a hook the first time a warning is logged.
type onWarn struct {
	slog.Handler
	once sync.Once
	hook func()
}

func (h *onWarn) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelWarn {
		h.once.Do(h.hook)
	}
	return nil
}

func TestLayerChangeDuringBuildStaysDirty(t *testing.T) {
	h := &onWarn{Handler: slog.NewTextHandler(io.Discard, nil)}
	l := NewLayer(nil, WithWorkers(1), WithLogger(slog.New(h)))
	broken := Zone{Name: "broken", Class: palette.ClassB, Ring: [][2]float64{{0, 0}, {1, 1}}}
	l.SetZones([]Zone{broken, square("bravo", palette.ClassB, 0, 10000)})

	// The warning for the broken zone is logged mid-build; replace the zones then.
	h.hook = func() { l.SetZones([]Zone{square("charlie", palette.ClassC, 0, 4000)}) }

	res, err := l.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	assert.True(t, l.Dirty(), "a change made while building must not be lost")

	res, err = l.Build(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Classes, 1)
	assert.Equal(t, palette.ClassC.String(), res.Classes[0].Name)
	assert.False(t, l.Dirty())
}

func TestBuildAnchorsOnePerName(t *testing.T) {
	l := NewLayer(nil)
	l.SetZones([]Zone{
		square("SEA", palette.ClassB, 0, 10000),
		square("SEA", palette.ClassB, 3000, 10000),
		square("BFI", palette.ClassD, 0, 2500),
		square("", palette.ClassD, 0, 2500),
	})
	res, err := l.Build(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Anchors, 2)
	assert.Equal(t, "BFI", res.Anchors[0].Name, "anchors follow draw order")
	assert.Equal(t, "SEA", res.Anchors[1].Name)

	proj := geo.NewProjection()
	want := proj.WorldPosition(-122.3, 47.6, 5000)
	assert.InDelta(t, want[0], res.Anchors[1].Position[0], 1e-3)
	assert.InDelta(t, want[1], res.Anchors[1].Position[1], 1e-6)
	assert.InDelta(t, want[2], res.Anchors[1].Position[2], 1e-3)
}

const featureCollection = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"NAME": "SEATTLE CLASS B", "CLASS": "B", "LOWER_VAL": 0, "LOWER_UOM": "FT", "UPPER_VAL": 100, "UPPER_UOM": "FL"},
      "geometry": {"type": "Polygon", "coordinates": [[[-122.4, 47.5], [-122.2, 47.5], [-122.2, 47.7], [-122.4, 47.7], [-122.4, 47.5]]]}
    },
    {
      "type": "Feature",
      "properties": {"CLASS": "D", "LOWER_VAL": "0", "UPPER_VAL": "2500"},
      "geometry": {"type": "MultiPolygon", "coordinates": [[[[-122.0, 47.0], [-121.9, 47.0], [-121.9, 47.1], [-122.0, 47.0]]]]}
    },
    {
      "type": "Feature",
      "properties": {"NAME": "no class"},
      "geometry": {"type": "Polygon", "coordinates": [[[-122.4, 47.5], [-122.2, 47.5], [-122.2, 47.7], [-122.4, 47.5]]]}
    },
    {
      "type": "Feature",
      "properties": {"NAME": "beacon", "CLASS": "C"},
      "geometry": {"type": "Point", "coordinates": [-122.3, 47.6]}
    }
  ]
}`

func TestParseGeoJSON(t *testing.T) {
	zones, err := ParseGeoJSON(strings.NewReader(featureCollection))
	require.NoError(t, err)
	require.Len(t, zones, 2)

	b := zones[0]
	assert.Equal(t, "SEATTLE CLASS B", b.Name)
	assert.Equal(t, palette.ClassB, b.Class)
	assert.Len(t, b.Ring, 4)
	assert.Equal(t, [2]float64{-122.4, 47.5}, b.Ring[0])
	assert.Equal(t, float32(0), b.FloorFt)
	assert.Equal(t, float32(10000), b.CeilingFt)

	d := zones[1]
	assert.Equal(t, "Unknown", d.Name)
	assert.Equal(t, palette.ClassD, d.Class)
	assert.Len(t, d.Ring, 3)
	assert.Equal(t, float32(2500), d.CeilingFt)
}

func TestParseGeoJSONErrors(t *testing.T) {
	_, err := ParseGeoJSON(strings.NewReader(`{"type": "FeatureCollection", "features": []}`))
	assert.ErrorIs(t, err, ErrNoFeatures)

	_, err = ParseGeoJSON(strings.NewReader(`not json`))
	assert.Error(t, err)
}

func TestSnapshotRoundTrip(t *testing.T) {
	in := Snapshot{
		Bounds:  Bounds{West: -123, South: 47, East: -121, North: 48},
		Fetched: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Zones:   []Zone{square("bravo", palette.ClassB, 0, 10000), square("delta", palette.ClassD, 0, 2500)},
	}
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, in))

	out, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, in.Bounds, out.Bounds)
	assert.True(t, in.Fetched.Equal(out.Fetched))
	assert.Equal(t, in.Zones, out.Zones)
}

func TestSnapshotFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "airspace", "zones.msgpack.zst")
	s := Snapshot{Fetched: time.Now().Add(-2 * time.Hour), Zones: []Zone{square("delta", palette.ClassD, 0, 2500)}}
	require.NoError(t, SaveFile(path, s))

	got, err := LoadFile(path, 0)
	require.NoError(t, err)
	assert.Len(t, got.Zones, 1)

	_, err = LoadFile(path, time.Hour)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing"), 0)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNeedsRefetch(t *testing.T) {
	last := Bounds{West: -123, South: 47, East: -121, North: 48}
	assert.True(t, last.NeedsRefetch(nil))
	assert.False(t, last.NeedsRefetch(&last))

	small := Bounds{West: -122.9, South: 47.05, East: -120.9, North: 48.05}
	assert.False(t, small.NeedsRefetch(&last))

	moved := Bounds{West: -122.5, South: 47, East: -120.5, North: 48}
	assert.True(t, moved.NeedsRefetch(&last))
}
