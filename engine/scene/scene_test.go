package scene

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-tracker/engine/airspace"
	"github.com/Carmen-Shannon/oxy-tracker/engine/buffer"
	"github.com/Carmen-Shannon/oxy-tracker/engine/camera"
	"github.com/Carmen-Shannon/oxy-tracker/engine/geo"
	"github.com/Carmen-Shannon/oxy-tracker/engine/heatmap"
	"github.com/Carmen-Shannon/oxy-tracker/engine/label"
	"github.com/Carmen-Shannon/oxy-tracker/engine/layout"
	"github.com/Carmen-Shannon/oxy-tracker/engine/palette"
	"github.com/Carmen-Shannon/oxy-tracker/engine/terrain"
	"github.com/Carmen-Shannon/oxy-tracker/engine/track"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScene(t *testing.T, options ...SceneBuilderOption) Scene {
	t.Helper()
	cam := camera.NewCamera(camera.WithPose(camera.NewOrbit()))
	s, err := NewScene("test", cam, append([]SceneBuilderOption{WithWorkers(2)}, options...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func entityAt(id string, x, altitude float32) track.Entity {
	return track.Entity{
		ID:       id,
		Callsign: "T" + id,
		Position: [3]float32{x, altitude * geo.AltitudeScale, 0},
		Altitude: altitude,
		Category: track.CategoryJet,
	}
}

func readColors(v buffer.View) [][4]float32 {
	stride := layout.KindAircraftInstance.Size()
	out := make([][4]float32, v.Count)
	for i := range out {
		for c := range 4 {
			off := i*stride + 64 + c*4
			out[i][c] = math.Float32frombits(binary.LittleEndian.Uint32(v.Bytes[off:]))
		}
	}
	return out
}

func TestUpdateAltitudeRamp(t *testing.T) {
	s := newTestScene(t)
	altitudes := []float32{0, 5000, 10000, 15000}
	entities := make([]track.Entity, len(altitudes))
	for i, alt := range altitudes {
		entities[i] = entityAt(string(rune('a'+i)), float32(i), alt)
	}

	frame, err := s.Update(context.Background(), track.NewSnapshot(entities, ""), 1.0/60)
	require.NoError(t, err)

	v := frame.View(buffer.Aircraft)
	require.Equal(t, len(altitudes), v.Count)
	assert.Len(t, v.Bytes, len(altitudes)*96)

	ramp := palette.DefaultRamp()
	for i, c := range readColors(v) {
		assert.Equal(t, ramp.Color(altitudes[i]), c, "altitude %v", altitudes[i])
	}

	st := s.Stats()
	assert.Equal(t, frame.Seq, st.Seq)
	assert.Equal(t, 4, st.Aircraft)
	assert.Equal(t, 4, st.Glow)
	assert.Equal(t, 4, st.Labels)
	assert.Equal(t, 2*st.Labels, st.AltLineVertices)
	assert.Equal(t, 0, st.Skipped)
}

func TestUpdateInstanceCountTracksEntities(t *testing.T) {
	s := newTestScene(t)
	for _, n := range []int{0, 3, 40, 7} {
		entities := make([]track.Entity, n)
		for i := range entities {
			entities[i] = entityAt(string(rune('A'+i)), float32(i), 3000)
		}
		frame, err := s.Update(context.Background(), track.NewSnapshot(entities, ""), 0.016)
		require.NoError(t, err)
		assert.Equal(t, n, frame.View(buffer.Aircraft).Count)
		assert.Equal(t, n, frame.View(buffer.Glow).Count)
		assert.Len(t, frame.View(buffer.Aircraft).Bytes, n*96)
	}
}

func TestUpdateTrailGrowsWithHistory(t *testing.T) {
	s := newTestScene(t)
	for i := range 5 {
		snap := track.NewSnapshot([]track.Entity{entityAt("a", float32(i), 8000)}, "")
		frame, err := s.Update(context.Background(), snap, 0.016)
		require.NoError(t, err)
		assert.Equal(t, 2*(i+1), frame.View(buffer.Trail).Count, "after %d samples", i+1)
	}
	assert.Len(t, s.History().Path("a"), 5)
}

func TestUpdateSkipsInvalidEntities(t *testing.T) {
	s := newTestScene(t)
	bad := entityAt("bad", 0, 1000)
	bad.Position[0] = float32(math.NaN())
	snap := track.NewSnapshot([]track.Entity{entityAt("ok", 0, 1000), bad, {}}, "")

	frame, err := s.Update(context.Background(), snap, 0.016)
	require.NoError(t, err)
	assert.Equal(t, 1, frame.View(buffer.Aircraft).Count)
	assert.Equal(t, 2, s.Stats().Skipped)
}

func TestThemeTintsAircraft(t *testing.T) {
	s := newTestScene(t, WithTheme(palette.ThemeRetro))
	assert.Equal(t, palette.ThemeRetro, s.Theme())
	snap := track.NewSnapshot([]track.Entity{entityAt("a", 0, 30000)}, "")

	frame, err := s.Update(context.Background(), snap, 0.016)
	require.NoError(t, err)
	assert.Equal(t, [4]float32{0, 1, 0, 1}, readColors(frame.View(buffer.Aircraft))[0])

	s.SetTheme(palette.ThemeDay)
	frame, err = s.Update(context.Background(), snap, 0.016)
	require.NoError(t, err)
	assert.Equal(t, palette.DefaultRamp().Color(30000), readColors(frame.View(buffer.Aircraft))[0])
}

func TestStaticBuffersCarryForward(t *testing.T) {
	s := newTestScene(t)
	s.SetZones([]airspace.Zone{{
		Name:      "delta",
		Class:     palette.ClassD,
		Ring:      [][2]float64{{-122.4, 47.5}, {-122.2, 47.5}, {-122.2, 47.7}, {-122.4, 47.7}},
		CeilingFt: 2500,
	}})
	s.SetTerrain(terrain.BuildMesh(terrain.Flat(0), geo.Extent{MaxX: 1, MaxZ: 1}, 2, 1))

	snap := track.NewSnapshot(nil, "")
	f1, err := s.Update(context.Background(), snap, 0.016)
	require.NoError(t, err)
	fill := f1.View(buffer.AirspaceFill)
	assert.Equal(t, 36, fill.Count)
	assert.Equal(t, 24, f1.View(buffer.AirspaceEdge).Count)
	assert.Equal(t, 9, f1.View(buffer.Terrain).Count)
	assert.Equal(t, 24, f1.View(buffer.TerrainIndex).Count)
	require.Len(t, f1.Batches(buffer.AirspaceFill), 1)
	assert.Equal(t, "D", f1.Batches(buffer.AirspaceFill)[0].Name)

	f2, err := s.Update(context.Background(), snap, 0.016)
	require.NoError(t, err)
	assert.Equal(t, fill.Version, f2.View(buffer.AirspaceFill).Version)
	assert.Equal(t, 36, f2.View(buffer.AirspaceFill).Count)
	assert.Greater(t, f2.Seq, f1.Seq)

	s.Airspace().SetVisible(palette.ClassD, false)
	f3, err := s.Update(context.Background(), snap, 0.016)
	require.NoError(t, err)
	assert.Equal(t, 0, f3.View(buffer.AirspaceFill).Count)
	assert.NotEqual(t, fill.Version, f3.View(buffer.AirspaceFill).Version)
}

func TestHeldFramesAreNotOverwritten(t *testing.T) {
	s := newTestScene(t, WithBufferSet(buffer.NewSet(buffer.WithBanks(2))))
	snap := track.NewSnapshot([]track.Entity{entityAt("a", 0, 1000)}, "")

	_, err := s.Update(context.Background(), snap, 0.016)
	require.NoError(t, err)
	held := s.Buffers().Acquire()
	require.NotNil(t, held)

	_, err = s.Update(context.Background(), snap, 0.016)
	require.NoError(t, err)
	_, err = s.Update(context.Background(), snap, 0.016)
	assert.ErrorIs(t, err, buffer.ErrNoFreeBank)

	s.Buffers().Release(held)
	_, err = s.Update(context.Background(), snap, 0.016)
	assert.NoError(t, err)
}

func TestLoadTerrainRequiresSource(t *testing.T) {
	s := newTestScene(t)
	err := s.LoadTerrain(context.Background(), []geo.Tile{{Z: 10, X: 164, Y: 357}})
	assert.ErrorIs(t, err, ErrNoTerrainSource)
}

type flatSource struct{}

func (flatSource) Heightmap(context.Context, geo.Tile) (terrain.Heightmap, error) {
	return terrain.Flat(10), nil
}

func TestLoadTerrain(t *testing.T) {
	cache := terrain.NewCache(nil, terrain.WithSubdivisions(4))
	s := newTestScene(t, WithTerrain(cache, flatSource{}))
	tiles := []geo.Tile{{Z: 10, X: 164, Y: 357}, {Z: 10, X: 165, Y: 357}}
	require.NoError(t, s.LoadTerrain(context.Background(), tiles))

	frame, err := s.Update(context.Background(), track.NewSnapshot(nil, ""), 0.016)
	require.NoError(t, err)
	assert.Equal(t, 2*25, frame.View(buffer.Terrain).Count)
	assert.Equal(t, 2*96, frame.View(buffer.TerrainIndex).Count)
	assert.Equal(t, 2, cache.Len())
}

func TestUniformsFollowCamera(t *testing.T) {
	orbit := camera.NewOrbit()
	cam := camera.NewCamera(camera.WithPose(orbit))
	s, err := NewScene("uniforms", cam)
	require.NoError(t, err)

	frame, err := s.Update(context.Background(), track.NewSnapshot(nil, ""), 0.016)
	require.NoError(t, err)
	assert.Equal(t, orbit.Position(), frame.Uniforms.CameraPosition)
	assert.Equal(t, cam.ViewMatrix(), frame.Uniforms.ViewMatrix)
}

func TestCancelledUpdatePublishesNothing(t *testing.T) {
	s := newTestScene(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	frame, err := s.Update(ctx, track.NewSnapshot([]track.Entity{entityAt("a", 0, 1000)}, ""), 0.016)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, frame)
	assert.Nil(t, s.Buffers().Latest())

	frame, err = s.Update(context.Background(), track.NewSnapshot([]track.Entity{entityAt("a", 0, 1000)}, ""), 0.016)
	require.NoError(t, err)
	assert.Equal(t, 1, frame.View(buffer.Aircraft).Count)
}

func TestOutOfViewAircraftKeepBodyOnly(t *testing.T) {
	s := newTestScene(t)
	// The default orbit looks at the origin from +z; z=400 is behind the eye yet
	// inside the label fade distance.
	behind := entityAt("behind", 0, 0)
	behind.Position[2] = 400
	snap := track.NewSnapshot([]track.Entity{entityAt("front", 0, 3000), behind}, "")

	frame, err := s.Update(context.Background(), snap, 0.016)
	require.NoError(t, err)
	assert.Equal(t, 2, frame.View(buffer.Aircraft).Count)
	assert.Equal(t, 1, frame.View(buffer.Glow).Count)
	st := s.Stats()
	assert.Equal(t, 1, st.Labels)
	assert.Equal(t, 1, st.Culled)
}

func TestSteadyStateUpdateAllocationsAreBounded(t *testing.T) {
	s := newTestScene(t, WithLabelOptions(label.WithMaxLabels(200)))
	entities := make([]track.Entity, 500)
	for i := range entities {
		entities[i] = entityAt(fmt.Sprintf("e%03d", i), float32(i%50)-25, float32(1000+i*10))
		entities[i].Position[2] = float32(i/50) - 5
	}
	snap := track.NewSnapshot(entities, "")
	ctx := context.Background()
	for range 20 {
		_, err := s.Update(ctx, snap, 0.016)
		require.NoError(t, err)
	}

	allocs := testing.AllocsPerRun(10, func() {
		_, _ = s.Update(ctx, snap, 0.016)
	})
	// Per-entity allocation would cost at least one object per aircraft.
	assert.Less(t, allocs, float64(50))
}

func TestCloseStopsUpdates(t *testing.T) {
	s := newTestScene(t)
	_, err := s.Update(context.Background(), track.NewSnapshot(nil, ""), 0.016)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	_, err = s.Update(context.Background(), track.NewSnapshot(nil, ""), 0.016)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestAirspaceNamesAreLabelled(t *testing.T) {
	s := newTestScene(t)
	s.SetZones([]airspace.Zone{{
		Name:      "CENTER",
		Class:     palette.ClassB,
		Ring:      [][2]float64{{-122.35, 47.55}, {-122.25, 47.55}, {-122.25, 47.65}, {-122.35, 47.65}},
		FloorFt:   0,
		CeilingFt: 10000,
	}})

	frame, err := s.Update(context.Background(), track.NewSnapshot(nil, ""), 0.016)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Stats().Anchors)
	assert.Equal(t, 1, frame.View(buffer.Label).Count)
	assert.Equal(t, 0, frame.View(buffer.AltLine).Count)
}

func TestHeatmapPublishesQuadAndTexels(t *testing.T) {
	s := newTestScene(t, WithHeatmap(geo.Extent{MinX: -50, MinZ: -50, MaxX: 50, MaxZ: 50}, 2))
	snap := track.NewSnapshot([]track.Entity{entityAt("a", 0, 1000)}, "")

	frame, err := s.Update(context.Background(), snap, 0.016)
	require.NoError(t, err)
	quad := frame.View(buffer.HeatmapQuad)
	assert.Equal(t, 6, quad.Count)
	assert.Len(t, quad.Bytes, 6*layout.KindTexturedVertex.Size())
	texels := frame.View(buffer.HeatmapTexels)
	assert.Equal(t, heatmap.Size*heatmap.Size, texels.Count)
	assert.Len(t, texels.Bytes, heatmap.Size*heatmap.Size*4)

	// Nothing changes until the refresh interval elapses.
	frame, err = s.Update(context.Background(), snap, 0.016)
	require.NoError(t, err)
	assert.Equal(t, texels.Version, frame.View(buffer.HeatmapTexels).Version)
	frame, err = s.Update(context.Background(), snap, 0.016)
	require.NoError(t, err)
	assert.NotEqual(t, texels.Version, frame.View(buffer.HeatmapTexels).Version)

	s.SetHeatmapExtent(geo.Extent{MinX: 500, MinZ: 500, MaxX: 600, MaxZ: 600})
	frame, err = s.Update(context.Background(), snap, 0.016)
	require.NoError(t, err)
	assert.Equal(t, 0, frame.View(buffer.HeatmapQuad).Count, "a reset grid with no detections is hidden")
}
