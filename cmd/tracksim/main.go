// Command tracksim drives the tracker scene headlessly from simulated traffic.
// Frames are uploaded to a GPU device when --gpu is set, otherwise they are only counted.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/Carmen-Shannon/oxy-tracker/config"
	"github.com/Carmen-Shannon/oxy-tracker/engine"
	"github.com/Carmen-Shannon/oxy-tracker/engine/aircraft"
	"github.com/Carmen-Shannon/oxy-tracker/engine/airspace"
	"github.com/Carmen-Shannon/oxy-tracker/engine/buffer"
	"github.com/Carmen-Shannon/oxy-tracker/engine/camera"
	"github.com/Carmen-Shannon/oxy-tracker/engine/geo"
	"github.com/Carmen-Shannon/oxy-tracker/engine/label"
	"github.com/Carmen-Shannon/oxy-tracker/engine/model"
	"github.com/Carmen-Shannon/oxy-tracker/engine/renderer"
	"github.com/Carmen-Shannon/oxy-tracker/engine/scene"
	"github.com/Carmen-Shannon/oxy-tracker/engine/terrain"
	"github.com/Carmen-Shannon/oxy-tracker/engine/track"
	"github.com/Carmen-Shannon/oxy-tracker/logger"
	"github.com/spf13/pflag"
)

func main() {
	configDir := pflag.String("config", ".", "directory containing "+config.FileName)
	duration := pflag.Duration("duration", 0, "stop after this long (0 runs until interrupted)")
	geojsonPath := pflag.String("airspace", "", "GeoJSON file of airspace zones")
	tilesDir := pflag.String("tiles", "", "directory of Terrarium PNG tiles laid out as z/x/y.png")
	fleet := pflag.Int("aircraft", 200, "number of simulated aircraft")
	seed := pflag.Uint64("seed", 1, "simulation seed")
	gpu := pflag.Bool("gpu", false, "upload frames to a headless GPU device")
	pflag.Parse()

	if err := run(*configDir, *duration, *geojsonPath, *tilesDir, *fleet, *seed, *gpu); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configDir string, duration time.Duration, geojsonPath, tilesDir string, fleet int, seed uint64, gpu bool) error {
	if err := config.Load(configDir); err != nil {
		fmt.Fprintf(os.Stderr, "%v; using defaults\n", err)
	}
	cfg, err := config.Scene()
	if err != nil {
		return err
	}

	lg := logger.New(cfg.LogLevel, cfg.LogsDir)
	defer lg.Close()
	log := lg.Slog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	proj := geo.NewProjection(geo.WithCenter(cfg.CenterLat, cfg.CenterLon), geo.WithScale(cfg.Scale))

	layer := airspace.NewLayer(proj,
		airspace.WithClasses(cfg.AirspaceClasses...),
		airspace.WithLogger(log),
	)
	zones, err := loadZones(cfg, proj, geojsonPath)
	if err != nil {
		lg.Warnf("airspace unavailable: %v", err)
	}
	layer.SetZones(zones)

	cam := camera.NewCamera(camera.WithPose(camera.NewOrbit(camera.WithAutoRotate(0.05))))
	options := []scene.SceneBuilderOption{
		scene.WithTheme(cfg.Theme),
		scene.WithRamp(cfg.Ramp),
		scene.WithLogger(log),
		scene.WithAirspace(layer),
		scene.WithBufferSet(buffer.NewSet(
			buffer.WithBanks(cfg.Banks),
			buffer.WithInitialCapacity(cfg.InitialCapacity),
		)),
		scene.WithHistory(track.NewHistory(
			track.WithMaxLength(cfg.TrailMaxLength),
			track.WithMinSpacing(cfg.TrailMinSpacing),
			track.WithStaleAfter(cfg.TrailStaleAfter),
		)),
		scene.WithAtlas(label.NewAtlas(
			label.WithStaleFrames(cfg.AtlasStaleFrames),
			label.WithAtlasLogger(log),
		)),
		scene.WithAnimatorOptions(aircraft.WithSeed(seed), aircraft.WithSpeedFactor(cfg.SpeedFactor)),
		scene.WithAircraftOptions(aircraft.WithMaxInstances(cfg.MaxInstances)),
		scene.WithLabelOptions(label.WithFade(cfg.FadeNear, cfg.FadeFar), label.WithMaxLabels(cfg.MaxLabels)),
	}
	if cfg.Workers > 0 {
		options = append(options, scene.WithWorkers(cfg.Workers))
	}
	if r := cfg.HeatmapRadius; r > 0 {
		options = append(options, scene.WithHeatmap(geo.Extent{MinX: -r, MinZ: -r, MaxX: r, MaxZ: r}, cfg.HeatmapRefresh))
	}
	if tilesDir != "" {
		cache := terrain.NewCache(proj,
			terrain.WithCacheSize(cfg.TerrainCacheSize),
			terrain.WithSubdivisions(cfg.TerrainSubdivisions),
			terrain.WithElevationScale(cfg.TerrainElevationScale),
			terrain.WithWorkers(cfg.TerrainWorkers),
			terrain.WithLogger(log),
		)
		options = append(options, scene.WithTerrain(cache, terrain.DirSource{Root: tilesDir}))
	}

	sc, err := scene.NewScene("tracksim", cam, options...)
	if err != nil {
		return err
	}
	defer func() {
		if err := sc.Close(); err != nil {
			lg.Warnf("closing scene: %v", err)
		}
	}()
	if tilesDir != "" {
		if err := sc.LoadTerrain(ctx, tilesAround(cfg.CenterLat, cfg.CenterLon, cfg.TerrainZoom)); err != nil {
			lg.Warnf("terrain unavailable: %v", err)
		}
	}

	var sink engine.FrameSink = engine.FrameSinkFunc(func(context.Context, *buffer.Frame) error { return nil })
	if gpu {
		dev, err := renderer.RequestHeadlessDevice(false)
		if err != nil {
			return err
		}
		up := renderer.NewUploader(dev, renderer.WithLogger(log))
		if err := up.InitMeshBuffers(model.NewLibrary()); err != nil {
			up.Close()
			return err
		}
		defer func() {
			st := up.Stats()
			log.Info("upload totals", "frames", st.Frames, "writes", st.Writes, "bytes", st.Bytes,
				"skipped", st.Skipped, "reallocs", st.Reallocs)
			up.Close()
		}()
		sink = up
	}

	eng := engine.NewEngine(sc,
		engine.WithTickRate(cfg.TickRate),
		engine.WithProfiling(cfg.Profiling),
		engine.WithSource(newSimulator(proj, fleet, seed)),
		engine.WithSink(sink),
		engine.WithLogger(log),
	)

	lg.Infof("tracksim running with %d aircraft", fleet)
	if err := eng.Run(ctx); err != nil {
		return err
	}

	ticks, dropped, consumed := eng.Counters()
	st := sc.Stats()
	fmt.Printf("ticks=%d dropped=%d consumed=%d aircraft=%d labels=%d trail_vertices=%d\n",
		ticks, dropped, consumed, st.Aircraft, st.Labels, st.TrailVertices)
	return nil
}

// loadZones reads zones from the msgpack cache when it is fresh, otherwise parses the
// GeoJSON file and refreshes the cache.
func loadZones(cfg config.SceneConfig, proj *geo.Projection, geojsonPath string) ([]airspace.Zone, error) {
	bounds := viewBounds(proj)
	if cfg.AirspaceCacheFile != "" {
		snap, err := airspace.LoadFile(cfg.AirspaceCacheFile, cfg.AirspaceCacheMaxAge)
		if err == nil && !bounds.NeedsRefetch(&snap.Bounds) {
			return snap.Zones, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	if geojsonPath == "" {
		return nil, nil
	}

	f, err := os.Open(geojsonPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	zones, err := airspace.ParseGeoJSON(f)
	if err != nil {
		return nil, err
	}

	if cfg.AirspaceCacheFile != "" {
		snap := airspace.Snapshot{Bounds: bounds, Fetched: time.Now(), Zones: zones}
		if err := airspace.SaveFile(cfg.AirspaceCacheFile, snap); err != nil {
			return zones, err
		}
	}
	return zones, nil
}

// viewBounds is the lon/lat rectangle around the projection center that zones are kept for.
func viewBounds(proj *geo.Projection) airspace.Bounds {
	lat, lon := proj.Center()
	return airspace.Bounds{West: lon - 1, South: lat - 1, East: lon + 1, North: lat + 1}
}

// tilesAround returns the 3x3 block of tiles centered on a point.
func tilesAround(lat, lon float64, zoom int) []geo.Tile {
	c := geo.TileAt(lon, lat, zoom)
	n := 1 << zoom
	var tiles []geo.Tile
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			x, y := c.X+dx, c.Y+dy
			if x < 0 || y < 0 || x >= n || y >= n {
				continue
			}
			tiles = append(tiles, geo.Tile{Z: zoom, X: x, Y: y})
		}
	}
	return tiles
}
