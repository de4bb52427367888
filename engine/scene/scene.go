package scene

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-tracker/common"
	"github.com/Carmen-Shannon/oxy-tracker/engine/aircraft"
	"github.com/Carmen-Shannon/oxy-tracker/engine/airspace"
	"github.com/Carmen-Shannon/oxy-tracker/engine/buffer"
	"github.com/Carmen-Shannon/oxy-tracker/engine/camera"
	"github.com/Carmen-Shannon/oxy-tracker/engine/geo"
	"github.com/Carmen-Shannon/oxy-tracker/engine/heatmap"
	"github.com/Carmen-Shannon/oxy-tracker/engine/label"
	"github.com/Carmen-Shannon/oxy-tracker/engine/palette"
	"github.com/Carmen-Shannon/oxy-tracker/engine/terrain"
	"github.com/Carmen-Shannon/oxy-tracker/engine/track"
	"github.com/Carmen-Shannon/oxy-tracker/engine/trail"
)

// ErrNoTerrainSource is returned by LoadTerrain when the scene has no tile source.
var ErrNoTerrainSource = errors.New("scene: no terrain tile source configured")

// ErrClosed is returned by Update after Close.
var ErrClosed = errors.New("scene: closed")

// cullRadius is the bounding sphere radius of an aircraft and its label for frustum tests.
const cullRadius = 10

// anchorPrefix keeps airspace label atlas keys apart from entity IDs.
const anchorPrefix = "airspace:"

// Stats describes the last published frame.
type Stats struct {
	Seq             uint64
	Aircraft        int
	Spin            int
	Glow            int
	Labels          int
	Placeholders    int
	Culled          int
	Anchors         int
	TrailVertices   int
	AltLineVertices int
	// Skipped counts entities the aircraft generator omitted.
	Skipped int
	// Dropped counts trails evicted from history as stale.
	Dropped  int
	Grew     bool
	Duration time.Duration
}

// Scene turns entity snapshots into published buffer frames. Each Update runs the
// aircraft, trail and label generators concurrently on a worker pool, each writing
// only its own arrays of the frame's bank, then publishes the bank as one frame.
// Terrain and airspace geometry are static buffers replaced only when they change.
// Thread-safe for concurrent access; Updates are serialized.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// Camera returns the scene's camera.
	Camera() camera.Camera

	// SetCamera replaces the scene's camera.
	//
	// Parameters:
	//   - cam: the new camera
	SetCamera(cam camera.Camera)

	// Buffers returns the buffer set the scene publishes into. Render passes read
	// frames from it with Acquire and Release.
	Buffers() *buffer.Set

	// History returns the trail history store.
	History() *track.History

	// Atlas returns the label atlas. The label rasterizer drains its Pending requests.
	Atlas() *label.Atlas

	// Airspace returns the airspace layer, for class toggles.
	Airspace() *airspace.Layer

	// Theme returns the active theme.
	Theme() palette.Theme

	// SetTheme switches the color table. Aircraft and trail tints, altitude line and
	// airspace colors change from the next frame and the label atlas is invalidated.
	//
	// Parameters:
	//   - t: the new theme
	SetTheme(t palette.Theme)

	// SetZones replaces the airspace zones. Geometry is rebuilt on the next Update.
	//
	// Parameters:
	//   - zones: the zones to display
	SetZones(zones []airspace.Zone)

	// SetHeatmapExtent moves the density heatmap over a ground rectangle, enabling it
	// if needed. Counts are kept unless the center moves by more than half the span.
	//
	// Parameters:
	//   - ext: the world-space rectangle to cover
	SetHeatmapExtent(ext geo.Extent)

	// SetTerrain replaces the terrain mesh.
	//
	// Parameters:
	//   - m: the merged terrain mesh
	SetTerrain(m terrain.Mesh)

	// LoadTerrain builds the mesh covering the tiles through the configured cache and
	// tile source, then installs it with SetTerrain.
	//
	// Parameters:
	//   - ctx: cancels outstanding tile fetches
	//   - tiles: the tiles to cover
	//
	// Returns:
	//   - error: ErrNoTerrainSource, or the context error on cancellation
	LoadTerrain(ctx context.Context, tiles []geo.Tile) error

	// Update generates and publishes one frame.
	//
	// Parameters:
	//   - ctx: cancels a pending airspace rebuild
	//   - snap: the current entity snapshot
	//   - dt: seconds since the previous Update
	//
	// Returns:
	//   - *buffer.Frame: the published frame
	//   - error: buffer.ErrNoFreeBank when every bank is held by readers, or a context error
	Update(ctx context.Context, snap track.Snapshot, dt float32) (*buffer.Frame, error)

	// Stats returns statistics of the last published frame.
	Stats() Stats

	// Close stops the generator workers and unregisters the scene's metric callback.
	// Update returns ErrClosed afterwards. Close is idempotent.
	//
	// Returns:
	//   - error: if the metric callback could not be unregistered
	Close() error
}

// frameJob carries one Update's inputs and outputs between the update goroutine
// and the generator tasks. The tasks are built once and read it by reference.
type frameJob struct {
	snap      track.Snapshot
	bank      *buffer.Bank
	dt        float32
	cameraPos [3]float32

	aircraft aircraft.Result
	trail    trail.Result
	label    label.Result
	wg       sync.WaitGroup
}

type scene struct {
	mu sync.Mutex

	name  string
	cam   camera.Camera
	model [16]float32
	theme palette.Theme
	ramp  *palette.Ramp

	set      *buffer.Set
	history  *track.History
	atlas    *label.Atlas
	airspace *airspace.Layer
	tiles    *terrain.Cache
	source   terrain.TileSource

	animator    *aircraft.Animator
	aircraftGen *aircraft.Generator
	trailGen    *trail.Generator
	labelGen    *label.Generator

	animatorOpts []aircraft.AnimatorOption
	aircraftOpts []aircraft.GeneratorOption
	labelOpts    []label.GeneratorOption

	airspaceClasses []buffer.Range

	heat        *heatmap.Grid
	heatRefresh int
	heatAge     int
	heatDirty   bool
	heatShown   bool

	// frustum is the view volume of the current frame in scene space.
	frustum common.Frustum
	paths   track.PathBuffer
	job     frameJob
	tasks   [3]worker.Task
	closed  bool

	// pool runs the generators of a frame in parallel. Workers persist across frames.
	pool    worker.DynamicWorkerPool
	workers int

	metrics   *frameMetrics
	log       *slog.Logger
	lastGrows int
	stats     Stats
}

// Ensure scene implements Scene interface.
var _ Scene = &scene{}

// NewScene creates a Scene. The camera is required and NewScene panics if it is nil.
//
// Parameters:
//   - name: the name of the scene
//   - cam: the camera frame uniforms are built from (must not be nil)
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
//   - error: if the metric instruments cannot be created
func NewScene(name string, cam camera.Camera, options ...SceneBuilderOption) (Scene, error) {
	if cam == nil {
		panic("scene: NewScene requires a non-nil Camera")
	}

	s := &scene{
		name:        name,
		cam:         cam,
		theme:       palette.ThemeDay,
		ramp:        palette.DefaultRamp(),
		heatRefresh: heatmap.DefaultRefreshFrames,
		workers:     min(max(runtime.NumCPU()-1, 1), 3),
		log:         slog.Default(),
	}
	common.Identity(s.model[:])

	for _, option := range options {
		option(s)
	}

	if s.set == nil {
		s.set = buffer.NewSet()
	}
	if s.history == nil {
		s.history = track.NewHistory()
	}
	if s.atlas == nil {
		s.atlas = label.NewAtlas(label.WithAtlasLogger(s.log))
	}
	if s.airspace == nil {
		s.airspace = airspace.NewLayer(nil, airspace.WithLogger(s.log))
	}

	s.animator = aircraft.NewAnimator(s.animatorOpts...)
	s.aircraftGen = aircraft.NewGenerator(s.animator, aircraft.WithRamp(s.ramp))
	s.trailGen = trail.NewGenerator(trail.WithRamp(s.ramp))
	s.labelGen = label.NewGenerator(s.atlas)
	s.applyTheme(s.theme.Config())
	s.aircraftGen.Configure(append([]aircraft.GeneratorOption{aircraft.WithGlowFilter(s.inView)}, s.aircraftOpts...)...)
	s.labelGen.Configure(append([]label.GeneratorOption{label.WithVisibility(s.inView)}, s.labelOpts...)...)
	s.tasks = [3]worker.Task{
		{ID: 0, Do: s.generateAircraft},
		{ID: 1, Do: s.generateTrails},
		{ID: 2, Do: s.generateLabels},
	}

	m, err := newFrameMetrics()
	if err != nil {
		return nil, err
	}
	s.metrics = m

	// Initialize the pool after options so WithWorkers can override the default.
	s.pool = worker.NewDynamicWorkerPool(s.workers, 256, 1*time.Second)

	s.log.Info("scene created", "name", name, "workers", s.workers, "theme", s.theme.String())
	return s, nil
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) Camera() camera.Camera {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cam
}

func (s *scene) SetCamera(cam camera.Camera) {
	if cam == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cam = cam
}

func (s *scene) Buffers() *buffer.Set {
	return s.set
}

func (s *scene) History() *track.History {
	return s.history
}

func (s *scene) Atlas() *label.Atlas {
	return s.atlas
}

func (s *scene) Airspace() *airspace.Layer {
	return s.airspace
}

func (s *scene) Theme() palette.Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme
}

func (s *scene) SetTheme(t palette.Theme) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t == s.theme {
		return
	}
	s.theme = t
	s.applyTheme(t.Config())
	s.atlas.Invalidate()
	s.heatDirty = true
	s.log.Info("theme changed", "theme", t.String())
}

// applyTheme pushes theme colors into the generators and the airspace layer.
func (s *scene) applyTheme(cfg palette.ThemeConfig) {
	s.aircraftGen.Configure(aircraft.WithTint(cfg.AircraftTint))
	s.trailGen.Configure(trail.WithTint(cfg.TrailTint))
	s.labelGen.Configure(label.WithAltLineColor(cfg.AltLineColor))
	s.airspace.SetTheme(cfg)
}

func (s *scene) SetZones(zones []airspace.Zone) {
	s.airspace.SetZones(zones)
}

func (s *scene) SetHeatmapExtent(ext geo.Extent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.heat == nil {
		s.heat = heatmap.NewGrid()
	}
	if s.heat.SetExtent(ext) {
		s.heatDirty = true
	}
}

// refreshHeatmap re-uploads the heatmap quad and texture every heatRefresh frames,
// or on the next frame after a reset or theme change. Caller must hold mu.
func (s *scene) refreshHeatmap() {
	if s.heat == nil {
		return
	}
	s.heatAge++
	if !s.heatDirty && s.heatAge < s.heatRefresh {
		return
	}
	s.heatAge, s.heatDirty = 0, false
	if s.heat.Empty() {
		if s.heatShown {
			s.set.SetStatic(buffer.HeatmapQuad, nil, 0)
			s.set.SetStatic(buffer.HeatmapTexels, nil, 0)
			s.heatShown = false
		}
		return
	}
	buffer.SetStaticRecords(s.set, buffer.HeatmapQuad, s.heat.Quad())
	s.set.SetStatic(buffer.HeatmapTexels, s.heat.Texels(s.theme.Config()), heatmap.Size*heatmap.Size)
	s.heatShown = true
}

func (s *scene) SetTerrain(m terrain.Mesh) {
	buffer.SetStaticRecords(s.set, buffer.Terrain, m.Vertices)
	buffer.SetStaticRecords(s.set, buffer.TerrainIndex, m.Indices)
	s.log.Debug("terrain replaced", "vertices", len(m.Vertices), "indices", len(m.Indices))
}

func (s *scene) LoadTerrain(ctx context.Context, tiles []geo.Tile) error {
	if s.tiles == nil || s.source == nil {
		return ErrNoTerrainSource
	}
	m, err := s.tiles.Load(ctx, s.source, tiles)
	if err != nil {
		return fmt.Errorf("failed to load terrain: %w", err)
	}
	s.SetTerrain(m)
	return nil
}

func (s *scene) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *scene) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.pool.Stop()
	if err := s.metrics.close(); err != nil {
		return fmt.Errorf("failed to unregister scene metrics: %w", err)
	}
	s.log.Info("scene closed", "name", s.name)
	return nil
}

// inView reports whether an entity's bounding sphere touches this frame's frustum.
func (s *scene) inView(e track.Entity) bool {
	return s.frustum.ContainsSphere(e.Position, cullRadius)
}

func (s *scene) generateAircraft() (any, error) {
	defer s.job.wg.Done()
	j := &s.job
	j.aircraft = s.aircraftGen.Generate(j.snap, j.dt, aircraft.Output{Bodies: j.bank.Aircraft, Spin: j.bank.Spin, Glow: j.bank.Glow})
	j.bank.SetBatches(buffer.Aircraft, j.aircraft.Categories)
	j.bank.SetBatches(buffer.Spin, j.aircraft.Spin)
	return nil, nil
}

func (s *scene) generateTrails() (any, error) {
	defer s.job.wg.Done()
	j := &s.job
	j.trail = s.trailGen.Generate(j.snap, j.bank.Trail)
	j.bank.SetBatches(buffer.Trail, j.trail.Trails)
	return nil, nil
}

func (s *scene) generateLabels() (any, error) {
	defer s.job.wg.Done()
	j := &s.job
	j.label = s.labelGen.Generate(j.snap, j.cameraPos, label.Output{Labels: j.bank.Label, AltLines: j.bank.AltLine})
	return nil, nil
}

// rebuildAirspace extrudes the airspace zones into the static buffers and hands the
// zone name anchors to the label generator. Caller must hold mu.
func (s *scene) rebuildAirspace(ctx context.Context) error {
	res, err := s.airspace.Build(ctx)
	if err != nil {
		return fmt.Errorf("failed to rebuild airspace: %w", err)
	}
	buffer.SetStaticRecords(s.set, buffer.AirspaceFill, res.Fill)
	buffer.SetStaticRecords(s.set, buffer.AirspaceEdge, res.Edges)
	s.airspaceClasses = res.Classes

	anchors := make([]label.Anchor, len(res.Anchors))
	for i, a := range res.Anchors {
		anchors[i] = label.Anchor{ID: anchorPrefix + a.Name, Text: label.AnchorText(a.Name), Position: a.Position}
	}
	s.labelGen.SetAnchors(anchors)
	s.log.Debug("airspace rebuilt", "fill", len(res.Fill), "edges", len(res.Edges), "anchors", len(anchors), "skipped", res.Skipped)
	return nil
}

func (s *scene) Update(ctx context.Context, snap track.Snapshot, dt float32) (*buffer.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	start := time.Now()

	if s.airspace.Dirty() {
		if err := s.rebuildAirspace(ctx); err != nil {
			return nil, err
		}
	}

	dropped := s.history.Observe(snap)
	snap = s.history.Attach(snap, &s.paths)
	if s.heat != nil {
		s.heat.Accumulate(snap)
		s.refreshHeatmap()
	}

	s.cam.Update()
	uniforms := camera.BuildFrameUniforms(s.model, s.cam)
	vp := s.cam.ViewProjectionMatrix()
	var mvp [16]float32
	common.Mul4(mvp[:], vp[:], s.model[:])
	s.frustum = common.ExtractFrustumFromMatrix(mvp[:])

	bank, err := s.set.Begin()
	if err != nil {
		s.metrics.skip(ctx)
		s.log.Debug("frame skipped", "error", err)
		return nil, err
	}
	bank.Uniforms = uniforms

	j := &s.job
	j.snap, j.bank, j.dt, j.cameraPos = snap, bank, dt, uniforms.CameraPosition
	j.wg.Add(len(s.tasks))
	for _, task := range s.tasks {
		s.pool.SubmitTask(task)
	}
	j.wg.Wait()
	aircraftR, trailR, labelR := j.aircraft, j.trail, j.label
	j.snap, j.bank = track.Snapshot{}, nil

	if err := ctx.Err(); err != nil {
		s.set.Abort(bank)
		return nil, err
	}
	bank.SetBatches(buffer.AirspaceFill, s.airspaceClasses)

	frame := s.set.Publish(bank)

	grows := s.set.Grows()
	st := Stats{
		Seq:             frame.Seq,
		Aircraft:        bank.Aircraft.Len(),
		Spin:            bank.Spin.Len(),
		Glow:            bank.Glow.Len(),
		Labels:          labelR.Labels,
		Placeholders:    labelR.Placeholders,
		Culled:          labelR.Culled,
		Anchors:         labelR.Anchors,
		TrailVertices:   trailR.Vertices,
		AltLineVertices: bank.AltLine.Len(),
		Skipped:         aircraftR.Skipped,
		Dropped:         dropped,
		Grew:            grows > s.lastGrows,
		Duration:        time.Since(start),
	}
	s.metrics.record(ctx, st, grows-s.lastGrows)
	s.lastGrows = grows
	s.stats = st

	if st.Grew {
		s.log.Debug("buffers grew", "seq", st.Seq, "aircraft", st.Aircraft, "trail", st.TrailVertices)
	}
	return frame, nil
}
