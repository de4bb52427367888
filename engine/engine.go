package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-tracker/engine/buffer"
	"github.com/Carmen-Shannon/oxy-tracker/engine/profiler"
	"github.com/Carmen-Shannon/oxy-tracker/engine/scene"
	"github.com/Carmen-Shannon/oxy-tracker/engine/track"
)

// SnapshotSource supplies the entity snapshot for each tick.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (track.Snapshot, error)
}

// SnapshotSourceFunc adapts a function to SnapshotSource.
type SnapshotSourceFunc func(ctx context.Context) (track.Snapshot, error)

func (f SnapshotSourceFunc) Snapshot(ctx context.Context) (track.Snapshot, error) {
	return f(ctx)
}

// FrameSink consumes published frames, typically by uploading them to the GPU.
// The frame is held for the duration of the call and must not be retained afterwards.
type FrameSink interface {
	Consume(ctx context.Context, f *buffer.Frame) error
}

// FrameSinkFunc adapts a function to FrameSink.
type FrameSinkFunc func(ctx context.Context, f *buffer.Frame) error

func (f FrameSinkFunc) Consume(ctx context.Context, frame *buffer.Frame) error {
	return f(ctx, frame)
}

// engine implements the Engine interface.
// Drives a scene at a fixed tick rate without owning a window.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)

	scene  scene.Scene
	source SnapshotSource
	sink   FrameSink

	log *slog.Logger

	mu       sync.Mutex
	err      error
	ticks    uint64
	dropped  uint64
	consumed uint64
}

// Engine runs the tracker frame loop: each tick pulls a snapshot, updates the scene and
// hands the published frame to the sink.
type Engine interface {
	// Scene returns the scene driven by the engine.
	//
	// Returns:
	//   - scene.Scene: the scene instance
	Scene() scene.Scene

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// Profiler returns the profiler fed by the loop.
	Profiler() *profiler.Profiler

	// SetTickRate sets the engine tick rate in frames per second.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers a function called at the start of each tick, before the
	// snapshot is taken. Use it for camera animation or input.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// Run starts the loop and blocks until ctx is done or Quit is called.
	//
	// Parameters:
	//   - ctx: cancels the loop and is passed to the source, scene and sink
	//
	// Returns:
	//   - error: nil on a normal stop, or the panic recovered from the loop
	Run(ctx context.Context) error

	// Quit signals the loop to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()

	// Counters returns the number of ticks run, frames dropped and frames consumed.
	Counters() (ticks, dropped, consumed uint64)
}

// NewEngine creates a new Engine for a scene.
//
// Parameters:
//   - s: the scene to drive; must not be nil
//   - options: functional options for engine configuration (profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(s scene.Scene, options ...EngineBuilderOption) Engine {
	if s == nil {
		panic("engine: scene must not be nil")
	}
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		engineTickRate:  time.Second / 60,
		scene:           s,
		log:             slog.Default(),
	}

	for _, opt := range options {
		opt(e)
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(profiler.WithLogger(e.log))
	}

	return e
}

func (e *engine) Scene() scene.Scene {
	return e.scene
}

func (e *engine) Profiler() *profiler.Profiler {
	return e.profiler
}

func (e *engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return errors.New("engine: already running")
	}
	defer e.running.Store(false)

	e.wg.Add(2)
	go e.handleEngine(ctx)
	go e.handleQuit(ctx)
	e.wg.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Quit signals all engine goroutines to stop.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// handleEngine runs the fixed-rate tick loop in its own goroutine.
// Listens for dynamic rate changes via tickRateChannel. Exits when the quit channel is closed.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleEngine(ctx context.Context) {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("engine loop recovered from panic", "panic", r)
			e.mu.Lock()
			e.err = fmt.Errorf("engine: panic in frame loop: %v", r)
			e.mu.Unlock()
			e.signalQuit()
		}
	}()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now
			e.tick(ctx, dt)
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// tick runs one frame: callback, snapshot, scene update, sink, profiler.
func (e *engine) tick(ctx context.Context, dt float32) {
	e.mu.Lock()
	e.ticks++
	e.mu.Unlock()

	if e.tickCallback != nil {
		e.tickCallback(dt)
	}
	if e.source == nil {
		return
	}

	snap, err := e.source.Snapshot(ctx)
	if err != nil {
		if ctx.Err() == nil {
			e.log.Warn("snapshot unavailable", "error", err)
		}
		return
	}

	if _, err := e.scene.Update(ctx, snap, dt); err != nil {
		e.mu.Lock()
		e.dropped++
		e.mu.Unlock()
		if errors.Is(err, buffer.ErrNoFreeBank) {
			e.log.Debug("frame dropped, all banks held")
		} else {
			e.log.Warn("scene update failed", "error", err)
		}
		return
	}

	if e.sink != nil {
		set := e.scene.Buffers()
		f := set.Acquire()
		err := e.sink.Consume(ctx, f)
		set.Release(f)
		if err != nil {
			e.log.Warn("frame sink failed", "error", err)
		} else {
			e.mu.Lock()
			e.consumed++
			e.mu.Unlock()
		}
	}

	if e.profilingEnabled.Load() && e.profiler != nil {
		e.profiler.Tick(e.scene.Buffers().Grows())
	}
}

// handleQuit blocks until ctx is done or the quit channel is closed.
func (e *engine) handleQuit(ctx context.Context) {
	defer e.wg.Done()
	select {
	case <-ctx.Done():
		e.signalQuit()
	case <-e.quitChannel:
	}
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	if e.running.Load() {
		// Non-blocking send - if channel is full, replace the pending value
		select {
		case e.tickRateChannel <- newRate:
		default:
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	} else {
		e.engineTickRate = newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) Counters() (ticks, dropped, consumed uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ticks, e.dropped, e.consumed
}
