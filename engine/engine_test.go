package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-tracker/engine/buffer"
	"github.com/Carmen-Shannon/oxy-tracker/engine/camera"
	"github.com/Carmen-Shannon/oxy-tracker/engine/scene"
	"github.com/Carmen-Shannon/oxy-tracker/engine/track"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScene(t *testing.T) scene.Scene {
	t.Helper()
	s, err := scene.NewScene("engine", camera.NewCamera(camera.WithPose(camera.NewOrbit())), scene.WithWorkers(1))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func oneAircraft(context.Context) (track.Snapshot, error) {
	return track.NewSnapshot([]track.Entity{{
		ID:       "a",
		Callsign: "TEST1",
		Position: [3]float32{1, 2, 3},
		Altitude: 8000,
	}}, ""), nil
}

type recordingSink struct {
	mu   sync.Mutex
	seqs []uint64
	n    []int
}

func (r *recordingSink) Consume(_ context.Context, f *buffer.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seqs = append(r.seqs, f.Seq)
	r.n = append(r.n, f.View(buffer.Aircraft).Count)
	return nil
}

func TestRunStopsOnQuit(t *testing.T) {
	sink := &recordingSink{}
	var e Engine
	ticks := 0
	e = NewEngine(newTestScene(t),
		WithTickRate(500),
		WithSource(SnapshotSourceFunc(oneAircraft)),
		WithSink(sink),
		WithTickCallback(func(float32) {
			ticks++
			if ticks == 5 {
				e.Quit()
			}
		}),
	)

	require.NoError(t, e.Run(context.Background()))
	e.Quit()

	n, dropped, consumed := e.Counters()
	assert.GreaterOrEqual(t, n, uint64(5))
	assert.Zero(t, dropped)
	assert.Equal(t, uint64(len(sink.seqs)), consumed)
	require.NotEmpty(t, sink.seqs)
	for i := 1; i < len(sink.seqs); i++ {
		assert.Greater(t, sink.seqs[i], sink.seqs[i-1])
	}
	for _, c := range sink.n {
		assert.Equal(t, 1, c)
	}
}

func TestRunStopsOnContext(t *testing.T) {
	e := NewEngine(newTestScene(t), WithTickRate(1000), WithSource(SnapshotSourceFunc(oneAircraft)))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not stop after context cancellation")
	}
	assert.NotNil(t, e.Scene().Buffers().Latest())
}

func TestSourceErrorsSkipUpdate(t *testing.T) {
	sink := &recordingSink{}
	calls := 0
	var e Engine
	e = NewEngine(newTestScene(t),
		WithTickRate(500),
		WithSink(sink),
		WithSource(SnapshotSourceFunc(func(context.Context) (track.Snapshot, error) {
			calls++
			if calls == 3 {
				e.Quit()
			}
			return track.Snapshot{}, errors.New("feed offline")
		})),
	)

	require.NoError(t, e.Run(context.Background()))
	assert.Empty(t, sink.seqs)
	assert.Nil(t, e.Scene().Buffers().Latest())
}

func TestRunRecoversPanic(t *testing.T) {
	e := NewEngine(newTestScene(t),
		WithTickRate(500),
		WithTickCallback(func(float32) { panic("boom") }),
	)
	err := e.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestSetTickRateBeforeRun(t *testing.T) {
	e := NewEngine(newTestScene(t)).(*engine)
	e.SetTickRate(0)
	assert.Equal(t, time.Second/60, e.engineTickRate)
	e.SetTickRate(200)
	assert.Equal(t, 5*time.Millisecond, e.engineTickRate)
}

func TestNewEngineRequiresScene(t *testing.T) {
	assert.Panics(t, func() { NewEngine(nil) })
}
