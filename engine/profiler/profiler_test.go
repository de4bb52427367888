package profiler

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickWaitsForInterval(t *testing.T) {
	p := NewProfiler(WithInterval(time.Hour))
	for range 10 {
		assert.False(t, p.Tick(0))
	}
	assert.Equal(t, Stats{}, p.Last())
}

func TestTickReportsInterval(t *testing.T) {
	var out bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&out, nil))
	p := NewProfiler(WithInterval(time.Millisecond), WithLogger(log))

	time.Sleep(2 * time.Millisecond)
	assert.True(t, p.Tick(5))

	st := p.Last()
	assert.Greater(t, st.FPS, 0.0)
	assert.Greater(t, st.HeapMB, 0.0)
	assert.Contains(t, out.String(), `"msg":"profiler"`)
	assert.Contains(t, out.String(), `"reallocs"`)
	assert.Contains(t, out.String(), `"cpu"`)
	assert.GreaterOrEqual(t, st.CPUPercent, 0.0)
}

func TestReallocsAreDeltas(t *testing.T) {
	p := NewProfiler(WithInterval(time.Nanosecond))
	time.Sleep(time.Millisecond)
	assert.True(t, p.Tick(4))
	assert.Equal(t, 4, p.Last().Reallocs)

	time.Sleep(time.Millisecond)
	assert.True(t, p.Tick(6))
	assert.Equal(t, 2, p.Last().Reallocs)
}
