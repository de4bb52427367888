package renderer

import (
	"context"
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-tracker/engine/buffer"
	"github.com/Carmen-Shannon/oxy-tracker/engine/layout"
	"github.com/Carmen-Shannon/oxy-tracker/engine/model"
	"github.com/Carmen-Shannon/oxy-tracker/engine/track"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBuffer struct {
	label    string
	size     uint64
	usage    wgpu.BufferUsage
	released bool
}

func (b *fakeBuffer) Release() { b.released = true }

type fakeDevice struct {
	created []*fakeBuffer
	writes  map[string]int
	failOn  string
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{writes: make(map[string]int)}
}

func (d *fakeDevice) CreateBuffer(label string, size uint64, usage wgpu.BufferUsage) (Buffer, error) {
	if label == d.failOn {
		return nil, errors.New("out of memory")
	}
	b := &fakeBuffer{label: label, size: size, usage: usage}
	d.created = append(d.created, b)
	return b, nil
}

func (d *fakeDevice) WriteBuffer(buf Buffer, offset uint64, data []byte) error {
	b := buf.(*fakeBuffer)
	if uint64(len(data))+offset > b.size {
		return errors.New("write past end of buffer")
	}
	d.writes[b.label]++
	return nil
}

func publish(t *testing.T, set *buffer.Set, aircraft int) *buffer.Frame {
	t.Helper()
	b, err := set.Begin()
	require.NoError(t, err)
	for range aircraft {
		b.Aircraft.Append(layout.AircraftInstance{})
	}
	return set.Publish(b)
}

func TestVertexLayoutExpandsMatrix(t *testing.T) {
	l, next, err := VertexLayout(layout.KindAircraftInstance, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(96), l.ArrayStride)
	assert.Equal(t, wgpu.VertexStepModeInstance, l.StepMode)
	assert.Equal(t, uint32(11), next)
	require.Len(t, l.Attributes, 9)
	for col := range 4 {
		a := l.Attributes[col]
		assert.Equal(t, wgpu.VertexFormatFloat32x4, a.Format)
		assert.Equal(t, uint64(col*16), a.Offset)
		assert.Equal(t, uint32(2+col), a.ShaderLocation)
	}
	assert.Equal(t, uint64(64), l.Attributes[4].Offset)
	assert.Equal(t, wgpu.VertexFormatUint32, l.Attributes[8].Format)
}

func TestVertexLayoutsContinueLocations(t *testing.T) {
	ls, err := VertexLayouts(layout.KindAircraftVertex, layout.KindAircraftInstance)
	require.NoError(t, err)
	require.Len(t, ls, 2)
	assert.Equal(t, wgpu.VertexStepModeVertex, ls[0].StepMode)
	assert.Equal(t, uint32(0), ls[0].Attributes[0].ShaderLocation)
	assert.Equal(t, uint32(2), ls[1].Attributes[0].ShaderLocation)
}

func TestVertexLayoutRejectsUniforms(t *testing.T) {
	_, _, err := VertexLayout(layout.KindFrameUniforms, 0)
	assert.Error(t, err)
	_, _, err = VertexLayout(layout.Kind(99), 0)
	assert.Error(t, err)
}

func TestPlanSkipsCurrentStatics(t *testing.T) {
	set := buffer.NewSet()
	set.SetStatic(buffer.Terrain, make([]byte, 64), 2)
	f := publish(t, set, 1)

	first := Plan(f, map[buffer.ID]uint64{})
	assert.Len(t, first, len(buffer.IDs())+1)
	assert.Equal(t, uniformsID, first[0].ID)
	assert.Len(t, first[0].Data, layout.KindFrameUniforms.Size())

	uploaded := map[buffer.ID]uint64{}
	for _, w := range first {
		if w.ID != uniformsID && w.ID.Desc().Static {
			uploaded[w.ID] = w.Version
		}
	}
	again := Plan(f, uploaded)
	for _, w := range again {
		assert.False(t, w.ID != uniformsID && w.ID.Desc().Static, "static %s replanned", w.ID)
	}

	set.SetStatic(buffer.Terrain, make([]byte, 32), 1)
	f2 := publish(t, set, 1)
	var terrain int
	for _, w := range Plan(f2, uploaded) {
		if w.ID == buffer.Terrain {
			terrain++
			assert.Equal(t, 1, w.Count)
		}
	}
	assert.Equal(t, 1, terrain)
}

func TestUploaderGrowsAndSkips(t *testing.T) {
	dev := newFakeDevice()
	u := NewUploader(dev)
	set := buffer.NewSet()
	set.SetStatic(buffer.Terrain, make([]byte, 64), 2)
	ctx := context.Background()

	require.NoError(t, u.Consume(ctx, publish(t, set, 3)))
	st := u.Stats()
	assert.Equal(t, 1, st.Frames)
	assert.Equal(t, 3, st.Writes)
	assert.Equal(t, 208+3*96+64, st.Bytes)
	assert.Zero(t, st.Skipped)
	assert.Len(t, dev.created, len(buffer.IDs())+1)

	buf, n := u.Binding(buffer.Aircraft)
	require.NotNil(t, buf)
	assert.Equal(t, 3, n)
	assert.Equal(t, uint64(512), buf.(*fakeBuffer).size)
	assert.Equal(t, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst, u.Uniforms().(*fakeBuffer).usage)
	idx, _ := u.Binding(buffer.TerrainIndex)
	assert.Equal(t, wgpu.BufferUsageIndex|wgpu.BufferUsageCopyDst, idx.(*fakeBuffer).usage)

	require.NoError(t, u.Consume(ctx, publish(t, set, 10)))
	st = u.Stats()
	assert.Equal(t, 4, st.Skipped)
	assert.Equal(t, 1, st.Reallocs)
	assert.Equal(t, 1, dev.writes["terrain"])
	assert.True(t, buf.(*fakeBuffer).released)

	grown, n := u.Binding(buffer.Aircraft)
	assert.Equal(t, 10, n)
	assert.Equal(t, uint64(1024), grown.(*fakeBuffer).size)

	require.NoError(t, u.Consume(ctx, publish(t, set, 0)))
	_, n = u.Binding(buffer.Aircraft)
	assert.Zero(t, n)
	_, n = u.Binding(buffer.Terrain)
	assert.Equal(t, 2, n)

	u.Close()
	for _, b := range dev.created {
		assert.True(t, b.released, b.label)
	}
	b, _ := u.Binding(buffer.Aircraft)
	assert.Nil(t, b)
}

func TestUploaderErrors(t *testing.T) {
	set := buffer.NewSet()
	f := publish(t, set, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewUploader(newFakeDevice()).Consume(ctx, f), context.Canceled)

	dev := newFakeDevice()
	dev.failOn = "aircraft"
	err := NewUploader(dev).Consume(context.Background(), f)
	assert.ErrorContains(t, err, "uploading aircraft")

	assert.NoError(t, NewUploader(newFakeDevice()).Consume(context.Background(), nil))
}

func TestInitMeshBuffers(t *testing.T) {
	dev := newFakeDevice()
	u := NewUploader(dev)
	lib := model.NewLibrary()

	require.NoError(t, u.InitMeshBuffers(lib))
	assert.Len(t, dev.created, 2*len(lib.Names()))

	jet, ok := u.Mesh(track.CategoryJet.String())
	require.True(t, ok)
	assert.Equal(t, 420, jet.IndexCount)
	assert.Equal(t, uint64(183*24), jet.Vertex.(*fakeBuffer).size)
	assert.Equal(t, wgpu.BufferUsageIndex|wgpu.BufferUsageCopyDst, jet.Index.(*fakeBuffer).usage)

	_, ok = u.Mesh(model.RotorMesh)
	assert.True(t, ok)

	require.NoError(t, u.InitMeshBuffers(lib))
	assert.Len(t, dev.created, 2*len(lib.Names()))

	u.Close()
	for _, b := range dev.created {
		assert.True(t, b.released, b.label)
	}
	_, ok = u.Mesh(model.RotorMesh)
	assert.False(t, ok)
}

func TestInitMeshBuffersError(t *testing.T) {
	dev := newFakeDevice()
	dev.failOn = "jet Index Buffer"
	err := NewUploader(dev).InitMeshBuffers(model.NewLibrary())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "uploading mesh jet")
}
