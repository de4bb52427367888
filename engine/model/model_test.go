package model

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-tracker/common"
	"github.com/Carmen-Shannon/oxy-tracker/engine/track"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimitiveCounts(t *testing.T) {
	tests := []struct {
		name     string
		add      func(b *meshBuilder)
		vertices int
		indices  int
	}{
		{"box", func(b *meshBuilder) { b.box([3]float32{1, 1, 1}, [3]float32{}) }, 24, 36},
		{"cylinder", func(b *meshBuilder) { b.cylinder(1, 2, 8, [3]float32{}) }, 34, 96},
		{"cone", func(b *meshBuilder) { b.cone(1, 2, 8, [3]float32{}) }, 9, 24},
		{"sphere", func(b *meshBuilder) { b.sphere(1, 8, [3]float32{}) }, 45, 192},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newMeshBuilder()
			tt.add(b)
			m := b.build(tt.name)
			assert.Len(t, m.Vertices, tt.vertices)
			assert.Len(t, m.Indices, tt.indices)
		})
	}
}

func TestLibraryMeshesAreWellFormed(t *testing.T) {
	lib := NewLibrary()
	assert.Len(t, lib.Names(), len(track.Categories)+2)

	for _, name := range lib.Names() {
		m, ok := lib.Batch(name)
		require.True(t, ok, name)
		assert.Equal(t, name, m.Name)
		assert.NotEmpty(t, m.Vertices, name)
		assert.Zero(t, m.IndexCount()%3, name)
		assert.Len(t, m.IndexData(), 4*m.IndexCount())
		assert.Len(t, m.VertexData(), 24*len(m.Vertices))
		for _, i := range m.Indices {
			require.Less(t, i, uint32(len(m.Vertices)), name)
		}
		for _, v := range m.Vertices {
			assert.InDelta(t, 1, common.Length3(v.Normal), 1e-4, name)
		}
		assert.Greater(t, m.BoundingRadius, float32(0))
	}
}

func TestJetAndRegional(t *testing.T) {
	lib := NewLibrary()
	j := lib.Category(track.CategoryJet)
	assert.Len(t, j.Vertices, 183)
	assert.Len(t, j.Indices, 420)

	r := lib.Category(track.CategoryRegional)
	assert.Len(t, r.Vertices, len(j.Vertices))
	assert.InDelta(t, j.BoundingRadius*0.8, r.BoundingRadius, 1e-4)

	assert.Equal(t, j.Name, lib.Category(track.Category(99)).Name)
	_, ok := lib.Batch("blimp")
	assert.False(t, ok)
}

func TestGlowTexture(t *testing.T) {
	pix := GlowTexture(64)
	require.Len(t, pix, 64*64*4)
	alpha := func(x, y int) uint8 { return pix[(y*64+x)*4+3] }
	assert.Equal(t, uint8(255), alpha(32, 32))
	assert.Equal(t, uint8(0), alpha(0, 0))
	assert.Greater(t, alpha(32, 20), alpha(32, 10))
	assert.Equal(t, uint8(255), pix[0])
}
