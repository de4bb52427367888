package track

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snap(entities ...Entity) Snapshot {
	return NewSnapshot(entities, "")
}

func TestSnapshotIsolatedFromCaller(t *testing.T) {
	path := []Sample{{Position: [3]float32{1, 2, 3}}}
	entities := []Entity{{ID: "a1", Path: path}}
	s := NewSnapshot(entities, "a1")

	entities[0].ID = "zz"
	path[0].Position[0] = 99

	require.Equal(t, 1, s.Len())
	assert.Equal(t, "a1", s.At(0).ID)
	assert.Equal(t, float32(1), s.At(0).Path[0].Position[0])
	assert.Equal(t, "a1", s.Selected())
}

func TestEntityValid(t *testing.T) {
	assert.True(t, Entity{ID: "a"}.Valid())
	assert.False(t, Entity{}.Valid())
	nan := float32(math.NaN())
	assert.False(t, Entity{ID: "a", Position: [3]float32{0, nan, 0}}.Valid())
	assert.False(t, Entity{ID: "a", Altitude: float32(math.Inf(1))}.Valid())
}

func TestHistoryRecordsAndDedupes(t *testing.T) {
	h := NewHistory()
	h.Observe(snap(Entity{ID: "a", Position: [3]float32{0, 0, 0}, Altitude: 1000}))
	h.Observe(snap(Entity{ID: "a", Position: [3]float32{0.05, 0, 0}, Altitude: 1000}))
	h.Observe(snap(Entity{ID: "a", Position: [3]float32{1, 0, 0}, Altitude: 1100}))

	p := h.Path("a")
	require.Len(t, p, 2)
	assert.Equal(t, [3]float32{0, 0, 0}, p[0].Position)
	assert.Equal(t, float32(1100), p[1].Altitude)
	assert.Nil(t, h.Path("unknown"))
}

func TestHistoryRingKeepsNewest(t *testing.T) {
	h := NewHistory(WithMaxLength(1)) // clamped up to MinTrailLength
	assert.Equal(t, MinTrailLength, h.MaxLength())
	for i := range MinTrailLength + 10 {
		h.Observe(snap(Entity{ID: "a", Position: [3]float32{float32(i), 0, 0}}))
	}
	p := h.Path("a")
	require.Len(t, p, MinTrailLength)
	assert.Equal(t, float32(10), p[0].Position[0])
	assert.Equal(t, float32(MinTrailLength+9), p[len(p)-1].Position[0])

	h.SetMaxLength(1_000_000)
	assert.Equal(t, MaxTrailLength, h.MaxLength())
	assert.Len(t, h.Path("a"), MinTrailLength)
}

func TestHistoryDropsStaleEntities(t *testing.T) {
	h := NewHistory()
	h.Observe(snap(Entity{ID: "a"}, Entity{ID: "b"}))
	assert.Equal(t, 0, h.Observe(snap(Entity{ID: "b"})))
	assert.Equal(t, 0, h.Observe(snap(Entity{ID: "b"})))
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, 1, h.Observe(snap(Entity{ID: "b"})))
	assert.Equal(t, 1, h.Len())

	// reappearing resets the miss counter
	h.Observe(snap())
	h.Observe(snap(Entity{ID: "b", Position: [3]float32{5, 0, 0}}))
	h.Observe(snap())
	h.Observe(snap())
	assert.Equal(t, 1, h.Len())
}

func TestSnapshotWithPaths(t *testing.T) {
	h := NewHistory()
	s := snap(Entity{ID: "a", Position: [3]float32{1, 1, 1}}, Entity{ID: "b"})
	h.Observe(s)
	withPaths := s.WithPaths(h.Path)
	assert.Len(t, withPaths.At(0).Path, 1)
	assert.Len(t, withPaths.At(1).Path, 1)
	assert.Empty(t, s.At(0).Path)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		d    Descriptor
		want Category
	}{
		{"military flag", Descriptor{DBFlags: 1, Emitter: "A5"}, CategoryMilitary},
		{"emitter heavy", Descriptor{Emitter: "a5"}, CategoryWidebody},
		{"emitter rotor", Descriptor{Emitter: "A7"}, CategoryHelicopter},
		{"type heli", Descriptor{TypeCode: "R44"}, CategoryHelicopter},
		{"type wide", Descriptor{TypeCode: "B77W", Altitude: 38000, Speed: 480}, CategoryWidebody},
		{"type mil", Descriptor{TypeCode: "C130"}, CategoryMilitary},
		{"lifeflight", Descriptor{Callsign: "LIFE12", Altitude: 1500, Speed: 110}, CategoryHelicopter},
		{"n-number low", Descriptor{Callsign: "N123AB", Altitude: 1200, Speed: 90}, CategoryHelicopter},
		{"mil callsign", Descriptor{Callsign: "RCH405", Altitude: 31000, Speed: 450}, CategoryMilitary},
		{"ga", Descriptor{Callsign: "N55X", Altitude: 6500, Speed: 140}, CategorySmall},
		{"regional", Descriptor{Callsign: "SKW5512", Altitude: 22000, Speed: 350}, CategoryRegional},
		{"long haul", Descriptor{Callsign: "UAE231", Altitude: 39000, Speed: 500}, CategoryWidebody},
		{"default", Descriptor{Callsign: "ASA1020", Altitude: 36000, Speed: 460}, CategoryJet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.d))
		})
	}
}

func TestAttachReusesPathBuffer(t *testing.T) {
	h := NewHistory()
	var buf PathBuffer
	for i := range 5 {
		h.Observe(snap(Entity{ID: "a", Position: [3]float32{float32(i), 0, 0}}, Entity{ID: "b", Position: [3]float32{0, float32(i), 0}}))
	}
	s := snap(Entity{ID: "a"}, Entity{ID: "b"}, Entity{ID: "new", Path: []Sample{{}}})

	attached := h.Attach(s, &buf)
	require.Equal(t, 3, attached.Len())
	assert.Equal(t, h.Path("a"), attached.At(0).Path)
	assert.Equal(t, h.Path("b"), attached.At(1).Path)
	assert.Nil(t, attached.At(2).Path)
	assert.Len(t, s.At(2).Path, 1, "the input snapshot is untouched")

	// Appending to one path must not overwrite the next.
	pa := attached.At(0).Path
	assert.Equal(t, len(pa), cap(pa))

	allocs := testing.AllocsPerRun(20, func() { h.Attach(s, &buf) })
	assert.Zero(t, allocs)
}

func TestAppendPathReusesDestination(t *testing.T) {
	h := NewHistory()
	h.Observe(snap(Entity{ID: "a", Position: [3]float32{1, 0, 0}}))
	dst := make([]Sample, 0, 8)
	out := h.AppendPath(dst, "a")
	require.Len(t, out, 1)
	assert.Same(t, &dst[:1][0], &out[0])
	assert.Empty(t, h.AppendPath(dst, "missing"))
}
