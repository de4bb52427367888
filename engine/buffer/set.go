package buffer

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-tracker/common"
	"github.com/Carmen-Shannon/oxy-tracker/engine/layout"
)

// ErrNoFreeBank is returned by Begin when every bank is either the latest published
// frame or still held by a reader. The caller should skip the frame.
var ErrNoFreeBank = errors.New("buffer: no free bank to write")

// ID identifies one buffer exposed to the render pass.
type ID int

const (
	Aircraft ID = iota
	Spin
	Glow
	Trail
	Label
	AltLine
	Terrain
	TerrainIndex
	AirspaceFill
	AirspaceEdge
	HeatmapQuad
	HeatmapTexels

	idCount
)

// Desc describes how a buffer is bound and refreshed.
type Desc struct {
	Name string
	// Kind is the record kind; ignored for index buffers.
	Kind   layout.Kind
	Slot   layout.Slot
	Stride int
	// Static buffers are replaced wholesale through SetStatic and carried forward between frames.
	Static bool
	// Index buffers hold uint32 indices into another buffer.
	Index bool
	// Texels buffers hold packed RGBA8 pixels read as a storage buffer; Kind is ignored.
	Texels bool
}

var descs = [idCount]Desc{
	Aircraft:      {Name: "aircraft", Kind: layout.KindAircraftInstance, Slot: layout.SlotAircraftInstances, Stride: layout.KindAircraftInstance.Size()},
	Spin:          {Name: "spin", Kind: layout.KindAircraftInstance, Slot: layout.SlotAircraftInstances, Stride: layout.KindAircraftInstance.Size()},
	Glow:          {Name: "glow", Kind: layout.KindGlowInstance, Slot: layout.SlotGlowInstances, Stride: layout.KindGlowInstance.Size()},
	Trail:         {Name: "trail", Kind: layout.KindTrailVertex, Slot: layout.SlotTrailVertices, Stride: layout.KindTrailVertex.Size()},
	Label:         {Name: "label", Kind: layout.KindLabelInstance, Slot: layout.SlotLabelInstances, Stride: layout.KindLabelInstance.Size()},
	AltLine:       {Name: "alt_line", Kind: layout.KindAltLineVertex, Slot: layout.SlotAltLineVertices, Stride: layout.KindAltLineVertex.Size()},
	Terrain:       {Name: "terrain", Kind: layout.KindTerrainVertex, Slot: layout.SlotVertices, Stride: layout.KindTerrainVertex.Size(), Static: true},
	TerrainIndex:  {Name: "terrain_index", Slot: layout.SlotVertices, Stride: 4, Static: true, Index: true},
	AirspaceFill:  {Name: "airspace_fill", Kind: layout.KindAirspaceVertex, Slot: layout.SlotAirspaceVertices, Stride: layout.KindAirspaceVertex.Size(), Static: true},
	AirspaceEdge:  {Name: "airspace_edge", Kind: layout.KindAirspaceVertex, Slot: layout.SlotAirspaceVertices, Stride: layout.KindAirspaceVertex.Size(), Static: true},
	HeatmapQuad:   {Name: "heatmap_quad", Kind: layout.KindTexturedVertex, Slot: layout.SlotVertices, Stride: layout.KindTexturedVertex.Size(), Static: true},
	HeatmapTexels: {Name: "heatmap_texels", Slot: layout.SlotHeatmapTexels, Stride: 4, Static: true, Texels: true},
}

// IDs lists every buffer in upload order.
func IDs() []ID {
	out := make([]ID, idCount)
	for i := range out {
		out[i] = ID(i)
	}
	return out
}

// Desc returns the binding description of the buffer.
func (id ID) Desc() Desc {
	if id < 0 || id >= idCount {
		return Desc{Name: "unknown"}
	}
	return descs[id]
}

func (id ID) String() string { return id.Desc().Name }

// Range is a contiguous run of records sharing one draw call.
type Range struct {
	Name   string
	Offset int
	Count  int
}

// View is a read-only view of one buffer in a published frame.
type View struct {
	ID    ID
	Count int
	Bytes []byte
	// Version changes whenever the contents change. Dynamic buffers take the frame
	// sequence; static buffers keep their version until replaced.
	Version uint64
	// Grew is set when the host array was reallocated while writing this frame.
	Grew bool
}

// Frame is an immutable set of buffers ready for the render pass. Its byte views stay
// valid until the Frame is released by every reader that acquired it.
type Frame struct {
	Seq      uint64
	Uniforms layout.FrameUniforms
	views    [idCount]View
	batches  map[ID][]Range
	bank     *Bank
}

// View returns the view of a buffer.
func (f *Frame) View(id ID) View {
	if id < 0 || id >= idCount {
		return View{ID: id}
	}
	return f.views[id]
}

// Batches returns the draw ranges recorded for a buffer, or nil.
func (f *Frame) Batches(id ID) []Range {
	return f.batches[id]
}

// Bank holds the dynamic host arrays written during one frame's write phase.
// Each generator writes only the arrays it owns, so generators may run concurrently.
type Bank struct {
	Aircraft *Array[layout.AircraftInstance]
	Spin     *Array[layout.AircraftInstance]
	Glow     *Array[layout.GlowInstance]
	Trail    *Array[layout.TrailVertex]
	Label    *Array[layout.LabelInstance]
	AltLine  *Array[layout.AltLineVertex]

	// Uniforms must be set before generators run.
	Uniforms layout.FrameUniforms

	mu      sync.Mutex
	batches map[ID][]Range
	grows   [idCount]int
	readers int
	frame   Frame
}

func newBank(capacity int) *Bank {
	return &Bank{
		Aircraft: NewArray[layout.AircraftInstance](capacity),
		Spin:     NewArray[layout.AircraftInstance](capacity),
		Glow:     NewArray[layout.GlowInstance](capacity),
		Trail:    NewArray[layout.TrailVertex](capacity),
		Label:    NewArray[layout.LabelInstance](capacity),
		AltLine:  NewArray[layout.AltLineVertex](capacity),
		batches:  make(map[ID][]Range),
	}
}

// SetBatches records draw ranges for a buffer. Safe for concurrent use by generators.
func (b *Bank) SetBatches(id ID, ranges []Range) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.batches[id] = append(b.batches[id][:0], ranges...)
}

func (b *Bank) reset() {
	b.Aircraft.Reset()
	b.Spin.Reset()
	b.Glow.Reset()
	b.Trail.Reset()
	b.Label.Reset()
	b.AltLine.Reset()
	for id := range b.batches {
		b.batches[id] = b.batches[id][:0]
	}
	b.grows = [idCount]int{
		Aircraft: b.Aircraft.Grows(), Spin: b.Spin.Grows(), Glow: b.Glow.Grows(),
		Trail: b.Trail.Grows(), Label: b.Label.Grows(), AltLine: b.AltLine.Grows(),
	}
}

type staticBuffer struct {
	bytes   []byte
	count   int
	version uint64
}

// Set owns every host-side buffer. Frames are written into a free bank during the
// write phase and become visible to readers only through Publish, so a reader never
// observes a partially written frame.
type Set struct {
	mu       sync.Mutex
	banks    []*Bank
	writing  *Bank
	latest   atomic.Pointer[Frame]
	seq      uint64
	statics  [idCount]staticBuffer
	staticV  uint64
	totalGrw int
}

// SetOption configures a Set.
type SetOption func(*setConfig)

type setConfig struct {
	banks    int
	capacity int
}

// WithBanks sets how many frames may be in flight (minimum 2, default 3).
func WithBanks(n int) SetOption {
	return func(c *setConfig) { c.banks = max(n, 2) }
}

// WithInitialCapacity pre-sizes each dynamic array.
func WithInitialCapacity(n int) SetOption {
	return func(c *setConfig) { c.capacity = max(n, 0) }
}

// NewSet creates a buffer set.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - *Set: the set
func NewSet(options ...SetOption) *Set {
	cfg := setConfig{banks: 3}
	for _, opt := range options {
		opt(&cfg)
	}
	s := &Set{banks: make([]*Bank, cfg.banks)}
	for i := range s.banks {
		s.banks[i] = newBank(cfg.capacity)
	}
	return s
}

// Begin starts the write phase of a frame on a bank that is neither the latest
// published frame nor held by a reader. Dynamic arrays of the bank are reset.
//
// Returns:
//   - *Bank: the bank to write
//   - error: ErrNoFreeBank if no bank is free, or if a write phase is already open
func (s *Set) Begin() (*Bank, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writing != nil {
		return nil, errors.New("buffer: write phase already open")
	}
	latest := s.latest.Load()
	for _, b := range s.banks {
		if b.readers > 0 || (latest != nil && latest.bank == b) {
			continue
		}
		b.reset()
		s.writing = b
		return b, nil
	}
	return nil, ErrNoFreeBank
}

// SetStatic replaces the contents of a static buffer. The slice is retained and must
// not be modified afterwards. The change is visible from the next published frame.
//
// Parameters:
//   - id: a static buffer ID
//   - data: the record bytes
//   - count: number of records (or indices) in data
func (s *Set) SetStatic(id ID, data []byte, count int) {
	if !id.Desc().Static {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staticV++
	s.statics[id] = staticBuffer{bytes: data, count: count, version: s.staticV}
}

// SetStaticRecords is SetStatic for a typed record slice.
func SetStaticRecords[T any](s *Set, id ID, records []T) {
	s.SetStatic(id, common.SliceToBytes(records), len(records))
}

// Publish ends the write phase and makes the bank the latest frame.
//
// Parameters:
//   - b: the bank returned by Begin
//
// Returns:
//   - *Frame: the published frame
func (s *Set) Publish(b *Bank) *Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b == nil || s.writing != b {
		return s.latest.Load()
	}
	s.seq++
	f := &b.frame
	f.Seq = s.seq
	f.Uniforms = b.Uniforms
	f.bank = b
	f.batches = b.batches

	dyn := []struct {
		id    ID
		n     int
		bytes []byte
		grows int
	}{
		{Aircraft, b.Aircraft.Len(), b.Aircraft.Bytes(), b.Aircraft.Grows()},
		{Spin, b.Spin.Len(), b.Spin.Bytes(), b.Spin.Grows()},
		{Glow, b.Glow.Len(), b.Glow.Bytes(), b.Glow.Grows()},
		{Trail, b.Trail.Len(), b.Trail.Bytes(), b.Trail.Grows()},
		{Label, b.Label.Len(), b.Label.Bytes(), b.Label.Grows()},
		{AltLine, b.AltLine.Len(), b.AltLine.Bytes(), b.AltLine.Grows()},
	}
	for _, d := range dyn {
		grew := d.grows > b.grows[d.id]
		if grew {
			s.totalGrw += d.grows - b.grows[d.id]
		}
		f.views[d.id] = View{ID: d.id, Count: d.n, Bytes: d.bytes, Version: s.seq, Grew: grew}
	}
	for id := range idCount {
		if !id.Desc().Static {
			continue
		}
		st := s.statics[id]
		f.views[id] = View{ID: id, Count: st.count, Bytes: st.bytes, Version: st.version}
	}

	s.writing = nil
	s.latest.Store(f)
	return f
}

// Abort ends the write phase without publishing.
func (s *Set) Abort(b *Bank) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writing == b {
		s.writing = nil
	}
}

// Latest returns the most recently published frame without holding it, or nil.
// Use Acquire when the frame's byte views are read after the next Begin.
func (s *Set) Latest() *Frame {
	return s.latest.Load()
}

// Acquire returns the latest published frame and holds its bank until Release,
// so no write phase can reuse it. Returns nil if nothing has been published.
func (s *Set) Acquire() *Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.latest.Load()
	if f != nil {
		f.bank.readers++
	}
	return f
}

// Release returns a frame obtained from Acquire.
func (s *Set) Release(f *Frame) {
	if f == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.bank.readers > 0 {
		f.bank.readers--
	}
}

// Grows returns the total number of dynamic array reallocations observed at publish time.
func (s *Set) Grows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalGrw
}
