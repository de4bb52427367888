package label

import (
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	AtlasWidth  = 2048
	AtlasHeight = 2048
	SlotWidth   = 256
	SlotHeight  = 64

	slotColumns = AtlasWidth / SlotWidth
	slotRows    = AtlasHeight / SlotHeight
	// SlotCount is the number of slots in the atlas sheet, including the placeholder.
	SlotCount = slotColumns * slotRows

	// PlaceholderSlot holds the generic bitmap used when a label has no slot of its own.
	PlaceholderSlot = 0

	// DefaultStaleFrames is how many frames a label may go unused before its slot is freed.
	DefaultStaleFrames = 180
)

// Region is a normalized rectangle of the atlas texture.
type Region struct {
	UV   [2]float32 // top-left
	Size [2]float32
}

// AtlasLookup resolves label text to the atlas region holding its bitmap.
type AtlasLookup interface {
	// Region returns the region for the label of entity id with the given text.
	// ok is false when no region could be provided.
	Region(id, text string) (r Region, ok bool)
}

// RasterRequest asks the rasterizer to draw text into an atlas slot.
type RasterRequest struct {
	Slot int
	Text string
	// X, Y are the pixel origin of the slot in the atlas sheet.
	X, Y int
}

type atlasEntry struct {
	text     string
	slot     int
	lastSeen uint64
}

// Atlas is the built-in AtlasLookup: a fixed grid of SlotWidth x SlotHeight slots
// on an AtlasWidth x AtlasHeight sheet. Slots are allocated first-free and owned by
// entity id; an LRU tracks recency so the least recently used slot not seen this
// frame is reclaimed when the sheet is full. Rasterization is external: Pending
// drains the slots whose bitmap must be (re)drawn.
//
// It is safe for concurrent use.
type Atlas struct {
	mu          sync.Mutex
	used        []bool
	cache       *lru.Cache[string, *atlasEntry]
	frame       uint64
	staleFrames uint64
	pending     map[int]string
	log         *slog.Logger
}

var _ AtlasLookup = &Atlas{}

// AtlasOption configures an Atlas.
type AtlasOption func(*Atlas)

// WithStaleFrames sets how many frames an unused label keeps its slot.
func WithStaleFrames(n int) AtlasOption {
	return func(a *Atlas) { a.staleFrames = uint64(max(n, 1)) }
}

// WithAtlasLogger sets the logger used to report a full atlas.
func WithAtlasLogger(l *slog.Logger) AtlasOption {
	return func(a *Atlas) {
		if l != nil {
			a.log = l
		}
	}
}

// NewAtlas creates an empty atlas. The placeholder slot is reserved and queued for rasterization.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - *Atlas: the atlas
func NewAtlas(options ...AtlasOption) *Atlas {
	a := &Atlas{
		used:        make([]bool, SlotCount),
		staleFrames: DefaultStaleFrames,
		pending:     make(map[int]string),
		log:         slog.Default(),
	}
	// sized to the slot count so the cache never evicts on its own
	a.cache, _ = lru.NewWithEvict[string, *atlasEntry](SlotCount, func(_ string, e *atlasEntry) {
		a.used[e.slot] = false
		delete(a.pending, e.slot)
	})
	for _, opt := range options {
		opt(a)
	}
	a.reservePlaceholder()
	return a
}

func (a *Atlas) reservePlaceholder() {
	a.used[PlaceholderSlot] = true
	a.pending[PlaceholderSlot] = "…"
}

// SlotRegion returns the normalized region of a slot.
func SlotRegion(slot int) Region {
	col, row := slot%slotColumns, slot/slotColumns
	return Region{
		UV:   [2]float32{float32(col*SlotWidth) / AtlasWidth, float32(row*SlotHeight) / AtlasHeight},
		Size: [2]float32{float32(SlotWidth) / AtlasWidth, float32(SlotHeight) / AtlasHeight},
	}
}

// Placeholder returns the region of the placeholder bitmap.
func (a *Atlas) Placeholder() Region { return SlotRegion(PlaceholderSlot) }

// BeginFrame advances the frame counter and frees the slots of labels not seen for
// more than the stale frame count. Every lookup refreshes recency, so the LRU order is
// lastSeen order and the sweep stops at the first fresh entry.
//
// Returns:
//   - int: the number of slots freed
func (a *Atlas) BeginFrame() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.frame++
	freed := 0
	for {
		_, e, ok := a.cache.GetOldest()
		if !ok || a.frame-e.lastSeen <= a.staleFrames {
			return freed
		}
		a.cache.RemoveOldest()
		freed++
	}
}

func (a *Atlas) Region(id, text string) (Region, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if e, ok := a.cache.Get(id); ok {
		e.lastSeen = a.frame
		if e.text != text {
			e.text = text
			a.pending[e.slot] = text
		}
		return SlotRegion(e.slot), true
	}

	slot, ok := a.allocate()
	if !ok {
		a.log.Warn("label atlas full", "id", id, "slots", SlotCount)
		return Region{}, false
	}
	a.cache.Add(id, &atlasEntry{text: text, slot: slot, lastSeen: a.frame})
	a.pending[slot] = text
	return SlotRegion(slot), true
}

// allocate returns the first free slot, reclaiming the least recently used label
// that was not seen this frame when none is free. Caller must hold the mutex.
func (a *Atlas) allocate() (int, bool) {
	for i, inUse := range a.used {
		if !inUse {
			a.used[i] = true
			return i, true
		}
	}
	id, e, ok := a.cache.GetOldest()
	if !ok || e.lastSeen == a.frame {
		return 0, false
	}
	slot := e.slot
	a.cache.Remove(id)
	a.used[slot] = true
	return slot, true
}

// Pending drains the slots whose bitmap must be drawn, in no particular order.
//
// Returns:
//   - []RasterRequest: the slots to rasterize
func (a *Atlas) Pending() []RasterRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]RasterRequest, 0, len(a.pending))
	for slot, text := range a.pending {
		out = append(out, RasterRequest{
			Slot: slot,
			Text: text,
			X:    (slot % slotColumns) * SlotWidth,
			Y:    (slot / slotColumns) * SlotHeight,
		})
	}
	clear(a.pending)
	return out
}

// Invalidate frees every label slot so bitmaps are redrawn, e.g. after a theme change.
func (a *Atlas) Invalidate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cache.Purge()
	clear(a.used)
	clear(a.pending)
	a.reservePlaceholder()
}

// Len returns the number of labels holding a slot.
func (a *Atlas) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cache.Len()
}
