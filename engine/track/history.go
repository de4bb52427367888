package track

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-tracker/common"
)

const (
	// DefaultMaxTrailLength is the number of samples kept per entity unless configured.
	DefaultMaxTrailLength = 500
	// MinTrailLength and MaxTrailLength bound the configurable history length.
	MinTrailLength = 50
	MaxTrailLength = 4000
	// DefaultMinSpacing is the smallest world-space move that records a new sample.
	DefaultMinSpacing = 0.1
	// DefaultStaleAfter is how many consecutive absent observations drop an entity.
	DefaultStaleAfter = 3
)

// ring is a fixed-capacity FIFO of samples. Appending to a full ring overwrites the oldest.
type ring struct {
	buf    []Sample
	head   int // index of the oldest sample
	count  int
	misses int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]Sample, capacity)}
}

func (r *ring) push(s Sample) {
	if r.count < len(r.buf) {
		r.buf[(r.head+r.count)%len(r.buf)] = s
		r.count++
		return
	}
	r.buf[r.head] = s
	r.head = (r.head + 1) % len(r.buf)
}

func (r *ring) last() (Sample, bool) {
	if r.count == 0 {
		return Sample{}, false
	}
	return r.buf[(r.head+r.count-1)%len(r.buf)], true
}

// appendTo appends the samples oldest first to dst.
func (r *ring) appendTo(dst []Sample) []Sample {
	for i := range r.count {
		dst = append(dst, r.buf[(r.head+i)%len(r.buf)])
	}
	return dst
}

// resize keeps the newest min(count, capacity) samples.
func (r *ring) resize(capacity int) {
	samples := r.appendTo(make([]Sample, 0, r.count))
	if len(samples) > capacity {
		samples = samples[len(samples)-capacity:]
	}
	r.buf = make([]Sample, capacity)
	copy(r.buf, samples)
	r.head = 0
	r.count = len(samples)
}

// History records the recent path of every tracked entity.
// It is safe for concurrent use.
type History struct {
	mu         sync.Mutex
	trails     map[string]*ring
	present    map[string]struct{}
	maxLength  int
	minSpacing float32
	staleAfter int
}

// HistoryOption configures a History.
type HistoryOption func(*History)

// WithMaxLength sets the number of samples kept per entity, clamped to [MinTrailLength, MaxTrailLength].
func WithMaxLength(n int) HistoryOption {
	return func(h *History) {
		h.maxLength = common.Clamp(n, MinTrailLength, MaxTrailLength)
	}
}

// WithMinSpacing sets the smallest movement that records a new sample.
func WithMinSpacing(d float32) HistoryOption {
	return func(h *History) {
		h.minSpacing = max(d, 0)
	}
}

// WithStaleAfter sets how many consecutive absent observations drop an entity.
func WithStaleAfter(n int) HistoryOption {
	return func(h *History) {
		h.staleAfter = max(n, 1)
	}
}

// NewHistory creates an empty History.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - *History: the history store
func NewHistory(options ...HistoryOption) *History {
	h := &History{
		trails:     make(map[string]*ring),
		present:    make(map[string]struct{}),
		maxLength:  DefaultMaxTrailLength,
		minSpacing: DefaultMinSpacing,
		staleAfter: DefaultStaleAfter,
	}
	for _, opt := range options {
		opt(h)
	}
	return h
}

// Observe records the current position of every valid entity in the snapshot and ages
// out entities that have been absent for staleAfter consecutive observations.
// Positions closer than the minimum spacing to the last sample are not recorded.
//
// Parameters:
//   - snap: the current frame's snapshot
//
// Returns:
//   - int: the number of entities dropped as stale
func (h *History) Observe(snap Snapshot) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	present := h.present
	clear(present)
	for i := range snap.Len() {
		e := snap.At(i)
		if !e.Valid() {
			continue
		}
		present[e.ID] = struct{}{}
		r, ok := h.trails[e.ID]
		if !ok {
			r = newRing(h.maxLength)
			h.trails[e.ID] = r
		}
		r.misses = 0
		if last, ok := r.last(); ok && common.Distance3(last.Position, e.Position) < h.minSpacing {
			continue
		}
		r.push(Sample{Position: e.Position, Altitude: e.Altitude})
	}

	dropped := 0
	for id, r := range h.trails {
		if _, ok := present[id]; ok {
			continue
		}
		r.misses++
		if r.misses >= h.staleAfter {
			delete(h.trails, id)
			dropped++
		}
	}
	return dropped
}

// Path returns a copy of the entity's recorded samples, oldest first, or nil if unknown.
func (h *History) Path(id string) []Sample {
	return h.AppendPath(nil, id)
}

// AppendPath appends the entity's recorded samples, oldest first, to dst.
// dst is returned unchanged if the entity is unknown.
func (h *History) AppendPath(dst []Sample, id string) []Sample {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.trails[id]; ok {
		dst = r.appendTo(dst)
	}
	return dst
}

// PathBuffer is reusable storage for Attach. The zero value is ready to use.
type PathBuffer struct {
	entities []Entity
	samples  []Sample
}

// Attach returns a snapshot sharing the entity state of snap, with each entity's path
// replaced by its recorded history (nil when unknown). The entities and paths live in b and are
// overwritten by the next Attach on the same buffer, so the result must not outlive
// the frame it was built for. Once b has grown to the working set, Attach does not allocate.
//
// Parameters:
//   - snap: the frame snapshot
//   - b: storage reused across frames
//
// Returns:
//   - Snapshot: the snapshot with history paths
func (h *History) Attach(snap Snapshot, b *PathBuffer) Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	total := 0
	for i := range snap.entities {
		if r, ok := h.trails[snap.entities[i].ID]; ok {
			total += r.count
		}
	}
	if cap(b.samples) < total {
		b.samples = make([]Sample, 0, total+total/4)
	}
	b.samples = b.samples[:0]
	b.entities = append(b.entities[:0], snap.entities...)

	for i := range b.entities {
		e := &b.entities[i]
		r, ok := h.trails[e.ID]
		if !ok || r.count == 0 {
			e.Path = nil
			continue
		}
		start := len(b.samples)
		b.samples = r.appendTo(b.samples)
		e.Path = b.samples[start:len(b.samples):len(b.samples)]
	}
	return Snapshot{entities: b.entities, selected: snap.selected, taken: snap.taken}
}

// Len returns the number of entities with recorded history.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.trails)
}

// MaxLength returns the per-entity sample capacity.
func (h *History) MaxLength() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.maxLength
}

// SetMaxLength changes the per-entity capacity, clamped to [MinTrailLength, MaxTrailLength].
// Existing trails keep their newest samples.
func (h *History) SetMaxLength(n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.maxLength = common.Clamp(n, MinTrailLength, MaxTrailLength)
	for _, r := range h.trails {
		r.resize(h.maxLength)
	}
}

// Clear removes all recorded history.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	clear(h.trails)
}
