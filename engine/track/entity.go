package track

import (
	"math"
	"slices"
	"time"
)

// Category classifies an aircraft for mesh selection and instanced batching.
type Category int

const (
	CategoryJet Category = iota
	CategoryWidebody
	CategoryHelicopter
	CategorySmall
	CategoryMilitary
	CategoryRegional

	categoryCount
)

// Categories lists every category in batching order.
var Categories = []Category{
	CategoryJet, CategoryWidebody, CategoryHelicopter, CategorySmall, CategoryMilitary, CategoryRegional,
}

// SortOrder is the stable batching order used to group instances of the same mesh.
func (c Category) SortOrder() int {
	if c < 0 || c >= categoryCount {
		return int(CategoryJet)
	}
	return int(c)
}

func (c Category) String() string {
	switch c {
	case CategoryJet:
		return "jet"
	case CategoryWidebody:
		return "widebody"
	case CategoryHelicopter:
		return "helicopter"
	case CategorySmall:
		return "small"
	case CategoryMilitary:
		return "military"
	case CategoryRegional:
		return "regional"
	}
	return "unknown"
}

// Sample is one recorded point of an entity's path.
type Sample struct {
	Position [3]float32 // world space
	Altitude float32    // feet, drives the ramp color
}

// Entity is the per-frame state of one tracked aircraft.
type Entity struct {
	ID       string     // ICAO hex, unique per snapshot
	Callsign string     // may be empty
	Position [3]float32 // world space; Y is the scaled altitude
	Heading  float32    // radians about +Y
	Altitude float32    // feet
	Speed    float32    // ground speed in knots
	Category Category
	// Path is the recorded history, oldest first. May be empty.
	Path []Sample
}

// Valid reports whether the entity can be rendered. Entities with no ID or
// non-finite position/heading/altitude are skipped by every generator.
func (e Entity) Valid() bool {
	if e.ID == "" {
		return false
	}
	for _, v := range e.Position {
		if !finite(v) {
			return false
		}
	}
	return finite(e.Heading) && finite(e.Altitude)
}

func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Snapshot is an immutable, consistent view of all tracked entities for one frame.
// The tracking collaborator builds it once per frame; generators only read it.
type Snapshot struct {
	entities []Entity
	selected string
	taken    time.Time
}

// NewSnapshot deep-copies entities (including paths) so later mutation by the caller
// cannot be observed mid-frame.
//
// Parameters:
//   - entities: current entity states
//   - selected: ID of the selected entity, or "" for none
//
// Returns:
//   - Snapshot: the frozen snapshot
func NewSnapshot(entities []Entity, selected string) Snapshot {
	out := make([]Entity, len(entities))
	for i, e := range entities {
		out[i] = e
		out[i].Path = slices.Clone(e.Path)
	}
	return Snapshot{entities: out, selected: selected, taken: time.Now()}
}

// Len returns the number of entities.
func (s Snapshot) Len() int { return len(s.entities) }

// At returns a copy of the i'th entity. Its Path must be treated as read-only.
func (s Snapshot) At(i int) Entity { return s.entities[i] }

// Selected returns the selected entity ID.
func (s Snapshot) Selected() string { return s.selected }

// Taken returns when the snapshot was frozen.
func (s Snapshot) Taken() time.Time { return s.taken }

// WithPaths returns a snapshot sharing entity state but with paths supplied by lookup.
// Entities for which lookup returns nil keep their existing path.
func (s Snapshot) WithPaths(lookup func(id string) []Sample) Snapshot {
	out := make([]Entity, len(s.entities))
	copy(out, s.entities)
	for i := range out {
		if p := lookup(out[i].ID); p != nil {
			out[i].Path = p
		}
	}
	return Snapshot{entities: out, selected: s.selected, taken: s.taken}
}
