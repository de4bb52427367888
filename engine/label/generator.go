package label

import (
	"cmp"
	"slices"
	"strconv"

	"github.com/Carmen-Shannon/oxy-tracker/common"
	"github.com/Carmen-Shannon/oxy-tracker/engine/buffer"
	"github.com/Carmen-Shannon/oxy-tracker/engine/layout"
	"github.com/Carmen-Shannon/oxy-tracker/engine/track"
)

const (
	DefaultFadeNear = 150
	DefaultFadeFar  = 300
	// DefaultMaxLabels caps the labels emitted per frame.
	DefaultMaxLabels = 1024

	// DefaultAnchorFadeNear and DefaultAnchorFadeFar bound the fade of anchor labels.
	DefaultAnchorFadeNear = 300
	DefaultAnchorFadeFar  = 500
	// DefaultMaxAnchors caps the anchor labels emitted per frame.
	DefaultMaxAnchors = 60

	labelHeight  = 8
	anchorHeight = 6
	// anchorTextRunes truncates anchor names to fit one atlas slot.
	anchorTextRunes = 12
)

var labelOffset = [3]float32{0, 4, 0}

// Fade is the distance-based label opacity: 1 at or below near, 0 at or beyond far,
// linear in between. A degenerate range (far <= near) is a hard cutoff at near.
//
// Parameters:
//   - distance: camera-to-entity distance
//   - near: full opacity threshold
//   - far: zero opacity threshold
//
// Returns:
//   - float32: opacity in [0, 1]
func Fade(distance, near, far float32) float32 {
	switch {
	case distance <= near:
		return 1
	case distance >= far:
		return 0
	}
	return 1 - (distance-near)/(far-near)
}

// Text returns the label text of an entity: callsign (or ID when empty), newline,
// and altitude in whole feet.
func Text(e track.Entity) string {
	return common.Coalesce(e.Callsign, e.ID) + "\n" + strconv.Itoa(int(e.Altitude)) + "ft"
}

// Anchor is a label pinned to a fixed world position, such as an airspace zone name.
type Anchor struct {
	// ID keys the atlas slot; it must not collide with entity IDs.
	ID       string
	Text     string
	Position [3]float32
}

// AnchorText truncates an anchor name to the runes that fit one atlas slot.
func AnchorText(name string) string {
	n := 0
	for i := range name {
		if n == anchorTextRunes {
			return name[:i]
		}
		n++
	}
	return name
}

// Output names the arrays the generator writes. Each is reset by the generator.
type Output struct {
	Labels   *buffer.Array[layout.LabelInstance]
	AltLines *buffer.Array[layout.AltLineVertex]
}

// Result describes what Generate wrote.
type Result struct {
	Labels int
	// Placeholders counts labels drawn with the placeholder region.
	Placeholders int
	// Culled counts entities at or beyond the far fade distance.
	Culled int
	// Anchors counts anchor labels written after the entity labels.
	Anchors int
}

// frameStarter is implemented by lookups that age their entries per frame.
type frameStarter interface {
	BeginFrame() int
}

// Generator builds billboard label instances and their altitude reference lines.
// Generate must not be called concurrently with itself.
type Generator struct {
	atlas        AtlasLookup
	placeholder  Region
	near, far    float32
	altLineColor [4]float32
	maxLabels    int
	visible      func(track.Entity) bool

	// texts caches label text per entity so unchanged labels are not re-formatted.
	texts map[string]cachedText
	frame uint64

	anchors               []Anchor
	anchorNear, anchorFar float32
	maxAnchors            int
	nearest               []anchorDistance
}

type anchorDistance struct {
	index    int
	distance float32
}

type cachedText struct {
	callsign string
	altitude int
	text     string
	seen     uint64
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithFade sets the near and far fade distances.
func WithFade(near, far float32) GeneratorOption {
	return func(g *Generator) {
		if near >= 0 && far > near {
			g.near, g.far = near, far
		}
	}
}

// WithAltLineColor sets the color of altitude reference lines.
func WithAltLineColor(c [4]float32) GeneratorOption {
	return func(g *Generator) { g.altLineColor = c }
}

// WithPlaceholder sets the region used when the atlas has no entry for a label.
func WithPlaceholder(r Region) GeneratorOption {
	return func(g *Generator) { g.placeholder = r }
}

// WithVisibility sets a predicate that hides labels of entities failing it, for
// example those outside the view frustum. Hidden entities count as culled.
func WithVisibility(visible func(track.Entity) bool) GeneratorOption {
	return func(g *Generator) { g.visible = visible }
}

// WithAnchorFade sets the near and far fade distances of anchor labels.
func WithAnchorFade(near, far float32) GeneratorOption {
	return func(g *Generator) {
		if near >= 0 && far > near {
			g.anchorNear, g.anchorFar = near, far
		}
	}
}

// WithMaxAnchors caps the anchor labels emitted per frame.
func WithMaxAnchors(n int) GeneratorOption {
	return func(g *Generator) { g.maxAnchors = max(n, 0) }
}

// WithMaxLabels caps the labels emitted per frame.
func WithMaxLabels(n int) GeneratorOption {
	return func(g *Generator) { g.maxLabels = max(n, 1) }
}

// NewGenerator creates a label Generator.
//
// Parameters:
//   - atlas: text atlas lookup; a new Atlas is created when nil
//   - options: functional options
//
// Returns:
//   - *Generator: the generator
func NewGenerator(atlas AtlasLookup, options ...GeneratorOption) *Generator {
	if atlas == nil {
		atlas = NewAtlas()
	}
	g := &Generator{
		atlas:        atlas,
		placeholder:  SlotRegion(PlaceholderSlot),
		near:         DefaultFadeNear,
		far:          DefaultFadeFar,
		altLineColor: [4]float32{0.5, 0.5, 0.5, 0.3},
		maxLabels:    DefaultMaxLabels,
		texts:        make(map[string]cachedText),
		anchorNear:   DefaultAnchorFadeNear,
		anchorFar:    DefaultAnchorFadeFar,
		maxAnchors:   DefaultMaxAnchors,
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// Configure applies options to an existing generator. Not safe to call while Generate runs.
func (g *Generator) Configure(options ...GeneratorOption) {
	for _, opt := range options {
		opt(g)
	}
}

// SetAnchors replaces the anchor labels. The slice is retained. Not safe to call
// while Generate runs.
func (g *Generator) SetAnchors(anchors []Anchor) {
	g.anchors = anchors
}

// Atlas returns the generator's atlas lookup.
func (g *Generator) Atlas() AtlasLookup { return g.atlas }

// Generate writes one label instance and two altitude line vertices (aircraft, ground)
// for every valid entity closer than the far fade distance, in snapshot order. Anchor
// labels within their far fade distance follow, nearest first.
//
// Parameters:
//   - snap: the frame snapshot
//   - cameraPos: world-space camera position from this frame's uniforms
//   - out: destination arrays
//
// Returns:
//   - Result: counts of emitted, placeholder and culled labels
func (g *Generator) Generate(snap track.Snapshot, cameraPos [3]float32, out Output) Result {
	if fs, ok := g.atlas.(frameStarter); ok {
		fs.BeginFrame()
	}
	out.Labels.Reset()
	out.AltLines.Reset()
	g.frame++

	var res Result
	for i := range snap.Len() {
		if res.Labels >= g.maxLabels {
			break
		}
		e := snap.At(i)
		if !e.Valid() {
			continue
		}
		opacity := Fade(common.Distance3(e.Position, cameraPos), g.near, g.far)
		if opacity <= 0 || (g.visible != nil && !g.visible(e)) {
			res.Culled++
			continue
		}

		region, ok := g.atlas.Region(e.ID, g.text(e))
		if !ok {
			region = g.placeholder
			res.Placeholders++
		}
		out.Labels.Append(layout.LabelInstance{
			Position:  common.Add3(e.Position, labelOffset),
			LabelSize: labelHeight,
			AtlasUV:   region.UV,
			AtlasSize: region.Size,
			Opacity:   opacity,
		})
		out.AltLines.Append(layout.AltLineVertex{
			Position: e.Position,
			WorldY:   e.Position[1],
			Color:    g.altLineColor,
		})
		out.AltLines.Append(layout.AltLineVertex{
			Position: [3]float32{e.Position[0], 0, e.Position[2]},
			Color:    g.altLineColor,
		})
		res.Labels++
	}
	g.appendAnchors(cameraPos, out.Labels, &res)
	for id, c := range g.texts {
		if c.seen != g.frame {
			delete(g.texts, id)
		}
	}
	return res
}

// text returns Text(e), formatting it only when the callsign or altitude changed.
func (g *Generator) text(e track.Entity) string {
	alt := int(e.Altitude)
	c, ok := g.texts[e.ID]
	if !ok || c.callsign != e.Callsign || c.altitude != alt {
		c = cachedText{callsign: e.Callsign, altitude: alt, text: Text(e)}
	}
	c.seen = g.frame
	g.texts[e.ID] = c
	return c.text
}

// appendAnchors writes the nearest anchors after the entity labels, within the
// label and anchor caps.
func (g *Generator) appendAnchors(cameraPos [3]float32, labels *buffer.Array[layout.LabelInstance], res *Result) {
	g.nearest = g.nearest[:0]
	for i, a := range g.anchors {
		if d := common.Distance3(a.Position, cameraPos); d < g.anchorFar {
			g.nearest = append(g.nearest, anchorDistance{index: i, distance: d})
		}
	}
	slices.SortFunc(g.nearest, func(a, b anchorDistance) int { return cmp.Compare(a.distance, b.distance) })

	for _, n := range g.nearest {
		if res.Anchors >= g.maxAnchors || res.Labels+res.Anchors >= g.maxLabels {
			return
		}
		a := g.anchors[n.index]
		region, ok := g.atlas.Region(a.ID, a.Text)
		if !ok {
			region = g.placeholder
			res.Placeholders++
		}
		labels.Append(layout.LabelInstance{
			Position:  a.Position,
			LabelSize: anchorHeight,
			AtlasUV:   region.UV,
			AtlasSize: region.Size,
			Opacity:   Fade(n.distance, g.anchorNear, g.anchorFar),
		})
		res.Anchors++
	}
}
