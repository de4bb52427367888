package airspace

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-tracker/engine/buffer"
	"github.com/Carmen-Shannon/oxy-tracker/engine/geo"
	"github.com/Carmen-Shannon/oxy-tracker/engine/layout"
	"github.com/Carmen-Shannon/oxy-tracker/engine/palette"
	"golang.org/x/sync/errgroup"
)

// Result is the assembled airspace geometry of every visible zone.
type Result struct {
	Fill  []layout.AirspaceVertex
	Edges []layout.AirspaceVertex
	// Classes are the fill ranges per class, in draw order.
	Classes []buffer.Range
	// Anchors holds one name label position per distinct zone name, in draw order.
	Anchors []Anchor
	Skipped int
}

// Anchor is where a zone's name label is drawn: above the ring's vertex centroid,
// midway between floor and ceiling.
type Anchor struct {
	Name     string
	Position [3]float32
}

// AnchorOf returns the label anchor of a zone.
func AnchorOf(z Zone, proj *geo.Projection) Anchor {
	var lon, lat float64
	for _, p := range z.Ring {
		lon += p[0]
		lat += p[1]
	}
	n := float64(max(len(z.Ring), 1))
	return Anchor{Name: z.Name, Position: proj.WorldPosition(lon/n, lat/n, (z.FloorFt+z.CeilingFt)/2)}
}

// Layer owns the zone set and rebuilds its geometry when zones, theme or class
// visibility change. It is safe for concurrent use.
type Layer struct {
	mu      sync.Mutex
	proj    *geo.Projection
	theme   palette.ThemeConfig
	visible map[palette.AirspaceClass]bool
	zones   []Zone
	dirty   bool
	// gen counts changes; Build only clears dirty if none happened while it ran.
	gen     uint64
	workers int
	log     *slog.Logger
}

// LayerOption configures a Layer.
type LayerOption func(*Layer)

// WithTheme sets the color table used for fill and outline colors.
func WithTheme(t palette.ThemeConfig) LayerOption {
	return func(l *Layer) { l.theme = t }
}

// WithClasses limits the visible classes. B, C and D are visible by default.
func WithClasses(classes ...palette.AirspaceClass) LayerOption {
	return func(l *Layer) {
		clear(l.visible)
		for _, c := range classes {
			l.visible[c] = true
		}
	}
}

// WithWorkers bounds how many zones are extruded concurrently.
func WithWorkers(n int) LayerOption {
	return func(l *Layer) { l.workers = max(n, 1) }
}

// WithLogger sets the logger used to report skipped zones.
func WithLogger(log *slog.Logger) LayerOption {
	return func(l *Layer) {
		if log != nil {
			l.log = log
		}
	}
}

// NewLayer creates an empty airspace layer.
func NewLayer(proj *geo.Projection, options ...LayerOption) *Layer {
	if proj == nil {
		proj = geo.NewProjection()
	}
	l := &Layer{
		proj:  proj,
		theme: palette.ThemeDay.Config(),
		visible: map[palette.AirspaceClass]bool{
			palette.ClassB: true,
			palette.ClassC: true,
			palette.ClassD: true,
		},
		workers: 4,
		log:     slog.Default(),
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

// SetZones replaces the zone set.
func (l *Layer) SetZones(zones []Zone) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.zones = slices.Clone(zones)
	l.touch()
}

// Zones returns a copy of the zone set.
func (l *Layer) Zones() []Zone {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.zones)
}

// SetTheme changes the color table.
func (l *Layer) SetTheme(t palette.ThemeConfig) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.theme = t
	l.touch()
}

// SetVisible toggles a class.
func (l *Layer) SetVisible(class palette.AirspaceClass, on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.visible[class] == on {
		return
	}
	l.visible[class] = on
	l.touch()
}

// touch marks the geometry stale. Callers hold mu.
func (l *Layer) touch() {
	l.gen++
	l.dirty = true
}

// Visible reports whether a class is drawn.
func (l *Layer) Visible(class palette.AirspaceClass) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.visible[class]
}

// Dirty reports whether Build must run before the geometry is current.
func (l *Layer) Dirty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dirty
}

// Build extrudes every visible zone and concatenates the result in class draw order
// (D, C, B), keeping the input order within a class. Zones that cannot be extruded are
// skipped and counted. The dirty flag is cleared on success unless the zones, theme
// or visibility changed while Build ran; the next Build then picks up the change.
//
// Parameters:
//   - ctx: cancels the build
//
// Returns:
//   - Result: the assembled geometry
//   - error: the context error if ctx was cancelled
func (l *Layer) Build(ctx context.Context) (Result, error) {
	l.mu.Lock()
	zones := make([]Zone, 0, len(l.zones))
	for _, z := range l.zones {
		if l.visible[z.Class] {
			zones = append(zones, z)
		}
	}
	theme := l.theme
	gen := l.gen
	l.mu.Unlock()

	slices.SortStableFunc(zones, func(a, b Zone) int {
		return ClassOrder(a.Class) - ClassOrder(b.Class)
	})

	meshes := make([]Mesh, len(zones))
	failed := make([]bool, len(zones))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(l.workers)
	for i, z := range zones {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m, err := BuildMesh(z, l.proj, theme.AirspaceFillColor(z.Class), theme.AirspaceEdgeColor(z.Class))
			if err != nil {
				l.log.Warn("skipping airspace zone", "zone", z.Name, "class", z.Class.String(), "error", err)
				failed[i] = true
				return nil
			}
			meshes[i] = m
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Result{}, err
	}

	var res Result
	named := make(map[string]bool, len(zones))
	for i, m := range meshes {
		if failed[i] {
			res.Skipped++
			continue
		}
		if z := zones[i]; z.Name != "" && !named[z.Name] {
			named[z.Name] = true
			res.Anchors = append(res.Anchors, AnchorOf(z, l.proj))
		}
		name := zones[i].Class.String()
		if n := len(res.Classes); n == 0 || res.Classes[n-1].Name != name {
			res.Classes = append(res.Classes, buffer.Range{Name: name, Offset: len(res.Fill)})
		}
		res.Fill = append(res.Fill, m.Fill...)
		res.Edges = append(res.Edges, m.Edges...)
		res.Classes[len(res.Classes)-1].Count += len(m.Fill)
	}

	l.mu.Lock()
	if l.gen == gen {
		l.dirty = false
	}
	l.mu.Unlock()
	return res, nil
}
