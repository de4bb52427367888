package terrain

import (
	"context"
	"log/slog"
	"time"

	"github.com/Carmen-Shannon/oxy-tracker/engine/geo"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"
)

// DefaultCacheSize is the number of tile meshes kept in memory.
const DefaultCacheSize = 250

// TileSource supplies heightmaps for tiles, e.g. by fetching Terrarium PNGs.
type TileSource interface {
	Heightmap(ctx context.Context, tile geo.Tile) (Heightmap, error)
}

// Cache builds terrain meshes once per tile and keeps the most recently used ones.
// It is safe for concurrent use.
type Cache struct {
	meshes       *expirable.LRU[geo.Tile, Mesh]
	proj         *geo.Projection
	subdivisions int
	scale        float32
	workers      int
	log          *slog.Logger
}

type cacheConfig struct {
	size int
	ttl  time.Duration
}

// CacheOption configures a Cache.
type CacheOption func(*Cache, *cacheConfig)

// WithCacheSize sets how many tile meshes are kept.
func WithCacheSize(n int) CacheOption {
	return func(_ *Cache, cfg *cacheConfig) { cfg.size = max(n, 1) }
}

// WithTTL expires cached meshes after d. Zero keeps them until evicted by size.
func WithTTL(d time.Duration) CacheOption {
	return func(_ *Cache, cfg *cacheConfig) { cfg.ttl = d }
}

// WithSubdivisions sets the quads per tile side.
func WithSubdivisions(n int) CacheOption {
	return func(c *Cache, _ *cacheConfig) { c.subdivisions = max(n, 1) }
}

// WithElevationScale sets world units per metre of elevation.
func WithElevationScale(s float32) CacheOption {
	return func(c *Cache, _ *cacheConfig) {
		if s > 0 {
			c.scale = s
		}
	}
}

// WithWorkers bounds how many tiles Load fetches and builds at once.
func WithWorkers(n int) CacheOption {
	return func(c *Cache, _ *cacheConfig) { c.workers = max(n, 1) }
}

// WithLogger sets the logger used to report skipped tiles.
func WithLogger(l *slog.Logger) CacheOption {
	return func(c *Cache, _ *cacheConfig) {
		if l != nil {
			c.log = l
		}
	}
}

// NewCache creates a mesh cache.
//
// Parameters:
//   - proj: projection used to place tiles in world space; the default projection when nil
//   - options: functional options
//
// Returns:
//   - *Cache: the cache
func NewCache(proj *geo.Projection, options ...CacheOption) *Cache {
	if proj == nil {
		proj = geo.NewProjection()
	}
	c := &Cache{
		proj:         proj,
		subdivisions: DefaultSubdivisions,
		scale:        DefaultElevationScale,
		workers:      4,
		log:          slog.Default(),
	}
	cfg := cacheConfig{size: DefaultCacheSize}
	for _, opt := range options {
		opt(c, &cfg)
	}
	c.meshes = expirable.NewLRU[geo.Tile, Mesh](cfg.size, nil, cfg.ttl)
	return c
}

// Get returns a cached mesh.
func (c *Cache) Get(tile geo.Tile) (Mesh, bool) {
	return c.meshes.Get(tile)
}

// Mesh returns the cached mesh of a tile, building it from h on a miss.
//
// Parameters:
//   - tile: the tile coordinate
//   - h: elevation source for the tile
//
// Returns:
//   - Mesh: the tile mesh
func (c *Cache) Mesh(tile geo.Tile, h Heightmap) Mesh {
	if m, ok := c.meshes.Get(tile); ok {
		return m
	}
	m := BuildMesh(h, c.proj.TileExtent(tile), c.subdivisions, c.scale)
	c.meshes.Add(tile, m)
	return m
}

// Load returns the merged mesh of the tiles, in the given order, fetching and
// building missing tiles concurrently. Tiles whose heightmap cannot be fetched are
// skipped with a warning.
//
// Parameters:
//   - ctx: cancels outstanding fetches
//   - src: heightmap source for tiles not in the cache
//   - tiles: the tiles to cover
//
// Returns:
//   - Mesh: the merged mesh
//   - error: the context error if ctx was cancelled
func (c *Cache) Load(ctx context.Context, src TileSource, tiles []geo.Tile) (Mesh, error) {
	meshes := make([]Mesh, len(tiles))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(c.workers)
	for i, tile := range tiles {
		if m, ok := c.meshes.Get(tile); ok {
			meshes[i] = m
			continue
		}
		eg.Go(func() error {
			h, err := src.Heightmap(ctx, tile)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				c.log.Warn("skipping terrain tile", "tile", tile.String(), "error", err)
				return nil
			}
			meshes[i] = c.Mesh(tile, h)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Mesh{}, err
	}
	return Merge(meshes...), nil
}

// Len returns the number of cached meshes.
func (c *Cache) Len() int { return c.meshes.Len() }

// Purge drops every cached mesh, e.g. when the elevation scale changes.
func (c *Cache) Purge() { c.meshes.Purge() }
