package terrain

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Carmen-Shannon/oxy-tracker/common"
	"github.com/Carmen-Shannon/oxy-tracker/engine/geo"
)

// DirSource reads Terrarium PNG tiles laid out as <root>/<z>/<x>/<y>.png,
// the layout written by common tile downloaders.
type DirSource struct {
	Root string
}

var _ TileSource = DirSource{}

// Path returns the file a tile is read from.
func (d DirSource) Path(tile geo.Tile) string {
	return filepath.Join(d.Root, strconv.Itoa(tile.Z), strconv.Itoa(tile.X), strconv.Itoa(tile.Y)+".png")
}

// Heightmap decodes the tile's PNG.
//
// Parameters:
//   - ctx: checked before the file is read
//   - tile: the tile to load
//
// Returns:
//   - Heightmap: the decoded grid
//   - error: os.ErrNotExist for a missing tile, ErrBadTerrainTile for a corrupt one
func (d DirSource) Heightmap(ctx context.Context, tile geo.Tile) (Heightmap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := d.Path(tile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tile %s: %w", tile, err)
	}
	return DecodeTerrarium(&common.ImportedImage{Name: tile.String(), Data: data})
}
