// Package ibge loads the IBGE Census statistical grid: a coarse 500 km macro
// index used to decide which fine-grained population tiles are worth
// downloading, and the tiles themselves. Both are cached for the life of the
// process.
package ibge

import (
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
)

// TileID identifies one fine-grained statistical grid partition. IDs are
// stable across runs: the same polygon always resolves to the same tile set.
type TileID int

// Cell is one population cell of a grid tile, in WGS84. Cells within a tile
// never overlap; the mixed grid resolution is roughly 1 km² in rural zones
// and 0.04 km² in urban zones.
type Cell struct {
	geom.Polygonal

	// ID is the nationally unique cell identifier (ID_UNICO attribute).
	ID string
	// Pop is the resident population count (TOTAL attribute).
	Pop float64
}

// Tile is a parsed population grid tile with a bounding-box index over its
// cells.
type Tile struct {
	id    TileID
	cells []*Cell
	index *rtree.Rtree
}

// NewTile builds a tile and its spatial index from parsed cells.
func NewTile(id TileID, cells []*Cell) *Tile {
	t := &Tile{id: id, cells: cells, index: rtree.NewTree(25, 50)}
	for _, c := range cells {
		t.index.Insert(c)
	}
	return t
}

// ID returns the tile identifier.
func (t *Tile) ID() TileID { return t.id }

// Len returns the number of cells in the tile.
func (t *Tile) Len() int { return len(t.cells) }

// SearchIntersect returns the cells whose bounding box overlaps b. This is a
// prefilter: callers must still test actual geometric intersection.
func (t *Tile) SearchIntersect(b *geom.Bounds) []*Cell {
	hits := t.index.SearchIntersect(b)
	cells := make([]*Cell, len(hits))
	for i, h := range hits {
		cells[i] = h.(*Cell)
	}
	return cells
}

// macroCell is one cell of the coarse index: its footprint and the tile it
// bounds. Macro cells never contribute population counts.
type macroCell struct {
	geom.Polygonal
	tile TileID
}

func sortedTileIDs(set map[TileID]struct{}) []TileID {
	ids := make([]TileID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
