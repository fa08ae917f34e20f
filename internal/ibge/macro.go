package ibge

import (
	"context"
	"sync"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// MacroIndex answers "which fine-grained tiles might intersect this polygon?"
// using the coarse 500 km grid. The grid is loaded lazily on first use and
// retained for the life of the process; it is assumed static. A failed load
// degrades to an empty candidate set and is retried on the next call.
//
// MacroIndex is safe for concurrent use; concurrent first calls trigger a
// single underlying fetch.
type MacroIndex struct {
	provider Provider
	group    singleflight.Group
	log      *zap.Logger

	mu    sync.RWMutex
	index *rtree.Rtree // *macroCell, WGS84; nil until loaded
	cells int
}

// NewMacroIndex creates a MacroIndex over the given provider.
func NewMacroIndex(p Provider) *MacroIndex {
	return &MacroIndex{
		provider: p,
		log:      zap.L().With(zap.String("component", "ibge.macro")),
	}
}

// ResolveTiles returns the sorted set of tile ids whose macro cell intersects
// the polygon, boundary included. An unavailable index or a polygon outside
// every macro cell yields an empty set, never an error: callers treat "no
// candidates" as "no data available".
func (m *MacroIndex) ResolveTiles(ctx context.Context, poly geom.Polygonal) []TileID {
	if poly == nil {
		return nil
	}
	index, err := m.load(ctx)
	if err != nil {
		m.log.Warn("macro index unavailable, returning no candidates", zap.Error(err))
		return nil
	}

	set := make(map[TileID]struct{})
	for _, hit := range index.SearchIntersect(poly.Bounds()) {
		mc := hit.(*macroCell)
		if polygonsIntersect(poly, mc.Polygonal) {
			set[mc.tile] = struct{}{}
		}
	}
	return sortedTileIDs(set)
}

// Loaded reports whether the macro grid is resident, and its cell count.
func (m *MacroIndex) Loaded() (bool, int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.index != nil, m.cells
}

func (m *MacroIndex) load(ctx context.Context) (*rtree.Rtree, error) {
	m.mu.RLock()
	if idx := m.index; idx != nil {
		m.mu.RUnlock()
		return idx, nil
	}
	m.mu.RUnlock()

	v, err, _ := m.group.Do("macro", func() (any, error) {
		m.mu.RLock()
		if idx := m.index; idx != nil {
			m.mu.RUnlock()
			return idx, nil
		}
		m.mu.RUnlock()

		path, err := m.provider.FetchMacroIndex(ctx)
		if err != nil {
			return nil, err
		}
		cells, err := loadMacroCells(path)
		if err != nil {
			return nil, err
		}

		idx := rtree.NewTree(25, 50)
		for _, c := range cells {
			idx.Insert(c)
		}

		m.mu.Lock()
		m.index = idx
		m.cells = len(cells)
		m.mu.Unlock()

		m.log.Info("macro index loaded", zap.Int("cells", len(cells)))
		return idx, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*rtree.Rtree), nil
}

// polygonsIntersect is a boundary-inclusive intersection test. A shared
// overlap area counts, and so does a pure boundary touch, which the clipping
// library reports as an empty intersection.
func polygonsIntersect(a, b geom.Polygonal) bool {
	if len(a.Intersection(b).(geom.Polygon)) > 0 {
		return true
	}
	return anyVertexTouches(a, b) || anyVertexTouches(b, a)
}

func anyVertexTouches(a, b geom.Polygonal) bool {
	for _, poly := range a.Polygons() {
		for _, ring := range poly {
			for _, pt := range ring {
				if pt.Within(b) != geom.Outside {
					return true
				}
			}
		}
	}
	return false
}
