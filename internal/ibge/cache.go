package ibge

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// TileCache memoizes parsed grid tiles by id for the life of the process.
// There is no TTL and no capacity bound: the tile universe is finite and
// bounded by the territory analyzed in one run.
//
// Concurrent misses for the same id are coalesced into a single provider
// fetch. A failed fetch or parse is logged and surfaces as absent rather than
// an error; it is not negatively cached, so a later call may succeed.
type TileCache struct {
	provider Provider
	group    singleflight.Group
	log      *zap.Logger

	mu    sync.RWMutex
	tiles map[TileID]*Tile

	fetches atomic.Int64
	hits    atomic.Int64
	misses  atomic.Int64
}

// CacheStats summarizes tile cache activity.
type CacheStats struct {
	Tiles   int   `json:"tiles"`
	Fetches int64 `json:"fetches"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// NewTileCache creates a TileCache over the given provider.
func NewTileCache(p Provider) *TileCache {
	return &TileCache{
		provider: p,
		tiles:    make(map[TileID]*Tile),
		log:      zap.L().With(zap.String("component", "ibge.tilecache")),
	}
}

// Get returns the tile for id, fetching and parsing it on first access.
// A missing or unloadable tile returns (nil, false); it contributes zero
// cells to the analysis instead of aborting it.
func (c *TileCache) Get(ctx context.Context, id TileID) (*Tile, bool) {
	c.mu.RLock()
	t, ok := c.tiles[id]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return t, true
	}
	c.misses.Add(1)

	v, err, _ := c.group.Do(strconv.Itoa(int(id)), func() (any, error) {
		// Another coalesced caller may have filled the entry already.
		c.mu.RLock()
		t, ok := c.tiles[id]
		c.mu.RUnlock()
		if ok {
			return t, nil
		}

		c.fetches.Add(1)
		path, err := c.provider.FetchTile(ctx, id)
		if err != nil {
			return nil, err
		}
		cells, err := loadCells(path)
		if err != nil {
			return nil, err
		}
		tile := NewTile(id, cells)

		c.mu.Lock()
		c.tiles[id] = tile
		c.mu.Unlock()

		c.log.Debug("tile loaded", zap.Int("tile", int(id)), zap.Int("cells", len(cells)))
		return tile, nil
	})
	if err != nil {
		c.log.Warn("tile unavailable, treating as empty",
			zap.Int("tile", int(id)),
			zap.Error(err),
		)
		return nil, false
	}
	return v.(*Tile), true
}

// Stats returns a snapshot of cache activity.
func (c *TileCache) Stats() CacheStats {
	c.mu.RLock()
	n := len(c.tiles)
	c.mu.RUnlock()
	return CacheStats{
		Tiles:   n,
		Fetches: c.fetches.Load(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}
