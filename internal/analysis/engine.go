package analysis

import (
	"context"
	"fmt"

	"github.com/ctessum/geom"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/aldrones/groundrisk/internal/geo"
	"github.com/aldrones/groundrisk/internal/ibge"
)

// TileResolver maps a polygon to the fine-grid tiles that cover it.
type TileResolver interface {
	ResolveTiles(ctx context.Context, poly geom.Polygonal) []ibge.TileID
}

// TileSource hands out loaded tiles by id.
type TileSource interface {
	Get(ctx context.Context, id ibge.TileID) (*ibge.Tile, bool)
}

type engineOptions struct {
	srcProj string
	dstProj string
}

// Option configures an Engine.
type Option func(*engineOptions)

// WithProjection overrides the source and equal-area target projections.
// Inputs and grid cells are expected in src; all area and density math runs
// in dst.
func WithProjection(src, dst string) Option {
	return func(o *engineOptions) {
		o.srcProj = src
		o.dstProj = dst
	}
}

// Engine computes exposure statistics for polygons by intersecting them with
// statistical grid cells.
type Engine struct {
	resolver TileResolver
	tiles    TileSource
	proj     *geo.Projector
	log      *zap.Logger
}

// NewEngine creates an engine over the given tile resolver and source.
func NewEngine(resolver TileResolver, tiles TileSource, opts ...Option) (*Engine, error) {
	o := engineOptions{srcProj: geo.WGS84, dstProj: geo.AlbersBrazil}
	for _, opt := range opts {
		opt(&o)
	}
	proj, err := geo.NewProjector(o.srcProj, o.dstProj)
	if err != nil {
		return nil, eris.Wrap(err, "analysis: build projector")
	}
	return &Engine{
		resolver: resolver,
		tiles:    tiles,
		proj:     proj,
		log:      zap.L().With(zap.String("component", "analysis.engine")),
	}, nil
}

// Analyze intersects poly with every grid cell it touches and aggregates
// population. A nil or degenerate polygon yields all-zero statistics.
func (e *Engine) Analyze(ctx context.Context, poly geom.Polygon) (Stats, error) {
	if geo.Empty(poly) {
		return Stats{}, nil
	}

	projected, err := e.proj.Project(poly)
	if err != nil {
		return Stats{}, eris.Wrap(err, "analysis: project polygon")
	}
	areaKm2 := geo.AreaKm2(projected)
	if areaKm2 <= 0 {
		return Stats{}, nil
	}

	ids := e.resolver.ResolveTiles(ctx, poly)
	stats := Stats{AreaKm2: areaKm2, Tiles: len(ids)}

	bounds := poly.Bounds()
	seen := make(map[string]struct{})
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return Stats{}, eris.Wrap(err, "analysis: canceled")
		}
		tile, ok := e.tiles.Get(ctx, id)
		if !ok {
			e.log.Warn("tile unavailable, coverage may be incomplete",
				zap.Int("tile", int(id)))
			continue
		}
		for i, cell := range tile.SearchIntersect(bounds) {
			key := cell.ID
			if key == "" {
				key = fmt.Sprintf("%d#%d", int(id), i)
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			overlap := poly.Intersection(cell.Polygonal)
			if geo.Empty(overlap) {
				continue
			}
			overlapAlbers, err := e.proj.Project(overlap)
			if err != nil {
				return Stats{}, eris.Wrapf(err, "analysis: project overlap of cell %s", key)
			}
			cellAlbers, err := e.proj.Project(cell.Polygonal)
			if err != nil {
				return Stats{}, eris.Wrapf(err, "analysis: project cell %s", key)
			}
			cellKm2 := geo.AreaKm2(cellAlbers)
			overlapKm2 := geo.AreaKm2(overlapAlbers)
			if cellKm2 <= 0 || overlapKm2 <= 0 {
				continue
			}

			stats.Cells++
			stats.TotalPopulation += cell.Pop * overlapKm2 / cellKm2
			if density := cell.Pop / cellKm2; density > stats.DensityMax {
				stats.DensityMax = density
			}
		}
	}

	stats.DensityMean = stats.TotalPopulation / stats.AreaKm2
	e.log.Debug("polygon analyzed",
		zap.Float64("area_km2", stats.AreaKm2),
		zap.Float64("population", stats.TotalPopulation),
		zap.Int("cells", stats.Cells),
		zap.Int("tiles", stats.Tiles),
	)
	return stats, nil
}
