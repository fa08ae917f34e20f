// Package geo holds the spatial references and polygon helpers shared by the
// grid loaders and the analysis engine. All area and density arithmetic must
// go through an equal-area projection; computing areas in geographic
// coordinates gives latitude-dependent results.
package geo

import (
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/rotisserie/eris"
)

// WGS84 is the geographic coordinate system of KML input and of the grid
// datasets after loading.
const WGS84 = "+proj=longlat +datum=WGS84 +no_defs"

// AlbersBrazil is the Albers Equal Area conic projection used by the IBGE
// statistical grid. Densities and areas over Brazilian territory are computed
// in this system.
const AlbersBrazil = "+proj=aea +lat_0=-12 +lon_0=-54 +lat_1=-2 +lat_2=-22 " +
	"+x_0=0 +y_0=0 +datum=WGS84 +units=m +no_defs"

// Projector reprojects geometries between two fixed spatial references.
// A Projector is safe for concurrent use.
type Projector struct {
	trans proj.Transformer
}

// NewProjector parses the source and destination spatial references (proj4
// strings) and returns a Projector between them.
func NewProjector(src, dst string) (*Projector, error) {
	srcSR, err := proj.Parse(src)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: parse source SR %q", src)
	}
	dstSR, err := proj.Parse(dst)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: parse destination SR %q", dst)
	}
	trans, err := srcSR.NewTransform(dstSR)
	if err != nil {
		return nil, eris.Wrap(err, "geo: build transform")
	}
	return &Projector{trans: trans}, nil
}

// Project reprojects a polygonal geometry.
func (p *Projector) Project(g geom.Polygonal) (geom.Polygonal, error) {
	out, err := g.Transform(p.trans)
	if err != nil {
		return nil, eris.Wrap(err, "geo: transform geometry")
	}
	poly, ok := out.(geom.Polygonal)
	if !ok {
		return nil, eris.Errorf("geo: transform produced non-polygonal %T", out)
	}
	return poly, nil
}

// AreaKm2 returns the area of a polygon in km². The polygon must already be
// in a meter-based equal-area system.
func AreaKm2(g geom.Polygonal) float64 {
	if g == nil {
		return 0
	}
	return g.Area() / 1e6
}

// UnionAll merges a set of polygons into one. Returns nil for an empty input.
func UnionAll(polys []geom.Polygon) geom.Polygon {
	var out geom.Polygon
	for _, p := range polys {
		if len(p) == 0 {
			continue
		}
		if out == nil {
			out = p
			continue
		}
		out = out.Union(p).(geom.Polygon)
	}
	return out
}

// Empty reports whether a polygon has no rings or zero area.
func Empty(g geom.Polygonal) bool {
	if g == nil {
		return true
	}
	polys := g.Polygons()
	if len(polys) == 0 {
		return true
	}
	nonempty := false
	for _, p := range polys {
		if len(p) > 0 {
			nonempty = true
			break
		}
	}
	return !nonempty || g.Area() == 0
}
