package ibge

import (
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/aldrones/groundrisk/internal/geo"
)

// Statistical grid attribute columns (Census 2022 layout).
const (
	cellIDField  = "ID_UNICO"
	cellPopField = "TOTAL"
	macroIDField = "QUADRANTE"
)

// loadCells reads a statistical grid shapefile and returns its population
// cells reprojected to WGS84. The grid ships in SIRGAS2000 Albers; the .prj
// sidecar file is required.
func loadCells(shpPath string) ([]*Cell, error) {
	d, err := shp.NewDecoder(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "ibge: open grid shapefile %s", shpPath)
	}
	defer d.Close()

	trans, err := wgs84Transform(d)
	if err != nil {
		return nil, err
	}

	var cells []*Cell
	var skipped int
	for {
		g, fields, more := d.DecodeRowFields(cellIDField, cellPopField)
		if !more {
			break
		}
		pop, err := attrToFloat(fields[cellPopField])
		if err != nil || pop < 0 {
			skipped++
			continue
		}
		poly, err := reprojectPolygonal(g, trans)
		if err != nil {
			skipped++
			continue
		}
		cells = append(cells, &Cell{
			Polygonal: poly,
			ID:        strings.TrimSpace(fields[cellIDField]),
			Pop:       pop,
		})
	}
	if err := d.Error(); err != nil {
		return nil, eris.Wrapf(err, "ibge: decode grid shapefile %s", shpPath)
	}
	if skipped > 0 {
		zap.L().Debug("ibge: skipped grid records",
			zap.String("shapefile", shpPath),
			zap.Int("skipped", skipped),
		)
	}
	return cells, nil
}

// loadMacroCells reads the 500 km macro grid shapefile. Each record's
// QUADRANTE attribute carries the bounded tile id as an "ID_<n>" label.
func loadMacroCells(shpPath string) ([]*macroCell, error) {
	d, err := shp.NewDecoder(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "ibge: open macro shapefile %s", shpPath)
	}
	defer d.Close()

	trans, err := wgs84Transform(d)
	if err != nil {
		return nil, err
	}

	var cells []*macroCell
	for {
		g, fields, more := d.DecodeRowFields(macroIDField)
		if !more {
			break
		}
		id, err := parseTileLabel(fields[macroIDField])
		if err != nil {
			return nil, err
		}
		poly, err := reprojectPolygonal(g, trans)
		if err != nil {
			return nil, err
		}
		cells = append(cells, &macroCell{Polygonal: poly, tile: id})
	}
	if err := d.Error(); err != nil {
		return nil, eris.Wrapf(err, "ibge: decode macro shapefile %s", shpPath)
	}
	return cells, nil
}

// wgs84Transform builds the transform from the shapefile's spatial reference
// (read from the .prj sidecar) to WGS84.
func wgs84Transform(d *shp.Decoder) (proj.Transformer, error) {
	sr, err := d.SR()
	if err != nil {
		return nil, eris.Wrap(err, "ibge: read shapefile spatial reference")
	}
	wgs84, err := proj.Parse(geo.WGS84)
	if err != nil {
		return nil, eris.Wrap(err, "ibge: parse WGS84")
	}
	trans, err := sr.NewTransform(wgs84)
	if err != nil {
		return nil, eris.Wrap(err, "ibge: build WGS84 transform")
	}
	return trans, nil
}

func reprojectPolygonal(g geom.Geom, trans proj.Transformer) (geom.Polygonal, error) {
	if g == nil {
		return nil, eris.New("ibge: record has no geometry")
	}
	gg, err := g.Transform(trans)
	if err != nil {
		return nil, eris.Wrap(err, "ibge: reproject record")
	}
	poly, ok := gg.(geom.Polygonal)
	if !ok {
		return nil, eris.Errorf("ibge: record geometry is %T, want polygon", gg)
	}
	return poly, nil
}

// parseTileLabel strips the "ID_" prefix from a macro cell label. Plain
// numeric labels are accepted too.
func parseTileLabel(label string) (TileID, error) {
	s := strings.TrimSpace(label)
	s = strings.TrimPrefix(s, "ID_")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, eris.Wrapf(err, "ibge: parse macro cell label %q", label)
	}
	return TileID(n), nil
}

// attrToFloat parses a DBF numeric attribute. Empty and "*" (null) values
// count as zero population.
func attrToFloat(s string) (float64, error) {
	s = strings.TrimSpace(strings.Trim(s, "\x00"))
	if s == "" || strings.Contains(s, "*") {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
