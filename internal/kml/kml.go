// Package kml parses named-layer KML geometry documents and extracts the
// safety-margin layer polygons used by the analysis pipeline. Only polygonal
// features are of interest; points and lines are ignored.
package kml

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/rotisserie/eris"
)

// Feature is one named placemark with its polygonal geometry.
type Feature struct {
	Name     string
	Polygons []geom.Polygon
}

// Document is a parsed KML document flattened to its polygonal features.
type Document struct {
	Features []Feature
}

type kmlRoot struct {
	XMLName  xml.Name  `xml:"kml"`
	Document container `xml:"Document"`
	// Some producers omit the Document wrapper.
	Placemarks []placemark `xml:"Placemark"`
}

type container struct {
	Folders    []container `xml:"Folder"`
	Documents  []container `xml:"Document"`
	Placemarks []placemark `xml:"Placemark"`
}

type placemark struct {
	Name          string       `xml:"name"`
	Polygon       *polygonElem `xml:"Polygon"`
	MultiGeometry *multiGeom   `xml:"MultiGeometry"`
}

type multiGeom struct {
	Polygons []polygonElem `xml:"Polygon"`
}

type polygonElem struct {
	Outer  boundary   `xml:"outerBoundaryIs"`
	Inners []boundary `xml:"innerBoundaryIs"`
}

type boundary struct {
	Ring linearRing `xml:"LinearRing"`
}

type linearRing struct {
	Coordinates string `xml:"coordinates"`
}

// Parse reads a KML document and returns its polygonal features. Placemarks
// without polygonal geometry are dropped.
func Parse(r io.Reader) (*Document, error) {
	var root kmlRoot
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&root); err != nil {
		return nil, eris.Wrap(err, "kml: decode document")
	}

	doc := &Document{}
	collect(&doc.Features, root.Placemarks)
	collectContainer(&doc.Features, root.Document)
	return doc, nil
}

func collectContainer(out *[]Feature, c container) {
	collect(out, c.Placemarks)
	for _, f := range c.Folders {
		collectContainer(out, f)
	}
	for _, d := range c.Documents {
		collectContainer(out, d)
	}
}

func collect(out *[]Feature, pms []placemark) {
	for _, pm := range pms {
		var elems []polygonElem
		if pm.Polygon != nil {
			elems = append(elems, *pm.Polygon)
		}
		if pm.MultiGeometry != nil {
			elems = append(elems, pm.MultiGeometry.Polygons...)
		}
		if len(elems) == 0 {
			continue
		}

		f := Feature{Name: strings.TrimSpace(pm.Name)}
		for _, el := range elems {
			p, err := buildPolygon(el)
			if err != nil || len(p) == 0 {
				continue
			}
			f.Polygons = append(f.Polygons, p)
		}
		if len(f.Polygons) > 0 {
			*out = append(*out, f)
		}
	}
}

func buildPolygon(el polygonElem) (geom.Polygon, error) {
	outer, err := parseCoordinates(el.Outer.Ring.Coordinates)
	if err != nil {
		return nil, err
	}
	if len(outer) < 3 {
		return nil, eris.New("kml: outer ring has fewer than 3 points")
	}
	p := geom.Polygon{outer}
	for _, inner := range el.Inners {
		ring, err := parseCoordinates(inner.Ring.Coordinates)
		if err != nil {
			return nil, err
		}
		if len(ring) >= 3 {
			p = append(p, ring)
		}
	}
	return p, nil
}

// parseCoordinates parses a KML coordinate list: whitespace-separated tuples
// of "lon,lat[,alt]". Altitude is discarded.
func parseCoordinates(s string) ([]geom.Point, error) {
	var pts []geom.Point
	for _, tok := range strings.Fields(s) {
		parts := strings.Split(tok, ",")
		if len(parts) < 2 {
			return nil, eris.Errorf("kml: malformed coordinate tuple %q", tok)
		}
		lon, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, eris.Wrapf(err, "kml: parse longitude %q", parts[0])
		}
		lat, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, eris.Wrapf(err, "kml: parse latitude %q", parts[1])
		}
		pts = append(pts, geom.Point{X: lon, Y: lat})
	}
	// KML rings repeat the first point at the end; the clipping library
	// expects unclosed rings.
	if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	return pts, nil
}
