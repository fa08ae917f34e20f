package kml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleKML = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
<Document>
  <Folder>
    <Placemark>
      <name>Flight Geography</name>
      <Polygon>
        <outerBoundaryIs><LinearRing><coordinates>
          -54.0,-12.0,0 -53.9,-12.0,0 -53.9,-11.9,0 -54.0,-11.9,0 -54.0,-12.0,0
        </coordinates></LinearRing></outerBoundaryIs>
      </Polygon>
    </Placemark>
    <Placemark>
      <name>Ground Risk Buffer</name>
      <MultiGeometry>
        <Polygon>
          <outerBoundaryIs><LinearRing><coordinates>
            -54.1,-12.1 -53.8,-12.1 -53.8,-11.8 -54.1,-11.8 -54.1,-12.1
          </coordinates></LinearRing></outerBoundaryIs>
        </Polygon>
        <Polygon>
          <outerBoundaryIs><LinearRing><coordinates>
            -54.3,-12.1 -54.2,-12.1 -54.2,-12.0 -54.3,-12.0
          </coordinates></LinearRing></outerBoundaryIs>
        </Polygon>
      </MultiGeometry>
    </Placemark>
    <Placemark>
      <name>Waypoint Only</name>
    </Placemark>
  </Folder>
</Document>
</kml>`

func TestParse(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleKML))
	require.NoError(t, err)
	require.Len(t, doc.Features, 2)

	assert.Equal(t, "Flight Geography", doc.Features[0].Name)
	require.Len(t, doc.Features[0].Polygons, 1)
	// Closing point is dropped.
	assert.Len(t, doc.Features[0].Polygons[0][0], 4)

	assert.Equal(t, "Ground Risk Buffer", doc.Features[1].Name)
	assert.Len(t, doc.Features[1].Polygons, 2)
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse(strings.NewReader("not xml at all <<"))
	assert.Error(t, err)
}

func TestParse_BadCoordinates(t *testing.T) {
	kml := `<kml><Document><Placemark><name>x</name><Polygon>
		<outerBoundaryIs><LinearRing><coordinates>1,2 3,oops 5,6</coordinates></LinearRing></outerBoundaryIs>
		</Polygon></Placemark></Document></kml>`
	doc, err := Parse(strings.NewReader(kml))
	// The bad feature is dropped, the document still parses.
	require.NoError(t, err)
	assert.Empty(t, doc.Features)
}

func TestExtractLayers(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleKML))
	require.NoError(t, err)

	names := []string{"Flight Geography", "Contingency Volume", "Ground Risk Buffer"}
	layers, missing := ExtractLayers(doc, names)

	assert.Len(t, layers, 2)
	assert.Contains(t, layers, "Flight Geography")
	assert.Contains(t, layers, "Ground Risk Buffer")

	require.Len(t, missing, 1)
	assert.Equal(t, "Contingency Volume", missing[0].Layer)
	assert.Contains(t, missing[0].Error(), "Contingency Volume")

	// The multi-part layer is unioned into a single polygon covering both
	// parts (they are disjoint, so the union keeps two rings).
	grb := layers["Ground Risk Buffer"]
	assert.InDelta(t, 0.3*0.3+0.1*0.1, grb.Area(), 1e-9)
}

func TestExtractLayers_AllMissing(t *testing.T) {
	layers, missing := ExtractLayers(&Document{}, []string{"A", "B"})
	assert.Empty(t, layers)
	assert.Len(t, missing, 2)
}
