package report

import (
	"encoding/json"
	"io"

	"github.com/ctessum/geom/encoding/geojson"
	"github.com/rotisserie/eris"

	"github.com/aldrones/groundrisk/internal/analysis"
)

type geoFeature struct {
	Type       string          `json:"type"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties map[string]any  `json:"properties"`
}

type geoCollection struct {
	Type     string       `json:"type"`
	Features []geoFeature `json:"features"`
}

// WriteGeoJSON renders the analyzed layer geometries as a FeatureCollection
// in geographic coordinates, with the statistics and verdict as feature
// properties. Skipped layers carry no geometry and are left out.
func WriteGeoJSON(w io.Writer, r *analysis.Report) error {
	fc := geoCollection{Type: "FeatureCollection"}
	for _, layer := range r.Layers {
		if layer.Skipped || len(layer.Geometry) == 0 {
			continue
		}
		raw, err := geojson.Encode(layer.Geometry)
		if err != nil {
			return eris.Wrapf(err, "report: encode %s geometry", layer.Role)
		}
		fc.Features = append(fc.Features, geoFeature{
			Type:     "Feature",
			Geometry: raw,
			Properties: map[string]any{
				"layer":            layer.Role.String(),
				"status":           layer.Verdict.Status.String(),
				"total_population": layer.Stats.TotalPopulation,
				"area_km2":         layer.Stats.AreaKm2,
				"density_mean":     layer.Stats.DensityMean,
				"density_max":      layer.Stats.DensityMax,
			},
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fc); err != nil {
		return eris.Wrap(err, "report: encode geojson")
	}
	return nil
}
