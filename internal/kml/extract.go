package kml

import (
	"fmt"

	"github.com/ctessum/geom"
	"go.uber.org/zap"

	"github.com/aldrones/groundrisk/internal/geo"
)

// MissingLayerError reports that a requested layer has no polygonal features
// in the input document. It is recoverable: the layer is omitted from the
// extraction result and the remaining layers are unaffected.
type MissingLayerError struct {
	Layer string
}

func (e *MissingLayerError) Error() string {
	return fmt.Sprintf("kml: layer %q has no polygon features", e.Layer)
}

// ExtractLayers resolves each named layer to the union of all its polygonal
// features. Layers absent from the document are reported in missing and left
// out of the returned map; extraction of the other layers continues.
func ExtractLayers(doc *Document, names []string) (map[string]geom.Polygon, []*MissingLayerError) {
	log := zap.L().With(zap.String("component", "kml.extract"))

	byName := make(map[string][]geom.Polygon)
	for _, f := range doc.Features {
		byName[f.Name] = append(byName[f.Name], f.Polygons...)
	}

	layers := make(map[string]geom.Polygon, len(names))
	var missing []*MissingLayerError
	for _, name := range names {
		u := geo.UnionAll(byName[name])
		if u == nil {
			missing = append(missing, &MissingLayerError{Layer: name})
			log.Warn("layer not found in document", zap.String("layer", name))
			continue
		}
		layers[name] = u
		log.Debug("layer extracted",
			zap.String("layer", name),
			zap.Int("features", len(byName[name])),
		)
	}
	return layers, missing
}
