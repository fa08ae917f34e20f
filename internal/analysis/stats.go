// Package analysis computes population exposure statistics for operation
// layer polygons against the statistical grid.
package analysis

// Stats summarizes the population exposure of one polygon. All densities are
// inhabitants per square kilometer, computed on an equal-area projection.
type Stats struct {
	// TotalPopulation is the population attributed to the polygon. Cells
	// partially covered by the polygon contribute in proportion to the
	// covered share of their area.
	TotalPopulation float64 `json:"total_population" yaml:"total_population"`
	// AreaKm2 is the polygon area in square kilometers.
	AreaKm2 float64 `json:"area_km2" yaml:"area_km2"`
	// DensityMean is TotalPopulation divided by AreaKm2, or zero for a
	// degenerate polygon.
	DensityMean float64 `json:"density_mean" yaml:"density_mean"`
	// DensityMax is the highest full-cell density among the grid cells the
	// polygon touches.
	DensityMax float64 `json:"density_max" yaml:"density_max"`
	// Cells is the number of distinct grid cells intersected.
	Cells int `json:"cells" yaml:"cells"`
	// Tiles is the number of fine-grid tiles consulted.
	Tiles int `json:"tiles" yaml:"tiles"`
}
