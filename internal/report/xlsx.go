package report

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/aldrones/groundrisk/internal/analysis"
)

var layerHeader = []string{
	"Layer", "Status", "Population", "Area (km²)",
	"Mean density", "Peak density", "Cells", "Tiles", "Note",
}

// WriteXLSX writes the report as a spreadsheet with a summary sheet and one
// row per layer.
func WriteXLSX(path string, r *analysis.Report) error {
	f := xlsx.NewFile()

	summary, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}
	addPair := func(key, value string) {
		row := summary.AddRow()
		row.AddCell().SetString(key)
		row.AddCell().SetString(value)
	}
	addPair("Run", r.RunID)
	addPair("Generated", r.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	addPair("Overall", r.Overall.String())
	if op := r.Operation; op != nil {
		addNum := func(key string, value float64) {
			row := summary.AddRow()
			row.AddCell().SetString(key)
			row.AddCell().SetFloat(value)
		}
		addNum("Flight height (m)", op.FlightHeightM)
		addNum("Contingency buffer (m)", op.ContingencyM)
		addNum("Ground risk buffer (m)", op.GroundRiskBufferM)
		addNum("Adjacent distance (m)", op.AdjacentDistanceM)
	}

	layers, err := f.AddSheet("Layers")
	if err != nil {
		return eris.Wrap(err, "report: add layers sheet")
	}
	header := layers.AddRow()
	for _, h := range layerHeader {
		header.AddCell().SetString(h)
	}
	for _, layer := range r.Layers {
		row := layers.AddRow()
		row.AddCell().SetString(layer.Role.String())
		if layer.Skipped {
			row.AddCell().SetString("Skipped")
			for i := 0; i < 6; i++ {
				row.AddCell()
			}
			row.AddCell().SetString(layer.SkipReason)
			continue
		}
		row.AddCell().SetString(layer.Verdict.Status.String())
		row.AddCell().SetFloat(layer.Stats.TotalPopulation)
		row.AddCell().SetFloat(layer.Stats.AreaKm2)
		row.AddCell().SetFloat(layer.Stats.DensityMean)
		row.AddCell().SetFloat(layer.Stats.DensityMax)
		row.AddCell().SetInt(layer.Stats.Cells)
		row.AddCell().SetInt(layer.Stats.Tiles)
		row.AddCell().SetString(layer.Verdict.Message)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	return nil
}
