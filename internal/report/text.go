package report

import (
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/aldrones/groundrisk/internal/analysis"
)

// WriteText renders a human-readable summary. Numbers use Brazilian
// grouping and decimal separators, matching the census data's audience.
func WriteText(w io.Writer, r *analysis.Report) error {
	p := message.NewPrinter(language.BrazilianPortuguese)

	var b strings.Builder
	p.Fprintf(&b, "Population exposure report %s\n", r.RunID)
	p.Fprintf(&b, "Generated: %s\n", r.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	p.Fprintf(&b, "Overall: %s\n", r.Overall)
	if op := r.Operation; op != nil {
		p.Fprintf(&b, "Operation: flight height %.0f m, contingency %.0f m, "+
			"ground risk buffer %.0f m, adjacent distance %.0f m\n",
			op.FlightHeightM, op.ContingencyM, op.GroundRiskBufferM, op.AdjacentDistanceM)
	}

	for _, layer := range r.Layers {
		p.Fprintf(&b, "\n%s\n", layer.Role)
		p.Fprintf(&b, "%s\n", strings.Repeat("-", len(layer.Role.String())))
		if layer.Skipped {
			p.Fprintf(&b, "  skipped: %s\n", layer.SkipReason)
			continue
		}
		s := layer.Stats
		p.Fprintf(&b, "  Population:   %.0f inhabitants\n", s.TotalPopulation)
		p.Fprintf(&b, "  Area:         %.3f km²\n", s.AreaKm2)
		p.Fprintf(&b, "  Mean density: %.1f inhab/km²\n", s.DensityMean)
		p.Fprintf(&b, "  Peak density: %.1f inhab/km²\n", s.DensityMax)
		p.Fprintf(&b, "  Grid:         %d cells in %d tiles\n", s.Cells, s.Tiles)
		p.Fprintf(&b, "  Verdict:      %s", layer.Verdict.Status)
		if layer.Verdict.Message != "" {
			p.Fprintf(&b, " (%s)", layer.Verdict.Message)
		}
		p.Fprintf(&b, "\n")
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return eris.Wrap(err, "report: write text")
	}
	return nil
}
