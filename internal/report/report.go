// Package report renders analysis reports in the supported output formats.
package report

import (
	"io"

	"github.com/rotisserie/eris"

	"github.com/aldrones/groundrisk/internal/analysis"
)

// Format names an output rendering.
type Format string

const (
	FormatText    Format = "text"
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatGeoJSON Format = "geojson"
	FormatXLSX    Format = "xlsx"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, FormatJSON, FormatYAML, FormatGeoJSON, FormatXLSX:
		return Format(s), nil
	}
	return "", eris.Errorf("report: unknown format %q", s)
}

// Write renders the report to w in the given format. The xlsx format is
// file-based and is not supported here; use WriteXLSX.
func Write(w io.Writer, f Format, r *analysis.Report) error {
	switch f {
	case FormatText:
		return WriteText(w, r)
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatYAML:
		return WriteYAML(w, r)
	case FormatGeoJSON:
		return WriteGeoJSON(w, r)
	}
	return eris.Errorf("report: format %q cannot be streamed", string(f))
}
