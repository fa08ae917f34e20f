package report

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/aldrones/groundrisk/internal/analysis"
)

// WriteJSON renders the report as indented JSON.
func WriteJSON(w io.Writer, r *analysis.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return eris.Wrap(err, "report: encode json")
	}
	return nil
}

// WriteYAML renders the report as YAML.
func WriteYAML(w io.Writer, r *analysis.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return eris.Wrap(err, "report: encode yaml")
	}
	return eris.Wrap(enc.Close(), "report: close yaml encoder")
}
