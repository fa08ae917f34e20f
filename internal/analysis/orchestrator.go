package analysis

import (
	"context"
	"time"

	"github.com/ctessum/geom"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/aldrones/groundrisk/internal/compliance"
	"github.com/aldrones/groundrisk/internal/kml"
)

// Analyzer computes exposure statistics for one polygon.
type Analyzer interface {
	Analyze(ctx context.Context, poly geom.Polygon) (Stats, error)
}

// LayerResult is the outcome for one safety-margin layer.
type LayerResult struct {
	Role    compliance.Role    `json:"layer" yaml:"layer"`
	Stats   Stats              `json:"stats" yaml:"stats"`
	Verdict compliance.Verdict `json:"verdict" yaml:"verdict"`
	// Geometry is the polygon that was analyzed. For the Adjacent Area this
	// is the ring left after subtracting the Ground Risk Buffer.
	Geometry geom.Polygon `json:"-" yaml:"-"`
	// Skipped marks layers that could not be analyzed, with the reason.
	Skipped    bool   `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	SkipReason string `json:"skip_reason,omitempty" yaml:"skip_reason,omitempty"`
}

// OperationMeta describes the flight operation the layers were drawn for.
// It is declarative metadata echoed into report headers; the geometry itself
// always comes from the input document.
type OperationMeta struct {
	FlightHeightM     float64 `json:"flight_height_m,omitempty" yaml:"flight_height_m,omitempty"`
	ContingencyM      float64 `json:"contingency_buffer_m,omitempty" yaml:"contingency_buffer_m,omitempty"`
	GroundRiskBufferM float64 `json:"ground_risk_buffer_m,omitempty" yaml:"ground_risk_buffer_m,omitempty"`
	AdjacentDistanceM float64 `json:"adjacent_distance_m,omitempty" yaml:"adjacent_distance_m,omitempty"`
}

// Report is the result of one full document analysis.
type Report struct {
	RunID       string            `json:"run_id" yaml:"run_id"`
	GeneratedAt time.Time         `json:"generated_at" yaml:"generated_at"`
	Operation   *OperationMeta    `json:"operation,omitempty" yaml:"operation,omitempty"`
	Layers      []LayerResult     `json:"layers" yaml:"layers"`
	Overall     compliance.Status `json:"overall" yaml:"overall"`
}

// Orchestrator runs the full per-document pipeline: extract the four layers,
// analyze each, and evaluate compliance.
type Orchestrator struct {
	analyzer Analyzer
	eval     *compliance.Evaluator
	log      *zap.Logger

	// Operation, when set, is copied into every report produced by Run.
	Operation *OperationMeta
}

// NewOrchestrator wires an analyzer to a compliance evaluator.
func NewOrchestrator(a Analyzer, eval *compliance.Evaluator) *Orchestrator {
	return &Orchestrator{
		analyzer: a,
		eval:     eval,
		log:      zap.L().With(zap.String("component", "analysis.orchestrator")),
	}
}

// Run analyzes every safety-margin layer of the document. Layers absent from
// the document are reported as skipped; if no layer is usable, Run fails.
func (o *Orchestrator) Run(ctx context.Context, doc *kml.Document) (*Report, error) {
	names := make([]string, 0, len(compliance.Roles()))
	for _, role := range compliance.Roles() {
		names = append(names, role.String())
	}
	// ExtractLayers warns about absent layers; they surface here as skips.
	layers, _ := kml.ExtractLayers(doc, names)

	report := &Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Operation:   o.Operation,
	}

	var verdicts []compliance.Verdict
	for _, role := range compliance.Roles() {
		result := LayerResult{Role: role}

		geometry, reason := o.layerGeometry(role, layers)
		if reason != "" {
			result.Skipped = true
			result.SkipReason = reason
			report.Layers = append(report.Layers, result)
			continue
		}
		result.Geometry = geometry

		stats, err := o.analyzer.Analyze(ctx, geometry)
		if err != nil {
			return nil, eris.Wrapf(err, "analysis: layer %s", role)
		}
		result.Stats = stats
		result.Verdict = o.eval.Evaluate(role, stats.DensityMean, stats.DensityMax)
		verdicts = append(verdicts, result.Verdict)
		report.Layers = append(report.Layers, result)
	}

	if len(verdicts) == 0 {
		return nil, eris.New("analysis: no usable layer in document")
	}
	report.Overall = compliance.Overall(verdicts)
	return report, nil
}

// layerGeometry selects the polygon to analyze for a role, or a skip reason.
// The Adjacent Area is analyzed as a ring: its polygon minus the Ground Risk
// Buffer, so the buffer's population is not counted twice.
func (o *Orchestrator) layerGeometry(role compliance.Role, layers map[string]geom.Polygon) (geom.Polygon, string) {
	poly, ok := layers[role.String()]
	if !ok {
		return nil, "layer not present in document"
	}
	if role != compliance.AdjacentArea {
		return poly, ""
	}

	grb, ok := layers[compliance.GroundRiskBuffer.String()]
	if !ok {
		return nil, "Ground Risk Buffer required to form the adjacent ring"
	}
	return poly.Difference(grb).(geom.Polygon), ""
}
