// Package compliance holds the safety-margin layer roles and the per-layer
// population-density rules that turn analysis statistics into a verdict.
package compliance

import "fmt"

// Role identifies one of the four safety-margin layers of an operation.
type Role int

const (
	FlightGeography Role = iota
	ContingencyVolume
	GroundRiskBuffer
	AdjacentArea
)

// Roles returns the layer roles in analysis order.
func Roles() []Role {
	return []Role{FlightGeography, ContingencyVolume, GroundRiskBuffer, AdjacentArea}
}

// String returns the layer name as it appears in input documents.
func (r Role) String() string {
	switch r {
	case FlightGeography:
		return "Flight Geography"
	case ContingencyVolume:
		return "Contingency Volume"
	case GroundRiskBuffer:
		return "Ground Risk Buffer"
	case AdjacentArea:
		return "Adjacent Area"
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// MarshalText renders the role by its layer name.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Statistic selects which density statistic a threshold applies to.
type Statistic int

const (
	DensityMax Statistic = iota
	DensityMean
)

func (s Statistic) String() string {
	if s == DensityMean {
		return "mean density"
	}
	return "peak density"
}

// Threshold is a limit on one density statistic, in inhabitants per km².
type Threshold struct {
	Statistic Statistic
	Limit     float64
}

// Status is the outcome of evaluating one layer or a whole run.
type Status int

const (
	Compliant Status = iota
	Warning
	NonCompliant
)

func (s Status) String() string {
	switch s {
	case Compliant:
		return "compliant"
	case Warning:
		return "warning"
	case NonCompliant:
		return "non-compliant"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// MarshalText renders the status for JSON/YAML output.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Verdict is the result of comparing one layer's statistics against its
// threshold.
type Verdict struct {
	Status  Status `json:"status" yaml:"status"`
	Message string `json:"message" yaml:"message"`
}

// Limits configures the per-layer density limits.
type Limits struct {
	// MaxDensity applies to the peak cell density of Flight Geography,
	// Contingency Volume and Ground Risk Buffer.
	MaxDensity float64
	// AdjacentMeanDensity applies to the mean density of the Adjacent Area
	// ring.
	AdjacentMeanDensity float64
}

// DefaultLimits are the operations-manual defaults. The authoritative manual
// should be consulted before relying on them for a specific category.
func DefaultLimits() Limits {
	return Limits{MaxDensity: 5, AdjacentMeanDensity: 50}
}

// Evaluator applies the per-layer rule table.
type Evaluator struct {
	thresholds map[Role]Threshold
}

// NewEvaluator builds an Evaluator from the configured limits.
func NewEvaluator(limits Limits) *Evaluator {
	return &Evaluator{thresholds: map[Role]Threshold{
		FlightGeography:   {Statistic: DensityMax, Limit: limits.MaxDensity},
		ContingencyVolume: {Statistic: DensityMax, Limit: limits.MaxDensity},
		GroundRiskBuffer:  {Statistic: DensityMax, Limit: limits.MaxDensity},
		AdjacentArea:      {Statistic: DensityMean, Limit: limits.AdjacentMeanDensity},
	}}
}

// Threshold returns the rule applied to a layer role.
func (e *Evaluator) Threshold(role Role) Threshold {
	return e.thresholds[role]
}

// Evaluate compares a layer's density statistics against its threshold.
//
// Layers judged on peak density use three tiers: above the limit is
// non-compliant, a positive density at or below the limit is a warning
// (population present still forbids certain overflight categories), and zero
// density is compliant. The Adjacent Area mean rule has no warning tier.
func (e *Evaluator) Evaluate(role Role, densityMean, densityMax float64) Verdict {
	th := e.thresholds[role]

	value := densityMax
	if th.Statistic == DensityMean {
		value = densityMean
	}

	switch {
	case value > th.Limit:
		return Verdict{
			Status: NonCompliant,
			Message: fmt.Sprintf("%s %.2f /km² exceeds the %.0f /km² limit for %s",
				th.Statistic, value, th.Limit, role),
		}
	case th.Statistic == DensityMax && value > 0:
		return Verdict{
			Status: Warning,
			Message: fmt.Sprintf("population present in %s (%s %.2f /km², limit %.0f /km²)",
				role, th.Statistic, value, th.Limit),
		}
	default:
		return Verdict{
			Status:  Compliant,
			Message: fmt.Sprintf("%s within the %.0f /km² limit for %s", th.Statistic, th.Limit, role),
		}
	}
}

// Overall aggregates per-layer verdicts: any non-compliant layer fails the
// run, otherwise any warning downgrades it to a warning.
func Overall(verdicts []Verdict) Status {
	out := Compliant
	for _, v := range verdicts {
		if v.Status == NonCompliant {
			return NonCompliant
		}
		if v.Status == Warning {
			out = Warning
		}
	}
	return out
}
