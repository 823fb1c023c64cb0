// Package signal fuses externally supplied metrics and optional indicator
// counts into the per-module signal vector consumed by ranking.
//
// Fusion is pure aggregation: it groups per-entity metrics into module
// summaries and never runs detector logic. Missing optional inputs leave
// fields unknown; malformed inputs are reported as fusion notes and the
// offending field becomes unknown, the pipeline continues.
package signal

import (
	"fmt"

	"archon/internal/errors"
)

// Metric is a numeric signal that may be unknown. Unknown is distinct from
// zero and is excluded from scoring rather than penalized.
type Metric struct {
	Value float64 `json:"value"`
	Known bool    `json:"known"`
}

// Known returns a known metric
func Known(v float64) Metric { return Metric{Value: v, Known: true} }

// Unknown is the zero, not-present metric
var Unknown = Metric{}

// EntityMetric carries one external tool's measurements for one
// function or type. Values the tool did not produce stay unknown.
type EntityMetric struct {
	Name            string  `json:"name"`
	Cyclomatic      Metric  `json:"cyclomatic"`
	Cognitive       Metric  `json:"cognitive"`
	Maintainability Metric  `json:"maintainability"`
	Lines           Metric  `json:"lines"`
}

// Indicators holds optional structural indicator counts. A nil Indicators
// means the indicator source was unavailable.
type Indicators struct {
	LongParamFuncs   int `json:"longParamFuncs"`
	RepeatedLiterals int `json:"repeatedLiterals"`
	TopLevelDefs     int `json:"topLevelDefs"`
}

// Vector is the fused per-module signal set
type Vector struct {
	Path string `json:"path"`

	MaxCyclomatic      Metric `json:"maxCyclomatic"`
	MaxCognitive       Metric `json:"maxCognitive"`
	MinMaintainability Metric `json:"minMaintainability"`
	LOC                Metric `json:"loc"`
	Violations         Metric `json:"violations"`

	LongParamFuncs   Metric `json:"longParamFuncs"`
	RepeatedLiterals Metric `json:"repeatedLiterals"`
	TopLevelDefs     Metric `json:"topLevelDefs"`

	// Notes records fusion problems (malformed inputs) without failing
	Notes []string `json:"notes,omitempty"`
}

// Fuse aggregates per-entity metrics and optional indicators into a Vector.
// violations is the opaque rule-violation count from the external lint
// runner; pass Unknown when the runner is disabled or unavailable.
func Fuse(path string, entities []EntityMetric, indicators *Indicators, violations Metric) Vector {
	v := Vector{Path: path, Violations: violations}

	var locSum float64
	locKnown := false

	for _, e := range entities {
		if m, err := checkRange(e.Cyclomatic, 1, 1e6, e.Name, "cyclomatic"); err != nil {
			v.Notes = append(v.Notes, err.Error())
		} else if m.Known && (!v.MaxCyclomatic.Known || m.Value > v.MaxCyclomatic.Value) {
			v.MaxCyclomatic = m
		}

		if m, err := checkRange(e.Cognitive, 0, 1e6, e.Name, "cognitive"); err != nil {
			v.Notes = append(v.Notes, err.Error())
		} else if m.Known && (!v.MaxCognitive.Known || m.Value > v.MaxCognitive.Value) {
			v.MaxCognitive = m
		}

		if m, err := checkRange(e.Maintainability, 0, 100, e.Name, "maintainability"); err != nil {
			v.Notes = append(v.Notes, err.Error())
		} else if m.Known && (!v.MinMaintainability.Known || m.Value < v.MinMaintainability.Value) {
			v.MinMaintainability = m
		}

		if m, err := checkRange(e.Lines, 0, 1e9, e.Name, "lines"); err != nil {
			v.Notes = append(v.Notes, err.Error())
		} else if m.Known {
			locSum += m.Value
			locKnown = true
		}
	}

	if locKnown {
		v.LOC = Known(locSum)
	}

	if indicators != nil {
		v.LongParamFuncs = Known(float64(indicators.LongParamFuncs))
		v.RepeatedLiterals = Known(float64(indicators.RepeatedLiterals))
		v.TopLevelDefs = Known(float64(indicators.TopLevelDefs))
	}

	return v
}

// WithLOC returns a copy of v with LOC overridden. Used when the caller has
// an authoritative line count (the parsed module) rather than a per-entity
// sum.
func (v Vector) WithLOC(loc int) Vector {
	v.LOC = Known(float64(loc))
	return v
}

func checkRange(m Metric, lo, hi float64, entity, field string) (Metric, error) {
	if !m.Known {
		return Unknown, nil
	}
	if m.Value < lo || m.Value > hi {
		return Unknown, errors.New(errors.FusionError,
			fmt.Sprintf("%s: %s value %g outside [%g, %g]", entity, field, m.Value, lo, hi))
	}
	return m, nil
}
