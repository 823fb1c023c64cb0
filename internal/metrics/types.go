// Package metrics computes per-function complexity and maintainability
// signals via tree-sitter, and collects rule-violation counts from an
// optional external lint tool.
//
// The analyzer requires CGO (tree-sitter). Without it the package degrades
// to "unknown" signals rather than failing: callers check IsAvailable.
package metrics

import "archon/internal/signal"

// FunctionMetrics contains metrics for a single function or method.
type FunctionMetrics struct {
	// Name is the function/method name
	Name string `json:"name"`

	// StartLine is the line number where the function starts
	StartLine int `json:"startLine"`

	// EndLine is the line number where the function ends
	EndLine int `json:"endLine"`

	// Cyclomatic is the cyclomatic complexity (decision points + 1)
	Cyclomatic int `json:"cyclomatic"`

	// Cognitive is the cognitive complexity (nesting-depth weighted)
	Cognitive int `json:"cognitive"`

	// Maintainability is the maintainability index in [0,100]
	Maintainability float64 `json:"maintainability"`

	// Lines is the number of lines in the function
	Lines int `json:"lines"`
}

// FileMetrics contains metrics for an entire file.
type FileMetrics struct {
	// Path is the file path
	Path string `json:"path"`

	// Functions contains metrics for each function/method
	Functions []FunctionMetrics `json:"functions"`

	// MaxCyclomatic is the highest cyclomatic complexity in the file
	MaxCyclomatic int `json:"maxCyclomatic"`

	// MaxCognitive is the highest cognitive complexity in the file
	MaxCognitive int `json:"maxCognitive"`

	// MinMaintainability is the lowest maintainability index in the file
	MinMaintainability float64 `json:"minMaintainability"`

	// TotalLines sums the line counts of all functions
	TotalLines int `json:"totalLines"`

	// FunctionCount is the number of functions analyzed
	FunctionCount int `json:"functionCount"`

	// Error is set if analysis failed
	Error string `json:"error,omitempty"`
}

// Aggregate computes file-level metrics from function results.
func (fm *FileMetrics) Aggregate() {
	fm.FunctionCount = len(fm.Functions)
	if fm.FunctionCount == 0 {
		return
	}

	fm.MinMaintainability = fm.Functions[0].Maintainability
	for _, f := range fm.Functions {
		if f.Cyclomatic > fm.MaxCyclomatic {
			fm.MaxCyclomatic = f.Cyclomatic
		}
		if f.Cognitive > fm.MaxCognitive {
			fm.MaxCognitive = f.Cognitive
		}
		if f.Maintainability < fm.MinMaintainability {
			fm.MinMaintainability = f.Maintainability
		}
		fm.TotalLines += f.Lines
	}
}

// Entities converts file metrics to the fusion input shape.
func (fm *FileMetrics) Entities() []signal.EntityMetric {
	out := make([]signal.EntityMetric, 0, len(fm.Functions))
	for _, f := range fm.Functions {
		out = append(out, signal.EntityMetric{
			Name:            f.Name,
			Cyclomatic:      signal.Known(float64(f.Cyclomatic)),
			Cognitive:       signal.Known(float64(f.Cognitive)),
			Maintainability: signal.Known(f.Maintainability),
			Lines:           signal.Known(float64(f.Lines)),
		})
	}
	return out
}
