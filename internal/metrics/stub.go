//go:build !cgo

package metrics

import (
	"context"
	"errors"
)

// ErrNoCGO is returned when metrics analysis is unavailable due to missing CGO.
var ErrNoCGO = errors.New("metrics analysis requires CGO (tree-sitter)")

// Analyzer computes complexity metrics for Go source files.
// This is a stub implementation for non-CGO builds.
type Analyzer struct{}

// NewAnalyzer creates a new metrics analyzer.
// Returns nil when CGO is disabled.
func NewAnalyzer() *Analyzer {
	return nil
}

// AnalyzeFile analyzes a single file.
// Stub implementation returns an error.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (*FileMetrics, error) {
	return nil, ErrNoCGO
}

// AnalyzeSource analyzes source code bytes.
// Stub implementation returns an error.
func (a *Analyzer) AnalyzeSource(ctx context.Context, path string, source []byte) (*FileMetrics, error) {
	return nil, ErrNoCGO
}

// IsAvailable returns whether metrics analysis is available.
// Returns false when CGO is disabled.
func IsAvailable() bool {
	return false
}
