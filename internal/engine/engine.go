// Package engine orchestrates the per-request pipelines behind every tool:
// parse, detect, fuse, rank, transform. Each request gets a fresh pipeline
// and a request ID; nothing is cached or persisted between requests.
package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"archon/internal/catalog"
	"archon/internal/config"
	"archon/internal/detect"
	"archon/internal/errors"
	"archon/internal/logging"
	"archon/internal/metrics"
	"archon/internal/parse"
	"archon/internal/rank"
	"archon/internal/scan"
	"archon/internal/signal"
	"archon/internal/transform"
	"archon/internal/validate"
	"archon/internal/version"
)

// Engine wires the analysis pipeline. Safe for concurrent use.
type Engine struct {
	cfg       *config.Config
	cat       *catalog.Catalog
	log       *logging.Logger
	analyzer  *metrics.Analyzer
	lint      *metrics.LintRunner
	transform *transform.Engine
}

// New builds an engine from loaded configuration. The catalog comes from
// the configured path, falling back to the embedded one.
func New(cfg *config.Config, log *logging.Logger) (*Engine, error) {
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:       cfg,
		cat:       cat,
		log:       log.With(map[string]interface{}{"component": "engine"}),
		transform: transform.New(cat, cfg, log),
	}
	if metrics.IsAvailable() {
		e.analyzer = metrics.NewAnalyzer()
	}
	if cfg.Lint.Enabled {
		e.lint = metrics.NewLintRunner(cfg.Lint)
	}
	return e, nil
}

// Catalog exposes the loaded catalog for advice and target listings.
func (e *Engine) Catalog() *catalog.Catalog { return e.cat }

// FileAnalysis is the per-file pipeline outcome. A file that fails to parse
// reports its error here and never aborts the batch.
type FileAnalysis struct {
	Path     string           `json:"path"`
	Findings []detect.Finding `json:"findings,omitempty"`
	Signals  signal.Vector    `json:"signals"`
	Proposal rank.Proposal    `json:"proposal"`
	Error    string           `json:"error,omitempty"`
	Code     errors.ErrorCode `json:"code,omitempty"`
}

// AnalyzeOptions selects optional pipeline stages.
type AnalyzeOptions struct {
	// WithMetrics runs the tree-sitter analyzer and the lint runner
	WithMetrics bool
}

// AnalyzeFiles runs the full pipeline over each file with bounded
// parallelism. Results are ordered by the expanded, sorted file list, so
// output is reproducible regardless of scheduling.
func (e *Engine) AnalyzeFiles(ctx context.Context, files []string, opts AnalyzeOptions) ([]FileAnalysis, error) {
	requestID := uuid.NewString()
	log := e.log.With(map[string]interface{}{"requestId": requestID})
	log.Debug("analysis request", map[string]interface{}{
		"files": len(files), "withMetrics": opts.WithMetrics,
	})

	results := make([]FileAnalysis, len(files))
	err := scan.ForEach(ctx, files, e.cfg.Scan.MaxParallel, func(ctx context.Context, i int, path string) error {
		results[i] = e.analyzeFile(ctx, path, opts)
		return nil
	})
	return results, err
}

func (e *Engine) analyzeFile(ctx context.Context, path string, opts AnalyzeOptions) FileAnalysis {
	res := FileAnalysis{Path: path}

	m, err := parse.Load(path)
	if err != nil {
		res.Error = err.Error()
		res.Code = errors.CodeOf(err)
		res.Signals = signal.Vector{Path: path, Notes: []string{err.Error()}}
		return res
	}

	res.Findings = detect.Run(m, detect.Options{
		Enabled:            e.cfg.DetectorEnabled,
		RepeatedLiterals:   e.cfg.Indicators.RepeatedLiterals,
		RepeatedLiteralMin: 3,
	})
	res.Signals = e.fuseSignals(ctx, path, m, opts)
	res.Proposal = rank.Propose(res.Findings, res.Signals, e.cat, e.cfg.Thresholds)
	return res
}

// fuseSignals gathers the external and structural signal sources. Missing
// or disabled sources stay unknown rather than zero.
func (e *Engine) fuseSignals(ctx context.Context, path string, m *parse.Module, opts AnalyzeOptions) signal.Vector {
	var entities []signal.EntityMetric
	var notes []string

	if opts.WithMetrics {
		if e.analyzer != nil {
			fm, err := e.analyzer.AnalyzeSource(ctx, path, m.Source)
			switch {
			case err != nil:
				notes = append(notes, "metrics: "+err.Error())
			case fm.Error != "":
				notes = append(notes, "metrics: "+fm.Error)
			default:
				entities = fm.Entities()
			}
		} else {
			notes = append(notes, "metrics: analyzer unavailable in this build")
		}
	}

	violations := signal.Unknown
	if opts.WithMetrics && e.lint != nil {
		v, err := e.lint.Violations(ctx, path)
		if err != nil {
			notes = append(notes, "lint: "+err.Error())
		}
		violations = v
	}

	ind := &signal.Indicators{
		LongParamFuncs:   m.LongParamFuncCount(e.cfg.Thresholds.LongParams),
		RepeatedLiterals: m.RepeatedLiteralCount(3),
		TopLevelDefs:     m.TopLevelDefCount(),
	}

	vec := signal.Fuse(path, entities, ind, violations).WithLOC(m.LOC)
	if !e.cfg.Indicators.LongParamLists {
		vec.LongParamFuncs = signal.Unknown
	}
	if !e.cfg.Indicators.RepeatedLiterals {
		vec.RepeatedLiterals = signal.Unknown
	}
	vec.Notes = append(vec.Notes, notes...)
	return vec
}

// Detect returns findings per file, optionally narrowed to one category.
func (e *Engine) Detect(ctx context.Context, files []string, category catalog.Category) ([]FileAnalysis, error) {
	results, err := e.AnalyzeFiles(ctx, files, AnalyzeOptions{})
	if err != nil {
		return nil, err
	}
	if category != "" {
		for i := range results {
			results[i].Findings = detect.FilterCategory(results[i].Findings, category)
		}
	}
	return results, nil
}

// Propose returns ranked proposals per file. Filtering is applied after
// ranking, so relative order matches the unfiltered run.
func (e *Engine) Propose(ctx context.Context, files []string, category catalog.Category, withMetrics bool) ([]FileAnalysis, error) {
	results, err := e.AnalyzeFiles(ctx, files, AnalyzeOptions{WithMetrics: withMetrics})
	if err != nil {
		return nil, err
	}
	if category != "" {
		for i := range results {
			results[i].Proposal = rank.Filter(results[i].Proposal, category)
		}
	}
	return results, nil
}

// AnalyzeMetrics returns the fused signal vector per file.
func (e *Engine) AnalyzeMetrics(ctx context.Context, files []string) ([]signal.Vector, error) {
	results, err := e.AnalyzeFiles(ctx, files, AnalyzeOptions{WithMetrics: true})
	if err != nil {
		return nil, err
	}
	vectors := make([]signal.Vector, len(results))
	for i, r := range results {
		vectors[i] = r.Signals
	}
	return vectors, nil
}

// ThresholdedEnforcement returns proposals restricted to threshold-backed
// indicator items, each carrying its explicit breach rationale.
func (e *Engine) ThresholdedEnforcement(ctx context.Context, files []string) ([]FileAnalysis, error) {
	results, err := e.AnalyzeFiles(ctx, files, AnalyzeOptions{WithMetrics: true})
	if err != nil {
		return nil, err
	}
	for i := range results {
		var items []rank.Item
		for _, it := range results[i].Proposal.Items {
			if it.Kind == rank.KindIndicator {
				items = append(items, it)
			}
		}
		results[i].Proposal.Items = items
		results[i].Findings = nil
	}
	return results, nil
}

// Advice is the static, catalog-driven guidance for one target.
type Advice struct {
	Target     string           `json:"target"`
	Category   catalog.Category `json:"category"`
	Advice     string           `json:"advice"`
	PromptHint string           `json:"promptHint,omitempty"`
	Refs       []string         `json:"refs,omitempty"`
}

// Advise returns the catalog guidance for a target name or alias.
func (e *Engine) Advise(target string) (*Advice, error) {
	entry, ok := e.cat.Lookup(target)
	if !ok {
		return nil, errors.New(errors.UnknownTarget, fmt.Sprintf("no catalog entry for %q", target))
	}
	return &Advice{
		Target:     entry.Name,
		Category:   entry.Category,
		Advice:     entry.Advice,
		PromptHint: entry.PromptHint,
		Refs:       entry.Refs,
	}, nil
}

// Introduce runs the guarded transformation toward the target.
func (e *Engine) Introduce(ctx context.Context, target, modulePath string, opts transform.Options) (*transform.Candidate, error) {
	requestID := uuid.NewString()
	e.log.Info("introduce request", map[string]interface{}{
		"requestId": requestID, "target": target, "path": modulePath, "dryRun": opts.DryRun,
	})
	return e.transform.Introduce(ctx, target, modulePath, opts)
}

// ScanPaths expands path arguments and proposes per matched file.
func (e *Engine) ScanPaths(ctx context.Context, paths []string, withMetrics bool) ([]FileAnalysis, bool, error) {
	exp, err := scan.Expand(paths, e.cfg.Scan.Ignore, e.cfg.Scan.MaxFiles)
	if err != nil {
		return nil, false, err
	}
	results, err := e.AnalyzeFiles(ctx, exp.Files, AnalyzeOptions{WithMetrics: withMetrics})
	return results, exp.Truncated, err
}

// Target is one catalog entry in a listing.
type Target struct {
	Name     string           `json:"name"`
	Category catalog.Category `json:"category"`
	Advice   string           `json:"advice"`
}

// ListTargets enumerates catalog entries, optionally by category.
func (e *Engine) ListTargets(category catalog.Category) []Target {
	var entries []catalog.Entry
	if category != "" {
		entries = e.cat.List(category)
	} else {
		entries = append(e.cat.List(catalog.CategoryPattern), e.cat.List(catalog.CategoryArchitecture)...)
	}
	targets := make([]Target, 0, len(entries))
	for _, en := range entries {
		targets = append(targets, Target{Name: en.Name, Category: en.Category, Advice: en.Advice})
	}
	sort.Slice(targets, func(i, j int) bool {
		if targets[i].Category != targets[j].Category {
			return targets[i].Category < targets[j].Category
		}
		return targets[i].Name < targets[j].Name
	})
	return targets
}

// Status reports build and capability information.
type Status struct {
	Version          string   `json:"version"`
	MetricsAvailable bool     `json:"metricsAvailable"`
	Backends         []string `json:"backends"`
	Detectors        []string `json:"detectors"`
	CatalogEntries   int      `json:"catalogEntries"`
}

// GetStatus reports the engine's capabilities for health checks.
func (e *Engine) GetStatus() Status {
	var detectors []string
	for _, d := range detect.All() {
		if e.cfg.DetectorEnabled(d.Name) {
			detectors = append(detectors, d.Name)
		}
	}
	return Status{
		Version:          version.Version,
		MetricsAvailable: metrics.IsAvailable(),
		Backends:         validate.New().Backends(),
		Detectors:        detectors,
		CatalogEntries:   e.cat.Len(),
	}
}
