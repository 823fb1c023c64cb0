// Package rank turns detector findings and fused signals into an ordered
// proposal. Scoring weights are fixed constants; configuration toggles add
// or remove signal sources but never move the weights.
package rank

import (
	"fmt"
	"sort"

	"archon/internal/catalog"
	"archon/internal/config"
	"archon/internal/detect"
	"archon/internal/signal"
)

// Fixed scoring weights. Tuning these changes ordering for every caller, so
// they are compile-time constants rather than configuration.
const (
	WeightConfidence = 0.6
	WeightSeverity   = 0.3
	WeightHint       = 0.1
)

// ItemKind distinguishes detector-backed items from threshold-synthesized
// ones.
type ItemKind string

const (
	KindFinding   ItemKind = "finding"
	KindIndicator ItemKind = "indicator"
)

// Item is one ranked proposal entry.
type Item struct {
	Kind ItemKind `json:"kind"`

	// ID is the detector identifier for findings and a stable indicator
	// identifier for synthesized items; it is the final tie-break key.
	ID string `json:"id"`

	// Target is the catalog name the item recommends
	Target string `json:"target"`

	Category catalog.Category `json:"category"`

	// Score is the priority used for ordering
	Score float64 `json:"score"`

	// Confidence is the detector confidence; zero for indicators
	Confidence float64 `json:"confidence"`

	// Severity is the normalized threshold-breach severity in [0,1]
	Severity float64 `json:"severity"`

	Rationale string `json:"rationale"`

	// Entry is the catalog entry backing the recommendation, when one exists
	Entry *catalog.Entry `json:"entry,omitempty"`
}

// Proposal is the ordered outcome for one module.
type Proposal struct {
	Path  string `json:"path"`
	Items []Item `json:"items"`
}

// Propose ranks findings plus synthesized indicator items for one module.
// Ordering is strictly descending score, ties broken by higher confidence
// and then lexical ID, so repeated calls over the same inputs produce
// byte-identical output.
func Propose(findings []detect.Finding, sig signal.Vector, cat *catalog.Catalog, th config.ThresholdsConfig) Proposal {
	breach := breachSeverity(sig, th)

	items := make([]Item, 0, len(findings))
	for _, f := range findings {
		it := Item{
			Kind:       KindFinding,
			ID:         f.Detector,
			Target:     f.Name,
			Category:   f.Category,
			Confidence: f.Confidence,
			Severity:   breach,
			Rationale:  f.Rationale,
		}
		if e, ok := cat.Lookup(f.Name); ok {
			it.Entry = &e
		}
		it.Score = score(it)
		items = append(items, it)
	}
	items = append(items, Indicators(sig, cat, th)...)

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		if items[i].Confidence != items[j].Confidence {
			return items[i].Confidence > items[j].Confidence
		}
		return items[i].ID < items[j].ID
	})
	return Proposal{Path: sig.Path, Items: items}
}

// Filter returns the items of one category, preserving rank order. Filtering
// runs strictly after ranking; it never rescores.
func Filter(p Proposal, cat catalog.Category) Proposal {
	out := Proposal{Path: p.Path}
	for _, it := range p.Items {
		if it.Category == cat {
			out.Items = append(out.Items, it)
		}
	}
	return out
}

// indicatorRule maps one threshold breach to a synthesized proposal item.
type indicatorRule struct {
	id       string
	target   string
	severity float64
	breached func(sig signal.Vector, th config.ThresholdsConfig) (bool, string)
}

// indicatorRules are ordered by descending severity. Unknown signals never
// breach: a missing metric is excluded, not treated as zero.
var indicatorRules = []indicatorRule{
	{
		id: "high-complexity", target: "facade", severity: 1.0,
		breached: func(sig signal.Vector, th config.ThresholdsConfig) (bool, string) {
			if sig.LOC.Known && sig.LOC.Value >= float64(th.HighLOC) {
				return true, fmt.Sprintf("module spans %.0f lines; consider a Facade or module split", sig.LOC.Value)
			}
			if sig.TopLevelDefs.Known && sig.TopLevelDefs.Value >= float64(th.HighDefs) {
				return true, fmt.Sprintf("module declares %.0f top-level definitions; consider a Facade or module split", sig.TopLevelDefs.Value)
			}
			return false, ""
		},
	},
	{
		id: "high-cyclomatic", target: "strategy", severity: 0.8,
		breached: func(sig signal.Vector, th config.ThresholdsConfig) (bool, string) {
			if sig.MaxCyclomatic.Known && sig.MaxCyclomatic.Value >= float64(th.HighCyclomatic) {
				return true, fmt.Sprintf("cyclomatic complexity peaks at %.0f; branchy logic fits Strategy or Template Method", sig.MaxCyclomatic.Value)
			}
			return false, ""
		},
	},
	{
		id: "low-maintainability", target: "facade", severity: 0.6,
		breached: func(sig signal.Vector, th config.ThresholdsConfig) (bool, string) {
			if sig.MinMaintainability.Known && sig.MinMaintainability.Value < th.LowMaintainability {
				return true, fmt.Sprintf("maintainability index drops to %.1f; restructure behind a Facade or Strategy", sig.MinMaintainability.Value)
			}
			return false, ""
		},
	},
	{
		id: "rule-violations", target: "layered", severity: 0.4,
		breached: func(sig signal.Vector, th config.ThresholdsConfig) (bool, string) {
			if sig.Violations.Known && sig.Violations.Value >= float64(th.HighViolations) {
				return true, fmt.Sprintf("%.0f lint findings; clean up before structural work", sig.Violations.Value)
			}
			return false, ""
		},
	},
	{
		id: "long-params", target: "builder", severity: 0.4,
		breached: func(sig signal.Vector, th config.ThresholdsConfig) (bool, string) {
			if sig.LongParamFuncs.Known && sig.LongParamFuncs.Value >= 1 {
				return true, fmt.Sprintf("%.0f functions take %d+ parameters; introduce a Builder or parameter object", sig.LongParamFuncs.Value, th.LongParams)
			}
			return false, ""
		},
	},
	{
		id: "repeated-literals", target: "flyweight", severity: 0.3,
		breached: func(sig signal.Vector, th config.ThresholdsConfig) (bool, string) {
			if sig.RepeatedLiterals.Known && sig.RepeatedLiterals.Value >= float64(th.RepeatedLiterals) {
				return true, fmt.Sprintf("%.0f literals repeat across the module; hoist shared constants", sig.RepeatedLiterals.Value)
			}
			return false, ""
		},
	},
}

// Indicators synthesizes anti-pattern items from the signal vector alone.
// They are independent of detector findings.
func Indicators(sig signal.Vector, cat *catalog.Catalog, th config.ThresholdsConfig) []Item {
	var items []Item
	for _, r := range indicatorRules {
		hit, rationale := r.breached(sig, th)
		if !hit {
			continue
		}
		it := Item{
			Kind:      KindIndicator,
			ID:        r.id,
			Target:    r.target,
			Category:  catalog.CategoryPattern,
			Severity:  r.severity,
			Rationale: rationale,
		}
		if e, ok := cat.Lookup(r.target); ok {
			it.Entry = &e
			it.Category = e.Category
		}
		it.Score = score(it)
		items = append(items, it)
	}
	return items
}

// breachSeverity returns the highest severity among the module's breached
// thresholds, zero when nothing breaches. Findings inherit it so detector
// hits in degraded modules outrank the same hits in healthy ones.
func breachSeverity(sig signal.Vector, th config.ThresholdsConfig) float64 {
	for _, r := range indicatorRules {
		if hit, _ := r.breached(sig, th); hit {
			return r.severity
		}
	}
	return 0
}

// score applies the fixed weight formula. The hint bonus rewards targets
// whose catalog entry carries a prompt hint a caller can act on.
func score(it Item) float64 {
	hint := 0.0
	if it.Entry != nil && it.Entry.PromptHint != "" {
		hint = 1.0
	}
	return WeightConfidence*it.Confidence + WeightSeverity*it.Severity + WeightHint*hint
}
