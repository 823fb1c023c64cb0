// Package detect implements the structural pattern and architecture
// detectors.
//
// Detectors are pure, stateless functions from a parsed module to at most
// one Finding. They never mutate the module, never depend on another
// detector's result, and are safe to run in any order or in parallel. Each
// detector documents its minimum structural evidence and its confidence
// formula; confidences start at a 0.5 base and add 0.1 per corroborating
// cue, capped at 1.0.
package detect

import (
	"sort"

	"archon/internal/catalog"
	"archon/internal/parse"
)

// Finding is evidence that a module exhibits a named pattern or architecture.
type Finding struct {
	// Detector is the stable detector identifier
	Detector string `json:"detector"`

	// Name is the catalog name of the detected pattern/architecture
	Name string `json:"name"`

	// Category is "pattern" or "architecture"
	Category catalog.Category `json:"category"`

	// Confidence is in [0,1]
	Confidence float64 `json:"confidence"`

	// Rationale is a short evidence string
	Rationale string `json:"rationale"`

	// Locations are the source line spans supporting the finding
	Locations []parse.Span `json:"locations,omitempty"`
}

// Options carries the toggles that add or remove detectors and optional
// indicator sources. Toggles never change a detector's confidence formula.
type Options struct {
	// Enabled reports whether the named detector may run; nil enables all
	Enabled func(name string) bool

	// RepeatedLiterals indicates the repeated-literal indicator source is
	// available. Detectors needing it treat false as "cannot evaluate".
	RepeatedLiterals bool

	// RepeatedLiteralMin is the occurrence threshold for a literal to count
	// as repeated
	RepeatedLiteralMin int
}

// Detector is one member of the closed detector set.
type Detector struct {
	Name     string
	Category catalog.Category
	Fn       func(m *parse.Module, opts Options) *Finding
}

// All returns the closed detector set, ordered by detector name. The set is
// enumerated at build time; configuration can only disable members.
func All() []Detector {
	ds := []Detector{
		{"adapter", catalog.CategoryPattern, detectAdapter},
		{"builder", catalog.CategoryPattern, detectBuilder},
		{"decorator", catalog.CategoryPattern, detectDecorator},
		{"facade", catalog.CategoryPattern, detectFacade},
		{"factory", catalog.CategoryPattern, detectFactory},
		{"flyweight-literals", catalog.CategoryPattern, detectFlyweightLiterals},
		{"hexagonal", catalog.CategoryArchitecture, detectHexagonal},
		{"layered", catalog.CategoryArchitecture, detectLayered},
		{"mvc", catalog.CategoryArchitecture, detectMVC},
		{"observer", catalog.CategoryPattern, detectObserver},
		{"repository", catalog.CategoryArchitecture, detectRepository},
		{"singleton", catalog.CategoryPattern, detectSingleton},
		{"strategy", catalog.CategoryPattern, detectStrategy},
	}
	sort.Slice(ds, func(i, j int) bool { return ds[i].Name < ds[j].Name })
	return ds
}

// Run executes every enabled detector over the module and returns findings
// ordered by detector name. For a fixed module and options the output is
// byte-identical across calls.
func Run(m *parse.Module, opts Options) []Finding {
	var findings []Finding
	for _, d := range All() {
		if opts.Enabled != nil && !opts.Enabled(d.Name) {
			continue
		}
		if f := d.Fn(m, opts); f != nil {
			f.Detector = d.Name
			f.Category = d.Category
			f.Confidence = capConfidence(f.Confidence)
			findings = append(findings, *f)
		}
	}
	return findings
}

// FilterCategory returns findings of the given category, preserving order.
func FilterCategory(findings []Finding, cat catalog.Category) []Finding {
	var out []Finding
	for _, f := range findings {
		if f.Category == cat {
			out = append(out, f)
		}
	}
	return out
}

const confidenceBase = 0.5
const confidenceCue = 0.1

func capConfidence(c float64) float64 {
	if c > 1.0 {
		return 1.0
	}
	return c
}

// confidence applies the shared formula: base plus one step per cue.
func confidence(cues int) float64 {
	return capConfidence(confidenceBase + confidenceCue*float64(cues))
}
