// Package validate runs candidate source through the parser gauntlet. A
// candidate is accepted only when every enabled backend passes; optional
// backends may be absent or disabled, never failing.
package validate

import (
	"context"
	"fmt"
	"time"

	"archon/internal/errors"
)

// Mode selects the gauntlet's failure behavior.
type Mode string

const (
	// ModeDiagnostic runs every backend and reports all outcomes
	ModeDiagnostic Mode = "diagnostic"

	// ModeApply stops at the first failing backend
	ModeApply Mode = "apply"
)

// Status is one backend's outcome
type Status string

const (
	StatusPass    Status = "pass"
	StatusFail    Status = "fail"
	StatusSkipped Status = "skipped"
)

// Request carries the texts a backend may need. Original is the pre-change
// source; the incremental backend seeds its previous tree from it.
type Request struct {
	Path      string
	Original  []byte
	Candidate []byte
}

// Backend is one gauntlet member.
type Backend interface {
	Name() string

	// Optional backends may be disabled by configuration or unavailable in
	// this build; required ones always run.
	Optional() bool

	Check(ctx context.Context, req Request) error
}

// BackendResult is one backend's report entry.
type BackendResult struct {
	Backend    string `json:"backend"`
	Status     Status `json:"status"`
	Detail     string `json:"detail,omitempty"`
	DurationMs int64  `json:"durationMs"`
}

// Report is the gauntlet outcome for one candidate.
type Report struct {
	Mode    Mode            `json:"mode"`
	Passed  bool            `json:"passed"`
	Results []BackendResult `json:"results"`
}

// Options narrows the gauntlet run.
type Options struct {
	Mode Mode

	// Enabled reports whether the named backend may run; nil enables all.
	// Disabling is honored for optional backends only.
	Enabled func(name string) bool

	// Timeout bounds each backend individually; zero means DefaultTimeout
	Timeout time.Duration
}

// DefaultTimeout bounds a single backend run
const DefaultTimeout = 2 * time.Second

// Gauntlet is the ordered backend chain.
type Gauntlet struct {
	backends []Backend
}

// New returns the gauntlet in its fixed order: the two go/parser-family
// checks, the format round trip, the type check, then the tree-sitter pair.
func New() *Gauntlet {
	return &Gauntlet{backends: []Backend{
		goastBackend{},
		goscannerBackend{},
		gofmtBackend{},
		gotypesBackend{},
		newTreesitterBackend(),
		newTreesitterIncrBackend(),
	}}
}

// Backends lists the chain's backend names in run order.
func (g *Gauntlet) Backends() []string {
	names := make([]string, 0, len(g.backends))
	for _, b := range g.backends {
		names = append(names, b.Name())
	}
	return names
}

// Run executes the gauntlet over the candidate. Acceptance requires every
// non-skipped backend to pass; a timeout counts as that backend failing.
func (g *Gauntlet) Run(ctx context.Context, req Request, opts Options) Report {
	mode := opts.Mode
	if mode == "" {
		mode = ModeDiagnostic
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	report := Report{Mode: mode, Passed: true}
	for _, b := range g.backends {
		if b.Optional() && opts.Enabled != nil && !opts.Enabled(b.Name()) {
			report.Results = append(report.Results, BackendResult{
				Backend: b.Name(), Status: StatusSkipped, Detail: "disabled by configuration",
			})
			continue
		}
		if avail, detail := backendAvailable(b); !avail {
			report.Results = append(report.Results, BackendResult{
				Backend: b.Name(), Status: StatusSkipped, Detail: detail,
			})
			continue
		}

		start := time.Now()
		err := runBounded(ctx, timeout, b, req)
		res := BackendResult{
			Backend:    b.Name(),
			Status:     StatusPass,
			DurationMs: time.Since(start).Milliseconds(),
		}
		if err != nil {
			res.Status = StatusFail
			res.Detail = err.Error()
			report.Passed = false
		}
		report.Results = append(report.Results, res)

		if err != nil && mode == ModeApply {
			break
		}
	}
	return report
}

// availability lets cgo-gated backends report themselves absent instead of
// failing.
type availability interface {
	Available() (bool, string)
}

func backendAvailable(b Backend) (bool, string) {
	if a, ok := b.(availability); ok {
		return a.Available()
	}
	return true, ""
}

// runBounded runs a backend under its own deadline. The parser backends are
// not context-aware internally, so the bound is enforced from outside.
func runBounded(ctx context.Context, timeout time.Duration, b Backend, req Request) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- b.Check(ctx, req)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return errors.New(errors.Timeout, fmt.Sprintf("backend %s exceeded %s", b.Name(), timeout))
	}
}
