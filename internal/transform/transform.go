// Package transform attempts a structural, seam-preserving edit toward a
// named pattern or architecture, falling back to a guarded scaffold, and
// accepts a candidate only after the full validation gauntlet passes.
//
// Each introduce request walks a fixed state machine:
//
//	Start -> PreconditionCheck -> {StructuralTransform | Scaffold}
//	      -> Validate -> {Accepted | RolledBack}
//
// A structural candidate that fails validation retries once through
// Scaffold; a scaffold that fails validation is terminal no-change. The
// original file is never touched unless a candidate is Accepted.
package transform

import (
	"context"
	"fmt"
	"os"
	"strings"

	"archon/internal/catalog"
	"archon/internal/config"
	"archon/internal/diff"
	"archon/internal/errors"
	"archon/internal/logging"
	"archon/internal/parse"
	"archon/internal/validate"
)

// Mode states how the candidate text came to be.
type Mode string

const (
	ModeTransformed Mode = "transformed"
	ModeScaffolded  Mode = "scaffolded"
	ModeNoChange    Mode = "no-change"
)

// Candidate is the structured result of one introduce request. It is
// always returned, failures included, with whatever diagnostics were
// collected.
type Candidate struct {
	Target   string           `json:"target"`
	Path     string           `json:"path"`
	Mode     Mode             `json:"mode"`
	Diff     string           `json:"diff,omitempty"`
	Report   *validate.Report `json:"report,omitempty"`
	Notes    []string         `json:"notes,omitempty"`
	Written  string           `json:"written,omitempty"`
	original string
	text     string
}

// Text returns the candidate source, the original when mode is no-change.
func (c *Candidate) Text() string { return c.text }

// Options control write behavior for one request.
type Options struct {
	// DryRun computes the candidate and diff without any filesystem write
	DryRun bool

	// OutPath redirects the accepted candidate to a separate file, leaving
	// the original untouched. Empty means write in place.
	OutPath string
}

// Engine runs introduce requests. Safe for concurrent use; writes to the
// same output path serialize through the lock registry.
type Engine struct {
	cat      *catalog.Catalog
	cfg      *config.Config
	gauntlet *validate.Gauntlet
	log      *logging.Logger
	locks    *pathLocks
}

func New(cat *catalog.Catalog, cfg *config.Config, log *logging.Logger) *Engine {
	return &Engine{
		cat:      cat,
		cfg:      cfg,
		gauntlet: validate.New(),
		log:      log.With(map[string]interface{}{"component": "transform"}),
		locks:    newPathLocks(),
	}
}

// Introduce drives the state machine for one target and one module file.
func (e *Engine) Introduce(ctx context.Context, target, modulePath string, opts Options) (*Candidate, error) {
	entry, ok := e.cat.Lookup(target)
	if !ok {
		return nil, errors.New(errors.UnknownTarget, fmt.Sprintf("no catalog entry for %q", target))
	}

	source, err := os.ReadFile(modulePath)
	if err != nil {
		return nil, errors.Wrap(errors.PathNotFound, fmt.Sprintf("module path %s", modulePath), err)
	}
	m, err := parse.Build(modulePath, source)
	if err != nil {
		return nil, err
	}

	cand := &Candidate{
		Target:   entry.Name,
		Path:     modulePath,
		original: string(source),
		text:     string(source),
	}

	// PreconditionCheck: targets without a structural transform, and
	// structural targets whose preconditions fail, go to Scaffold.
	structuralText := ""
	if fn, hasStructural := structuralTransforms[catalog.Normalize(entry.Name)]; hasStructural {
		text, serr := fn(m)
		switch {
		case serr == errAlreadyApplied:
			// Re-running an accepted transform is a no-op, not a scaffold.
			cand.Mode = ModeNoChange
			cand.Notes = append(cand.Notes, fmt.Sprintf("%s seams already present; nothing to add", entry.Name))
			return cand, nil
		case serr != nil:
			if errors.CodeOf(serr) != errors.PreconditionUnmet {
				return nil, serr
			}
			cand.Notes = append(cand.Notes, "precondition: "+serr.Error())
		default:
			structuralText = text
		}
	} else {
		cand.Notes = append(cand.Notes, fmt.Sprintf("%s has no structural transform; scaffolding", entry.Name))
	}

	mode := validate.ModeApply
	if opts.DryRun {
		mode = validate.ModeDiagnostic
	}

	if structuralText != "" {
		report := e.validateCandidate(ctx, modulePath, cand.original, structuralText, mode)
		if report.Passed {
			cand.Mode = ModeTransformed
			cand.text = structuralText
			cand.Report = &report
			return e.accept(cand, opts)
		}
		cand.Notes = append(cand.Notes, "structural candidate rejected by validation; retrying via scaffold")
		e.log.Warn("structural candidate rejected", map[string]interface{}{
			"target": entry.Name, "path": modulePath,
		})
	}

	// Scaffold: header plus minimal stub, appended. Never deletes code.
	scaffolded, skip, serr := e.scaffold(entry, m)
	if serr != nil {
		return nil, serr
	}
	if skip {
		cand.Mode = ModeNoChange
		cand.Notes = append(cand.Notes, "scaffold names already present; nothing to add")
		return cand, nil
	}

	report := e.validateCandidate(ctx, modulePath, cand.original, scaffolded, mode)
	cand.Report = &report
	if !report.Passed {
		// RolledBacked is terminal from the scaffold path.
		cand.Mode = ModeNoChange
		cand.text = cand.original
		cand.Notes = append(cand.Notes, "scaffold rejected by validation; no change written")
		return cand, nil
	}

	cand.Mode = ModeScaffolded
	cand.text = scaffolded
	return e.accept(cand, opts)
}

// scaffold builds the guarded scaffold text from the pristine original.
// skip reports the duplicate guard: every stub name already exists.
func (e *Engine) scaffold(entry catalog.Entry, m *parse.Module) (text string, skip bool, err error) {
	stub, ok := stubFor(entry.Name)
	if !ok {
		return "", false, errors.New(errors.UnknownTarget,
			fmt.Sprintf("no scaffold stub for %q", entry.Name))
	}
	names, err := stubNames(stub)
	if err != nil {
		return "", false, errors.Wrap(errors.InternalError, "stub introspection", err)
	}
	existing := m.TopLevelNames()
	all := true
	for _, n := range names {
		if !existing[n] {
			all = false
			break
		}
	}
	if all {
		return "", true, nil
	}

	var b strings.Builder
	b.WriteString(string(m.Source))
	ensureTrailingNewline(&b, m.Source)
	b.WriteByte('\n')
	b.WriteString(scaffoldHeader(entry, m, e.cfg.Thresholds))
	b.WriteString(stub)
	return b.String(), false, nil
}

func (e *Engine) validateCandidate(ctx context.Context, path, original, candidate string, mode validate.Mode) validate.Report {
	return e.gauntlet.Run(ctx, validate.Request{
		Path:      path,
		Original:  []byte(original),
		Candidate: []byte(candidate),
	}, validate.Options{
		Mode:    mode,
		Enabled: e.cfg.BackendEnabled,
		Timeout: e.cfg.Validate.Timeout(),
	})
}

// accept computes and verifies the diff, then performs the write unless the
// request was a dry run.
func (e *Engine) accept(cand *Candidate, opts Options) (*Candidate, error) {
	cand.Diff = diff.Unified(cand.Path, cand.original, cand.text)
	if err := diff.Verify(cand.original, cand.text, cand.Diff); err != nil {
		return nil, errors.Wrap(errors.InternalError, "diff verification", err)
	}

	if opts.DryRun {
		return cand, nil
	}

	dest := cand.Path
	if opts.OutPath != "" {
		dest = opts.OutPath
	}
	if !e.locks.acquire(dest) {
		return nil, errors.New(errors.WriteConflict,
			fmt.Sprintf("another write holds %s; retry", dest))
	}
	defer e.locks.release(dest)

	if err := os.WriteFile(dest, []byte(cand.text), 0o644); err != nil {
		return nil, errors.Wrap(errors.InternalError, fmt.Sprintf("write %s", dest), err)
	}
	cand.Written = dest
	e.log.Info("candidate written", map[string]interface{}{
		"target": cand.Target, "path": dest, "mode": string(cand.Mode),
	})
	return cand, nil
}
