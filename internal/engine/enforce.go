package engine

import (
	"context"
	"sort"

	"archon/internal/errors"
	"archon/internal/rank"
	"archon/internal/transform"
)

// EnforceAction is one attempted remediation in a ranked enforcement run.
type EnforceAction struct {
	Path      string               `json:"path"`
	Indicator string               `json:"indicator"`
	Target    string               `json:"target"`
	Score     float64              `json:"score"`
	Candidate *transform.Candidate `json:"candidate,omitempty"`
	Error     string               `json:"error,omitempty"`
	Code      errors.ErrorCode     `json:"code,omitempty"`
}

// EnforceRun is the outcome of one ranked enforcement pass.
type EnforceRun struct {
	Actions   []EnforceAction `json:"actions"`
	Truncated bool            `json:"truncated"`
	Applied   bool            `json:"applied"`
}

// EnforceRanked scans the given paths, picks the highest-scoring breached
// indicator per file, and introduces its suggested target into the top
// files by score. Transformations are dry runs unless apply is set; a
// failed introduction is recorded on its action and never stops the run.
func (e *Engine) EnforceRanked(ctx context.Context, paths []string, topN int, apply bool) (*EnforceRun, error) {
	results, truncated, err := e.ScanPaths(ctx, paths, true)
	if err != nil {
		return nil, err
	}

	run := &EnforceRun{Truncated: truncated, Applied: apply}
	for _, r := range results {
		if r.Error != "" {
			continue
		}
		for _, item := range r.Proposal.Items {
			if item.Kind != rank.KindIndicator {
				continue
			}
			// Items are already ranked, so the first indicator is the
			// file's strongest breach.
			run.Actions = append(run.Actions, EnforceAction{
				Path:      r.Path,
				Indicator: item.ID,
				Target:    item.Target,
				Score:     item.Score,
			})
			break
		}
	}

	sort.SliceStable(run.Actions, func(i, j int) bool {
		if run.Actions[i].Score != run.Actions[j].Score {
			return run.Actions[i].Score > run.Actions[j].Score
		}
		return run.Actions[i].Path < run.Actions[j].Path
	})
	if topN > 0 && len(run.Actions) > topN {
		run.Actions = run.Actions[:topN]
	}

	for i := range run.Actions {
		act := &run.Actions[i]
		cand, err := e.Introduce(ctx, act.Target, act.Path, transform.Options{DryRun: !apply})
		if err != nil {
			act.Error = err.Error()
			act.Code = errors.CodeOf(err)
			continue
		}
		act.Candidate = cand
	}
	return run, nil
}
