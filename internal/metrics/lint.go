package metrics

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"archon/internal/config"
	"archon/internal/errors"
	"archon/internal/signal"
)

// LintRunner invokes an external lint tool and reduces its output to an
// opaque violation count. The tool's findings are consumed as a numeric
// signal only; interpretation stays with the tool.
type LintRunner struct {
	cfg config.LintConfig
}

// NewLintRunner creates a runner for the configured lint command.
func NewLintRunner(cfg config.LintConfig) *LintRunner {
	return &LintRunner{cfg: cfg}
}

// Violations runs the lint command against paths and counts reported
// findings. Disabled or missing tools yield an unknown metric, never an
// abort: the pipeline treats absent collaborators as absent signals.
func (r *LintRunner) Violations(ctx context.Context, paths ...string) (signal.Metric, error) {
	if !r.cfg.Enabled {
		return signal.Unknown, nil
	}
	if _, err := exec.LookPath(r.cfg.Command); err != nil {
		return signal.Unknown, errors.Wrap(errors.ExternalToolUnavailable,
			"lint command not found: "+r.cfg.Command, err)
	}

	timeout := time.Duration(r.cfg.TimeoutMs) * time.Millisecond
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append(append([]string{}, r.cfg.Args...), paths...)
	cmd := exec.CommandContext(ctx, r.cfg.Command, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		// A hung tool becomes an unknown signal, not a blocked pipeline.
		return signal.Unknown, errors.New(errors.Timeout, "lint command timed out")
	}
	if err != nil {
		if _, isExit := err.(*exec.ExitError); !isExit {
			return signal.Unknown, errors.Wrap(errors.ExternalToolUnavailable, "lint command failed to start", err)
		}
		// Nonzero exit usually just means findings were reported.
	}

	return signal.Known(float64(countFindings(&stdout, &stderr))), nil
}

// countFindings counts non-empty diagnostic lines across both streams
// (go vet writes to stderr, most linters to stdout).
func countFindings(streams ...*bytes.Buffer) int {
	n := 0
	for _, s := range streams {
		scanner := bufio.NewScanner(s)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			n++
		}
	}
	return n
}
