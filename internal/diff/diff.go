// Package diff generates unified diffs for transform candidates and
// verifies them by re-applying the patch and byte-comparing the result.
package diff

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

// context is the number of unchanged lines kept around each hunk
const context = 3

type opKind int

const (
	opEqual opKind = iota
	opDelete
	opInsert
)

type op struct {
	kind opKind
	line string
}

// Unified produces a git-style unified diff between before and after.
// Identical inputs yield the empty string. The output parses and applies
// cleanly with go-gitdiff; Verify checks exactly that.
func Unified(path, before, after string) string {
	if before == after {
		return ""
	}
	script := editScript(splitLines(before), splitLines(after))

	var out strings.Builder
	fmt.Fprintf(&out, "--- a/%s\n", path)
	fmt.Fprintf(&out, "+++ b/%s\n", path)
	for _, h := range hunks(script) {
		fmt.Fprintf(&out, "@@ -%s +%s @@\n", span(h.oldStart, h.oldCount), span(h.newStart, h.newCount))
		for _, o := range h.ops {
			switch o.kind {
			case opEqual:
				writeLine(&out, ' ', o.line)
			case opDelete:
				writeLine(&out, '-', o.line)
			case opInsert:
				writeLine(&out, '+', o.line)
			}
		}
	}
	return out.String()
}

// writeLine emits one patch line. Lines keep their own terminator; a line
// without one is the file's last and gets the no-newline marker.
func writeLine(out *strings.Builder, prefix byte, line string) {
	out.WriteByte(prefix)
	if strings.HasSuffix(line, "\n") {
		out.WriteString(line)
		return
	}
	out.WriteString(line)
	out.WriteString("\n\\ No newline at end of file\n")
}

// span renders one side of a hunk header. Zero-length spans anchor on the
// preceding line per the unified format.
func span(start, count int) string {
	if count == 1 {
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d,%d", start, count)
}

// Verify re-applies patch to before with go-gitdiff and byte-compares the
// result against after. An empty patch verifies only if before == after.
func Verify(before, after, patch string) error {
	if patch == "" {
		if before != after {
			return fmt.Errorf("empty patch but content changed")
		}
		return nil
	}
	files, _, err := gitdiff.Parse(strings.NewReader(patch))
	if err != nil {
		return fmt.Errorf("parse patch: %w", err)
	}
	if len(files) != 1 {
		return fmt.Errorf("patch describes %d files, want 1", len(files))
	}
	var applied bytes.Buffer
	if err := gitdiff.Apply(&applied, strings.NewReader(before), files[0]); err != nil {
		return fmt.Errorf("apply patch: %w", err)
	}
	if applied.String() != after {
		return fmt.Errorf("patch round trip diverged from candidate text")
	}
	return nil
}

// Stats counts added and removed lines in a unified diff.
func Stats(patch string) (added, removed int) {
	for _, line := range strings.Split(patch, "\n") {
		switch {
		case strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			added++
		case strings.HasPrefix(line, "-"):
			removed++
		}
	}
	return added, removed
}

// splitLines splits into terminator-inclusive lines, so a missing final
// newline survives the line comparison.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// editScript computes a line-level longest-common-subsequence alignment.
// Module files are small enough that the quadratic table is fine.
func editScript(a, b []string) []op {
	n, m := len(a), len(b)
	lcs := make([][]int, n+1)
	for i := range lcs {
		lcs[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	var script []op
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case a[i] == b[j]:
			script = append(script, op{opEqual, a[i]})
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			script = append(script, op{opDelete, a[i]})
			i++
		default:
			script = append(script, op{opInsert, b[j]})
			j++
		}
	}
	for ; i < n; i++ {
		script = append(script, op{opDelete, a[i]})
	}
	for ; j < m; j++ {
		script = append(script, op{opInsert, b[j]})
	}
	return script
}

type hunk struct {
	oldStart, oldCount int
	newStart, newCount int
	ops                []op
}

// hunks groups the edit script into context-bounded hunks. Runs of equal
// lines longer than twice the context split adjacent hunks.
func hunks(script []op) []hunk {
	type changeRange struct{ lo, hi int }
	var changes []changeRange
	cur := changeRange{-1, -1}
	for i, o := range script {
		if o.kind == opEqual {
			continue
		}
		if cur.lo < 0 {
			cur = changeRange{i, i}
		} else if i-cur.hi > 2*context {
			changes = append(changes, cur)
			cur = changeRange{i, i}
		} else {
			cur.hi = i
		}
	}
	if cur.lo >= 0 {
		changes = append(changes, cur)
	}

	var out []hunk
	for _, c := range changes {
		lo := c.lo - context
		if lo < 0 {
			lo = 0
		}
		hi := c.hi + context
		if hi > len(script)-1 {
			hi = len(script) - 1
		}

		oldLine, newLine := 1, 1
		for i := 0; i < lo; i++ {
			switch script[i].kind {
			case opEqual:
				oldLine++
				newLine++
			case opDelete:
				oldLine++
			case opInsert:
				newLine++
			}
		}

		h := hunk{oldStart: oldLine, newStart: newLine}
		for i := lo; i <= hi; i++ {
			h.ops = append(h.ops, script[i])
			switch script[i].kind {
			case opEqual:
				h.oldCount++
				h.newCount++
			case opDelete:
				h.oldCount++
			case opInsert:
				h.newCount++
			}
		}
		if h.oldCount == 0 {
			h.oldStart--
		}
		if h.newCount == 0 {
			h.newStart--
		}
		out = append(out, h)
	}
	return out
}
