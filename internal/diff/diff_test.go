package diff

import (
	"strings"
	"testing"
)

func lines(n int, prefix string) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString(prefix)
		b.WriteByte('a' + byte(i%26))
		b.WriteByte('\n')
	}
	return b.String()
}

func TestUnifiedEmptyForIdentical(t *testing.T) {
	src := "package a\n\nfunc f() {}\n"
	if got := Unified("a.go", src, src); got != "" {
		t.Fatalf("identical inputs produced %q", got)
	}
}

func TestUnifiedRoundTrip(t *testing.T) {
	cases := []struct {
		name, before, after string
	}{
		{"replace middle", "one\ntwo\nthree\n", "one\nTWO\nthree\n"},
		{"insert at start", "b\nc\n", "a\nb\nc\n"},
		{"insert at end", "a\nb\n", "a\nb\nc\n"},
		{"delete line", "a\nb\nc\n", "a\nc\n"},
		{"rewrite everything", "x\ny\n", "p\nq\nr\n"},
		{"append to empty", "", "a\nb\n"},
		{"empty result", "a\nb\n", ""},
		{"no trailing newline", "a\nb", "a\nb\nc"},
		{"gain trailing newline", "a\nb", "a\nb\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			patch := Unified("mod.go", tc.before, tc.after)
			if patch == "" {
				t.Fatal("expected a non-empty patch")
			}
			if err := Verify(tc.before, tc.after, patch); err != nil {
				t.Fatalf("round trip: %v\npatch:\n%s", err, patch)
			}
		})
	}
}

func TestUnifiedSplitsDistantHunks(t *testing.T) {
	var before, after strings.Builder
	for i := 0; i < 40; i++ {
		line := string(rune('a' + i%26))
		before.WriteString(line + "\n")
		switch i {
		case 0:
			after.WriteString("FIRST\n")
		case 39:
			after.WriteString("LAST\n")
		default:
			after.WriteString(line + "\n")
		}
	}
	patch := Unified("mod.go", before.String(), after.String())
	if got := strings.Count(patch, "@@ -"); got != 2 {
		t.Fatalf("hunks = %d, want 2\n%s", got, patch)
	}
	if err := Verify(before.String(), after.String(), patch); err != nil {
		t.Fatalf("round trip: %v", err)
	}
}

func TestUnifiedHeaders(t *testing.T) {
	patch := Unified("internal/svc.go", "a\n", "b\n")
	if !strings.HasPrefix(patch, "--- a/internal/svc.go\n+++ b/internal/svc.go\n") {
		t.Fatalf("headers wrong:\n%s", patch)
	}
}

func TestUnifiedDeterministic(t *testing.T) {
	before := lines(20, "x")
	after := "H\n" + lines(20, "x") + "T\n"
	first := Unified("m.go", before, after)
	for i := 0; i < 5; i++ {
		if got := Unified("m.go", before, after); got != first {
			t.Fatalf("run %d diverged", i)
		}
	}
}

func TestVerifyRejectsDivergingCandidate(t *testing.T) {
	before, after := "a\nb\n", "a\nB\n"
	patch := Unified("m.go", before, after)
	if err := Verify(before, after+"extra\n", patch); err == nil {
		t.Fatal("diverging candidate text must fail verification")
	}
}

func TestVerifyEmptyPatch(t *testing.T) {
	if err := Verify("same\n", "same\n", ""); err != nil {
		t.Fatalf("empty patch over identical text: %v", err)
	}
	if err := Verify("same\n", "other\n", ""); err == nil {
		t.Fatal("empty patch cannot explain changed text")
	}
}

func TestStats(t *testing.T) {
	patch := Unified("m.go", "a\nb\nc\n", "a\nB\nc\nd\n")
	added, removed := Stats(patch)
	if added != 2 || removed != 1 {
		t.Fatalf("stats = +%d -%d, want +2 -1", added, removed)
	}
}
