package validate

import (
	"context"
	"strings"
	"testing"
	"time"
)

const goodSrc = `package svc

import "fmt"

func Greet(name string) string {
	return fmt.Sprintf("hello %s", name)
}
`

const brokenSrc = `package svc

func Greet(name string) string {
	return "hello %s", name
`

func req(candidate string) Request {
	return Request{Path: "svc.go", Original: []byte("package svc\n"), Candidate: []byte(candidate)}
}

func TestGauntletAcceptsValidSource(t *testing.T) {
	report := New().Run(context.Background(), req(goodSrc), Options{Mode: ModeDiagnostic})
	if !report.Passed {
		t.Fatalf("valid source rejected: %+v", report.Results)
	}
	for _, r := range report.Results {
		if r.Status == StatusFail {
			t.Fatalf("backend %s failed: %s", r.Backend, r.Detail)
		}
	}
}

func TestGauntletRejectsBrokenSource(t *testing.T) {
	report := New().Run(context.Background(), req(brokenSrc), Options{Mode: ModeDiagnostic})
	if report.Passed {
		t.Fatal("broken source accepted")
	}
	failed := 0
	for _, r := range report.Results {
		if r.Status == StatusFail {
			failed++
		}
	}
	if failed == 0 {
		t.Fatal("no backend reported the failure")
	}
}

func TestDiagnosticModeRunsAllBackends(t *testing.T) {
	g := New()
	report := g.Run(context.Background(), req(brokenSrc), Options{Mode: ModeDiagnostic})
	if len(report.Results) != len(g.Backends()) {
		t.Fatalf("diagnostic mode reported %d of %d backends", len(report.Results), len(g.Backends()))
	}
}

func TestApplyModeShortCircuits(t *testing.T) {
	g := New()
	report := g.Run(context.Background(), req(brokenSrc), Options{Mode: ModeApply})
	if report.Passed {
		t.Fatal("broken source accepted")
	}
	if len(report.Results) == len(g.Backends()) {
		t.Fatalf("apply mode ran the full chain after a failure: %+v", report.Results)
	}
	last := report.Results[len(report.Results)-1]
	if last.Status != StatusFail {
		t.Fatalf("apply mode should stop on the failing backend, got %+v", last)
	}
}

func TestChainOrder(t *testing.T) {
	want := []string{"goast", "goscanner", "gofmt", "gotypes", "treesitter", "treesitter-incr"}
	got := New().Backends()
	if len(got) != len(want) {
		t.Fatalf("backends = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("backend %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestOptionalBackendDisabled(t *testing.T) {
	opts := Options{
		Mode:    ModeDiagnostic,
		Enabled: func(name string) bool { return !strings.HasPrefix(name, "treesitter") },
	}
	report := New().Run(context.Background(), req(goodSrc), opts)
	for _, r := range report.Results {
		if strings.HasPrefix(r.Backend, "treesitter") && r.Status != StatusSkipped {
			t.Fatalf("disabled backend ran: %+v", r)
		}
	}
	if !report.Passed {
		t.Fatalf("skips must not affect acceptance: %+v", report.Results)
	}
}

func TestRequiredBackendIgnoresDisable(t *testing.T) {
	opts := Options{
		Mode:    ModeDiagnostic,
		Enabled: func(name string) bool { return name != "goast" },
	}
	report := New().Run(context.Background(), req(goodSrc), opts)
	if report.Results[0].Backend != "goast" || report.Results[0].Status == StatusSkipped {
		t.Fatalf("required backend must always run: %+v", report.Results[0])
	}
}

func TestTypeCheckFiltersImportErrors(t *testing.T) {
	src := `package svc

import "example.com/not/fetchable"

func Use() string {
	return fetchable.Thing()
}
`
	err := gotypesBackend{}.Check(context.Background(), req(src))
	if err != nil {
		t.Fatalf("unresolvable import must not fail the candidate: %v", err)
	}
}

func TestTypeCheckCatchesLocalErrors(t *testing.T) {
	src := `package svc

func Add(a int) int {
	return a + missing
}
`
	if err := (gotypesBackend{}).Check(context.Background(), req(src)); err == nil {
		t.Fatal("undeclared local identifier must fail the type check")
	}
}

func TestBackendTimeout(t *testing.T) {
	slow := slowBackend{}
	err := runBounded(context.Background(), 10*time.Millisecond, slow, req(goodSrc))
	if err == nil {
		t.Fatal("expected a timeout")
	}
	if !strings.Contains(err.Error(), "exceeded") {
		t.Fatalf("unexpected error: %v", err)
	}
}

type slowBackend struct{}

func (slowBackend) Name() string   { return "slow" }
func (slowBackend) Optional() bool { return true }

func (slowBackend) Check(ctx context.Context, _ Request) error {
	select {
	case <-time.After(time.Second):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
