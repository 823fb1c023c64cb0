package engine

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"

	"archon/internal/catalog"
	"archon/internal/config"
	"archon/internal/errors"
	"archon/internal/logging"
	"archon/internal/rank"
)

const singletonSrc = `package app

import "sync"

type registry struct {
	entries map[string]string
}

var (
	regOnce sync.Once
	reg     *registry
)

func Registry() *registry {
	regOnce.Do(func() {
		reg = &registry{entries: map[string]string{}}
	})
	return reg
}
`

const brokenSrc = `package app

func Oops( {
`

func testEngine(t *testing.T) *Engine {
	t.Helper()
	log := logging.NewLogger(logging.Config{Format: logging.JSONFormat, Output: io.Discard})
	e, err := New(config.DefaultConfig(), log)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func writeFile(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDetectContinuesPastUnparsableFile(t *testing.T) {
	e := testEngine(t)
	good := writeFile(t, "good.go", singletonSrc)
	bad := writeFile(t, "bad.go", brokenSrc)

	results, err := e.Detect(context.Background(), []string{bad, good}, "")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("want 2 results, got %d", len(results))
	}
	if results[0].Error == "" || results[0].Code != errors.ParseError {
		t.Errorf("broken file: error=%q code=%q", results[0].Error, results[0].Code)
	}
	if results[0].Findings != nil {
		t.Errorf("broken file should carry no findings")
	}
	found := false
	for _, f := range results[1].Findings {
		if f.Name == "singleton" {
			found = true
		}
	}
	if !found {
		t.Errorf("good file missing singleton finding: %+v", results[1].Findings)
	}
}

func TestDetectCategoryFilter(t *testing.T) {
	e := testEngine(t)
	path := writeFile(t, "app.go", singletonSrc)

	results, err := e.Detect(context.Background(), []string{path}, catalog.CategoryArchitecture)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	for _, f := range results[0].Findings {
		if f.Category != catalog.CategoryArchitecture {
			t.Errorf("category filter leaked %s finding %s", f.Category, f.Name)
		}
	}
}

func TestProposeFiltersAfterRanking(t *testing.T) {
	e := testEngine(t)
	path := writeFile(t, "app.go", singletonSrc)
	ctx := context.Background()

	all, err := e.Propose(ctx, []string{path}, "", false)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	patterns, err := e.Propose(ctx, []string{path}, catalog.CategoryPattern, false)
	if err != nil {
		t.Fatalf("Propose filtered: %v", err)
	}

	var wantIDs []string
	for _, it := range all[0].Proposal.Items {
		if it.Category == catalog.CategoryPattern {
			wantIDs = append(wantIDs, it.ID)
		}
	}
	var gotIDs []string
	for _, it := range patterns[0].Proposal.Items {
		gotIDs = append(gotIDs, it.ID)
	}
	if len(gotIDs) != len(wantIDs) {
		t.Fatalf("filtered items = %v, want %v", gotIDs, wantIDs)
	}
	for i := range gotIDs {
		if gotIDs[i] != wantIDs[i] {
			t.Errorf("filter changed order: got %v want %v", gotIDs, wantIDs)
			break
		}
	}
}

func TestThresholdedEnforcementReportsIndicatorsOnly(t *testing.T) {
	e := testEngine(t)

	// Six parameters clears the long parameter list threshold.
	src := singletonSrc + `
func configure(a, b, c, d, e, f string) string {
	return a + b + c + d + e + f
}
`
	path := writeFile(t, "app.go", src)

	results, err := e.ThresholdedEnforcement(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("ThresholdedEnforcement: %v", err)
	}
	if results[0].Findings != nil {
		t.Errorf("enforcement output should omit pattern findings")
	}
	if len(results[0].Proposal.Items) == 0 {
		t.Fatalf("expected at least one breached indicator")
	}
	for _, it := range results[0].Proposal.Items {
		if it.Kind != rank.KindIndicator {
			t.Errorf("non-indicator item leaked: %s (%s)", it.ID, it.Kind)
		}
		if it.Rationale == "" {
			t.Errorf("indicator %s missing breach rationale", it.ID)
		}
	}
}

func TestEnforceRankedDryRunsTopBreaches(t *testing.T) {
	e := testEngine(t)
	dir := t.TempDir()
	src := "package app\n\nfunc configure(a, b, c, d, e, f string) string {\n\treturn a + b + c + d + e + f\n}\n"
	path := filepath.Join(dir, "app.go")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	run, err := e.EnforceRanked(context.Background(), []string{dir}, 3, false)
	if err != nil {
		t.Fatalf("EnforceRanked: %v", err)
	}
	if run.Applied {
		t.Errorf("default must be a dry run")
	}
	if len(run.Actions) != 1 {
		t.Fatalf("actions = %+v, want one", run.Actions)
	}
	act := run.Actions[0]
	if act.Indicator != "long-params" || act.Target != "builder" {
		t.Errorf("action = %+v", act)
	}
	if act.Candidate == nil || act.Candidate.Diff == "" {
		t.Errorf("dry run should still produce a candidate diff")
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(after) != src {
		t.Errorf("dry run wrote to the file")
	}
}

func TestAnalyzeMetricsKeepsFileOrder(t *testing.T) {
	e := testEngine(t)
	a := writeFile(t, "a.go", singletonSrc)
	b := writeFile(t, "b.go", "package app\n\nfunc One() int { return 1 }\n")

	vectors, err := e.AnalyzeMetrics(context.Background(), []string{a, b})
	if err != nil {
		t.Fatalf("AnalyzeMetrics: %v", err)
	}
	if len(vectors) != 2 || vectors[0].Path != a || vectors[1].Path != b {
		t.Fatalf("vector order does not match input: %+v", vectors)
	}
	if !vectors[0].LOC.Known {
		t.Errorf("LOC should always be known for parsed files")
	}
}

func TestScanPathsExpandsDirectories(t *testing.T) {
	e := testEngine(t)
	dir := t.TempDir()
	for _, name := range []string{"one.go", "two.go"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("package app\n"), 0o644); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	results, truncated, err := e.ScanPaths(context.Background(), []string{dir}, false)
	if err != nil {
		t.Fatalf("ScanPaths: %v", err)
	}
	if truncated {
		t.Errorf("two files should not truncate")
	}
	if len(results) != 2 {
		t.Fatalf("want 2 results, got %d", len(results))
	}
}

func TestAdvise(t *testing.T) {
	e := testEngine(t)

	adv, err := e.Advise("singleton")
	if err != nil {
		t.Fatalf("Advise: %v", err)
	}
	if adv.Target != "singleton" || adv.Advice == "" {
		t.Errorf("unexpected advice: %+v", adv)
	}

	_, err = e.Advise("no-such-target")
	if errors.CodeOf(err) != errors.UnknownTarget {
		t.Errorf("code = %q, want %q", errors.CodeOf(err), errors.UnknownTarget)
	}
}

func TestListTargetsSortedByCategoryThenName(t *testing.T) {
	e := testEngine(t)
	targets := e.ListTargets("")
	if len(targets) != e.Catalog().Len() {
		t.Fatalf("listed %d of %d entries", len(targets), e.Catalog().Len())
	}
	for i := 1; i < len(targets); i++ {
		a, b := targets[i-1], targets[i]
		if a.Category > b.Category || (a.Category == b.Category && a.Name >= b.Name) {
			t.Fatalf("targets out of order at %d: %+v before %+v", i, a, b)
		}
	}

	patterns := e.ListTargets(catalog.CategoryPattern)
	for _, tg := range patterns {
		if tg.Category != catalog.CategoryPattern {
			t.Errorf("category filter leaked %s", tg.Name)
		}
	}
}

func TestGetStatus(t *testing.T) {
	e := testEngine(t)
	st := e.GetStatus()
	if st.Version == "" {
		t.Errorf("version missing")
	}
	if len(st.Backends) == 0 || st.Backends[0] != "goast" {
		t.Errorf("backends = %v", st.Backends)
	}
	if len(st.Detectors) != 13 {
		t.Errorf("detectors = %v", st.Detectors)
	}
	if st.CatalogEntries != e.Catalog().Len() {
		t.Errorf("catalogEntries = %d", st.CatalogEntries)
	}
}

func TestExportReportPlainAndGzip(t *testing.T) {
	report := map[string]interface{}{"path": "app.go", "items": []string{"singleton"}}
	dir := t.TempDir()

	plain := filepath.Join(dir, "report.json")
	if err := ExportReport(report, plain); err != nil {
		t.Fatalf("ExportReport: %v", err)
	}
	data, err := os.ReadFile(plain)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("plain report is not JSON: %v", err)
	}

	packed := filepath.Join(dir, "report.json.gz")
	if err := ExportReport(report, packed); err != nil {
		t.Fatalf("ExportReport gz: %v", err)
	}
	f, err := os.Open(packed)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip header: %v", err)
	}
	unpacked, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !strings.Contains(string(unpacked), "singleton") {
		t.Errorf("compressed payload lost content: %q", unpacked)
	}
}
