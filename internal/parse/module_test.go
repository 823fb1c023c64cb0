package parse

import (
	"strings"
	"testing"
)

const sample = `package sample

import (
	"fmt"
	"strings"
)

const retries = 3

var prefix = "svc"

type Store interface {
	Get(key string) (string, error)
	Put(key, value string) error
}

type memStore struct {
	data map[string]string
	base Store
}

func (s *memStore) Get(key string) (string, error) {
	return s.data[key], nil
}

func (s *memStore) Put(key, value string) error {
	s.data[key] = value
	return nil
}

func Render(a, b string, n int) string {
	return fmt.Sprintf("%s-%s-%d", a, b, n)
}

func Format(x, y string, z int) string {
	return strings.Join([]string{x, y}, "-")
}

func process(id string, name string, age int, city string, zip string) string {
	return id + name + city + zip + "suffix" + "suffix" + "suffix"
}
`

func mustBuild(t *testing.T, src string) *Module {
	t.Helper()
	m, err := Build("sample.go", []byte(src))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return m
}

func TestBuildBasicFacts(t *testing.T) {
	m := mustBuild(t, sample)

	if m.Package != "sample" {
		t.Errorf("Package = %q, want sample", m.Package)
	}
	if len(m.Imports) != 2 {
		t.Errorf("Imports = %v, want 2 entries", m.Imports)
	}
	if m.LOC == 0 {
		t.Error("LOC should be nonzero")
	}

	names := m.TopLevelNames()
	for _, want := range []string{"Store", "memStore", "Render", "Format", "process", "retries", "prefix"} {
		if !names[want] {
			t.Errorf("TopLevelNames missing %q", want)
		}
	}
	if names["Get"] {
		t.Error("methods should not appear in top-level names")
	}
}

func TestDefKinds(t *testing.T) {
	m := mustBuild(t, sample)

	byName := make(map[string]Def)
	for _, d := range m.Defs {
		if d.Kind != KindMethod {
			byName[d.Name] = d
		}
	}

	if byName["Store"].Kind != KindInterface {
		t.Errorf("Store kind = %v, want interface", byName["Store"].Kind)
	}
	if byName["memStore"].Kind != KindStruct {
		t.Errorf("memStore kind = %v, want struct", byName["memStore"].Kind)
	}
	if byName["retries"].Kind != KindConst {
		t.Errorf("retries kind = %v, want const", byName["retries"].Kind)
	}
	if byName["Render"].Params != 3 {
		t.Errorf("Render params = %d, want 3", byName["Render"].Params)
	}
}

func TestMethodSets(t *testing.T) {
	m := mustBuild(t, sample)

	methods := m.MethodSets["memStore"]
	if len(methods) != 2 {
		t.Fatalf("memStore method set = %d, want 2", len(methods))
	}
	for _, meth := range methods {
		if meth.Kind != KindMethod || meth.Receiver != "memStore" {
			t.Errorf("unexpected method entry: %+v", meth)
		}
	}
}

func TestInterfaceMethods(t *testing.T) {
	m := mustBuild(t, sample)

	got := m.InterfaceMethods["Store"]
	if len(got) != 2 || got[0] != "Get" || got[1] != "Put" {
		t.Errorf("InterfaceMethods[Store] = %v, want [Get Put]", got)
	}
}

func TestFuncsBySignature(t *testing.T) {
	m := mustBuild(t, sample)

	groups := m.FuncsBySignature()
	var family []Def
	for _, g := range groups {
		if len(g) >= 2 {
			family = g
		}
	}
	if len(family) != 2 {
		t.Fatalf("expected one sibling family of 2, got groups %v", groups)
	}
	names := []string{family[0].Name, family[1].Name}
	joined := strings.Join(names, ",")
	if !strings.Contains(joined, "Render") || !strings.Contains(joined, "Format") {
		t.Errorf("sibling family = %v, want Render and Format", names)
	}
}

func TestLiteralAndParamIndicators(t *testing.T) {
	m := mustBuild(t, sample)

	if m.RepeatedLiteralCount(3) != 1 {
		t.Errorf("RepeatedLiteralCount(3) = %d, want 1 (%q repeated)", m.RepeatedLiteralCount(3), "suffix")
	}
	if m.LongParamFuncCount(5) != 1 {
		t.Errorf("LongParamFuncCount(5) = %d, want 1 (process)", m.LongParamFuncCount(5))
	}
}

func TestFieldsAndEmbeds(t *testing.T) {
	src := `package p

type Reader interface{ Read() string }

type LoggingReader struct {
	Reader
	count int
	fn    func(string) error
}
`
	m := mustBuild(t, src)

	if got := m.Embeds["LoggingReader"]; len(got) != 1 || got[0] != "Reader" {
		t.Errorf("Embeds = %v, want [Reader]", got)
	}
	fields := m.Fields["LoggingReader"]
	if len(fields) != 3 {
		t.Fatalf("Fields = %v, want 3 entries", fields)
	}
	var fnField *Field
	for i := range fields {
		if fields[i].Name == "fn" {
			fnField = &fields[i]
		}
	}
	if fnField == nil || !fnField.FuncType {
		t.Errorf("fn field should be marked FuncType: %+v", fields)
	}
}

func TestBuildSyntaxError(t *testing.T) {
	_, err := Build("broken.go", []byte("package p\nfunc oops( {"))
	if err == nil {
		t.Fatal("Build should fail on syntax error")
	}
	if !strings.Contains(err.Error(), "PARSE_ERROR") {
		t.Errorf("error should carry PARSE_ERROR code, got %v", err)
	}
}

func TestDeterministicRebuild(t *testing.T) {
	a := mustBuild(t, sample)
	b := mustBuild(t, sample)

	if len(a.Defs) != len(b.Defs) {
		t.Fatalf("rebuild produced different def counts: %d vs %d", len(a.Defs), len(b.Defs))
	}
	for i := range a.Defs {
		if a.Defs[i] != b.Defs[i] {
			t.Errorf("def %d differs between rebuilds: %+v vs %+v", i, a.Defs[i], b.Defs[i])
		}
	}
}
