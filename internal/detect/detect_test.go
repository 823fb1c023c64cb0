package detect

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"archon/internal/catalog"
	"archon/internal/parse"
)

func mustModule(t *testing.T, source string) *parse.Module {
	t.Helper()
	m, err := parse.Build("sample.go", []byte(source))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return m
}

func findingFor(findings []Finding, detector string) *Finding {
	for i := range findings {
		if findings[i].Detector == detector {
			return &findings[i]
		}
	}
	return nil
}

const singletonSrc = `package app

import "sync"

type registry struct {
	entries map[string]string
}

var instance *registry
var once sync.Once

func Instance() *registry {
	once.Do(func() {
		instance = &registry{entries: map[string]string{}}
	})
	return instance
}
`

func TestDetectSingleton(t *testing.T) {
	m := mustModule(t, singletonSrc)
	findings := Run(m, Options{})
	f := findingFor(findings, "singleton")
	if f == nil {
		t.Fatalf("expected a singleton finding, got %+v", findings)
	}
	if f.Confidence < 0.5 {
		t.Fatalf("confidence %v below base", f.Confidence)
	}
	if f.Category != catalog.CategoryPattern {
		t.Fatalf("category = %s", f.Category)
	}
	if !strings.Contains(f.Rationale, "Instance") {
		t.Fatalf("rationale should name the accessor: %q", f.Rationale)
	}
}

const strategySrc = `package app

type Compressor interface {
	Compress(data []byte) []byte
}

type gzipCompressor struct{}

func (gzipCompressor) Compress(data []byte) []byte { return data }

type zstdCompressor struct{}

func (zstdCompressor) Compress(data []byte) []byte { return data }

type Archiver struct {
	codec Compressor
}
`

func TestDetectStrategyInterfaceFamily(t *testing.T) {
	m := mustModule(t, strategySrc)
	f := findingFor(Run(m, Options{}), "strategy")
	if f == nil {
		t.Fatal("expected a strategy finding")
	}
	// Two implementations plus field injection: base + one cue.
	if f.Confidence < 0.6 {
		t.Fatalf("confidence = %v, want >= 0.6", f.Confidence)
	}
}

const strategyCallableSrc = `package app

type Retrier struct {
	backoff func(attempt int) int
}

func (r *Retrier) Wait(attempt int) int {
	return r.backoff(attempt)
}
`

func TestDetectStrategyStoredCallable(t *testing.T) {
	m := mustModule(t, strategyCallableSrc)
	if findingFor(Run(m, Options{}), "strategy") == nil {
		t.Fatal("expected a strategy finding for a stored callable")
	}
}

const adapterSrc = `package app

import "legacy"

type Printer struct {
	dev legacy.Device
}

func (p *Printer) Print(text string) error {
	return p.dev.WriteLine(text)
}

func (p *Printer) Flush() error {
	return p.dev.Sync()
}
`

func TestDetectAdapter(t *testing.T) {
	m := mustModule(t, adapterSrc)
	f := findingFor(Run(m, Options{}), "adapter")
	if f == nil {
		t.Fatal("expected an adapter finding")
	}
	if !strings.Contains(f.Rationale, "Printer") {
		t.Fatalf("rationale should name the wrapper: %q", f.Rationale)
	}
}

const builderSrc = `package app

type Request struct {
	method string
	url    string
	body   []byte
}

func (r *Request) Method(m string) *Request { r.method = m; return r }
func (r *Request) URL(u string) *Request    { r.url = u; return r }
func (r *Request) Body(b []byte) *Request   { r.body = b; return r }
func (r *Request) Build() string            { return r.method + " " + r.url }
`

func TestDetectBuilder(t *testing.T) {
	m := mustModule(t, builderSrc)
	f := findingFor(Run(m, Options{}), "builder")
	if f == nil {
		t.Fatal("expected a builder finding")
	}
	// Three chain methods plus a terminal Build: base + one cue.
	if f.Confidence < 0.6 {
		t.Fatalf("confidence = %v, want >= 0.6", f.Confidence)
	}
}

const observerSrc = `package app

type Listener interface {
	Notify(event string)
}

type Bus struct {
	listeners []Listener
}

func (b *Bus) Subscribe(l Listener) {
	b.listeners = append(b.listeners, l)
}

func (b *Bus) Publish(event string) {
	for _, l := range b.listeners {
		l.Notify(event)
	}
}
`

func TestDetectObserver(t *testing.T) {
	m := mustModule(t, observerSrc)
	if findingFor(Run(m, Options{}), "observer") == nil {
		t.Fatal("expected an observer finding")
	}
}

const factorySrc = `package app

type Codec interface {
	Encode(v any) ([]byte, error)
}

type jsonCodec struct{}

func (jsonCodec) Encode(v any) ([]byte, error) { return nil, nil }

type gobCodec struct{}

func (gobCodec) Encode(v any) ([]byte, error) { return nil, nil }

func NewCodec(kind string) Codec {
	if kind == "gob" {
		return gobCodec{}
	}
	return jsonCodec{}
}
`

func TestDetectFactory(t *testing.T) {
	m := mustModule(t, factorySrc)
	f := findingFor(Run(m, Options{}), "factory")
	if f == nil {
		t.Fatal("expected a factory finding")
	}
	if !strings.Contains(f.Rationale, "NewCodec") {
		t.Fatalf("rationale should name the constructor: %q", f.Rationale)
	}
}

const repositorySrc = `package app

type UserRepository interface {
	GetUser(id string) (string, error)
	SaveUser(id, name string) error
	DeleteUser(id string) error
}
`

func TestDetectRepository(t *testing.T) {
	m := mustModule(t, repositorySrc)
	f := findingFor(Run(m, Options{}), "repository")
	if f == nil {
		t.Fatal("expected a repository finding")
	}
	if f.Category != catalog.CategoryArchitecture {
		t.Fatalf("category = %s", f.Category)
	}
}

const hexagonalSrc = `package app

type StoragePort interface {
	Save(key string, value []byte) error
}

type NotifyPort interface {
	Send(msg string) error
}

type Core struct {
	storage StoragePort
	notify  NotifyPort
}

func NewCore(s StoragePort, n NotifyPort) *Core {
	return &Core{storage: s, notify: n}
}
`

func TestDetectHexagonal(t *testing.T) {
	m := mustModule(t, hexagonalSrc)
	f := findingFor(Run(m, Options{}), "hexagonal")
	if f == nil {
		t.Fatal("expected a hexagonal finding")
	}
	// Two ports with Port suffix: base + one cue.
	if f.Confidence < 0.6 {
		t.Fatalf("confidence = %v, want >= 0.6", f.Confidence)
	}
}

const mvcSrc = `package app

type AccountModel struct {
	Balance int
}

type AccountView struct{}

type AccountController struct {
	model AccountModel
	view  AccountView
}
`

func TestDetectMVC(t *testing.T) {
	m := mustModule(t, mvcSrc)
	f := findingFor(Run(m, Options{}), "mvc")
	if f == nil {
		t.Fatal("expected an mvc finding")
	}
	// All three roles plus controller holding them: base + two cues.
	if f.Confidence < 0.7 {
		t.Fatalf("confidence = %v, want >= 0.7", f.Confidence)
	}
}

func TestFlyweightRequiresIndicator(t *testing.T) {
	var b strings.Builder
	b.WriteString("package app\n\nfunc labels() []string {\n\treturn []string{\n")
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			fmt.Fprintf(&b, "\t\t\"label-%d\",\n", i)
		}
	}
	b.WriteString("\t}\n}\n")
	m := mustModule(t, b.String())

	if f := findingFor(Run(m, Options{}), "flyweight-literals"); f != nil {
		t.Fatalf("indicator disabled, got %+v", f)
	}
	opts := Options{RepeatedLiterals: true, RepeatedLiteralMin: 3}
	if findingFor(Run(m, opts), "flyweight-literals") == nil {
		t.Fatal("expected a flyweight finding with the indicator enabled")
	}
}

func TestNoFindingsOnPlainLargeModule(t *testing.T) {
	var b strings.Builder
	b.WriteString("package app\n\n")
	for i := 0; i < 42; i++ {
		fmt.Fprintf(&b, "func task%d(n int) int {\n", i)
		for j := 0; j < 18; j++ {
			fmt.Fprintf(&b, "\tn = n + %d\n", j)
		}
		b.WriteString("\treturn n\n}\n\n")
	}
	m := mustModule(t, b.String())
	findings := Run(m, Options{})
	if pats := FilterCategory(findings, catalog.CategoryPattern); len(pats) != 0 {
		t.Fatalf("size alone is not evidence, got %+v", pats)
	}
}

func TestRunDeterministic(t *testing.T) {
	m := mustModule(t, strategySrc)
	first := Run(m, Options{})
	for i := 0; i < 5; i++ {
		if got := Run(m, Options{}); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d diverged: %+v vs %+v", i, got, first)
		}
	}
}

func TestDisabledDetectorSkipped(t *testing.T) {
	m := mustModule(t, singletonSrc)
	opts := Options{Enabled: func(name string) bool { return name != "singleton" }}
	if f := findingFor(Run(m, opts), "singleton"); f != nil {
		t.Fatalf("disabled detector ran: %+v", f)
	}
}

func TestAllOrderedAndClosed(t *testing.T) {
	ds := All()
	if len(ds) != 13 {
		t.Fatalf("detector set has %d members", len(ds))
	}
	for i := 1; i < len(ds); i++ {
		if ds[i-1].Name >= ds[i].Name {
			t.Fatalf("detectors out of order at %d: %s >= %s", i, ds[i-1].Name, ds[i].Name)
		}
	}
}
