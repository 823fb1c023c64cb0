package transform

import (
	"fmt"
	"sort"
	"strings"

	"archon/internal/catalog"
	"archon/internal/config"
	"archon/internal/parse"
)

// ComplexityHint buckets a module by size for the scaffold header. The
// bands steer how aggressive a follow-up integration should be.
type ComplexityHint string

const (
	HintLow    ComplexityHint = "low"
	HintMedium ComplexityHint = "medium"
	HintHigh   ComplexityHint = "high"
)

// complexityHint classifies by LOC and top-level definition count.
func complexityHint(loc, defs int, th config.ThresholdsConfig) ComplexityHint {
	if loc >= th.HighLOC || defs >= th.HighDefs {
		return HintHigh
	}
	if loc < th.LowLOC && defs < th.LowDefs {
		return HintLow
	}
	return HintMedium
}

// scaffoldHeader renders the guarded guidance block prepended to every
// scaffold stub: integration steps, the behavioral contract, the validator
// list, a complexity hint, and catalog cross-references.
func scaffoldHeader(entry catalog.Entry, m *parse.Module, th config.ThresholdsConfig) string {
	title := titleCase(entry.Name)
	loc := m.LOC
	defs := m.TopLevelDefCount()

	inputs := entry.Contract.Inputs
	if inputs == "" {
		inputs = "Public inputs unchanged"
	}
	outputs := entry.Contract.Outputs
	if outputs == "" {
		outputs = "Behavior unchanged"
	}
	prompt := entry.PromptHint
	if prompt == "" {
		prompt = "Keep the public API stable, wire through a small seam, keep the diff minimal"
	}

	lines := []string{
		fmt.Sprintf("Scaffold: %s (%s)", title, entry.Category),
		"1) Map the roles below onto your existing declarations",
		"2) Keep every exported name and signature as it is",
		"3) Move behavior into the stub one seam at a time",
		"4) Re-run detection after each step; small diffs only",
		fmt.Sprintf("Contract: inputs=%s; outputs=%s", inputs, outputs),
		"Validation: goast/goscanner/gofmt/gotypes/treesitter",
		fmt.Sprintf("Complexity: %s (LOC=%d; defs=%d)", complexityHint(loc, defs, th), loc, defs),
		fmt.Sprintf("Prompt: %s", prompt),
	}
	if len(entry.Refs) > 0 {
		refs := entry.Refs
		if len(refs) > 2 {
			refs = refs[:2]
		}
		lines = append(lines, "See: "+strings.Join(refs, ", "))
	}

	var b strings.Builder
	for _, l := range lines {
		b.WriteString("// ")
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String()
}

// stubFor returns the minimal compilable stub for a catalog target. Every
// cataloged name has one; identifiers are prefixed with the target name so
// collisions with existing code stay unlikely.
func stubFor(name string) (string, bool) {
	stub, ok := stubs[catalog.Normalize(name)]
	return stub, ok
}

var stubs = map[string]string{
	"singleton": `type SingletonService struct{}

var singletonInstance *SingletonService

// SingletonDefault returns the shared instance, creating it on first use.
func SingletonDefault() *SingletonService {
	if singletonInstance == nil {
		singletonInstance = &SingletonService{}
	}
	return singletonInstance
}
`,
	"strategy": `// StrategyFunc is one interchangeable behavior.
type StrategyFunc func(input interface{}) (interface{}, error)

// StrategyContext holds the selected behavior and runs it.
type StrategyContext struct {
	Selected StrategyFunc
}

func (c *StrategyContext) Execute(input interface{}) (interface{}, error) {
	return c.Selected(input)
}
`,
	"adapter": `// AdapterTarget is the interface your callers should depend on.
type AdapterTarget interface {
	Request() (interface{}, error)
}

// AdapterWrapper adapts an existing value to AdapterTarget.
type AdapterWrapper struct {
	Wrapped interface{ Request() (interface{}, error) }
}

func (a *AdapterWrapper) Request() (interface{}, error) {
	return a.Wrapped.Request()
}
`,
	"facade": `// FacadeFront is the single entry point over the module's collaborators.
type FacadeFront struct{}

// Run orchestrates the underlying steps behind one call.
func (f *FacadeFront) Run() error {
	return nil
}
`,
	"factory": `// FactoryProduct is the interface concrete products satisfy.
type FactoryProduct interface {
	Kind() string
}

type factoryUnknownKind string

func (e factoryUnknownKind) Error() string {
	return "factory: unknown kind " + string(e)
}

// FactoryNew returns a product for the discriminator.
func FactoryNew(kind string) (FactoryProduct, error) {
	return nil, factoryUnknownKind(kind)
}
`,
	"builder": `// BuilderSpec accumulates configuration before assembly.
type BuilderSpec struct {
	fields map[string]interface{}
}

func NewBuilderSpec() *BuilderSpec {
	return &BuilderSpec{fields: map[string]interface{}{}}
}

func (b *BuilderSpec) Set(key string, value interface{}) *BuilderSpec {
	b.fields[key] = value
	return b
}

// Build assembles the final value.
func (b *BuilderSpec) Build() map[string]interface{} {
	return b.fields
}
`,
	"observer": `// ObserverListener receives published events.
type ObserverListener interface {
	Notify(event string)
}

// ObserverSubject registers listeners and broadcasts to them.
type ObserverSubject struct {
	listeners []ObserverListener
}

func (s *ObserverSubject) Subscribe(l ObserverListener) {
	s.listeners = append(s.listeners, l)
}

func (s *ObserverSubject) Publish(event string) {
	for _, l := range s.listeners {
		l.Notify(event)
	}
}
`,
	"decorator": `// DecoratorComponent is the interface the decorator preserves.
type DecoratorComponent interface {
	Do() error
}

// DecoratorWrap forwards to the wrapped component; add behavior around it.
type DecoratorWrap struct {
	Inner DecoratorComponent
}

func (d *DecoratorWrap) Do() error {
	return d.Inner.Do()
}
`,
	"template method": `// TemplateSteps defines the overridable steps of the algorithm.
type TemplateSteps interface {
	Prepare() error
	Execute() error
}

// TemplateRun fixes the step order; vary the steps, not the skeleton.
func TemplateRun(s TemplateSteps) error {
	if err := s.Prepare(); err != nil {
		return err
	}
	return s.Execute()
}
`,
	"dependency injection": `// InjectedDeps gathers the collaborators the consumer needs.
type InjectedDeps struct {
	Deps map[string]interface{}
}

// NewInjectedConsumer receives its dependencies instead of constructing them.
func NewInjectedConsumer(deps InjectedDeps) *InjectedConsumer {
	return &InjectedConsumer{deps: deps}
}

type InjectedConsumer struct {
	deps InjectedDeps
}
`,
	"layered": `// LayeredHandler is the presentation layer; it talks only to the service.
type LayeredHandler struct {
	Service *LayeredService
}

// LayeredService is the domain layer; it talks only to the store.
type LayeredService struct {
	Store LayeredStore
}

// LayeredStore is the data layer boundary.
type LayeredStore interface {
	Load(key string) (interface{}, error)
}
`,
	"hexagonal": `// HexStoragePort is a driven port; adapters implement it outside the core.
type HexStoragePort interface {
	Save(key string, value interface{}) error
}

// HexCore holds only ports, never concrete adapters.
type HexCore struct {
	Storage HexStoragePort
}

func NewHexCore(storage HexStoragePort) *HexCore {
	return &HexCore{Storage: storage}
}
`,
	"mvc": `// MVCModel owns the state.
type MVCModel struct {
	State map[string]interface{}
}

// MVCView renders the model; no mutation here.
type MVCView struct{}

// MVCController mediates between model and view.
type MVCController struct {
	Model *MVCModel
	View  *MVCView
}
`,
	"repository": `// RepositoryEntity is the stored aggregate.
type RepositoryEntity struct {
	ID string
}

// EntityRepository is the persistence boundary callers depend on.
type EntityRepository interface {
	Get(id string) (*RepositoryEntity, error)
	Save(e *RepositoryEntity) error
	Delete(id string) error
}
`,
}

func titleCase(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// stubNames extracts a stub's top-level names for the duplicate guard.
func stubNames(stub string) ([]string, error) {
	m, err := parse.Build("stub.go", []byte("package stub\n\n"+stub))
	if err != nil {
		return nil, err
	}
	var names []string
	for name := range m.TopLevelNames() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
