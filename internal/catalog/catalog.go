// Package catalog provides the read-only pattern/architecture metadata
// store consumed by ranking, advice, and scaffold generation.
//
// A default catalog ships embedded in the binary; a user-supplied TOML file
// can replace it. Lookups degrade gracefully: a missing entry means advice
// output simply omits hints and refs, it never fails a request.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed catalog.toml
var embedded []byte

// Category classifies a catalog entry
type Category string

const (
	CategoryPattern      Category = "pattern"
	CategoryArchitecture Category = "architecture"
)

// Contract is the human-auditable transformation contract for an entry
type Contract struct {
	Inputs  string `toml:"inputs" json:"inputs"`
	Outputs string `toml:"outputs" json:"outputs"`
}

// Entry is one pattern or architecture record
type Entry struct {
	Name       string   `toml:"name" json:"name"`
	Category   Category `toml:"category" json:"category"`
	Advice     string   `toml:"advice" json:"advice"`
	PromptHint string   `toml:"prompt_hint" json:"promptHint,omitempty"`
	Refs       []string `toml:"refs" json:"refs,omitempty"`
	Contract   Contract `toml:"contract" json:"contract"`
}

type catalogFile struct {
	Entries []Entry `toml:"entries"`
}

// Catalog is an immutable name-indexed entry set
type Catalog struct {
	entries map[string]Entry
	ordered []Entry
}

// aliases maps common shorthand to canonical entry names
var aliases = map[string]string{
	"di":        "dependency injection",
	"pubsub":    "observer",
	"publisher": "observer",
	"template":  "template method",
	"chain":     "chain of responsibility",
	"wrapper":   "decorator",
	"ports and adapters": "hexagonal",
	"ports-and-adapters": "hexagonal",
	"model view controller": "mvc",
	"layers":                "layered",
}

// Normalize canonicalizes a target name: lowercased, separators unified,
// aliases applied.
func Normalize(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "_", " ")
	n = strings.ReplaceAll(n, "-", " ")
	n = strings.Join(strings.Fields(n), " ")
	if canon, ok := aliases[n]; ok {
		return canon
	}
	return n
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return decode(embedded)
}

// LoadFile reads a catalog from a user-supplied TOML file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return decode(data)
}

// Load returns the catalog at path, or the embedded default when path is
// empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	return LoadFile(path)
}

func decode(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}

	c := &Catalog{entries: make(map[string]Entry, len(f.Entries))}
	for _, e := range f.Entries {
		if e.Name == "" {
			return nil, fmt.Errorf("catalog entry with empty name")
		}
		if e.Category != CategoryPattern && e.Category != CategoryArchitecture {
			return nil, fmt.Errorf("catalog entry %q: bad category %q", e.Name, e.Category)
		}
		if len(e.Refs) > 2 {
			e.Refs = e.Refs[:2]
		}
		key := Normalize(e.Name)
		if _, dup := c.entries[key]; dup {
			return nil, fmt.Errorf("duplicate catalog entry %q", e.Name)
		}
		c.entries[key] = e
		c.ordered = append(c.ordered, e)
	}

	sort.Slice(c.ordered, func(i, j int) bool {
		return c.ordered[i].Name < c.ordered[j].Name
	})
	return c, nil
}

// Lookup returns the entry for name (after normalization), if present.
func (c *Catalog) Lookup(name string) (Entry, bool) {
	e, ok := c.entries[Normalize(name)]
	return e, ok
}

// List returns entries of the given category, or all entries when cat is
// empty, sorted by name.
func (c *Catalog) List(cat Category) []Entry {
	var out []Entry
	for _, e := range c.ordered {
		if cat == "" || e.Category == cat {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.entries) }
