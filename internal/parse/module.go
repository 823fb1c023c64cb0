// Package parse builds the normalized per-file representation every
// detector consumes.
//
// A Module is immutable once built and owned by the request that built it:
// detectors may read it concurrently but never mutate it.
package parse

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"strings"

	"archon/internal/errors"
)

// DefKind classifies a top-level definition
type DefKind string

const (
	KindFunc      DefKind = "func"
	KindMethod    DefKind = "method"
	KindStruct    DefKind = "struct"
	KindInterface DefKind = "interface"
	KindVar       DefKind = "var"
	KindConst     DefKind = "const"
	KindTypeAlias DefKind = "type"
)

// Span is a half-open source line range
type Span struct {
	StartLine int `json:"startLine"`
	EndLine   int `json:"endLine"`
}

// Def describes one top-level definition
type Def struct {
	Name     string  `json:"name"`
	Kind     DefKind `json:"kind"`
	Receiver string  `json:"receiver,omitempty"`
	Params   int     `json:"params"`
	Results  int     `json:"results"`
	Exported bool    `json:"exported"`
	Span     Span    `json:"span"`

	// Signature is a normalized parameter/result shape, e.g.
	// "(int,string)(error)". Receiver is excluded so sibling functions
	// and methods with the same shape compare equal.
	Signature string `json:"signature,omitempty"`
}

// Field describes a named struct field
type Field struct {
	Name     string
	TypeName string
	FuncType bool
	Embedded bool
}

// Module is the parsed-module representation: a normalized syntax tree plus
// derived facts used by every detector.
type Module struct {
	Path   string
	Source []byte

	Package string
	Imports []string

	Defs []Def

	// Fields maps struct type name to its declared fields
	Fields map[string][]Field

	// Embeds maps a type name to the types it embeds
	Embeds map[string][]string

	// MethodSets maps receiver type name to its methods
	MethodSets map[string][]Def

	// InterfaceMethods maps interface name to its method names
	InterfaceMethods map[string][]string

	// LiteralCounts counts occurrences of each basic literal (strings and
	// numbers) appearing more than once is the repeated-literal signal
	LiteralCounts map[string]int

	// LOC is the number of source lines
	LOC int

	fset *token.FileSet
	file *ast.File
}

// Load reads and parses a module file from disk.
func Load(path string) (*Module, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PathNotFound, path, err)
	}
	return Build(path, source)
}

// Build parses source and derives the flat fact tables. A syntax error
// yields a ParseError; the caller decides whether that aborts the request
// (single file) or only empties this file's results (batch).
func Build(path string, source []byte) (*Module, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, source, parser.ParseComments)
	if err != nil {
		return nil, errors.Wrap(errors.ParseError, "cannot parse "+path, err)
	}

	m := &Module{
		Path:             path,
		Source:           source,
		Package:          file.Name.Name,
		Fields:           make(map[string][]Field),
		Embeds:           make(map[string][]string),
		MethodSets:       make(map[string][]Def),
		InterfaceMethods: make(map[string][]string),
		LiteralCounts:    make(map[string]int),
		LOC:              countLines(source),
		fset:             fset,
		file:             file,
	}

	for _, imp := range file.Imports {
		m.Imports = append(m.Imports, strings.Trim(imp.Path.Value, `"`))
	}

	for _, decl := range file.Decls {
		m.addDecl(decl)
	}

	m.countLiterals()
	return m, nil
}

// File exposes the underlying AST for components that need node-level
// access (the transformation engine). Treat it as read-only.
func (m *Module) File() *ast.File { return m.file }

// FileSet returns the position table matching File().
func (m *Module) FileSet() *token.FileSet { return m.fset }

func (m *Module) addDecl(decl ast.Decl) {
	switch d := decl.(type) {
	case *ast.FuncDecl:
		def := Def{
			Name:      d.Name.Name,
			Kind:      KindFunc,
			Params:    fieldCount(d.Type.Params),
			Results:   fieldCount(d.Type.Results),
			Exported:  d.Name.IsExported(),
			Span:      m.span(d.Pos(), d.End()),
			Signature: signatureOf(d.Type),
		}
		if d.Recv != nil && len(d.Recv.List) > 0 {
			def.Kind = KindMethod
			def.Receiver = receiverName(d.Recv.List[0].Type)
			m.MethodSets[def.Receiver] = append(m.MethodSets[def.Receiver], def)
		}
		m.Defs = append(m.Defs, def)

	case *ast.GenDecl:
		for _, spec := range d.Specs {
			switch s := spec.(type) {
			case *ast.TypeSpec:
				m.addType(s)
			case *ast.ValueSpec:
				kind := KindVar
				if d.Tok == token.CONST {
					kind = KindConst
				}
				for _, name := range s.Names {
					if name.Name == "_" {
						continue
					}
					m.Defs = append(m.Defs, Def{
						Name:     name.Name,
						Kind:     kind,
						Exported: name.IsExported(),
						Span:     m.span(s.Pos(), s.End()),
					})
				}
			}
		}
	}
}

func (m *Module) addType(s *ast.TypeSpec) {
	def := Def{
		Name:     s.Name.Name,
		Kind:     KindTypeAlias,
		Exported: s.Name.IsExported(),
		Span:     m.span(s.Pos(), s.End()),
	}

	switch t := s.Type.(type) {
	case *ast.StructType:
		def.Kind = KindStruct
		for _, f := range t.Fields.List {
			typeName := typeText(f.Type)
			_, isFunc := f.Type.(*ast.FuncType)
			if len(f.Names) == 0 {
				m.Embeds[s.Name.Name] = append(m.Embeds[s.Name.Name], typeName)
				m.Fields[s.Name.Name] = append(m.Fields[s.Name.Name], Field{
					Name: typeName, TypeName: typeName, Embedded: true, FuncType: isFunc,
				})
				continue
			}
			for _, n := range f.Names {
				m.Fields[s.Name.Name] = append(m.Fields[s.Name.Name], Field{
					Name: n.Name, TypeName: typeName, FuncType: isFunc,
				})
			}
		}
	case *ast.InterfaceType:
		def.Kind = KindInterface
		for _, f := range t.Methods.List {
			for _, n := range f.Names {
				m.InterfaceMethods[s.Name.Name] = append(m.InterfaceMethods[s.Name.Name], n.Name)
			}
			if len(f.Names) == 0 {
				m.Embeds[s.Name.Name] = append(m.Embeds[s.Name.Name], typeText(f.Type))
			}
		}
	}

	m.Defs = append(m.Defs, def)
}

func (m *Module) countLiterals() {
	ast.Inspect(m.file, func(n ast.Node) bool {
		if lit, ok := n.(*ast.BasicLit); ok {
			switch lit.Kind {
			case token.STRING, token.INT, token.FLOAT:
				// Skip trivia that repeats naturally.
				v := lit.Value
				if v == `""` || v == "0" || v == "1" || v == "-1" {
					return true
				}
				m.LiteralCounts[v]++
			}
		}
		return true
	})
}

func (m *Module) span(start, end token.Pos) Span {
	return Span{
		StartLine: m.fset.Position(start).Line,
		EndLine:   m.fset.Position(end).Line,
	}
}

// TopLevelNames returns the set of every top-level definition name.
func (m *Module) TopLevelNames() map[string]bool {
	names := make(map[string]bool, len(m.Defs))
	for _, d := range m.Defs {
		if d.Kind != KindMethod {
			names[d.Name] = true
		}
	}
	return names
}

// TopLevelDefCount counts top-level functions and types, the "defs" side of
// the complexity hint bands.
func (m *Module) TopLevelDefCount() int {
	n := 0
	for _, d := range m.Defs {
		switch d.Kind {
		case KindFunc, KindStruct, KindInterface, KindTypeAlias:
			n++
		}
	}
	return n
}

// FuncsBySignature groups top-level functions by normalized signature.
// Groups of two or more are "sibling families" for Strategy detection.
func (m *Module) FuncsBySignature() map[string][]Def {
	groups := make(map[string][]Def)
	for _, d := range m.Defs {
		if d.Kind == KindFunc {
			groups[d.Signature] = append(groups[d.Signature], d)
		}
	}
	return groups
}

// RepeatedLiteralCount counts distinct literals occurring at least min times.
func (m *Module) RepeatedLiteralCount(min int) int {
	n := 0
	for _, c := range m.LiteralCounts {
		if c >= min {
			n++
		}
	}
	return n
}

// LongParamFuncCount counts functions and methods with at least min params.
func (m *Module) LongParamFuncCount(min int) int {
	n := 0
	for _, d := range m.Defs {
		if (d.Kind == KindFunc || d.Kind == KindMethod) && d.Params >= min {
			n++
		}
	}
	return n
}

func fieldCount(fl *ast.FieldList) int {
	if fl == nil {
		return 0
	}
	n := 0
	for _, f := range fl.List {
		if len(f.Names) == 0 {
			n++
			continue
		}
		n += len(f.Names)
	}
	return n
}

func receiverName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverName(t.X)
	case *ast.Ident:
		return t.Name
	case *ast.IndexExpr:
		return receiverName(t.X)
	case *ast.IndexListExpr:
		return receiverName(t.X)
	}
	return ""
}

func signatureOf(ft *ast.FuncType) string {
	var b strings.Builder
	b.WriteByte('(')
	writeFieldTypes(&b, ft.Params)
	b.WriteString(")(")
	writeFieldTypes(&b, ft.Results)
	b.WriteByte(')')
	return b.String()
}

func writeFieldTypes(b *strings.Builder, fl *ast.FieldList) {
	if fl == nil {
		return
	}
	first := true
	for _, f := range fl.List {
		n := len(f.Names)
		if n == 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			if !first {
				b.WriteByte(',')
			}
			b.WriteString(typeText(f.Type))
			first = false
		}
	}
}

// typeText renders a type expression compactly for comparison purposes.
func typeText(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return "*" + typeText(t.X)
	case *ast.SelectorExpr:
		return typeText(t.X) + "." + t.Sel.Name
	case *ast.ArrayType:
		return "[]" + typeText(t.Elt)
	case *ast.MapType:
		return "map[" + typeText(t.Key) + "]" + typeText(t.Value)
	case *ast.FuncType:
		return "func" + signatureOf(t)
	case *ast.ChanType:
		return "chan " + typeText(t.Value)
	case *ast.Ellipsis:
		return "..." + typeText(t.Elt)
	case *ast.InterfaceType:
		return "interface{}"
	case *ast.StructType:
		return "struct{}"
	}
	return "?"
}

func countLines(source []byte) int {
	if len(source) == 0 {
		return 0
	}
	n := 1
	for _, b := range source {
		if b == '\n' {
			n++
		}
	}
	if source[len(source)-1] == '\n' {
		n--
	}
	return n
}
