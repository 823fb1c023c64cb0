package transform

import (
	goerrors "errors"
	"fmt"
	"go/ast"
	"sort"
	"strings"

	"archon/internal/catalog"
	"archon/internal/errors"
	"archon/internal/parse"
)

// structuralTransforms maps targets that have an in-place transform. All
// other catalog targets go straight to Scaffold. Every transform here is
// additive: it introduces a seam without touching existing declarations,
// so public names and signatures stay intact.
var structuralTransforms = map[string]func(m *parse.Module) (string, error){
	"strategy":  transformStrategy,
	"singleton": transformSingleton,
	"adapter":   transformAdapter,
}

// errAlreadyApplied reports that every seam the transform would introduce
// already exists, so the module satisfies the target and the request is a
// no-op rather than a scaffold fallback.
var errAlreadyApplied = goerrors.New("seams already present")

// HasStructural reports whether the target has a structural transform.
func HasStructural(target string) bool {
	_, ok := structuralTransforms[catalog.Normalize(target)]
	return ok
}

// transformStrategy needs a sibling family: two or more top-level functions
// sharing one signature shape. It introduces a named function type and a
// dispatch table over the family, the seam through which call sites can be
// re-wired incrementally.
func transformStrategy(m *parse.Module) (string, error) {
	family, sig := largestSiblingFamily(m)
	if len(family) < 2 {
		return "", errors.New(errors.PreconditionUnmet,
			"strategy needs at least two top-level functions with the same signature")
	}

	base := sharedBase(family)
	typeName := exported(base) + "Strategy"
	tableName := lowered(base) + "Strategies"
	names := m.TopLevelNames()
	if names[typeName] && names[tableName] {
		return "", errAlreadyApplied
	}
	if names[typeName] || names[tableName] {
		return "", errors.New(errors.PreconditionUnmet,
			fmt.Sprintf("seam names %s/%s already taken", typeName, tableName))
	}

	var b strings.Builder
	b.WriteString(string(m.Source))
	ensureTrailingNewline(&b, m.Source)
	fmt.Fprintf(&b, "\n// %s is the shared shape of the %s family.\ntype %s func%s\n",
		typeName, strings.Join(family, "/"), typeName, sig)
	fmt.Fprintf(&b, "\n// %s selects one implementation by name.\nvar %s = map[string]%s{\n",
		tableName, tableName, typeName)
	for _, name := range family {
		fmt.Fprintf(&b, "\t%q: %s,\n", name, name)
	}
	b.WriteString("}\n")
	return b.String(), nil
}

// transformSingleton needs exactly one struct with a zero-argument
// constructor. It adds a guarded package-level accessor; the nil-guard
// shape keeps the edit import-free.
func transformSingleton(m *parse.Module) (string, error) {
	type candidate struct {
		typeName, ctor string
		pointer        bool
	}
	names := m.TopLevelNames()
	var candidates []candidate
	for _, d := range m.Defs {
		if d.Kind != parse.KindStruct {
			continue
		}
		// An accessor and guard var from a previous run mean the seam exists.
		if names["default"+exported(d.Name)] && names["Default"+exported(d.Name)] {
			return "", errAlreadyApplied
		}
		for _, fd := range topLevelFuncs(m) {
			if fd.Type.Params != nil && len(fd.Type.Params.List) > 0 {
				continue
			}
			ptr, ok := constructorFor(fd, d.Name)
			if !ok {
				continue
			}
			candidates = append(candidates, candidate{typeName: d.Name, ctor: fd.Name.Name, pointer: ptr})
		}
	}
	if len(candidates) != 1 {
		return "", errors.New(errors.PreconditionUnmet,
			fmt.Sprintf("singleton needs exactly one struct with a zero-argument constructor, found %d", len(candidates)))
	}

	c := candidates[0]
	varName := "default" + exported(c.typeName)
	accessor := "Default" + exported(c.typeName)
	if names[varName] || names[accessor] {
		return "", errors.New(errors.PreconditionUnmet,
			fmt.Sprintf("seam names %s/%s already taken", varName, accessor))
	}

	ret := "*" + c.typeName
	deref := ""
	if !c.pointer {
		// value constructors get a pointer cell so the guard has a nil state
		deref = "v := " + c.ctor + "()\n\t\t" + varName + " = &v"
	}

	var b strings.Builder
	b.WriteString(string(m.Source))
	ensureTrailingNewline(&b, m.Source)
	fmt.Fprintf(&b, "\nvar %s %s\n", varName, ret)
	fmt.Fprintf(&b, "\n// %s returns the shared %s instance, creating it on first use.\nfunc %s() %s {\n\tif %s == nil {\n",
		accessor, c.typeName, accessor, ret, varName)
	if deref != "" {
		b.WriteString("\t\t" + deref + "\n")
	} else {
		fmt.Fprintf(&b, "\t\t%s = %s()\n", varName, c.ctor)
	}
	fmt.Fprintf(&b, "\t}\n\treturn %s\n}\n", varName)
	return b.String(), nil
}

// transformAdapter needs a wrapper struct with at least one method
// delegating to a wrapped field. It extracts the wrapper's delegated
// surface into an interface plus a compile-time conformance check, the
// boundary callers can depend on instead of the concrete wrapper.
func transformAdapter(m *parse.Module) (string, error) {
	typeName, methods := delegatingWrapper(m)
	if typeName == "" || len(methods) == 0 {
		return "", errors.New(errors.PreconditionUnmet,
			"adapter needs a struct method delegating to a wrapped field")
	}

	ifaceName := exported(typeName) + "API"
	if m.TopLevelNames()[ifaceName] {
		return "", errAlreadyApplied
	}

	var b strings.Builder
	b.WriteString(string(m.Source))
	ensureTrailingNewline(&b, m.Source)
	fmt.Fprintf(&b, "\n// %s is the delegated surface of %s.\ntype %s interface {\n", ifaceName, typeName, ifaceName)
	for _, fd := range methods {
		fmt.Fprintf(&b, "\t%s%s\n", fd.Name.Name, funcTypeText(m, fd.Type))
	}
	b.WriteString("}\n")
	fmt.Fprintf(&b, "\nvar _ %s = (*%s)(nil)\n", ifaceName, typeName)
	return b.String(), nil
}

// largestSiblingFamily returns the biggest same-signature group of
// top-level functions with its source-form signature, ties broken by the
// lexically first member for determinism.
func largestSiblingFamily(m *parse.Module) ([]string, string) {
	groups := m.FuncsBySignature()
	var bestKey string
	for key, defs := range groups {
		if len(defs) < 2 {
			continue
		}
		if bestKey == "" || len(defs) > len(groups[bestKey]) ||
			(len(defs) == len(groups[bestKey]) && key < bestKey) {
			bestKey = key
		}
	}
	if bestKey == "" {
		return nil, ""
	}

	var names []string
	for _, d := range groups[bestKey] {
		names = append(names, d.Name)
	}
	sort.Strings(names)

	for _, fd := range topLevelFuncs(m) {
		if fd.Name.Name == names[0] {
			return names, funcTypeText(m, fd.Type)
		}
	}
	return nil, ""
}

// delegatingWrapper finds the first struct (declaration order) with a
// method whose single-statement body forwards to one of its fields, and
// returns the delegating methods.
func delegatingWrapper(m *parse.Module) (string, []*ast.FuncDecl) {
	for _, d := range m.Defs {
		if d.Kind != parse.KindStruct {
			continue
		}
		fields := m.Fields[d.Name]
		if len(fields) == 0 {
			continue
		}
		var delegating []*ast.FuncDecl
		for _, fd := range methodsOf(m, d.Name) {
			for _, f := range fields {
				if delegatesTo(fd, f.Name) {
					delegating = append(delegating, fd)
					break
				}
			}
		}
		if len(delegating) > 0 {
			return d.Name, delegating
		}
	}
	return "", nil
}

func constructorFor(fd *ast.FuncDecl, typeName string) (pointer, ok bool) {
	if fd.Recv != nil || fd.Type.Results == nil || len(fd.Type.Results.List) != 1 {
		return false, false
	}
	switch t := fd.Type.Results.List[0].Type.(type) {
	case *ast.StarExpr:
		id, isIdent := t.X.(*ast.Ident)
		return true, isIdent && id.Name == typeName
	case *ast.Ident:
		return false, t.Name == typeName
	}
	return false, false
}

// delegatesTo reports whether the method body is a single statement calling
// through recv.<field>.
func delegatesTo(fd *ast.FuncDecl, field string) bool {
	if fd.Body == nil || len(fd.Body.List) != 1 || fd.Recv == nil || len(fd.Recv.List) == 0 {
		return false
	}
	if len(fd.Recv.List[0].Names) == 0 {
		return false
	}
	recv := fd.Recv.List[0].Names[0].Name

	found := false
	ast.Inspect(fd.Body, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		inner, ok := sel.X.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		base, ok := inner.X.(*ast.Ident)
		if ok && base.Name == recv && inner.Sel.Name == field {
			found = true
		}
		return !found
	})
	return found
}

func topLevelFuncs(m *parse.Module) []*ast.FuncDecl {
	var out []*ast.FuncDecl
	for _, decl := range m.File().Decls {
		if fd, ok := decl.(*ast.FuncDecl); ok && fd.Recv == nil {
			out = append(out, fd)
		}
	}
	return out
}

func methodsOf(m *parse.Module, typeName string) []*ast.FuncDecl {
	var out []*ast.FuncDecl
	for _, decl := range m.File().Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Recv == nil || len(fd.Recv.List) == 0 {
			continue
		}
		recvType := fd.Recv.List[0].Type
		if star, isStar := recvType.(*ast.StarExpr); isStar {
			recvType = star.X
		}
		if id, isIdent := recvType.(*ast.Ident); isIdent && id.Name == typeName {
			out = append(out, fd)
		}
	}
	return out
}

// funcTypeText renders a function type exactly as written in the original
// source, so generated seams always reproduce compilable signatures.
func funcTypeText(m *parse.Module, ft *ast.FuncType) string {
	fset := m.FileSet()
	start := fset.Position(ft.Params.Pos()).Offset
	end := fset.Position(ft.End()).Offset
	return string(m.Source[start:end])
}

// sharedBase derives a seam name root from the family members: the longest
// common camel-case prefix, falling back to the first member.
func sharedBase(family []string) string {
	base := family[0]
	for _, name := range family[1:] {
		for !strings.HasPrefix(name, base) && base != "" {
			base = base[:len(base)-1]
		}
	}
	base = strings.TrimRight(base, "_")
	if len(base) < 3 {
		base = family[0]
	}
	return base
}

func exported(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func lowered(name string) string {
	if name == "" {
		return name
	}
	return strings.ToLower(name[:1]) + name[1:]
}

func ensureTrailingNewline(b *strings.Builder, source []byte) {
	if len(source) > 0 && source[len(source)-1] != '\n' {
		b.WriteByte('\n')
	}
}
