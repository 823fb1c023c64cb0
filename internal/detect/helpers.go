package detect

import (
	"go/ast"
	"strings"

	"archon/internal/parse"
)

// methodDecls returns the FuncDecls for methods of the named receiver type.
func methodDecls(m *parse.Module, recv string) []*ast.FuncDecl {
	var out []*ast.FuncDecl
	for _, decl := range m.File().Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Recv == nil || len(fd.Recv.List) == 0 {
			continue
		}
		if receiverTypeName(fd.Recv.List[0].Type) == recv {
			out = append(out, fd)
		}
	}
	return out
}

// funcDecls returns all top-level (non-method) FuncDecls.
func funcDecls(m *parse.Module) []*ast.FuncDecl {
	var out []*ast.FuncDecl
	for _, decl := range m.File().Decls {
		if fd, ok := decl.(*ast.FuncDecl); ok && fd.Recv == nil {
			out = append(out, fd)
		}
	}
	return out
}

func receiverTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverTypeName(t.X)
	case *ast.Ident:
		return t.Name
	case *ast.IndexExpr:
		return receiverTypeName(t.X)
	case *ast.IndexListExpr:
		return receiverTypeName(t.X)
	}
	return ""
}

// receiverIdent returns the receiver variable name of a method, or "".
func receiverIdent(fd *ast.FuncDecl) string {
	if fd.Recv == nil || len(fd.Recv.List) == 0 || len(fd.Recv.List[0].Names) == 0 {
		return ""
	}
	return fd.Recv.List[0].Names[0].Name
}

// selectorCalls collects "x.Sel" call targets appearing in a function body.
func selectorCalls(fd *ast.FuncDecl) []selCall {
	var out []selCall
	if fd.Body == nil {
		return out
	}
	ast.Inspect(fd.Body, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		if sel, ok := call.Fun.(*ast.SelectorExpr); ok {
			out = append(out, selCall{base: baseOf(sel), method: sel.Sel.Name, depth: selDepth(sel)})
		}
		return true
	})
	return out
}

type selCall struct {
	base   string // leftmost identifier of the selector chain
	method string // called method name
	depth  int    // number of selector hops
}

func baseOf(sel *ast.SelectorExpr) string {
	switch x := sel.X.(type) {
	case *ast.Ident:
		return x.Name
	case *ast.SelectorExpr:
		return baseOf(x)
	case *ast.CallExpr:
		if inner, ok := x.Fun.(*ast.SelectorExpr); ok {
			return baseOf(inner)
		}
	}
	return ""
}

func selDepth(sel *ast.SelectorExpr) int {
	if inner, ok := sel.X.(*ast.SelectorExpr); ok {
		return selDepth(inner) + 1
	}
	return 1
}

// fieldAccessedOn reports calls routed through recv.<field>.<method> inside
// fd, returning the method names called on the field.
func fieldAccessedOn(fd *ast.FuncDecl, field string) []string {
	recv := receiverIdent(fd)
	if recv == "" || fd.Body == nil {
		return nil
	}
	var methods []string
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
		if !ok {
			return true
		}
		if base.Name == recv && inner.Sel.Name == field {
			methods = append(methods, sel.Sel.Name)
		}
		return true
	})
	return methods
}

// callsFieldAsFunc reports whether fd invokes recv.<field>(...) directly.
func callsFieldAsFunc(fd *ast.FuncDecl, field string) bool {
	recv := receiverIdent(fd)
	if recv == "" || fd.Body == nil {
		return false
	}
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
		if base, ok := sel.X.(*ast.Ident); ok && base.Name == recv && sel.Sel.Name == field {
			found = true
			return false
		}
		return true
	})
	return found
}

// isThinDelegate reports whether a method body is a single statement that
// forwards to recv.<field>.<something>(...).
func isThinDelegate(fd *ast.FuncDecl, field string) bool {
	if fd.Body == nil || len(fd.Body.List) != 1 {
		return false
	}
	return len(fieldAccessedOn(fd, field)) > 0
}

// mentionsSyncOnce reports whether the function body uses a sync.Once Do
// call or a nil-check guard, the two idiomatic lazy-instance gates.
func mentionsSyncOnce(fd *ast.FuncDecl) (once, nilGuard bool) {
	if fd.Body == nil {
		return false, false
	}
	ast.Inspect(fd.Body, func(n ast.Node) bool {
		switch v := n.(type) {
		case *ast.CallExpr:
			if sel, ok := v.Fun.(*ast.SelectorExpr); ok && sel.Sel.Name == "Do" {
				once = true
			}
		case *ast.BinaryExpr:
			if isNilComparison(v) {
				nilGuard = true
			}
		}
		return true
	})
	return once, nilGuard
}

func isNilComparison(be *ast.BinaryExpr) bool {
	isNil := func(e ast.Expr) bool {
		id, ok := e.(*ast.Ident)
		return ok && id.Name == "nil"
	}
	return isNil(be.X) || isNil(be.Y)
}

// returnsType reports whether the function's first result names typeName
// (directly or via pointer).
func returnsType(fd *ast.FuncDecl, typeName string) bool {
	if fd.Type.Results == nil || len(fd.Type.Results.List) == 0 {
		return false
	}
	return typeNameOf(fd.Type.Results.List[0].Type) == typeName
}

func typeNameOf(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return typeNameOf(t.X)
	case *ast.Ident:
		return t.Name
	case *ast.SelectorExpr:
		return t.Sel.Name
	case *ast.ArrayType:
		return typeNameOf(t.Elt)
	}
	return ""
}

// hasAnySuffix reports whether name ends with one of the suffixes,
// case-sensitively on the suffix but tolerant of the leading case.
func hasAnySuffix(name string, suffixes ...string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

func spanOf(m *parse.Module, name string) []parse.Span {
	for _, d := range m.Defs {
		if d.Name == name && d.Kind != parse.KindMethod {
			return []parse.Span{d.Span}
		}
	}
	return nil
}

// structNames returns struct type names in declaration order, so detectors
// iterating types stay deterministic.
func structNames(m *parse.Module) []string {
	var names []string
	for _, d := range m.Defs {
		if d.Kind == parse.KindStruct {
			names = append(names, d.Name)
		}
	}
	return names
}

// interfaceNames returns interface type names in declaration order.
func interfaceNames(m *parse.Module) []string {
	var names []string
	for _, d := range m.Defs {
		if d.Kind == parse.KindInterface {
			names = append(names, d.Name)
		}
	}
	return names
}

// appendsToField reports whether fd assigns an append(...) result into the
// receiver field, the usual subscriber registration shape.
func appendsToField(fd *ast.FuncDecl, field string) bool {
	recv := receiverIdent(fd)
	if fd.Body == nil || recv == "" {
		return false
	}
	found := false
	ast.Inspect(fd.Body, func(n ast.Node) bool {
		as, ok := n.(*ast.AssignStmt)
		if !ok {
			return true
		}
		for i, lhs := range as.Lhs {
			sel, ok := lhs.(*ast.SelectorExpr)
			if !ok || sel.Sel.Name != field || baseOf(sel) != recv {
				continue
			}
			if i < len(as.Rhs) {
				if call, ok := as.Rhs[i].(*ast.CallExpr); ok {
					if id, ok := call.Fun.(*ast.Ident); ok && id.Name == "append" {
						found = true
					}
				}
			}
		}
		return !found
	})
	return found
}

// rangesOverField reports whether fd iterates the receiver field, the
// usual broadcast shape.
func rangesOverField(fd *ast.FuncDecl, field string) bool {
	recv := receiverIdent(fd)
	if fd.Body == nil || recv == "" {
		return false
	}
	found := false
	ast.Inspect(fd.Body, func(n ast.Node) bool {
		rs, ok := n.(*ast.RangeStmt)
		if !ok {
			return true
		}
		if sel, ok := rs.X.(*ast.SelectorExpr); ok {
			if sel.Sel.Name == field && baseOf(sel) == recv {
				found = true
			}
		}
		return !found
	})
	return found
}
