package validate

import (
	"context"
	"fmt"
	"go/ast"
	"go/format"
	"go/importer"
	"go/parser"
	"go/scanner"
	"go/token"
	"go/types"
	"strings"
)

// goastBackend is the full AST parse. It is the gauntlet's anchor: if this
// fails nothing downstream is trustworthy.
type goastBackend struct{}

func (goastBackend) Name() string   { return "goast" }
func (goastBackend) Optional() bool { return false }

func (goastBackend) Check(_ context.Context, req Request) error {
	_, err := parser.ParseFile(token.NewFileSet(), req.Path, req.Candidate, parser.ParseComments)
	if err != nil {
		return fmt.Errorf("ast parse: %w", err)
	}
	return nil
}

// goscannerBackend streams the token stream with a strict error handler,
// catching lexical damage the AST parser may recover past.
type goscannerBackend struct{}

func (goscannerBackend) Name() string   { return "goscanner" }
func (goscannerBackend) Optional() bool { return false }

func (goscannerBackend) Check(_ context.Context, req Request) error {
	fset := token.NewFileSet()
	file := fset.AddFile(req.Path, fset.Base(), len(req.Candidate))

	var firstErr error
	var s scanner.Scanner
	s.Init(file, req.Candidate, func(pos token.Position, msg string) {
		if firstErr == nil {
			firstErr = fmt.Errorf("scan: %s at %s", msg, pos)
		}
	}, scanner.ScanComments)

	for {
		_, tok, _ := s.Scan()
		if tok == token.EOF {
			break
		}
	}
	return firstErr
}

// gofmtBackend is the parse-and-reprint round trip, a second independent
// AST-producing path through the printer.
type gofmtBackend struct{}

func (gofmtBackend) Name() string   { return "gofmt" }
func (gofmtBackend) Optional() bool { return false }

func (gofmtBackend) Check(_ context.Context, req Request) error {
	if _, err := format.Source(req.Candidate); err != nil {
		return fmt.Errorf("format round trip: %w", err)
	}
	return nil
}

// gotypesBackend type-checks the candidate in isolation. Errors caused only
// by unresolvable imports are filtered out; a single module file cannot see
// its dependencies, and missing ones are not the candidate's fault.
type gotypesBackend struct{}

func (gotypesBackend) Name() string   { return "gotypes" }
func (gotypesBackend) Optional() bool { return false }

func (gotypesBackend) Check(_ context.Context, req Request) error {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, req.Path, req.Candidate, 0)
	if err != nil {
		return fmt.Errorf("type check parse: %w", err)
	}

	importNames := importBaseNames(file)
	var typeErrs []types.Error
	conf := types.Config{
		Importer: importer.Default(),
		Error: func(err error) {
			if te, ok := err.(types.Error); ok {
				typeErrs = append(typeErrs, te)
			}
		},
	}
	conf.Check(file.Name.Name, fset, []*ast.File{file}, nil)

	for _, te := range typeErrs {
		if importAttributed(te.Msg, importNames) {
			continue
		}
		return fmt.Errorf("type check: %s", te.Msg)
	}
	return nil
}

// importBaseNames collects the identifiers the file's imports bind.
func importBaseNames(file *ast.File) []string {
	var names []string
	for _, imp := range file.Imports {
		if imp.Name != nil {
			names = append(names, imp.Name.Name)
			continue
		}
		path := strings.Trim(imp.Path.Value, `"`)
		if i := strings.LastIndex(path, "/"); i >= 0 {
			path = path[i+1:]
		}
		names = append(names, path)
	}
	return names
}

// importAttributed reports whether a type error stems from an import the
// isolated check could not resolve rather than from the candidate itself.
func importAttributed(msg string, importNames []string) bool {
	if strings.Contains(msg, "could not import") {
		return true
	}
	for _, name := range importNames {
		if strings.Contains(msg, name+".") || strings.Contains(msg, "package "+name) ||
			strings.Contains(msg, `"`+name+`"`) || strings.Contains(msg, "undefined: "+name) {
			return true
		}
	}
	return false
}
