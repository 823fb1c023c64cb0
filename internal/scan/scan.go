// Package scan expands file, directory, and glob arguments into a stable
// module list and runs per-file pipelines with bounded parallelism.
//
// Per-file analysis is pure, so files run concurrently without shared
// state; callers index results by position and the expanded list is sorted,
// which keeps output ordering independent of the degree of parallelism.
package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"archon/internal/errors"
)

// Expansion is the resolved module list.
type Expansion struct {
	Files []string

	// Truncated is set when the match count exceeded the file cap
	Truncated bool
}

// Expand resolves each argument: an existing file is taken as is, an
// existing directory matches its .go files recursively, anything else is
// treated as a doublestar glob. The result is deduplicated, filtered by
// ignore patterns, sorted, and capped at maxFiles.
func Expand(paths, ignore []string, maxFiles int) (Expansion, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		clean := filepath.Clean(path)
		if seen[clean] || !strings.HasSuffix(clean, ".go") || ignored(clean, ignore) {
			return
		}
		seen[clean] = true
		files = append(files, clean)
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		switch {
		case err == nil && info.IsDir():
			matches, gerr := doublestar.Glob(os.DirFS(p), "**/*.go")
			if gerr != nil {
				return Expansion{}, errors.Wrap(errors.PathNotFound, fmt.Sprintf("walk %s", p), gerr)
			}
			for _, m := range matches {
				add(filepath.Join(p, m))
			}
		case err == nil:
			add(p)
		case isPattern(p):
			matches, gerr := doublestar.FilepathGlob(p)
			if gerr != nil {
				return Expansion{}, errors.Wrap(errors.PathNotFound, fmt.Sprintf("glob %s", p), gerr)
			}
			for _, m := range matches {
				add(m)
			}
		default:
			return Expansion{}, errors.Wrap(errors.PathNotFound, p, err)
		}
	}

	sort.Strings(files)
	exp := Expansion{Files: files}
	if maxFiles > 0 && len(files) > maxFiles {
		exp.Files = files[:maxFiles]
		exp.Truncated = true
	}
	return exp, nil
}

func isPattern(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}

// ignored matches path against the exclusion list. Patterns without a
// slash are directory names and match any path segment; the rest are
// doublestar globs over the slashed path.
func ignored(path string, patterns []string) bool {
	slashed := filepath.ToSlash(path)
	for _, pat := range patterns {
		if !strings.Contains(pat, "/") && !isPattern(pat) {
			for _, seg := range strings.Split(slashed, "/") {
				if seg == pat {
					return true
				}
			}
			continue
		}
		if ok, err := doublestar.Match(pat, slashed); err == nil && ok {
			return true
		}
	}
	return false
}

// ForEach runs fn once per file with at most maxParallel in flight. Per-file
// analysis errors belong inside fn's own result; a returned error is
// treated as fatal and cancels the remaining work.
func ForEach(ctx context.Context, files []string, maxParallel int, fn func(ctx context.Context, index int, path string) error) error {
	if maxParallel <= 0 {
		maxParallel = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(ctx, i, f)
		})
	}
	return g.Wait()
}
