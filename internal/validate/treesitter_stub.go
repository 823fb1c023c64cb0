//go:build !cgo

package validate

import "context"

// Without cgo the tree-sitter grammar is unavailable. The backends stay in
// the chain and report themselves absent, so reports still show all six
// positions.
type unavailableBackend struct{ name string }

func newTreesitterBackend() Backend     { return unavailableBackend{name: "treesitter"} }
func newTreesitterIncrBackend() Backend { return unavailableBackend{name: "treesitter-incr"} }

func (b unavailableBackend) Name() string   { return b.name }
func (unavailableBackend) Optional() bool   { return true }

func (unavailableBackend) Available() (bool, string) {
	return false, "tree-sitter requires a cgo build"
}

func (unavailableBackend) Check(context.Context, Request) error { return nil }
