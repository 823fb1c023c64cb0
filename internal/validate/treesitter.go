//go:build cgo

package validate

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// treesitterBackend parses the candidate into a lossless CST. Any error
// node in the tree fails the check.
type treesitterBackend struct{}

func newTreesitterBackend() Backend { return treesitterBackend{} }

func (treesitterBackend) Name() string   { return "treesitter" }
func (treesitterBackend) Optional() bool { return true }

func (treesitterBackend) Check(ctx context.Context, req Request) error {
	parser := sitter.NewParser()
	parser.SetLanguage(golang.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, req.Candidate)
	if err != nil {
		return fmt.Errorf("cst parse: %w", err)
	}
	defer tree.Close()
	if tree.RootNode().HasError() {
		return fmt.Errorf("cst contains error nodes")
	}
	return nil
}

// treesitterIncrBackend re-parses the candidate seeded with the original's
// tree, exercising the incremental path the batch parse never takes.
type treesitterIncrBackend struct{}

func newTreesitterIncrBackend() Backend { return treesitterIncrBackend{} }

func (treesitterIncrBackend) Name() string   { return "treesitter-incr" }
func (treesitterIncrBackend) Optional() bool { return true }

func (treesitterIncrBackend) Check(ctx context.Context, req Request) error {
	parser := sitter.NewParser()
	parser.SetLanguage(golang.GetLanguage())

	prev, err := parser.ParseCtx(ctx, nil, req.Original)
	if err != nil {
		return fmt.Errorf("incremental seed parse: %w", err)
	}
	defer prev.Close()

	tree, err := parser.ParseCtx(ctx, prev, req.Candidate)
	if err != nil {
		return fmt.Errorf("incremental parse: %w", err)
	}
	defer tree.Close()
	if tree.RootNode().HasError() {
		return fmt.Errorf("incremental cst contains error nodes")
	}
	return nil
}
