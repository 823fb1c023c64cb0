//go:build cgo

package metrics

import (
	"context"
	"math"
	"os"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// Go node types representing function-like declarations.
var functionNodeTypes = []string{"function_declaration", "method_declaration", "func_literal"}

// Go node types counting as decision points.
var decisionNodeTypes = []string{
	"if_statement", "for_statement", "expression_switch_statement",
	"type_switch_statement", "select_statement", "expression_case",
	"type_case", "communication_case", "binary_expression",
}

// Go node types introducing a nesting level for cognitive complexity.
var nestingNodeTypes = []string{
	"if_statement", "for_statement", "expression_switch_statement",
	"type_switch_statement", "select_statement", "func_literal",
}

// Analyzer computes complexity metrics for Go source files.
type Analyzer struct {
	parser *sitter.Parser
}

// NewAnalyzer creates a new metrics analyzer.
func NewAnalyzer() *Analyzer {
	p := sitter.NewParser()
	p.SetLanguage(golang.GetLanguage())
	return &Analyzer{parser: p}
}

// AnalyzeFile analyzes a source file and returns its metrics.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (*FileMetrics, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return &FileMetrics{Path: path, Error: "failed to read file: " + err.Error()}, nil
	}
	return a.AnalyzeSource(ctx, path, source)
}

// AnalyzeSource analyzes source bytes and returns metrics per function.
func (a *Analyzer) AnalyzeSource(ctx context.Context, path string, source []byte) (*FileMetrics, error) {
	tree, err := a.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return &FileMetrics{Path: path, Error: err.Error()}, nil
	}
	root := tree.RootNode()
	if root.HasError() {
		return &FileMetrics{Path: path, Error: "syntax errors in source"}, nil
	}

	fm := &FileMetrics{Path: path, Functions: make([]FunctionMetrics, 0)}
	for _, fn := range findNodes(root, functionNodeTypes) {
		fm.Functions = append(fm.Functions, a.analyzeFunction(fn, source))
	}
	fm.Aggregate()
	return fm, nil
}

func (a *Analyzer) analyzeFunction(node *sitter.Node, source []byte) FunctionMetrics {
	startLine := int(node.StartPoint().Row) + 1
	endLine := int(node.EndPoint().Row) + 1
	lines := endLine - startLine + 1

	cyclomatic := computeCyclomatic(node, source)
	cognitive := computeCognitive(node, source, 0)
	volume := halsteadVolume(node)

	return FunctionMetrics{
		Name:            functionName(node, source),
		StartLine:       startLine,
		EndLine:         endLine,
		Lines:           lines,
		Cyclomatic:      cyclomatic,
		Cognitive:       cognitive,
		Maintainability: maintainabilityIndex(volume, cyclomatic, lines),
	}
}

func functionName(node *sitter.Node, source []byte) string {
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		return string(source[nameNode.StartByte():nameNode.EndByte()])
	}
	if node.Type() == "func_literal" {
		return "<anonymous>"
	}
	return "<unknown>"
}

// computeCyclomatic counts decision points + 1.
func computeCyclomatic(node *sitter.Node, source []byte) int {
	complexity := 1
	for _, dn := range findNodes(node, decisionNodeTypes) {
		if dn.Type() == "binary_expression" {
			if isBooleanOperator(dn, source) {
				complexity++
			}
		} else {
			complexity++
		}
	}
	return complexity
}

// computeCognitive weights decision points by nesting depth.
func computeCognitive(node *sitter.Node, source []byte, nestingLevel int) int {
	complexity := 0
	nodeType := node.Type()

	isDecision := contains(decisionNodeTypes, nodeType)
	isNesting := contains(nestingNodeTypes, nodeType)

	if isDecision {
		if nodeType == "binary_expression" {
			if isBooleanOperator(node, source) {
				complexity += 1 + nestingLevel
			}
		} else {
			complexity += 1 + nestingLevel
		}
	}

	childNesting := nestingLevel
	if isNesting {
		childNesting++
	}

	for i := uint32(0); i < node.ChildCount(); i++ {
		child := node.Child(int(i))
		if child != nil {
			complexity += computeCognitive(child, source, childNesting)
		}
	}
	return complexity
}

// halsteadVolume approximates Halstead volume from token counts: leaf nodes
// are tokens, distinct leaf types stand in for the vocabulary.
func halsteadVolume(node *sitter.Node) float64 {
	tokens := 0
	vocab := make(map[string]bool)

	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.ChildCount() == 0 {
			tokens++
			vocab[n.Type()] = true
			return
		}
		for i := uint32(0); i < n.ChildCount(); i++ {
			walk(n.Child(int(i)))
		}
	}
	walk(node)

	if tokens == 0 || len(vocab) < 2 {
		return 1
	}
	return float64(tokens) * math.Log2(float64(len(vocab)))
}

// maintainabilityIndex is the standard 0-100 normalized MI formula.
func maintainabilityIndex(volume float64, cyclomatic, lines int) float64 {
	if volume < 1 {
		volume = 1
	}
	if lines < 1 {
		lines = 1
	}
	mi := (171 - 5.2*math.Log(volume) - 0.23*float64(cyclomatic) - 16.2*math.Log(float64(lines))) * 100 / 171
	if mi < 0 {
		return 0
	}
	if mi > 100 {
		return 100
	}
	return mi
}

// isBooleanOperator reports whether a binary expression is && or ||.
func isBooleanOperator(node *sitter.Node, source []byte) bool {
	for i := uint32(0); i < node.ChildCount(); i++ {
		child := node.Child(int(i))
		if child == nil {
			continue
		}
		switch child.Type() {
		case "&&", "||":
			return true
		}
	}
	return false
}

// findNodes finds all nodes of the given types under root.
func findNodes(root *sitter.Node, types []string) []*sitter.Node {
	var result []*sitter.Node

	var walk func(*sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}
		if contains(types, node.Type()) {
			result = append(result, node)
		}
		for i := uint32(0); i < node.ChildCount(); i++ {
			walk(node.Child(int(i)))
		}
	}

	walk(root)
	return result
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// IsAvailable returns whether metrics analysis is available.
// Returns true when CGO is enabled.
func IsAvailable() bool {
	return true
}
