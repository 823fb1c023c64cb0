package mcp

import (
	"encoding/json"

	"archon/internal/errors"
)

// Tool represents one tool exposed via MCP
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// ToolHandler executes one tool call and returns the raw result, which
// the server marshals into the MCP content envelope.
type ToolHandler func(params map[string]interface{}) (interface{}, error)

func (s *Server) registerTools() {
	s.tools = map[string]ToolHandler{
		"detect":                 s.toolDetect,
		"propose":                s.toolPropose,
		"analyzeMetrics":         s.toolAnalyzeMetrics,
		"thresholdedEnforcement": s.toolThresholdedEnforcement,
		"advise":                 s.toolAdvise,
		"introduce":              s.toolIntroduce,
		"scan":                   s.toolScan,
		"listTargets":            s.toolListTargets,
		"getStatus":              s.toolGetStatus,
	}
}

func pathsSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": "string"},
		"description": "Go source files to analyze",
	}
}

func categorySchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        []string{"pattern", "architecture"},
		"description": "Restrict results to one catalog category",
	}
}

// ToolDefinitions returns all tool definitions
func (s *Server) ToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "detect",
			Description: "Detect design pattern and architecture style usage in Go source files",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths":    pathsSchema(),
					"category": categorySchema(),
				},
				"required": []string{"paths"},
			},
		},
		{
			Name:        "propose",
			Description: "Rank pattern findings and threshold indicators into a prioritized proposal per file",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths":    pathsSchema(),
					"category": categorySchema(),
					"withMetrics": map[string]interface{}{
						"type":        "boolean",
						"default":     false,
						"description": "Also run the tree-sitter metrics analyzer and the lint runner",
					},
				},
				"required": []string{"paths"},
			},
		},
		{
			Name:        "analyzeMetrics",
			Description: "Return the fused signal vector (complexity, maintainability, structural indicators) per file",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths": pathsSchema(),
				},
				"required": []string{"paths"},
			},
		},
		{
			Name:        "thresholdedEnforcement",
			Description: "Report only threshold-breaching indicators, each with an explicit breach rationale",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths": pathsSchema(),
				},
				"required": []string{"paths"},
			},
		},
		{
			Name:        "advise",
			Description: "Get catalog guidance for one pattern or architecture target",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"target": map[string]interface{}{
						"type":        "string",
						"description": "Target name or alias, e.g. 'singleton' or 'di'",
					},
				},
				"required": []string{"target"},
			},
		},
		{
			Name:        "introduce",
			Description: "Introduce a pattern into one Go file via a guarded transformation: structural when preconditions hold, commented scaffold otherwise, validated before any write",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"target": map[string]interface{}{
						"type":        "string",
						"description": "Pattern or architecture target to introduce",
					},
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Go source file to transform",
					},
					"dryRun": map[string]interface{}{
						"type":        "boolean",
						"default":     false,
						"description": "Compute the candidate and diff without writing",
					},
					"outPath": map[string]interface{}{
						"type":        "string",
						"description": "Write the accepted candidate here instead of in place",
					},
				},
				"required": []string{"target", "path"},
			},
		},
		{
			Name:        "scan",
			Description: "Expand files, directories, and glob patterns, then propose per matched Go file",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Files, directories, or doublestar globs",
					},
					"withMetrics": map[string]interface{}{
						"type":        "boolean",
						"default":     false,
						"description": "Also run the tree-sitter metrics analyzer and the lint runner",
					},
				},
				"required": []string{"paths"},
			},
		},
		{
			Name:        "listTargets",
			Description: "List catalog targets, optionally by category",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"category": categorySchema(),
				},
			},
		},
		{
			Name:        "getStatus",
			Description: "Get server status including version, detector roster, validation backends, and catalog size",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// textContent wraps a tool result in the MCP content envelope
func textContent(result interface{}) map[string]interface{} {
	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		jsonBytes = []byte(`{"error":"unencodable result"}`)
	}
	return map[string]interface{}{
		"content": []map[string]interface{}{
			{
				"type": "text",
				"text": string(jsonBytes),
			},
		},
	}
}

// toolErrorMessage maps a tool failure to a JSON-RPC error carrying the
// stable error code in its data
func toolErrorMessage(id interface{}, err error) *Message {
	return NewErrorMessage(id, InternalError, err.Error(), map[string]interface{}{
		"code": string(errors.CodeOf(err)),
	})
}
