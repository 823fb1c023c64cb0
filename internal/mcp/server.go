package mcp

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"archon/internal/engine"
	"archon/internal/logging"
)

// Server speaks MCP over stdio. One request is handled at a time; the
// engine underneath is stateless per request, so the server carries no
// session state beyond the transport itself.
type Server struct {
	stdin   io.Reader
	stdout  io.Writer
	scanner *bufio.Scanner
	logger  *logging.Logger
	version string
	engine  *engine.Engine
	tools   map[string]ToolHandler
}

// NewServer creates an MCP server bound to stdin/stdout
func NewServer(version string, eng *engine.Engine, logger *logging.Logger) *Server {
	s := &Server{
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		logger:  logger.With(map[string]interface{}{"component": "mcp"}),
		version: version,
		engine:  eng,
		tools:   make(map[string]ToolHandler),
	}
	s.registerTools()
	return s
}

// SetStdin overrides the input stream (used in tests)
func (s *Server) SetStdin(r io.Reader) {
	s.stdin = r
	s.scanner = nil
}

// SetStdout overrides the output stream (used in tests)
func (s *Server) SetStdout(w io.Writer) {
	s.stdout = w
}

// Start runs the message loop until EOF on stdin
func (s *Server) Start() error {
	s.logger.Info("mcp server starting", map[string]interface{}{
		"version": s.version,
	})

	for {
		msg, err := s.readMessage()
		if err != nil {
			if err == io.EOF {
				s.logger.Info("mcp server shutting down", nil)
				return nil
			}
			s.logger.Error("error reading message", map[string]interface{}{
				"error": err.Error(),
			})
			if msg != nil && msg.Id != nil {
				_ = s.writeError(msg.Id, ParseError, fmt.Sprintf("failed to parse message: %v", err))
			}
			continue
		}

		response := s.handleMessage(msg)
		if response != nil {
			if err := s.writeMessage(response); err != nil {
				s.logger.Error("error writing response", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}
	}
}

// handleMessage processes an incoming message and returns a response,
// or nil for notifications
func (s *Server) handleMessage(msg *Message) *Message {
	if msg.IsRequest() {
		return s.handleRequest(msg)
	}
	if msg.IsNotification() {
		s.handleNotification(msg)
		return nil
	}
	return NewErrorMessage(msg.Id, InvalidRequest, "invalid message: not a request or notification", nil)
}

func (s *Server) handleRequest(msg *Message) *Message {
	s.logger.Debug("handling request", map[string]interface{}{
		"method": msg.Method,
		"id":     msg.Id,
	})

	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "tools/list":
		return s.handleListTools(msg)
	case "tools/call":
		return s.handleCallTool(msg)
	default:
		return NewErrorMessage(msg.Id, MethodNotFound, fmt.Sprintf("method not found: %s", msg.Method), nil)
	}
}

func (s *Server) handleNotification(msg *Message) {
	switch msg.Method {
	case "notifications/initialized":
		s.logger.Info("client initialized", nil)
	default:
		s.logger.Debug("unknown notification", map[string]interface{}{
			"method": msg.Method,
		})
	}
}

// ServerCapabilities represents the capabilities exposed by the server
type ServerCapabilities struct {
	Tools *ToolsCapability `json:"tools,omitempty"`
}

// ToolsCapability represents the tools capability
type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// ServerInfo identifies the server to the client
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeResult represents the result of the initialize request
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      ServerInfo         `json:"serverInfo"`
}

func (s *Server) handleInitialize(msg *Message) *Message {
	params, _ := msg.Params.(map[string]interface{})
	s.logger.Info("mcp server initializing", map[string]interface{}{
		"clientInfo": params["clientInfo"],
	})

	return NewResultMessage(msg.Id, &InitializeResult{
		ProtocolVersion: "2024-11-05",
		Capabilities: ServerCapabilities{
			Tools: &ToolsCapability{},
		},
		ServerInfo: ServerInfo{
			Name:    "archon",
			Version: s.version,
		},
	})
}

func (s *Server) handleListTools(msg *Message) *Message {
	return NewResultMessage(msg.Id, map[string]interface{}{
		"tools": s.ToolDefinitions(),
	})
}

func (s *Server) handleCallTool(msg *Message) *Message {
	params, ok := msg.Params.(map[string]interface{})
	if !ok {
		return NewErrorMessage(msg.Id, InvalidParams, "invalid params: expected object", nil)
	}

	toolName, ok := params["name"].(string)
	if !ok {
		return NewErrorMessage(msg.Id, InvalidParams, "missing 'name' parameter", nil)
	}

	toolParams, ok := params["arguments"].(map[string]interface{})
	if !ok {
		toolParams = make(map[string]interface{})
	}

	handler, exists := s.tools[toolName]
	if !exists {
		return NewErrorMessage(msg.Id, MethodNotFound, fmt.Sprintf("unknown tool: %s", toolName), nil)
	}

	s.logger.Info("calling tool", map[string]interface{}{
		"tool": toolName,
	})

	result, err := handler(toolParams)
	if err != nil {
		return toolErrorMessage(msg.Id, err)
	}

	return NewResultMessage(msg.Id, textContent(result))
}
