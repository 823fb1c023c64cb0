package mcp

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"archon/internal/config"
	"archon/internal/engine"
	"archon/internal/logging"
	"archon/internal/version"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	logger := logging.NewLogger(logging.Config{Format: logging.JSONFormat, Output: io.Discard})
	eng, err := engine.New(config.DefaultConfig(), logger)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	return NewServer(version.Version, eng, logger)
}

// sendRequest feeds one request through the transport and returns the response
func sendRequest(t *testing.T, server *Server, method string, id int, params interface{}) *Message {
	t.Helper()

	request := Message{
		Jsonrpc: "2.0",
		Id:      id,
		Method:  method,
		Params:  params,
	}
	requestBytes, err := json.Marshal(request)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	requestBytes = append(requestBytes, '\n')

	server.SetStdin(bytes.NewReader(requestBytes))
	server.SetStdout(&bytes.Buffer{})

	msg, err := server.readMessage()
	if err != nil && err != io.EOF {
		t.Fatalf("readMessage: %v", err)
	}
	return server.handleMessage(msg)
}

// contentText unpacks the text payload of a tool call result
func contentText(t *testing.T, resp *Message) string {
	t.Helper()
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("result is %T, want map", resp.Result)
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) == 0 {
		t.Fatalf("missing content: %+v", result)
	}
	text, _ := content[0]["text"].(string)
	return text
}

func writeSource(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.go")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

const singletonSrc = `package app

import "sync"

type registry struct{}

var (
	regOnce sync.Once
	reg     *registry
)

func Registry() *registry {
	regOnce.Do(func() { reg = &registry{} })
	return reg
}
`

func TestServerRegistersAllTools(t *testing.T) {
	server := newTestServer(t)
	defs := server.ToolDefinitions()
	if len(defs) != len(server.tools) {
		t.Fatalf("%d definitions, %d handlers", len(defs), len(server.tools))
	}
	for _, def := range defs {
		if _, ok := server.tools[def.Name]; !ok {
			t.Errorf("tool %q defined but not registered", def.Name)
		}
	}
}

func TestInitialize(t *testing.T) {
	server := newTestServer(t)
	resp := sendRequest(t, server, "initialize", 1, map[string]interface{}{
		"protocolVersion": "2024-11-05",
		"clientInfo":      map[string]interface{}{"name": "test-client"},
	})
	if resp.Error != nil {
		t.Fatalf("initialize failed: %v", resp.Error)
	}
	result, ok := resp.Result.(*InitializeResult)
	if !ok {
		t.Fatalf("result is %T, want *InitializeResult", resp.Result)
	}
	if result.ServerInfo.Name != "archon" || result.ProtocolVersion == "" {
		t.Errorf("unexpected initialize result: %+v", result)
	}
}

func TestListTools(t *testing.T) {
	server := newTestServer(t)
	resp := sendRequest(t, server, "tools/list", 2, map[string]interface{}{})
	if resp.Error != nil {
		t.Fatalf("tools/list failed: %v", resp.Error)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("result is %T", resp.Result)
	}
	tools, ok := result["tools"].([]Tool)
	if !ok || len(tools) != 9 {
		t.Fatalf("tools = %v", result["tools"])
	}
}

func TestCallDetect(t *testing.T) {
	server := newTestServer(t)
	path := writeSource(t, singletonSrc)

	resp := sendRequest(t, server, "tools/call", 3, map[string]interface{}{
		"name": "detect",
		"arguments": map[string]interface{}{
			"paths": []interface{}{path},
		},
	})
	if resp.Error != nil {
		t.Fatalf("detect failed: %v", resp.Error)
	}
	text := contentText(t, resp)
	if !strings.Contains(text, "singleton") {
		t.Errorf("detect output missing singleton finding: %s", text)
	}
}

func TestCallAdviseUnknownTargetCarriesCode(t *testing.T) {
	server := newTestServer(t)
	resp := sendRequest(t, server, "tools/call", 4, map[string]interface{}{
		"name": "advise",
		"arguments": map[string]interface{}{
			"target": "no-such-pattern",
		},
	})
	if resp.Error == nil {
		t.Fatal("expected an error response")
	}
	data, ok := resp.Error.Data.(map[string]interface{})
	if !ok || data["code"] != "UNKNOWN_TARGET" {
		t.Errorf("error data = %+v, want stable code", resp.Error.Data)
	}
}

func TestCallIntroduceDryRun(t *testing.T) {
	server := newTestServer(t)
	path := writeSource(t, singletonSrc)

	resp := sendRequest(t, server, "tools/call", 5, map[string]interface{}{
		"name": "introduce",
		"arguments": map[string]interface{}{
			"target": "builder",
			"path":   path,
			"dryRun": true,
		},
	})
	if resp.Error != nil {
		t.Fatalf("introduce failed: %v", resp.Error)
	}
	text := contentText(t, resp)
	if !strings.Contains(text, "scaffolded") {
		t.Errorf("dry-run introduce should scaffold: %s", text)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(after) != singletonSrc {
		t.Errorf("dry run must not write")
	}
}

func TestUnknownToolAndMethod(t *testing.T) {
	server := newTestServer(t)

	resp := sendRequest(t, server, "tools/call", 6, map[string]interface{}{
		"name": "doesNotExist",
	})
	if resp.Error == nil || resp.Error.Code != MethodNotFound {
		t.Errorf("unknown tool: %+v", resp.Error)
	}

	resp = sendRequest(t, server, "bogus/method", 7, map[string]interface{}{})
	if resp.Error == nil || resp.Error.Code != MethodNotFound {
		t.Errorf("unknown method: %+v", resp.Error)
	}
}

func TestNotificationProducesNoResponse(t *testing.T) {
	server := newTestServer(t)
	msg := &Message{Jsonrpc: "2.0", Method: "notifications/initialized"}
	if resp := server.handleMessage(msg); resp != nil {
		t.Errorf("notification got a response: %+v", resp)
	}
}

func TestCallToolRejectsMissingPaths(t *testing.T) {
	server := newTestServer(t)
	resp := sendRequest(t, server, "tools/call", 8, map[string]interface{}{
		"name":      "detect",
		"arguments": map[string]interface{}{},
	})
	if resp.Error == nil {
		t.Fatal("expected an error for missing paths")
	}
}
