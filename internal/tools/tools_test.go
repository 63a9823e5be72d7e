package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

// --- Test helpers ---

// isErrorResult checks if the result is a tool error.
func isErrorResult(result *mcp.CallToolResult) bool {
	return result != nil && result.IsError
}

// getResultText extracts the text content from a tool result.
func getResultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want mcp.TextContent", result.Content[0])
	}
	return tc.Text
}

func callReq(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// --- CreateFile ---

func TestCreateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "out.txt")

	msg, err := CreateFile(path, "hello world")
	if err != nil {
		t.Fatalf("CreateFile failed: %v", err)
	}
	if !strings.Contains(msg, path) {
		t.Errorf("message %q does not name the path", msg)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading written file: %v", err)
	}
	if string(data) != "hello world" {
		t.Errorf("file content = %q, want %q", data, "hello world")
	}
}

func TestCreateFileOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	if _, err := CreateFile(path, "first"); err != nil {
		t.Fatalf("CreateFile failed: %v", err)
	}
	if _, err := CreateFile(path, "second"); err != nil {
		t.Fatalf("CreateFile failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "second" {
		t.Errorf("file content = %q, want %q", data, "second")
	}
}

func TestCreateFileToolHandle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tool.txt")
	tool := NewCreateFileTool()

	result, err := tool.Handle(context.Background(), callReq(map[string]any{
		"path":    path,
		"content": "via tool",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("Handle returned tool error: %s", getResultText(t, result))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading written file: %v", err)
	}
	if string(data) != "via tool" {
		t.Errorf("file content = %q, want %q", data, "via tool")
	}
}

func TestCreateFileToolMissingPath(t *testing.T) {
	tool := NewCreateFileTool()

	result, err := tool.Handle(context.Background(), callReq(map[string]any{
		"content": "orphan",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Error("expected tool error for missing path")
	}
}

// --- ReadFile ---

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.txt")
	if err := os.WriteFile(path, []byte("file body"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	content, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if content != "file body" {
		t.Errorf("content = %q, want %q", content, "file body")
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "absent.txt"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("error %q does not report missing file", err)
	}
}

func TestReadFileToolHandle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.txt")
	if err := os.WriteFile(path, []byte("read me"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	tool := NewReadFileTool()
	result, err := tool.Handle(context.Background(), callReq(map[string]any{
		"path": path,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("Handle returned tool error: %s", getResultText(t, result))
	}
	if got := getResultText(t, result); got != "read me" {
		t.Errorf("result text = %q, want %q", got, "read me")
	}
}

func TestReadFileToolMissingFile(t *testing.T) {
	tool := NewReadFileTool()
	result, err := tool.Handle(context.Background(), callReq(map[string]any{
		"path": filepath.Join(t.TempDir(), "absent.txt"),
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Error("expected tool error for missing file")
	}
}
