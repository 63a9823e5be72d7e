// Package tools implements the file tools exposed over MCP and HTTP.
//
// Each tool lives in its own file and provides two things: a plain Go
// function with the core behavior, and a thin MCP adapter (Definition +
// Handle) so the same logic serves both transports.
package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"
)

// CreateFile writes content to path, creating parent directories as
// needed. The content is written verbatim.
func CreateFile(path, content string) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return fmt.Sprintf("File created: %s", path), nil
}

// CreateFileTool is the MCP adapter for CreateFile.
type CreateFileTool struct{}

// NewCreateFileTool creates a CreateFileTool.
func NewCreateFileTool() *CreateFileTool {
	return &CreateFileTool{}
}

// Definition returns the MCP tool definition for registration.
func (t *CreateFileTool) Definition() mcp.Tool {
	return mcp.NewTool("create_file",
		mcp.WithDescription(
			"Create a file at the given path with the given content. "+
				"Parent directories are created automatically. "+
				"The content is written exactly as provided.",
		),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path of the file to create, relative to the working directory"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Content to write to the file"),
		),
	)
}

// Handle processes the create_file tool call.
func (t *CreateFileTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	if path == "" {
		return mcp.NewToolResultError("path is required"), nil
	}
	content := req.GetString("content", "")

	msg, err := CreateFile(path, content)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(msg), nil
}
