package tools

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
)

// ReadFile returns the content of the file at path.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file does not exist: %s", path)
		}
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// ReadFileTool is the MCP adapter for ReadFile.
type ReadFileTool struct{}

// NewReadFileTool creates a ReadFileTool.
func NewReadFileTool() *ReadFileTool {
	return &ReadFileTool{}
}

// Definition returns the MCP tool definition for registration.
func (t *ReadFileTool) Definition() mcp.Tool {
	return mcp.NewTool("read_file",
		mcp.WithDescription(
			"Read the content of a file at the given path. "+
				"Returns the file content as text.",
		),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path of the file to read, relative to the working directory"),
		),
	)
}

// Handle processes the read_file tool call.
func (t *ReadFileTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	if path == "" {
		return mcp.NewToolResultError("path is required"), nil
	}

	content, err := ReadFile(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(content), nil
}
