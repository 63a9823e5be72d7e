// Package server wires the MCP server instance for the stdio transport.
//
// This is the composition root: it creates the mcp-go server and registers
// the prompt catalog and file tools against it. No business logic lives
// here — only wiring.
package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/specdriven/specmcp/internal/prompts"
	"github.com/specdriven/specmcp/internal/tools"
)

// Name identifies the server to MCP clients.
const Name = "spec-driven-development"

// Version is set at build time via ldflags.
var Version = "0.1.0"

// New creates and configures the MCP server with all prompts and tools
// registered.
func New(catalog *prompts.Catalog) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer(
		Name,
		Version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithPromptCapabilities(true),
		mcpserver.WithRecovery(),
	)

	// --- Register prompts ---

	for _, e := range catalog.List() {
		s.AddPrompt(promptDefinition(e), promptHandler(catalog, e.Name))
	}

	// --- Register tools ---

	createTool := tools.NewCreateFileTool()
	s.AddTool(createTool.Definition(), createTool.Handle)

	readTool := tools.NewReadFileTool()
	s.AddTool(readTool.Definition(), readTool.Handle)

	return s
}

// promptDefinition translates a catalog entry into an MCP prompt definition.
func promptDefinition(e prompts.Entry) mcp.Prompt {
	opts := []mcp.PromptOption{
		mcp.WithPromptDescription(e.Description),
	}
	for _, a := range e.Arguments {
		argOpts := []mcp.ArgumentOption{
			mcp.ArgumentDescription(a.Description),
		}
		if a.Required {
			argOpts = append(argOpts, mcp.RequiredArgument())
		}
		opts = append(opts, mcp.WithArgument(a.Name, argOpts...))
	}
	return mcp.NewPrompt(e.Name, opts...)
}

// promptHandler adapts catalog rendering to the mcp-go prompt handler
// signature.
func promptHandler(catalog *prompts.Catalog, name string) mcpserver.PromptHandlerFunc {
	return func(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		msgs, err := catalog.Render(name, req.Params.Arguments)
		if err != nil {
			return nil, err
		}

		out := make([]mcp.PromptMessage, 0, len(msgs))
		for _, m := range msgs {
			out = append(out, mcp.PromptMessage{
				Role:    mcp.RoleUser,
				Content: mcp.NewTextContent(m.Content),
			})
		}
		return &mcp.GetPromptResult{
			Description: fmt.Sprintf("Rendered prompt: %s", name),
			Messages:    out,
		}, nil
	}
}
