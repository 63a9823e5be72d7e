package server

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/specdriven/specmcp/internal/prompts"
)

func TestNew(t *testing.T) {
	s := New(prompts.NewCatalog())
	if s == nil {
		t.Fatal("New returned nil")
	}
}

func TestPromptDefinition(t *testing.T) {
	catalog := prompts.NewCatalog()
	e, ok := catalog.Get("generate-requirements")
	if !ok {
		t.Fatal("generate-requirements not in catalog")
	}

	def := promptDefinition(e)
	if def.Name != "generate-requirements" {
		t.Errorf("Name = %q, want generate-requirements", def.Name)
	}
	if len(def.Arguments) != 1 {
		t.Fatalf("got %d arguments, want 1", len(def.Arguments))
	}
	if def.Arguments[0].Name != "requirements" {
		t.Errorf("argument name = %q, want requirements", def.Arguments[0].Name)
	}
	if !def.Arguments[0].Required {
		t.Error("requirements argument should be required")
	}
}

func TestPromptHandler(t *testing.T) {
	catalog := prompts.NewCatalog()
	handle := promptHandler(catalog, "generate-requirements")

	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{
		"requirements": "a chat application",
	}

	result, err := handle(context.Background(), req)
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if len(result.Messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(result.Messages))
	}
	if result.Messages[0].Role != mcp.RoleUser {
		t.Errorf("Role = %q, want user", result.Messages[0].Role)
	}
	tc, ok := result.Messages[0].Content.(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want mcp.TextContent", result.Messages[0].Content)
	}
	if !strings.Contains(tc.Text, "a chat application") {
		t.Error("rendered text does not include the input requirements")
	}
}

func TestPromptHandlerMissingArgument(t *testing.T) {
	catalog := prompts.NewCatalog()
	handle := promptHandler(catalog, "generate-requirements")

	_, err := handle(context.Background(), mcp.GetPromptRequest{})
	if err == nil {
		t.Fatal("expected error for missing required argument")
	}
}
