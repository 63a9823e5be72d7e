// specmcp: Spec-Driven Development prompt gateway
//
// Serves the requirements → design → code prompt workflow to MCP
// clients over stdio, or over HTTP with session tracking.
//
// Usage:
//
//	specmcp serve                    # MCP server on stdio
//	specmcp serve --transport http   # HTTP gateway with sessions
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/specdriven/specmcp/internal/config"
	"github.com/specdriven/specmcp/internal/httpapi"
	"github.com/specdriven/specmcp/internal/observability"
	"github.com/specdriven/specmcp/internal/prompts"
	"github.com/specdriven/specmcp/internal/server"
	"github.com/specdriven/specmcp/internal/session"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := runServe(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("specmcp v%s\n", server.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	transport := fs.String("transport", "stdio", "transport to serve on: stdio or http")
	configPath := fs.String("config", "", "path to a TOML config file")
	host := fs.String("host", "", "bind host (overrides config)")
	port := fs.Int("port", 0, "bind port (overrides config)")
	logLevel := fs.String("log-level", "", "log level (overrides config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	logger := observability.InitLogger("specmcp", cfg.Log.Level)
	catalog := prompts.NewCatalog()

	// Graceful shutdown on interrupt.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info().Msg("shutdown signal received")
		cancel()
	}()

	switch *transport {
	case "stdio":
		return mcpserver.ServeStdio(server.New(catalog))
	case "http":
		registry := session.NewRegistry(cfg.Session.RegistryConfig(), logger)
		registry.Start()
		defer registry.Stop()
		return httpapi.NewServer(cfg.Server, registry, catalog, logger).Run(ctx)
	default:
		return fmt.Errorf("unknown transport: %s", *transport)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `specmcp v%s — Spec-Driven Development prompt gateway

Usage:
  specmcp serve [flags]   Start the server
  specmcp version         Print the version

Flags for serve:
  --transport stdio|http  Transport to serve on (default stdio)
  --config PATH           TOML config file
  --host HOST             Bind host for http (overrides config)
  --port PORT             Bind port for http (overrides config)
  --log-level LEVEL       trace, debug, info, warn, error

Configuration for MCP clients:

  {
    "mcpServers": {
      "spec-driven-development": {
        "command": "specmcp",
        "args": ["serve"]
      }
    }
  }
`, server.Version)
}
