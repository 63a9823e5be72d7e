// Package httpapi exposes the gateway over HTTP: session lifecycle,
// prompt rendering (plain and streamed), tool invocation, a websocket
// endpoint, and operational routes.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/specdriven/specmcp/internal/config"
	"github.com/specdriven/specmcp/internal/observability"
	"github.com/specdriven/specmcp/internal/prompts"
	"github.com/specdriven/specmcp/internal/session"
	"github.com/specdriven/specmcp/internal/tools"
)

const protocolVersionHeader = "MCP-Protocol-Version"

// Server is the HTTP transport for the gateway. It shares the session
// registry and prompt catalog with the stdio transport.
type Server struct {
	cfg      config.ServerConfig
	registry *session.Registry
	catalog  *prompts.Catalog
	log      zerolog.Logger
	engine   *gin.Engine
	started  time.Time

	toolDefs []mcp.Tool

	corsWildcard bool
	corsAllowed  map[string]bool
}

// NewServer builds the HTTP server and registers all routes.
func NewServer(cfg config.ServerConfig, registry *session.Registry, catalog *prompts.Catalog, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:      cfg,
		registry: registry,
		catalog:  catalog,
		log:      logger.With().Str("component", "httpapi").Logger(),
		engine:   gin.New(),
		started:  time.Now(),
		toolDefs: []mcp.Tool{
			tools.NewCreateFileTool().Definition(),
			tools.NewReadFileTool().Definition(),
		},
		corsAllowed: make(map[string]bool),
	}

	for _, origin := range cfg.CorsOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			s.corsWildcard = true
			continue
		}
		if origin != "" {
			s.corsAllowed[origin] = true
		}
	}

	s.engine.Use(
		gin.Recovery(),
		observability.RequestLogger(s.log),
		observability.RequestMetrics(),
		s.corsMiddleware(),
		s.protocolVersionMiddleware(),
	)
	s.registerRoutes()

	return s
}

// Handler returns the underlying HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	observability.RegisterMetrics()

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Info().Str("addr", addr).Msg("http server listening")

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	s.log.Info().Msg("http server stopped")
	return nil
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/ready", s.handleReady)
	s.engine.GET("/info", s.handleInfo)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.engine.GET("/stats", s.handleStats)

	s.engine.POST("/connect", s.handleConnect)
	s.engine.POST("/heartbeat/:id", s.handleHeartbeat)
	s.engine.DELETE("/disconnect/:id", s.handleDisconnect)
	s.engine.GET("/connections", s.handleConnections)
	s.engine.GET("/connections/:id", s.handleConnection)

	s.engine.GET("/prompts", s.handleListPrompts)
	s.engine.POST("/prompts/:name", s.handleRenderPrompt)
	s.engine.POST("/prompts/:name/stream", s.handleStreamPrompt)

	s.engine.GET("/tools", s.handleListTools)
	s.engine.POST("/tools/:name", s.handleCallTool)

	s.engine.GET("/ws", s.handleWS)
}

// protocolVersionMiddleware rejects requests carrying an unsupported
// MCP-Protocol-Version header and echoes the resolved version back.
// Requests without the header pass through on the default version.
func (s *Server) protocolVersionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		version := c.GetHeader(protocolVersionHeader)
		if version == "" {
			version = s.registry.DefaultVersion()
		} else if !s.registry.Supported(version) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": gin.H{
					"code":    -32000,
					"message": fmt.Sprintf("unsupported protocol version: %s", version),
					"data": gin.H{
						"supported_versions": s.registry.SupportedVersions(),
					},
				},
			})
			return
		}
		c.Header(protocolVersionHeader, version)
		c.Next()
	}
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && s.originAllowed(origin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, X-Session-ID, "+protocolVersionHeader)
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) originAllowed(origin string) bool {
	return s.corsWildcard || s.corsAllowed[origin]
}

// checkOrigin mirrors the CORS policy for websocket upgrades. Requests
// without an Origin header (non-browser clients) are allowed.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return s.originAllowed(origin)
}

// checkSession resolves the optional X-Session-ID preflight header. A
// header naming an unknown session fails the request with 404.
func (s *Server) checkSession(c *gin.Context) bool {
	id := c.GetHeader("X-Session-ID")
	if id == "" {
		return true
	}
	if _, ok := s.registry.Get(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return false
	}
	return true
}
