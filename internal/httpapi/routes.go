package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/specdriven/specmcp/internal/observability"
	"github.com/specdriven/specmcp/internal/prompts"
	"github.com/specdriven/specmcp/internal/server"
	"github.com/specdriven/specmcp/internal/session"
	"github.com/specdriven/specmcp/internal/tools"
)

// --- Operational routes ---

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"uptime":   time.Since(s.started).String(),
		"name":     server.Name,
		"version":  server.Version,
		"sessions": s.registry.Stats(),
	})
}

func (s *Server) handleReady(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ready":   true,
		"uptime":  time.Since(s.started).String(),
		"name":    server.Name,
		"version": server.Version,
	})
}

func (s *Server) handleInfo(c *gin.Context) {
	promptNames := make([]string, 0)
	for _, e := range s.catalog.List() {
		promptNames = append(promptNames, e.Name)
	}
	toolNames := make([]string, 0, len(s.toolDefs))
	for _, def := range s.toolDefs {
		toolNames = append(toolNames, def.Name)
	}

	c.JSON(http.StatusOK, gin.H{
		"name":                       server.Name,
		"version":                    server.Version,
		"supported_versions":         s.registry.SupportedVersions(),
		"default_protocol_version":   s.registry.DefaultVersion(),
		"heartbeat_interval_seconds": int(s.registry.HeartbeatInterval().Seconds()),
		"prompts":                    promptNames,
		"tools":                      toolNames,
	})
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.registry.Stats())
}

// --- Session lifecycle routes ---

type connectRequest struct {
	ProtocolVersion string            `json:"protocol_version"`
	ClientInfo      map[string]string `json:"client_info"`
}

func (s *Server) handleConnect(c *gin.Context) {
	var req connectRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	// Header is the fallback when the body does not name a version.
	version := req.ProtocolVersion
	if version == "" {
		version = c.GetHeader(protocolVersionHeader)
	}

	info := req.ClientInfo
	if info == nil {
		info = make(map[string]string)
	}
	if ua := c.GetHeader("User-Agent"); ua != "" {
		info["user_agent"] = ua
	}
	info["remote_addr"] = c.ClientIP()

	id, err := s.registry.Connect(version, info)
	if err != nil {
		if errors.Is(err, session.ErrUnsupportedProtocolVersion) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":              err.Error(),
				"supported_versions": s.registry.SupportedVersions(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	sess, _ := s.registry.Get(id)
	c.JSON(http.StatusOK, gin.H{
		"session_id":                 id,
		"protocol_version":           sess.ProtocolVersion,
		"heartbeat_interval_seconds": int(s.registry.HeartbeatInterval().Seconds()),
		"server_info": gin.H{
			"name":    server.Name,
			"version": server.Version,
		},
	})
}

func (s *Server) handleHeartbeat(c *gin.Context) {
	id := c.Param("id")
	if !s.registry.Heartbeat(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleDisconnect(c *gin.Context) {
	s.registry.Disconnect(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"status": "disconnected"})
}

func (s *Server) handleConnections(c *gin.Context) {
	active := s.registry.Active()
	out := make([]gin.H, 0, len(active))
	for _, sess := range active {
		out = append(out, sessionJSON(sess))
	}
	c.JSON(http.StatusOK, gin.H{
		"connections": out,
		"total":       len(out),
	})
}

func (s *Server) handleConnection(c *gin.Context) {
	sess, ok := s.registry.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, sessionJSON(sess))
}

func sessionJSON(sess session.Session) gin.H {
	return gin.H{
		"id":               sess.ID,
		"state":            sess.State.String(),
		"protocol_version": sess.ProtocolVersion,
		"created_at":       sess.CreatedAt.UTC().Format(time.RFC3339),
		"last_heartbeat":   sess.LastHeartbeat.UTC().Format(time.RFC3339),
		"client_info":      sess.ClientInfo,
		"error_count":      sess.ErrorCount,
	}
}

// --- Prompt routes ---

func (s *Server) handleListPrompts(c *gin.Context) {
	entries := s.catalog.List()
	out := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		out = append(out, gin.H{
			"name":        e.Name,
			"title":       e.Title,
			"description": e.Description,
			"arguments":   e.Arguments,
		})
	}
	c.JSON(http.StatusOK, gin.H{"prompts": out})
}

type renderRequest struct {
	Arguments map[string]string `json:"arguments"`
}

func (s *Server) handleRenderPrompt(c *gin.Context) {
	if !s.checkSession(c) {
		return
	}
	name := c.Param("name")

	var req renderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	msgs, err := s.catalog.Render(name, req.Arguments)
	if err != nil {
		observability.RecordPromptRender(name, "error")
		s.promptError(c, err)
		return
	}
	observability.RecordPromptRender(name, "ok")

	c.JSON(http.StatusOK, gin.H{
		"name":     name,
		"messages": msgs,
	})
}

// promptError maps catalog errors to HTTP status codes.
func (s *Server) promptError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, prompts.ErrUnknownPrompt):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, prompts.ErrMissingArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// --- Tool routes ---

func (s *Server) handleListTools(c *gin.Context) {
	out := make([]gin.H, 0, len(s.toolDefs))
	for _, def := range s.toolDefs {
		out = append(out, gin.H{
			"name":         def.Name,
			"description":  def.Description,
			"input_schema": def.InputSchema,
		})
	}
	c.JSON(http.StatusOK, gin.H{"tools": out})
}

type callToolRequest struct {
	Arguments map[string]string `json:"arguments"`
}

func (s *Server) handleCallTool(c *gin.Context) {
	if !s.checkSession(c) {
		return
	}
	name := c.Param("name")

	var req callToolRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}
	args := req.Arguments
	if args == nil {
		args = make(map[string]string)
	}

	var (
		text string
		err  error
	)
	switch name {
	case "create_file":
		if args["path"] == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
			return
		}
		text, err = tools.CreateFile(args["path"], args["content"])
	case "read_file":
		if args["path"] == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
			return
		}
		text, err = tools.ReadFile(args["path"])
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown tool: " + name})
		return
	}

	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"content":  []gin.H{{"type": "text", "text": err.Error()}},
			"is_error": true,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"content":  []gin.H{{"type": "text", "text": text}},
		"is_error": false,
	})
}
