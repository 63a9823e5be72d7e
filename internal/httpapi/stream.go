package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/specdriven/specmcp/internal/observability"
)

// handleStreamPrompt renders a prompt and streams the result as
// server-sent events: start, info, one message event per rendered
// message, then complete. Render failures become an error event after
// the start frame.
func (s *Server) handleStreamPrompt(c *gin.Context) {
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

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	s.writeEvent(c, gin.H{"type": "start", "prompt": name})

	msgs, err := s.catalog.Render(name, req.Arguments)
	if err != nil {
		observability.RecordPromptRender(name, "error")
		s.writeEvent(c, gin.H{"type": "error", "error": err.Error()})
		return
	}
	observability.RecordPromptRender(name, "ok")

	s.writeEvent(c, gin.H{
		"type":           "info",
		"prompt":         name,
		"total_messages": len(msgs),
	})

	for i, m := range msgs {
		s.writeEvent(c, gin.H{
			"type":    "message",
			"index":   i,
			"role":    m.Role,
			"content": m.Content,
		})
	}

	s.writeEvent(c, gin.H{
		"type":           "complete",
		"total_messages": len(msgs),
	})
}

func (s *Server) writeEvent(c *gin.Context, payload gin.H) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Msg("marshaling sse event")
		return
	}
	fmt.Fprintf(c.Writer, "data: %s\n\n", data)
	c.Writer.Flush()
}
