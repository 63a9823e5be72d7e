package httpapi

import (
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type string `json:"type"`
}

// handleWS upgrades the connection and runs a session over it: the
// socket itself is the session, connected on upgrade and disconnected
// when the socket closes. Heartbeats arrive as JSON frames instead of
// HTTP posts.
func (s *Server) handleWS(c *gin.Context) {
	upgrader := websocket.Upgrader{CheckOrigin: s.checkOrigin}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	info := map[string]string{
		"transport":   "websocket",
		"remote_addr": c.ClientIP(),
	}
	if ua := c.GetHeader("User-Agent"); ua != "" {
		info["user_agent"] = ua
	}

	id, err := s.registry.Connect(c.GetHeader(protocolVersionHeader), info)
	if err != nil {
		_ = conn.WriteJSON(map[string]any{"type": "error", "error": err.Error()})
		return
	}
	defer s.registry.Disconnect(id)

	sess, _ := s.registry.Get(id)
	if err := conn.WriteJSON(map[string]any{
		"type":                       "connected",
		"session_id":                 id,
		"protocol_version":           sess.ProtocolVersion,
		"heartbeat_interval_seconds": int(s.registry.HeartbeatInterval().Seconds()),
	}); err != nil {
		return
	}

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "heartbeat":
			alive := s.registry.Heartbeat(id)
			if err := conn.WriteJSON(map[string]any{
				"type":  "heartbeat_ack",
				"alive": alive,
			}); err != nil {
				return
			}
			if !alive {
				return
			}
		case "disconnect":
			_ = conn.WriteJSON(map[string]any{"type": "disconnected"})
			return
		default:
			if err := conn.WriteJSON(map[string]any{
				"type":  "error",
				"error": "unknown message type: " + msg.Type,
			}); err != nil {
				return
			}
		}
	}
}
