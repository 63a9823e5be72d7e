// Package session implements the connection lifecycle manager: it registers
// client sessions, validates protocol compatibility at connect time, tracks
// liveness via heartbeats, and expires sessions that go quiet.
//
// The Registry exclusively owns every Session record. Callers only ever
// receive snapshots; the session id is the sole handle a transport keeps
// between requests.
package session

import (
	"maps"
	"time"
)

// State is the lifecycle state of a tracked session.
type State int

const (
	// StateConnecting is transient and never observable outside the
	// registry — Connect either lands in StateConnected or fails before
	// anything is recorded.
	StateConnecting State = iota
	StateConnected
	StateDisconnected
	StateError
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Session is a tracked client connection.
type Session struct {
	ID              string
	State           State
	CreatedAt       time.Time
	LastHeartbeat   time.Time
	ProtocolVersion string
	ClientInfo      map[string]string
	ErrorCount      int
}

// snapshot returns a copy that is safe to hand outside the registry.
// ClientInfo is cloned so callers cannot write back into the tracked record.
func (s *Session) snapshot() Session {
	out := *s
	out.ClientInfo = maps.Clone(s.ClientInfo)
	return out
}
