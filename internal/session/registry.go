package session

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/specdriven/specmcp/internal/observability"
)

// ErrUnsupportedProtocolVersion is returned by Connect when the client's
// protocol version is not in the configured supported set.
var ErrUnsupportedProtocolVersion = errors.New("unsupported protocol version")

// Config holds the registry's construction-time settings.
// All fields are read-only after NewRegistry.
type Config struct {
	// HeartbeatInterval is the sweep period. A session counts as stale
	// once it has been idle for more than twice this interval.
	HeartbeatInterval time.Duration

	// MaxErrorCount is the number of stale sweep cycles a session
	// survives before it is evicted.
	MaxErrorCount int

	// SupportedVersions gates Connect.
	SupportedVersions []string

	// DefaultVersion is used when a client connects without naming one.
	DefaultVersion string

	// SweepBackoff is how long the sweep pauses after an internal fault
	// before resuming its regular interval.
	SweepBackoff time.Duration
}

// DefaultConfig returns the protocol defaults: 30s heartbeats, three
// strikes, versions 2.0 through 2.2 with 2.1 as the default.
func DefaultConfig() Config {
	return Config{
		HeartbeatInterval: 30 * time.Second,
		MaxErrorCount:     3,
		SupportedVersions: []string{"2.0", "2.1", "2.2"},
		DefaultVersion:    "2.1",
		SweepBackoff:      5 * time.Second,
	}
}

// Stats is an aggregate view over the session index, computed from a live
// scan on every call.
type Stats struct {
	TotalSessions    int      `json:"total_sessions"`
	ActiveSessions   int      `json:"active_sessions"`
	ProtocolVersions []string `json:"protocol_versions"`
}

// Registry is the connection lifecycle manager. It is safe for concurrent
// use: the background sweep and any number of request handlers share the
// session index under one mutex.
type Registry struct {
	cfg Config
	log zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	running  bool
	stop     chan struct{}
	done     chan struct{}
}

// NewRegistry creates a stopped registry. Zero-valued config fields fall
// back to DefaultConfig. Call Start to begin the liveness sweep.
func NewRegistry(cfg Config, logger zerolog.Logger) *Registry {
	def := DefaultConfig()
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = def.HeartbeatInterval
	}
	if cfg.MaxErrorCount <= 0 {
		cfg.MaxErrorCount = def.MaxErrorCount
	}
	if len(cfg.SupportedVersions) == 0 {
		cfg.SupportedVersions = def.SupportedVersions
	}
	if cfg.DefaultVersion == "" {
		cfg.DefaultVersion = def.DefaultVersion
	}
	if cfg.SweepBackoff <= 0 {
		cfg.SweepBackoff = def.SweepBackoff
	}

	return &Registry{
		cfg:      cfg,
		log:      logger.With().Str("component", "session").Logger(),
		sessions: make(map[string]*Session),
	}
}

// Supported reports whether version is in the supported set.
func (r *Registry) Supported(version string) bool {
	return slices.Contains(r.cfg.SupportedVersions, version)
}

// SupportedVersions returns the supported protocol versions.
func (r *Registry) SupportedVersions() []string {
	return slices.Clone(r.cfg.SupportedVersions)
}

// DefaultVersion returns the version used when a client doesn't name one.
func (r *Registry) DefaultVersion() string {
	return r.cfg.DefaultVersion
}

// HeartbeatInterval returns the configured sweep period.
func (r *Registry) HeartbeatInterval() time.Duration {
	return r.cfg.HeartbeatInterval
}

// Connect validates the protocol version and registers a new session in
// the Connected state. An empty version means the configured default.
// On failure nothing is recorded.
func (r *Registry) Connect(protocolVersion string, clientInfo map[string]string) (string, error) {
	if protocolVersion == "" {
		protocolVersion = r.cfg.DefaultVersion
	}
	if !r.Supported(protocolVersion) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedProtocolVersion, protocolVersion)
	}

	now := timeNow()
	sess := &Session{
		ID:              uuid.NewString(),
		State:           StateConnected,
		CreatedAt:       now,
		LastHeartbeat:   now,
		ProtocolVersion: protocolVersion,
		ClientInfo:      maps.Clone(clientInfo),
	}

	r.mu.Lock()
	r.sessions[sess.ID] = sess
	active := r.activeLocked()
	r.mu.Unlock()

	observability.RecordSessionConnected(protocolVersion)
	observability.SetActiveSessions(active)
	r.log.Info().
		Str("session_id", sess.ID).
		Str("protocol_version", protocolVersion).
		Msg("session connected")

	return sess.ID, nil
}

// Disconnect removes the session. Unknown ids are a no-op, so a
// caller-initiated disconnect can race a sweep eviction safely.
func (r *Registry) Disconnect(id string) {
	r.mu.Lock()
	removed := r.removeLocked(id, StateDisconnected)
	active := r.activeLocked()
	r.mu.Unlock()

	if removed {
		observability.SetActiveSessions(active)
		r.log.Info().Str("session_id", id).Msg("session disconnected")
	}
}

// Heartbeat refreshes the session's liveness and resets its error count.
// It returns false, without mutating anything, when the id is unknown.
func (r *Registry) Heartbeat(id string) bool {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	if ok {
		sess.LastHeartbeat = timeNow()
		sess.ErrorCount = 0
	}
	r.mu.Unlock()

	observability.RecordHeartbeat(ok)
	if !ok {
		r.log.Warn().Str("session_id", id).Msg("heartbeat for unknown session")
		return false
	}
	r.log.Debug().Str("session_id", id).Msg("heartbeat")
	return true
}

// Get returns a snapshot of the session, or false if it is not tracked.
func (r *Registry) Get(id string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[id]
	if !ok {
		return Session{}, false
	}
	return sess.snapshot(), true
}

// Active returns snapshots of all sessions currently in the Connected
// state, in no particular order.
func (r *Registry) Active() []Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		if sess.State == StateConnected {
			out = append(out, sess.snapshot())
		}
	}
	return out
}

// Stats computes aggregate counters from a live scan of the index.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := Stats{TotalSessions: len(r.sessions)}
	seen := make(map[string]struct{})
	for _, sess := range r.sessions {
		if sess.State == StateConnected {
			st.ActiveSessions++
		}
		seen[sess.ProtocolVersion] = struct{}{}
	}
	st.ProtocolVersions = make([]string, 0, len(seen))
	for v := range seen {
		st.ProtocolVersions = append(st.ProtocolVersions, v)
	}
	sort.Strings(st.ProtocolVersions)
	return st
}

// Start launches the background liveness sweep. Calling Start on a
// running registry is a no-op.
func (r *Registry) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return
	}
	r.running = true
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	go r.sweepLoop(r.stop, r.done)
	r.log.Info().
		Dur("heartbeat_interval", r.cfg.HeartbeatInterval).
		Int("max_error_count", r.cfg.MaxErrorCount).
		Msg("session registry started")
}

// Stop cancels the sweep — interrupting an in-flight sleep — waits for it
// to exit, then disconnects every remaining session so no record survives
// the registry's own shutdown. Safe to call on a stopped registry.
func (r *Registry) Stop() {
	r.mu.Lock()
	wasRunning := r.running
	r.running = false
	stop, done := r.stop, r.done
	r.mu.Unlock()

	if wasRunning {
		close(stop)
		<-done
	}

	r.mu.Lock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	for _, id := range ids {
		r.removeLocked(id, StateDisconnected)
	}
	r.mu.Unlock()

	observability.SetActiveSessions(0)
	r.log.Info().Int("drained", len(ids)).Msg("session registry stopped")
}

// removeLocked is the single removal path shared by Disconnect, sweep
// eviction, and Stop. Caller must hold r.mu.
func (r *Registry) removeLocked(id string, final State) bool {
	sess, ok := r.sessions[id]
	if !ok {
		return false
	}
	sess.State = final
	delete(r.sessions, id)
	return true
}

// activeLocked counts Connected sessions. Caller must hold r.mu.
func (r *Registry) activeLocked() int {
	n := 0
	for _, sess := range r.sessions {
		if sess.State == StateConnected {
			n++
		}
	}
	return n
}

// sweepLoop is the long-running supervisor: sleep one interval, run one
// sweep, and on an internal fault log it and back off briefly instead of
// dying. The stop channel is observed around every sleep.
func (r *Registry) sweepLoop(stop, done chan struct{}) {
	defer close(done)
	for {
		if !waitOrStop(stop, r.cfg.HeartbeatInterval) {
			return
		}
		if err := r.sweepSafe(); err != nil {
			r.log.Error().Err(err).Msg("sweep failed, backing off")
			if !waitOrStop(stop, r.cfg.SweepBackoff) {
				return
			}
		}
	}
}

// sweepSafe converts a panic inside one sweep cycle into an error so the
// loop survives it.
func (r *Registry) sweepSafe() (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("sweep panic: %v", p)
		}
	}()
	r.sweep()
	return nil
}

// sweep runs one liveness pass: every Connected session idle for more
// than twice the heartbeat interval accrues an error; at MaxErrorCount it
// transitions to StateError and leaves through the same removal path as
// an explicit disconnect.
func (r *Registry) sweep() {
	now := timeNow()
	timeout := 2 * r.cfg.HeartbeatInterval

	r.mu.Lock()
	var expired []string
	for id, sess := range r.sessions {
		if sess.State != StateConnected {
			continue
		}
		idle := now.Sub(sess.LastHeartbeat)
		if idle <= timeout {
			continue
		}
		sess.ErrorCount++
		r.log.Warn().
			Str("session_id", id).
			Dur("idle", idle).
			Int("error_count", sess.ErrorCount).
			Msg("session heartbeat timed out")
		if sess.ErrorCount >= r.cfg.MaxErrorCount {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		r.removeLocked(id, StateError)
		r.log.Info().Str("session_id", id).Msg("session expired")
	}
	active := r.activeLocked()
	r.mu.Unlock()

	if len(expired) > 0 {
		observability.RecordSessionsExpired(len(expired))
		observability.SetActiveSessions(active)
	}
}

// waitOrStop sleeps for d but returns false as soon as stop closes, so
// Stop never waits out an in-flight sleep.
func waitOrStop(stop chan struct{}, d time.Duration) bool {
	select {
	case <-stop:
		return false
	default:
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-stop:
		return false
	case <-t.C:
		return true
	}
}
