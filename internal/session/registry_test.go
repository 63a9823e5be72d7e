package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// --- Test helpers ---

// clock replaces timeNow with a controllable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock(t *testing.T) *clock {
	t.Helper()
	c := &clock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	orig := timeNow
	timeNow = c.Now
	t.Cleanup(func() { timeNow = orig })
	return c
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestRegistry(cfg Config) *Registry {
	return NewRegistry(cfg, zerolog.Nop())
}

// --- Connect ---

func TestConnectUniqueIDs(t *testing.T) {
	r := newTestRegistry(Config{})

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := r.Connect("2.1", nil)
		if err != nil {
			t.Fatalf("Connect failed: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate session id %s", id)
		}
		seen[id] = true
	}

	if st := r.Stats(); st.ActiveSessions != 100 {
		t.Errorf("ActiveSessions = %d, want 100", st.ActiveSessions)
	}
}

func TestConnectSupportedVersions(t *testing.T) {
	r := newTestRegistry(Config{})

	for _, v := range []string{"2.0", "2.1", "2.2"} {
		id, err := r.Connect(v, nil)
		if err != nil {
			t.Fatalf("Connect(%q) failed: %v", v, err)
		}
		sess, ok := r.Get(id)
		if !ok {
			t.Fatalf("session %s not found after Connect", id)
		}
		if sess.ProtocolVersion != v {
			t.Errorf("ProtocolVersion = %q, want %q", sess.ProtocolVersion, v)
		}
		if sess.State != StateConnected {
			t.Errorf("State = %v, want StateConnected", sess.State)
		}
	}
}

func TestConnectUnsupportedVersion(t *testing.T) {
	r := newTestRegistry(Config{})

	_, err := r.Connect("1.0", nil)
	if !errors.Is(err, ErrUnsupportedProtocolVersion) {
		t.Fatalf("err = %v, want ErrUnsupportedProtocolVersion", err)
	}
	if st := r.Stats(); st.TotalSessions != 0 {
		t.Errorf("TotalSessions = %d after failed connect, want 0", st.TotalSessions)
	}
}

func TestConnectEmptyVersionUsesDefault(t *testing.T) {
	r := newTestRegistry(Config{})

	id, err := r.Connect("", nil)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	sess, _ := r.Get(id)
	if sess.ProtocolVersion != "2.1" {
		t.Errorf("ProtocolVersion = %q, want default 2.1", sess.ProtocolVersion)
	}
}

func TestConnectClonesClientInfo(t *testing.T) {
	r := newTestRegistry(Config{})

	info := map[string]string{"name": "client"}
	id, err := r.Connect("2.1", info)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	info["name"] = "mutated"

	sess, _ := r.Get(id)
	if sess.ClientInfo["name"] != "client" {
		t.Errorf("ClientInfo name = %q, caller mutation leaked in", sess.ClientInfo["name"])
	}
}

func TestGetReturnsSnapshot(t *testing.T) {
	r := newTestRegistry(Config{})
	id, _ := r.Connect("2.1", map[string]string{"name": "client"})

	snap, _ := r.Get(id)
	snap.ClientInfo["name"] = "mutated"

	again, _ := r.Get(id)
	if again.ClientInfo["name"] != "client" {
		t.Errorf("ClientInfo name = %q, snapshot mutation leaked in", again.ClientInfo["name"])
	}
}

// --- Heartbeat ---

func TestHeartbeatUnknownSession(t *testing.T) {
	r := newTestRegistry(Config{})
	if r.Heartbeat("nope") {
		t.Error("Heartbeat returned true for unknown session")
	}
}

func TestHeartbeatRefreshesLiveness(t *testing.T) {
	clk := newClock(t)
	r := newTestRegistry(Config{})
	id, _ := r.Connect("2.1", nil)

	clk.Advance(10 * time.Minute)
	if !r.Heartbeat(id) {
		t.Fatal("Heartbeat returned false for known session")
	}

	sess, _ := r.Get(id)
	if !sess.LastHeartbeat.Equal(clk.Now()) {
		t.Errorf("LastHeartbeat = %v, want %v", sess.LastHeartbeat, clk.Now())
	}
}

func TestHeartbeatResetsErrorCount(t *testing.T) {
	clk := newClock(t)
	r := newTestRegistry(Config{HeartbeatInterval: 30 * time.Second, MaxErrorCount: 3})
	id, _ := r.Connect("2.1", nil)

	// Two stale sweeps, one short of eviction.
	clk.Advance(90 * time.Second)
	r.sweep()
	clk.Advance(30 * time.Second)
	r.sweep()

	sess, _ := r.Get(id)
	if sess.ErrorCount != 2 {
		t.Fatalf("ErrorCount = %d before heartbeat, want 2", sess.ErrorCount)
	}

	r.Heartbeat(id)
	sess, _ = r.Get(id)
	if sess.ErrorCount != 0 {
		t.Errorf("ErrorCount = %d after heartbeat, want 0", sess.ErrorCount)
	}
}

// --- Disconnect ---

func TestDisconnect(t *testing.T) {
	r := newTestRegistry(Config{})
	id, _ := r.Connect("2.1", nil)

	r.Disconnect(id)
	if _, ok := r.Get(id); ok {
		t.Error("session still tracked after Disconnect")
	}
	if r.Heartbeat(id) {
		t.Error("Heartbeat succeeded after Disconnect")
	}

	// Unknown ids are a no-op.
	r.Disconnect(id)
	r.Disconnect("nope")
}

// --- Sweep ---

func TestSweepEvictsAfterMaxErrors(t *testing.T) {
	clk := newClock(t)
	r := newTestRegistry(Config{HeartbeatInterval: 30 * time.Second, MaxErrorCount: 3})
	id, _ := r.Connect("2.1", nil)

	// Idle exactly 2x the interval: not yet stale.
	clk.Advance(60 * time.Second)
	r.sweep()
	sess, _ := r.Get(id)
	if sess.ErrorCount != 0 {
		t.Fatalf("ErrorCount = %d at exactly 2x interval, want 0", sess.ErrorCount)
	}

	// Three stale sweeps in a row evict the session.
	clk.Advance(30 * time.Second)
	r.sweep()
	sess, _ = r.Get(id)
	if sess.ErrorCount != 1 {
		t.Fatalf("ErrorCount = %d after first stale sweep, want 1", sess.ErrorCount)
	}

	clk.Advance(30 * time.Second)
	r.sweep()
	sess, _ = r.Get(id)
	if sess.ErrorCount != 2 {
		t.Fatalf("ErrorCount = %d after second stale sweep, want 2", sess.ErrorCount)
	}

	clk.Advance(30 * time.Second)
	r.sweep()
	if _, ok := r.Get(id); ok {
		t.Error("session still tracked after third stale sweep")
	}
}

func TestSweepSparesHealthySessions(t *testing.T) {
	clk := newClock(t)
	r := newTestRegistry(Config{HeartbeatInterval: 30 * time.Second, MaxErrorCount: 3})
	quiet, _ := r.Connect("2.1", nil)
	chatty, _ := r.Connect("2.2", nil)

	for i := 0; i < 5; i++ {
		clk.Advance(90 * time.Second)
		r.Heartbeat(chatty)
		r.sweep()
	}

	if _, ok := r.Get(quiet); ok {
		t.Error("quiet session survived repeated stale sweeps")
	}
	if _, ok := r.Get(chatty); !ok {
		t.Error("heartbeating session was evicted")
	}
}

func TestSweepSurvivesPanic(t *testing.T) {
	r := newTestRegistry(Config{})
	err := func() (err error) {
		defer func() {
			if p := recover(); p != nil {
				t.Fatalf("panic escaped sweepSafe: %v", p)
			}
		}()
		return r.sweepSafe()
	}()
	if err != nil {
		t.Fatalf("sweepSafe returned %v for a clean sweep", err)
	}
}

// --- Stats ---

func TestStats(t *testing.T) {
	r := newTestRegistry(Config{})
	r.Connect("2.0", nil)
	r.Connect("2.1", nil)
	id, _ := r.Connect("2.1", nil)
	r.Disconnect(id)

	st := r.Stats()
	if st.TotalSessions != 2 {
		t.Errorf("TotalSessions = %d, want 2", st.TotalSessions)
	}
	if st.ActiveSessions != 2 {
		t.Errorf("ActiveSessions = %d, want 2", st.ActiveSessions)
	}
	want := []string{"2.0", "2.1"}
	if len(st.ProtocolVersions) != len(want) {
		t.Fatalf("ProtocolVersions = %v, want %v", st.ProtocolVersions, want)
	}
	for i, v := range want {
		if st.ProtocolVersions[i] != v {
			t.Errorf("ProtocolVersions[%d] = %q, want %q", i, st.ProtocolVersions[i], v)
		}
	}
}

func TestActive(t *testing.T) {
	r := newTestRegistry(Config{})
	r.Connect("2.1", nil)
	r.Connect("2.2", nil)

	active := r.Active()
	if len(active) != 2 {
		t.Fatalf("got %d active sessions, want 2", len(active))
	}
	for _, sess := range active {
		if sess.State != StateConnected {
			t.Errorf("active session %s has state %v", sess.ID, sess.State)
		}
	}
}

// --- Start / Stop ---

func TestStartStop(t *testing.T) {
	r := newTestRegistry(Config{HeartbeatInterval: time.Hour})
	for i := 0; i < 5; i++ {
		r.Connect("2.1", nil)
	}

	r.Start()
	r.Start() // no-op on a running registry

	r.Stop()
	if st := r.Stats(); st.TotalSessions != 0 {
		t.Errorf("TotalSessions = %d after Stop, want 0", st.TotalSessions)
	}
}

func TestStopWithoutStart(t *testing.T) {
	r := newTestRegistry(Config{})
	r.Connect("2.1", nil)
	r.Stop()
	if st := r.Stats(); st.TotalSessions != 0 {
		t.Errorf("TotalSessions = %d after Stop, want 0", st.TotalSessions)
	}
}

func TestRestart(t *testing.T) {
	r := newTestRegistry(Config{HeartbeatInterval: time.Hour})
	r.Start()
	r.Stop()
	r.Start()
	if _, err := r.Connect("2.1", nil); err != nil {
		t.Fatalf("Connect after restart failed: %v", err)
	}
	r.Stop()
}

func TestStopInterruptsSweepSleep(t *testing.T) {
	r := newTestRegistry(Config{HeartbeatInterval: time.Hour})
	r.Start()

	doneCh := make(chan struct{})
	go func() {
		r.Stop()
		close(doneCh)
	}()

	select {
	case <-doneCh:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not interrupt the sweep sleep")
	}
}

// --- Concurrency ---

func TestConcurrentHeartbeatsAndSweeps(t *testing.T) {
	newClock(t)
	r := newTestRegistry(Config{HeartbeatInterval: 30 * time.Second, MaxErrorCount: 3})

	ids := make([]string, 20)
	for i := range ids {
		ids[i], _ = r.Connect("2.1", nil)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				r.Heartbeat(id)
			}
		}(id)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			r.sweep()
		}
	}()
	wg.Wait()

	// Frozen clock: nothing ever goes stale.
	if st := r.Stats(); st.ActiveSessions != len(ids) {
		t.Errorf("ActiveSessions = %d, want %d", st.ActiveSessions, len(ids))
	}
}

// --- Config defaults ---

func TestNewRegistryAppliesDefaults(t *testing.T) {
	r := newTestRegistry(Config{})
	if r.HeartbeatInterval() != 30*time.Second {
		t.Errorf("HeartbeatInterval = %v, want 30s", r.HeartbeatInterval())
	}
	if r.DefaultVersion() != "2.1" {
		t.Errorf("DefaultVersion = %q, want 2.1", r.DefaultVersion())
	}
	if !r.Supported("2.0") || r.Supported("3.0") {
		t.Error("Supported gate does not match defaults")
	}
}
