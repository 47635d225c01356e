package hub

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/MrNobodyNowhere/secure-chat-app/internal/config"
)

func testWSConfig() config.WebSocketConfig {
	return config.WebSocketConfig{SendBufferSize: 16}
}

func newTestClient(userID int64, username string) *Client {
	return NewClient(userID, username, nil, testWSConfig())
}

func TestRegisterReportsFirstConnection(t *testing.T) {
	r := NewRegistry()
	c1 := newTestClient(1, "alice")
	c2 := newTestClient(1, "alice")

	if !r.Register(1, c1) {
		t.Error("first Register should report a first connection")
	}
	if r.Register(1, c2) {
		t.Error("second Register for the same user should not report a first connection")
	}
	if got := len(r.ConnectionsFor(1)); got != 2 {
		t.Errorf("ConnectionsFor returned %d connections, want 2", got)
	}
}

func TestDeregisterReportsBecameEmpty(t *testing.T) {
	r := NewRegistry()
	c1 := newTestClient(1, "alice")
	c2 := newTestClient(1, "alice")
	r.Register(1, c1)
	r.Register(1, c2)

	if r.Deregister(1, c1) {
		t.Error("Deregister should not report empty while another connection remains")
	}
	if !r.Deregister(1, c2) {
		t.Error("Deregister of the last connection should report empty")
	}
	if got := len(r.ConnectionsFor(1)); got != 0 {
		t.Errorf("ConnectionsFor returned %d connections after full teardown, want 0", got)
	}
}

func TestDeregisterIsIdempotent(t *testing.T) {
	r := NewRegistry()
	c := newTestClient(1, "alice")
	r.Register(1, c)

	if !r.Deregister(1, c) {
		t.Fatal("first Deregister should report empty")
	}
	if r.Deregister(1, c) {
		t.Error("duplicate Deregister must be a no-op, not a second transition")
	}
	if r.Deregister(99, c) {
		t.Error("Deregister for an unknown user must be a no-op")
	}
}

func TestRegistryNeverHoldsEmptySet(t *testing.T) {
	r := NewRegistry()
	c := newTestClient(1, "alice")

	r.Register(1, c)
	r.Deregister(1, c)

	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, set := range r.conns {
		if len(set) == 0 {
			t.Errorf("user %d maps to an empty connection set", id)
		}
	}
	if _, ok := r.conns[1]; ok {
		t.Error("user key should be pruned once its set becomes empty")
	}
}

func TestReconnectTriggersFreshTransition(t *testing.T) {
	r := NewRegistry()
	c1 := newTestClient(2, "bob")
	if !r.Register(2, c1) {
		t.Fatal("expected first-connection transition")
	}
	if !r.Deregister(2, c1) {
		t.Fatal("expected became-empty transition")
	}

	// A later run of connections is independent of the previous one.
	c2 := newTestClient(2, "bob")
	if !r.Register(2, c2) {
		t.Error("re-register after full teardown should report a first connection again")
	}
}

func TestSnapshotsAreIsolated(t *testing.T) {
	r := NewRegistry()
	c := newTestClient(1, "alice")
	r.Register(1, c)

	snap := r.ConnectionsFor(1)
	r.Deregister(1, c)

	if len(snap) != 1 {
		t.Error("snapshot taken before deregister should be unaffected by it")
	}
	if len(r.ConnectionsFor(1)) != 0 {
		t.Error("live lookup should reflect the deregister")
	}
}

func TestUserIDsSnapshot(t *testing.T) {
	r := NewRegistry()
	r.Register(1, newTestClient(1, "alice"))
	r.Register(2, newTestClient(2, "bob"))

	ids := r.UserIDs()
	if len(ids) != 2 {
		t.Fatalf("UserIDs returned %d ids, want 2", len(ids))
	}
	seen := map[int64]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	if !seen[1] || !seen[2] {
		t.Errorf("UserIDs = %v, want ids 1 and 2", ids)
	}
}

func TestConcurrentTransitionsBalance(t *testing.T) {
	r := NewRegistry()

	const workers = 64
	var first, empty int64
	var wg sync.WaitGroup

	// All workers churn connections for the same user. Every 0->1
	// transition must be matched by exactly one 1->0 transition.
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c := newTestClient(7, "carol")
				if r.Register(7, c) {
					atomic.AddInt64(&first, 1)
				}
				if r.Deregister(7, c) {
					atomic.AddInt64(&empty, 1)
				}
			}
		}()
	}
	wg.Wait()

	if first != empty {
		t.Errorf("unbalanced transitions: %d first-connection vs %d became-empty", first, empty)
	}
	if first == 0 {
		t.Error("expected at least one first-connection transition")
	}
	if got := r.ConnectionCount(); got != 0 {
		t.Errorf("registry still holds %d connections after churn", got)
	}
	if got := len(r.UserIDs()); got != 0 {
		t.Errorf("registry still holds %d user keys after churn", got)
	}
}
