package hub

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/MrNobodyNowhere/secure-chat-app/internal/domain"
)

// nextFrame pops one queued frame from a client without blocking the
// test for long.
func nextFrame(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case data := <-c.send:
		return data
	default:
		t.Fatal("expected a queued frame, got none")
		return nil
	}
}

func frameCount(c *Client) int {
	return len(c.send)
}

func TestPresenceBroadcastReachesAllConnections(t *testing.T) {
	r := NewRegistry()
	p := NewPresenceBroadcaster(r)

	alice := newTestClient(1, "alice")
	bob1 := newTestClient(2, "bob")
	bob2 := newTestClient(2, "bob")
	r.Register(1, alice)
	r.Register(2, bob1)
	r.Register(2, bob2)

	p.Broadcast(1, true)

	for _, c := range []*Client{alice, bob1, bob2} {
		var env struct {
			Type    string                 `json:"type"`
			Payload domain.PresencePayload `json:"payload"`
		}
		if err := json.Unmarshal(nextFrame(t, c), &env); err != nil {
			t.Fatalf("failed to decode presence frame: %v", err)
		}
		if env.Type != domain.MsgTypePresence {
			t.Errorf("frame type = %q, want %q", env.Type, domain.MsgTypePresence)
		}
		if env.Payload.UserID != 1 || !env.Payload.Online {
			t.Errorf("presence payload = %+v, want user 1 online", env.Payload)
		}
	}
}

func TestPresenceBroadcastSurvivesFullBuffer(t *testing.T) {
	r := NewRegistry()
	p := NewPresenceBroadcaster(r)

	stuck := newTestClient(1, "alice")
	healthy := newTestClient(2, "bob")
	r.Register(1, stuck)
	r.Register(2, healthy)

	// Saturate the stuck client's buffer; the broadcast must still
	// reach the healthy one and must not panic or block.
	for i := 0; i < cap(stuck.send); i++ {
		stuck.send <- []byte("{}")
	}

	p.Broadcast(2, true)

	if frameCount(healthy) != 1 {
		t.Errorf("healthy client has %d frames, want 1", frameCount(healthy))
	}
	if len(r.ConnectionsFor(1)) != 1 {
		t.Error("a full send buffer must not deregister the connection")
	}
}

func TestDispatchDeliversToRecipientConnectionsOnly(t *testing.T) {
	r := NewRegistry()
	d := NewDispatcher(r)

	recipient1 := newTestClient(1, "alice")
	recipient2 := newTestClient(1, "alice")
	other := newTestClient(3, "carol")
	r.Register(1, recipient1)
	r.Register(1, recipient2)
	r.Register(3, other)

	msg := &domain.Message{
		ID:          42,
		SenderID:    2,
		RecipientID: 1,
		Content:     "hello there",
		CreatedAt:   time.Now(),
	}
	d.Dispatch(msg)

	var first, second struct {
		Type    string          `json:"type"`
		Payload *domain.Message `json:"payload"`
	}
	if err := json.Unmarshal(nextFrame(t, recipient1), &first); err != nil {
		t.Fatalf("failed to decode message frame: %v", err)
	}
	if err := json.Unmarshal(nextFrame(t, recipient2), &second); err != nil {
		t.Fatalf("failed to decode message frame: %v", err)
	}

	for _, env := range []struct {
		Type    string          `json:"type"`
		Payload *domain.Message `json:"payload"`
	}{first, second} {
		if env.Type != domain.MsgTypeMessage {
			t.Errorf("frame type = %q, want %q", env.Type, domain.MsgTypeMessage)
		}
		if env.Payload.ID != 42 || env.Payload.Content != "hello there" {
			t.Errorf("unexpected payload %+v", env.Payload)
		}
	}
	if first.Payload.ID != second.Payload.ID || first.Payload.Content != second.Payload.Content {
		t.Error("sibling connections should receive identical envelopes")
	}

	if frameCount(other) != 0 {
		t.Errorf("unrelated user received %d frames, want 0", frameCount(other))
	}
}

func TestDispatchToOfflineRecipientIsNormal(t *testing.T) {
	r := NewRegistry()
	d := NewDispatcher(r)

	// No registered connections at all; must be a silent no-op.
	d.Dispatch(&domain.Message{ID: 1, SenderID: 2, RecipientID: 9, Content: "hi"})
}

func TestDispatchSnapshotExcludesLateConnections(t *testing.T) {
	r := NewRegistry()
	d := NewDispatcher(r)

	early := newTestClient(1, "alice")
	r.Register(1, early)

	d.Dispatch(&domain.Message{ID: 7, SenderID: 2, RecipientID: 1, Content: "hi"})

	late := newTestClient(1, "alice")
	r.Register(1, late)

	if frameCount(early) != 1 {
		t.Errorf("early connection has %d frames, want 1", frameCount(early))
	}
	if frameCount(late) != 0 {
		t.Error("a connection registered after dispatch must not receive the message")
	}
}

func TestDuplicateTeardownProducesNoBroadcast(t *testing.T) {
	r := NewRegistry()
	p := NewPresenceBroadcaster(r)

	observer := newTestClient(5, "dave")
	r.Register(5, observer)

	b := newTestClient(6, "bob")
	if r.Register(6, b) {
		p.Broadcast(6, true)
	}
	if r.Deregister(6, b) {
		p.Broadcast(6, false)
	}
	// Duplicate teardown signal: no transition, so no broadcast.
	if r.Deregister(6, b) {
		p.Broadcast(6, false)
	}

	if got := frameCount(observer); got != 2 {
		t.Errorf("observer received %d presence frames, want exactly 2 (online, offline)", got)
	}
}
