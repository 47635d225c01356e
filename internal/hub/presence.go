package hub

import (
	"encoding/json"

	"github.com/MrNobodyNowhere/secure-chat-app/internal/domain"
	"github.com/MrNobodyNowhere/secure-chat-app/pkg/log"
)

// PresenceBroadcaster announces online/offline transitions to every
// currently connected user. The session loop triggers it exactly twice
// per maximal run of a user's connections: once when the registry
// reports a first connection and once when the set becomes empty.
type PresenceBroadcaster struct {
	registry *Registry
}

// NewPresenceBroadcaster creates a broadcaster over the given registry.
func NewPresenceBroadcaster(registry *Registry) *PresenceBroadcaster {
	return &PresenceBroadcaster{registry: registry}
}

// Broadcast pushes a presence event to every live connection. A send
// failure on one connection never aborts delivery to the others; the
// broadcast as a whole cannot fail.
func (b *PresenceBroadcaster) Broadcast(userID int64, online bool) {
	data, err := json.Marshal(domain.NewPresenceEnvelope(userID, online))
	if err != nil {
		l := log.L()
		l.Error().Err(err).Int64(log.FieldUserID, userID).Msg("failed to encode presence event")
		return
	}

	for _, uid := range b.registry.UserIDs() {
		for _, c := range b.registry.ConnectionsFor(uid) {
			if err := c.Enqueue(data); err != nil {
				l := log.L()
				l.Debug().Err(err).
					Str(log.FieldClientID, c.ID).
					Int64(log.FieldUserID, userID).
					Bool("online", online).
					Msg("dropped presence frame")
			}
		}
	}
}
