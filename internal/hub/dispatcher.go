package hub

import (
	"encoding/json"

	"github.com/MrNobodyNowhere/secure-chat-app/internal/domain"
	"github.com/MrNobodyNowhere/secure-chat-app/pkg/log"
)

// Dispatcher pushes already-persisted messages to the recipient's live
// connections. Delivery is at-most-once and best-effort: there is no
// redelivery queue, and a recipient that was briefly offline recovers
// missed messages through a history read.
type Dispatcher struct {
	registry *Registry
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Dispatch delivers the message envelope to every connection registered
// for the recipient at call time. An offline recipient is a normal
// outcome, and a send failure on one connection neither aborts delivery
// to sibling connections nor fails the send-message operation that
// triggered the dispatch.
func (d *Dispatcher) Dispatch(msg *domain.Message) {
	conns := d.registry.ConnectionsFor(msg.RecipientID)
	if len(conns) == 0 {
		return
	}

	data, err := json.Marshal(domain.NewMessageEnvelope(msg))
	if err != nil {
		l := log.L()
		l.Error().Err(err).Int64(log.FieldMessageID, msg.ID).Msg("failed to encode message envelope")
		return
	}

	for _, c := range conns {
		if err := c.Enqueue(data); err != nil {
			l := log.L()
			l.Debug().Err(err).
				Str(log.FieldClientID, c.ID).
				Int64(log.FieldMessageID, msg.ID).
				Int64(log.FieldRecipientID, msg.RecipientID).
				Msg("dropped message frame")
		}
	}
}
