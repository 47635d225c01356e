package domain

// Wire protocol for the streaming channel. Two outbound envelope kinds
// exist (message, presence); the only recognized inbound kind is ping.
const (
	MsgTypeMessage  = "message"
	MsgTypePresence = "presence"
	MsgTypePing     = "ping"
	MsgTypePong     = "pong"
)

// Envelope wraps every frame sent to a client.
type Envelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// InboundFrame is the minimal shape parsed from client frames. Frames
// that do not unmarshal into it, or carry an unknown type, are ignored.
type InboundFrame struct {
	Type string `json:"type"`
}

// PresencePayload announces a user's online/offline transition. It is
// transient and never persisted.
type PresencePayload struct {
	UserID int64 `json:"user_id"`
	Online bool  `json:"online"`
}

// NewMessageEnvelope wraps a persisted message for delivery.
func NewMessageEnvelope(msg *Message) *Envelope {
	return &Envelope{Type: MsgTypeMessage, Payload: msg}
}

// NewPresenceEnvelope wraps a presence transition for broadcast.
func NewPresenceEnvelope(userID int64, online bool) *Envelope {
	return &Envelope{Type: MsgTypePresence, Payload: PresencePayload{UserID: userID, Online: online}}
}

// NewPongEnvelope answers an application-level ping.
func NewPongEnvelope() *Envelope {
	return &Envelope{Type: MsgTypePong}
}
