package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor (matches internal/middleware context keys)
	FieldUserID   = "user_id"
	FieldUsername = "username"

	// Streaming
	FieldClientID    = "client_id"
	FieldRecipientID = "recipient_id"
	FieldMessageID   = "message_id"
)
