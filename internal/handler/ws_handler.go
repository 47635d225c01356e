package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/MrNobodyNowhere/secure-chat-app/internal/auth"
	"github.com/MrNobodyNowhere/secure-chat-app/internal/config"
	"github.com/MrNobodyNowhere/secure-chat-app/internal/domain"
	"github.com/MrNobodyNowhere/secure-chat-app/internal/hub"
	"github.com/MrNobodyNowhere/secure-chat-app/pkg/log"
)

// CloseCodeAuthFailure is the close code sent when the connection
// credential is absent or does not validate.
const CloseCodeAuthFailure = 4401

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler owns the streaming session loop: admission, registration,
// keepalive, and teardown of each websocket connection.
type WSHandler struct {
	registry *hub.Registry
	presence *hub.PresenceBroadcaster
	tokens   *auth.Manager
	wsCfg    config.WebSocketConfig
}

// NewWSHandler creates a new websocket handler.
func NewWSHandler(registry *hub.Registry, presence *hub.PresenceBroadcaster, tokens *auth.Manager, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		registry: registry,
		presence: presence,
		tokens:   tokens,
		wsCfg:    wsCfg,
	}
}

// RegisterRoutes registers the streaming entry point.
func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws", h.HandleWS)
}

// HandleWS upgrades the connection, admits it against the bearer
// credential carried as a query parameter, and runs the session until
// the transport closes. A session's identity is fixed at admission;
// there is no re-authentication and no token refresh.
func (h *WSHandler) HandleWS(c *gin.Context) {
	l := log.Ctx(c.Request.Context())

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	token := c.Query("token")
	if token == "" {
		h.reject(conn, "authentication required")
		return
	}

	claims, err := h.tokens.Validate(token)
	if err != nil {
		// Expected client error; MissingClaims gets its own log line
		// for observability but the same close code on the wire.
		if errors.Is(err, auth.ErrMissingClaims) {
			l.Debug().Err(err).Msg("websocket credential missing claims")
		} else {
			l.Debug().Err(err).Msg("websocket credential rejected")
		}
		h.reject(conn, "authentication failed")
		return
	}

	userID, err := claims.UserID()
	if err != nil {
		h.reject(conn, "authentication failed")
		return
	}

	client := hub.NewClient(userID, claims.Username, conn, h.wsCfg)
	go client.WritePump()

	if h.registry.Register(userID, client) {
		h.presence.Broadcast(userID, true)
	}
	l.Info().
		Str(log.FieldClientID, client.ID).
		Int64(log.FieldUserID, userID).
		Str(log.FieldUsername, claims.Username).
		Msg("websocket session admitted")

	// Blocks until the transport closes, locally or remotely.
	client.ReadPump(h.handleFrame)

	if h.registry.Deregister(userID, client) {
		h.presence.Broadcast(userID, false)
	}
	l.Info().
		Str(log.FieldClientID, client.ID).
		Int64(log.FieldUserID, userID).
		Msg("websocket session closed")
}

// handleFrame processes one inbound frame. Only ping is recognized;
// anything else, including frames that do not parse, is ignored so
// that newer clients can speak newer message kinds without being
// disconnected.
func (h *WSHandler) handleFrame(c *hub.Client, frame []byte) {
	var in domain.InboundFrame
	if err := json.Unmarshal(frame, &in); err != nil {
		return
	}

	if in.Type == domain.MsgTypePing {
		data, err := json.Marshal(domain.NewPongEnvelope())
		if err != nil {
			return
		}
		if err := c.Enqueue(data); err != nil {
			l := log.L()
			l.Debug().Err(err).Str(log.FieldClientID, c.ID).Msg("dropped pong frame")
		}
	}
}

// reject closes a connection that failed admission. The registry is
// never touched on this path.
func (h *WSHandler) reject(conn *websocket.Conn, reason string) {
	deadline := time.Now().Add(h.wsCfg.WriteWait)
	conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(CloseCodeAuthFailure, reason), deadline)
	conn.Close()
}
