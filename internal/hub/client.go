package hub

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/MrNobodyNowhere/secure-chat-app/internal/config"
	"github.com/MrNobodyNowhere/secure-chat-app/pkg/log"
)

// ErrSendBufferFull is returned by Enqueue when the client's send
// buffer is saturated. The frame is dropped (delivery is best-effort)
// and the connection stays registered; a stalled transport is pruned by
// its own teardown path, not by the sender.
var ErrSendBufferFull = errors.New("client send buffer is full")

// Client is a single live bidirectional connection owned by one
// admitted session. It is created on admission and never reused.
type Client struct {
	ID       string
	UserID   int64
	Username string

	conn *websocket.Conn
	send chan []byte
	cfg  config.WebSocketConfig

	closeOnce sync.Once
	done      chan struct{}
}

// NewClient wraps an upgraded websocket connection for the given
// identity.
func NewClient(userID int64, username string, conn *websocket.Conn, cfg config.WebSocketConfig) *Client {
	bufSize := cfg.SendBufferSize
	if bufSize <= 0 {
		bufSize = 256
	}
	return &Client{
		ID:       uuid.New().String(),
		UserID:   userID,
		Username: username,
		conn:     conn,
		send:     make(chan []byte, bufSize),
		cfg:      cfg,
		done:     make(chan struct{}),
	}
}

// Enqueue queues a frame for delivery without blocking.
func (c *Client) Enqueue(data []byte) error {
	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return errors.New("client is closed")
	default:
		return ErrSendBufferFull
	}
}

// ReadPump consumes inbound frames until the transport closes, passing
// each frame to the handler. It blocks; run it on the goroutine that
// owns the session. The session loop never waits on another connection.
func (c *Client) ReadPump(inbound func(*Client, []byte)) {
	defer c.Close()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				l := log.L()
				l.Debug().Err(err).Str(log.FieldClientID, c.ID).Msg("websocket read failed")
			}
			return
		}
		inbound(c, message)
	}
}

// WritePump drains the send buffer onto the transport and keeps the
// connection alive with protocol-level pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// Close tears down the transport. Safe to call more than once; closing
// the transport is the only cancellation signal a session has.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}
