package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

// Client — одно WebSocket-соединение, привязанное к пользователю.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	identity Identity
	sendCh   chan []byte
}

// NewClient создаёт подписку на hub для готового соединения.
func NewClient(hub *Hub, conn *websocket.Conn, identity Identity) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		identity: identity,
		sendCh:   make(chan []byte, 256),
	}
}

// Start регистрирует клиента в hub и запускает насосы чтения/записи.
func (c *Client) Start(ctx context.Context) {
	c.hub.register <- c

	go c.writePump()
	go c.readPump(ctx)
}

// readPump читает события клиента и передаёт их hub.dispatch.
// Битые кадры пропускаются, соединение живёт дальше.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("realtime_read_failed",
					slog.String("user_id", c.identity.UserID.String()),
					slog.String("err", err.Error()),
				)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.hub.log.Warn("realtime_bad_frame",
				slog.String("user_id", c.identity.UserID.String()),
				slog.String("err", err.Error()),
			)
			continue
		}

		if env.Event == "" {
			continue
		}

		c.hub.dispatch(ctx, c.identity, env)
	}
}

// writePump пишет исходящие кадры и поддерживает соединение ping-ами.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.sendCh:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
