package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/binhbb2204/nocturne/internal/apperr"
	"github.com/binhbb2204/nocturne/internal/reader"
	"github.com/binhbb2204/nocturne/pkg/logger"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client is one live reader connection.
type Client struct {
	ID          string
	UserID      string
	NovelID     string
	Conn        *websocket.Conn
	Send        chan []byte
	Manager     *Manager
	Session     *reader.Session
	ConnectedAt time.Time
	log         *logger.Logger

	rateTokens int
	rateLast   time.Time
	mu         sync.Mutex
}

const (
	rateLimit  = 20
	rateWindow = 10 * time.Second
)

func (c *Client) ReadPump(h *Handler) {
	defer func() {
		select {
		case c.Manager.unregister <- c:
		case <-c.Manager.stop:
		}
		c.Session.Close()
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Error("ws_read_failed", "client_id", c.ID, "error", err.Error())
			}
			return
		}
		if !c.consumeRateToken() {
			c.sendError(apperr.New(apperr.CodeValidation, "rate limit exceeded"))
			continue
		}
		if err := h.HandleClientMessage(c, message); err != nil {
			c.log.Warn("ws_message_failed", "client_id", c.ID, "error", err.Error())
		}
	}
}

func (c *Client) WritePump() {
	defer c.Conn.Close()
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) consumeRateToken() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	if now.Sub(c.rateLast) >= rateWindow {
		c.rateTokens = rateLimit
		c.rateLast = now
	}
	if c.rateTokens <= 0 {
		return false
	}
	c.rateTokens--
	return true
}

func (c *Client) sendView(t MessageType, v reader.View) {
	c.send(ServerMessage{Type: t, View: &v})
}

func (c *Client) sendError(err error) {
	c.send(ServerMessage{Type: MessageTypeError, Error: err.Error(), Code: apperr.CodeOf(err)})
}

func (c *Client) send(msg ServerMessage) {
	msg.ID = uuid.New().String()
	msg.Timestamp = time.Now()
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.Error("ws_marshal_failed", "error", err.Error())
		return
	}
	if !c.Manager.deliver(c, data) {
		c.log.Debug("ws_message_dropped", "client_id", c.ID, "type", msg.Type)
	}
}

// refresh re-fetches the novel and pushes the updated view.
func (c *Client) refresh(ctx context.Context) {
	v, err := c.Session.Refresh(ctx)
	if err != nil {
		c.log.Warn("ws_refresh_failed", "client_id", c.ID, "error", err.Error())
		return
	}
	c.sendView(MessageTypeRefresh, v)
}
