package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client owns one websocket connection. Inbound frames are handed to
// onMessage from the read pump; outbound frames go through the buffered send
// channel and the write pump, so slow readers never block dispatch.
type Client struct {
	ctx       context.Context
	id        string
	conn      *websocket.Conn
	send      chan []byte
	mu        sync.Mutex
	closed    bool
	onMessage func(*Client, []byte)
	onClose   func(*Client)
}

func NewClient(ctx context.Context, conn *websocket.Conn, onMessage func(*Client, []byte), onClose func(*Client)) *Client {
	return &Client{
		ctx:       ctx,
		id:        uuid.NewString(),
		conn:      conn,
		send:      make(chan []byte, 256),
		onMessage: onMessage,
		onClose:   onClose,
	}
}

// ID returns the connection's opaque identifier, used only for logging.
func (c *Client) ID() string {
	return c.id
}

func (c *Client) ReadPump() {
	defer func() {
		if c.onClose != nil {
			c.onClose(c)
		}
		if err := c.conn.Close(); err != nil {
			slog.Debug("failed to close websocket connection", "conn_id", c.id, "error", err)
		}
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			_, message, err := c.conn.ReadMessage()
			if err != nil {
				// If the loop is ending due to context cancellation, don't log it as an error.
				if c.ctx.Err() != nil {
					return
				}
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					slog.Error("websocket error", "conn_id", c.id, "error", err)
				}
				return
			}

			if c.onMessage != nil {
				c.onMessage(c, message)
			}
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		if err := c.conn.Close(); err != nil {
			slog.Debug("failed to close websocket connection", "conn_id", c.id, "error", err)
		}
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		case message, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		}
	}
}

// Send queues a frame for the write pump. A client whose buffer is full is
// considered dead and gets closed instead of blocking the caller.
func (c *Client) Send(msg []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- msg:
	default:
		c.closed = true
		close(c.send)
	}
}

// SendJSON marshals v and queues it.
func (c *Client) SendJSON(v any) {
	frame, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal outbound envelope", "conn_id", c.id, "error", err)
		return
	}
	c.Send(frame)
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}
