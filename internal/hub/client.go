package hub

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/talhadevelopes/a11yguard-sub001/internal/config"
	"github.com/talhadevelopes/a11yguard-sub001/internal/domain"
	"github.com/talhadevelopes/a11yguard-sub001/pkg/log"
)

type Client struct {
	ID       string
	Identity domain.Identity
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	config   config.WebSocketConfig
}

func NewClient(hub *Hub, conn *websocket.Conn, identity domain.Identity, cfg config.WebSocketConfig) *Client {
	buf := cfg.SendBuffer
	if buf <= 0 {
		buf = 256
	}
	return &Client{
		ID:       identity.ConnID,
		Identity: identity,
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, buf),
		config:   cfg,
	}
}

// trySend queues a frame without blocking. It is only called from the hub loop.
func (c *Client) trySend(message []byte) bool {
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// ReadPump reads frames until the connection fails, then unregisters the client.
// handler is invoked sequentially, preserving per-connection order.
func (c *Client) ReadPump(handler func(*Client, []byte)) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				l := log.L()
				l.Warn().Err(err).Str(log.FieldConnID, c.ID).Msg("websocket read error")
			}
			break
		}

		handler(c, message)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
