package websocket

import (
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client is the transport half of a connection: the socket plus its
// buffered outbound queue. Frame semantics live in Session.
type Client struct {
	// The websocket connection.
	Conn *websocket.Conn

	// Identity resolved during the handshake.
	UserId   uuid.UUID
	Username string

	// Buffered channel of outbound messages. Writers go through trySend;
	// Hub.Leave closes it through closeSend. The mutex serializes the two,
	// so a send can never land on the closed channel.
	Send chan []byte

	mu     sync.Mutex
	closed bool
}

func NewClient(conn *websocket.Conn, userId uuid.UUID, username string, sendBufferSize int) *Client {
	return &Client{
		Conn:     conn,
		UserId:   userId,
		Username: username,
		Send:     make(chan []byte, sendBufferSize),
	}
}

// trySend queues data without blocking. False means the buffer is full or
// the channel is already closed; the caller decides what to do with the
// client.
func (c *Client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// closeSend closes the send channel exactly once.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

// writePump pumps messages from the hub to the websocket connection.
// One writer goroutine per connection; also drives the ping heartbeat.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Flush any events queued behind this one.
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
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
