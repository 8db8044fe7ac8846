package chat

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// writeTimeout bounds a single websocket write. A slow or dead peer fails
// the write instead of wedging whoever is delivering to it.
const writeTimeout = 5 * time.Second

// wire is the writable subset of *websocket.Conn a Client needs. Tests
// substitute an in-memory implementation.
type wire interface {
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Client is the writable half of one live websocket connection, owned by the
// session that created it and referenced by the registry while registered.
// Writes from concurrent deliveries are serialized by a mutex;
// gorilla/websocket allows at most one writer at a time.
type Client struct {
	userID uint
	conn   wire

	sendMutex sync.Mutex
	closed    uint32
}

func newClient(userID uint, conn wire) *Client {
	return &Client{userID: userID, conn: conn}
}

// UserID returns the authenticated identity this connection belongs to.
func (c *Client) UserID() uint {
	return c.userID
}

// Send writes one text frame. Safe for concurrent use.
func (c *Client) Send(payload []byte) error {
	c.sendMutex.Lock()
	defer c.sendMutex.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Close tears down the underlying connection. Safe to call multiple times
// and from multiple goroutines; only the first call has any effect.
func (c *Client) Close() error {
	if atomic.CompareAndSwapUint32(&c.closed, 0, 1) {
		return c.conn.Close()
	}
	return nil
}

// closeWithCode sends a close frame with the given status before closing,
// so the peer learns why it was disconnected. Best effort.
func (c *Client) closeWithCode(code int, reason string) {
	c.sendMutex.Lock()
	msg := websocket.FormatCloseMessage(code, reason)
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout))
	c.sendMutex.Unlock()

	_ = c.Close()
}
