package chat

import (
	"sync"
	"time"
)

// mockWire is an in-memory wire implementation. Tests inspect sent to see
// what a connection was delivered, and flip failSend to simulate a peer
// whose transport errored mid-send.
type mockWire struct {
	mu       sync.Mutex
	sent     [][]byte
	closed   bool
	failSend bool
}

func (m *mockWire) WriteMessage(messageType int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSend || m.closed {
		return errWireClosed
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	m.sent = append(m.sent, cp)
	return nil
}

func (m *mockWire) WriteControl(messageType int, data []byte, deadline time.Time) error {
	return nil
}

func (m *mockWire) SetWriteDeadline(t time.Time) error { return nil }

func (m *mockWire) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockWire) messages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.sent))
	copy(out, m.sent)
	return out
}

func (m *mockWire) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

type wireError string

func (e wireError) Error() string { return string(e) }

const errWireClosed = wireError("wire closed")

// newTestClient builds a client over a fresh mock wire.
func newTestClient(userID uint) (*Client, *mockWire) {
	w := &mockWire{}
	return newClient(userID, w), w
}
