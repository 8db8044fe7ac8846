package chat

import "sync"

// Registry is the shared directory of currently reachable users. It maps a
// user id to the single live connection for that user; registering again
// under the same id replaces the previous entry.
//
// All methods are safe under arbitrary concurrent callers. The structural
// lock is only held to manipulate the map, never across a network write.
type Registry struct {
	mu      sync.RWMutex
	clients map[uint]*Client
}

func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[uint]*Client),
	}
}

// Register inserts or replaces the entry for userID and returns the
// superseded client, if any. The caller is responsible for closing it:
// the swap itself never performs I/O.
func (r *Registry) Register(userID uint, c *Client) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.clients[userID]
	r.clients[userID] = c
	return old
}

// Unregister removes the entry for userID only if it still points at c.
// A late disconnect from a superseded session therefore cannot erase the
// entry of the session that replaced it.
func (r *Registry) Unregister(userID uint, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.clients[userID] == c {
		delete(r.clients, userID)
	}
}

// Lookup returns the live connection for userID, if any.
func (r *Registry) Lookup(userID uint) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[userID]
	return c, ok
}

// IsConnected checks if a user has a live connection.
func (r *Registry) IsConnected(userID uint) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.clients[userID]
	return ok
}

// SendTo delivers payload to userID's connection, if registered. Returns
// false when the user is absent or the write fails. Write errors are
// swallowed here: the recipient's own session detects its broken transport
// independently, and delivery is best-effort.
func (r *Registry) SendTo(userID uint, payload []byte) bool {
	c, ok := r.Lookup(userID)
	if !ok {
		return false
	}
	return c.Send(payload) == nil
}
