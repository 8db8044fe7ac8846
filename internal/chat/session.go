package chat

import (
	"log"
	"net"
	"net/http"

	"messenger/pkg/protocol"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// TokenVerifier resolves an opaque credential to a user identity. The relay
// treats every failure uniformly; it does not care whether the credential
// was malformed, expired or forged.
type TokenVerifier interface {
	Resolve(credential string) (uint, error)
}

// Relay accepts websocket sessions, keeps the registry of reachable users
// and routes inbound frames. One goroutine per connection runs the read
// loop; the registry is the only state shared between them.
type Relay struct {
	registry *Registry
	router   *Router
	verifier TokenVerifier
	upgrader websocket.Upgrader
}

// NewRelay wires a relay around an explicitly owned registry instance.
func NewRelay(registry *Registry, verifier TokenVerifier) *Relay {
	return &Relay{
		registry: registry,
		router:   NewRouter(registry),
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Registry exposes the relay's connection directory.
func (rl *Relay) Registry() *Registry {
	return rl.registry
}

// HandleWS serves GET /chat/ws?token=...
//
// A request without a token is refused with 401 before the websocket
// handshake is accepted; such an attempt never reaches the registry. With a
// token present the connection is upgraded first, and a failed verification
// closes the socket with a policy-violation status (1008), matching what
// the client sees on an expired token.
func (rl *Relay) HandleWS(c *gin.Context) {
	credential := c.Query("token")
	if credential == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Missing token"})
		return
	}

	conn, err := rl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error response.
		log.Printf("chat: websocket upgrade failed for %s: %v", c.ClientIP(), err)
		return
	}

	rl.serve(conn, credential)
}

// serve owns one connection from authentication to teardown.
func (rl *Relay) serve(conn *websocket.Conn, credential string) {
	userID, err := rl.verifier.Resolve(credential)
	if err != nil {
		log.Printf("chat: rejecting %s: %v", conn.RemoteAddr(), err)
		client := newClient(0, conn)
		client.closeWithCode(websocket.ClosePolicyViolation, "invalid token")
		return
	}

	client := newClient(userID, conn)

	// A user holds at most one registry entry. If this user is already
	// connected, the new session wins and the superseded connection is
	// closed right away rather than left orphaned; its own deferred
	// Unregister is then a no-op thanks to the identity guard.
	if old := rl.registry.Register(userID, client); old != nil {
		log.Printf("chat: user %d reconnected, closing superseded connection", userID)
		old.closeWithCode(websocket.CloseNormalClosure, "superseded by a newer connection")
	}

	defer func() {
		rl.registry.Unregister(userID, client)
		client.Close()
		log.Printf("chat: user %d disconnected", userID)
	}()

	log.Printf("chat: user %d connected from %s", userID, conn.RemoteAddr())
	rl.readLoop(conn, client)
}

// readLoop processes frames one at a time, in arrival order, until the
// transport terminates for any reason.
func (rl *Relay) readLoop(conn *websocket.Conn, client *Client) {
	for {
		mt, raw, err := conn.ReadMessage()
		if err != nil {
			switch {
			case websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived):
				// normal client-side close
			case isTimeout(err):
				log.Printf("chat: read timeout user=%d: %v", client.UserID(), err)
			default:
				log.Printf("chat: read error user=%d: %v", client.UserID(), err)
			}
			return
		}

		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		env := protocol.Decode(raw)
		env.SenderID = client.UserID()
		rl.router.Route(env)
	}
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
