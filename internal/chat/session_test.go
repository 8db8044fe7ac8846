package chat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "messenger/internal/errors"
	"messenger/pkg/protocol"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// stubVerifier resolves fixed tokens; anything else fails.
type stubVerifier map[string]uint

func (v stubVerifier) Resolve(credential string) (uint, error) {
	if id, ok := v[credential]; ok {
		return id, nil
	}
	return 0, apperrors.ErrInvalidCredentials
}

// startRelay serves the websocket endpoint on an httptest server and
// returns the relay plus the ws:// base URL.
func startRelay(t *testing.T) (*Relay, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	relay := NewRelay(NewRegistry(), stubVerifier{"alice": 1, "bob": 2})
	r := gin.New()
	r.GET("/chat/ws", relay.HandleWS)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return relay, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialChat(t *testing.T, base, token string) *websocket.Conn {
	t.Helper()
	url := base + "/chat/ws"
	if token != "" {
		url += "?token=" + token
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// waitFor polls cond until it holds or the test fails. Registration happens
// on the server's handler goroutine, so tests cannot assert on the registry
// immediately after dialing.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

func readEnvelope(t *testing.T, conn *websocket.Conn) protocol.Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("expected a frame, got error: %v", err)
	}
	var env protocol.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("frame is not valid JSON: %v (%q)", err, raw)
	}
	return env
}

// assertNoFrame fails if a frame arrives within the grace window. The read
// deadline corrupts the connection, so call this only at the end of a test.
func assertNoFrame(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	if _, raw, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected no frame, received %q", raw)
	}
}

func TestRelay_MissingTokenRejectedBeforeUpgrade(t *testing.T) {
	relay, base := startRelay(t)

	_, resp, err := websocket.DefaultDialer.Dial(base+"/chat/ws", nil)
	if err == nil {
		t.Fatal("dial without token succeeded; want handshake refusal")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("handshake response = %v; want 401", resp)
	}

	if relay.Registry().IsConnected(1) || relay.Registry().IsConnected(2) {
		t.Error("refused connection attempt left a registry entry behind")
	}
}

func TestRelay_InvalidTokenClosedWithPolicyViolation(t *testing.T) {
	relay, base := startRelay(t)

	conn := dialChat(t, base, "forged")
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("read after bad token = %v; want close 1008", err)
	}

	if relay.Registry().IsConnected(1) {
		t.Error("failed authentication left a registry entry behind")
	}
}

func TestRelay_AddressedDeliveryWithEcho(t *testing.T) {
	relay, base := startRelay(t)

	alice := dialChat(t, base, "alice")
	bob := dialChat(t, base, "bob")
	waitFor(t, func() bool {
		return relay.Registry().IsConnected(1) && relay.Registry().IsConnected(2)
	}, "sessions never registered")

	if err := alice.WriteMessage(websocket.TextMessage, []byte(`{"to_user_id": 2, "text": "hi"}`)); err != nil {
		t.Fatalf("send: %v", err)
	}

	for name, conn := range map[string]*websocket.Conn{"bob": bob, "alice": alice} {
		env := readEnvelope(t, conn)
		if env.SenderID != 1 || env.Text != "hi" {
			t.Errorf("%s got %+v; want sender 1, text \"hi\"", name, env)
		}
		if env.ToUserID == nil || *env.ToUserID != 2 {
			t.Errorf("%s got to_user_id %v; want 2", name, env.ToUserID)
		}
		if env.ImageURL != nil {
			t.Errorf("%s got image_url %v; want null", name, *env.ImageURL)
		}
	}
}

func TestRelay_SelfAddressedSingleCopy(t *testing.T) {
	relay, base := startRelay(t)

	alice := dialChat(t, base, "alice")
	waitFor(t, func() bool { return relay.Registry().IsConnected(1) }, "session never registered")

	if err := alice.WriteMessage(websocket.TextMessage, []byte(`{"to_user_id": 1, "text": "loop"}`)); err != nil {
		t.Fatalf("send: %v", err)
	}

	if env := readEnvelope(t, alice); env.Text != "loop" || env.SenderID != 1 {
		t.Errorf("echo = %+v; want sender 1, text \"loop\"", env)
	}
	assertNoFrame(t, alice)
}

// A frame that is not valid JSON comes back as a degraded envelope carrying
// the raw payload, and the session keeps running.
func TestRelay_MalformedFrameFallsBackToPlaintext(t *testing.T) {
	relay, base := startRelay(t)

	alice := dialChat(t, base, "alice")
	waitFor(t, func() bool { return relay.Registry().IsConnected(1) }, "session never registered")

	if err := alice.WriteMessage(websocket.TextMessage, []byte("plaintext")); err != nil {
		t.Fatalf("send: %v", err)
	}

	env := readEnvelope(t, alice)
	if env.SenderID != 1 || env.Text != "plaintext" {
		t.Errorf("degraded envelope = %+v; want sender 1, text \"plaintext\"", env)
	}
	if env.ToUserID != nil || env.ImageURL != nil {
		t.Errorf("degraded envelope carries addressing: %+v", env)
	}

	// Session survived the malformed frame.
	if err := alice.WriteMessage(websocket.TextMessage, []byte(`{"text": "still here"}`)); err != nil {
		t.Fatalf("send after malformed frame: %v", err)
	}
	if env := readEnvelope(t, alice); env.Text != "still here" {
		t.Errorf("follow-up echo = %+v", env)
	}
}

// The client-supplied sender id is ignored; the authenticated identity wins.
func TestRelay_SenderIDIsUntrusted(t *testing.T) {
	relay, base := startRelay(t)

	alice := dialChat(t, base, "alice")
	waitFor(t, func() bool { return relay.Registry().IsConnected(1) }, "session never registered")

	if err := alice.WriteMessage(websocket.TextMessage, []byte(`{"sender_id": 42, "text": "spoof"}`)); err != nil {
		t.Fatalf("send: %v", err)
	}
	if env := readEnvelope(t, alice); env.SenderID != 1 {
		t.Errorf("sender_id = %d; want the authenticated id 1", env.SenderID)
	}
}

func TestRelay_DisconnectUnregistersAndFallsBackToEcho(t *testing.T) {
	relay, base := startRelay(t)

	alice := dialChat(t, base, "alice")
	bob := dialChat(t, base, "bob")
	waitFor(t, func() bool {
		return relay.Registry().IsConnected(1) && relay.Registry().IsConnected(2)
	}, "sessions never registered")

	bob.Close()
	waitFor(t, func() bool { return !relay.Registry().IsConnected(2) }, "closed session never unregistered")

	if err := alice.WriteMessage(websocket.TextMessage, []byte(`{"to_user_id": 2, "text": "anyone there"}`)); err != nil {
		t.Fatalf("send: %v", err)
	}

	// Only the sender-echo arrives.
	if env := readEnvelope(t, alice); env.Text != "anyone there" || env.SenderID != 1 {
		t.Errorf("echo = %+v", env)
	}
	assertNoFrame(t, alice)
}

// A user reconnecting replaces their registry entry; the superseded
// connection is closed by the server rather than left orphaned.
func TestRelay_ReconnectClosesSupersededConnection(t *testing.T) {
	relay, base := startRelay(t)

	first := dialChat(t, base, "alice")
	waitFor(t, func() bool { return relay.Registry().IsConnected(1) }, "first session never registered")

	second := dialChat(t, base, "alice")

	// The first connection receives a normal-closure close frame.
	first.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := first.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("superseded connection read = %v; want close 1000", err)
	}

	// The user stays reachable through the new connection.
	waitFor(t, func() bool { return relay.Registry().IsConnected(1) }, "user lost after reconnect")
	if err := second.WriteMessage(websocket.TextMessage, []byte(`{"text": "back"}`)); err != nil {
		t.Fatalf("send on new connection: %v", err)
	}
	if env := readEnvelope(t, second); env.Text != "back" {
		t.Errorf("echo on new connection = %+v", env)
	}
}
