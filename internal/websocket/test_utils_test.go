package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"notify-gateway/internal/auth"
)

// stubVerifier resolves tokens from a fixed table for testing
type stubVerifier struct {
	users map[string]string
}

func (s stubVerifier) Verify(_ context.Context, token string) (string, error) {
	if userID, ok := s.users[token]; ok {
		return userID, nil
	}
	return "", auth.ErrTokenInvalid
}

// newTestHub creates a hub with short timeouts suitable for tests
func newTestHub(opts Options) *Hub {
	verifier := stubVerifier{users: map[string]string{
		"valid-token-abc": "user-42",
		"token-7":         "user-7",
	}}
	if opts.AuthTimeout == 0 {
		opts.AuthTimeout = 2 * time.Second
	}
	return NewHub(NewRegistry(), verifier, opts)
}

// newTestServer exposes the hub over a real HTTP listener
func newTestServer(t *testing.T, hub *Hub) (*httptest.Server, string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(srv.Close)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	return srv, wsURL
}

// dialTest opens a client socket to the test server
func dialTest(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readTestMessage reads one message with a bounded wait
func readTestMessage(t *testing.T, conn *websocket.Conn) []byte {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return data
}

// waitForUsers polls the registry until it holds n users or the deadline
// passes
func waitForUsers(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.registry.Len() == n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("registry never reached %d users, has %d", n, hub.registry.Len())
}
