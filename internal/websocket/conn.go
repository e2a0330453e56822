package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ErrConnClosed is returned when writing to a connection that has already
// entered the Closed state.
var ErrConnClosed = errors.New("connection closed")

// connState models the per-socket lifecycle. Closed is terminal; there is no
// transition back out of it.
type connState int

const (
	stateUnauthenticated connState = iota
	stateAuthenticated
	stateClosed
)

// Conn is one live socket and its lifecycle state. It is owned by the hub
// for its whole lifetime; no other component retains a reference.
//
// All state transitions happen under mu, which is what guarantees the
// auth-at-deadline race resolves to exactly one of {registered, closed}:
// whichever of authenticate/expireAuth takes the lock first wins, the loser
// observes the state change and backs off.
type Conn struct {
	id   string
	hub  *Hub
	sock *websocket.Conn
	send chan []byte

	mu        sync.Mutex
	state     connState
	userID    string
	authTimer *time.Timer

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func newConn(hub *Hub, sock *websocket.Conn) *Conn {
	ctx, cancel := context.WithCancel(context.Background())
	return &Conn{
		id:     uuid.New().String(),
		hub:    hub,
		sock:   sock,
		send:   make(chan []byte, hub.opts.SendBuffer),
		state:  stateUnauthenticated,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (c *Conn) ID() string {
	return c.id
}

// UserID returns the authenticated user, or "" before the handshake
// completes.
func (c *Conn) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

func (c *Conn) currentState() connState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// start arms the auth deadline and spins up the pumps. Called by the hub
// right after the HTTP upgrade.
func (c *Conn) start() {
	c.mu.Lock()
	c.authTimer = time.AfterFunc(c.hub.opts.AuthTimeout, c.expireAuth)
	c.mu.Unlock()

	go c.writePump()
	go c.readPump()
}

// authenticate transitions Unauthenticated -> Authenticated and registers
// the connection, all under the state lock so a concurrent deadline expiry
// or transport close cannot interleave. Returns false when the transition
// was lost to one of those.
func (c *Conn) authenticate(userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != stateUnauthenticated {
		return false
	}
	c.state = stateAuthenticated
	c.userID = userID
	if c.authTimer != nil {
		c.authTimer.Stop()
	}
	c.hub.addConn(userID, c)
	return true
}

// expireAuth fires when the auth deadline lapses. Unauthenticated
// connections must not accumulate; anything still unauthenticated here is
// closed.
func (c *Conn) expireAuth() {
	c.mu.Lock()
	if c.state != stateUnauthenticated {
		c.mu.Unlock()
		return
	}
	c.state = stateClosed
	c.mu.Unlock()

	slog.Info("authentication deadline expired", "connID", c.id)
	c.Close()
}

// Send queues a payload for delivery. A full buffer means the peer has
// stopped draining; that is treated as a dead connection rather than a
// reason to block the dispatcher.
func (c *Conn) Send(payload []byte) error {
	select {
	case <-c.ctx.Done():
		return ErrConnClosed
	default:
	}

	select {
	case c.send <- payload:
		return nil
	case <-c.ctx.Done():
		return ErrConnClosed
	default:
		slog.Warn("send buffer full, closing connection", "connID", c.id, "userID", c.UserID())
		c.Close()
		return ErrConnClosed
	}
}

// Close shuts the transport down. Idempotent; safe from any goroutine. The
// registry cleanup happens in the readPump teardown, which Close unblocks.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		if c.sock != nil {
			c.sock.Close()
		}
	})
}

// teardown is the single exit path for every connection. It finalizes the
// Closed state and, when the connection had been authenticated, removes it
// from the registry, dropping the user's entry entirely if this was their
// last connection.
func (c *Conn) teardown() {
	c.mu.Lock()
	prev := c.state
	c.state = stateClosed
	if c.authTimer != nil {
		c.authTimer.Stop()
	}
	userID := c.userID
	c.mu.Unlock()

	c.Close()
	if prev == stateAuthenticated {
		c.hub.dropConn(userID, c)
	}
}

func (c *Conn) readPump() {
	defer c.teardown()

	c.sock.SetReadLimit(c.hub.opts.MaxMessageSize)
	c.sock.SetReadDeadline(time.Now().Add(c.hub.opts.PongWait))
	c.sock.SetPongHandler(func(string) error {
		c.sock.SetReadDeadline(time.Now().Add(c.hub.opts.PongWait))
		return nil
	})

	for {
		_, data, err := c.sock.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Debug("websocket read error", "connID", c.id, "error", err)
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			// Malformed input is dropped, not fatal.
			continue
		}

		switch c.currentState() {
		case stateUnauthenticated:
			if msg.Type != messageTypeAuth {
				// Anything but auth is ignored pre-handshake.
				continue
			}
			c.handleAuth(msg.Token)
		case stateAuthenticated:
			// No authenticated inbound protocol beyond the handshake;
			// unrecognized messages are ignored.
		case stateClosed:
			return
		}
	}
}

// handleAuth runs the token through the verifier and completes or kills the
// handshake. Verification failures close the transport with a generic
// policy-violation code so the client learns nothing about which check
// failed.
func (c *Conn) handleAuth(token string) {
	userID, err := c.hub.verifier.Verify(c.ctx, token)
	if err != nil {
		slog.Info("authentication rejected", "connID", c.id)
		c.sock.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "authentication failed"),
			time.Now().Add(c.hub.opts.WriteWait),
		)
		c.Close()
		return
	}

	if !c.authenticate(userID) {
		// Lost the race against the deadline or a transport close.
		return
	}

	slog.Info("connection authenticated", "connID", c.id, "userID", userID)
	c.Send(encodeConnected())
}

func (c *Conn) writePump() {
	pingPeriod := (c.hub.opts.PongWait * 9) / 10
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case payload := <-c.send:
			c.sock.SetWriteDeadline(time.Now().Add(c.hub.opts.WriteWait))
			if err := c.sock.WriteMessage(websocket.TextMessage, payload); err != nil {
				slog.Debug("websocket write error", "connID", c.id, "error", err)
				return
			}

		case <-ticker.C:
			c.sock.SetWriteDeadline(time.Now().Add(c.hub.opts.WriteWait))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			c.sock.SetWriteDeadline(time.Now().Add(c.hub.opts.WriteWait))
			c.sock.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
