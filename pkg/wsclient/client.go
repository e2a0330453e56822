package wsclient

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// State represents the client connection lifecycle.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateAuthPending  State = "auth_pending"
	StateConnected    State = "connected"
)

// Notification is the wire shape of a pushed notification, distinguished
// from handshake messages by the notificationType discriminator.
type Notification struct {
	NotificationType string          `json:"notificationType"`
	Type             string          `json:"type"`
	UserID           string          `json:"userId"`
	Message          string          `json:"message"`
	Data             json.RawMessage `json:"data,omitempty"`
	Timestamp        int64           `json:"timestamp"`
}

// handshake covers both directions of the auth exchange.
type handshake struct {
	Type  string `json:"type"`
	Token string `json:"token,omitempty"`
}

// Config configures a Client. Zero values fall back to the defaults noted
// per field.
type Config struct {
	// URL is the ws:// or wss:// endpoint.
	URL string

	// Token is sent in the auth message after every (re)connect.
	Token string

	// MaxAttempts bounds reconnection per failure episode. Default 5.
	MaxAttempts int

	// BaseDelay seeds the exponential backoff. Default 1s.
	BaseDelay time.Duration

	// MaxDelay caps the backoff. Default 30s.
	MaxDelay time.Duration

	// NoticeAfter is how many consecutive failures precede the single
	// user-visible error notice. Default 3.
	NoticeAfter int

	// HandshakeTimeout bounds the dial. Default 10s.
	HandshakeTimeout time.Duration

	// Dialer overrides the transport, mainly for tests.
	Dialer *websocket.Dialer
}

func (c *Config) defaults() {
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 5
	}
	if c.BaseDelay == 0 {
		c.BaseDelay = 1 * time.Second
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = 30 * time.Second
	}
	if c.NoticeAfter == 0 {
		c.NoticeAfter = 3
	}
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
	if c.Dialer == nil {
		d := *websocket.DefaultDialer
		c.Dialer = &d
	}
}

// Client owns one logical connection to the notification gateway: it dials,
// authenticates, routes notifications to callbacks, and reconnects with
// bounded exponential backoff when the transport drops.
//
// Callbacks must be set before Connect and are invoked from the client's
// read goroutine.
type Client struct {
	cfg Config

	// OnNotification receives every pushed notification.
	OnNotification func(Notification)

	// OnInvalidate fires after OnNotification with the cache scope the
	// notification makes stale. Unknown types produce no invalidation.
	OnInvalidate func(CacheScope)

	// OnConnected fires on every successful handshake, including
	// reconnects.
	OnConnected func()

	// OnConnectionError fires at most once per failure episode, after
	// NoticeAfter consecutive failures.
	OnConnectionError func(failures int)

	mu         sync.Mutex
	state      State
	conn       *websocket.Conn
	retry      *reconnectState
	retryTimer *time.Timer
	closed     bool
}

func New(cfg Config) *Client {
	cfg.defaults()
	return &Client{
		cfg:   cfg,
		state: StateDisconnected,
		retry: newReconnectState(cfg.BaseDelay, cfg.MaxDelay, cfg.MaxAttempts, cfg.NoticeAfter),
	}
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect starts the connection loop. It returns immediately; connection
// progress is reported through the callbacks.
func (c *Client) Connect() {
	go c.attempt()
}

// Close tears the client down: the pending reconnect timer is cancelled and
// the transport closed. Teardown is not a failure and never triggers a
// reconnect.
func (c *Client) Close() {
	c.mu.Lock()
	c.closed = true
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
	conn := c.conn
	c.conn = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

// attempt performs one dial + handshake + read loop cycle.
func (c *Client) attempt() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.state = StateConnecting
	c.mu.Unlock()

	dialer := *c.cfg.Dialer
	dialer.HandshakeTimeout = c.cfg.HandshakeTimeout

	conn, _, err := dialer.Dial(c.cfg.URL, nil)
	if err != nil {
		c.handleFailure()
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.state = StateAuthPending
	c.mu.Unlock()

	if err := conn.WriteJSON(handshake{Type: "auth", Token: c.cfg.Token}); err != nil {
		conn.Close()
		c.handleFailure()
		return
	}

	c.readLoop(conn)
}

// readLoop consumes messages until the transport drops. Any close before
// the connected acknowledgement counts as a failed attempt, which covers
// auth rejection.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			c.handleFailure()
			return
		}
		c.handleMessage(data)
	}
}

func (c *Client) handleMessage(data []byte) {
	var n Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return
	}

	if n.NotificationType == "notification" {
		c.mu.Lock()
		connected := c.state == StateConnected
		c.mu.Unlock()
		if !connected {
			return
		}
		if c.OnNotification != nil {
			c.OnNotification(n)
		}
		if scope, ok := ScopeFor(n.Type); ok && c.OnInvalidate != nil {
			c.OnInvalidate(scope)
		}
		return
	}

	var hs handshake
	if err := json.Unmarshal(data, &hs); err != nil {
		return
	}
	if hs.Type == "connected" {
		c.mu.Lock()
		c.state = StateConnected
		c.retry.reset()
		c.mu.Unlock()
		if c.OnConnected != nil {
			c.OnConnected()
		}
	}
}

// handleFailure records a failed attempt or dropped connection and, when
// the episode allows, schedules the next attempt.
func (c *Client) handleFailure() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.state = StateDisconnected

	delay, retry := c.retry.fail()
	notify := c.retry.shouldNotify()
	failures := c.retry.failures()
	if retry {
		c.retryTimer = time.AfterFunc(delay, c.attempt)
	}
	c.mu.Unlock()

	if notify && c.OnConnectionError != nil {
		c.OnConnectionError(failures)
	}
}
