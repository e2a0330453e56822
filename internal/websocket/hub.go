package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"notify-gateway/internal/auth"
)

// Redis channel names for cross-instance fan-out. Targeted notifications go
// on notifyChannelPrefix+<userID>; broadcasts go on broadcastChannel.
const (
	notifyChannelPrefix = "notify:user:"
	broadcastChannel    = "notify:broadcast"
)

// PresenceTracker records whether a user currently has any live connection.
// Purely advisory; failures are logged, never fatal to the socket path.
type PresenceTracker interface {
	SetOnline(ctx context.Context, userID string) error
	SetOffline(ctx context.Context, userID string) error
}

// Options tune the hub. Zero values fall back to production defaults, which
// keeps test setup short.
type Options struct {
	AuthTimeout    time.Duration
	WriteWait      time.Duration
	PongWait       time.Duration
	MaxMessageSize int64
	SendBuffer     int

	// Redis enables cross-instance fan-out when set.
	Redis *redis.Client

	// Presence enables online/offline bookkeeping when set.
	Presence PresenceTracker
}

func (o *Options) defaults() {
	if o.AuthTimeout == 0 {
		o.AuthTimeout = 10 * time.Second
	}
	if o.WriteWait == 0 {
		o.WriteWait = 10 * time.Second
	}
	if o.PongWait == 0 {
		o.PongWait = 60 * time.Second
	}
	if o.MaxMessageSize == 0 {
		o.MaxMessageSize = 4096
	}
	if o.SendBuffer == 0 {
		o.SendBuffer = 256
	}
}

// Hub owns the connection registry and fans notifications out to a user's
// live connections. It is the single point of registry mutation: connections
// call addConn/dropConn from their state transitions and nothing else
// touches the registry.
type Hub struct {
	registry   Registry
	verifier   auth.TokenVerifier
	opts       Options
	instanceID string

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(registry Registry, verifier auth.TokenVerifier, opts Options) *Hub {
	opts.defaults()
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		registry:   registry,
		verifier:   verifier,
		opts:       opts,
		instanceID: uuid.New().String(),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run blocks until Stop, servicing the cross-instance subscription when
// Redis is configured.
func (h *Hub) Run() {
	if h.opts.Redis != nil {
		go h.redisListener()
	}
	<-h.ctx.Done()
	slog.Info("notification hub shutting down")
}

func (h *Hub) Stop() {
	h.cancel()
}

// ServeWS upgrades the request and hands the socket to a fresh connection
// state machine. The connection starts unauthenticated with the auth
// deadline armed.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	sock, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	c := newConn(h, sock)
	slog.Info("websocket connection accepted", "connID", c.id)
	c.start()
}

// OnlineUsers returns the ids of users with at least one live connection on
// this instance.
func (h *Hub) OnlineUsers() []string {
	return h.registry.Users()
}

// addConn registers an authenticated connection. Called only from the
// connection's Unauthenticated -> Authenticated transition.
func (h *Hub) addConn(userID string, c *Conn) {
	first := h.registry.Add(userID, c)
	slog.Info("connection registered", "connID", c.id, "userID", userID)

	if first && h.opts.Presence != nil {
		if err := h.opts.Presence.SetOnline(h.ctx, userID); err != nil {
			slog.Error("failed to set user online", "userID", userID, "error", err)
		}
	}
}

// dropConn removes a closed connection. Called only from the connection's
// teardown; removing an already-removed connection is a no-op.
func (h *Hub) dropConn(userID string, c *Conn) {
	last := h.registry.Remove(userID, c)
	slog.Info("connection unregistered", "connID", c.id, "userID", userID)

	if last && h.opts.Presence != nil {
		if err := h.opts.Presence.SetOffline(h.ctx, userID); err != nil {
			slog.Error("failed to set user offline", "userID", userID, "error", err)
		}
	}
}

// deliverLocal writes the payload to every live connection of the user on
// this instance, exactly once per connection. Write failures are handled by
// the connection's own close path, never retried here.
func (h *Hub) deliverLocal(userID string, payload []byte) int {
	delivered := 0
	for _, c := range h.registry.Get(userID) {
		if err := c.Send(payload); err == nil {
			delivered++
		}
	}
	return delivered
}

// fanoutEnvelope wraps a notification for Redis pub/sub. Origin lets an
// instance skip its own publications so local delivery stays at-most-once.
type fanoutEnvelope struct {
	Origin  string          `json:"origin"`
	UserID  string          `json:"userId"`
	Payload json.RawMessage `json:"payload"`
}

// publish hands the payload to peer instances over Redis. The target channel
// is the broadcast channel when userID is empty.
func (h *Hub) publish(ctx context.Context, userID string, payload []byte) {
	env, err := json.Marshal(fanoutEnvelope{
		Origin:  h.instanceID,
		UserID:  userID,
		Payload: payload,
	})
	if err != nil {
		return
	}

	channel := broadcastChannel
	if userID != "" {
		channel = notifyChannelPrefix + userID
	}
	if err := h.opts.Redis.Publish(ctx, channel, env).Err(); err != nil {
		slog.Error("redis publish failed", "channel", channel, "error", err)
	}
}

// redisListener receives notifications published by other gateway instances
// and delivers them to local connections.
func (h *Hub) redisListener() {
	pubsub := h.opts.Redis.PSubscribe(h.ctx, notifyChannelPrefix+"*", broadcastChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env fanoutEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				slog.Error("malformed fan-out envelope", "channel", msg.Channel, "error", err)
				continue
			}
			if env.Origin == h.instanceID {
				continue
			}
			if msg.Channel == broadcastChannel {
				h.broadcastLocal(env.Payload)
				continue
			}
			userID := env.UserID
			if userID == "" {
				userID = strings.TrimPrefix(msg.Channel, notifyChannelPrefix)
			}
			h.deliverLocal(userID, env.Payload)

		case <-h.ctx.Done():
			return
		}
	}
}
