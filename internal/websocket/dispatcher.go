package websocket

import (
	"context"

	"notify-gateway/internal/notification"
)

// Dispatcher pushes notifications to connected clients. Delivery is
// fire-and-forget: offline recipients and dead sockets are silently skipped,
// and no method ever blocks on a slow client.
type Dispatcher interface {
	// Notify delivers to every live connection of n.UserID, at most once per
	// connection. A user with no connections is a no-op.
	Notify(ctx context.Context, n *notification.Notification)

	// Broadcast delivers the same notification to each listed user. There is
	// no atomicity across recipients; a failed delivery to one user never
	// blocks the others.
	Broadcast(ctx context.Context, userIDs []string, n *notification.Notification)

	// BroadcastAll delivers to every connected user, on every instance.
	BroadcastAll(ctx context.Context, n *notification.Notification)
}

// Notify implements Dispatcher. The payload is encoded once and shared by
// every write.
func (h *Hub) Notify(ctx context.Context, n *notification.Notification) {
	payload, err := n.Encode()
	if err != nil {
		return
	}

	h.deliverLocal(n.UserID, payload)
	if h.opts.Redis != nil {
		h.publish(ctx, n.UserID, payload)
	}
}

// Broadcast implements Dispatcher as a notify per recipient.
func (h *Hub) Broadcast(ctx context.Context, userIDs []string, n *notification.Notification) {
	for _, userID := range userIDs {
		m := *n
		m.UserID = userID
		h.Notify(ctx, &m)
	}
}

// BroadcastAll implements Dispatcher.
func (h *Hub) BroadcastAll(ctx context.Context, n *notification.Notification) {
	payload, err := n.Encode()
	if err != nil {
		return
	}

	h.broadcastLocal(payload)
	if h.opts.Redis != nil {
		h.publish(ctx, "", payload)
	}
}

func (h *Hub) broadcastLocal(payload []byte) {
	for _, userID := range h.registry.Users() {
		h.deliverLocal(userID, payload)
	}
}
