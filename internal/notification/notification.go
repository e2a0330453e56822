package notification

import (
	"encoding/json"
	"fmt"
	"time"
)

// Type represents the kind of platform event a notification describes,
// using a custom enum type for better type safety
type Type string

const (
	TypePost        Type = "post"
	TypeComment     Type = "comment"
	TypeLike        Type = "like"
	TypeAnswer      Type = "answer"
	TypeEvent       Type = "event"
	TypeAchievement Type = "achievement"
)

// WireDiscriminator is the value of the notificationType field on every
// notification sent over a WebSocket. Clients use it to tell notifications
// apart from handshake messages, which carry a bare "type" field instead.
const WireDiscriminator = "notification"

// String returns the string representation of the Type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the Type is a valid enum value
func (t Type) IsValid() bool {
	switch t {
	case TypePost, TypeComment, TypeLike, TypeAnswer, TypeEvent, TypeAchievement:
		return true
	default:
		return false
	}
}

// AllTypes returns all valid notification types for documentation and validation
func AllTypes() []Type {
	return []Type{TypePost, TypeComment, TypeLike, TypeAnswer, TypeEvent, TypeAchievement}
}

// Notification is a single event pushed to a user in real time. It is
// immutable once constructed and is never persisted by the gateway;
// delivery is at-most-once, best-effort.
type Notification struct {
	NotificationType string          `json:"notificationType"`
	Type             Type            `json:"type"`
	UserID           string          `json:"userId"`
	Message          string          `json:"message"`
	Data             json.RawMessage `json:"data,omitempty"`
	Timestamp        int64           `json:"timestamp"`
}

// New builds a notification for the given recipient. Data is an opaque JSON
// document owned by the producing service; the gateway never inspects it.
func New(typ Type, userID, message string, data json.RawMessage) *Notification {
	return &Notification{
		NotificationType: WireDiscriminator,
		Type:             typ,
		UserID:           userID,
		Message:          message,
		Data:             data,
		Timestamp:        time.Now().Unix(),
	}
}

// Validate checks the notification is deliverable
func (n *Notification) Validate() error {
	if !n.Type.IsValid() {
		return fmt.Errorf("invalid notification type: %q", n.Type)
	}
	if n.UserID == "" {
		return fmt.Errorf("notification recipient is required")
	}
	if n.Message == "" {
		return fmt.Errorf("notification message is required")
	}
	return nil
}

// Encode serializes the notification to its wire form
func (n *Notification) Encode() ([]byte, error) {
	return json.Marshal(n)
}
