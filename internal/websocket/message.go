package websocket

import (
	"encoding/json"
)

// Handshake message types. The auth message is the only inbound message the
// gateway understands; everything else a client sends is dropped.
const (
	messageTypeAuth      = "auth"
	messageTypeConnected = "connected"
)

// clientMessage is the inbound wire format:
// {"type": "auth", "token": "<opaque bearer token>"}
type clientMessage struct {
	Type  string `json:"type"`
	Token string `json:"token,omitempty"`
}

// connectedMessage acknowledges a successful auth handshake. Notifications
// are distinguished from it by their notificationType discriminator field.
type connectedMessage struct {
	Type string `json:"type"`
}

func encodeConnected() []byte {
	data, _ := json.Marshal(connectedMessage{Type: messageTypeConnected})
	return data
}
