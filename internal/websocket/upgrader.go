package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"
)

// Upgrader performs the HTTP to WebSocket upgrade. Origin checking is left
// to the gateway's CORS layer; browsers that reach the handler have already
// passed it.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}
