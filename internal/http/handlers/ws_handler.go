// Realtime channel handler.
//
// GET /ws upgrades to a WebSocket and binds the connection to a user in the
// hub. The binding comes from the session principal when the request carries
// one; otherwise the client may pass ?userId= on the upgrade URL or send a
// {"type":"REGISTER","userId":N} message after connecting. A new connection
// for a user replaces the previous one.
//
// The server only pushes; the read loop exists to consume REGISTER messages
// and to notice the peer going away.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/sino99/cafe-safar-ver1/internal/realtime"
	"github.com/sino99/cafe-safar-ver1/internal/utils"
)

// WSMessage is the only client-to-server frame the channel understands.
type WSMessage struct {
	Type   string `json:"type"`
	UserID uint   `json:"userId"`
}

// WS serves the realtime channel.
type WS struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
}

// NewWS constructs the WebSocket handler bound to the hub. Origin checking is
// delegated to the CORS layer; the upgrader accepts what reaches it.
func NewWS(hub *realtime.Hub) *WS {
	return &WS{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Serve upgrades the request and runs the read loop until the peer leaves.
func (w *WS) Serve(c *gin.Context) {
	conn, err := w.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	var bound uint
	if p, okP := principal(c); okP {
		bound = p.UserID
	} else if q := utils.AtoiDefault(c.Query("userId"), 0); q > 0 {
		bound = uint(q)
	}
	if bound != 0 {
		w.hub.Register(bound, conn)
		log.Debug().Uint("user_id", bound).Msg("websocket registered")
	}

	defer func() {
		w.hub.Unregister(conn)
		_ = conn.Close()
	}()

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Type == "REGISTER" && msg.UserID > 0 {
			// Re-register under the announced identity; replaces any
			// previous binding for that user.
			bound = msg.UserID
			w.hub.Register(bound, conn)
			log.Debug().Uint("user_id", bound).Msg("websocket registered")
		}
	}
}
