package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/sino99/cafe-safar-ver1/internal/realtime"
)

func wsServer(t *testing.T) (*httptest.Server, *realtime.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hub := realtime.NewHub()
	t.Cleanup(hub.Close)

	r := gin.New()
	r.GET("/ws", NewWS(hub).Serve)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, hub
}

func wsURL(srv *httptest.Server, query string) string {
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	if query != "" {
		u += "?" + query
	}
	return u
}

// waitDelivered polls until the hub reports a live channel for the user.
// Registration happens on the server goroutine after the upgrade returns.
func waitDelivered(t *testing.T, hub *realtime.Hub, userID uint) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.Send(userID, "PING", nil) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("user %d never registered", userID)
}

func TestWS_QueryBindingReceivesEvents(t *testing.T) {
	srv, hub := wsServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "userId=7"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	waitDelivered(t, hub, 7)
	if !hub.Send(7, realtime.EventOrderStatusUpdated, map[string]any{"orderId": 1}) {
		t.Fatalf("Send reported no live channel")
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	// Drain the PING probe(s) until the real event arrives.
	for {
		var ev realtime.Event
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("read event: %v", err)
		}
		if ev.Type == "PING" {
			continue
		}
		if ev.Type != realtime.EventOrderStatusUpdated {
			t.Fatalf("event type = %q", ev.Type)
		}
		if ev.Timestamp.IsZero() {
			t.Fatalf("event missing timestamp")
		}
		break
	}
}

func TestWS_RegisterMessageBindsUser(t *testing.T) {
	srv, hub := wsServer(t)

	// No principal, no query: the connection starts unbound.
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if hub.Send(42, "PING", nil) {
		t.Fatalf("unbound connection should not be reachable")
	}

	if err := conn.WriteJSON(WSMessage{Type: "REGISTER", UserID: 42}); err != nil {
		t.Fatalf("write REGISTER: %v", err)
	}
	waitDelivered(t, hub, 42)
}

func TestWS_DisconnectUnregisters(t *testing.T) {
	srv, hub := wsServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "userId=9"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	waitDelivered(t, hub, 9)

	conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !hub.Send(9, "PING", nil) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("connection still registered after close")
}
