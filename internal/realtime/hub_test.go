package realtime

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/citywatch/incident-api/internal/core/domain"
)

// wireMessage mirrors the JSON frames a browser client receives.
type wireMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func startFeedServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zerolog.Nop())
	go hub.Run(ctx)

	e := echo.New()
	e.GET("/ws", NewHandler(hub, nil).Serve)
	srv := httptest.NewServer(e)

	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dialFeed(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) wireMessage {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var msg wireMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return msg
}

func TestHub_BroadcastReachesAllClients(t *testing.T) {
	hub, srv := startFeedServer(t)

	first := dialFeed(t, srv)
	second := dialFeed(t, srv)

	// Registration runs through the hub goroutine; give it a moment before
	// broadcasting so both connections are in the client set.
	waitForClients(t, hub, 2)

	inc := &domain.Incident{
		ID:     "abc123",
		Title:  "Fallen tree",
		Status: domain.StatusOpen,
		User:   "alice",
	}
	hub.BroadcastNewIncident(inc)

	for _, conn := range []*websocket.Conn{first, second} {
		msg := readEvent(t, conn)
		if msg.Event != EventNewIncident {
			t.Fatalf("expected %q, got %q", EventNewIncident, msg.Event)
		}
		var got domain.Incident
		if err := json.Unmarshal(msg.Data, &got); err != nil {
			t.Fatalf("payload decode failed: %v", err)
		}
		if got.ID != "abc123" || got.Title != "Fallen tree" {
			t.Fatalf("unexpected payload: %+v", got)
		}
	}
}

func TestHub_UpdateEventName(t *testing.T) {
	hub, srv := startFeedServer(t)

	conn := dialFeed(t, srv)
	waitForClients(t, hub, 1)

	hub.BroadcastIncidentUpdate(&domain.Incident{ID: "abc123", Status: domain.StatusResolved})

	msg := readEvent(t, conn)
	if msg.Event != EventUpdateIncident {
		t.Fatalf("expected %q, got %q", EventUpdateIncident, msg.Event)
	}
}

func TestHub_DisconnectedClientDoesNotStopOthers(t *testing.T) {
	hub, srv := startFeedServer(t)

	leaver := dialFeed(t, srv)
	stayer := dialFeed(t, srv)
	waitForClients(t, hub, 2)

	leaver.Close()
	waitForClients(t, hub, 1)

	hub.BroadcastNewIncident(&domain.Incident{ID: "after-leave", Title: "Pothole"})

	msg := readEvent(t, stayer)
	if msg.Event != EventNewIncident {
		t.Fatalf("expected %q, got %q", EventNewIncident, msg.Event)
	}
}

// waitForClients polls until the hub reports n connected clients.
// Registration completes asynchronously after the websocket handshake.
func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount() == n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("hub never reached %d clients (have %d)", n, hub.ClientCount())
}
