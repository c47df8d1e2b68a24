package realtime

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
	"github.com/gorilla/websocket"

	"github.com/lord-carlos/traktor-api-client/internal/state"
)

func dialObserver(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	messageType, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	assert.Equal(t, websocket.TextMessage, messageType)
	return decode(t, payload)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSessionStreamsSnapshotThenUpdates(t *testing.T) {
	store := state.NewStore()
	hub := NewHub(store, HubOptions{})
	engine := state.NewEngine(store, hub)
	_, _ = engine.Apply(state.Channels, "1", state.Fields{"onAirLevel": 0.8})

	srv := httptest.NewServer(NewHandler(hub, SessionConfig{Buffer: 8}))
	defer srv.Close()

	conn := dialObserver(t, srv.URL)
	defer conn.Close()

	env := readEnvelope(t, conn)
	assert.Equal(t, TypeInitialData, env.Type)
	waitFor(t, func() bool { return hub.Count() == 1 })

	_, _ = engine.Load("A", state.Fields{"title": "X", "bpm": 128.0})
	env = readEnvelope(t, conn)
	assert.Equal(t, TypeDeckLoaded, env.Type)
	assert.Equal(t, "A", env.Deck)
}

func TestSessionCloseDeregistersObserver(t *testing.T) {
	store := state.NewStore()
	hub := NewHub(store, HubOptions{})

	srv := httptest.NewServer(NewHandler(hub, SessionConfig{}))
	defer srv.Close()

	conn := dialObserver(t, srv.URL)
	readEnvelope(t, conn)
	waitFor(t, func() bool { return hub.Count() == 1 })

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
	waitFor(t, func() bool { return hub.Count() == 0 })
}

func TestHubCloseEndsSessions(t *testing.T) {
	store := state.NewStore()
	hub := NewHub(store, HubOptions{})

	srv := httptest.NewServer(NewHandler(hub, SessionConfig{}))
	defer srv.Close()

	conn := dialObserver(t, srv.URL)
	defer conn.Close()
	readEnvelope(t, conn)
	waitFor(t, func() bool { return hub.Count() == 1 })

	hub.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Equal(t, true, websocket.IsCloseError(err, websocket.CloseNormalClosure))
}
