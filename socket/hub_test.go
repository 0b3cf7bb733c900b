package socket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// Helper function to read messages from a WebSocket connection with a timeout.
func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	var ev Event
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, p, err := conn.ReadMessage()
	require.NoError(t, err, "Failed to read message from WebSocket")
	require.NoError(t, json.Unmarshal(p, &ev), "Failed to unmarshal Event JSON")
	return ev
}

func dial(t *testing.T, wsURL, userID string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?user_id="+userID, nil)
	require.NoError(t, err, "%s failed to connect", userID)
	hello := readEvent(t, conn)
	require.Equal(t, ConnectedType, hello.Type)
	require.Equal(t, userID, hello.UserID)
	return conn
}

func TestHubRoutesEventsToOwner(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r, r.URL.Query().Get("user_id"))
	}))
	defer server.Close()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	tab1 := dial(t, wsURL, "alice")
	defer tab1.Close()
	tab2 := dial(t, wsURL, "alice")
	defer tab2.Close()
	other := dial(t, wsURL, "bob")
	defer other.Close()

	assert.Equal(t, 2, hub.Connections("alice"))
	assert.Equal(t, 1, hub.Connections("bob"))

	hub.Publish("alice", NoteCreatedType, map[string]string{"id": "n1", "title": "Morning"})

	for _, conn := range []*websocket.Conn{tab1, tab2} {
		ev := readEvent(t, conn)
		assert.Equal(t, NoteCreatedType, ev.Type)
		assert.Equal(t, "alice", ev.UserID)
		assert.JSONEq(t, `{"id":"n1","title":"Morning"}`, string(ev.Payload))
	}

	// Bob must not see Alice's event.
	other.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := other.ReadMessage()
	require.Error(t, err)

	hub.Publish("alice", ChatClearedType, nil)
	ev := readEvent(t, tab1)
	assert.Equal(t, ChatClearedType, ev.Type)
	assert.Empty(t, ev.Payload)

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}

	// After shutdown the server closes every connection.
	tab2.SetReadDeadline(time.Now().Add(time.Second))
	for {
		if _, _, err := tab2.ReadMessage(); err != nil {
			break
		}
	}

	// Publishing to a stopped hub is a no-op rather than a hang.
	hub.Publish("alice", NoteDeletedType, map[string]string{"id": "n1"})
}

func TestHubDropsClientOnDisconnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub()
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r, r.URL.Query().Get("user_id"))
	}))
	defer server.Close()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	conn := dial(t, wsURL, "carol")
	require.Equal(t, 1, hub.Connections("carol"))
	conn.Close()

	assert.Eventually(t, func() bool { return hub.Connections("carol") == 0 }, 2*time.Second, 10*time.Millisecond)
}
