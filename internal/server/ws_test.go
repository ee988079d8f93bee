package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidSBennett/PlayingInThePast/internal/game"
)

type wsEvent struct {
	Type    game.EventType `json:"type"`
	Session *struct {
		CurrentTurn int `json:"current_turn"`
	} `json:"session"`
}

func readEvent(ctx context.Context, t *testing.T, conn *websocket.Conn) wsEvent {
	t.Helper()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var ev wsEvent
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

// waitForClient blocks until the hub has registered at least one client.
// The dial handshake finishes on the client side before the server
// goroutine registers the connection.
func waitForClient(t *testing.T, s *Server) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s.hub.mu.Lock()
		n := len(s.hub.clients)
		s.hub.mu.Unlock()
		if n > 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("websocket client never registered")
}

// TestWebSocketDeliversSnapshotsInOrder verifies rapid successive commits
// reach a client in application order, so a stale snapshot can never
// arrive after a newer one.
func TestWebSocketDeliversSnapshotsInOrder(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")
	waitForClient(t, s)

	w := doJSON(t, h, http.MethodPost, "/api/session", map[string]string{"player_name": "Ada"})
	require.Equal(t, http.StatusCreated, w.Code)
	for i := 0; i < 5; i++ {
		w = doJSON(t, h, http.MethodPost, "/api/session/transfer", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	ev := readEvent(ctx, t, conn)
	require.Equal(t, game.EventSessionStart, ev.Type)
	require.NotNil(t, ev.Session)
	assert.Equal(t, 1, ev.Session.CurrentTurn)

	for i := 0; i < 5; i++ {
		ev = readEvent(ctx, t, conn)
		require.Equal(t, game.EventTransfer, ev.Type)
		require.NotNil(t, ev.Session)
		assert.Equal(t, i+2, ev.Session.CurrentTurn)
	}
}

// TestBroadcastShedsFullQueue verifies a client whose queue is full is
// unregistered immediately instead of stalling the fan-out.
func TestBroadcastShedsFullQueue(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	h := newHub(log)

	// Registered by hand, so no writer goroutine ever drains the queue.
	cl := &wsClient{send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()

	for i := 0; i < sendBuffer+1; i++ {
		h.broadcast(game.Event{Type: game.EventTransfer})
	}

	h.mu.Lock()
	n := len(h.clients)
	h.mu.Unlock()
	assert.Equal(t, 0, n, "full client still registered")
	assert.Len(t, cl.send, sendBuffer, "queued backlog should survive the drop")
}
