package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/DavidSBennett/PlayingInThePast/internal/game"
)

// writeTimeout bounds a single snapshot push; a stuck client is dropped
// rather than allowed to back up the event fan-out.
const writeTimeout = 5 * time.Second

// sendBuffer bounds the snapshots queued per client. A client that falls
// this far behind is dropped.
const sendBuffer = 16

// wsClient is one connected websocket listener. All writes to the
// connection go through send and are drained by a single writer goroutine,
// so snapshots reach the client in the order the hub queued them.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// hub fans manager events out to connected websocket clients.
type hub struct {
	log *logrus.Logger

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

func newHub(log *logrus.Logger) *hub {
	return &hub{log: log, clients: make(map[*wsClient]struct{})}
}

func (h *hub) add(conn *websocket.Conn) *wsClient {
	cl := &wsClient{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
	go cl.writeLoop(h)
	return cl
}

// remove unregisters the client and closes its send channel. Queueing and
// closing both happen under mu, so broadcast never writes to a closed
// channel.
func (h *hub) remove(cl *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.send)
	}
	h.mu.Unlock()
}

// broadcast queues one event for every client, in call order. A client
// whose queue is full is dropped; the game loop never waits on a slow
// connection.
func (h *hub) broadcast(ev game.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.WithError(err).Warn("failed encoding event")
		return
	}

	h.mu.Lock()
	for cl := range h.clients {
		select {
		case cl.send <- data:
		default:
			delete(h.clients, cl)
			close(cl.send)
			h.log.Warn("dropping websocket client with full send queue")
		}
	}
	h.mu.Unlock()
}

// writeLoop drains the send channel onto the connection one message at a
// time. It exits when the channel closes or a write fails.
func (cl *wsClient) writeLoop(h *hub) {
	for data := range cl.send {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := cl.conn.Write(ctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			h.remove(cl)
			_ = cl.conn.Close(websocket.StatusPolicyViolation, "write failed")
			return
		}
	}
	// Channel closed: either the reader saw the client leave (the
	// connection is already closed and this is a no-op) or broadcast
	// dropped a lagging client.
	_ = cl.conn.Close(websocket.StatusPolicyViolation, "client lagging")
}

// handleWS upgrades the connection and holds it open until the client goes
// away. Clients only listen; inbound messages are discarded.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // same-host UI during local play
	})
	if err != nil {
		s.log.WithError(err).Warn("websocket accept failed")
		return
	}
	cl := s.hub.add(c)
	s.log.Debug("websocket client connected")

	ctx := c.CloseRead(r.Context())
	<-ctx.Done()
	s.hub.remove(cl)
	_ = c.Close(websocket.StatusNormalClosure, "")
	s.log.Debug("websocket client disconnected")
}
