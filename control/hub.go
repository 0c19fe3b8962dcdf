package control

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"

	"github.com/peragwin/xyscope/scope"
)

const writeDeadline = 10 * time.Second

// StatsFunc reads the current statistics.
type StatsFunc func(ctx context.Context) (scope.Stats, error)

// Hub pushes scope statistics to every connected websocket client.
type Hub struct {
	stats    StatsFunc
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
}

// NewHub creates a hub reading from stats.
func NewHub(stats StatsFunc) *Hub {
	return &Hub{
		stats: stats,
		upgrader: websocket.Upgrader{
			// local network tool; browser clients come from anywhere
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]chan []byte),
	}
}

// ServeHTTP upgrades the request and streams status messages until the
// client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		glog.Warningf("websocket upgrade: %v", err)
		return
	}
	glog.V(1).Infof("status client connected from %s", r.RemoteAddr)

	send := make(chan []byte, 8)
	h.mu.Lock()
	h.clients[conn] = send
	h.mu.Unlock()

	go h.writer(conn, send)

	// drain reads so close frames are handled
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				glog.Warningf("websocket: %v", err)
			}
			break
		}
	}
	h.remove(conn)
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	send, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()
	if ok {
		close(send)
	}
}

func (h *Hub) writer(conn *websocket.Conn, send <-chan []byte) {
	defer conn.Close()
	for msg := range send {
		conn.SetWriteDeadline(time.Now().Add(writeDeadline))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			glog.V(1).Infof("websocket write: %v", err)
			return
		}
	}
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeDeadline))
}

// Clients is the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends st to every client. Slow clients miss messages.
func (h *Hub) Broadcast(st scope.Stats) error {
	msg, err := json.Marshal(st)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, send := range h.clients {
		select {
		case send <- msg:
		default:
		}
	}
	return nil
}

// Run broadcasts the statistics every period until ctx is done, then
// disconnects all clients.
func (h *Hub) Run(ctx context.Context, period time.Duration) {
	if period <= 0 {
		period = 250 * time.Millisecond
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if h.Clients() == 0 {
				continue
			}
			st, err := h.stats(ctx)
			if err != nil {
				glog.V(1).Infof("status: %v", err)
				continue
			}
			if err := h.Broadcast(st); err != nil {
				glog.Errorf("status: %v", err)
			}
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, send := range h.clients {
		close(send)
		delete(h.clients, conn)
	}
}
