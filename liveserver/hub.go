// Package liveserver broadcasts a running anneal search's progress to
// websocket clients, adapted from scheduler/server.go's client-registry and
// broadcast-channel pattern.
package liveserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/devskill-org/gridplan/anneal"
)

// Hub tracks connected websocket clients and fans out anneal.Progress
// events to all of them.
type Hub struct {
	upgrader  websocket.Upgrader
	clients   sync.Map // *websocket.Conn -> struct{}
	broadcast chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewHub creates a Hub ready to register clients and publish progress.
func NewHub() *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		broadcast: make(chan []byte, 256),
		done:      make(chan struct{}),
	}
	go h.run()
	return h
}

// progressMessage is the wire shape sent to clients.
type progressMessage struct {
	Type        string     `json:"type"`
	Iteration   int        `json:"iteration"`
	Temperature float64    `json:"temperature"`
	CurrentCost float64    `json:"current_cost_eur"`
	BestCost    float64    `json:"best_cost_eur"`
	Accepted    bool       `json:"accepted"`
	SentAt      string     `json:"sent_at"`
}

// Publish implements anneal.ProgressFunc: it encodes p and fans it out to
// every connected client. Safe to call from the annealer's goroutine; it
// never blocks on a slow or absent client.
func (h *Hub) Publish(p anneal.Progress) {
	msg := progressMessage{
		Type:        "progress",
		Iteration:   p.Iteration,
		Temperature: p.Temperature,
		CurrentCost: float64(p.CurrentCost),
		BestCost:    float64(p.BestCost),
		Accepted:    p.Accepted,
		SentAt:      time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		fmt.Printf("liveserver: failed to marshal progress: %v\n", err)
		return
	}
	select {
	case h.broadcast <- data:
	case <-h.done:
	default:
		// Buffer full (a client is slow to accept writes): drop this event.
	}
}

// run drains the broadcast channel and writes each message to every
// registered client, dropping clients that fail to write.
func (h *Hub) run() {
	for {
		select {
		case message := <-h.broadcast:
			h.clients.Range(func(key, _ any) bool {
				conn, ok := key.(*websocket.Conn)
				if !ok {
					return true
				}
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close() //nolint:gosec
					h.clients.Delete(conn)
				}
				return true
			})
		case <-h.done:
			return
		}
	}
}

// ServeWS upgrades r to a websocket connection and registers it as a
// client. It blocks, reading (and discarding) client frames until the
// connection closes, matching the teacher's read-loop-for-disconnect
// pattern.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		fmt.Printf("liveserver: websocket upgrade error: %v\n", err)
		return
	}
	h.clients.Store(conn, struct{}{})

	defer func() {
		h.clients.Delete(conn)
		conn.Close() //nolint:gosec
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				fmt.Printf("liveserver: websocket error: %v\n", err)
			}
			break
		}
	}
}

// ClientCount returns the number of currently connected clients.
func (h *Hub) ClientCount() int {
	n := 0
	h.clients.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Close shuts down the hub's broadcast goroutine and closes all connected
// clients. Safe to call multiple times.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		h.clients.Range(func(key, _ any) bool {
			if conn, ok := key.(*websocket.Conn); ok {
				conn.Close() //nolint:gosec
			}
			return true
		})
	})
}
