package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/handbuilder/internal/detector"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// HandSource provides the latest tracker result.
type HandSource interface {
	Latest() (detector.Frame, uint64)
}

// LandmarksHandler broadcasts hand landmarks via WebSocket so the page can
// draw the skeleton over the camera preview.
type LandmarksHandler struct {
	source  HandSource
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
	stopCh  chan struct{}
}

// NewLandmarksHandler creates a LandmarksHandler polling source.
func NewLandmarksHandler(source HandSource) *LandmarksHandler {
	h := &LandmarksHandler{
		source:  source,
		clients: make(map[*websocket.Conn]bool),
		stopCh:  make(chan struct{}),
	}
	go h.broadcast()
	return h
}

// Close stops the broadcaster.
func (h *LandmarksHandler) Close() {
	close(h.stopCh)
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *LandmarksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

type landmarksMessage struct {
	Hands     []detector.HandLandmarks `json:"hands"`
	Timestamp int64                    `json:"timestamp"`
}

// broadcast sends each new tracker result to all connected clients.
func (h *LandmarksHandler) broadcast() {
	ticker := time.NewTicker(66 * time.Millisecond) // ~15 FPS
	defer ticker.Stop()

	var sent uint64

	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
		}

		h.mu.RLock()
		idle := len(h.clients) == 0
		h.mu.RUnlock()
		if idle {
			continue
		}

		frame, seq := h.source.Latest()
		if seq == sent {
			continue
		}
		sent = seq

		hands := frame.Hands
		if hands == nil {
			hands = []detector.HandLandmarks{}
		}
		msg, _ := json.Marshal(landmarksMessage{
			Hands:     hands,
			Timestamp: frame.Timestamp.UnixMilli(),
		})

		// Writes are serialized by the write lock.
		h.mu.Lock()
		for conn := range h.clients {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.TextMessage, msg)
		}
		h.mu.Unlock()
	}
}
