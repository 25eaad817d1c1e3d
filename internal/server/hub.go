package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/handbuilder/internal/scene"
)

// Scene feed ops sent to browsers.
const (
	OpSnapshot  = "snapshot"
	OpAdd       = "add"
	OpRemove    = "remove"
	OpTransform = "transform"
	OpVisible   = "visible"
	OpMaterial  = "material"
	OpCamera    = "camera"
)

const (
	clientBuffer = 256
	writeWait    = 5 * time.Second
)

// sceneMessage is one renderer command on the wire.
type sceneMessage struct {
	Op        string            `json:"op"`
	ID        string            `json:"id,omitempty"`
	Mesh      *scene.Mesh       `json:"mesh,omitempty"`
	Meshes    []scene.Mesh      `json:"meshes,omitempty"`
	Transform *scene.Transform  `json:"transform,omitempty"`
	Visible   *bool             `json:"visible,omitempty"`
	Material  *scene.Material   `json:"material,omitempty"`
	Camera    *scene.CameraPose `json:"camera,omitempty"`
}

type hubClient struct {
	conn *websocket.Conn
	send chan []byte
}

// SceneHub is a scene.Renderer that mirrors the scene in memory and streams
// every command to connected browsers, which do the actual drawing. New
// clients receive a snapshot first.
type SceneHub struct {
	mem     *scene.MemoryRenderer
	mu      sync.Mutex
	clients map[*hubClient]bool
}

// NewSceneHub creates an empty hub.
func NewSceneHub() *SceneHub {
	return &SceneHub{
		mem:     scene.NewMemoryRenderer(),
		clients: make(map[*hubClient]bool),
	}
}

// Memory returns the in-memory mirror of the scene.
func (h *SceneHub) Memory() *scene.MemoryRenderer {
	return h.mem
}

// Clients returns the number of connected browsers.
func (h *SceneHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *SceneHub) Add(mesh scene.Mesh) {
	h.apply(func() { h.mem.Add(mesh) }, sceneMessage{Op: OpAdd, Mesh: &mesh})
}

func (h *SceneHub) Remove(id string) {
	h.apply(func() { h.mem.Remove(id) }, sceneMessage{Op: OpRemove, ID: id})
}

func (h *SceneHub) SetTransform(id string, t scene.Transform) {
	h.apply(func() { h.mem.SetTransform(id, t) }, sceneMessage{Op: OpTransform, ID: id, Transform: &t})
}

func (h *SceneHub) SetVisible(id string, visible bool) {
	h.apply(func() { h.mem.SetVisible(id, visible) }, sceneMessage{Op: OpVisible, ID: id, Visible: &visible})
}

func (h *SceneHub) SetMaterial(id string, m scene.Material) {
	h.apply(func() { h.mem.SetMaterial(id, m) }, sceneMessage{Op: OpMaterial, ID: id, Material: &m})
}

func (h *SceneHub) SetCamera(pose scene.CameraPose) {
	h.apply(func() { h.mem.SetCamera(pose) }, sceneMessage{Op: OpCamera, Camera: &pose})
}

// apply updates the mirror and broadcasts msg as one step, so a client
// registering in between sees either both or neither.
func (h *SceneHub) apply(update func(), msg sceneMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("scene encode error: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	update()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Slow client; drop it rather than stall the render loop.
			h.drop(c)
		}
	}
}

// drop unregisters c. Called with h.mu held.
func (h *SceneHub) drop(c *hubClient) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// ServeHTTP upgrades to a WebSocket and streams the scene.
func (h *SceneHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	c := &hubClient{conn: conn, send: make(chan []byte, clientBuffer)}

	h.mu.Lock()
	snapshot, err := json.Marshal(sceneMessage{
		Op:     OpSnapshot,
		Meshes: h.mem.Meshes(),
		Camera: ptr(h.mem.Camera()),
	})
	if err == nil {
		c.send <- snapshot
		h.clients[c] = true
	}
	h.mu.Unlock()

	if err != nil {
		log.Printf("scene snapshot error: %v", err)
		return
	}

	go h.writePump(c)

	// Reads only detect the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	h.drop(c)
	h.mu.Unlock()
}

func (h *SceneHub) writePump(c *hubClient) {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.conn.Close()
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func ptr[T any](v T) *T {
	return &v
}
