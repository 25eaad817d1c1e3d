package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/ayusman/handbuilder/internal/app"
	"github.com/ayusman/handbuilder/internal/auth"
	"github.com/ayusman/handbuilder/internal/catalog"
)

// Controller is the editor surface the control endpoints drive.
type Controller interface {
	Status() app.Status
	SetMode(m catalog.Mode) (catalog.Selection, error)
	Select(key string) (catalog.Selection, error)
	SetColor(c catalog.Color) (catalog.Selection, error)
	ToggleGrid() (bool, error)
	ResetCamera() error
	Clear() (int, error)
}

// ControlsHandler serves status and the editor controls.
type ControlsHandler struct {
	ctl Controller
	mux *http.ServeMux
}

// NewControlsHandler creates a ControlsHandler for ctl.
func NewControlsHandler(ctl Controller) *ControlsHandler {
	h := &ControlsHandler{ctl: ctl, mux: http.NewServeMux()}
	h.mux.HandleFunc("/api/status", h.status)
	h.mux.HandleFunc("/api/mode", post(h.mode))
	h.mux.HandleFunc("/api/select", post(h.selectItem))
	h.mux.HandleFunc("/api/color", post(h.color))
	h.mux.HandleFunc("/api/grid/toggle", post(h.toggleGrid))
	h.mux.HandleFunc("/api/camera/reset", post(h.resetCamera))
	h.mux.HandleFunc("/api/scene/clear", post(h.clear))
	return h
}

// ServeHTTP implements the http.Handler interface.
func (h *ControlsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Patterns lists the paths this handler serves.
func (h *ControlsHandler) Patterns() []string {
	return []string{
		"/api/status", "/api/mode", "/api/select", "/api/color",
		"/api/grid/toggle", "/api/camera/reset", "/api/scene/clear",
	}
}

func post(fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		fn(w, r)
	}
}

type statusResponse struct {
	app.Status
	Username string `json:"username,omitempty"`
}

type modeRequest struct {
	Mode string `json:"mode"`
}

type selectRequest struct {
	Item string `json:"item"`
}

type colorRequest struct {
	Color string `json:"color"`
}

type selectionResponse struct {
	Mode  catalog.Mode  `json:"mode"`
	Key   string        `json:"key"`
	Name  string        `json:"name"`
	Color catalog.Color `json:"color"`
}

func toSelectionResponse(sel catalog.Selection) selectionResponse {
	return selectionResponse{
		Mode:  sel.Mode(),
		Key:   sel.Key(),
		Name:  sel.Name(),
		Color: sel.Color(),
	}
}

// writeControlError maps editor errors to HTTP statuses.
func writeControlError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrUnknownItem):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrNotRunning):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		log.Printf("Editor command failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Editor command failed")
	}
}

// status handles GET /api/status.
func (h *ControlsHandler) status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		Status:   h.ctl.Status(),
		Username: auth.FromContext(r.Context()).Username(),
	})
}

// mode handles POST /api/mode.
func (h *ControlsHandler) mode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if !decode(w, r, &req) {
		return
	}

	m, err := catalog.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sel, err := h.ctl.SetMode(m)
	if err != nil {
		writeControlError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSelectionResponse(sel))
}

// selectItem handles POST /api/select.
func (h *ControlsHandler) selectItem(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Item == "" {
		writeError(w, http.StatusBadRequest, "Item is required")
		return
	}

	sel, err := h.ctl.Select(req.Item)
	if err != nil {
		writeControlError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSelectionResponse(sel))
}

// color handles POST /api/color.
func (h *ControlsHandler) color(w http.ResponseWriter, r *http.Request) {
	var req colorRequest
	if !decode(w, r, &req) {
		return
	}

	c, err := catalog.ParseColor(req.Color)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sel, err := h.ctl.SetColor(c)
	if err != nil {
		writeControlError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSelectionResponse(sel))
}

// toggleGrid handles POST /api/grid/toggle.
func (h *ControlsHandler) toggleGrid(w http.ResponseWriter, r *http.Request) {
	visible, err := h.ctl.ToggleGrid()
	if err != nil {
		writeControlError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"grid_visible": visible})
}

// resetCamera handles POST /api/camera/reset.
func (h *ControlsHandler) resetCamera(w http.ResponseWriter, r *http.Request) {
	if err := h.ctl.ResetCamera(); err != nil {
		writeControlError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// clear handles POST /api/scene/clear.
func (h *ControlsHandler) clear(w http.ResponseWriter, r *http.Request) {
	n, err := h.ctl.Clear()
	if err != nil {
		writeControlError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}
