package server

import (
	"fmt"
	"net/http"
	"time"
)

// FrameSource provides JPEG preview frames.
type FrameSource interface {
	Watch() func()
	Latest() ([]byte, uint64)
}

// StreamHandler serves the camera preview as MJPEG.
type StreamHandler struct {
	source   FrameSource
	interval time.Duration
}

// NewStreamHandler creates a new StreamHandler for source.
func NewStreamHandler(source FrameSource) *StreamHandler {
	return &StreamHandler{source: source, interval: 66 * time.Millisecond} // ~15 FPS
}

// ServeHTTP streams MJPEG frames to connected clients.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	release := h.source.Watch()
	defer release()

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var sent uint64

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		jpeg, seq := h.source.Latest()
		if seq == sent || len(jpeg) == 0 {
			continue
		}
		sent = seq

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(jpeg))
		if _, err := w.Write(jpeg); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
