package app

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/handbuilder/internal/detector"
)

// Preview keeps the latest camera frame as JPEG for the MJPEG stream.
// Frames are only encoded while someone is watching.
type Preview struct {
	mu       sync.RWMutex
	jpeg     []byte
	seq      uint64
	watchers int
}

// NewPreview creates an empty Preview.
func NewPreview() *Preview {
	return &Preview{}
}

// Watch registers a viewer. Call the returned func when done.
func (p *Preview) Watch() func() {
	p.mu.Lock()
	p.watchers++
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			p.watchers--
			p.mu.Unlock()
		})
	}
}

// Watching reports whether any viewer is registered.
func (p *Preview) Watching() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.watchers > 0
}

// Update encodes frame if anyone is watching.
func (p *Preview) Update(frame *gocv.Mat) {
	if !p.Watching() || frame == nil || frame.Empty() {
		return
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return
	}
	data := append([]byte(nil), buf.GetBytes()...)
	buf.Close()

	p.Set(data)
}

// Set stores an already encoded JPEG frame.
func (p *Preview) Set(jpeg []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jpeg = jpeg
	p.seq++
}

// Latest returns the newest JPEG and its sequence number. The sequence is
// zero until the first frame arrives.
func (p *Preview) Latest() ([]byte, uint64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.jpeg, p.seq
}

// HandFeed keeps the latest tracker result for landmark overlays.
type HandFeed struct {
	mu    sync.RWMutex
	frame detector.Frame
	seq   uint64
}

// NewHandFeed creates an empty HandFeed.
func NewHandFeed() *HandFeed {
	return &HandFeed{}
}

// Publish stores f as the latest result.
func (h *HandFeed) Publish(f detector.Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frame = f
	h.seq++
}

// Latest returns the newest result and its sequence number.
func (h *HandFeed) Latest() (detector.Frame, uint64) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.frame, h.seq
}
