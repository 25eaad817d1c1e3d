package capture

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// MockCamera plays back prepared frames for tests. Frames are cloned on
// read, so the caller keeps ownership of the originals.
type MockCamera struct {
	frames  []*gocv.Mat
	index   int
	loop    bool
	openErr error
	open    bool
	reads   int
	mu      sync.Mutex
}

// NewMockCamera creates a MockCamera over frames. With loop set playback
// wraps around; otherwise reads past the end fail with ErrFrameDropped.
func NewMockCamera(frames []*gocv.Mat, loop bool) *MockCamera {
	return &MockCamera{
		frames: frames,
		loop:   loop,
	}
}

// FailOpen makes the next Open calls return err.
func (c *MockCamera) FailOpen(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openErr = err
}

func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.openErr != nil {
		return c.openErr
	}
	c.open = true
	c.index = 0
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return nil
}

func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return nil, ErrCameraNotOpen
	}
	if c.index >= len(c.frames) && c.loop {
		c.index = 0
	}
	if c.index >= len(c.frames) {
		return nil, fmt.Errorf("mock camera exhausted after %d frames: %w", c.reads, ErrFrameDropped)
	}

	frame := c.frames[c.index].Clone()
	c.index++
	c.reads++

	return &frame, nil
}

func (c *MockCamera) FPS() int {
	return DefaultFPS
}

// Size reports the size of the first frame, or the defaults when empty.
func (c *MockCamera) Size() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.frames) == 0 {
		return DefaultWidth, DefaultHeight
	}
	return c.frames[0].Cols(), c.frames[0].Rows()
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Reads reports how many frames have been served.
func (c *MockCamera) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

// SetFrames replaces the frame sequence and rewinds.
func (c *MockCamera) SetFrames(frames []*gocv.Mat) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = frames
	c.index = 0
}
