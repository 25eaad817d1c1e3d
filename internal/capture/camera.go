// Package capture reads webcam frames through GoCV and prepares them for
// hand tracking.
package capture

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"gocv.io/x/gocv"
)

// Default camera settings, matching what MediaPipe is tuned for.
const (
	DefaultFPS    = 30
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrCameraUnavailable is returned when the capture device cannot be opened.
	ErrCameraUnavailable = errors.New("camera unavailable")
	// ErrFrameDropped is returned when the device yields no usable frame.
	ErrFrameDropped = errors.New("frame dropped")
)

// Config selects and sizes the capture device.
type Config struct {
	DeviceID int
	Width    int
	Height   int
	FPS      int
}

// DefaultConfig returns the settings for the first webcam.
func DefaultConfig() Config {
	return Config{
		DeviceID: 0,
		Width:    DefaultWidth,
		Height:   DefaultHeight,
		FPS:      DefaultFPS,
	}
}

// withDefaults fills zero sizes and rates.
func (c Config) withDefaults() Config {
	if c.Width <= 0 {
		c.Width = DefaultWidth
	}
	if c.Height <= 0 {
		c.Height = DefaultHeight
	}
	if c.FPS <= 0 {
		c.FPS = DefaultFPS
	}
	return c
}

// Camera is a source of BGR frames.
type Camera interface {
	Open() error
	Close() error
	// ReadFrame returns the next frame. The caller closes it.
	ReadFrame() (*gocv.Mat, error)
	// FPS is the rate the tracker should poll at.
	FPS() int
	// Size is the frame size the device delivers, known once open.
	Size() (width, height int)
	IsOpen() bool
}

// webcam captures from a local video device.
type webcam struct {
	config  Config
	capture *gocv.VideoCapture
	width   int
	height  int
	mu      sync.Mutex
}

// NewCamera creates a Camera for the configured device. Zero sizes and
// rates fall back to the defaults.
func NewCamera(config Config) Camera {
	config = config.withDefaults()
	return &webcam{
		config: config,
		width:  config.Width,
		height: config.Height,
	}
}

func (c *webcam) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture != nil {
		return nil
	}

	vc, err := gocv.OpenVideoCapture(c.config.DeviceID)
	if err != nil {
		return fmt.Errorf("open device %d: %w: %v", c.config.DeviceID, ErrCameraUnavailable, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return fmt.Errorf("open device %d: %w", c.config.DeviceID, ErrCameraUnavailable)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(c.config.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(c.config.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(c.config.FPS))

	// Drivers may pick the nearest mode they support.
	if w := int(vc.Get(gocv.VideoCaptureFrameWidth)); w > 0 {
		c.width = w
	}
	if h := int(vc.Get(gocv.VideoCaptureFrameHeight)); h > 0 {
		c.height = h
	}

	c.capture = vc
	log.Printf("Camera %d opened at %dx%d", c.config.DeviceID, c.width, c.height)

	return nil
}

func (c *webcam) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	return err
}

func (c *webcam) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("device %d: %w", c.config.DeviceID, ErrFrameDropped)
	}

	return &mat, nil
}

func (c *webcam) FPS() int {
	return c.config.FPS
}

func (c *webcam) Size() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

func (c *webcam) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capture != nil
}
