// Package app wires the camera, hand tracker and scene editor together and
// runs the render loop that owns the editor.
package app

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ayusman/handbuilder/internal/capture"
	"github.com/ayusman/handbuilder/internal/detector"
	"github.com/ayusman/handbuilder/internal/scene"
	"github.com/ayusman/handbuilder/internal/store"
)

var (
	// ErrTrackerInit is reported when the hand tracker cannot be started.
	ErrTrackerInit = errors.New("hand tracker unavailable")
	// ErrTrackerLost is reported when the tracker dies mid-session. Tracking
	// stays off until the app is restarted.
	ErrTrackerLost = errors.New("hand tracker stopped")
	// ErrNotRunning is returned by Do when the render loop is stopped.
	ErrNotRunning = errors.New("render loop not running")
)

// DefaultTickInterval is the render loop period, about 60 ticks a second.
const DefaultTickInterval = time.Second / 60

// TrackerState describes the camera and tracker side of the app.
type TrackerState string

const (
	TrackerStopped     TrackerState = "stopped"
	TrackerRunning     TrackerState = "running"
	TrackerUnavailable TrackerState = "unavailable"
)

// Config holds configuration options for the application.
type Config struct {
	Camera       capture.Config
	Detector     detector.Config
	Enhance      capture.EnhanceConfig
	Scene        scene.Config
	TickInterval time.Duration
	// Store, if set, persists the placement selection across runs.
	Store *store.Store
}

// DefaultConfig returns the stock application configuration.
func DefaultConfig() Config {
	return Config{
		Camera:       capture.DefaultConfig(),
		Detector:     detector.DefaultConfig(),
		Enhance:      capture.DefaultEnhanceConfig(),
		Scene:        scene.DefaultConfig(),
		TickInterval: DefaultTickInterval,
	}
}

// Status is the editor status plus the tracker side.
type Status struct {
	scene.Status
	Tracker      TrackerState `json:"tracker"`
	TrackerError string       `json:"tracker_error,omitempty"`
	Lighting     string       `json:"lighting"`
	Brightness   float64      `json:"brightness"`
}

type command struct {
	fn   func(*scene.Editor)
	done chan struct{}
}

// App is the main application. The editor is only touched from the render
// loop goroutine; other goroutines reach it through Do.
type App struct {
	config   Config
	camera   capture.Camera
	enhancer *capture.Enhancer
	detector detector.Detector
	editor   *scene.Editor
	preview  *Preview
	hands    *HandFeed

	frames chan detector.Frame
	cmds   chan command

	mu        sync.RWMutex
	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	status    scene.Status
	tracker   TrackerState
	trackErr  error
	lighting  capture.Lighting
}

// New creates an App drawing into r.
func New(config Config, r scene.Renderer) *App {
	if config.TickInterval <= 0 {
		config.TickInterval = DefaultTickInterval
	}

	a := &App{
		config:   config,
		camera:   capture.NewCamera(config.Camera),
		enhancer: capture.NewEnhancer(config.Enhance),
		editor:   scene.NewEditor(r, config.Scene),
		preview:  NewPreview(),
		hands:    NewHandFeed(),
		frames:   make(chan detector.Frame, 1),
		cmds:     make(chan command),
		tracker:  TrackerStopped,
		lighting: capture.LightingGood,
	}
	a.restoreSelection()
	a.status = a.editor.Status()

	return a
}

// SetCamera replaces the capture device. It must be called before Start.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// SetDetector sets the hand detector implementation to use. It must be
// called before Start; otherwise Start launches the MediaPipe tracker.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// Start launches the render loop and, if possible, the tracker. A camera or
// tracker failure is returned and kept in Status, but the render loop still
// runs so the editor stays usable through UI commands.
func (a *App) Start() error {
	a.mu.Lock()
	if a.stopCh != nil {
		a.mu.Unlock()
		return nil
	}
	stop := make(chan struct{})
	a.stopCh = stop
	camera, det := a.camera, a.detector
	a.mu.Unlock()

	a.wg.Add(1)
	go a.runLoop(stop)
	log.Println("Render loop started")

	// Spawning the tracker can take seconds; the loop keeps rendering meanwhile.
	det, err := a.openTracker(camera, det)

	a.mu.Lock()
	defer a.mu.Unlock()

	if err != nil {
		a.tracker = TrackerUnavailable
		a.trackErr = err
		log.Printf("Hand tracking disabled: %v", err)
		return err
	}

	a.detector = det
	a.tracker = TrackerRunning
	a.trackErr = nil
	a.wg.Add(1)
	go a.runTracker(stop, camera, det)
	log.Println("Hand tracker started")

	return nil
}

func (a *App) openTracker(camera capture.Camera, det detector.Detector) (detector.Detector, error) {
	if err := camera.Open(); err != nil {
		return nil, fmt.Errorf("open camera: %w", err)
	}

	if det != nil {
		return det, nil
	}

	mp, err := detector.NewMediaPipeDetector(a.config.Detector)
	if err == nil {
		err = mp.Start()
		if err != nil {
			mp.Close()
		}
	}
	if err != nil {
		camera.Close()
		return nil, fmt.Errorf("%w: %v", ErrTrackerInit, err)
	}
	log.Println("Using MediaPipe hand detection")

	return mp, nil
}

// Stop halts the loops and releases the camera and tracker.
func (a *App) Stop() {
	a.mu.Lock()
	if a.stopCh == nil {
		a.mu.Unlock()
		return
	}
	close(a.stopCh)
	a.stopCh = nil
	a.mu.Unlock()

	a.wg.Wait()

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}
	if a.tracker == TrackerRunning {
		a.tracker = TrackerStopped
	}

	log.Println("Render loop stopped")
}

// Close stops the app and releases the frame enhancer. The app cannot be
// started again afterwards.
func (a *App) Close() error {
	a.Stop()

	var err error
	a.closeOnce.Do(func() {
		err = a.enhancer.Close()
	})
	return err
}

// Running reports whether the render loop is running.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stopCh != nil
}

// Do runs fn on the render loop and waits for it to finish.
func (a *App) Do(fn func(*scene.Editor)) error {
	a.mu.RLock()
	stop := a.stopCh
	a.mu.RUnlock()

	if stop == nil {
		return ErrNotRunning
	}

	done := make(chan struct{})
	select {
	case a.cmds <- command{fn: fn, done: done}:
	case <-stop:
		return ErrNotRunning
	}

	select {
	case <-done:
		return nil
	case <-stop:
		return ErrNotRunning
	}
}

// Status returns the latest status snapshot.
func (a *App) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()

	st := Status{
		Status:     a.status,
		Tracker:    a.tracker,
		Lighting:   a.lighting.String(),
		Brightness: a.enhancer.Brightness(),
	}
	if a.trackErr != nil {
		st.TrackerError = a.trackErr.Error()
	}
	return st
}

// Preview returns the camera preview source.
func (a *App) Preview() *Preview {
	return a.preview
}

// Hands returns the landmark feed.
func (a *App) Hands() *HandFeed {
	return a.hands
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.camera
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}
