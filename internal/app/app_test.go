package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/handbuilder/internal/capture"
	"github.com/ayusman/handbuilder/internal/catalog"
	"github.com/ayusman/handbuilder/internal/detector"
	"github.com/ayusman/handbuilder/internal/scene"
	"github.com/ayusman/handbuilder/internal/store"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.TickInterval = 5 * time.Millisecond
	cfg.Scene.Seed = 7
	return cfg
}

// newOfflineApp starts an app whose camera cannot be opened, so only the
// render loop runs.
func newOfflineApp(t *testing.T, cfg Config) (*App, *scene.MemoryRenderer) {
	t.Helper()

	r := scene.NewMemoryRenderer()
	a := New(cfg, r)

	cam := capture.NewMockCamera(nil, false)
	cam.FailOpen(capture.ErrCameraUnavailable)
	a.SetCamera(cam)
	a.SetDetector(detector.NewMockDetector())

	err := a.Start()
	require.ErrorIs(t, err, capture.ErrCameraUnavailable)
	t.Cleanup(func() { a.Close() })

	return a, r
}

func TestApp_DoRequiresLoop(t *testing.T) {
	a := New(testConfig(), scene.NewMemoryRenderer())
	defer a.Close()

	err := a.Do(func(*scene.Editor) {})
	assert.ErrorIs(t, err, ErrNotRunning)
	assert.False(t, a.Running())
}

func TestApp_CameraUnavailable(t *testing.T) {
	a, r := newOfflineApp(t, testConfig())

	st := a.Status()
	assert.Equal(t, TrackerUnavailable, st.Tracker)
	assert.Contains(t, st.TrackerError, "camera unavailable")
	assert.True(t, a.Running())

	// The editor keeps answering UI commands.
	visible, err := a.ToggleGrid()
	require.NoError(t, err)
	assert.False(t, visible)
	grid, _ := r.Mesh(scene.GridID)
	assert.False(t, grid.Visible)

	sel, err := a.SetMode(catalog.Solar)
	require.NoError(t, err)
	assert.Equal(t, "earth", sel.Key())
	assert.Equal(t, catalog.Solar, a.Status().Mode)
}

func TestApp_StartTwice(t *testing.T) {
	a, _ := newOfflineApp(t, testConfig())
	assert.NoError(t, a.Start())
}

func TestApp_SelectUnknown(t *testing.T) {
	a, _ := newOfflineApp(t, testConfig())

	_, err := a.SetMode(catalog.Building)
	require.NoError(t, err)

	_, err = a.Select("spaceship")
	assert.ErrorIs(t, err, catalog.ErrUnknownItem)
	assert.Equal(t, "wall", a.Status().Selected)
}

func TestApp_ClearAndReset(t *testing.T) {
	a, r := newOfflineApp(t, testConfig())

	n, err := a.Clear()
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, a.ResetCamera())
	assert.InDelta(t, 12, r.Camera().Position.Z, 1e-9)
}

func TestApp_PersistsSelection(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer s.Close()

	cfg := testConfig()
	cfg.Store = s

	a, _ := newOfflineApp(t, cfg)
	_, err = a.SetColor(0xFF8800)
	require.NoError(t, err)
	_, err = a.SetMode(catalog.Building)
	require.NoError(t, err)
	_, err = a.Select("roof")
	require.NoError(t, err)
	a.Close()

	mode, err := s.Settings().Get(store.SettingMode)
	require.NoError(t, err)
	assert.Equal(t, "building", mode)

	restored := New(cfg, scene.NewMemoryRenderer())
	defer restored.Close()

	st := restored.Status()
	assert.Equal(t, catalog.Building, st.Mode)
	assert.Equal(t, "roof", st.Selected)

	color, err := s.Settings().Get(store.SettingColor)
	require.NoError(t, err)
	assert.Equal(t, "#ff8800", color)
}

func TestApp_TrackerInitFailure(t *testing.T) {
	dir := t.TempDir()
	launches := filepath.Join(dir, "launches")
	script := filepath.Join(dir, "tracker.sh")
	body := fmt.Sprintf("echo launched >> %q\nexit 1\n", launches)
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))

	cfg := testConfig()
	cfg.Detector.Python = "/bin/sh"
	cfg.Detector.Script = script
	r := scene.NewMemoryRenderer()
	a := New(cfg, r)
	defer a.Close()

	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()
	a.SetCamera(capture.NewMockCamera([]*gocv.Mat{&frame}, true))

	// No detector set: Start launches the tracker, which exits before ready.
	err := a.Start()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTrackerInit), "err = %v", err)
	assert.Contains(t, err.Error(), "did not start")

	st := a.Status()
	assert.Equal(t, TrackerUnavailable, st.Tracker)
	assert.NotEmpty(t, st.TrackerError)
	assert.True(t, a.Running())

	// The editor still works and nothing launches the tracker again.
	require.NoError(t, a.Do(func(e *scene.Editor) { e.Clear() }))
	time.Sleep(50 * time.Millisecond)
	data, err := os.ReadFile(launches)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "launched"))
}

func TestApp_TrackerLostStopsTracking(t *testing.T) {
	a, _, det := startTracking(t, nil)
	det.SetError(fmt.Errorf("read result: %w", detector.ErrTrackerExited))

	require.Eventually(t, func() bool {
		return a.Status().Tracker == TrackerUnavailable
	}, 2*time.Second, 10*time.Millisecond)

	st := a.Status()
	assert.Contains(t, st.TrackerError, "hand tracker stopped")
	assert.True(t, a.Running())

	// The tracker goroutine has returned, so Detect is not called again.
	calls := det.Calls()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, calls, det.Calls())
}

func TestApp_DetectErrorKeepsTracking(t *testing.T) {
	a, _, det := startTracking(t, nil)
	det.SetError(errors.New("bad frame"))

	require.Eventually(t, func() bool {
		return det.Calls() > 3
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, TrackerRunning, a.Status().Tracker)
}

func startTracking(t *testing.T, hands []detector.HandLandmarks) (*App, *scene.MemoryRenderer, *detector.MockDetector) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	r := scene.NewMemoryRenderer()
	a := New(testConfig(), r)

	frame := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { frame.Close() })
	a.SetCamera(capture.NewMockCamera([]*gocv.Mat{&frame}, true))

	det := detector.NewMockDetector()
	det.SetHands(hands)
	a.SetDetector(det)

	require.NoError(t, a.Start())
	t.Cleanup(func() { a.Close() })

	return a, r, det
}

func TestApp_TrackingPlacesOnPinch(t *testing.T) {
	a, r, det := startTracking(t, []detector.HandLandmarks{detector.PinchLandmarks()})

	require.Eventually(t, func() bool {
		return r.Count(scene.RolePlaced) == 1
	}, 2*time.Second, 10*time.Millisecond)

	st := a.Status()
	assert.Equal(t, TrackerRunning, st.Tracker)
	assert.Equal(t, "build", st.Interaction)
	assert.True(t, st.CursorVisible)
	assert.Equal(t, "Poor", st.Lighting)
	assert.Greater(t, det.Calls(), 0)

	// Holding the pinch does not place again.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, r.Count(scene.RolePlaced))

	frame, seq := a.Hands().Latest()
	assert.NotZero(t, seq)
	assert.Equal(t, 1, frame.HandCount())
}

func TestApp_TrackingTwoHandsRotates(t *testing.T) {
	a, _, _ := startTracking(t, detector.TwoHandsAt(0.4, 0.5, 0.6, 0.5))

	require.Eventually(t, func() bool {
		st := a.Status()
		return st.Interaction == "rotate" && !st.CursorVisible
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, "Rotation Mode (2 Hands)", a.Status().Label)
}

func TestApp_Deliver_LatestWins(t *testing.T) {
	a := New(testConfig(), scene.NewMemoryRenderer())
	defer a.Close()

	first := detector.Frame{Timestamp: time.Unix(1, 0)}
	second := detector.Frame{Timestamp: time.Unix(2, 0)}
	a.deliver(first)
	a.deliver(second)

	require.Len(t, a.frames, 1)
	got := <-a.frames
	assert.Equal(t, second.Timestamp, got.Timestamp)
}

func TestPreview(t *testing.T) {
	p := NewPreview()

	data, seq := p.Latest()
	assert.Nil(t, data)
	assert.Zero(t, seq)
	assert.False(t, p.Watching())

	frame := gocv.NewMatWithSize(8, 8, gocv.MatTypeCV8UC3)
	defer frame.Close()

	// Nobody watching: nothing is encoded.
	p.Update(&frame)
	_, seq = p.Latest()
	assert.Zero(t, seq)

	release := p.Watch()
	assert.True(t, p.Watching())
	p.Set([]byte{0xFF, 0xD8})
	data, seq = p.Latest()
	assert.Equal(t, []byte{0xFF, 0xD8}, data)
	assert.Equal(t, uint64(1), seq)

	release()
	release()
	assert.False(t, p.Watching())
}
