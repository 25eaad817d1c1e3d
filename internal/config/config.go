// Package config loads handbuilder settings from a TOML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/ayusman/handbuilder/internal/capture"
	"github.com/ayusman/handbuilder/internal/detector"
	"github.com/ayusman/handbuilder/internal/gesture"
	"github.com/ayusman/handbuilder/internal/scene"
)

// Config is the full application configuration.
type Config struct {
	Server  Server  `toml:"server"`
	Camera  Camera  `toml:"camera"`
	Tracker Tracker `toml:"tracker"`
	Enhance Enhance `toml:"enhance"`
	Gesture Gesture `toml:"gesture"`
	Scene   Scene   `toml:"scene"`
}

type Server struct {
	Addr      string `toml:"addr"`
	StaticDir string `toml:"static_dir"`
	Database  string `toml:"database"`
	Tray      bool   `toml:"tray"`
	// SessionHours is the browser session lifetime.
	SessionHours int `toml:"session_hours"`
}

type Camera struct {
	Device int `toml:"device"`
	Width  int `toml:"width"`
	Height int `toml:"height"`
	FPS    int `toml:"fps"`
}

type Tracker struct {
	MaxHands               int     `toml:"max_hands"`
	ModelComplexity        int     `toml:"model_complexity"`
	MinDetectionConfidence float64 `toml:"min_detection_confidence"`
	MinTrackingConfidence  float64 `toml:"min_tracking_confidence"`
	Python                 string  `toml:"python,omitempty"`
	Script                 string  `toml:"script,omitempty"`
}

type Enhance struct {
	Enabled   bool    `toml:"enabled"`
	Alpha     float64 `toml:"alpha"`
	Beta      float64 `toml:"beta"`
	ClipLimit float64 `toml:"clip_limit"`
	TileGrid  int     `toml:"tile_grid"`
}

type Gesture struct {
	PointerScaleX  float64 `toml:"pointer_scale_x"`
	PointerOffsetX float64 `toml:"pointer_offset_x"`
	PointerScaleY  float64 `toml:"pointer_scale_y"`
	PointerOffsetY float64 `toml:"pointer_offset_y"`
	SpreadScale    float64 `toml:"spread_scale"`
	MinSize        float64 `toml:"min_size"`
	MaxSize        float64 `toml:"max_size"`
	PinchThreshold float64 `toml:"pinch_threshold"`
	DebounceMS     int     `toml:"debounce_ms"`
}

type Scene struct {
	CursorSmoothing float64 `toml:"cursor_smoothing"`
	SizeSmoothing   float64 `toml:"size_smoothing"`
	CameraSmoothing float64 `toml:"camera_smoothing"`
	OrbitRadius     float64 `toml:"orbit_radius"`
	CameraHeight    float64 `toml:"camera_height"`
	PitchLift       float64 `toml:"pitch_lift"`
	CursorSpin      float64 `toml:"cursor_spin"`
	TumbleMax       float64 `toml:"tumble_max"`
	SpinMin         float64 `toml:"spin_min"`
	SpinMax         float64 `toml:"spin_max"`
	ResetMS         int     `toml:"reset_ms"`
	TickHz          int     `toml:"tick_hz"`
}

// Default returns the built-in configuration.
func Default() Config {
	dt := detector.DefaultConfig()
	en := capture.DefaultEnhanceConfig()
	g := gesture.DefaultConfig()
	sc := scene.DefaultConfig()

	return Config{
		Server: Server{
			Addr:         "127.0.0.1:8080",
			StaticDir:    "web",
			Database:     filepath.Join(Dir(), "handbuilder.db"),
			Tray:         true,
			SessionHours: 24 * 7,
		},
		Camera: Camera{
			Device: 0,
			Width:  capture.DefaultWidth,
			Height: capture.DefaultHeight,
			FPS:    capture.DefaultFPS,
		},
		Tracker: Tracker{
			MaxHands:               dt.MaxHands,
			ModelComplexity:        dt.ModelComplexity,
			MinDetectionConfidence: dt.MinConfidence,
			MinTrackingConfidence:  dt.MinTrackingConf,
		},
		Enhance: Enhance{
			Enabled:   en.Enabled,
			Alpha:     en.Alpha,
			Beta:      en.Beta,
			ClipLimit: en.ClipLimit,
			TileGrid:  en.TileGrid,
		},
		Gesture: Gesture{
			PointerScaleX:  g.PointerScaleX,
			PointerOffsetX: g.PointerOffsetX,
			PointerScaleY:  g.PointerScaleY,
			PointerOffsetY: g.PointerOffsetY,
			SpreadScale:    g.SpreadScale,
			MinSize:        g.MinSize,
			MaxSize:        g.MaxSize,
			PinchThreshold: g.PinchThreshold,
			DebounceMS:     int(g.Debounce / time.Millisecond),
		},
		Scene: Scene{
			CursorSmoothing: sc.CursorSmoothing,
			SizeSmoothing:   sc.SizeSmoothing,
			CameraSmoothing: sc.CameraSmoothing,
			OrbitRadius:     sc.OrbitRadius,
			CameraHeight:    sc.CameraHeight,
			PitchLift:       sc.PitchLift,
			CursorSpin:      sc.CursorSpin,
			TumbleMax:       sc.TumbleMax,
			SpinMin:         sc.SpinMin,
			SpinMax:         sc.SpinMax,
			ResetMS:         int(sc.CameraReset / time.Millisecond),
			TickHz:          60,
		},
	}
}

// Dir returns the per-user data directory, ~/.handbuilder.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".handbuilder"
	}
	return filepath.Join(home, ".handbuilder")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads path over the defaults. A missing file yields the defaults.
// Unknown keys are rejected so typos do not silently fall back.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes cfg to path as TOML, creating parent directories.
func Save(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects values that would break the editor.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Server.Addr != "", "server.addr must be set")
	check(c.Server.SessionHours > 0, "server.session_hours must be positive")
	check(c.Camera.Device >= 0, "camera.device must not be negative")
	check(c.Camera.FPS > 0, "camera.fps must be positive")
	check(c.Tracker.MaxHands >= 2, "tracker.max_hands must be at least 2, got %d", c.Tracker.MaxHands)
	check(c.Tracker.ModelComplexity == 0 || c.Tracker.ModelComplexity == 1, "tracker.model_complexity must be 0 or 1")
	check(inUnit(c.Tracker.MinDetectionConfidence), "tracker.min_detection_confidence must be in [0, 1]")
	check(inUnit(c.Tracker.MinTrackingConfidence), "tracker.min_tracking_confidence must be in [0, 1]")
	check(c.Enhance.TileGrid > 0, "enhance.tile_grid must be positive")
	check(c.Gesture.MinSize > 0 && c.Gesture.MinSize <= c.Gesture.MaxSize, "gesture.min_size must be positive and not above max_size")
	check(c.Gesture.PinchThreshold > 0, "gesture.pinch_threshold must be positive")
	check(c.Gesture.DebounceMS >= 0, "gesture.debounce_ms must not be negative")
	for name, f := range map[string]float64{
		"cursor_smoothing": c.Scene.CursorSmoothing,
		"size_smoothing":   c.Scene.SizeSmoothing,
		"camera_smoothing": c.Scene.CameraSmoothing,
	} {
		check(f > 0 && f <= 1, "scene.%s must be in (0, 1]", name)
	}
	check(c.Scene.OrbitRadius > 0, "scene.orbit_radius must be positive")
	check(c.Scene.SpinMin <= c.Scene.SpinMax, "scene.spin_min must not exceed spin_max")
	check(c.Scene.ResetMS >= 0, "scene.reset_ms must not be negative")
	check(c.Scene.TickHz > 0, "scene.tick_hz must be positive")

	return errors.Join(errs...)
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}

// CameraConfig converts the [camera] section.
func (c Config) CameraConfig() capture.Config {
	return capture.Config{
		DeviceID: c.Camera.Device,
		Width:    c.Camera.Width,
		Height:   c.Camera.Height,
		FPS:      c.Camera.FPS,
	}
}

// DetectorConfig converts the [tracker] section.
func (c Config) DetectorConfig() detector.Config {
	return detector.Config{
		MaxHands:        c.Tracker.MaxHands,
		ModelComplexity: c.Tracker.ModelComplexity,
		MinConfidence:   c.Tracker.MinDetectionConfidence,
		MinTrackingConf: c.Tracker.MinTrackingConfidence,
		Python:          c.Tracker.Python,
		Script:          c.Tracker.Script,
		StartTimeout:    detector.DefaultConfig().StartTimeout,
	}
}

// EnhanceConfig converts the [enhance] section.
func (c Config) EnhanceConfig() capture.EnhanceConfig {
	return capture.EnhanceConfig{
		Enabled:   c.Enhance.Enabled,
		Alpha:     c.Enhance.Alpha,
		Beta:      c.Enhance.Beta,
		ClipLimit: c.Enhance.ClipLimit,
		TileGrid:  c.Enhance.TileGrid,
	}
}

// GestureConfig converts the [gesture] section.
func (c Config) GestureConfig() gesture.Config {
	return gesture.Config{
		PointerScaleX:  c.Gesture.PointerScaleX,
		PointerOffsetX: c.Gesture.PointerOffsetX,
		PointerScaleY:  c.Gesture.PointerScaleY,
		PointerOffsetY: c.Gesture.PointerOffsetY,
		SpreadScale:    c.Gesture.SpreadScale,
		MinSize:        c.Gesture.MinSize,
		MaxSize:        c.Gesture.MaxSize,
		PinchThreshold: c.Gesture.PinchThreshold,
		Debounce:       time.Duration(c.Gesture.DebounceMS) * time.Millisecond,
	}
}

// SceneConfig converts the [scene] and [gesture] sections.
func (c Config) SceneConfig() scene.Config {
	sc := scene.DefaultConfig()
	sc.Gesture = c.GestureConfig()
	sc.CursorSmoothing = c.Scene.CursorSmoothing
	sc.SizeSmoothing = c.Scene.SizeSmoothing
	sc.CameraSmoothing = c.Scene.CameraSmoothing
	sc.OrbitRadius = c.Scene.OrbitRadius
	sc.CameraHeight = c.Scene.CameraHeight
	sc.PitchLift = c.Scene.PitchLift
	sc.CursorSpin = c.Scene.CursorSpin
	sc.TumbleMax = c.Scene.TumbleMax
	sc.SpinMin = c.Scene.SpinMin
	sc.SpinMax = c.Scene.SpinMax
	sc.CameraReset = time.Duration(c.Scene.ResetMS) * time.Millisecond
	return sc
}

// TickInterval is the render loop period.
func (c Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.Scene.TickHz)
}

// SessionTTL is the browser session lifetime.
func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.Server.SessionHours) * time.Hour
}
