package scene

import (
	"time"

	"github.com/ayusman/handbuilder/internal/gesture"
)

// Config holds the editor's motion and placement constants.
type Config struct {
	Gesture gesture.Config

	// Smoothing factors applied once per tick.
	CursorSmoothing float64
	SizeSmoothing   float64
	CameraSmoothing float64

	// Camera orbit: x = sin(yaw)*OrbitRadius, z = cos(yaw)*OrbitRadius,
	// y = CameraHeight + sin(pitch)*PitchLift.
	OrbitRadius  float64
	CameraHeight float64
	PitchLift    float64

	// CursorSpin is the idle rotation added to the cursor's X and Y each tick.
	CursorSpin float64

	// TumbleMax bounds the random rotation of Free mode blocks, per axis.
	TumbleMax float64

	// Solar bodies spin at a random rate in [SpinMin, SpinMax) rad/tick.
	SpinMin float64
	SpinMax float64

	EmissiveIntensity float64

	// CursorOpacity is the idle cursor opacity; ArmedOpacity applies while pinching.
	CursorOpacity float64
	ArmedOpacity  float64

	// CameraReset is the glide duration for ResetCamera. Zero snaps.
	CameraReset time.Duration

	// Seed feeds the placement jitter and spin generator. Zero picks a random seed.
	Seed uint64
}

// DefaultConfig returns the stock editor constants.
func DefaultConfig() Config {
	return Config{
		Gesture:           gesture.DefaultConfig(),
		CursorSmoothing:   0.15,
		SizeSmoothing:     0.15,
		CameraSmoothing:   0.1,
		OrbitRadius:       12,
		CameraHeight:      5,
		PitchLift:         5,
		CursorSpin:        0.01,
		TumbleMax:         0.2,
		SpinMin:           0.005,
		SpinMax:           0.015,
		EmissiveIntensity: 0.5,
		CursorOpacity:     0.6,
		ArmedOpacity:      0.9,
		CameraReset:       400 * time.Millisecond,
	}
}
