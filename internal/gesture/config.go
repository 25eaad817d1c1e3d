// Package gesture turns raw hand landmarks into pointer, size, pinch and
// camera-orbit intents for the scene editor.
package gesture

import "time"

// Config holds the tuning constants for landmark interpretation.
//
// The pointer mapping is tuned to a 60° field of view at a camera distance
// of 12 units: worldX = (1-x)*PointerScaleX + PointerOffsetX, and likewise for Y.
type Config struct {
	PointerScaleX  float64
	PointerOffsetX float64
	PointerScaleY  float64
	PointerOffsetY float64

	// SpreadScale multiplies the index-pinky distance to get the object size.
	SpreadScale float64
	MinSize     float64
	MaxSize     float64

	// PinchThreshold is the thumb-index distance below which a pinch is active.
	PinchThreshold float64

	// Debounce is the minimum time between two placements.
	Debounce time.Duration
}

// DefaultConfig returns the stock interpretation constants.
func DefaultConfig() Config {
	return Config{
		PointerScaleX:  20,
		PointerOffsetX: -10,
		PointerScaleY:  12,
		PointerOffsetY: -4,
		SpreadScale:    10,
		MinSize:        0.5,
		MaxSize:        5.0,
		PinchThreshold: 0.05,
		Debounce:       400 * time.Millisecond,
	}
}
