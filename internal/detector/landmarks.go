// Package detector provides hand detection interfaces and types for gesture control.
package detector

import (
	"math"
	"time"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D represents a normalized landmark position. X and Y are in [0,1]
// relative to the camera frame, Z is relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Frame is one tracker result: zero, one or two hands seen in a single camera frame.
type Frame struct {
	Hands     []HandLandmarks `json:"hands"`
	Timestamp time.Time       `json:"timestamp"`
}

// HandCount returns the number of hands in the frame.
func (f Frame) HandCount() int {
	return len(f.Hands)
}

// PlanarDistance returns the distance between two landmarks in the image
// plane, ignoring depth.
func PlanarDistance(a, b Point3D) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Distance returns the planar distance between two landmarks of the hand.
func (h *HandLandmarks) Distance(i, j int) float64 {
	return PlanarDistance(h.Points[i], h.Points[j])
}

// Translate returns a copy of the hand shifted by dx, dy in normalized space.
func (h HandLandmarks) Translate(dx, dy float64) HandLandmarks {
	for i := range h.Points {
		h.Points[i].X += dx
		h.Points[i].Y += dy
	}
	return h
}
