package gesture

import (
	"math"

	"github.com/ayusman/handbuilder/internal/detector"
)

// Interaction is the per-frame interaction mode.
type Interaction int

const (
	// InteractionBuild moves the cursor and places objects (zero or one hand).
	InteractionBuild Interaction = iota
	// InteractionRotate orbits the camera (two hands).
	InteractionRotate
)

// String returns the interaction name.
func (i Interaction) String() string {
	if i == InteractionRotate {
		return "rotate"
	}
	return "build"
}

// InteractionFor selects the interaction mode from the hand count alone.
// There is no hysteresis: every frame is decided on its own.
func InteractionFor(handCount int) Interaction {
	if handCount == 2 {
		return InteractionRotate
	}
	return InteractionBuild
}

// State is the interpretation of a single landmark frame.
type State struct {
	HandCount int

	// Pointer is the index tip mapped to world space (Build, one hand).
	PointerX float64
	PointerY float64

	// Spread is the raw index-pinky distance; Size is the scaled and clamped value.
	Spread float64
	Size   float64

	PinchDistance float64
	Pinching      bool

	// Two-hand midpoint in normalized video space and the camera angles it maps to.
	HorizontalMid float64
	VerticalMid   float64
	Yaw           float64
	Pitch         float64
}

// Interaction returns the interaction mode for this state.
func (s State) Interaction() Interaction {
	return InteractionFor(s.HandCount)
}

// Detected reports whether any hand was seen.
func (s State) Detected() bool {
	return s.HandCount > 0
}

// Label is the human readable status line for the state.
func (s State) Label() string {
	switch {
	case s.HandCount >= 2:
		return "Rotation Mode (2 Hands)"
	case s.HandCount == 1:
		return "Tracking Active (1 Hand)"
	default:
		return "No hand detected"
	}
}

// Interpreter converts landmark frames into gesture states. It is stateless;
// debounce bookkeeping lives in PinchTracker.
type Interpreter struct {
	config Config
}

// NewInterpreter creates an Interpreter with the given configuration.
func NewInterpreter(config Config) *Interpreter {
	return &Interpreter{config: config}
}

// Config returns the interpreter configuration.
func (i *Interpreter) Config() Config {
	return i.config
}

// Interpret computes the gesture state for one frame of hands. Hands beyond
// the second are ignored.
func (i *Interpreter) Interpret(hands []detector.HandLandmarks) State {
	switch {
	case len(hands) >= 2:
		return i.twoHands(&hands[0], &hands[1])
	case len(hands) == 1:
		return i.oneHand(&hands[0])
	default:
		return State{}
	}
}

func (i *Interpreter) oneHand(hand *detector.HandLandmarks) State {
	pointer := hand.Points[detector.IndexTip]
	wx, wy := i.MapPointer(pointer.X, pointer.Y)

	spread := hand.Distance(detector.IndexTip, detector.PinkyTip)
	pinch := hand.Distance(detector.ThumbTip, detector.IndexTip)

	return State{
		HandCount:     1,
		PointerX:      wx,
		PointerY:      wy,
		Spread:        spread,
		Size:          i.SizeFor(spread),
		PinchDistance: pinch,
		Pinching:      pinch < i.config.PinchThreshold,
	}
}

func (i *Interpreter) twoHands(a, b *detector.HandLandmarks) State {
	p1 := a.Points[detector.IndexTip]
	p2 := b.Points[detector.IndexTip]

	h := (p1.X + p2.X) / 2
	v := (p1.Y + p2.Y) / 2

	return State{
		HandCount:     2,
		HorizontalMid: h,
		VerticalMid:   v,
		Yaw:           (h - 0.5) * 2 * math.Pi,
		Pitch:         (v - 0.5) * math.Pi,
	}
}

// MapPointer maps a normalized video coordinate to world space. The
// horizontal axis is mirrored so the cursor follows the hand on screen.
func (i *Interpreter) MapPointer(x, y float64) (float64, float64) {
	return (1-x)*i.config.PointerScaleX + i.config.PointerOffsetX,
		(1-y)*i.config.PointerScaleY + i.config.PointerOffsetY
}

// SizeFor converts a raw spread into an object size within [MinSize, MaxSize].
func (i *Interpreter) SizeFor(spread float64) float64 {
	return clamp(spread*i.config.SpreadScale, i.config.MinSize, i.config.MaxSize)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
