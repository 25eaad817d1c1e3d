package gesture

import "time"

// PinchEvent is the outcome of feeding one pinch observation to a PinchTracker.
type PinchEvent int

const (
	// PinchNone means nothing changed.
	PinchNone PinchEvent = iota
	// PinchHeld means the hand is pinching but no placement fired.
	PinchHeld
	// PinchTriggered means a placement should happen now.
	PinchTriggered
	// PinchReleased means the hand opened.
	PinchReleased
)

// PinchTracker debounces pinch onsets into discrete placement triggers.
//
// A trigger fires when the hand is pinching, the tracker is not already
// active, and at least the debounce interval has elapsed since the last
// trigger. A pinch that starts inside the window is not latched, so a held
// pinch fires once the window expires.
type PinchTracker struct {
	debounce time.Duration
	active   bool
	last     time.Time
}

// NewPinchTracker creates a tracker with the given debounce interval.
func NewPinchTracker(debounce time.Duration) *PinchTracker {
	return &PinchTracker{debounce: debounce}
}

// Update feeds one observation taken at now.
func (p *PinchTracker) Update(pinching bool, now time.Time) PinchEvent {
	if !pinching {
		if p.active {
			p.active = false
			return PinchReleased
		}
		return PinchNone
	}

	if p.active {
		return PinchHeld
	}
	if !p.last.IsZero() && now.Sub(p.last) < p.debounce {
		return PinchHeld
	}

	p.active = true
	p.last = now
	return PinchTriggered
}

// Active reports whether a pinch has fired and not yet been released.
func (p *PinchTracker) Active() bool {
	return p.active
}

// LastTrigger returns when the last placement fired, or the zero time.
func (p *PinchTracker) LastTrigger() time.Time {
	return p.last
}
