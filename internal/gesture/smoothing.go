package gesture

// Smoothed is a first-order low-pass filter: each Step moves the current
// value a fixed fraction of the remaining distance toward the target.
type Smoothed struct {
	Factor  float64
	current float64
	target  float64
}

// NewSmoothed creates a filter resting at initial.
func NewSmoothed(factor, initial float64) Smoothed {
	return Smoothed{Factor: factor, current: initial, target: initial}
}

// SetTarget changes the value the filter converges toward.
func (s *Smoothed) SetTarget(target float64) {
	s.target = target
}

// Step advances the filter by one tick and returns the new current value.
func (s *Smoothed) Step() float64 {
	s.current += (s.target - s.current) * s.Factor
	return s.current
}

// Value returns the current filtered value.
func (s *Smoothed) Value() float64 {
	return s.current
}

// Target returns the target value.
func (s *Smoothed) Target() float64 {
	return s.target
}

// Reset snaps both current and target to v.
func (s *Smoothed) Reset(v float64) {
	s.current = v
	s.target = v
}
