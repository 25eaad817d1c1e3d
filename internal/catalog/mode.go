package catalog

import (
	"fmt"
	"strings"
)

// Mode is the placement mode: which catalog and geometry new objects use.
type Mode int

const (
	// Free places cubes sized by the hand spread in a user-chosen color.
	Free Mode = iota
	// Building places fixed-size, grid-aligned building parts.
	Building
	// Solar places celestial bodies.
	Solar
)

var modeNames = [...]string{"free", "building", "solar"}

// Modes returns every placement mode.
func Modes() []Mode {
	return []Mode{Free, Building, Solar}
}

// String returns the mode key.
func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// Title returns the display name of the mode.
func (m Mode) Title() string {
	switch m {
	case Building:
		return "Building Blocks"
	case Solar:
		return "Solar System"
	default:
		return "Free Build"
	}
}

// ParseMode parses a mode key.
func ParseMode(s string) (Mode, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, name := range modeNames {
		if name == key {
			return Mode(i), nil
		}
	}
	return Free, fmt.Errorf("unknown placement mode %q", s)
}

// MarshalText encodes the mode key.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a mode key.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
