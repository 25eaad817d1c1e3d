package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is a 24-bit RGB color, 0xRRGGBB.
type Color uint32

// Common colors.
const (
	White       Color = 0xFFFFFF
	Black       Color = 0x000000
	CursorBlue  Color = 0x38BDF8
	RingColor   Color = 0xFFE4B5
	TrailColor  Color = 0xFFFFFF
	DefaultFree Color = CursorBlue
)

// ParseColor parses "#rrggbb", "rrggbb" or "0xrrggbb".
func ParseColor(s string) (Color, error) {
	v := strings.TrimSpace(s)
	v = strings.TrimPrefix(v, "#")
	v = strings.TrimPrefix(strings.ToLower(v), "0x")
	if len(v) != 6 {
		return 0, fmt.Errorf("invalid color %q", s)
	}
	n, err := strconv.ParseUint(v, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color(n), nil
}

// Hex formats the color as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%06x", uint32(c)&0xFFFFFF)
}

// String implements fmt.Stringer.
func (c Color) String() string {
	return c.Hex()
}

// MarshalText encodes the color as "#rrggbb".
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// UnmarshalText decodes a color from any form accepted by ParseColor.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
