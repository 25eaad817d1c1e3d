package catalog

// Selection is the active placement mode together with its selected item.
// Exactly one of the mode-specific fields is meaningful, chosen by Mode.
// Selections are only built from catalog entries, so the selected item is
// always valid for its mode.
type Selection struct {
	mode  Mode
	color Color
	part  BuildingPart
	body  CelestialBody
}

// FreeSelection selects Free mode with the given color.
func FreeSelection(c Color) Selection {
	return Selection{mode: Free, color: c}
}

// PartSelection selects Building mode with the given part.
func PartSelection(p BuildingPart) Selection {
	return Selection{mode: Building, part: p}
}

// BodySelection selects Solar mode with the given body.
func BodySelection(b CelestialBody) Selection {
	return Selection{mode: Solar, body: b}
}

// Mode returns the placement mode.
func (s Selection) Mode() Mode {
	return s.mode
}

// Key returns the selected item key; in Free mode this is the color.
func (s Selection) Key() string {
	switch s.mode {
	case Building:
		return s.part.Key
	case Solar:
		return s.body.Key
	default:
		return s.color.Hex()
	}
}

// Name returns the selected item's display name.
func (s Selection) Name() string {
	switch s.mode {
	case Building:
		return s.part.Name
	case Solar:
		return s.body.Name
	default:
		return "Block " + s.color.Hex()
	}
}

// Color returns the color objects placed from this selection take.
func (s Selection) Color() Color {
	switch s.mode {
	case Building:
		return s.part.Color
	case Solar:
		return s.body.Color
	default:
		return s.color
	}
}

// Part returns the building part and true in Building mode.
func (s Selection) Part() (BuildingPart, bool) {
	return s.part, s.mode == Building
}

// Body returns the celestial body and true in Solar mode.
func (s Selection) Body() (CelestialBody, bool) {
	return s.body, s.mode == Solar
}

// Selector remembers the last choice in each mode so switching modes back
// and forth keeps the user's picks.
type Selector struct {
	mode  Mode
	color Color
	part  BuildingPart
	body  CelestialBody
}

// NewSelector starts in Free mode with the default picks.
func NewSelector() *Selector {
	return &Selector{
		mode:  Free,
		color: DefaultFree,
		part:  mustPart(DefaultPart),
		body:  mustBody(DefaultBody),
	}
}

// Current returns the active selection.
func (s *Selector) Current() Selection {
	switch s.mode {
	case Building:
		return PartSelection(s.part)
	case Solar:
		return BodySelection(s.body)
	default:
		return FreeSelection(s.color)
	}
}

// SetMode switches placement mode, keeping the remembered pick for it.
func (s *Selector) SetMode(m Mode) Selection {
	switch m {
	case Building, Solar:
		s.mode = m
	default:
		s.mode = Free
	}
	return s.Current()
}

// SetColor sets the Free mode color. It does not change the active mode.
func (s *Selector) SetColor(c Color) Selection {
	s.color = c
	return s.Current()
}

// SelectPart picks a building part and switches to Building mode.
func (s *Selector) SelectPart(key string) (Selection, error) {
	p, err := Part(key)
	if err != nil {
		return s.Current(), err
	}
	s.part = p
	s.mode = Building
	return s.Current(), nil
}

// SelectBody picks a celestial body and switches to Solar mode.
func (s *Selector) SelectBody(key string) (Selection, error) {
	b, err := Body(key)
	if err != nil {
		return s.Current(), err
	}
	s.body = b
	s.mode = Solar
	return s.Current(), nil
}

// Select resolves key in the active mode's catalog. In Free mode the key is
// parsed as a color.
func (s *Selector) Select(key string) (Selection, error) {
	switch s.mode {
	case Building:
		return s.SelectPart(key)
	case Solar:
		return s.SelectBody(key)
	default:
		c, err := ParseColor(key)
		if err != nil {
			return s.Current(), err
		}
		return s.SetColor(c), nil
	}
}
