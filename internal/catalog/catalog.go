// Package catalog holds the placement modes and the static building part and
// celestial body tables the editor places from.
package catalog

import (
	"errors"
	"fmt"
)

// ErrUnknownItem is returned when a key is not present in the catalog.
var ErrUnknownItem = errors.New("unknown catalog item")

// BuildingPart is a fixed-size box template for Building mode.
type BuildingPart struct {
	Key         string     `json:"key"`
	Name        string     `json:"name"`
	Size        [3]float64 `json:"size"`
	Color       Color      `json:"color"`
	Transparent bool       `json:"transparent,omitempty"`
	Opacity     float64    `json:"opacity"`
}

// CelestialBody is a sphere template for Solar mode.
type CelestialBody struct {
	Key      string  `json:"key"`
	Name     string  `json:"name"`
	Radius   float64 `json:"radius"`
	Color    Color   `json:"color"`
	Emissive bool    `json:"emissive,omitempty"`
	HasRing  bool    `json:"has_ring,omitempty"`
	HasTrail bool    `json:"has_trail,omitempty"`
}

var buildingParts = []BuildingPart{
	{Key: "wall", Name: "Wall", Size: [3]float64{3, 2, 0.3}, Color: 0xC19A6B, Opacity: 1},
	{Key: "window", Name: "Window", Size: [3]float64{1.5, 1.5, 0.2}, Color: 0x87CEEB, Transparent: true, Opacity: 0.5},
	{Key: "door", Name: "Door", Size: [3]float64{1.2, 2, 0.2}, Color: 0x8B4513, Opacity: 1},
	{Key: "roof", Name: "Roof", Size: [3]float64{4, 0.3, 4}, Color: 0xDC143C, Opacity: 1},
	{Key: "floor", Name: "Floor", Size: [3]float64{4, 0.2, 4}, Color: 0x696969, Opacity: 1},
	{Key: "column", Name: "Column", Size: [3]float64{0.4, 3, 0.4}, Color: 0xD3D3D3, Opacity: 1},
	{Key: "stairs", Name: "Stairs", Size: [3]float64{2, 1, 3}, Color: 0xA9A9A9, Opacity: 1},
	{Key: "balcony", Name: "Balcony", Size: [3]float64{3, 0.2, 1.5}, Color: 0x708090, Opacity: 1},
}

var celestialBodies = []CelestialBody{
	{Key: "sun", Name: "Sun", Radius: 3, Color: 0xFDB813, Emissive: true},
	{Key: "mercury", Name: "Mercury", Radius: 0.4, Color: 0x8C7853},
	{Key: "venus", Name: "Venus", Radius: 0.9, Color: 0xFFC649},
	{Key: "earth", Name: "Earth", Radius: 1, Color: 0x4169E1},
	{Key: "moon", Name: "Moon", Radius: 0.3, Color: 0xC0C0C0},
	{Key: "mars", Name: "Mars", Radius: 0.5, Color: 0xCD5C5C},
	{Key: "jupiter", Name: "Jupiter", Radius: 2.5, Color: 0xDAA520},
	{Key: "saturn", Name: "Saturn", Radius: 2, Color: 0xF4A460, HasRing: true},
	{Key: "uranus", Name: "Uranus", Radius: 1.5, Color: 0x4FD0E7},
	{Key: "neptune", Name: "Neptune", Radius: 1.4, Color: 0x4166F5},
	{Key: "asteroid", Name: "Asteroid", Radius: 0.2, Color: 0x808080},
	{Key: "comet", Name: "Comet", Radius: 0.3, Color: 0xE0E0E0, HasTrail: true},
}

// Default selections used when a mode is first entered.
const (
	DefaultPart = "wall"
	DefaultBody = "earth"
)

// BuildingParts returns the building part table in display order.
func BuildingParts() []BuildingPart {
	out := make([]BuildingPart, len(buildingParts))
	copy(out, buildingParts)
	return out
}

// CelestialBodies returns the celestial body table in display order.
func CelestialBodies() []CelestialBody {
	out := make([]CelestialBody, len(celestialBodies))
	copy(out, celestialBodies)
	return out
}

// Part looks up a building part by key.
func Part(key string) (BuildingPart, error) {
	for _, p := range buildingParts {
		if p.Key == key {
			return p, nil
		}
	}
	return BuildingPart{}, fmt.Errorf("building part %q: %w", key, ErrUnknownItem)
}

// Body looks up a celestial body by key.
func Body(key string) (CelestialBody, error) {
	for _, b := range celestialBodies {
		if b.Key == key {
			return b, nil
		}
	}
	return CelestialBody{}, fmt.Errorf("celestial body %q: %w", key, ErrUnknownItem)
}

// mustPart is for compile-time defaults only.
func mustPart(key string) BuildingPart {
	p, err := Part(key)
	if err != nil {
		panic(err)
	}
	return p
}

func mustBody(key string) CelestialBody {
	b, err := Body(key)
	if err != nil {
		panic(err)
	}
	return b
}
