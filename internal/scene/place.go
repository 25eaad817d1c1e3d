package scene

import (
	"log"
	"math"

	"github.com/google/uuid"

	"github.com/ayusman/handbuilder/internal/catalog"
)

// place adds one object for the current selection at the smoothed cursor position.
func (e *Editor) place() {
	sel := e.selector.Current()
	pos := Vec3{X: e.curX.Value(), Y: e.curY.Value()}

	var mesh Mesh
	switch sel.Mode() {
	case catalog.Building:
		part, _ := sel.Part()
		mesh = e.buildingMesh(part, pos)
	case catalog.Solar:
		body, _ := sel.Body()
		mesh = e.solarMesh(body, pos)
	default:
		mesh = e.freeMesh(sel.Color(), pos)
	}

	e.placed = append(e.placed, placedObject{mesh: mesh})
	e.renderer.Add(mesh)
	log.Printf("Placed %s at (%.2f, %.2f, %.2f)", mesh.Label, mesh.Transform.Position.X, mesh.Transform.Position.Y, mesh.Transform.Position.Z)
}

func (e *Editor) freeMesh(c catalog.Color, pos Vec3) Mesh {
	size := e.size.Value()
	return Mesh{
		ID:       uuid.NewString(),
		Role:     RolePlaced,
		Label:    "Block",
		Geometry: Geometry{Kind: KindBox, Size: Vec3{X: size, Y: size, Z: size}},
		Material: Material{Color: c, Opacity: 1, Roughness: 0.3, Metalness: 0.1},
		Transform: Transform{
			Position: pos,
			Rotation: Vec3{
				X: e.rng.Float64() * e.config.TumbleMax,
				Y: e.rng.Float64() * e.config.TumbleMax,
				Z: e.rng.Float64() * e.config.TumbleMax,
			},
			Scale: 1,
		},
		Visible: true,
	}
}

func (e *Editor) buildingMesh(part catalog.BuildingPart, pos Vec3) Mesh {
	pos.X = snap(pos.X)
	pos.Y = snap(pos.Y)

	return Mesh{
		ID:       uuid.NewString(),
		Role:     RolePlaced,
		Label:    part.Name,
		Geometry: Geometry{Kind: KindBox, Size: Vec3{X: part.Size[0], Y: part.Size[1], Z: part.Size[2]}},
		Material: Material{
			Color:       part.Color,
			Transparent: part.Transparent,
			Opacity:     part.Opacity,
			Roughness:   0.5,
			Metalness:   0.2,
		},
		Transform: Transform{Position: pos, Scale: 1},
		Visible:   true,
	}
}

func (e *Editor) solarMesh(body catalog.CelestialBody, pos Vec3) Mesh {
	mesh := Mesh{
		ID:       uuid.NewString(),
		Role:     RolePlaced,
		Label:    body.Name,
		Geometry: Geometry{Kind: KindSphere, Radius: body.Radius, Segments: 32},
		Material: Material{
			Color:     body.Color,
			Opacity:   1,
			Roughness: 0.7,
			Metalness: 0.1,
		},
		Transform: Transform{Position: pos, Scale: 1},
		Visible:   true,
		Spin:      e.config.SpinMin + e.rng.Float64()*(e.config.SpinMax-e.config.SpinMin),
	}

	if body.Emissive {
		mesh.Material.Emissive = body.Color
		mesh.Material.EmissiveIntensity = e.config.EmissiveIntensity
	}

	if body.HasRing {
		mesh.Children = append(mesh.Children, Mesh{
			ID:   mesh.ID + "-ring",
			Role: RolePlaced,
			Geometry: Geometry{
				Kind:        KindRing,
				InnerRadius: body.Radius * 1.5,
				Radius:      body.Radius * 2.5,
				Segments:    64,
			},
			Material: Material{
				Color:       catalog.RingColor,
				Transparent: true,
				Opacity:     0.6,
				DoubleSide:  true,
			},
			// Flat ring, perpendicular to the sphere's vertical axis.
			Transform: Transform{Rotation: Vec3{X: math.Pi / 2}, Scale: 1},
			Visible:   true,
		})
	}

	if body.HasTrail {
		mesh.Children = append(mesh.Children, Mesh{
			ID:       mesh.ID + "-trail",
			Role:     RolePlaced,
			Geometry: Geometry{Kind: KindCone, Radius: 0.2, Height: 2, Segments: 8},
			Material: Material{
				Color:       catalog.TrailColor,
				Transparent: true,
				Opacity:     0.4,
			},
			Transform: Transform{
				Position: Vec3{Z: -1.5},
				Rotation: Vec3{X: math.Pi / 2},
				Scale:    1,
			},
			Visible: true,
		})
	}

	return mesh
}

// snap rounds to the nearest grid line, halves rounding up.
func snap(v float64) float64 {
	return math.Floor(v + 0.5)
}
