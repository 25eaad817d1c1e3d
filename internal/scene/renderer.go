// Package scene owns the editable 3D scene: the cursor, placed objects and
// camera pose, and pushes every change to a Renderer.
package scene

import "github.com/ayusman/handbuilder/internal/catalog"

// Vec3 is a point or Euler rotation in world space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Kind is the geometry kind of a mesh.
type Kind string

const (
	KindBox              Kind = "box"
	KindSphere           Kind = "sphere"
	KindRing             Kind = "ring"
	KindCone             Kind = "cone"
	KindGrid             Kind = "grid"
	KindAmbientLight     Kind = "ambient_light"
	KindDirectionalLight Kind = "directional_light"
)

// Geometry describes a mesh's shape. Which fields apply depends on Kind:
// box uses Size, sphere uses Radius, ring uses InnerRadius and Radius,
// cone uses Radius and Height, grid uses Size.X as extent and Segments as
// divisions.
type Geometry struct {
	Kind        Kind    `json:"kind"`
	Size        Vec3    `json:"size,omitempty"`
	Radius      float64 `json:"radius,omitempty"`
	InnerRadius float64 `json:"inner_radius,omitempty"`
	Height      float64 `json:"height,omitempty"`
	Segments    int     `json:"segments,omitempty"`
}

// Material describes how a mesh is shaded. Lights use Color and Intensity.
type Material struct {
	Color             catalog.Color `json:"color"`
	Wireframe         bool          `json:"wireframe,omitempty"`
	Transparent       bool          `json:"transparent,omitempty"`
	Opacity           float64       `json:"opacity"`
	Emissive          catalog.Color `json:"emissive,omitempty"`
	EmissiveIntensity float64       `json:"emissive_intensity,omitempty"`
	Roughness         float64       `json:"roughness,omitempty"`
	Metalness         float64       `json:"metalness,omitempty"`
	DoubleSide        bool          `json:"double_side,omitempty"`
	Intensity         float64       `json:"intensity,omitempty"`
}

// Transform places a mesh relative to its parent.
type Transform struct {
	Position Vec3    `json:"position"`
	Rotation Vec3    `json:"rotation"`
	Scale    float64 `json:"scale"`
}

// Role says who owns a mesh.
type Role string

const (
	RoleCursor  Role = "cursor"
	RolePlaced  Role = "placed"
	RoleFixture Role = "fixture"
)

// Mesh is one renderable scene entity. Children move with their parent and
// are removed with it.
type Mesh struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Label     string    `json:"label,omitempty"`
	Geometry  Geometry  `json:"geometry"`
	Material  Material  `json:"material"`
	Transform Transform `json:"transform"`
	Visible   bool      `json:"visible"`
	Spin      float64   `json:"spin,omitempty"`
	Children  []Mesh    `json:"children,omitempty"`
}

// CameraPose is the camera position and the point it looks at.
type CameraPose struct {
	Position Vec3 `json:"position"`
	Target   Vec3 `json:"target"`
}

// Renderer draws the scene. Implementations must tolerate commands for ids
// they do not know.
type Renderer interface {
	Add(mesh Mesh)
	Remove(id string)
	SetTransform(id string, t Transform)
	SetVisible(id string, visible bool)
	SetMaterial(id string, m Material)
	SetCamera(pose CameraPose)
}

// Fixture ids. Fixtures are never removed by Clear.
const (
	GridID             = "grid"
	AmbientLightID     = "light-ambient"
	DirectionalLightID = "light-directional"
)

func fixtures() []Mesh {
	return []Mesh{
		{
			ID:       AmbientLightID,
			Role:     RoleFixture,
			Geometry: Geometry{Kind: KindAmbientLight},
			Material: Material{Color: catalog.White, Intensity: 0.6, Opacity: 1},
			Visible:  true,
		},
		{
			ID:        DirectionalLightID,
			Role:      RoleFixture,
			Geometry:  Geometry{Kind: KindDirectionalLight},
			Material:  Material{Color: catalog.White, Intensity: 0.8, Opacity: 1},
			Transform: Transform{Position: Vec3{X: 10, Y: 20, Z: 10}, Scale: 1},
			Visible:   true,
		},
		{
			ID:        GridID,
			Role:      RoleFixture,
			Geometry:  Geometry{Kind: KindGrid, Size: Vec3{X: 40}, Segments: 40},
			Material:  Material{Color: 0x555555, Opacity: 1},
			Transform: Transform{Scale: 1},
			Visible:   true,
		},
	}
}
