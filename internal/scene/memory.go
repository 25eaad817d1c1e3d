package scene

import "sync"

// MemoryRenderer keeps the scene in memory. It is used headless, in tests,
// and as the snapshot source for streaming renderers.
type MemoryRenderer struct {
	mu     sync.RWMutex
	order  []string
	meshes map[string]*Mesh
	camera CameraPose
}

// NewMemoryRenderer creates an empty MemoryRenderer.
func NewMemoryRenderer() *MemoryRenderer {
	return &MemoryRenderer{
		meshes: make(map[string]*Mesh),
	}
}

// Add stores a mesh, replacing any mesh with the same id.
func (r *MemoryRenderer) Add(mesh Mesh) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.meshes[mesh.ID]; !exists {
		r.order = append(r.order, mesh.ID)
	}
	m := mesh
	r.meshes[mesh.ID] = &m
}

// Remove deletes a mesh and its children.
func (r *MemoryRenderer) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.meshes[id]; !exists {
		return
	}
	delete(r.meshes, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// SetTransform updates a mesh's transform.
func (r *MemoryRenderer) SetTransform(id string, t Transform) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.meshes[id]; ok {
		m.Transform = t
	}
}

// SetVisible shows or hides a mesh.
func (r *MemoryRenderer) SetVisible(id string, visible bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.meshes[id]; ok {
		m.Visible = visible
	}
}

// SetMaterial replaces a mesh's material.
func (r *MemoryRenderer) SetMaterial(id string, mat Material) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.meshes[id]; ok {
		m.Material = mat
	}
}

// SetCamera stores the camera pose.
func (r *MemoryRenderer) SetCamera(pose CameraPose) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.camera = pose
}

// Mesh returns a copy of the mesh with the given id.
func (r *MemoryRenderer) Mesh(id string) (Mesh, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.meshes[id]
	if !ok {
		return Mesh{}, false
	}
	return *m, true
}

// Meshes returns copies of all meshes in insertion order.
func (r *MemoryRenderer) Meshes() []Mesh {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Mesh, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.meshes[id])
	}
	return out
}

// Count returns the number of meshes with the given role.
func (r *MemoryRenderer) Count(role Role) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, m := range r.meshes {
		if m.Role == role {
			n++
		}
	}
	return n
}

// Camera returns the last camera pose.
func (r *MemoryRenderer) Camera() CameraPose {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.camera
}
