package scene

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/ayusman/handbuilder/internal/catalog"
	"github.com/ayusman/handbuilder/internal/detector"
	"github.com/ayusman/handbuilder/internal/gesture"
)

// Status is a point-in-time summary of the editor.
type Status struct {
	Interaction   string            `json:"interaction"`
	Label         string            `json:"label"`
	HandCount     int               `json:"hand_count"`
	Mode          catalog.Mode      `json:"mode"`
	Selected      string            `json:"selected"`
	SelectedName  string            `json:"selected_name"`
	Color         catalog.Color     `json:"color"`
	CursorVisible bool              `json:"cursor_visible"`
	Pinching      bool              `json:"pinching"`
	Cursor        Vec3              `json:"cursor"`
	Size          float64           `json:"size"`
	Placed        int               `json:"placed"`
	GridVisible   bool              `json:"grid_visible"`
	Camera        CameraPose        `json:"camera"`
	Gesture       gesture.State     `json:"-"`
	Selection     catalog.Selection `json:"-"`
}

type placedObject struct {
	mesh Mesh
}

type cameraGlide struct {
	yaw   *gween.Tween
	pitch *gween.Tween
}

// Editor is the scene mutator. It turns gesture states into cursor motion,
// camera orbit and placements, and owns the cursor and placed objects.
//
// An Editor is not safe for concurrent use; one goroutine must own it.
type Editor struct {
	renderer Renderer
	config   Config
	interp   *gesture.Interpreter
	pinch    *gesture.PinchTracker
	selector *catalog.Selector
	rng      *rand.Rand

	curX  gesture.Smoothed
	curY  gesture.Smoothed
	size  gesture.Smoothed
	yaw   gesture.Smoothed
	pitch gesture.Smoothed

	last          gesture.State
	rotating      bool
	cursor        Mesh
	cursorRot     Vec3
	cursorVisible bool
	armed         bool
	gridVisible   bool
	glide         *cameraGlide
	camera        CameraPose
	placed        []placedObject
}

// NewEditor creates an editor drawing into r. The fixtures, default camera
// and a Free mode cursor are pushed to r immediately.
func NewEditor(r Renderer, config Config) *Editor {
	seed := config.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	e := &Editor{
		renderer:      r,
		config:        config,
		interp:        gesture.NewInterpreter(config.Gesture),
		pinch:         gesture.NewPinchTracker(config.Gesture.Debounce),
		selector:      catalog.NewSelector(),
		rng:           rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15)),
		curX:          gesture.NewSmoothed(config.CursorSmoothing, 0),
		curY:          gesture.NewSmoothed(config.CursorSmoothing, 0),
		size:          gesture.NewSmoothed(config.SizeSmoothing, 1),
		yaw:           gesture.NewSmoothed(config.CameraSmoothing, 0),
		pitch:         gesture.NewSmoothed(config.CameraSmoothing, 0),
		cursorVisible: true,
		gridVisible:   true,
	}

	for _, f := range fixtures() {
		r.Add(f)
	}
	e.poseCamera(0, 0)
	e.rebuildCursor()

	return e
}

// Renderer returns the renderer the editor draws into.
func (e *Editor) Renderer() Renderer {
	return e.renderer
}

// HandleFrame interprets one tracker frame and applies it.
func (e *Editor) HandleFrame(hands []detector.HandLandmarks, now time.Time) gesture.State {
	st := e.interp.Interpret(hands)
	e.Apply(st, now)
	return st
}

// Apply routes a gesture state through the interaction mode controller.
// Two hands orbit the camera and hide the cursor; otherwise the cursor is
// shown and, when a hand is present, follows it and may place.
func (e *Editor) Apply(st gesture.State, now time.Time) {
	e.last = st

	if st.Interaction() == gesture.InteractionRotate {
		e.rotating = true
		e.glide = nil
		e.yaw.SetTarget(st.Yaw)
		e.pitch.SetTarget(st.Pitch)
		e.setCursorVisible(false)
		return
	}

	e.rotating = false
	e.setCursorVisible(true)
	if !st.Detected() {
		// Cursor stays where it is; no placement without a hand.
		return
	}

	e.curX.SetTarget(st.PointerX)
	e.curY.SetTarget(st.PointerY)
	e.size.SetTarget(st.Size)

	event := e.pinch.Update(st.Pinching, now)
	e.setArmed(st.Pinching)
	if event == gesture.PinchTriggered {
		e.place()
	}
}

// Tick advances smoothing and idle animation by one display frame.
func (e *Editor) Tick(dt time.Duration) {
	x := e.curX.Step()
	y := e.curY.Step()
	s := e.size.Step()

	e.cursorRot.X += e.config.CursorSpin
	e.cursorRot.Y += e.config.CursorSpin

	scale := 1.0
	if e.selector.Current().Mode() == catalog.Free {
		scale = s
	}
	e.cursor.Transform = Transform{
		Position: Vec3{X: x, Y: y},
		Rotation: e.cursorRot,
		Scale:    scale,
	}
	e.renderer.SetTransform(e.cursor.ID, e.cursor.Transform)

	switch {
	case e.glide != nil:
		e.stepGlide(dt)
	case e.rotating:
		e.poseCamera(e.yaw.Step(), e.pitch.Step())
	}

	for i := range e.placed {
		p := &e.placed[i]
		if p.mesh.Spin == 0 {
			continue
		}
		p.mesh.Transform.Rotation.Y += p.mesh.Spin
		e.renderer.SetTransform(p.mesh.ID, p.mesh.Transform)
	}
}

// SetMode switches placement mode and rebuilds the cursor.
func (e *Editor) SetMode(m catalog.Mode) catalog.Selection {
	sel := e.selector.SetMode(m)
	e.rebuildCursor()
	return sel
}

// SelectPart selects a building part, switching to Building mode.
func (e *Editor) SelectPart(key string) (catalog.Selection, error) {
	sel, err := e.selector.SelectPart(key)
	if err != nil {
		return sel, err
	}
	e.rebuildCursor()
	return sel, nil
}

// SelectBody selects a celestial body, switching to Solar mode.
func (e *Editor) SelectBody(key string) (catalog.Selection, error) {
	sel, err := e.selector.SelectBody(key)
	if err != nil {
		return sel, err
	}
	e.rebuildCursor()
	return sel, nil
}

// Select resolves key in the current mode's catalog.
func (e *Editor) Select(key string) (catalog.Selection, error) {
	sel, err := e.selector.Select(key)
	if err != nil {
		return sel, err
	}
	e.rebuildCursor()
	return sel, nil
}

// SetColor sets the Free mode block color.
func (e *Editor) SetColor(c catalog.Color) catalog.Selection {
	sel := e.selector.SetColor(c)
	e.rebuildCursor()
	return sel
}

// Selection returns the active placement selection.
func (e *Editor) Selection() catalog.Selection {
	return e.selector.Current()
}

// ToggleGrid flips grid visibility and returns the new state.
func (e *Editor) ToggleGrid() bool {
	e.gridVisible = !e.gridVisible
	e.renderer.SetVisible(GridID, e.gridVisible)
	return e.gridVisible
}

// ResetCamera returns the camera to its home pose, gliding there when a
// reset duration is configured.
func (e *Editor) ResetCamera() {
	e.yaw.SetTarget(0)
	e.pitch.SetTarget(0)

	d := float32(e.config.CameraReset.Seconds())
	if d <= 0 || (e.yaw.Value() == 0 && e.pitch.Value() == 0) {
		e.glide = nil
		e.yaw.Reset(0)
		e.pitch.Reset(0)
		e.poseCamera(0, 0)
		return
	}

	e.glide = &cameraGlide{
		yaw:   gween.New(float32(e.yaw.Value()), 0, d, ease.OutCubic),
		pitch: gween.New(float32(e.pitch.Value()), 0, d, ease.OutCubic),
	}
}

// Clear removes every placed object and returns how many were removed.
// The cursor, lights, camera and grid are untouched.
func (e *Editor) Clear() int {
	n := len(e.placed)
	for _, p := range e.placed {
		e.renderer.Remove(p.mesh.ID)
	}
	e.placed = nil
	return n
}

// PlacedCount returns the number of placed objects.
func (e *Editor) PlacedCount() int {
	return len(e.placed)
}

// Placed returns copies of the placed meshes in placement order.
func (e *Editor) Placed() []Mesh {
	out := make([]Mesh, len(e.placed))
	for i, p := range e.placed {
		out[i] = p.mesh
	}
	return out
}

// Cursor returns a copy of the cursor mesh.
func (e *Editor) Cursor() Mesh {
	return e.cursor
}

// Camera returns the current camera pose.
func (e *Editor) Camera() CameraPose {
	return e.camera
}

// Status returns a summary of the editor state.
func (e *Editor) Status() Status {
	sel := e.selector.Current()
	return Status{
		Interaction:   e.last.Interaction().String(),
		Label:         e.last.Label(),
		HandCount:     e.last.HandCount,
		Mode:          sel.Mode(),
		Selected:      sel.Key(),
		SelectedName:  sel.Name(),
		Color:         sel.Color(),
		CursorVisible: e.cursorVisible,
		Pinching:      e.armed,
		Cursor:        e.cursor.Transform.Position,
		Size:          e.size.Value(),
		Placed:        len(e.placed),
		GridVisible:   e.gridVisible,
		Camera:        e.camera,
		Gesture:       e.last,
		Selection:     sel,
	}
}

func (e *Editor) setCursorVisible(v bool) {
	if e.cursorVisible == v {
		return
	}
	e.cursorVisible = v
	e.cursor.Visible = v
	e.renderer.SetVisible(e.cursor.ID, v)
}

func (e *Editor) setArmed(armed bool) {
	if e.armed == armed {
		return
	}
	e.armed = armed
	e.cursor.Material = e.cursorMaterial()
	e.renderer.SetMaterial(e.cursor.ID, e.cursor.Material)
}

func (e *Editor) cursorMaterial() Material {
	if e.armed {
		return Material{Color: catalog.White, Transparent: true, Opacity: e.config.ArmedOpacity}
	}
	return Material{
		Color:       e.selector.Current().Color(),
		Wireframe:   true,
		Transparent: true,
		Opacity:     e.config.CursorOpacity,
	}
}

// rebuildCursor replaces the cursor mesh, since the geometry kind can change
// between box and sphere.
func (e *Editor) rebuildCursor() {
	if e.cursor.ID != "" {
		e.renderer.Remove(e.cursor.ID)
	}

	sel := e.selector.Current()
	geom := Geometry{Kind: KindBox, Size: Vec3{X: 1, Y: 1, Z: 1}}
	if part, ok := sel.Part(); ok {
		geom.Size = Vec3{X: part.Size[0], Y: part.Size[1], Z: part.Size[2]}
	}
	if body, ok := sel.Body(); ok {
		geom = Geometry{Kind: KindSphere, Radius: body.Radius, Segments: 16}
	}

	scale := 1.0
	if sel.Mode() == catalog.Free {
		scale = e.size.Value()
	}

	e.cursor = Mesh{
		ID:       uuid.NewString(),
		Role:     RoleCursor,
		Label:    sel.Name(),
		Geometry: geom,
		Material: e.cursorMaterial(),
		Transform: Transform{
			Position: Vec3{X: e.curX.Value(), Y: e.curY.Value()},
			Rotation: e.cursorRot,
			Scale:    scale,
		},
		Visible: e.cursorVisible,
	}
	e.renderer.Add(e.cursor)
}

func (e *Editor) poseCamera(yaw, pitch float64) {
	r := e.config.OrbitRadius
	e.camera = CameraPose{
		Position: Vec3{
			X: math.Sin(yaw) * r,
			Y: e.config.CameraHeight + math.Sin(pitch)*e.config.PitchLift,
			Z: math.Cos(yaw) * r,
		},
	}
	e.renderer.SetCamera(e.camera)
}

func (e *Editor) stepGlide(dt time.Duration) {
	step := float32(dt.Seconds())
	yaw, yawDone := e.glide.yaw.Update(step)
	pitch, pitchDone := e.glide.pitch.Update(step)

	if yawDone && pitchDone {
		e.glide = nil
		e.yaw.Reset(0)
		e.pitch.Reset(0)
		e.poseCamera(0, 0)
		return
	}

	e.yaw.Reset(float64(yaw))
	e.pitch.Reset(float64(pitch))
	e.poseCamera(float64(yaw), float64(pitch))
}
