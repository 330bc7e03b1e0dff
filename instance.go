package marionette

// Transform is an instance's on-stage placement. The final render scale is
// always BaseScale*ZoomMultiplier; zoom never replaces the fit-derived base
// scale, which preserves the scale-to-fit calibration at any zoom level.
type Transform struct {
	X              float64
	Y              float64
	BaseScale      float64
	ZoomMultiplier float64
}

// RenderScale returns the effective scale factor.
func (t Transform) RenderScale() float64 {
	return t.BaseScale * t.ZoomMultiplier
}

// savedState is the per-instance snapshot captured when focus moves away
// and restored when focus returns.
type savedState struct {
	x, y    float64
	zoom    float64
	visible bool
	valid   bool
}

// CharacterInstance is one active, on-stage, interactive occurrence of a
// loaded character model. Owned exclusively by the Registry, which is the
// sole mutator of membership and focus.
type CharacterInstance struct {
	// ID is the registry-assigned instance id.
	ID string
	// Name is the logical model name; at most one instance per name.
	Name string

	Runtime   *CharacterRuntime
	Transform Transform
	Visible   bool

	// Alpha is the drag-feedback opacity multiplier (1 when idle).
	Alpha float64

	saved savedState
	queue motionQueue
	idle  *idleScheduler

	// interactionBound guards against duplicate controller binding.
	interactionBound bool
}

// SaveState snapshots the live transform and visibility.
func (ci *CharacterInstance) SaveState() {
	ci.saved = savedState{
		x:       ci.Transform.X,
		y:       ci.Transform.Y,
		zoom:    ci.Transform.ZoomMultiplier,
		visible: ci.Visible,
		valid:   true,
	}
}

// RestoreState restores the most recent snapshot onto the live transform.
// A never-saved instance keeps its current state.
func (ci *CharacterInstance) RestoreState() {
	if !ci.saved.valid {
		return
	}
	ci.Transform.X = ci.saved.x
	ci.Transform.Y = ci.saved.y
	ci.Transform.ZoomMultiplier = ci.saved.zoom
	ci.Visible = ci.saved.visible
}

// Bounds returns the instance's world-space visual bounds: the model-local
// AABB scaled by the render scale and centered on the instance position.
func (ci *CharacterInstance) Bounds() Rect {
	local := ci.Runtime.LocalBounds()
	s := ci.Transform.RenderScale()
	w := local.Width * s
	h := local.Height * s
	return Rect{
		X:      ci.Transform.X - w/2,
		Y:      ci.Transform.Y - h/2,
		Width:  w,
		Height: h,
	}
}

// WorldToLocal projects a world point into the model-local coordinate
// space (the space hit areas are authored in).
func (ci *CharacterInstance) WorldToLocal(x, y float64) (float64, float64) {
	s := ci.Transform.RenderScale()
	if s == 0 {
		return 0, 0
	}
	local := ci.Runtime.LocalBounds()
	center := local.Center()
	return (x-ci.Transform.X)/s + center.X, (y-ci.Transform.Y)/s + center.Y
}

// ContainsPoint reports whether a world point falls inside the instance's
// visual bounds.
func (ci *CharacterInstance) ContainsPoint(x, y float64) bool {
	return ci.Bounds().Contains(x, y)
}

// release frees the runtime and cancels the idle scheduler. Registry-only.
func (ci *CharacterInstance) release() {
	if ci.idle != nil {
		ci.idle.Cancel()
		ci.idle = nil
	}
	ci.Runtime.Release()
}
