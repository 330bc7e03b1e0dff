package marionette

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// DragState is the transient state of an in-progress drag gesture. It exists
// only between pointer-down inside the focused instance's bounds and the
// matching pointer-up.
type DragState struct {
	// Active is true while the gesture has committed to dragging (pointer
	// travel exceeded the dead zone).
	Active bool
	// StartPointer is the global pointer position at press time.
	StartPointer Vec2
	// StartPosition is the instance position at press time.
	StartPosition Vec2

	// pressed tracks the press before the dead zone is exceeded, so a
	// short press-release still counts as a tap.
	pressed bool
}

// Controller routes drag, wheel-zoom, and hit-test input to the currently
// focused instance. It is a plain state machine fed with pointer events;
// it does not care whether those come from ebiten polling, a test, or a
// replay. Exactly one drag can be active at a time, always on the focused
// instance; the Idle/Dragging machine itself prevents overlapping drags.
type Controller struct {
	cfg    Config
	target *CharacterInstance
	drag   DragState

	// restore fades the instance back to full opacity after a drag.
	restore *gween.Tween

	// OnHit is invoked when a tap lands on one or more of the focused
	// instance's hit areas. It reports only; triggering a motion (or
	// nothing) is the collaborator's choice.
	OnHit func(inst *CharacterInstance, areas []string)
}

// NewController creates a controller with no bound instance.
func NewController(cfg Config) *Controller {
	return &Controller{cfg: cfg}
}

// Target returns the currently bound instance, or nil.
func (c *Controller) Target() *CharacterInstance { return c.target }

// Dragging reports whether a drag gesture is active.
func (c *Controller) Dragging() bool { return c.drag.Active }

// Bind attaches the controller to an instance, detaching it from any
// previous one first. Binding the already-bound instance is a no-op, so
// double-binding cannot register duplicate handling.
func (c *Controller) Bind(inst *CharacterInstance) {
	if inst != nil && inst.interactionBound && c.target == inst {
		return
	}
	c.Unbind()
	c.target = inst
	if inst != nil {
		inst.interactionBound = true
	}
}

// Unbind detaches the controller, aborting any in-progress drag and
// restoring full opacity immediately.
func (c *Controller) Unbind() {
	if c.target == nil {
		return
	}
	if c.drag.Active || c.drag.pressed {
		c.target.Alpha = 1
	}
	c.drag = DragState{}
	c.restore = nil
	c.target.interactionBound = false
	c.target = nil
}

// PointerDown begins a potential drag when the pointer lands inside the
// focused instance's bounds.
func (c *Controller) PointerDown(p Vec2) {
	if c.target == nil || c.drag.pressed || c.drag.Active {
		return
	}
	if !c.target.ContainsPoint(p.X, p.Y) {
		return
	}
	c.drag = DragState{
		pressed:       true,
		StartPointer:  p,
		StartPosition: Vec2{X: c.target.Transform.X, Y: c.target.Transform.Y},
	}
}

// PointerMove advances an in-progress gesture. Once pointer travel exceeds
// the dead zone the gesture commits to dragging: the instance dims and
// follows the pointer, clamped so its visual bounds stay within
// [margin, viewport-margin] on both axes.
func (c *Controller) PointerMove(p Vec2, viewport Rect) {
	if c.target == nil || !c.drag.pressed {
		return
	}
	if !c.drag.Active {
		dx := p.X - c.drag.StartPointer.X
		dy := p.Y - c.drag.StartPointer.Y
		if math.Sqrt(dx*dx+dy*dy) <= c.cfg.DragDeadZone {
			return
		}
		c.drag.Active = true
		c.target.Alpha = c.cfg.DragAlpha
		c.restore = nil
	}

	pos := dragPosition(c.drag.StartPosition, c.drag.StartPointer, p)
	b := c.target.Bounds()
	c.target.Transform.X, c.target.Transform.Y =
		clampToViewport(pos, b.Width, b.Height, viewport, c.cfg.Margin)
}

// PointerUp ends the gesture. A completed drag persists the resulting
// position into the instance's saved state and fades opacity back to full;
// a plain tap inside bounds runs the hit test instead.
func (c *Controller) PointerUp(p Vec2) {
	if c.target == nil || !c.drag.pressed {
		return
	}
	wasDrag := c.drag.Active
	c.drag = DragState{}

	if wasDrag {
		c.target.SaveState()
		c.restore = gween.New(float32(c.target.Alpha), 1, 0.15, ease.OutQuad)
		return
	}
	c.hitTest(p)
}

// Wheel applies one wheel event to the focused instance's zoom multiplier.
// Only the sign of deltaY matters; each notch moves the multiplier one step,
// clamped to [ZoomMin, ZoomMax].
func (c *Controller) Wheel(deltaY float64) {
	if c.target == nil || deltaY == 0 {
		return
	}
	step := c.cfg.ZoomStep
	if deltaY > 0 {
		step = -step
	}
	t := &c.target.Transform
	t.ZoomMultiplier = clamp(t.ZoomMultiplier+step, c.cfg.ZoomMin, c.cfg.ZoomMax)
}

// Advance updates the post-drag opacity restore tween.
func (c *Controller) Advance(dt float64) {
	if c.restore == nil || c.target == nil {
		return
	}
	a, done := c.restore.Update(float32(dt))
	c.target.Alpha = float64(a)
	if done {
		c.restore = nil
	}
}

// hitTest projects the global pointer into the instance's local space and
// queries the runtime's hit-test capability. A non-empty result is reported
// through OnHit; no state is mutated here. Runtimes without the capability
// silently yield nothing.
func (c *Controller) hitTest(p Vec2) {
	if !c.target.ContainsPoint(p.X, p.Y) {
		return
	}
	lx, ly := c.target.WorldToLocal(p.X, p.Y)
	areas := c.target.Runtime.HitTest(lx, ly)
	if len(areas) > 0 && c.OnHit != nil {
		c.OnHit(c.target, areas)
	}
}

// --- Pure transition math ---

// dragPosition computes the dragged position: start position plus pointer
// displacement.
func dragPosition(startPos, startPtr, cur Vec2) Vec2 {
	return Vec2{
		X: startPos.X + (cur.X - startPtr.X),
		Y: startPos.Y + (cur.Y - startPtr.Y),
	}
}

// clampToViewport clamps a center position so that bounds of the given size
// stay within [margin, viewport-margin] on both axes. When the bounds are
// larger than the usable area the center snaps to the middle of that axis.
func clampToViewport(pos Vec2, w, h float64, viewport Rect, margin float64) (float64, float64) {
	return clampAxis(pos.X, w, viewport.X+margin, viewport.X+viewport.Width-margin),
		clampAxis(pos.Y, h, viewport.Y+margin, viewport.Y+viewport.Height-margin)
}

func clampAxis(center, size, lo, hi float64) float64 {
	minC := lo + size/2
	maxC := hi - size/2
	if minC > maxC {
		return (lo + hi) / 2
	}
	return clamp(center, minC, maxC)
}
