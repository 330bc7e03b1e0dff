package marionette

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/quasilyte/gdata/v2"
)

// Stage composes the registry, interaction controller, motion library, and
// preview cache into one object driven by the Ebitengine game loop. All
// per-frame work stays on the loop and never suspends; only background
// asset loads run elsewhere.
type Stage struct {
	cfg        Config
	client     *Client
	motions    *MotionLibrary
	controller *Controller
	registry   *Registry
	previews   *PreviewCache

	viewport Rect

	// Input edge detection for the polled pointer.
	mouseDown bool

	// Reused render buffers.
	vertexBuf []ebiten.Vertex
	orderBuf  []*Mesh

	// Synthetic pointer events consumed before real input next Update.
	injectQueue []syntheticPointerEvent
}

// NewStage assembles a stage. player drives motion playback on the
// deformation engine; store is the optional local preview store (nil for
// degraded, backend-only caching).
func NewStage(cfg Config, loader *Loader, client *Client, player MotionPlayer, store *gdata.Manager) *Stage {
	motions := NewMotionLibrary(client, player, nil)
	controller := NewController(cfg)
	registry := NewRegistry(cfg, loader, motions, controller, nil)

	st := &Stage{
		cfg:        cfg,
		client:     client,
		motions:    motions,
		controller: controller,
		registry:   registry,
		previews:   NewPreviewCache(client, store),
	}

	// A tap on a hit area triggers a body motion, gated through the
	// instance's priority queue. Reporting only: a failed play never
	// disturbs the instance.
	controller.OnHit = func(inst *CharacterInstance, areas []string) {
		debugf("hit %v on %s", areas, inst.ID)
		if err := registry.PlayOnInstance(inst.ID, MotionBody); err != nil {
			debugf("tap motion on %s: %v", inst.ID, err)
		}
	}
	return st
}

// Registry returns the stage's instance registry.
func (st *Stage) Registry() *Registry { return st.registry }

// Controller returns the stage's interaction controller.
func (st *Stage) Controller() *Controller { return st.controller }

// Motions returns the stage's motion library.
func (st *Stage) Motions() *MotionLibrary { return st.motions }

// Previews returns the stage's preview cache.
func (st *Stage) Previews() *PreviewCache { return st.previews }

// Catalogue fetches the backend model catalogue.
func (st *Stage) Catalogue() ([]CatalogueEntry, error) {
	return st.client.Catalogue()
}

// Update polls input, routes it to the focused instance, and advances the
// registry by one frame. Call from ebiten.Game.Update.
func (st *Stage) Update() error {
	dt := 1.0 / float64(ebiten.TPS())

	st.processInput()
	st.registry.Update(dt)
	return nil
}

// Draw renders every visible instance in registration order. Call from
// ebiten.Game.Draw.
func (st *Stage) Draw(screen *ebiten.Image) {
	for _, inst := range st.registry.Instances() {
		if !inst.Visible {
			continue
		}
		st.drawInstance(screen, inst)
	}
}

// Layout records the viewport size. Call from ebiten.Game.Layout.
func (st *Stage) Layout(outsideWidth, outsideHeight int) (int, int) {
	st.viewport = Rect{Width: float64(outsideWidth), Height: float64(outsideHeight)}
	st.registry.SetViewport(st.viewport)
	return outsideWidth, outsideHeight
}

// --- Input ---

// syntheticPointerEvent is one injected pointer event, consumed ahead of
// real input on the next Update. Used by tests to exercise the full
// press/drag/release path without a real mouse.
type syntheticPointerEvent struct {
	x, y    float64
	pressed bool
	wheelY  float64
}

// InjectPress queues a synthetic pointer press at stage coordinates.
func (st *Stage) InjectPress(x, y float64) {
	st.injectQueue = append(st.injectQueue, syntheticPointerEvent{x: x, y: y, pressed: true})
}

// InjectMove queues a synthetic pointer move with the button held down.
func (st *Stage) InjectMove(x, y float64) {
	st.injectQueue = append(st.injectQueue, syntheticPointerEvent{x: x, y: y, pressed: true})
}

// InjectRelease queues a synthetic pointer release.
func (st *Stage) InjectRelease(x, y float64) {
	st.injectQueue = append(st.injectQueue, syntheticPointerEvent{x: x, y: y, pressed: false})
}

// InjectWheel queues a synthetic wheel event (deltaY sign convention:
// positive zooms out, negative zooms in). Wheel events carry no pointer
// position and never disturb a drag in progress.
func (st *Stage) InjectWheel(deltaY float64) {
	st.injectQueue = append(st.injectQueue, syntheticPointerEvent{wheelY: deltaY})
}

func (st *Stage) processInput() {
	if len(st.injectQueue) > 0 {
		ev := st.injectQueue[0]
		st.injectQueue = st.injectQueue[1:]
		if ev.wheelY != 0 {
			st.controller.Wheel(ev.wheelY)
			return
		}
		st.applyPointer(ev.x, ev.y, ev.pressed)
		return
	}

	mx, my := ebiten.CursorPosition()
	pressed := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	st.applyPointer(float64(mx), float64(my), pressed)

	// Ebitengine reports wheel-up as positive Y; browsers call that a
	// negative deltaY, and the controller follows the browser convention.
	if _, wy := ebiten.Wheel(); wy != 0 {
		st.controller.Wheel(-wy)
	}
}

func (st *Stage) applyPointer(x, y float64, pressed bool) {
	p := Vec2{X: x, Y: y}
	switch {
	case pressed && !st.mouseDown:
		st.controller.PointerDown(p)
	case pressed && st.mouseDown:
		st.controller.PointerMove(p, st.viewport)
	case !pressed && st.mouseDown:
		st.controller.PointerUp(p)
	}
	st.mouseDown = pressed
}
