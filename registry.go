package marionette

import (
	"fmt"
	"math/rand"
)

// loadResult carries a finished background load onto the update loop.
type loadResult struct {
	id      string
	loc     ModelLocator
	runtime *CharacterRuntime
	clips   []MotionClip
	err     error
}

// Registry owns the bounded set of character instances and the focus
// pointer. It is the sole mutator of instance membership and focus, and all
// of that mutation happens on the update tick: loads run in background
// goroutines but only deliver results through a channel drained in Update,
// so a focus switch always completes before the next render tick reads any
// transform.
type Registry struct {
	cfg        Config
	loader     *Loader
	motions    *MotionLibrary
	controller *Controller

	instances []*CharacterInstance // registration order
	focused   *CharacterInstance

	loads   chan loadResult
	pending map[string]string // logical name -> reserved instance id
	nextSeq int
	rng     *rand.Rand

	viewport Rect
}

// NewRegistry creates a registry. rng may be nil for a time-seeded source.
func NewRegistry(cfg Config, loader *Loader, motions *MotionLibrary, controller *Controller, rng *rand.Rand) *Registry {
	if rng == nil {
		rng = newRand()
	}
	return &Registry{
		cfg:        cfg,
		loader:     loader,
		motions:    motions,
		controller: controller,
		loads:      make(chan loadResult, cfg.MaxInstances),
		pending:    make(map[string]string),
		rng:        rng,
	}
}

// SetViewport tells the registry the current stage dimensions, used for
// canvas-center placement and scale-to-fit of newly registered instances.
func (r *Registry) SetViewport(v Rect) { r.viewport = v }

// Len returns the number of registered instances.
func (r *Registry) Len() int { return len(r.instances) }

// Instances returns the instances in registration order. The returned slice
// is owned by the registry; callers must not mutate it.
func (r *Registry) Instances() []*CharacterInstance { return r.instances }

// Focused returns the focused instance, or nil when the stage is empty.
func (r *Registry) Focused() *CharacterInstance { return r.focused }

// byName returns the registered instance for a logical model name, or nil.
func (r *Registry) byName(name string) *CharacterInstance {
	for _, inst := range r.instances {
		if inst.Name == name {
			return inst
		}
	}
	return nil
}

// byID returns the registered instance for an id, or nil.
func (r *Registry) byID(id string) *CharacterInstance {
	for _, inst := range r.instances {
		if inst.ID == id {
			return inst
		}
	}
	return nil
}

// Create starts loading a model and reserves an instance id for it. The
// load runs off the game loop; the instance registers (and takes focus) on
// a later Update tick. A failed load leaves the registry unchanged.
//
// A model already on stage is not loaded twice: the existing instance is
// re-focused and its id returned with ErrAlreadyLoaded. A full registry
// rejects with ErrCapacityExceeded, also with no side effects.
func (r *Registry) Create(loc ModelLocator) (string, error) {
	if inst := r.byName(loc.Name); inst != nil {
		r.focusInstance(inst)
		return inst.ID, ErrAlreadyLoaded
	}
	if id, ok := r.pending[loc.Name]; ok {
		return id, ErrAlreadyLoaded
	}
	if len(r.instances)+len(r.pending) >= r.cfg.MaxInstances {
		return "", ErrCapacityExceeded
	}

	r.nextSeq++
	id := fmt.Sprintf("%s#%d", loc.Name, r.nextSeq)
	r.pending[loc.Name] = id

	go func() {
		res := loadResult{id: id, loc: loc}
		res.runtime, res.err = r.loader.Load(loc)
		if res.err == nil && r.motions != nil {
			// Motion loading failures are non-fatal: the instance is
			// created without idle motions rather than failing the create.
			clips, err := r.motions.LoadFor(loc.Name)
			if err != nil {
				debugf("motions for %s unavailable: %v", loc.Name, err)
			} else {
				res.clips = clips
			}
		}
		r.loads <- res
	}()

	return id, nil
}

// Focus switches focus to the given instance: the outgoing instance's live
// transform and visibility are saved, the controller re-binds, and the
// incoming instance's saved state is restored. Atomic with respect to the
// frame loop; callers invoke it from the update tick.
func (r *Registry) Focus(id string) error {
	inst := r.byID(id)
	if inst == nil {
		return fmt.Errorf("%w: %s", ErrNoSuchInstance, id)
	}
	r.focusInstance(inst)
	return nil
}

func (r *Registry) focusInstance(inst *CharacterInstance) {
	if r.focused == inst {
		return
	}
	if r.focused != nil {
		r.focused.SaveState()
	}
	r.focused = inst
	if r.controller != nil {
		r.controller.Bind(inst)
	}
	inst.RestoreState()
}

// Remove detaches interaction bindings, cancels the instance's idle
// scheduling, releases its runtime, and drops it from the registry. Removing
// the focused instance promotes the earliest-registered remaining instance,
// or leaves focus empty when none remain.
func (r *Registry) Remove(id string) error {
	idx := -1
	for i, inst := range r.instances {
		if inst.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNoSuchInstance, id)
	}

	inst := r.instances[idx]
	wasFocused := r.focused == inst
	if wasFocused && r.controller != nil {
		r.controller.Unbind()
	}
	inst.release()
	r.instances = append(r.instances[:idx], r.instances[idx+1:]...)

	if wasFocused {
		r.focused = nil
		if len(r.instances) > 0 {
			r.focusInstance(r.instances[0])
		}
	}
	return nil
}

// Update drains finished loads, advances idle schedulers, fade envelopes,
// and drag feedback, and ticks every visible instance's deformation
// runtime. Called once per frame; never suspends.
func (r *Registry) Update(dt float64) {
	r.drainLoads()

	for _, inst := range r.instances {
		if inst.idle != nil {
			inst.idle.Advance(dt)
		}
		inst.queue.advance(dt)
		if inst.Visible {
			inst.Runtime.Tick()
		}
	}
	if r.controller != nil {
		r.controller.Advance(dt)
	}
}

func (r *Registry) drainLoads() {
	for {
		select {
		case res := <-r.loads:
			r.finishLoad(res)
		default:
			return
		}
	}
}

func (r *Registry) finishLoad(res loadResult) {
	delete(r.pending, res.loc.Name)
	if res.err != nil {
		debugf("load %s failed: %v", res.loc.Name, res.err)
		return
	}

	inst := &CharacterInstance{
		ID:      res.id,
		Name:    res.loc.Name,
		Runtime: res.runtime,
		Visible: true,
		Alpha:   1,
		Transform: Transform{
			BaseScale:      r.cfg.DefaultBaseScale,
			ZoomMultiplier: 1,
		},
		queue: motionQueue{hold: r.cfg.MotionHold},
	}
	if r.viewport.Width > 0 && r.viewport.Height > 0 {
		inst.Transform.X = r.viewport.Center().X
		inst.Transform.Y = r.viewport.Center().Y
		inst.Transform.BaseScale = FitScale(r.viewport.Height, res.runtime.ModelHeight, r.cfg)
	}

	if len(res.clips) > 0 {
		// Clips were fetched off the game loop but publish here, on the
		// tick, so the library map has a single mutation site.
		r.motions.Ingest(res.loc.Name, res.clips)
		name := inst.Name
		inst.idle = newIdleScheduler(r.cfg, r.rng, func() {
			r.playIdle(name)
		})
	}

	r.instances = append(r.instances, inst)
	r.focusInstance(inst)
}

// playIdle fires one idle/breathing motion through the instance's priority
// queue. All failures are non-fatal.
func (r *Registry) playIdle(name string) {
	inst := r.byName(name)
	if inst == nil || r.motions == nil {
		return
	}
	clip, err := r.motions.Random(name, MotionIdle)
	if err != nil {
		// No idle group on this model; any clip keeps it alive.
		clip, err = r.motions.Random(name, MotionAny)
		if err != nil {
			return
		}
	}
	if !inst.queue.offer(clip) {
		return
	}
	if err := r.motions.Play(name, clip); err != nil {
		inst.queue.finish()
	}
}

// PlayOnInstance routes a clip through an instance's priority queue: the
// clip plays only when nothing of higher priority is already on it.
func (r *Registry) PlayOnInstance(id string, t MotionType) error {
	inst := r.byID(id)
	if inst == nil {
		return fmt.Errorf("%w: %s", ErrNoSuchInstance, id)
	}
	if r.motions == nil {
		return fmt.Errorf("marionette: no motion library configured")
	}
	clip, err := r.motions.Random(inst.Name, t)
	if err != nil {
		return err
	}
	if !inst.queue.offer(clip) {
		return nil
	}
	if err := r.motions.Play(inst.Name, clip); err != nil {
		inst.queue.finish()
		return err
	}
	return nil
}
