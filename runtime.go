package marionette

import "github.com/hajimehoshi/ebiten/v2"

// DynamicFlags describes the per-tick state of one drawable as reported by
// the deformation runtime.
type DynamicFlags uint8

const (
	// FlagVisible is set while the drawable should be rendered.
	FlagVisible DynamicFlags = 1 << iota
	// FlagVertexChanged is set when vertex positions moved this tick.
	FlagVertexChanged
	// FlagOpacityChanged is set when opacity changed this tick.
	FlagOpacityChanged
)

// DeformationRuntime is the capability surface marionette consumes from the
// external deformation engine. Given current parameter values it computes
// updated vertex positions and visibility/opacity flags for each drawable.
// The math behind Update is a black box.
//
// Buffer-returning methods may return slices into runtime-owned memory;
// marionette copies out of them and never retains or mutates them.
type DeformationRuntime interface {
	ParameterCount() int
	ParameterID(i int) string
	ParameterValue(i int) float64
	ParameterMin(i int) float64
	ParameterMax(i int) float64
	ParameterDefault(i int) float64
	SetParameterValue(i int, v float64)

	DrawableCount() int
	VertexPositions(i int) []float32 // x,y pairs
	VertexUVs(i int) []float32       // u,v pairs
	Indices(i int) []uint16
	Opacity(i int) float64
	RenderOrder(i int) int
	TextureIndex(i int) int
	DynamicFlags(i int) DynamicFlags

	// Update recomputes geometry from the current parameter values.
	Update()

	// Release frees runtime-owned resources. Called exactly once, when the
	// owning instance is removed.
	Release()
}

// HitTester is the optional hit-test capability of a deformation runtime.
// A runtime that does not implement it is treated as always returning an
// empty result.
type HitTester interface {
	// HitTest returns the names of hit areas containing the model-local
	// point (x, y).
	HitTest(x, y float64) []string
}

// CharacterRuntime owns everything loaded for one model definition: the
// deformation-runtime handle, the parameter set, the extracted meshes, and
// the decoded textures. Geometry topology is immutable after load; parameter
// values and per-drawable visibility/opacity mutate every tick.
type CharacterRuntime struct {
	rt       DeformationRuntime
	Params   *ParamSet
	Meshes   []Mesh
	Textures []*ebiten.Image

	// ModelHeight is the authored bounding-box height in logical pixels,
	// or 0 when unknown (raw extraction path).
	ModelHeight float64

	// localBounds is the model-local AABB over all mesh vertices, used for
	// hit bounds and the center anchor.
	localBounds Rect
}

// NewCharacterRuntime wraps a deformation runtime handle with already
// extracted meshes and textures.
func NewCharacterRuntime(rt DeformationRuntime, meshes []Mesh, textures []*ebiten.Image, modelHeight float64) *CharacterRuntime {
	c := &CharacterRuntime{
		rt:          rt,
		Params:      newParamSet(rt),
		Meshes:      meshes,
		Textures:    textures,
		ModelHeight: modelHeight,
	}
	c.localBounds = meshesBounds(meshes)
	return c
}

// LocalBounds returns the model-local AABB over all mesh vertices.
func (c *CharacterRuntime) LocalBounds() Rect { return c.localBounds }

// HitTest queries the runtime's hit-test capability with a model-local
// point. Runtimes without the capability yield an empty result.
func (c *CharacterRuntime) HitTest(x, y float64) []string {
	ht, ok := c.rt.(HitTester)
	if !ok {
		return nil
	}
	return ht.HitTest(x, y)
}

// Tick pushes current parameter values into the runtime, runs its update,
// and refreshes the per-mesh dynamic state (positions, opacity, visibility).
// Never suspends; called once per frame for every visible instance.
func (c *CharacterRuntime) Tick() {
	c.Params.push(c.rt)
	c.rt.Update()
	for i := range c.Meshes {
		m := &c.Meshes[i]
		flags := c.rt.DynamicFlags(m.Drawable)
		m.Visible = flags&FlagVisible != 0
		if flags&FlagOpacityChanged != 0 {
			m.Opacity = c.rt.Opacity(m.Drawable)
		}
		if flags&FlagVertexChanged != 0 {
			copy(m.Positions, c.rt.VertexPositions(m.Drawable))
		}
	}
}

// Release frees the runtime handle and deallocates the textures.
func (c *CharacterRuntime) Release() {
	c.rt.Release()
	for _, tex := range c.Textures {
		if tex != nil {
			tex.Deallocate()
		}
	}
	c.Textures = nil
	c.Meshes = nil
}
