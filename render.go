package marionette

import (
	"sort"

	"github.com/hajimehoshi/ebiten/v2"
)

// instanceTransform returns the affine matrix placing a model-local point on
// stage: uniform render scale around the model's center, anchored at the
// instance position.
//
// Matrix layout: [0]=a, [1]=b, [2]=c, [3]=d, [4]=tx, [5]=ty
// newX = a*x + c*y + tx, newY = b*x + d*y + ty
func instanceTransform(inst *CharacterInstance) [6]float64 {
	s := inst.Transform.RenderScale()
	center := inst.Runtime.LocalBounds().Center()
	return [6]float64{
		s, 0,
		0, s,
		inst.Transform.X - center.X*s,
		inst.Transform.Y - center.Y*s,
	}
}

// appendMeshVertices transforms a mesh's local vertices into screen-space
// ebiten vertices, writing into dst (reused across frames, high-water-mark
// growth). Source coordinates map the normalized UVs onto the bound texture.
func appendMeshVertices(dst []ebiten.Vertex, m *Mesh, t [6]float64, alpha float64) []ebiten.Vertex {
	texW, texH := 1, 1
	if m.Texture != nil {
		texW, texH = m.Texture.Bounds().Dx(), m.Texture.Bounds().Dy()
	}
	a, b, c, d, tx, ty := t[0], t[1], t[2], t[3], t[4], t[5]
	ca := float32(alpha)

	for i := 0; i+1 < len(m.Positions); i += 2 {
		x := float64(m.Positions[i])
		y := float64(m.Positions[i+1])
		dst = append(dst, ebiten.Vertex{
			DstX:   float32(a*x + c*y + tx),
			DstY:   float32(b*x + d*y + ty),
			SrcX:   m.UVs[i] * float32(texW),
			SrcY:   m.UVs[i+1] * float32(texH),
			ColorR: ca,
			ColorG: ca,
			ColorB: ca,
			ColorA: ca,
		})
	}
	return dst
}

// drawInstance submits one instance's meshes in render order. Hidden meshes
// and meshes without a texture are skipped; mesh opacity multiplies the
// instance's drag-feedback alpha. Colors are premultiplied at submission.
func (st *Stage) drawInstance(screen *ebiten.Image, inst *CharacterInstance) {
	meshes := inst.Runtime.Meshes
	st.orderBuf = st.orderBuf[:0]
	for i := range meshes {
		if !meshes[i].Visible || meshes[i].Texture == nil || meshes[i].Opacity <= 0 {
			continue
		}
		st.orderBuf = append(st.orderBuf, &meshes[i])
	}
	sort.SliceStable(st.orderBuf, func(i, j int) bool {
		return st.orderBuf[i].RenderOrder < st.orderBuf[j].RenderOrder
	})

	t := instanceTransform(inst)
	op := &ebiten.DrawTrianglesOptions{}
	for _, m := range st.orderBuf {
		st.vertexBuf = appendMeshVertices(st.vertexBuf[:0], m, t, m.Opacity*inst.Alpha)
		screen.DrawTriangles(st.vertexBuf, m.Indices, m.Texture, op)
	}
}
