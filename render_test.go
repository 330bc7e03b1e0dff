package marionette

import (
	"math"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

func TestInstanceTransform_ScalesAroundModelCenter(t *testing.T) {
	inst := testInstance(t) // local bounds {0,0,15,25}, position (400,300)
	inst.Transform.BaseScale = 2
	inst.Transform.ZoomMultiplier = 1.5

	m := instanceTransform(inst)
	s := 3.0
	if m[0] != s || m[3] != s || m[1] != 0 || m[2] != 0 {
		t.Fatalf("scale terms = %v, want uniform %v", m, s)
	}

	// The local center (7.5, 12.5) must land exactly on the position.
	cx := m[0]*7.5 + m[2]*12.5 + m[4]
	cy := m[1]*7.5 + m[3]*12.5 + m[5]
	if math.Abs(cx-400) > 1e-9 || math.Abs(cy-300) > 1e-9 {
		t.Errorf("center maps to (%v, %v), want (400, 300)", cx, cy)
	}
}

func TestInstanceTransform_MatchesBoundsCorners(t *testing.T) {
	inst := testInstance(t)
	inst.Transform.ZoomMultiplier = 2

	m := instanceTransform(inst)
	b := inst.Bounds()

	// Local (0,0) is the top-left of the local AABB.
	x0 := m[0]*0 + m[2]*0 + m[4]
	y0 := m[1]*0 + m[3]*0 + m[5]
	if math.Abs(x0-b.X) > 1e-9 || math.Abs(y0-b.Y) > 1e-9 {
		t.Errorf("local origin maps to (%v, %v), want bounds corner (%v, %v)",
			x0, y0, b.X, b.Y)
	}
}

func TestAppendMeshVertices_MapsUVsToTexturePixels(t *testing.T) {
	tex := ebiten.NewImage(128, 64)
	m := &Mesh{
		Positions: []float32{0, 0, 10, 0, 10, 20},
		UVs:       []float32{0, 0, 1, 0, 0.5, 1},
		Indices:   []uint16{0, 1, 2},
		Texture:   tex,
	}
	identity := [6]float64{1, 0, 0, 1, 0, 0}

	vs := appendMeshVertices(nil, m, identity, 1)
	if len(vs) != 3 {
		t.Fatalf("vertex count = %d, want 3", len(vs))
	}
	if vs[1].SrcX != 128 || vs[1].SrcY != 0 {
		t.Errorf("v1 src = (%v, %v), want (128, 0)", vs[1].SrcX, vs[1].SrcY)
	}
	if vs[2].SrcX != 64 || vs[2].SrcY != 64 {
		t.Errorf("v2 src = (%v, %v), want (64, 64)", vs[2].SrcX, vs[2].SrcY)
	}
	if vs[2].DstX != 10 || vs[2].DstY != 20 {
		t.Errorf("v2 dst = (%v, %v), want (10, 20)", vs[2].DstX, vs[2].DstY)
	}
}

func TestAppendMeshVertices_AppliesTransformAndAlpha(t *testing.T) {
	m := &Mesh{
		Positions: []float32{2, 4},
		UVs:       []float32{0, 0},
		Indices:   []uint16{0},
	}
	tr := [6]float64{2, 0, 0, 2, 100, 50}

	vs := appendMeshVertices(nil, m, tr, 0.5)
	if vs[0].DstX != 104 || vs[0].DstY != 58 {
		t.Errorf("dst = (%v, %v), want (104, 58)", vs[0].DstX, vs[0].DstY)
	}
	// Premultiplied: every channel carries the combined alpha.
	if vs[0].ColorR != 0.5 || vs[0].ColorG != 0.5 || vs[0].ColorB != 0.5 || vs[0].ColorA != 0.5 {
		t.Errorf("color = (%v, %v, %v, %v), want uniform 0.5",
			vs[0].ColorR, vs[0].ColorG, vs[0].ColorB, vs[0].ColorA)
	}
}

func TestAppendMeshVertices_ReusesBuffer(t *testing.T) {
	m := &Mesh{
		Positions: []float32{0, 0, 1, 1},
		UVs:       []float32{0, 0, 1, 1},
		Indices:   []uint16{0, 1},
	}
	identity := [6]float64{1, 0, 0, 1, 0, 0}

	buf := make([]ebiten.Vertex, 0, 8)
	out := appendMeshVertices(buf, m, identity, 1)
	if len(out) != 2 {
		t.Fatalf("vertex count = %d, want 2", len(out))
	}
	if cap(out) != 8 {
		t.Errorf("buffer reallocated: cap = %d, want 8", cap(out))
	}
}
