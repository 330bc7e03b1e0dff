package marionette

import (
	"errors"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

func TestExtractMeshes_SlicesSharedBuffers(t *testing.T) {
	geom := basicGeometry()
	meshes, err := ExtractMeshes(geom, nil, nil)
	if err != nil {
		t.Fatalf("ExtractMeshes: %v", err)
	}
	if len(meshes) != 2 {
		t.Fatalf("mesh count = %d, want 2", len(meshes))
	}
	if got := meshes[1].Positions[0]; got != 5 {
		t.Errorf("drawable 1 first x = %v, want 5", got)
	}
	if got := len(meshes[0].Indices); got != 6 {
		t.Errorf("drawable 0 index count = %d, want 6", got)
	}
	if meshes[1].RenderOrder != 0 || meshes[1].Opacity != 0.5 {
		t.Errorf("drawable 1 order/opacity = %d/%v, want 0/0.5", meshes[1].RenderOrder, meshes[1].Opacity)
	}
}

func TestExtractMeshes_SkipsEmptyDrawables(t *testing.T) {
	geom := basicGeometry()
	geom.Drawables = append(geom.Drawables,
		DrawableData{VertexCount: 0, IndexCount: 6},
		DrawableData{VertexCount: 4, IndexCount: 0},
	)

	meshes, err := ExtractMeshes(geom, nil, nil)
	if err != nil {
		t.Fatalf("empty drawables must not error: %v", err)
	}
	if len(meshes) != 2 {
		t.Fatalf("mesh count = %d, want 2 (empties excluded)", len(meshes))
	}
	for _, m := range meshes {
		if m.Drawable > 1 {
			t.Errorf("empty drawable %d leaked into output", m.Drawable)
		}
	}
}

func TestExtractMeshes_IdentityAtlasRectRoundTrip(t *testing.T) {
	geom := basicGeometry()
	atlas := AtlasTable{0: {X: 0, Y: 0, W: 1, H: 1}}

	meshes, err := ExtractMeshes(geom, atlas, nil)
	if err != nil {
		t.Fatalf("ExtractMeshes: %v", err)
	}
	for i, uv := range meshes[0].UVs {
		if uv != geom.UVs[i] {
			t.Fatalf("identity rect changed UV[%d]: %v -> %v", i, geom.UVs[i], uv)
		}
	}
}

func TestExtractMeshes_AtlasRemap(t *testing.T) {
	geom := basicGeometry()
	atlas := AtlasTable{0: {X: 0.5, Y: 0.25, W: 0.5, H: 0.5}}

	meshes, err := ExtractMeshes(geom, atlas, nil)
	if err != nil {
		t.Fatalf("ExtractMeshes: %v", err)
	}

	// Authored (1, 1) lands at the rect's far corner; (0, 0) at its origin.
	if u, v := meshes[0].UVs[4], meshes[0].UVs[5]; u != 1.0 || v != 0.75 {
		t.Errorf("remapped (1,1) = (%v, %v), want (1, 0.75)", u, v)
	}
	if u, v := meshes[0].UVs[0], meshes[0].UVs[1]; u != 0.5 || v != 0.25 {
		t.Errorf("remapped (0,0) = (%v, %v), want (0.5, 0.25)", u, v)
	}

	// Drawable 1 has no rect: identity.
	if u := meshes[1].UVs[2]; u != 1 {
		t.Errorf("unmapped drawable changed: UV = %v, want 1", u)
	}
}

func TestExtractMeshes_OutOfBoundsVerticesFailLoad(t *testing.T) {
	geom := basicGeometry()
	geom.Drawables[1].VertexCount = 1000

	_, err := ExtractMeshes(geom, nil, nil)
	var gerr *GeometryError
	if !errors.As(err, &gerr) {
		t.Fatalf("err = %v, want *GeometryError", err)
	}
	if gerr.Drawable != 1 {
		t.Errorf("GeometryError.Drawable = %d, want 1", gerr.Drawable)
	}
}

func TestExtractMeshes_OutOfBoundsIndicesFailLoad(t *testing.T) {
	geom := basicGeometry()
	geom.Drawables[0].IndexOffset = len(geom.Indices)

	_, err := ExtractMeshes(geom, nil, nil)
	var gerr *GeometryError
	if !errors.As(err, &gerr) {
		t.Fatalf("err = %v, want *GeometryError", err)
	}
}

func TestExtractMeshes_IndexReferencingMissingVertexFails(t *testing.T) {
	geom := basicGeometry()
	geom.Indices[2] = 40 // only 4 vertices in drawable 0

	_, err := ExtractMeshes(geom, nil, nil)
	var gerr *GeometryError
	if !errors.As(err, &gerr) {
		t.Fatalf("err = %v, want *GeometryError", err)
	}
}

func TestSelectTexture_DeclaredIndexWins(t *testing.T) {
	tex0 := ebiten.NewImage(2, 2)
	tex1 := ebiten.NewImage(2, 2)
	textures := []*ebiten.Image{tex0, tex1}

	if got := selectTexture(1, textures); got != tex1 {
		t.Errorf("valid index ignored")
	}
	if got := selectTexture(7, textures); got != tex0 {
		t.Errorf("invalid index should fall back to primary")
	}
	if got := selectTexture(-1, textures); got != tex0 {
		t.Errorf("negative index should fall back to primary")
	}
	if got := selectTexture(0, nil); got != nil {
		t.Errorf("no textures should yield nil")
	}
}

func TestMeshesBounds(t *testing.T) {
	geom := basicGeometry()
	meshes, err := ExtractMeshes(geom, nil, nil)
	if err != nil {
		t.Fatalf("ExtractMeshes: %v", err)
	}
	b := meshesBounds(meshes)
	want := Rect{X: 0, Y: 0, Width: 15, Height: 25}
	if b != want {
		t.Errorf("bounds = %+v, want %+v", b, want)
	}
}
