package marionette

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// AtlasRect is the sub-rectangle of a shared texture atlas that a drawable's
// UVs must be remapped into, in normalized [0,1] texture space. When a
// drawable has no rect, UV mapping is identity.
type AtlasRect struct {
	X, Y, W, H float64
}

// remapUV maps an authored UV pair into the atlas rect.
func (r AtlasRect) remapUV(u, v float32) (float32, float32) {
	return float32(r.X) + u*float32(r.W), float32(r.Y) + v*float32(r.H)
}

// AtlasTable maps drawable index to its atlas rect. Drawables absent from
// the table keep their authored UVs.
type AtlasTable map[int]AtlasRect

// DrawableData locates one drawable's geometry inside the shared raw
// buffers. Offsets and counts are in vertices (position/UV pairs) and
// indices respectively.
type DrawableData struct {
	VertexOffset int
	VertexCount  int
	IndexOffset  int
	IndexCount   int
	TextureIndex int
	RenderOrder  int
	Opacity      float64
}

// RawGeometry is the flat per-model geometry blob a runtime factory decodes
// out of the binary model data: shared position/UV/index buffers plus one
// DrawableData per drawable slicing into them.
type RawGeometry struct {
	Positions []float32 // x,y pairs, shared across drawables
	UVs       []float32 // u,v pairs, parallel to Positions
	Indices   []uint16
	Drawables []DrawableData
}

// Mesh is one renderer-ready part of a character: local vertex positions,
// atlas-corrected UVs, triangle indices, and the bound texture page.
type Mesh struct {
	// Drawable is the source drawable index, used to refresh dynamic state
	// from the runtime each tick.
	Drawable int

	Positions   []float32 // x,y pairs, local space
	UVs         []float32 // u,v pairs, normalized
	Indices     []uint16
	Texture     *ebiten.Image
	Opacity     float64
	RenderOrder int
	Visible     bool
}

// ExtractMeshes slices the shared buffers into per-drawable meshes, remaps
// UVs through the atlas table, and binds textures. Drawables with zero
// vertices or indices are skipped (not an error). Malformed offset/count
// pairs fail the whole extraction with a *GeometryError rather than silently
// truncating.
//
// Texture selection: a declared texture index valid within the loaded set
// binds that texture; anything else falls back to the first (primary) page.
func ExtractMeshes(geom RawGeometry, atlas AtlasTable, textures []*ebiten.Image) ([]Mesh, error) {
	meshes := make([]Mesh, 0, len(geom.Drawables))
	for di, d := range geom.Drawables {
		if d.VertexCount == 0 || d.IndexCount == 0 {
			debugf("drawable %d has no geometry (vertices=%d indices=%d), skipping",
				di, d.VertexCount, d.IndexCount)
			continue
		}
		if err := validateDrawable(di, d, geom); err != nil {
			return nil, err
		}

		positions := make([]float32, d.VertexCount*2)
		copy(positions, geom.Positions[d.VertexOffset*2:])

		uvs := make([]float32, d.VertexCount*2)
		copy(uvs, geom.UVs[d.VertexOffset*2:])
		if rect, ok := atlas[di]; ok {
			for i := 0; i < len(uvs); i += 2 {
				uvs[i], uvs[i+1] = rect.remapUV(uvs[i], uvs[i+1])
			}
		}

		indices := make([]uint16, d.IndexCount)
		copy(indices, geom.Indices[d.IndexOffset:])
		for _, idx := range indices {
			if int(idx) >= d.VertexCount {
				return nil, &GeometryError{Drawable: di,
					Reason: fmt.Sprintf("index %d out of range (%d vertices)", idx, d.VertexCount)}
			}
		}

		meshes = append(meshes, Mesh{
			Drawable:    di,
			Positions:   positions,
			UVs:         uvs,
			Indices:     indices,
			Texture:     selectTexture(d.TextureIndex, textures),
			Opacity:     d.Opacity,
			RenderOrder: d.RenderOrder,
			Visible:     true,
		})
	}
	return meshes, nil
}

// validateDrawable rejects offset/count pairs that would read out of bounds.
func validateDrawable(di int, d DrawableData, geom RawGeometry) error {
	if d.VertexOffset < 0 || d.IndexOffset < 0 || d.VertexCount < 0 || d.IndexCount < 0 {
		return &GeometryError{Drawable: di, Reason: "negative offset or count"}
	}
	if (d.VertexOffset+d.VertexCount)*2 > len(geom.Positions) {
		return &GeometryError{Drawable: di,
			Reason: fmt.Sprintf("vertex range [%d,%d) exceeds position buffer (%d pairs)",
				d.VertexOffset, d.VertexOffset+d.VertexCount, len(geom.Positions)/2)}
	}
	if (d.VertexOffset+d.VertexCount)*2 > len(geom.UVs) {
		return &GeometryError{Drawable: di,
			Reason: fmt.Sprintf("vertex range [%d,%d) exceeds UV buffer (%d pairs)",
				d.VertexOffset, d.VertexOffset+d.VertexCount, len(geom.UVs)/2)}
	}
	if d.IndexOffset+d.IndexCount > len(geom.Indices) {
		return &GeometryError{Drawable: di,
			Reason: fmt.Sprintf("index range [%d,%d) exceeds index buffer (%d)",
				d.IndexOffset, d.IndexOffset+d.IndexCount, len(geom.Indices))}
	}
	return nil
}

func selectTexture(idx int, textures []*ebiten.Image) *ebiten.Image {
	if idx >= 0 && idx < len(textures) {
		return textures[idx]
	}
	if len(textures) > 0 {
		return textures[0]
	}
	return nil
}

// meshesBounds computes the local-space AABB over every mesh vertex.
func meshesBounds(meshes []Mesh) Rect {
	first := true
	var minX, minY, maxX, maxY float64
	for mi := range meshes {
		pos := meshes[mi].Positions
		for i := 0; i+1 < len(pos); i += 2 {
			x := float64(pos[i])
			y := float64(pos[i+1])
			if first {
				minX, maxX = x, x
				minY, maxY = y, y
				first = false
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	if first {
		return Rect{}
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
