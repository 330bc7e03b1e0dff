package marionette

import (
	"encoding/json"
	"fmt"
)

// ModelLocator identifies one model in the backend catalogue.
type ModelLocator struct {
	Name       string `json:"model_name"`
	Path       string `json:"model_path"`
	ConfigFile string `json:"config_file"`
	Info       string `json:"info"`
}

// ModelSource is the parsed model source document. FileReferences is
// required; the three atlas-rect tables are legacy schema shapes that may or
// may not be present; first present wins, and absence of all three means
// identity UV mapping.
type ModelSource struct {
	FileReferences struct {
		Moc      string   `json:"Moc"`
		Textures []string `json:"Textures"`
	} `json:"FileReferences"`

	Drawables *struct {
		UvRects []jsonUvRect `json:"UvRects"`
	} `json:"Drawables"`

	MeshUvs []jsonUvRect `json:"MeshUvs"`

	UserData *struct {
		UvRects []jsonUvRect `json:"UvRects"`
	} `json:"UserData"`
}

type jsonUvRect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// ParseModelSource decodes a model source JSON document.
func ParseModelSource(data []byte) (*ModelSource, error) {
	var src ModelSource
	if err := json.Unmarshal(data, &src); err != nil {
		return nil, fmt.Errorf("marionette: parse model source: %w", err)
	}
	if src.FileReferences.Moc == "" {
		return nil, fmt.Errorf("marionette: model source has no FileReferences.Moc")
	}
	return &src, nil
}

// AtlasTable builds the drawable-index → atlas-rect table from whichever
// legacy schema shape is present: Drawables.UvRects, then MeshUvs, then
// UserData.UvRects. Rows align with drawable order.
func (m *ModelSource) AtlasTable() AtlasTable {
	var rects []jsonUvRect
	switch {
	case m.Drawables != nil && len(m.Drawables.UvRects) > 0:
		rects = m.Drawables.UvRects
	case len(m.MeshUvs) > 0:
		rects = m.MeshUvs
	case m.UserData != nil && len(m.UserData.UvRects) > 0:
		rects = m.UserData.UvRects
	default:
		return nil
	}
	table := make(AtlasTable, len(rects))
	for i, r := range rects {
		table[i] = AtlasRect{X: r.X, Y: r.Y, W: r.W, H: r.H}
	}
	return table
}
