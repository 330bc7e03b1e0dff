package marionette

import "testing"

const modelJSONBase = `{
  "FileReferences": {
    "Moc": "haru.moc3",
    "Textures": ["textures/haru_00.png", "textures/haru_01.png"]
  }
}`

func TestParseModelSource_FileReferences(t *testing.T) {
	src, err := ParseModelSource([]byte(modelJSONBase))
	if err != nil {
		t.Fatalf("ParseModelSource: %v", err)
	}
	if src.FileReferences.Moc != "haru.moc3" {
		t.Errorf("Moc = %q", src.FileReferences.Moc)
	}
	if len(src.FileReferences.Textures) != 2 {
		t.Errorf("texture count = %d, want 2", len(src.FileReferences.Textures))
	}
}

func TestParseModelSource_MissingMocFails(t *testing.T) {
	if _, err := ParseModelSource([]byte(`{"FileReferences": {"Textures": []}}`)); err == nil {
		t.Fatalf("expected error for missing Moc")
	}
}

func TestParseModelSource_MalformedJSONFails(t *testing.T) {
	if _, err := ParseModelSource([]byte(`{`)); err == nil {
		t.Fatalf("expected error for malformed JSON")
	}
}

func TestAtlasTable_AbsentEverywhereIsIdentity(t *testing.T) {
	src, err := ParseModelSource([]byte(modelJSONBase))
	if err != nil {
		t.Fatalf("ParseModelSource: %v", err)
	}
	if table := src.AtlasTable(); table != nil {
		t.Errorf("table = %v, want nil (identity mapping)", table)
	}
}

func TestAtlasTable_DrawablesShapeWinsOverOthers(t *testing.T) {
	doc := `{
	  "FileReferences": {"Moc": "m.moc3", "Textures": ["t.png"]},
	  "Drawables": {"UvRects": [{"x": 0.1, "y": 0.2, "w": 0.3, "h": 0.4}]},
	  "MeshUvs": [{"x": 0.9, "y": 0.9, "w": 0.9, "h": 0.9}],
	  "UserData": {"UvRects": [{"x": 0.8, "y": 0.8, "w": 0.8, "h": 0.8}]}
	}`
	src, err := ParseModelSource([]byte(doc))
	if err != nil {
		t.Fatalf("ParseModelSource: %v", err)
	}
	table := src.AtlasTable()
	if got := table[0]; got != (AtlasRect{X: 0.1, Y: 0.2, W: 0.3, H: 0.4}) {
		t.Errorf("rect = %+v, want Drawables.UvRects row", got)
	}
}

func TestAtlasTable_MeshUvsShapeBeforeUserData(t *testing.T) {
	doc := `{
	  "FileReferences": {"Moc": "m.moc3", "Textures": ["t.png"]},
	  "MeshUvs": [{"x": 0.5, "y": 0, "w": 0.5, "h": 1}],
	  "UserData": {"UvRects": [{"x": 0.8, "y": 0.8, "w": 0.8, "h": 0.8}]}
	}`
	src, err := ParseModelSource([]byte(doc))
	if err != nil {
		t.Fatalf("ParseModelSource: %v", err)
	}
	if got := src.AtlasTable()[0]; got != (AtlasRect{X: 0.5, Y: 0, W: 0.5, H: 1}) {
		t.Errorf("rect = %+v, want MeshUvs row", got)
	}
}

func TestAtlasTable_UserDataShapeLast(t *testing.T) {
	doc := `{
	  "FileReferences": {"Moc": "m.moc3", "Textures": ["t.png"]},
	  "UserData": {"UvRects": [{"x": 0.8, "y": 0.7, "w": 0.2, "h": 0.3}]}
	}`
	src, err := ParseModelSource([]byte(doc))
	if err != nil {
		t.Fatalf("ParseModelSource: %v", err)
	}
	if got := src.AtlasTable()[0]; got != (AtlasRect{X: 0.8, Y: 0.7, W: 0.2, H: 0.3}) {
		t.Errorf("rect = %+v, want UserData.UvRects row", got)
	}
}
