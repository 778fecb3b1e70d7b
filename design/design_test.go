package design

import (
	"errors"
	"math"
	"testing"
)

// TestTotalSizeAddsWoodExtraToBothAxes 验证木板额外尺寸同时加到宽与高上。
func TestTotalSizeAddsWoodExtraToBothAxes(t *testing.T) {
	p := Physical{Width: 300, Height: 200, Wood: true}
	w, h := p.TotalSize()
	if w != 325 || h != 225 {
		t.Fatalf("expected 325x225, got %gx%g", w, h)
	}
	p.Wood = false
	w, h = p.TotalSize()
	if w != 300 || h != 200 {
		t.Fatalf("expected 300x200 without wood, got %gx%g", w, h)
	}
}

func TestValidateMissingDimensions(t *testing.T) {
	err := Physical{Width: 300}.Validate()
	if !errors.Is(err, ErrMissingDimensions) {
		t.Fatalf("expected ErrMissingDimensions, got %v", err)
	}
	if !IsKind(err, KindMissingDimensions) {
		t.Fatalf("expected kind %s, got %v", KindMissingDimensions, err)
	}
}

func TestShapePathMalformed(t *testing.T) {
	cases := []Shape{
		{Type: ShapeRect, Width: 10},
		{Type: ShapeCircle},
		{Type: ShapePath, D: ""},
		{Type: "polygon"},
	}
	for _, s := range cases {
		if _, err := s.Path(); !errors.Is(err, ErrMalformedLayer) {
			t.Fatalf("expected ErrMalformedLayer for %+v, got %v", s, err)
		}
	}
}

func TestEffectiveRunsInherit(t *testing.T) {
	txt := Text{FontFamily: "Cinzel", FontSize: 28, Anchor: AnchorMiddle, Runs: []TextRun{
		{Content: "A"},
		{Content: "B", FontSize: 10, Anchor: AnchorEnd},
	}}
	runs := txt.EffectiveRuns()
	if runs[0].FontFamily != "Cinzel" || runs[0].FontSize != 28 || runs[0].Anchor != AnchorMiddle {
		t.Fatalf("run 0 did not inherit: %+v", runs[0])
	}
	if runs[1].FontSize != 10 || runs[1].Anchor != AnchorEnd {
		t.Fatalf("run 1 overrides lost: %+v", runs[1])
	}

	implicit := Text{Content: "solo"}.EffectiveRuns()
	if len(implicit) != 1 || implicit[0].Content != "solo" || implicit[0].FontSize != DefaultFontSize || implicit[0].Anchor != AnchorStart {
		t.Fatalf("unexpected implicit run %+v", implicit)
	}
}

func TestParseLengthUnits(t *testing.T) {
	cases := map[string]float64{"28": 28, "28px": 28, "0.25mm": 0.25, "1cm": 10, "1in": 25.4, "72pt": 25.4}
	for in, want := range cases {
		got, ok := ParseMM(in)
		if !ok || math.Abs(got-want) > 1e-9 {
			t.Fatalf("ParseMM(%q) = %g,%v want %g", in, got, ok, want)
		}
	}
	if _, ok := ParseMM("abc"); ok {
		t.Fatalf("expected failure for non-numeric length")
	}
}

func TestDecodeYAMLFillsPhysicalFromDocument(t *testing.T) {
	src := []byte(`
document:
  width: 300
  height: 200
  layers:
    - kind: cut-outline
      shape: {type: rect, x: 0, y: 0, width: 300, height: 200, rx: 2}
    - kind: text-group
      transform: translate(150, 100)
      texts:
        - content: Grand Opening 2024
          anchor: middle
          fontSize: 12
          x: 0
          y: 0
`)
	f, err := Decode(src, ".yaml")
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if f.Physical.Width != 300 || f.Physical.Height != 200 {
		t.Fatalf("physical size not inherited: %+v", f.Physical)
	}
	if len(f.Document.Layers) != 2 || f.Document.Layers[1].Kind != KindTextGroup {
		t.Fatalf("unexpected layers %+v", f.Document.Layers)
	}
	txt := f.Document.Layers[1].Texts[0]
	if txt.X == nil || *txt.X != 0 || txt.Anchor != AnchorMiddle {
		t.Fatalf("unexpected text %+v", txt)
	}
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	cases := map[string]string{
		".yaml": "document:\n  width: 10\n  height: 10\n  colour: red\n",
		".json": `{"document": {"width": 10, "height": 10, "layers": [{"kind": "cut-outline", "shap": {}}]}}`,
	}
	for ext, src := range cases {
		if _, err := Decode([]byte(src), ext); err == nil {
			t.Fatalf("%s: expected unknown field error", ext)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	src := []byte(`{
  "physical": {"width": 120, "height": 80, "wood": true, "woodExtra": 10},
  "document": {
    "width": 120,
    "height": 80,
    "layers": [
      {"id": "hole", "kind": "fixing-mark", "center": {"x": 6, "y": 6}},
      {"kind": "text-group", "texts": [{"x": 60, "y": 40, "fontSize": 9, "runs": [{"content": "Hi", "dx": 1.5}]}]}
    ]
  }
}`)
	f, err := Decode(src, ".JSON")
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !f.Physical.Wood || f.Physical.WoodExtra != 10 {
		t.Fatalf("unexpected physical %+v", f.Physical)
	}
	if c := f.Document.Layers[0].Center; c == nil || c.X != 6 {
		t.Fatalf("fixing centre not decoded: %+v", f.Document.Layers[0])
	}
	run := f.Document.Layers[1].Texts[0].Runs[0]
	if run.Content != "Hi" || run.DX != 1.5 {
		t.Fatalf("unexpected run %+v", run)
	}
}
