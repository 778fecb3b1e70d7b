package svgrenderer

import (
	"context"
	"encoding/xml"
	"strings"
	"testing"

	"github.com/ByLCY/platecut/fabrication"
	"github.com/ByLCY/platecut/geom"
)

func sampleDocument() *fabrication.Document {
	return &fabrication.Document{
		Width:  325,
		Height: 225,
		Primitives: []fabrication.Primitive{
			{Role: fabrication.RoleCutWood, Path: geom.RectPath(0, 0, 325, 225, 0, 0), Transform: geom.Identity},
			{Role: fabrication.RoleCutMetal, Path: geom.RectPath(12.5, 12.5, 300, 200, 0, 0), Transform: geom.Identity},
			{Role: fabrication.RoleEngrave, Path: geom.RectPath(20, 20, 285, 185, 0, 0), Transform: geom.Identity},
			{
				Role:      fabrication.RoleCutMetal,
				Path:      geom.CirclePath(25, 25, 2.5),
				Circle:    &fabrication.Circle{CX: 25, CY: 25, R: 2.5},
				Transform: geom.Identity,
			},
			{Role: fabrication.RoleEngraveFill, Path: geom.RectPath(0, -6, 4, 6, 0, 0), Transform: geom.Translate(150, 80)},
		},
	}
}

type parsedSVG struct {
	Width   string `xml:"width,attr"`
	Height  string `xml:"height,attr"`
	ViewBox string `xml:"viewBox,attr"`
	Nodes   []struct {
		XMLName     xml.Name
		Fill        string `xml:"fill,attr"`
		Stroke      string `xml:"stroke,attr"`
		StrokeWidth string `xml:"stroke-width,attr"`
		Transform   string `xml:"transform,attr"`
		R           string `xml:"r,attr"`
	} `xml:",any"`
}

func TestRenderSizeAndRoleAttributes(t *testing.T) {
	out, err := New().Render(context.Background(), sampleDocument())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(string(out), Header) {
		t.Fatalf("missing XML prolog: %q", string(out[:40]))
	}

	var doc parsedSVG
	if err := xml.Unmarshal(out, &doc); err != nil {
		t.Fatalf("output is not well-formed XML: %v", err)
	}
	if doc.Width != "325mm" || doc.Height != "225mm" || doc.ViewBox != "0 0 325 225" {
		t.Fatalf("unexpected size attributes %q %q %q", doc.Width, doc.Height, doc.ViewBox)
	}

	want := []struct{ name, fill, stroke, width string }{
		{"path", "none", "#0000FF", "0.01mm"},
		{"path", "none", "#FF0000", "0.01mm"},
		{"path", "none", "#000000", "0.25mm"},
		{"circle", "none", "#FF0000", "0.01mm"},
		{"path", "#000000", "none", ""},
	}
	if len(doc.Nodes) != len(want) {
		t.Fatalf("expected %d elements, got %d", len(want), len(doc.Nodes))
	}
	for i, w := range want {
		n := doc.Nodes[i]
		if n.XMLName.Local != w.name || n.Fill != w.fill || n.Stroke != w.stroke || n.StrokeWidth != w.width {
			t.Fatalf("element %d: got <%s fill=%q stroke=%q stroke-width=%q>, want %+v", i, n.XMLName.Local, n.Fill, n.Stroke, n.StrokeWidth, w)
		}
	}
	if doc.Nodes[3].R != "2.5" {
		t.Fatalf("fixing circle radius = %q", doc.Nodes[3].R)
	}
	if doc.Nodes[4].Transform != "matrix(1 0 0 1 150 80)" {
		t.Fatalf("group transform not preserved: %q", doc.Nodes[4].Transform)
	}
	if doc.Nodes[0].Transform != "" {
		t.Fatalf("identity transform should be omitted, got %q", doc.Nodes[0].Transform)
	}
}

func TestRenderHasNoPresentationAttributes(t *testing.T) {
	out, err := New().Render(context.Background(), sampleDocument())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, attr := range []string{"filter", "opacity", "style", "<defs", "<text"} {
		if strings.Contains(string(out), attr) {
			t.Fatalf("output should not contain %q:\n%s", attr, out)
		}
	}
}

func TestRenderDeterministic(t *testing.T) {
	a, err := New().Render(context.Background(), sampleDocument())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	b, err := New().Render(context.Background(), sampleDocument())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("rendering the same document twice differs")
	}
}

func TestRenderNilDocument(t *testing.T) {
	if _, err := New().Render(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil document")
	}
}
