package export

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/platecut/design"
	"github.com/ByLCY/platecut/fabrication"
	"github.com/ByLCY/platecut/fontcache"
	"github.com/ByLCY/platecut/markup"
	pdfrenderer "github.com/ByLCY/platecut/renderer/pdf"
)

// offlineCache 只注册内置字体，测试不会访问网络。
func offlineCache() *fontcache.Cache {
	return fontcache.New(fontcache.Options{Registry: fontcache.Registry{
		"Go":      "builtin:go-regular",
		"Go Bold": "builtin:go-bold",
	}})
}

func newExporter() *Exporter {
	return New(offlineCache(), Options{Wait: &pdfrenderer.WaitPolicy{Interval: time.Millisecond, MaxRetries: 1}})
}

type svgElement struct {
	XMLName xml.Name
	Fill    string `xml:"fill,attr"`
	Stroke  string `xml:"stroke,attr"`
}

type svgFile struct {
	Width    string       `xml:"width,attr"`
	Height   string       `xml:"height,attr"`
	Elements []svgElement `xml:",any"`
}

func parseSVG(t *testing.T, b []byte) svgFile {
	t.Helper()
	var f svgFile
	require.NoError(t, xml.Unmarshal(b, &f))
	return f
}

func (f svgFile) count(stroke, fill string) int {
	n := 0
	for _, e := range f.Elements {
		if e.Stroke == stroke && e.Fill == fill {
			n++
		}
	}
	return n
}

func plateLayer() design.Layer {
	return design.Layer{ID: "plate", Kind: design.KindCutOutline, Shape: &design.Shape{Type: design.ShapeRect, Width: 300, Height: 200, RX: 5, RY: 5}}
}

func textLayer(family, content string) design.Layer {
	return design.Layer{
		ID:   "ai-text-layer",
		Kind: design.KindTextGroup,
		Texts: []design.Text{{
			Content:    content,
			X:          design.Float(0),
			Y:          design.Float(0),
			FontFamily: family,
			FontSize:   12,
			Anchor:     design.AnchorMiddle,
		}},
	}
}

func primitivesOf(doc *fabrication.Document, role fabrication.Role) []fabrication.Primitive {
	var out []fabrication.Primitive
	for _, p := range doc.Primitives {
		if p.Role == role {
			out = append(out, p)
		}
	}
	return out
}

func TestScenarioCentredTextOnMetalPlate(t *testing.T) {
	doc := design.Document{Width: 300, Height: 200, Layers: []design.Layer{plateLayer(), textLayer("", "Grand Opening 2024")}}
	physical := design.Physical{Width: 300, Height: 200}
	e := newExporter()

	out, report, err := e.ExportVectorFile(context.Background(), doc, physical)
	require.NoError(t, err)
	require.True(t, report.Clean())

	f := parseSVG(t, out)
	require.Equal(t, "300mm", f.Width)
	require.Equal(t, "200mm", f.Height)
	require.Equal(t, 1, f.count("#FF0000", "none"), "one metal cut path")
	require.Equal(t, 0, f.count("#0000FF", "none"), "no wood cut path")
	require.Equal(t, 1, f.count("none", "#000000"), "one engraved text path")

	fab, _, err := e.Prepare(context.Background(), doc, physical)
	require.NoError(t, err)
	text := primitivesOf(fab, fabrication.RoleEngraveFill)
	require.Len(t, text, 1)
	b, ok := text[0].Path.Bounds()
	require.True(t, ok)
	require.InDelta(t, 0, b.CenterX(), 1.2, "text is centred on x=0")
	require.Greater(t, b.Width(), 50.0)
}

func TestScenarioWoodBackingAddsExtraToBothAxes(t *testing.T) {
	backing := design.Layer{
		ID:   "backing",
		Kind: design.KindBackingOutline,
		Children: []design.Shape{
			{Type: design.ShapeRect, Width: 325, Height: 225, RX: 4, RY: 4},
			{Type: design.ShapeRect, X: 2, Y: 2, Width: 321, Height: 221},
			{Type: design.ShapeRect, X: 4, Y: 4, Width: 317, Height: 217},
		},
	}
	plate := plateLayer()
	plate.Transform = "translate(12.5 12.5)"
	doc := design.Document{Width: 325, Height: 225, Layers: []design.Layer{backing, plate}}

	out, report, err := newExporter().ExportVectorFile(context.Background(), doc, design.Physical{Width: 300, Height: 200, Wood: true})
	require.NoError(t, err)

	f := parseSVG(t, out)
	require.Equal(t, "325mm", f.Width)
	require.Equal(t, "225mm", f.Height)
	require.Equal(t, 1, f.count("#0000FF", "none"), "exactly one wood cut path")
	require.Equal(t, 1, f.count("#FF0000", "none"))
	require.Len(t, report.Dropped, 1)
	require.Contains(t, report.Dropped[0].Reason, "2 decorative")
}

func TestScenarioUnregisteredFontFallsBack(t *testing.T) {
	doc := design.Document{Width: 300, Height: 200, Layers: []design.Layer{plateLayer(), textLayer("'Imaginary Serif', serif", "Welcome")}}

	out, report, err := newExporter().ExportVectorFile(context.Background(), doc, design.Physical{Width: 300, Height: 200})
	require.NoError(t, err, "an unavailable font is not a call-level error")
	require.Len(t, report.FontIssues, 1)
	require.Equal(t, "Imaginary Serif", report.FontIssues[0].Family)
	require.Equal(t, fontcache.FallbackFamily, report.FontIssues[0].Substitute)
	require.True(t, errors.Is(report.FontIssues[0], design.ErrFontUnavailable))
	require.Empty(t, report.Unresolved)
	require.Equal(t, 1, parseSVG(t, out).count("none", "#000000"), "run outlined with the fallback font")
}

func TestScenarioEmbeddingBackendNeverReady(t *testing.T) {
	check := func(context.Context) error { return errors.New("converter not loaded") }
	e := New(offlineCache(), Options{ReadyCheck: check, Wait: &pdfrenderer.WaitPolicy{Interval: time.Millisecond, MaxRetries: 1}})
	doc := design.Document{Width: 300, Height: 200, Layers: []design.Layer{plateLayer()}}
	physical := design.Physical{Width: 300, Height: 200}

	_, _, err := e.ExportPaginatedDocument(context.Background(), doc, physical)
	require.ErrorIs(t, err, design.ErrEmbeddingUnavailable)
	require.True(t, design.IsKind(err, design.KindEmbeddingUnavailable))

	out, _, err := e.ExportVectorFile(context.Background(), doc, physical)
	require.NoError(t, err)
	require.Equal(t, 1, parseSVG(t, out).count("#FF0000", "none"))
}

func TestExportPaginatedDocument(t *testing.T) {
	doc := design.Document{Width: 300, Height: 200, Layers: []design.Layer{plateLayer(), textLayer("Go Bold", "PDF")}}
	out, report, err := newExporter().ExportPaginatedDocument(context.Background(), doc, design.Physical{Width: 300, Height: 200})
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	require.Equal(t, 300.0, report.Width)
	require.Equal(t, 200.0, report.Height)
}

func TestMissingDimensionsFailsTheCall(t *testing.T) {
	doc := design.Document{Layers: []design.Layer{plateLayer()}}
	_, _, err := newExporter().ExportVectorFile(context.Background(), doc, design.Physical{Width: 0, Height: 200})
	require.ErrorIs(t, err, design.ErrMissingDimensions)
	require.True(t, design.IsKind(err, design.KindMissingDimensions))
}

func TestNoUsableFontFailsOnlyWithText(t *testing.T) {
	cache := fontcache.New(fontcache.Options{Registry: fontcache.Registry{}, Fallback: "Nothing"})
	e := New(cache, Options{})
	physical := design.Physical{Width: 300, Height: 200}

	_, _, err := e.ExportVectorFile(context.Background(), design.Document{Layers: []design.Layer{plateLayer()}}, physical)
	require.NoError(t, err, "geometry-only documents need no font")

	_, _, err = e.ExportVectorFile(context.Background(), design.Document{Layers: []design.Layer{plateLayer(), textLayer("", "Hi")}}, physical)
	require.ErrorIs(t, err, design.ErrNoUsableFont)
}

func TestMissingGlyphsBecomeUnresolvedPlaceholders(t *testing.T) {
	doc := design.Document{Layers: []design.Layer{plateLayer(), textLayer("", "纪念")}}
	out, report, err := newExporter().ExportVectorFile(context.Background(), doc, design.Physical{Width: 300, Height: 200})
	require.NoError(t, err)
	require.Len(t, report.Unresolved, 1)
	require.Equal(t, "纪念", report.Unresolved[0].Content)
	require.ErrorIs(t, report.Unresolved[0].Err, design.ErrOutlineFailure)
	require.False(t, report.Clean())

	f := parseSVG(t, out)
	require.Equal(t, 1, f.count("none", "#FF0000"), "placeholder rendered in red")
	require.Equal(t, 0, f.count("none", "#000000"))
}

func TestRunTransformIsPreserved(t *testing.T) {
	layer := textLayer("", "Tilt")
	layer.Transform = "translate(150 100)"
	layer.Texts[0].Transform = "rotate(-5)"
	doc := design.Document{Layers: []design.Layer{layer}}

	fab, _, err := newExporter().Prepare(context.Background(), doc, design.Physical{Width: 300, Height: 200})
	require.NoError(t, err)
	text := primitivesOf(fab, fabrication.RoleEngraveFill)
	require.Len(t, text, 1)
	require.InDelta(t, 150, text[0].Transform[4], 1e-9)
	require.InDelta(t, 100, text[0].Transform[5], 1e-9)
	require.NotEqual(t, 0.0, text[0].Transform[1], "rotation survives")
}

func TestExportIsIdempotent(t *testing.T) {
	doc := design.Document{Width: 300, Height: 200, Layers: []design.Layer{plateLayer(), textLayer("", "Again")}}
	physical := design.Physical{Width: 300, Height: 200}
	e := newExporter()

	first, _, err := e.Prepare(context.Background(), doc, physical)
	require.NoError(t, err)
	second, _, err := e.Prepare(context.Background(), first.Design(), physical)
	require.NoError(t, err)
	if diff := cmp.Diff(first.Primitives, second.Primitives); diff != "" {
		t.Fatalf("re-exporting the fabrication output changed it (-first +second):\n%s", diff)
	}
}

func TestImportedMarkupExportsWithoutPresentation(t *testing.T) {
	svg := `<svg viewBox="0 0 300 200">
	  <rect class="visual-effect" width="300" height="200" filter="url(#glow)" opacity="0.5"/>
	  <rect class="cut-line" width="300" height="200" rx="8"/>
	  <rect class="engraved-border" x="10" y="10" width="280" height="180" style="stroke-dasharray: 2"/>
	  <g id="fixings-layer"><g><circle cx="15" cy="15" r="4"/></g></g>
	  <g id="ai-text-layer" transform="translate(150 100)">
	    <text font-family="'Playfair Display'" font-size="28px" text-anchor="middle"><tspan x="0" y="0">Ada</tspan></text>
	  </g>
	</svg>`
	doc, err := markup.ImportString(svg)
	require.NoError(t, err)

	out, report, err := newExporter().ExportVectorFile(context.Background(), *doc, design.Physical{Width: 300, Height: 200})
	require.NoError(t, err)
	for _, attr := range []string{"filter", "opacity", "style", "<text"} {
		require.NotContains(t, string(out), attr)
	}
	require.Len(t, report.FontIssues, 1, "Playfair Display is not in the offline registry")

	f := parseSVG(t, out)
	require.Equal(t, 2, f.count("#FF0000", "none"), "plate outline and fixing hole")
	require.Equal(t, 1, f.count("#000000", "none"), "engraved border")
	require.Equal(t, 1, f.count("none", "#000000"), "engraved text")
	require.True(t, strings.Contains(string(out), `r="2.5"`))
}

func TestFileName(t *testing.T) {
	p := design.Physical{Width: 300, Height: 200, Wood: true, Material: "brass"}
	require.Equal(t, "plaque_300x200_brass.svg", FileName(p, "svg"))
	require.Equal(t, "plaque_325x225_brass.pdf", FileName(p, ".PDF"))
	require.Equal(t, "plaque_120.5x80_plate.svg", FileName(design.Physical{Width: 120.5, Height: 80}, "svg"))
}

func TestSpaceBetweenSpansIsEngraved(t *testing.T) {
	texts, err := markup.ParseText(`<text x="0" y="50" font-family="Go" font-size="10"><tspan>Hello </tspan><tspan>World</tspan></text>`)
	require.NoError(t, err)
	doc := design.Document{Width: 300, Height: 200, Layers: []design.Layer{
		{ID: "ai-text-layer", Kind: design.KindTextGroup, Texts: texts},
	}}

	fab, report, err := newExporter().Prepare(context.Background(), doc, design.Physical{Width: 300, Height: 200})
	require.NoError(t, err)
	require.True(t, report.Clean())
	text := primitivesOf(fab, fabrication.RoleEngraveFill)
	require.Len(t, text, 2)

	hello, ok := text[0].Path.Bounds()
	require.True(t, ok)
	world, ok := text[1].Path.Bounds()
	require.True(t, ok)

	set, _, err := offlineCache().ResolveAll(context.Background(), []string{"Go"})
	require.NoError(t, err)
	space, err := set.Get("Go").Advance(" ", 10)
	require.NoError(t, err)
	require.Greater(t, world.X0-hello.X1, 0.6*space, "the space between the spans keeps its width")
}

func TestLeadingSpaceOfLaterSpanShiftsItsOutline(t *testing.T) {
	doc := design.Document{Width: 300, Height: 200, Layers: []design.Layer{{
		ID:   "ai-text-layer",
		Kind: design.KindTextGroup,
		Texts: []design.Text{{
			X: design.Float(0), Y: design.Float(50), FontFamily: "Go", FontSize: 10,
			Runs: []design.TextRun{{Content: "Hello"}, {Content: " World"}},
		}},
	}}}
	fab, _, err := newExporter().Prepare(context.Background(), doc, design.Physical{Width: 300, Height: 200})
	require.NoError(t, err)

	joined := design.Document{Width: 300, Height: 200, Layers: []design.Layer{{
		ID:   "ai-text-layer",
		Kind: design.KindTextGroup,
		Texts: []design.Text{{
			X: design.Float(0), Y: design.Float(50), FontFamily: "Go", FontSize: 10,
			Runs: []design.TextRun{{Content: "Hello "}, {Content: "World"}},
		}},
	}}}
	want, _, err := newExporter().Prepare(context.Background(), joined, design.Physical{Width: 300, Height: 200})
	require.NoError(t, err)

	got, _ := primitivesOf(fab, fabrication.RoleEngraveFill)[1].Path.Bounds()
	exp, _ := primitivesOf(want, fabrication.RoleEngraveFill)[1].Path.Bounds()
	require.InDelta(t, exp.X0, got.X0, 0.3)
}

func TestMalformedLayerMakesReportUnclean(t *testing.T) {
	doc := design.Document{Width: 300, Height: 200, Layers: []design.Layer{
		plateLayer(),
		{ID: "broken-border", Kind: design.KindEngravedBorder},
		{ID: "glow", Kind: design.KindVisualEffect},
	}}
	_, report, err := newExporter().ExportVectorFile(context.Background(), doc, design.Physical{Width: 300, Height: 200})
	require.NoError(t, err)
	require.Len(t, report.Dropped, 2)
	require.False(t, report.Clean())

	malformed := report.Malformed()
	require.Len(t, malformed, 1, "visual effects are dropped by rule, not reported")
	require.Equal(t, "broken-border", malformed[0].LayerID)
	require.ErrorIs(t, malformed[0].Err, design.ErrMalformedLayer)
}
