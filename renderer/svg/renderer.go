package svgrenderer

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/ByLCY/platecut/fabrication"
	"github.com/ByLCY/platecut/renderer"
)

// Header 是输出文件的 XML 声明。
const Header = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

const svgNS = "http://www.w3.org/2000/svg"

// Renderer writes fabrication documents as standalone SVG files sized in millimetres.
type Renderer struct {
	// Indent controls pretty printing; empty writes one element per line without indentation.
	Indent string
}

var _ renderer.Renderer = (*Renderer)(nil)

// New creates an SVG renderer with two-space indentation.
func New() *Renderer { return &Renderer{Indent: "  "} }

type svgRoot struct {
	XMLName  xml.Name `xml:"svg"`
	Xmlns    string   `xml:"xmlns,attr"`
	Width    string   `xml:"width,attr"`
	Height   string   `xml:"height,attr"`
	ViewBox  string   `xml:"viewBox,attr"`
	Elements []any
}

type svgPath struct {
	XMLName     xml.Name `xml:"path"`
	D           string   `xml:"d,attr"`
	Fill        string   `xml:"fill,attr"`
	Stroke      string   `xml:"stroke,attr"`
	StrokeWidth string   `xml:"stroke-width,attr,omitempty"`
	Transform   string   `xml:"transform,attr,omitempty"`
}

type svgCircle struct {
	XMLName     xml.Name `xml:"circle"`
	CX          string   `xml:"cx,attr"`
	CY          string   `xml:"cy,attr"`
	R           string   `xml:"r,attr"`
	Fill        string   `xml:"fill,attr"`
	Stroke      string   `xml:"stroke,attr"`
	StrokeWidth string   `xml:"stroke-width,attr,omitempty"`
	Transform   string   `xml:"transform,attr,omitempty"`
}

// Render renders the document into SVG bytes.
func (r *Renderer) Render(ctx context.Context, doc *fabrication.Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("加工文档为空")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	root := svgRoot{
		Xmlns:   svgNS,
		Width:   num(doc.Width) + "mm",
		Height:  num(doc.Height) + "mm",
		ViewBox: fmt.Sprintf("0 0 %s %s", num(doc.Width), num(doc.Height)),
	}
	for _, p := range doc.Primitives {
		root.Elements = append(root.Elements, element(p))
	}

	var buf bytes.Buffer
	buf.WriteString(Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", r.Indent)
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("写入 SVG 失败: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func element(p fabrication.Primitive) any {
	st := p.Role.Style()
	fill, stroke, width := "none", "none", ""
	if st.Fill != nil {
		fill = st.Fill.Hex()
	}
	if st.Stroke != nil {
		stroke = st.Stroke.Hex()
		width = num(st.StrokeWidth) + "mm"
	}
	transform := ""
	if !p.Transform.IsIdentity() {
		transform = p.Transform.String()
	}
	if c := p.Circle; c != nil {
		return svgCircle{
			CX: num(c.CX), CY: num(c.CY), R: num(c.R),
			Fill: fill, Stroke: stroke, StrokeWidth: width, Transform: transform,
		}
	}
	return svgPath{D: p.Path.String(), Fill: fill, Stroke: stroke, StrokeWidth: width, Transform: transform}
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
