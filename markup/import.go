// Package markup 将设计器的 SVG 标记还原为 design.Document。
// 图层语义来自设计器约定的 class/id 标记：
//
//	.wood-backing     木质底板（第一个子图形为轮廓）
//	.cut-line         金属切割轮廓
//	.engraved-border  雕刻边框
//	.visual-effect    仅用于屏幕展示的效果
//	#fixings-layer    每个子元素是一个固定孔
//	#ai-text-layer    文本组
package markup

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ByLCY/platecut/design"
	"github.com/ByLCY/platecut/geom"
)

// 这些元素只携带资源定义，不参与图层识别。
var skipped = map[string]bool{
	"defs": true, "style": true, "filter": true, "title": true, "desc": true, "metadata": true,
	"clippath": true, "mask": true, "lineargradient": true, "radialgradient": true, "pattern": true,
	"symbol": true, "script": true,
}

var shapeElements = map[string]bool{
	"rect": true, "ellipse": true, "circle": true, "path": true,
	"line": true, "polygon": true, "polyline": true,
}

// 视觉效果图层保留的展示属性。
var presentationAttrs = []string{"filter", "opacity", "style", "fill", "stroke", "mask", "clip-path"}

// Import 读取完整的 SVG 文档。
func Import(r io.Reader) (*design.Document, error) {
	root, err := parse(r)
	if err != nil {
		return nil, err
	}
	svg := firstElement(root, "svg")
	if svg == nil {
		return nil, fmt.Errorf("标记中缺少 <svg> 根元素")
	}
	doc := &design.Document{}
	doc.Width, doc.Height = documentSize(svg)
	w := &walker{doc: doc}
	w.children(svg, nil)
	return doc, nil
}

// ImportString 是 Import 的字符串形式。
func ImportString(s string) (*design.Document, error) {
	return Import(strings.NewReader(s))
}

// ImportBytes 是 Import 的字节形式。
func ImportBytes(b []byte) (*design.Document, error) {
	return Import(bytes.NewReader(b))
}

func firstElement(n *node, name string) *node {
	for _, c := range n.children {
		if !c.isElement() {
			continue
		}
		if c.name == name {
			return c
		}
		if hit := firstElement(c, name); hit != nil {
			return hit
		}
	}
	return nil
}

// documentSize 优先使用 viewBox，其次是 width/height 属性。
func documentSize(svg *node) (float64, float64) {
	if vb := strings.FieldsFunc(svg.attr("viewBox"), func(r rune) bool { return r == ',' || r == ' ' }); len(vb) == 4 {
		w, okW := design.ParseMM(vb[2])
		h, okH := design.ParseMM(vb[3])
		if okW && okH {
			return w, h
		}
	}
	w, _ := design.ParseMM(svg.attr("width"))
	h, _ := design.ParseMM(svg.attr("height"))
	return w, h
}

type walker struct {
	doc *design.Document
}

func (w *walker) add(l design.Layer) { w.doc.Layers = append(w.doc.Layers, l) }

func (w *walker) children(n *node, chain []string) {
	for _, c := range n.children {
		if c.isElement() {
			w.visit(c, chain)
		}
	}
}

// visit 识别一个元素的图层语义；chain 为祖先元素的 transform 序列。
func (w *walker) visit(n *node, chain []string) {
	if skipped[n.name] {
		return
	}
	own := appendTransform(chain, n)

	switch {
	case n.hasClass("visual-effect"):
		w.add(design.Layer{ID: n.id(), Kind: design.KindVisualEffect, Attrs: presentation(n)})

	case n.hasClass("wood-backing"):
		l := design.Layer{ID: n.id(), Kind: design.KindBackingOutline}
		if s, ok := shapeOf(n); ok {
			l.Transform = joinTransforms(chain)
			l.Children = []design.Shape{s}
		} else {
			l.Transform = joinTransforms(own)
			l.Children = shapesUnder(n, nil)
		}
		w.add(l)

	case n.hasClass("cut-line"):
		w.add(w.shapeLayer(n, chain, design.KindCutOutline))

	case n.hasClass("engraved-border"):
		w.add(w.shapeLayer(n, chain, design.KindEngravedBorder))

	case n.id() == "fixings-layer":
		for _, c := range n.children {
			if c.isElement() && !skipped[c.name] {
				w.add(fixing(c, own))
			}
		}

	case n.id() == "ai-text-layer":
		w.add(design.Layer{
			ID:        n.id(),
			Kind:      design.KindTextGroup,
			Transform: joinTransforms(own),
			Texts:     collectTexts(n, textStyle{}, nil),
		})

	case n.name == "text":
		// 文本组以外的 <text> 同样需要雕刻
		w.add(design.Layer{
			ID:        n.id(),
			Kind:      design.KindTextGroup,
			Transform: joinTransforms(chain),
			Texts:     []design.Text{textOf(n, textStyle{}, nil)},
		})

	case shapeElements[n.name] || n.name == "image" || n.name == "use":
		l := design.Layer{ID: n.id(), Kind: design.KindDecoration, Transform: joinTransforms(chain)}
		if s, ok := shapeOf(n); ok {
			l.Shape = &s
		}
		w.add(l)

	default:
		w.children(n, own)
	}
}

// shapeLayer 处理 cut-line / engraved-border：元素本身是图形，或是包含图形的分组。
func (w *walker) shapeLayer(n *node, chain []string, kind design.Kind) design.Layer {
	l := design.Layer{ID: n.id(), Kind: kind, Transform: joinTransforms(chain)}
	if s, ok := shapeOf(n); ok {
		l.Shape = &s
		return l
	}
	if shapes := shapesUnder(n, nil); len(shapes) > 0 {
		l.Transform = joinTransforms(appendTransform(chain, n))
		l.Shape = &shapes[0]
	}
	return l
}

// fixing 以第一个圆的圆心作为固定孔中心，其余图形仅作展示。
func fixing(n *node, chain []string) design.Layer {
	l := design.Layer{ID: n.id(), Kind: design.KindFixingMark}
	if s, ok := shapeOf(n); ok {
		l.Artwork = []design.Shape{s}
	} else {
		l.Artwork = shapesUnder(n, nil)
	}

	var (
		circle *node
		path   []string
	)
	if n.name == "circle" {
		circle, path = n, appendTransform(nil, n)
	} else {
		circle, path = n.find("circle")
		path = append(appendTransform(nil, n), path...)
	}
	if circle == nil {
		l.Transform = joinTransforms(appendTransform(chain, n))
		return l
	}
	l.Transform = joinTransforms(append(append([]string(nil), chain...), path...))
	l.Center = &geom.Point{X: number(circle.attr("cx")), Y: number(circle.attr("cy"))}
	return l
}

// shapesUnder 按文档顺序收集后代图形；中间分组的 transform 合并到图形自身。
func shapesUnder(n *node, chain []string) []design.Shape {
	var out []design.Shape
	for _, c := range n.children {
		if !c.isElement() || skipped[c.name] {
			continue
		}
		if s, ok := shapeOf(c); ok {
			if len(chain) > 0 {
				s.Transform = strings.TrimSpace(joinTransforms(chain) + " " + s.Transform)
			}
			out = append(out, s)
			continue
		}
		out = append(out, shapesUnder(c, appendTransform(chain, c))...)
	}
	return out
}

func presentation(n *node) map[string]string {
	attrs := make(map[string]string)
	for _, k := range presentationAttrs {
		if v := n.attr(k); v != "" {
			attrs[k] = v
		}
	}
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

// shapeOf 将基本图形元素转换为 design.Shape；line/polygon/polyline 转为路径。
func shapeOf(n *node) (design.Shape, bool) {
	s := design.Shape{Transform: n.attr("transform")}
	switch n.name {
	case "rect":
		s.Type = design.ShapeRect
		s.X, s.Y = number(n.attr("x")), number(n.attr("y"))
		s.Width, s.Height = number(n.attr("width")), number(n.attr("height"))
		s.RX, s.RY = number(n.attr("rx")), number(n.attr("ry"))
		if n.attr("rx") == "" {
			s.RX = s.RY
		}
		if n.attr("ry") == "" {
			s.RY = s.RX
		}
	case "ellipse":
		s.Type = design.ShapeEllipse
		s.CX, s.CY = number(n.attr("cx")), number(n.attr("cy"))
		s.RX, s.RY = number(n.attr("rx")), number(n.attr("ry"))
	case "circle":
		s.Type = design.ShapeCircle
		s.CX, s.CY, s.R = number(n.attr("cx")), number(n.attr("cy")), number(n.attr("r"))
	case "path":
		s.Type = design.ShapePath
		s.D = n.attr("d")
	case "line":
		s.Type = design.ShapePath
		s.D = fmt.Sprintf("M%s %s L%s %s", num(n.attr("x1")), num(n.attr("y1")), num(n.attr("x2")), num(n.attr("y2")))
	case "polygon", "polyline":
		s.Type = design.ShapePath
		s.D = pointsPath(n.attr("points"), n.name == "polygon")
	default:
		return design.Shape{}, false
	}
	return s, true
}

func pointsPath(points string, closed bool) string {
	f := strings.FieldsFunc(points, func(r rune) bool { return r == ',' || r == ' ' || r == '\n' || r == '\t' })
	if len(f) < 4 {
		return ""
	}
	var b strings.Builder
	for i := 0; i+1 < len(f); i += 2 {
		if i == 0 {
			b.WriteString("M")
		} else {
			b.WriteString(" L")
		}
		b.WriteString(num(f[i]) + " " + num(f[i+1]))
	}
	if closed {
		b.WriteString(" Z")
	}
	return b.String()
}

// number 解析坐标属性；px 与无单位数值按文档单位处理，无法解析时为 0。
func number(v string) float64 {
	if fields := strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' }); len(fields) > 0 {
		v = fields[0]
	}
	f, _ := design.ParseMM(v)
	return f
}

func num(v string) string { return fmt.Sprintf("%g", number(v)) }
