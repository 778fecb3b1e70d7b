package fabrication

import (
	"github.com/ByLCY/platecut/design"
	"github.com/ByLCY/platecut/geom"
)

// Assemble 为图元附加物理尺寸：(W + extra) × (H + extra) mm。
// 输出只携带角色样式，展示类属性（filter、opacity、style 等）不会进入加工文档。
func Assemble(physical design.Physical, prims []Primitive) (*Document, error) {
	if err := physical.Validate(); err != nil {
		return nil, err
	}
	w, h := physical.TotalSize()
	return &Document{Width: w, Height: h, Primitives: prims}, nil
}

// Build 依次执行 Rewrite 与 Assemble。
func Build(doc design.Document, physical design.Physical, texts TextOutliner) (*Document, []Drop, error) {
	if err := physical.Validate(); err != nil {
		return nil, nil, err
	}
	prims, drops, err := Rewrite(doc, texts)
	if err != nil {
		return nil, nil, err
	}
	out, err := Assemble(physical, prims)
	if err != nil {
		return nil, nil, err
	}
	return out, drops, nil
}

// Design 将加工文档还原为设计树：文字以 OutlinedText 图层表示，
// 因此对结果再次执行 Rewrite 会得到相同的图元。
func (d *Document) Design() design.Document {
	out := design.Document{Width: d.Width, Height: d.Height}
	for _, p := range d.Primitives {
		layer := design.Layer{ID: p.LayerID}
		transform := ""
		if !p.Transform.IsIdentity() {
			transform = p.Transform.String()
		}
		pathShape := &design.Shape{Type: design.ShapePath, D: p.Path.String()}

		switch p.Role {
		case RoleCutMetal:
			if p.Circle != nil {
				layer.Kind = design.KindFixingMark
				layer.Center = &geom.Point{X: p.Circle.CX, Y: p.Circle.CY}
			} else {
				layer.Kind = design.KindCutOutline
				layer.Shape = pathShape
			}
			layer.Transform = transform
		case RoleCutWood:
			layer.Kind = design.KindBackingOutline
			layer.Children = []design.Shape{*pathShape}
			layer.Transform = transform
		case RoleEngrave:
			layer.Kind = design.KindEngravedBorder
			layer.Shape = pathShape
			layer.Transform = transform
		case RoleEngraveFill, RoleUnresolved:
			layer.Kind = design.KindOutlinedText
			layer.Glyphs = []design.Glyph{{
				D:          pathShape.D,
				Transform:  transform,
				Unresolved: p.Role == RoleUnresolved,
			}}
		default:
			continue
		}
		out.Layers = append(out.Layers, layer)
	}
	return out
}
