package fabrication

import (
	"errors"
	"fmt"

	"github.com/ByLCY/platecut/design"
	"github.com/ByLCY/platecut/geom"
)

// TextOutliner 将文本图层转换为已轮廓化的字形，由导出流程注入。
// 无法轮廓化的文本段应以 Unresolved 字形返回，而不是报错。
type TextOutliner func(layer design.Layer) ([]design.Glyph, error)

// Rewrite 按图层语义生成加工图元，保持图层顺序。输入文档不会被修改。
// 缺少几何信息的图层被丢弃并记录在返回的 Drop 中。
func Rewrite(doc design.Document, texts TextOutliner) ([]Primitive, []Drop, error) {
	var (
		prims []Primitive
		drops []Drop
	)
	for i, layer := range doc.Layers {
		out, dropped, err := rewriteLayer(layer, texts)
		if err != nil {
			var oe *design.OpError
			if errors.As(err, &oe) && oe.Kind == design.KindMalformedLayer {
				drops = append(drops, Drop{LayerID: layerName(layer, i), Kind: layer.Kind, Reason: "malformed", Err: err})
				continue
			}
			return nil, nil, err
		}
		for j := range dropped {
			dropped[j].LayerID = layerName(layer, i)
		}
		drops = append(drops, dropped...)
		prims = append(prims, out...)
	}
	return prims, drops, nil
}

func layerName(l design.Layer, i int) string {
	if l.ID != "" {
		return l.ID
	}
	return fmt.Sprintf("#%d", i)
}

func malformed(layer design.Layer, reason string) error {
	return &design.OpError{
		Op:      "fabrication.rewrite",
		Kind:    design.KindMalformedLayer,
		Subject: string(layer.Kind),
		Err:     fmt.Errorf("%w: %s", design.ErrMalformedLayer, reason),
	}
}

func rewriteLayer(layer design.Layer, texts TextOutliner) ([]Primitive, []Drop, error) {
	layerM, err := geom.ParseTransform(layer.Transform)
	if err != nil {
		return nil, nil, malformed(layer, err.Error())
	}

	shapePrim := func(s *design.Shape, role Role) ([]Primitive, error) {
		if s == nil {
			return nil, malformed(layer, "缺少几何图形")
		}
		p, err := s.Path()
		if err != nil {
			return nil, err
		}
		shapeM, err := geom.ParseTransform(s.Transform)
		if err != nil {
			return nil, malformed(layer, err.Error())
		}
		return []Primitive{newPrimitive(role, p, layerM.Mul(shapeM), layer.ID)}, nil
	}

	switch layer.Kind {
	case design.KindCutOutline:
		prims, err := shapePrim(layer.Shape, RoleCutMetal)
		return prims, nil, err

	case design.KindEngravedBorder:
		prims, err := shapePrim(layer.Shape, RoleEngrave)
		return prims, nil, err

	case design.KindBackingOutline:
		if len(layer.Children) == 0 {
			return nil, nil, malformed(layer, "木质底板缺少轮廓")
		}
		prims, err := shapePrim(&layer.Children[0], RoleCutWood)
		if err != nil {
			return nil, nil, err
		}
		var drops []Drop
		if n := len(layer.Children) - 1; n > 0 {
			drops = append(drops, Drop{Kind: layer.Kind, Reason: fmt.Sprintf("dropped %d decorative children", n)})
		}
		return prims, drops, nil

	case design.KindFixingMark:
		if layer.Center == nil {
			return nil, nil, malformed(layer, "固定孔缺少中心点")
		}
		c := Circle{CX: round(layer.Center.X), CY: round(layer.Center.Y), R: FixingRadius}
		prim := newPrimitive(RoleCutMetal, geom.CirclePath(c.CX, c.CY, c.R), layerM, layer.ID)
		prim.Circle = &c
		return []Primitive{prim}, nil, nil

	case design.KindTextGroup:
		if texts == nil {
			return nil, nil, fmt.Errorf("fabrication: 缺少文本轮廓化实现")
		}
		glyphs, err := texts(layer)
		if err != nil {
			return nil, nil, err
		}
		prims, err := glyphPrimitives(layer, layerM, glyphs)
		return prims, nil, err

	case design.KindOutlinedText:
		prims, err := glyphPrimitives(layer, layerM, layer.Glyphs)
		return prims, nil, err

	case design.KindVisualEffect, design.KindDecoration:
		return nil, []Drop{{Kind: layer.Kind, Reason: "presentation only"}}, nil

	default:
		return nil, []Drop{{Kind: layer.Kind, Reason: "unknown layer kind"}}, nil
	}
}

func glyphPrimitives(layer design.Layer, layerM geom.Matrix, glyphs []design.Glyph) ([]Primitive, error) {
	prims := make([]Primitive, 0, len(glyphs))
	for _, g := range glyphs {
		p, err := geom.ParsePath(g.D)
		if err != nil {
			return nil, malformed(layer, err.Error())
		}
		if p.Empty() {
			continue // 只有空白的文本段
		}
		m, err := geom.ParseTransform(g.Transform)
		if err != nil {
			return nil, malformed(layer, err.Error())
		}
		role := RoleEngraveFill
		if g.Unresolved {
			role = RoleUnresolved
		}
		prims = append(prims, newPrimitive(role, p, layerM.Mul(m), layer.ID))
	}
	return prims, nil
}

func newPrimitive(role Role, p geom.Path, m geom.Matrix, id string) Primitive {
	return Primitive{
		Role:      role,
		Path:      p.Round(geom.Precision),
		Transform: m.Round(geom.MatrixPrecision),
		LayerID:   id,
	}
}

func round(v float64) float64 { return geom.RoundNum(v, geom.Precision) }
