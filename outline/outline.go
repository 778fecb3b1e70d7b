package outline

import (
	"fmt"

	"github.com/ByLCY/platecut/design"
	"github.com/ByLCY/platecut/fontcache"
	"github.com/ByLCY/platecut/geom"
)

// GlyphPath 是一段文字的字形轮廓：坐标为文档单位（mm，y 轴向下），已保留两位小数。
type GlyphPath struct {
	Path    geom.Path
	Start   geom.Point
	Advance float64 // 前进宽度，与 MetricShaper 使用同一度量
}

// Outline 将 text 按 size（mm）轮廓化，并把基线起点平移到 (x, y)。
// 字体缺少任一非空白字符的字形时返回 ErrOutlineFailure。
func Outline(text string, asset *fontcache.Asset, size, x, y float64) (GlyphPath, error) {
	fail := func(err error) (GlyphPath, error) {
		return GlyphPath{}, &design.OpError{
			Op:      "outline",
			Kind:    design.KindOutlineFailure,
			Subject: text,
			Err:     fmt.Errorf("%w: %w", design.ErrOutlineFailure, err),
		}
	}
	if asset == nil {
		return fail(fmt.Errorf("没有可用字体"))
	}
	if missing := asset.MissingRunes(text); len(missing) > 0 {
		return fail(fmt.Errorf("字体 %s 缺少字形 %q", asset.Family, string(missing)))
	}

	face := asset.Face(size)
	glyphs, _, err := face.ToPath(text)
	if err != nil {
		return fail(err)
	}
	// canvas 的字形路径以基线为原点、y 轴向上。
	p, err := geom.ParsePath(glyphs.ToSVG())
	if err != nil {
		return fail(err)
	}
	advance, err := asset.Advance(text, size)
	if err != nil {
		return fail(err)
	}
	return GlyphPath{
		Path:    p.Scale(1, -1).Translate(x, y).Round(geom.Precision),
		Start:   geom.Point{X: x, Y: y},
		Advance: advance,
	}, nil
}

// Placeholder 返回覆盖文字大致范围的矩形，用于标记无法轮廓化的文本段。
func Placeholder(text string, asset *fontcache.Asset, size, x, y float64) GlyphPath {
	width := 0.6 * size * float64(len([]rune(text)))
	ascent := 0.75 * size
	if asset != nil {
		if w, err := asset.Advance(text, size); err == nil && w > 0 {
			width = w
		}
		ascent = asset.Ascent(size)
	}
	if width <= 0 {
		width = size
	}
	return GlyphPath{
		Path:    geom.RectPath(x, y-ascent, width, ascent, 0, 0).Round(geom.Precision),
		Start:   geom.Point{X: x, Y: y},
		Advance: width,
	}
}

// Glyph 转换为设计树中的已轮廓化文字。
func (g GlyphPath) Glyph(transform string, unresolved bool) design.Glyph {
	return design.Glyph{
		D:          g.Path.String(),
		Transform:  transform,
		StartX:     g.Start.X,
		StartY:     g.Start.Y,
		Advance:    g.Advance,
		Unresolved: unresolved,
	}
}
