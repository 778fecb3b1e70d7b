package design

import (
	"fmt"
	"strings"

	"github.com/ByLCY/platecut/geom"
)

// 该文件定义设计文档的数据模型，供导入、导出与调试共用。
// 坐标系与物理尺寸一一对应：1 个单位 = 1 mm。

// Document 是交互式设计生成的铭牌文档，导出过程中只读。
type Document struct {
	Width  float64 `json:"width" yaml:"width"`   // mm
	Height float64 `json:"height" yaml:"height"` // mm
	Layers []Layer `json:"layers" yaml:"layers"`
}

// Physical 描述与文档一同传入的物理参数。
type Physical struct {
	Width     float64 `json:"width" yaml:"width"`
	Height    float64 `json:"height" yaml:"height"`
	Wood      bool    `json:"wood" yaml:"wood"`
	WoodExtra float64 `json:"woodExtra" yaml:"woodExtra"` // 木板在每个方向上额外增加的尺寸（mm）
	Material  string  `json:"material,omitempty" yaml:"material,omitempty"`
}

// DefaultWoodExtra 是木质底板在宽高上各自增加的尺寸。
const DefaultWoodExtra = 25.0

// Extra 返回底板带来的额外尺寸；未启用木板时为 0。
func (p Physical) Extra() float64 {
	if !p.Wood {
		return 0
	}
	if p.WoodExtra <= 0 {
		return DefaultWoodExtra
	}
	return p.WoodExtra
}

// TotalSize 返回输出文档的物理宽高（mm）。
func (p Physical) TotalSize() (float64, float64) {
	return p.Width + p.Extra(), p.Height + p.Extra()
}

// Validate 检查全局前置条件：物理宽高必须为正数。
func (p Physical) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return &OpError{
			Op:      "design.validate",
			Kind:    KindMissingDimensions,
			Subject: fmt.Sprintf("%gx%g", p.Width, p.Height),
			Err:     ErrMissingDimensions,
		}
	}
	return nil
}

// Kind 是图层的语义角色标记。
type Kind string

const (
	KindCutOutline     Kind = "cut-outline"
	KindBackingOutline Kind = "backing-outline"
	KindEngravedBorder Kind = "engraved-border"
	KindFixingMark     Kind = "fixing-mark"
	KindVisualEffect   Kind = "visual-effect"
	KindTextGroup      Kind = "text-group"
	KindOutlinedText   Kind = "outlined-text" // 已转换为字形路径的文本
	KindDecoration     Kind = "decoration"
)

// Layer 是设计树中的一个图层。不同 Kind 使用不同字段：
//   - CutOutline / EngravedBorder: Shape
//   - BackingOutline: Children（第一个为底板轮廓，其余为装饰）
//   - FixingMark: Center，Artwork 仅用于屏幕展示
//   - TextGroup: Transform + Texts
//   - OutlinedText: Transform + Glyphs
type Layer struct {
	ID        string            `json:"id,omitempty" yaml:"id,omitempty"`
	Kind      Kind              `json:"kind" yaml:"kind"`
	Shape     *Shape            `json:"shape,omitempty" yaml:"shape,omitempty"`
	Children  []Shape           `json:"children,omitempty" yaml:"children,omitempty"`
	Center    *geom.Point       `json:"center,omitempty" yaml:"center,omitempty"`
	Artwork   []Shape           `json:"artwork,omitempty" yaml:"artwork,omitempty"`
	Transform string            `json:"transform,omitempty" yaml:"transform,omitempty"`
	Texts     []Text            `json:"texts,omitempty" yaml:"texts,omitempty"`
	Glyphs    []Glyph           `json:"glyphs,omitempty" yaml:"glyphs,omitempty"`
	Attrs     map[string]string `json:"attrs,omitempty" yaml:"attrs,omitempty"` // filter/opacity/style 等展示属性
}

// ShapeType 枚举可识别的基本图形。
type ShapeType string

const (
	ShapeRect    ShapeType = "rect"
	ShapeEllipse ShapeType = "ellipse"
	ShapeCircle  ShapeType = "circle"
	ShapePath    ShapeType = "path"
)

// Shape 是一个基本几何图形，字段含义与同名 SVG 属性一致。
type Shape struct {
	Type      ShapeType `json:"type" yaml:"type"`
	X         float64   `json:"x,omitempty" yaml:"x,omitempty"`
	Y         float64   `json:"y,omitempty" yaml:"y,omitempty"`
	Width     float64   `json:"width,omitempty" yaml:"width,omitempty"`
	Height    float64   `json:"height,omitempty" yaml:"height,omitempty"`
	RX        float64   `json:"rx,omitempty" yaml:"rx,omitempty"`
	RY        float64   `json:"ry,omitempty" yaml:"ry,omitempty"`
	CX        float64   `json:"cx,omitempty" yaml:"cx,omitempty"`
	CY        float64   `json:"cy,omitempty" yaml:"cy,omitempty"`
	R         float64   `json:"r,omitempty" yaml:"r,omitempty"`
	D         string    `json:"d,omitempty" yaml:"d,omitempty"`
	Transform string    `json:"transform,omitempty" yaml:"transform,omitempty"`
}

// Path 将图形转换为路径；缺少必要几何信息时返回 ErrMalformedLayer。
func (s Shape) Path() (geom.Path, error) {
	malformed := func(reason string) (geom.Path, error) {
		return nil, &OpError{Op: "design.shape", Kind: KindMalformedLayer, Subject: string(s.Type), Err: fmt.Errorf("%w: %s", ErrMalformedLayer, reason)}
	}
	var p geom.Path
	switch s.Type {
	case ShapeRect:
		if s.Width <= 0 || s.Height <= 0 {
			return malformed("矩形宽高必须为正数")
		}
		p = geom.RectPath(s.X, s.Y, s.Width, s.Height, s.RX, s.RY)
	case ShapeEllipse:
		if s.RX <= 0 || s.RY <= 0 {
			return malformed("椭圆半径必须为正数")
		}
		p = geom.EllipsePath(s.CX, s.CY, s.RX, s.RY)
	case ShapeCircle:
		if s.R <= 0 {
			return malformed("圆半径必须为正数")
		}
		p = geom.CirclePath(s.CX, s.CY, s.R)
	case ShapePath:
		parsed, err := geom.ParsePath(s.D)
		if err != nil {
			return malformed(err.Error())
		}
		if parsed.Empty() {
			return malformed("路径数据为空")
		}
		p = parsed
	default:
		return malformed(fmt.Sprintf("未知图形类型 %q", s.Type))
	}
	return p, nil
}

// Anchor 对应 SVG text-anchor。
type Anchor string

const (
	AnchorStart  Anchor = "start"
	AnchorMiddle Anchor = "middle"
	AnchorEnd    Anchor = "end"
)

// ParseAnchor 规范化 text-anchor 取值，未知值按 start 处理。
func ParseAnchor(v string) Anchor {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "middle":
		return AnchorMiddle
	case "end":
		return AnchorEnd
	default:
		return AnchorStart
	}
}

// Text 对应一个 <text> 元素。没有 Runs 时 Content 作为唯一的隐式文本段。
type Text struct {
	Content    string    `json:"content,omitempty" yaml:"content,omitempty"`
	X          *float64  `json:"x,omitempty" yaml:"x,omitempty"`
	Y          *float64  `json:"y,omitempty" yaml:"y,omitempty"`
	FontFamily string    `json:"fontFamily,omitempty" yaml:"fontFamily,omitempty"`
	FontSize   float64   `json:"fontSize,omitempty" yaml:"fontSize,omitempty"`
	Anchor     Anchor    `json:"anchor,omitempty" yaml:"anchor,omitempty"`
	Transform  string    `json:"transform,omitempty" yaml:"transform,omitempty"`
	Runs       []TextRun `json:"runs,omitempty" yaml:"runs,omitempty"`
}

// TextRun 对应一个 <tspan>；未设置的属性继承自所在的 Text。
type TextRun struct {
	Content    string   `json:"content" yaml:"content"`
	X          *float64 `json:"x,omitempty" yaml:"x,omitempty"`
	Y          *float64 `json:"y,omitempty" yaml:"y,omitempty"`
	DX         float64  `json:"dx,omitempty" yaml:"dx,omitempty"`
	DY         float64  `json:"dy,omitempty" yaml:"dy,omitempty"`
	FontFamily string   `json:"fontFamily,omitempty" yaml:"fontFamily,omitempty"`
	FontSize   float64  `json:"fontSize,omitempty" yaml:"fontSize,omitempty"`
	Anchor     Anchor   `json:"anchor,omitempty" yaml:"anchor,omitempty"`
	Transform  string   `json:"transform,omitempty" yaml:"transform,omitempty"`
}

// DefaultFontSize 与屏幕端一致：缺省字号 12 个文档单位。
const DefaultFontSize = 12.0

// EffectiveRuns 返回继承属性后的文本段列表。
func (t Text) EffectiveRuns() []TextRun {
	runs := t.Runs
	if len(runs) == 0 {
		runs = []TextRun{{Content: t.Content}}
	}
	out := make([]TextRun, 0, len(runs))
	for _, r := range runs {
		if r.FontFamily == "" {
			r.FontFamily = t.FontFamily
		}
		if r.FontSize <= 0 {
			r.FontSize = t.FontSize
		}
		if r.FontSize <= 0 {
			r.FontSize = DefaultFontSize
		}
		if r.Anchor == "" {
			r.Anchor = t.Anchor
		}
		if r.Anchor == "" {
			r.Anchor = AnchorStart
		}
		out = append(out, r)
	}
	return out
}

// Glyph 是已经轮廓化的一段文字。
type Glyph struct {
	D          string  `json:"d" yaml:"d"`
	Transform  string  `json:"transform,omitempty" yaml:"transform,omitempty"`
	StartX     float64 `json:"startX" yaml:"startX"`
	StartY     float64 `json:"startY" yaml:"startY"`
	Advance    float64 `json:"advance" yaml:"advance"`
	Unresolved bool    `json:"unresolved,omitempty" yaml:"unresolved,omitempty"` // 无法轮廓化，D 为红色占位矩形
}

// Float 便于构造可选坐标。
func Float(v float64) *float64 { return &v }
