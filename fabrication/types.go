package fabrication

import (
	"fmt"

	"github.com/ByLCY/platecut/design"
	"github.com/ByLCY/platecut/geom"
)

// 该文件定义加工文档：只包含带加工角色的图元，供 SVG/PDF 输出共用。

// Role 是图元的加工角色，决定描边颜色、线宽与填充。
type Role string

const (
	RoleCutMetal    Role = "cut-metal"
	RoleCutWood     Role = "cut-wood"
	RoleEngrave     Role = "engrave"
	RoleEngraveFill Role = "engrave-fill"
	RoleUnresolved  Role = "unresolved" // 无法轮廓化的文字占位，红色填充以便人工检查
)

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Hex 返回 #RRGGBB 形式（大写）。
func (c Color) Hex() string { return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B) }

var (
	Red   = Color{R: 0xFF}
	Blue  = Color{B: 0xFF}
	Black = Color{}
)

// Style 是角色对应的全部输出属性。Stroke/Fill 为 nil 表示 none。
type Style struct {
	Stroke      *Color  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"` // mm
	Fill        *Color  `json:"fill,omitempty"`
}

// 加工设备识别的线宽。
const (
	HairlineWidth = 0.01
	EngraveWidth  = 0.25
)

// Style 返回角色的输出样式。
func (r Role) Style() Style {
	switch r {
	case RoleCutMetal:
		return Style{Stroke: colorPtr(Red), StrokeWidth: HairlineWidth}
	case RoleCutWood:
		return Style{Stroke: colorPtr(Blue), StrokeWidth: HairlineWidth}
	case RoleEngrave:
		return Style{Stroke: colorPtr(Black), StrokeWidth: EngraveWidth}
	case RoleEngraveFill:
		return Style{Fill: colorPtr(Black)}
	case RoleUnresolved:
		return Style{Fill: colorPtr(Red)}
	default:
		return Style{}
	}
}

func colorPtr(c Color) *Color { return &c }

// FixingRadius 是固定孔的切割半径（mm）。
const FixingRadius = 2.5

// Circle 记录圆形图元的原始参数，SVG 输出为 <circle>。
type Circle struct {
	CX float64 `json:"cx"`
	CY float64 `json:"cy"`
	R  float64 `json:"r"`
}

// Primitive 是一个带角色的几何图元。Transform 为原图层的变换，输出时原样保留。
type Primitive struct {
	Role      Role        `json:"role"`
	Path      geom.Path   `json:"path"`
	Circle    *Circle     `json:"circle,omitempty"`
	Transform geom.Matrix `json:"transform"`
	LayerID   string      `json:"layerId,omitempty"`
}

// Document 是最终的加工文档，创建后只读。
type Document struct {
	Width      float64     `json:"width"`  // mm
	Height     float64     `json:"height"` // mm
	Primitives []Primitive `json:"primitives"`
}

// Landscape 判断页面是否横向。
func (d *Document) Landscape() bool { return d.Width > d.Height }

// Drop 记录一个未进入输出的图层或其中的部分内容。
type Drop struct {
	LayerID string      `json:"layerId,omitempty"`
	Kind    design.Kind `json:"kind"`
	Reason  string      `json:"reason"`
	Err     error       `json:"-"`
}
