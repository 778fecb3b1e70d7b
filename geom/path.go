package geom

import (
	"math"
	"strconv"
	"strings"
)

// Precision 是输出路径坐标保留的小数位数，在加工尺度下不会造成可见损失。
const Precision = 2

// Segment 是绝对坐标下的一条路径指令。
// Cmd 取值 'M' 'L' 'Q' 'C' 'A' 'Z'，Args 的个数分别为 2、2、4、6、7、0。
// 圆弧参数顺序与 SVG 一致：rx ry rotation large-arc sweep x y。
type Segment struct {
	Cmd  byte      `json:"cmd"`
	Args []float64 `json:"args,omitempty"`
}

// Path 是一组只包含绝对指令的路径数据。
type Path []Segment

func (p *Path) MoveTo(x, y float64) { *p = append(*p, Segment{Cmd: 'M', Args: []float64{x, y}}) }
func (p *Path) LineTo(x, y float64) { *p = append(*p, Segment{Cmd: 'L', Args: []float64{x, y}}) }

func (p *Path) QuadTo(cx, cy, x, y float64) {
	*p = append(*p, Segment{Cmd: 'Q', Args: []float64{cx, cy, x, y}})
}

func (p *Path) CubeTo(c1x, c1y, c2x, c2y, x, y float64) {
	*p = append(*p, Segment{Cmd: 'C', Args: []float64{c1x, c1y, c2x, c2y, x, y}})
}

func (p *Path) ArcTo(rx, ry, rot float64, large, sweep bool, x, y float64) {
	*p = append(*p, Segment{Cmd: 'A', Args: []float64{rx, ry, rot, boolNum(large), boolNum(sweep), x, y}})
}

func (p *Path) Close() { *p = append(*p, Segment{Cmd: 'Z'}) }

func (p Path) Empty() bool { return len(p) == 0 }

// Clone 返回深拷贝。
func (p Path) Clone() Path {
	out := make(Path, len(p))
	for i, s := range p {
		out[i] = Segment{Cmd: s.Cmd, Args: append([]float64(nil), s.Args...)}
	}
	return out
}

// Translate 平移整条路径。
func (p Path) Translate(dx, dy float64) Path {
	out := p.Clone()
	for _, s := range out {
		switch s.Cmd {
		case 'A':
			s.Args[5] += dx
			s.Args[6] += dy
		case 'Z':
		default:
			for i := 0; i+1 < len(s.Args); i += 2 {
				s.Args[i] += dx
				s.Args[i+1] += dy
			}
		}
	}
	return out
}

// Scale 以原点为中心缩放。圆弧仅在 rotation 为 0 或等比缩放时保持精确。
func (p Path) Scale(sx, sy float64) Path {
	out := p.Clone()
	for _, s := range out {
		switch s.Cmd {
		case 'A':
			s.Args[0] *= math.Abs(sx)
			s.Args[1] *= math.Abs(sy)
			if sx*sy < 0 {
				s.Args[2] = -s.Args[2]
				s.Args[4] = 1 - s.Args[4]
			}
			s.Args[5] *= sx
			s.Args[6] *= sy
		case 'Z':
		default:
			for i := 0; i+1 < len(s.Args); i += 2 {
				s.Args[i] *= sx
				s.Args[i+1] *= sy
			}
		}
	}
	return out
}

// Round 将所有数值舍入到 digits 位小数，圆弧标志保持不变。
func (p Path) Round(digits int) Path {
	out := p.Clone()
	for _, s := range out {
		for i := range s.Args {
			if s.Cmd == 'A' && (i == 3 || i == 4) {
				continue
			}
			s.Args[i] = roundTo(s.Args[i], digits)
		}
	}
	return out
}

// Rect 是轴对齐包围盒。
type Rect struct {
	X0, Y0, X1, Y1 float64
}

func (r Rect) Width() float64  { return r.X1 - r.X0 }
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }
func (r Rect) CenterX() float64 {
	return (r.X0 + r.X1) / 2
}

// Bounds 返回包含所有端点与控制点的包围盒（控制点凸包性质保证其覆盖曲线），
// 圆弧按实际极值计算。空路径返回零值与 false。
func (p Path) Bounds() (Rect, bool) {
	r := Rect{X0: math.Inf(1), Y0: math.Inf(1), X1: math.Inf(-1), Y1: math.Inf(-1)}
	found := false
	add := func(pt Point) {
		found = true
		r.X0 = math.Min(r.X0, pt.X)
		r.Y0 = math.Min(r.Y0, pt.Y)
		r.X1 = math.Max(r.X1, pt.X)
		r.Y1 = math.Max(r.Y1, pt.Y)
	}
	var cur, start Point
	for _, s := range p {
		switch s.Cmd {
		case 'A':
			end := Point{s.Args[5], s.Args[6]}
			for _, pt := range arcExtrema(cur, s.Args) {
				add(pt)
			}
			add(end)
			cur = end
		case 'Z':
			cur = start
		default:
			for i := 0; i+1 < len(s.Args); i += 2 {
				add(Point{s.Args[i], s.Args[i+1]})
			}
			cur = Point{s.Args[len(s.Args)-2], s.Args[len(s.Args)-1]}
			if s.Cmd == 'M' {
				start = cur
			}
		}
	}
	if !found {
		return Rect{}, false
	}
	return r, true
}

// arcExtrema 返回圆弧上 x、y 取极值的点，按 SVG 端点参数化换算到中心参数化。
func arcExtrema(from Point, a []float64) []Point {
	rx, ry := math.Abs(a[0]), math.Abs(a[1])
	to := Point{a[5], a[6]}
	if rx == 0 || ry == 0 || from == to {
		return nil
	}
	large, sweep := a[3] != 0, a[4] != 0
	sinPhi, cosPhi := math.Sincos(a[2] * math.Pi / 180)

	dx, dy := (from.X-to.X)/2, (from.Y-to.Y)/2
	x1 := cosPhi*dx + sinPhi*dy
	y1 := -sinPhi*dx + cosPhi*dy
	if l := x1*x1/(rx*rx) + y1*y1/(ry*ry); l > 1 {
		rx *= math.Sqrt(l)
		ry *= math.Sqrt(l)
	}
	num := rx*rx*ry*ry - rx*rx*y1*y1 - ry*ry*x1*x1
	den := rx*rx*y1*y1 + ry*ry*x1*x1
	coef := math.Sqrt(math.Max(0, num/den))
	if large == sweep {
		coef = -coef
	}
	cxp, cyp := coef*rx*y1/ry, -coef*ry*x1/rx
	cx := cosPhi*cxp - sinPhi*cyp + (from.X+to.X)/2
	cy := sinPhi*cxp + cosPhi*cyp + (from.Y+to.Y)/2

	theta1 := math.Atan2((y1-cyp)/ry, (x1-cxp)/rx)
	theta2 := math.Atan2((-y1-cyp)/ry, (-x1-cxp)/rx)
	delta := theta2 - theta1
	if sweep && delta < 0 {
		delta += 2 * math.Pi
	} else if !sweep && delta > 0 {
		delta -= 2 * math.Pi
	}

	at := func(t float64) Point {
		sinT, cosT := math.Sincos(t)
		return Point{
			X: cx + rx*cosPhi*cosT - ry*sinPhi*sinT,
			Y: cy + rx*sinPhi*cosT + ry*cosPhi*sinT,
		}
	}
	within := func(t float64) bool {
		d := t - theta1
		if delta >= 0 {
			d = math.Mod(math.Mod(d, 2*math.Pi)+2*math.Pi, 2*math.Pi)
			return d <= delta
		}
		d = math.Mod(math.Mod(-d, 2*math.Pi)+2*math.Pi, 2*math.Pi)
		return d <= -delta
	}

	tx := math.Atan2(-ry*sinPhi, rx*cosPhi)
	ty := math.Atan2(ry*cosPhi, rx*sinPhi)
	var out []Point
	for _, t := range []float64{tx, tx + math.Pi, ty, ty + math.Pi} {
		if within(t) {
			out = append(out, at(t))
		}
	}
	return out
}

// String 输出 SVG 路径数据，数值保留 Precision 位小数。
func (p Path) String() string {
	var b strings.Builder
	for i, s := range p {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(s.Cmd)
		for j, v := range s.Args {
			if j > 0 {
				b.WriteByte(' ')
			}
			if s.Cmd == 'A' && (j == 3 || j == 4) {
				b.WriteString(strconv.Itoa(int(v)))
				continue
			}
			b.WriteString(formatNum(v, Precision))
		}
	}
	return b.String()
}

func boolNum(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

// RoundNum 将单个数值舍入到 digits 位小数。
func RoundNum(v float64, digits int) float64 { return roundTo(v, digits) }

func roundTo(v float64, digits int) float64 {
	pow := math.Pow(10, float64(digits))
	r := math.Round(v*pow) / pow
	if r == 0 {
		return 0 // 去掉 -0
	}
	return r
}

func formatNum(v float64, digits int) string {
	return strconv.FormatFloat(roundTo(v, digits), 'f', -1, 64)
}

// MarshalText 以路径数据字符串编码，便于 JSON 调试输出。
func (p Path) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText 解析路径数据字符串。
func (p *Path) UnmarshalText(b []byte) error {
	parsed, err := ParsePath(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
