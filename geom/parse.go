package geom

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// 数字规则允许 "10-5"、"1.5.5" 这类 SVG 中常见的紧凑写法。
const numberPattern = `[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`

var (
	pathLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Command", Pattern: `[MmLlHhVvCcSsQqTtAaZz]`},
		{Name: "Number", Pattern: numberPattern},
		{Name: "Sep", Pattern: `[\s,]+`},
	})

	transformLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Ident", Pattern: `[A-Za-z]+`},
		{Name: "Number", Pattern: numberPattern},
		{Name: "Punct", Pattern: `[(),]`},
		{Name: "Whitespace", Pattern: `\s+`},
	})

	leadingNumber = regexp.MustCompile(`^` + numberPattern)

	pathParser = participle.MustBuild[pathData](
		participle.Lexer(pathLexer),
		participle.Elide("Sep"),
	)

	transformParser = participle.MustBuild[transformList](
		participle.Lexer(transformLexer),
		participle.Elide("Whitespace"),
	)
)

type pathData struct {
	Commands []*pathCommand `parser:"@@*"`
}

type pathCommand struct {
	Name string    `parser:"@Command"`
	Args []float64 `parser:"@Number*"`
}

type transformList struct {
	Items []*transformItem `parser:"( @@ ','? )*"`
}

type transformItem struct {
	Name string    `parser:"@Ident '('"`
	Args []float64 `parser:"( @Number ','? )* ')'"`
}

// ParsePath 解析 SVG 路径数据，并规整为只含绝对 M/L/Q/C/A/Z 指令的 Path。
func ParsePath(d string) (Path, error) {
	if strings.TrimSpace(d) == "" {
		return nil, nil
	}
	ast, err := pathParser.ParseString("", splitArcFlags(d))
	if err != nil {
		return nil, fmt.Errorf("解析路径数据失败: %w", err)
	}

	var (
		out        Path
		cur, start Point
		lastCtrl   Point
		lastCmd    byte
	)
	for _, c := range ast.Commands {
		cmd := c.Name[0]
		rel := cmd >= 'a' && cmd <= 'z'
		upper := cmd &^ 0x20
		args := c.Args
		arity := commandArity(upper)
		if arity == 0 {
			if len(args) != 0 {
				return nil, fmt.Errorf("路径指令 %c 不接受参数", cmd)
			}
			out.Close()
			cur = start
			lastCmd = 'Z'
			continue
		}
		if len(args) == 0 || len(args)%arity != 0 {
			return nil, fmt.Errorf("路径指令 %c 参数个数 %d 无效", cmd, len(args))
		}
		for i := 0; i < len(args); i += arity {
			a := args[i : i+arity]
			off := Point{}
			if rel {
				off = cur
			}
			switch upper {
			case 'M':
				cur = Point{a[0] + off.X, a[1] + off.Y}
				if i == 0 {
					out.MoveTo(cur.X, cur.Y)
					start = cur
				} else {
					out.LineTo(cur.X, cur.Y)
				}
			case 'L':
				cur = Point{a[0] + off.X, a[1] + off.Y}
				out.LineTo(cur.X, cur.Y)
			case 'H':
				cur = Point{a[0] + off.X, cur.Y}
				out.LineTo(cur.X, cur.Y)
			case 'V':
				cur = Point{cur.X, a[0] + off.Y}
				out.LineTo(cur.X, cur.Y)
			case 'C':
				c2 := Point{a[2] + off.X, a[3] + off.Y}
				end := Point{a[4] + off.X, a[5] + off.Y}
				out.CubeTo(a[0]+off.X, a[1]+off.Y, c2.X, c2.Y, end.X, end.Y)
				lastCtrl, cur = c2, end
			case 'S':
				c1 := cur
				if lastCmd == 'C' || lastCmd == 'S' {
					c1 = Point{2*cur.X - lastCtrl.X, 2*cur.Y - lastCtrl.Y}
				}
				c2 := Point{a[0] + off.X, a[1] + off.Y}
				end := Point{a[2] + off.X, a[3] + off.Y}
				out.CubeTo(c1.X, c1.Y, c2.X, c2.Y, end.X, end.Y)
				lastCtrl, cur = c2, end
			case 'Q':
				ctrl := Point{a[0] + off.X, a[1] + off.Y}
				end := Point{a[2] + off.X, a[3] + off.Y}
				out.QuadTo(ctrl.X, ctrl.Y, end.X, end.Y)
				lastCtrl, cur = ctrl, end
			case 'T':
				ctrl := cur
				if lastCmd == 'Q' || lastCmd == 'T' {
					ctrl = Point{2*cur.X - lastCtrl.X, 2*cur.Y - lastCtrl.Y}
				}
				end := Point{a[0] + off.X, a[1] + off.Y}
				out.QuadTo(ctrl.X, ctrl.Y, end.X, end.Y)
				lastCtrl, cur = ctrl, end
			case 'A':
				if !isFlag(a[3]) || !isFlag(a[4]) {
					return nil, fmt.Errorf("圆弧标志必须为 0 或 1: %g %g", a[3], a[4])
				}
				end := Point{a[5] + off.X, a[6] + off.Y}
				out.ArcTo(a[0], a[1], a[2], a[3] != 0, a[4] != 0, end.X, end.Y)
				cur = end
			}
			lastCmd = upper
		}
	}
	if len(out) > 0 && out[0].Cmd != 'M' {
		return nil, fmt.Errorf("路径数据必须以 M 指令开始")
	}
	return out, nil
}

// splitArcFlags 把 A/a 参数中的 large-arc 与 sweep 标志按单个字符拆开，
// 使压缩写法 "a5 5 0 011 1" 与 "a5 5 0 0 1 1 1" 等价。
func splitArcFlags(d string) string {
	if !strings.ContainsAny(d, "Aa") {
		return d
	}
	var b strings.Builder
	b.Grow(len(d) + 8)
	for i := 0; i < len(d); {
		c := d[i]
		b.WriteByte(c)
		i++
		if c != 'A' && c != 'a' {
			continue
		}
		for n := 0; ; n++ {
			j := i
			for j < len(d) && isPathSep(d[j]) {
				j++
			}
			if j == len(d) {
				break
			}
			var tok string
			if pos := n % 7; pos == 3 || pos == 4 {
				if d[j] != '0' && d[j] != '1' {
					break
				}
				tok = d[j : j+1]
			} else if tok = leadingNumber.FindString(d[j:]); tok == "" {
				break
			}
			b.WriteByte(' ')
			b.WriteString(tok)
			i = j + len(tok)
		}
	}
	return b.String()
}

func isFlag(v float64) bool { return v == 0 || v == 1 }

func isPathSep(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', ',':
		return true
	}
	return false
}

func commandArity(cmd byte) int {
	switch cmd {
	case 'M', 'L', 'T':
		return 2
	case 'H', 'V':
		return 1
	case 'C':
		return 6
	case 'S', 'Q':
		return 4
	case 'A':
		return 7
	default:
		return 0
	}
}

// ParseTransform 解析 SVG transform 列表（matrix/translate/scale/rotate/skewX/skewY）。
// 空字符串返回单位矩阵。
func ParseTransform(s string) (Matrix, error) {
	if strings.TrimSpace(s) == "" {
		return Identity, nil
	}
	ast, err := transformParser.ParseString("", s)
	if err != nil {
		return Identity, fmt.Errorf("解析 transform %q 失败: %w", s, err)
	}
	m := Identity
	for _, it := range ast.Items {
		step, err := transformStep(it.Name, it.Args)
		if err != nil {
			return Identity, err
		}
		m = m.Mul(step)
	}
	return m, nil
}

func transformStep(name string, a []float64) (Matrix, error) {
	bad := func() (Matrix, error) {
		return Identity, fmt.Errorf("transform %s 参数个数 %d 无效", name, len(a))
	}
	switch name {
	case "matrix":
		if len(a) != 6 {
			return bad()
		}
		return Matrix{a[0], a[1], a[2], a[3], a[4], a[5]}, nil
	case "translate":
		switch len(a) {
		case 1:
			return Translate(a[0], 0), nil
		case 2:
			return Translate(a[0], a[1]), nil
		}
		return bad()
	case "scale":
		switch len(a) {
		case 1:
			return Scale(a[0], a[0]), nil
		case 2:
			return Scale(a[0], a[1]), nil
		}
		return bad()
	case "rotate":
		switch len(a) {
		case 1:
			return Rotate(a[0]), nil
		case 3:
			return Translate(a[1], a[2]).Mul(Rotate(a[0])).Mul(Translate(-a[1], -a[2])), nil
		}
		return bad()
	case "skewX":
		if len(a) != 1 {
			return bad()
		}
		return SkewX(a[0]), nil
	case "skewY":
		if len(a) != 1 {
			return bad()
		}
		return SkewY(a[0]), nil
	default:
		return Identity, fmt.Errorf("不支持的 transform 函数 %q", name)
	}
}
