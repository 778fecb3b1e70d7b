package markup

import (
	"strings"

	"github.com/ByLCY/platecut/design"
)

// textStyle 是沿元素树继承的文字属性。
type textStyle struct {
	family string
	size   float64
	anchor design.Anchor
}

// inherit 读取 n 上显式声明的字体属性并覆盖继承值。
// 字号中的 "px" 按文档单位处理，无法解析的取值被忽略。
func (s textStyle) inherit(n *node) textStyle {
	if v := n.prop("font-family"); v != "" {
		s.family = v
	}
	if v, ok := design.ParseMM(n.prop("font-size")); ok && v > 0 {
		s.size = v
	}
	if v := n.prop("text-anchor"); v != "" {
		s.anchor = design.ParseAnchor(v)
	}
	return s
}

// ParseText 解析文本服务返回的标记片段（若干 <text>/<tspan>，可嵌套在 <g> 中）。
func ParseText(fragment string) ([]design.Text, error) {
	root, err := parse(strings.NewReader("<g>" + fragment + "</g>"))
	if err != nil {
		return nil, err
	}
	return collectTexts(root, textStyle{}, nil), nil
}

// collectTexts 按文档顺序收集 n 之下的 <text>；中间分组的 transform 与字体属性向下传递。
func collectTexts(n *node, st textStyle, chain []string) []design.Text {
	var out []design.Text
	for _, c := range n.children {
		if !c.isElement() || skipped[c.name] {
			continue
		}
		if c.name == "text" {
			out = append(out, textOf(c, st, chain))
			continue
		}
		out = append(out, collectTexts(c, st.inherit(c), appendTransform(chain, c))...)
	}
	return out
}

func textOf(n *node, inherited textStyle, chain []string) design.Text {
	st := inherited.inherit(n)
	t := design.Text{
		X:          optional(n, "x"),
		Y:          optional(n, "y"),
		FontFamily: st.family,
		FontSize:   st.size,
		Anchor:     st.anchor,
		Transform:  joinTransforms(appendTransform(chain, n)),
	}

	hasSpans := false
	for _, c := range n.children {
		if c.name == "tspan" {
			hasSpans = true
			break
		}
	}
	if !hasSpans {
		t.Content = strings.TrimSpace(n.content())
		return t
	}

	for _, c := range n.children {
		switch {
		case !c.isElement():
			if s := collapse(c.text); s != "" {
				t.Runs = append(t.Runs, design.TextRun{Content: s})
			}
		case c.name == "tspan":
			t.Runs = append(t.Runs, runsOf(c, textStyle{})...)
		}
	}
	t.Runs = trimBlankRuns(t.Runs)
	return t
}

// runsOf 展开（可能嵌套的）tspan。只记录 tspan 上显式设置的字体属性，其余由所在 Text 继承。
func runsOf(n *node, outer textStyle) []design.TextRun {
	st := outer.inherit(n)
	run := design.TextRun{
		X:          optional(n, "x"),
		Y:          optional(n, "y"),
		DX:         number(n.attr("dx")),
		DY:         number(n.attr("dy")),
		FontFamily: st.family,
		FontSize:   st.size,
		Anchor:     st.anchor,
		Transform:  n.attr("transform"),
	}

	var (
		out  []design.TextRun
		text strings.Builder
	)
	flush := func() {
		s := collapse(text.String())
		text.Reset()
		// 位置属性属于第一个可见字符，纯空白段不占用它
		if s == " " && (run.X != nil || run.Y != nil || run.DX != 0 || run.DY != 0) {
			return
		}
		if s != "" {
			r := run
			r.Content = s
			out = append(out, r)
			// 位置只作用于第一个文本段
			run.X, run.Y, run.DX, run.DY = nil, nil, 0, 0
		}
	}
	for _, c := range n.children {
		switch {
		case !c.isElement():
			text.WriteString(c.text)
		case c.name == "tspan":
			flush()
			out = append(out, runsOf(c, st)...)
		}
	}
	flush()
	return out
}

// collapse 将连续的 XML 空白折叠为一个空格；首尾空格保留，用于分隔相邻文本段。
func collapse(s string) string {
	var (
		b     strings.Builder
		space bool
	)
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r':
			space = true
		default:
			if space {
				b.WriteByte(' ')
				space = false
			}
			b.WriteRune(r)
		}
	}
	if space {
		b.WriteByte(' ')
	}
	return b.String()
}

// trimBlankRuns 去掉 <text> 开头与结尾的纯空白文本段（缩进产生的换行）。
func trimBlankRuns(runs []design.TextRun) []design.TextRun {
	blank := func(r design.TextRun) bool {
		return r.Content == " " && r.X == nil && r.Y == nil && r.DX == 0 && r.DY == 0
	}
	for len(runs) > 0 && blank(runs[0]) {
		runs = runs[1:]
	}
	for len(runs) > 0 && blank(runs[len(runs)-1]) {
		runs = runs[:len(runs)-1]
	}
	return runs
}

func optional(n *node, name string) *float64 {
	if n.attr(name) == "" {
		return nil
	}
	return design.Float(number(n.attr(name)))
}
