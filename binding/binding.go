// Package binding 将批量订单数据填入设计中的文本占位符 ${path}，例如 ${name}、${dates[0]}。
package binding

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ByLCY/platecut/design"
)

var placeholder = regexp.MustCompile(`\$\{\s*([^}]+?)\s*\}`)

// Interpolate 替换 text 中的占位符，返回结果与未能解析的路径。
// 无法解析的占位符原样保留。
func Interpolate(text string, data any) (string, []string) {
	if data == nil || !strings.Contains(text, "${") {
		return text, nil
	}
	var missing []string
	out := placeholder.ReplaceAllStringFunc(text, func(match string) string {
		path := placeholder.FindStringSubmatch(match)[1]
		v, ok := lookup(data, path)
		if !ok {
			missing = append(missing, path)
			return match
		}
		return format(v)
	})
	return out, missing
}

// Document 返回填入数据后的文档副本，原文档不变；只替换文本图层中的内容。
func Document(doc design.Document, data any) (design.Document, []string) {
	out := doc
	out.Layers = make([]design.Layer, len(doc.Layers))
	var missing []string
	bind := func(s string) string {
		r, m := Interpolate(s, data)
		missing = append(missing, m...)
		return r
	}
	for i, l := range doc.Layers {
		if l.Kind == design.KindTextGroup && len(l.Texts) > 0 {
			texts := make([]design.Text, len(l.Texts))
			for j, t := range l.Texts {
				t.Content = bind(t.Content)
				if len(t.Runs) > 0 {
					runs := make([]design.TextRun, len(t.Runs))
					for k, r := range t.Runs {
						r.Content = bind(r.Content)
						runs[k] = r
					}
					t.Runs = runs
				}
				texts[j] = t
			}
			l.Texts = texts
		}
		out.Layers[i] = l
	}
	return out, missing
}

// lookup 沿 "a.b[0].c" 形式的路径查找值。
func lookup(data any, path string) (any, bool) {
	segments := strings.FieldsFunc(path, func(r rune) bool { return r == '.' || r == '[' || r == ']' })
	if len(segments) == 0 {
		return nil, false
	}
	cur := data
	for _, seg := range segments {
		switch c := cur.(type) {
		case map[string]any:
			v, ok := c[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(c) {
				return nil, false
			}
			cur = c[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

func format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
