package markup

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// node 是按文档顺序保存子节点的通用 XML 树；name 为空表示文本节点。
type node struct {
	name     string
	attrs    map[string]string
	children []*node
	text     string
}

// parse 宽松地解析 XML/HTML 片段，允许 HTML 实体与未闭合的空元素。
func parse(r io.Reader) (*node, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity

	root := &node{name: "#document"}
	stack := []*node{root}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("解析标记失败: %w", err)
		}
		top := stack[len(stack)-1]
		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{name: strings.ToLower(t.Name.Local), attrs: make(map[string]string, len(t.Attr))}
			for _, a := range t.Attr {
				n.attrs[a.Name.Local] = a.Value
			}
			top.children = append(top.children, n)
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			top.children = append(top.children, &node{text: string(t)})
		}
	}
	return root, nil
}

func (n *node) isElement() bool { return n.name != "" }

func (n *node) attr(name string) string { return strings.TrimSpace(n.attrs[name]) }

func (n *node) id() string { return n.attr("id") }

func (n *node) hasClass(class string) bool {
	for _, key := range []string{"class", "className"} {
		for _, c := range strings.Fields(n.attrs[key]) {
			if c == class {
				return true
			}
		}
	}
	return false
}

// prop 读取展示属性；style 中的声明优先于同名属性。
func (n *node) prop(name string) string {
	for _, decl := range strings.Split(n.attrs["style"], ";") {
		k, v, ok := strings.Cut(decl, ":")
		if ok && strings.EqualFold(strings.TrimSpace(k), name) {
			return strings.TrimSpace(v)
		}
	}
	return n.attr(name)
}

// find 深度优先查找第一个指定名称的元素，并返回从 n 的子节点到该元素路径上的 transform。
func (n *node) find(name string) (*node, []string) {
	for _, c := range n.children {
		if !c.isElement() {
			continue
		}
		if c.name == name {
			return c, appendTransform(nil, c)
		}
		if hit, chain := c.find(name); hit != nil {
			return hit, append(appendTransform(nil, c), chain...)
		}
	}
	return nil, nil
}

// content 拼接所有后代文本。
func (n *node) content() string {
	if !n.isElement() {
		return n.text
	}
	var b strings.Builder
	for _, c := range n.children {
		b.WriteString(c.content())
	}
	return b.String()
}

// appendTransform 返回追加了 n 自身 transform 的新切片，不修改 chain。
func appendTransform(chain []string, n *node) []string {
	t := n.attr("transform")
	if t == "" {
		return chain
	}
	out := make([]string, len(chain), len(chain)+1)
	copy(out, chain)
	return append(out, t)
}

func joinTransforms(chain []string) string { return strings.Join(chain, " ") }
