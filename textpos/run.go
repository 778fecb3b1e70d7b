package textpos

import (
	"strings"

	"github.com/ByLCY/platecut/design"
	"github.com/ByLCY/platecut/fontcache"
)

// Run 是一个已经解析好字体与继承属性的文本段。
type Run struct {
	design.TextRun
	ParentX float64 // 所在 <text> 的 x，未设置时为 0
	ParentY float64
	Asset   *fontcache.Asset
	Index   int // 在所在 <text> 中的下标
}

// explicitX 返回文本段自身或父元素提供的 x。
func (r Run) explicitX() (float64, bool) {
	if r.X != nil {
		return *r.X, true
	}
	return r.ParentX, false
}

func (r Run) explicitY() (float64, bool) {
	if r.Y != nil {
		return *r.Y, true
	}
	return r.ParentY, false
}

// Runs 展开 <text> 的文本段：继承字体族、字号与锚点，按 collapseSpace 折叠空白，
// 并从 fonts 中取出对应字体。
func Runs(t design.Text, fonts *fontcache.Set) []Run {
	var px, py float64
	if t.X != nil {
		px = *t.X
	}
	if t.Y != nil {
		py = *t.Y
	}
	effective := t.EffectiveRuns()
	runs := make([]Run, 0, len(effective))
	for i, tr := range effective {
		runs = append(runs, Run{
			Index:   i,
			TextRun: tr,
			ParentX: px,
			ParentY: py,
			Asset:   fonts.Get(fontcache.FirstFamily(tr.FontFamily)),
		})
	}
	collapseSpace(runs)
	return runs
}

// collapseSpace 按 SVG 默认空白规则处理整个 <text>：换行与制表符视为空格，
// 连续空格（跨文本段）只保留一个，去掉整段文字首尾的空格。不间断空格保留。
func collapseSpace(runs []Run) {
	prevSpace := true
	for i := range runs {
		var b strings.Builder
		for _, r := range runs[i].Content {
			switch r {
			case ' ', '\t', '\n', '\r':
				if !prevSpace {
					b.WriteByte(' ')
				}
				prevSpace = true
			default:
				b.WriteRune(r)
				prevSpace = false
			}
		}
		runs[i].Content = b.String()
	}
	for i := len(runs) - 1; i >= 0; i-- {
		if runs[i].Content == "" {
			continue
		}
		runs[i].Content = strings.TrimSuffix(runs[i].Content, " ")
		if runs[i].Content != "" {
			break
		}
	}
}

// Families 返回文本中引用到的全部字体族（首选族名）。
func Families(t design.Text) []string {
	var out []string
	for _, r := range t.EffectiveRuns() {
		if f := fontcache.FirstFamily(r.FontFamily); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func anchorFactor(a design.Anchor) float64 {
	switch a {
	case design.AnchorMiddle:
		return 0.5
	case design.AnchorEnd:
		return 1
	default:
		return 0
	}
}
