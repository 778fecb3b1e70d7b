package textpos

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"

	"github.com/ByLCY/platecut/geom"
)

// ErrShapingUnavailable 表示该整形器无法为此文本段给出位置，应交给下一个整形器。
var ErrShapingUnavailable = errors.New("shaping unavailable")

// Shaper 计算文本段第一个字形的起点（基线左端，文档单位 mm）。
// siblings 是 run 所在 <text> 的全部文本段，按文档顺序排列，run.Index 为其下标。
type Shaper interface {
	StartPosition(run Run, siblings []Run) (geom.Point, error)
}

// HarfbuzzShaper 使用 go-text 的 harfbuzz 实现整形，计入字偶距与字形偏移。
// 未设置 x 的文本段接在前一个兄弟段的整形终点之后，锚点作用于整个文本块。
type HarfbuzzShaper struct {
	mu sync.Mutex
	hb shaping.HarfbuzzShaper
}

// NewHarfbuzzShaper 创建精确整形器，可并发使用。
func NewHarfbuzzShaper() *HarfbuzzShaper { return &HarfbuzzShaper{} }

type shaped struct {
	advance float64
	offset  float64 // 第一个字形的 x 偏移
}

func (s *HarfbuzzShaper) shape(r Run) (shaped, error) {
	if r.Asset == nil || r.Asset.ShapingFace() == nil {
		return shaped{}, ErrShapingUnavailable
	}
	runes := []rune(r.Content)
	if len(runes) == 0 {
		return shaped{}, nil
	}
	// 以 upem 作为字号整形，结果即字体单位，避免 26.6 定点数的精度损失。
	upem := r.Asset.UnitsPerEm()
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      r.Asset.ShapingFace(),
		Size:      fixed.I(int(upem)),
		Script:    language.Latin,
		Language:  language.NewLanguage("en"),
	}
	s.mu.Lock()
	out := s.hb.Shape(input)
	s.mu.Unlock()

	scale := r.FontSize / upem
	res := shaped{advance: float64(out.Advance) / 64 * scale}
	if len(out.Glyphs) > 0 {
		res.offset = float64(out.Glyphs[0].XOffset) / 64 * scale
	}
	return res, nil
}

// StartPosition 实现 Shaper。
func (s *HarfbuzzShaper) StartPosition(run Run, siblings []Run) (geom.Point, error) {
	all, idx := withRun(run, siblings)

	// 文本块从最近一个显式设置 x 的文本段（或第一个文本段）开始，到下一个显式 x 之前结束。
	first := idx
	for first > 0 && all[first].X == nil {
		first--
	}
	last := idx
	for last+1 < len(all) && all[last+1].X == nil {
		last++
	}

	var pen, start float64
	for i := first; i <= last; i++ {
		sh, err := s.shape(all[i])
		if err != nil {
			return geom.Point{}, err
		}
		pen += all[i].DX
		if i == idx {
			start = pen + sh.offset
		}
		pen += sh.advance
	}

	originX, _ := all[first].explicitX()
	return geom.Point{
		X: originX - anchorFactor(all[first].Anchor)*pen + start,
		Y: flowY(all, idx),
	}, nil
}

// withRun 返回包含 run 的兄弟段列表及 run 的下标。
func withRun(run Run, siblings []Run) ([]Run, int) {
	if run.Index < len(siblings) {
		return siblings, run.Index
	}
	return append(append(make([]Run, 0, len(siblings)+1), siblings...), run), len(siblings)
}

// flowY 返回最近一次显式 y（否则为父元素的 y）加上累积的 dy。
func flowY(all []Run, idx int) float64 {
	y := 0.0
	for i := 0; i <= idx; i++ {
		if v, ok := all[i].explicitY(); ok || i == 0 {
			y = v
		}
		y += all[i].DY
	}
	return y
}

// MetricShaper 只用字体的 hmtx 宽度计算位置，不做字偶距也不考虑兄弟段的排版流。
type MetricShaper struct{}

// StartPosition 实现 Shaper。
func (MetricShaper) StartPosition(run Run, _ []Run) (geom.Point, error) {
	if run.Asset == nil {
		return geom.Point{}, ErrShapingUnavailable
	}
	adv, err := run.Asset.Advance(run.Content, run.FontSize)
	if err != nil {
		return geom.Point{}, fmt.Errorf("计算文本宽度失败: %w", err)
	}
	x, _ := run.explicitX()
	y, _ := run.explicitY()
	return geom.Point{
		X: x - anchorFactor(run.Anchor)*adv + run.DX,
		Y: y + run.DY,
	}, nil
}

// Resolver 依次尝试各整形器，采用第一个能给出结果的。
type Resolver struct {
	Shapers []Shaper
	Logger  *slog.Logger
}

// NewResolver 返回默认的解析器：先精确整形，再退回字体度量。
func NewResolver(logger *slog.Logger) *Resolver {
	return &Resolver{Shapers: []Shaper{NewHarfbuzzShaper(), MetricShaper{}}, Logger: logger}
}

// StartPosition 返回 run 的起点。
func (r *Resolver) StartPosition(run Run, siblings []Run) (geom.Point, error) {
	for _, s := range r.Shapers {
		p, err := s.StartPosition(run, siblings)
		if errors.Is(err, ErrShapingUnavailable) {
			if r.Logger != nil {
				r.Logger.Debug("textpos.shaper_unavailable", "shaper", fmt.Sprintf("%T", s), "content", run.Content)
			}
			continue
		}
		return p, err
	}
	return geom.Point{}, ErrShapingUnavailable
}

// Place 计算一个 <text> 中全部文本段的起点。
func (r *Resolver) Place(runs []Run) ([]geom.Point, error) {
	out := make([]geom.Point, len(runs))
	for i, run := range runs {
		run.Index = i
		p, err := r.StartPosition(run, runs)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}
