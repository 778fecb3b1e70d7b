package fontcache

import (
	"bytes"
	"fmt"
	"unicode"

	gotext "github.com/go-text/typesetting/font"
	"github.com/tdewolff/canvas"
	tdfont "github.com/tdewolff/font"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/ByLCY/platecut/design"
)

// Asset 是解析完成、可用于轮廓化的字体程序，创建后不可变。
type Asset struct {
	Family string
	Data   []byte // SFNT 格式

	metrics  *sfnt.Font
	upem     float64
	outlines *canvas.FontFamily
	shaping  *gotext.Face
}

// parseAsset 将字体字节（TTF/OTF/WOFF/WOFF2）转换为 SFNT 并解析。
// 整形用的 go-text Face 解析失败不算错误，只是该字体无法走精确整形。
func parseAsset(family string, raw []byte) (*Asset, error) {
	data, err := tdfont.ToSFNT(raw)
	if err != nil {
		return nil, fmt.Errorf("转换字体 %s 为 SFNT 失败: %w", family, err)
	}
	metrics, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("解析字体 %s 度量失败: %w", family, err)
	}
	outlines := canvas.NewFontFamily(family)
	if err := outlines.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, fmt.Errorf("加载字体 %s 轮廓失败: %w", family, err)
	}
	a := &Asset{
		Family:   family,
		Data:     data,
		metrics:  metrics,
		upem:     float64(metrics.UnitsPerEm()),
		outlines: outlines,
	}
	if face, err := gotext.ParseTTF(bytes.NewReader(data)); err == nil {
		a.shaping = face
	}
	return a, nil
}

// Face 返回指定字号（文档单位 mm）的 canvas 字体面。canvas 的字号单位是 pt。
func (a *Asset) Face(sizeMM float64) *canvas.FontFace {
	return a.outlines.Face(sizeMM*design.MmToPt, canvas.Black, canvas.FontRegular, canvas.FontNormal)
}

// ShapingFace 返回 go-text 字体面；字体无法被整形引擎解析时为 nil。
func (a *Asset) ShapingFace() *gotext.Face { return a.shaping }

// UnitsPerEm 返回字体的 em 单位数。
func (a *Asset) UnitsPerEm() float64 { return a.upem }

// HasGlyph 判断字体是否包含 r 的字形。
func (a *Asset) HasGlyph(r rune) bool {
	var buf sfnt.Buffer
	idx, err := a.metrics.GlyphIndex(&buf, r)
	return err == nil && idx != 0
}

// MissingRunes 返回文本中字体没有字形的非空白字符。
func (a *Asset) MissingRunes(text string) []rune {
	var missing []rune
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		if !a.HasGlyph(r) {
			missing = append(missing, r)
		}
	}
	return missing
}

// Advance 返回 text 在 size（mm）下的前进宽度：逐字形累加 hmtx 宽度，不使用字偶距。
// 缺失的字形按 .notdef 计算。
func (a *Asset) Advance(text string, size float64) (float64, error) {
	var (
		buf   sfnt.Buffer
		total fixed.Int26_6
	)
	ppem := fixed.I(int(a.upem))
	for _, r := range text {
		idx, err := a.metrics.GlyphIndex(&buf, r)
		if err != nil {
			return 0, fmt.Errorf("查找字形 %q 失败: %w", r, err)
		}
		adv, err := a.metrics.GlyphAdvance(&buf, idx, ppem, xfont.HintingNone)
		if err != nil {
			return 0, fmt.Errorf("读取字形 %q 宽度失败: %w", r, err)
		}
		total += adv
	}
	units := float64(total) / 64
	return units / a.upem * size, nil
}

// Ascent 返回 size（mm）下的上升高度，用于占位图形。
func (a *Asset) Ascent(size float64) float64 {
	var buf sfnt.Buffer
	m, err := a.metrics.Metrics(&buf, fixed.I(int(a.upem)), xfont.HintingNone)
	if err != nil || m.Ascent <= 0 {
		return 0.75 * size
	}
	return float64(m.Ascent) / 64 / a.upem * size
}
