// Package export 串联整个生产导出流程：
// 校验物理尺寸、解析字体、定位并轮廓化文本、按图层语义重写、组装并输出 SVG 或 PDF。
package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/ByLCY/platecut/design"
	"github.com/ByLCY/platecut/fabrication"
	"github.com/ByLCY/platecut/fontcache"
	"github.com/ByLCY/platecut/outline"
	"github.com/ByLCY/platecut/renderer"
	pdfrenderer "github.com/ByLCY/platecut/renderer/pdf"
	svgrenderer "github.com/ByLCY/platecut/renderer/svg"
	"github.com/ByLCY/platecut/textpos"
)

// Options 配置导出器；零值可用。
type Options struct {
	Title      string
	Author     string
	Resolver   *textpos.Resolver       // 为空时使用 textpos.NewResolver
	SVG        renderer.Renderer       // 为空时使用 svgrenderer.New()
	PDF        renderer.Renderer       // 为空时使用 pdfrenderer.New
	Wait       *pdfrenderer.WaitPolicy // 仅在 PDF 为空时生效
	ReadyCheck pdfrenderer.ReadyCheck  // 仅在 PDF 为空时生效
	Logger     *slog.Logger
}

// Exporter 执行导出操作。字体缓存由调用方持有，可在多个导出器之间共享。
type Exporter struct {
	fonts    *fontcache.Cache
	resolver *textpos.Resolver
	svg      renderer.Renderer
	pdf      renderer.Renderer
	log      *slog.Logger
}

// New 创建导出器。
func New(fonts *fontcache.Cache, opts Options) *Exporter {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	e := &Exporter{fonts: fonts, resolver: opts.Resolver, svg: opts.SVG, pdf: opts.PDF, log: log}
	if e.fonts == nil {
		e.fonts = fontcache.New(fontcache.Options{Logger: log})
	}
	if e.resolver == nil {
		e.resolver = textpos.NewResolver(log)
	}
	if e.svg == nil {
		e.svg = svgrenderer.New()
	}
	if e.pdf == nil {
		e.pdf = pdfrenderer.New(pdfrenderer.Options{
			Title:      opts.Title,
			Author:     opts.Author,
			ReadyCheck: opts.ReadyCheck,
			Wait:       opts.Wait,
			Logger:     log,
		})
	}
	return e
}

// UnresolvedText 记录一个无法轮廓化、以红色占位矩形输出的文本段。
type UnresolvedText struct {
	LayerID string `json:"layerId"`
	Content string `json:"content"`
	Family  string `json:"family"`
	Err     error  `json:"-"`
}

// Report 汇总一次导出中可恢复的问题。
type Report struct {
	Width      float64               `json:"width"`
	Height     float64               `json:"height"`
	FontIssues []fontcache.FontIssue `json:"fontIssues,omitempty"`
	Unresolved []UnresolvedText      `json:"unresolved,omitempty"`
	Dropped    []fabrication.Drop    `json:"dropped,omitempty"`
}

// Clean 报告没有任何可恢复问题时返回 true。按规则丢弃的图层（如装饰层）不算问题，
// 因几何缺失而丢弃的图层算。
func (r *Report) Clean() bool {
	return len(r.FontIssues) == 0 && len(r.Unresolved) == 0 && len(r.Malformed()) == 0
}

// Malformed 返回因输入有误而被丢弃的图层。
func (r *Report) Malformed() []fabrication.Drop {
	var out []fabrication.Drop
	for _, d := range r.Dropped {
		if d.Err != nil {
			out = append(out, d)
		}
	}
	return out
}

// ExportVectorFile 生成可直接用于激光切割/雕刻的 SVG 文件。
func (e *Exporter) ExportVectorFile(ctx context.Context, doc design.Document, physical design.Physical) ([]byte, *Report, error) {
	return e.export(ctx, "svg", e.svg, doc, physical)
}

// ExportPaginatedDocument 生成单页 PDF，几何与 SVG 输出完全一致。
func (e *Exporter) ExportPaginatedDocument(ctx context.Context, doc design.Document, physical design.Physical) ([]byte, *Report, error) {
	return e.export(ctx, "pdf", e.pdf, doc, physical)
}

func (e *Exporter) export(ctx context.Context, target string, r renderer.Renderer, doc design.Document, physical design.Physical) ([]byte, *Report, error) {
	start := time.Now()
	out, report, err := e.Prepare(ctx, doc, physical)
	if err != nil {
		e.log.Error("export.failed", "target", target, "err", err)
		return nil, nil, err
	}
	data, err := r.Render(ctx, out)
	if err != nil {
		e.log.Error("export.render_failed", "target", target, "err", err)
		return nil, nil, err
	}
	e.log.Info("export.done",
		"target", target,
		"width", out.Width,
		"height", out.Height,
		"primitives", len(out.Primitives),
		"font_issues", len(report.FontIssues),
		"unresolved", len(report.Unresolved),
		"dropped", len(report.Dropped),
		"bytes", len(data),
		"elapsed", time.Since(start),
	)
	return data, report, nil
}

// Prepare 执行输出之前的全部步骤，返回加工文档与报告。输入文档不会被修改。
func (e *Exporter) Prepare(ctx context.Context, doc design.Document, physical design.Physical) (*fabrication.Document, *Report, error) {
	if err := physical.Validate(); err != nil {
		return nil, nil, err
	}
	report := &Report{}

	// 只有存在文本图层时才需要字体，纯几何文档可离线导出。
	var fonts *fontcache.Set
	if families, ok := textFamilies(doc); ok {
		set, issues, err := e.fonts.ResolveAll(ctx, families)
		if err != nil {
			return nil, nil, err
		}
		for _, issue := range issues {
			e.log.Warn("export.font_substituted", "family", issue.Family, "substitute", issue.Substitute, "err", issue.Err)
		}
		fonts, report.FontIssues = set, issues
	}

	out, drops, err := fabrication.Build(doc, physical, e.outliner(fonts, report))
	if err != nil {
		return nil, nil, err
	}
	for _, d := range drops {
		e.log.Debug("export.layer_dropped", "layer", d.LayerID, "kind", d.Kind, "reason", d.Reason, "err", d.Err)
	}
	report.Dropped = drops
	report.Width, report.Height = out.Width, out.Height
	return out, report, ctx.Err()
}

// textFamilies 收集所有文本图层引用的字体族；ok 表示文档中存在文本图层。
func textFamilies(doc design.Document) ([]string, bool) {
	var (
		families []string
		ok       bool
	)
	for _, l := range doc.Layers {
		if l.Kind != design.KindTextGroup {
			continue
		}
		ok = true
		for _, t := range l.Texts {
			families = append(families, textpos.Families(t)...)
		}
	}
	return families, ok
}

// outliner 返回文本图层的轮廓化实现；失败的文本段以占位矩形输出并记入报告。
func (e *Exporter) outliner(fonts *fontcache.Set, report *Report) fabrication.TextOutliner {
	return func(layer design.Layer) ([]design.Glyph, error) {
		if fonts == nil {
			return nil, fmt.Errorf("export: 文本图层 %s 没有可用字体", layer.ID)
		}
		var glyphs []design.Glyph
		for _, t := range layer.Texts {
			// 位置按含空格的文本段计算，轮廓只针对去掉首尾空格后的文字。
			runs := textpos.Runs(t, fonts)
			points, placeErr := e.resolver.Place(runs)

			for i, run := range runs {
				content := strings.Trim(run.Content, " ")
				if content == "" {
					continue
				}
				transform := strings.TrimSpace(t.Transform + " " + run.Transform)

				var (
					gp   outline.GlyphPath
					x, y = fallbackPosition(run)
					err  = placeErr
				)
				if err == nil {
					x, y = points[i].X, points[i].Y
					var lead float64
					lead, err = leadingAdvance(run)
					if err == nil {
						x += lead
						gp, err = outline.Outline(content, run.Asset, run.FontSize, x, y)
					}
				}
				if err != nil {
					gp = outline.Placeholder(content, run.Asset, run.FontSize, x, y)
					report.Unresolved = append(report.Unresolved, UnresolvedText{
						LayerID: layer.ID,
						Content: content,
						Family:  run.FontFamily,
						Err:     err,
					})
					e.log.Warn("export.text_unresolved", "layer", layer.ID, "content", content, "err", err)
					glyphs = append(glyphs, gp.Glyph(transform, true))
					continue
				}
				glyphs = append(glyphs, gp.Glyph(transform, false))
			}
		}
		return glyphs, nil
	}
}

// leadingAdvance 返回文本段开头空白的前进宽度。
func leadingAdvance(run textpos.Run) (float64, error) {
	lead := run.Content[:len(run.Content)-len(strings.TrimLeft(run.Content, " "))]
	if lead == "" || run.Asset == nil {
		return 0, nil
	}
	return run.Asset.Advance(lead, run.FontSize)
}

// fallbackPosition 在无法整形时使用文本段的显式坐标。
func fallbackPosition(run textpos.Run) (float64, float64) {
	x, y := run.ParentX, run.ParentY
	if run.X != nil {
		x = *run.X
	}
	if run.Y != nil {
		y = *run.Y
	}
	return x + run.DX, y + run.DY
}

// FileName 返回导出文件名：plaque_<宽>x<高>_<材质>.<扩展名>。
// PDF 使用含底板的总尺寸，SVG 使用铭牌本身的尺寸。
func FileName(physical design.Physical, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	w, h := physical.Width, physical.Height
	if ext == "pdf" {
		w, h = physical.TotalSize()
	}
	material := physical.Material
	if material == "" {
		material = "plate"
	}
	return fmt.Sprintf("plaque_%gx%g_%s.%s", w, h, material, ext)
}
