package pdfrenderer

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/platecut/design"
	"github.com/ByLCY/platecut/fabrication"
	"github.com/ByLCY/platecut/renderer"
)

// ReadyCheck reports whether the PDF embedding backend is ready.
type ReadyCheck func(ctx context.Context) error

// WaitPolicy bounds how long Render waits for the backend before giving up.
type WaitPolicy struct {
	Interval   time.Duration
	MaxRetries uint64
}

// DefaultWaitPolicy retries three times, one second apart.
var DefaultWaitPolicy = WaitPolicy{Interval: time.Second, MaxRetries: 3}

// Options configures the PDF renderer.
type Options struct {
	Title      string
	Author     string
	Creator    string
	ReadyCheck ReadyCheck // nil uses a check that writes an empty page
	Wait       *WaitPolicy
	Logger     *slog.Logger

	// Uncompressed writes plain-text content streams.
	Uncompressed bool
}

// Renderer draws fabrication documents via github.com/tdewolff/canvas onto a single PDF page.
type Renderer struct {
	opts  Options
	ready ReadyCheck
	wait  WaitPolicy
	log   *slog.Logger
}

var _ renderer.Renderer = (*Renderer)(nil)

// New creates a PDF renderer.
func New(opts Options) *Renderer {
	r := &Renderer{opts: opts, ready: opts.ReadyCheck, wait: DefaultWaitPolicy, log: opts.Logger}
	if r.ready == nil {
		r.ready = writerReady
	}
	if opts.Wait != nil {
		r.wait = *opts.Wait
	}
	if r.log == nil {
		r.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if r.opts.Creator == "" {
		r.opts.Creator = "platecut"
	}
	return r
}

// writerReady checks that the canvas PDF writer can produce a document.
func writerReady(context.Context) error {
	w := pdf.New(io.Discard, 1, 1, nil)
	return w.Close()
}

// Orientation returns "landscape" when the page is wider than tall, otherwise "portrait".
func Orientation(doc *fabrication.Document) string {
	if doc.Landscape() {
		return "landscape"
	}
	return "portrait"
}

// Render renders the document into a one-page PDF of exactly Width×Height mm.
func (r *Renderer) Render(ctx context.Context, doc *fabrication.Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("加工文档为空")
	}
	if err := r.waitReady(ctx); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	popts := pdf.DefaultOptions
	popts.Compress = !r.opts.Uncompressed
	writer := pdf.New(&buf, doc.Width, doc.Height, &popts)
	subject := fmt.Sprintf("%gx%g mm, %s", doc.Width, doc.Height, Orientation(doc))
	writer.SetInfo(r.opts.Title, subject, "fabrication", r.opts.Author, r.opts.Creator)

	c := canvas.New(doc.Width, doc.Height)
	cctx := canvas.NewContext(c)
	cctx.SetCoordSystem(canvas.CartesianIV) // 与 SVG 一致：左上角为原点，y 轴向下
	for i, p := range doc.Primitives {
		if err := drawPrimitive(cctx, p); err != nil {
			return nil, fmt.Errorf("绘制第 %d 个图元失败: %w", i, err)
		}
	}
	c.RenderTo(writer)

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	r.log.Debug("pdf.rendered", "width", doc.Width, "height", doc.Height, "primitives", len(doc.Primitives), "bytes", buf.Len())
	return buf.Bytes(), nil
}

func (r *Renderer) waitReady(ctx context.Context) error {
	attempt := 0
	op := func() error {
		attempt++
		err := r.ready(ctx)
		if err != nil {
			r.log.Debug("pdf.backend_not_ready", "attempt", attempt, "err", err)
		}
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(r.wait.Interval), r.wait.MaxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return &design.OpError{
			Op:      "pdf.render",
			Kind:    design.KindEmbeddingUnavailable,
			Subject: fmt.Sprintf("%d attempts", attempt),
			Err:     fmt.Errorf("%w: %w", design.ErrEmbeddingUnavailable, err),
		}
	}
	return nil
}

// drawPrimitive 按角色样式绘制一个图元，路径数据与 SVG 输出使用同一份 geom.Path。
func drawPrimitive(ctx *canvas.Context, p fabrication.Primitive) error {
	path, err := canvas.ParseSVGPath(p.Path.String())
	if err != nil {
		return err
	}
	st := p.Role.Style()
	if st.Fill != nil {
		ctx.SetFillColor(rgb(*st.Fill))
	} else {
		ctx.SetFillColor(color.RGBA{0, 0, 0, 0})
	}
	if st.Stroke != nil {
		ctx.SetStrokeColor(rgb(*st.Stroke))
		ctx.SetStrokeWidth(st.StrokeWidth)
	} else {
		ctx.SetStrokeColor(color.RGBA{0, 0, 0, 0})
		ctx.SetStrokeWidth(0)
	}

	ctx.Push()
	if !p.Transform.IsIdentity() {
		m := p.Transform
		ctx.ComposeView(canvas.Matrix{{m[0], m[2], m[4]}, {m[1], m[3], m[5]}})
	}
	ctx.DrawPath(0, 0, path)
	ctx.Pop()
	return nil
}

func rgb(c fabrication.Color) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xFF}
}
