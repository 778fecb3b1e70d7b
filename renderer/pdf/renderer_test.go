package pdfrenderer

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ByLCY/platecut/design"
	"github.com/ByLCY/platecut/fabrication"
	"github.com/ByLCY/platecut/geom"
)

func plate(w, h float64) *fabrication.Document {
	return &fabrication.Document{
		Width:  w,
		Height: h,
		Primitives: []fabrication.Primitive{
			{Role: fabrication.RoleCutMetal, Path: geom.RectPath(0, 0, w, h, 3, 3), Transform: geom.Identity},
			{Role: fabrication.RoleEngrave, Path: geom.RectPath(5, 5, w-10, h-10, 0, 0), Transform: geom.Identity},
			{Role: fabrication.RoleCutMetal, Path: geom.CirclePath(10, 10, 2.5), Circle: &fabrication.Circle{CX: 10, CY: 10, R: 2.5}, Transform: geom.Identity},
			{Role: fabrication.RoleEngraveFill, Path: geom.RectPath(0, -6, 4, 6, 0, 0), Transform: geom.Translate(w/2, h/2).Mul(geom.Rotate(5))},
		},
	}
}

func fastWait() *WaitPolicy { return &WaitPolicy{Interval: time.Millisecond, MaxRetries: 2} }

func TestRenderProducesPDF(t *testing.T) {
	out, err := New(Options{Title: "plate", Wait: fastWait()}).Render(context.Background(), plate(325, 225))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", out[:min(len(out), 16)])
	}
	if !bytes.Contains(out, []byte("/MediaBox")) {
		t.Fatalf("PDF has no page")
	}
}

func TestOrientation(t *testing.T) {
	if got := Orientation(plate(325, 225)); got != "landscape" {
		t.Fatalf("325x225 should be landscape, got %s", got)
	}
	if got := Orientation(plate(200, 200)); got != "portrait" {
		t.Fatalf("200x200 should be portrait, got %s", got)
	}
	if got := Orientation(plate(100, 300)); got != "portrait" {
		t.Fatalf("100x300 should be portrait, got %s", got)
	}
}

func TestRenderWaitsForBackend(t *testing.T) {
	calls := 0
	check := func(context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("not loaded yet")
		}
		return nil
	}
	if _, err := New(Options{ReadyCheck: check, Wait: fastWait()}).Render(context.Background(), plate(100, 50)); err != nil {
		t.Fatalf("render after backend became ready: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 readiness checks, got %d", calls)
	}
}

func TestRenderEmbeddingUnavailable(t *testing.T) {
	calls := 0
	check := func(context.Context) error {
		calls++
		return errors.New("svg converter missing")
	}
	_, err := New(Options{ReadyCheck: check, Wait: fastWait()}).Render(context.Background(), plate(100, 50))
	if !errors.Is(err, design.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
	if !design.IsKind(err, design.KindEmbeddingUnavailable) {
		t.Fatalf("expected embedding_unavailable kind, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected bounded retries (3 attempts), got %d", calls)
	}
}
