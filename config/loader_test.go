package config

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ByLCY/platecut/design"
)

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Fonts.Fallback != "Go" {
		t.Fatalf("expected fallback Go, got %q", cfg.Fonts.Fallback)
	}
	if cfg.Plate.WoodExtra != design.DefaultWoodExtra {
		t.Fatalf("expected default wood extra, got %g", cfg.Plate.WoodExtra)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join("testdata", "platecut.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Fonts.Timeout != 5*time.Second {
		t.Fatalf("expected 5s timeout, got %s", cfg.Fonts.Timeout)
	}
	if cfg.Fonts.RetryInterval != 50*time.Millisecond || cfg.Fonts.Retries != 1 {
		t.Fatalf("unexpected retry settings %+v", cfg.Fonts)
	}
	if cfg.Fonts.Registry["Brand Sans"] != "fonts/brand.ttf" {
		t.Fatalf("registry entry not loaded: %v", cfg.Fonts.Registry)
	}
	if want := filepath.Join("testdata", "assets"); cfg.Fonts.BaseDir != want {
		t.Fatalf("expected base dir %q, got %q", want, cfg.Fonts.BaseDir)
	}
	if cfg.PDF.Title != "Workshop order" || cfg.PDF.WaitRetries != 2 {
		t.Fatalf("unexpected pdf settings %+v", cfg.PDF)
	}
	if cfg.Plate.WoodExtra != design.DefaultWoodExtra {
		t.Fatalf("missing fields should keep defaults, got %g", cfg.Plate.WoodExtra)
	}
	if !cfg.Log.Debug {
		t.Fatalf("expected debug logging")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "nope.yaml"))
	if !design.IsKind(err, design.KindNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := filepath.Join("testdata", "unknown_field.yaml")
	_, err := Load(path)
	if !design.IsKind(err, design.KindInvalidConfig) {
		t.Fatalf("expected invalid_config, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("expected path in error, got %v", err)
	}
}

func TestLoadRejectsNegativeValues(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "negative.yaml"))
	if err == nil || !strings.Contains(err.Error(), "plate.woodExtra") {
		t.Fatalf("expected woodExtra error, got %v", err)
	}
}

func TestPhysicalDefaults(t *testing.T) {
	cfg := Default()
	cfg.Plate.Material = "oak"
	p := cfg.Physical(design.Physical{Width: 100, Height: 50, Wood: true})
	if p.WoodExtra != design.DefaultWoodExtra || p.Material != "oak" {
		t.Fatalf("unexpected physical %+v", p)
	}
	p = cfg.Physical(design.Physical{Width: 100, Height: 50, WoodExtra: 10, Material: "steel"})
	if p.WoodExtra != 10 || p.Material != "steel" {
		t.Fatalf("explicit values must win, got %+v", p)
	}
}

func TestFontCacheUsesMergedRegistry(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "platecut.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cache := cfg.FontCache(nil)
	// "Go" is remapped to the medium weight and still resolves offline.
	asset, err := cache.Resolve(context.Background(), "Go")
	if err != nil {
		t.Fatalf("resolve Go: %v", err)
	}
	if asset.Family != "Go" {
		t.Fatalf("unexpected family %q", asset.Family)
	}
	if _, err := cache.Resolve(context.Background(), "Brand Sans"); !design.IsKind(err, design.KindFontUnavailable) {
		t.Fatalf("missing file should be font_unavailable, got %v", err)
	}
}
