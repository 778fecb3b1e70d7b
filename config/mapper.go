package config

import (
	"log/slog"

	"github.com/ByLCY/platecut/design"
	"github.com/ByLCY/platecut/export"
	"github.com/ByLCY/platecut/fontcache"
	pdfrenderer "github.com/ByLCY/platecut/renderer/pdf"
)

// FontCache 按配置创建字体缓存；配置中的族名表合并到内置表之上。
func (c Config) FontCache(logger *slog.Logger) *fontcache.Cache {
	retry := fontcache.DefaultRetryPolicy
	retry.MaxRetries = c.Fonts.Retries
	if c.Fonts.RetryInterval > 0 {
		retry.InitialInterval = c.Fonts.RetryInterval
	}
	return fontcache.New(fontcache.Options{
		Registry: fontcache.DefaultRegistry().Merge(fontcache.Registry(c.Fonts.Registry)),
		Fallback: c.Fonts.Fallback,
		BaseDir:  c.Fonts.BaseDir,
		Timeout:  c.Fonts.Timeout,
		Retry:    &retry,
		Logger:   logger,
	})
}

// ExportOptions 返回导出器选项。
func (c Config) ExportOptions(logger *slog.Logger) export.Options {
	return export.Options{
		Title:  c.PDF.Title,
		Author: c.PDF.Author,
		Wait: &pdfrenderer.WaitPolicy{
			Interval:   c.PDF.WaitInterval,
			MaxRetries: c.PDF.WaitRetries,
		},
		Logger: logger,
	}
}

// Physical 用配置中的默认值补全物理参数。
func (c Config) Physical(p design.Physical) design.Physical {
	if p.WoodExtra <= 0 {
		p.WoodExtra = c.Plate.WoodExtra
	}
	if p.Material == "" {
		p.Material = c.Plate.Material
	}
	return p
}
