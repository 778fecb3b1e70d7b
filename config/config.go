// Package config 读取 platecut 的运行配置（YAML）。没有配置文件时使用 Default()。
package config

import (
	"fmt"
	"time"

	"github.com/ByLCY/platecut/design"
	"github.com/ByLCY/platecut/fontcache"
	pdfrenderer "github.com/ByLCY/platecut/renderer/pdf"
)

// Config 是配置文件的顶层结构。
type Config struct {
	Fonts Fonts `yaml:"fonts"`
	PDF   PDF   `yaml:"pdf"`
	Plate Plate `yaml:"plate"`
	Log   Log   `yaml:"log"`
}

// Fonts 配置字体来源与下载策略。
type Fonts struct {
	// Registry 中的条目覆盖或补充内置的族名表，值为 URL、文件路径或 builtin:<名称>。
	Registry      map[string]string `yaml:"registry"`
	Fallback      string            `yaml:"fallback"`
	BaseDir       string            `yaml:"baseDir"`
	Timeout       time.Duration     `yaml:"timeout"`
	Retries       uint64            `yaml:"retries"`
	RetryInterval time.Duration     `yaml:"retryInterval"`
}

// PDF 配置 PDF 文档信息与嵌入后端的等待策略。
type PDF struct {
	Title        string        `yaml:"title"`
	Author       string        `yaml:"author"`
	WaitInterval time.Duration `yaml:"waitInterval"`
	WaitRetries  uint64        `yaml:"waitRetries"`
}

// Plate 是命令行未指定时使用的物理参数默认值。
type Plate struct {
	WoodExtra float64 `yaml:"woodExtra"`
	Material  string  `yaml:"material"`
}

// Log 配置日志输出；Dir 为空时写到标准错误。
type Log struct {
	Dir   string `yaml:"dir"`
	Debug bool   `yaml:"debug"`
}

// Default 返回不依赖任何文件的默认配置。
func Default() Config {
	return Config{
		Fonts: Fonts{
			Fallback:      fontcache.FallbackFamily,
			Timeout:       30 * time.Second,
			Retries:       fontcache.DefaultRetryPolicy.MaxRetries,
			RetryInterval: fontcache.DefaultRetryPolicy.InitialInterval,
		},
		PDF: PDF{
			WaitInterval: pdfrenderer.DefaultWaitPolicy.Interval,
			WaitRetries:  pdfrenderer.DefaultWaitPolicy.MaxRetries,
		},
		Plate: Plate{WoodExtra: design.DefaultWoodExtra, Material: "plate"},
	}
}

// Validate 检查取值范围，返回第一个不合法的字段。
func (c Config) Validate() error {
	switch {
	case c.Fonts.Timeout < 0:
		return fmt.Errorf("fonts.timeout 不能为负数")
	case c.Fonts.RetryInterval < 0:
		return fmt.Errorf("fonts.retryInterval 不能为负数")
	case c.PDF.WaitInterval < 0:
		return fmt.Errorf("pdf.waitInterval 不能为负数")
	case c.Plate.WoodExtra < 0:
		return fmt.Errorf("plate.woodExtra 不能为负数")
	}
	for family, src := range c.Fonts.Registry {
		if family == "" || src == "" {
			return fmt.Errorf("fonts.registry 中存在空的族名或来源 (%q: %q)", family, src)
		}
	}
	return nil
}
