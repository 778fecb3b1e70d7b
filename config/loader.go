package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ByLCY/platecut/design"
)

// Load 读取配置文件；path 为空时返回 Default()。
// 文件中未出现的字段保留默认值，相对的 fonts.baseDir 以配置文件所在目录为基准。
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &design.OpError{
			Op:      "config.load",
			Kind:    design.KindNotFound,
			Subject: path,
			Err:     err,
		}
	}

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, invalid(path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, invalid(path, err)
	}

	if cfg.Fonts.BaseDir == "" {
		cfg.Fonts.BaseDir = filepath.Dir(path)
	} else if !filepath.IsAbs(cfg.Fonts.BaseDir) {
		cfg.Fonts.BaseDir = filepath.Join(filepath.Dir(path), cfg.Fonts.BaseDir)
	}
	return cfg, nil
}

func invalid(path string, err error) error {
	return &design.OpError{
		Op:      "config.load",
		Kind:    design.KindInvalidConfig,
		Subject: path,
		Err:     err,
	}
}
