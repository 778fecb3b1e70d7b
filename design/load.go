package design

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// File 是设计文件的顶层结构：文档本身与物理参数。
type File struct {
	Physical Physical `json:"physical" yaml:"physical"`
	Document Document `json:"document" yaml:"document"`
}

// Load 读取 YAML 或 JSON 格式的设计文件（按扩展名区分，默认 YAML）。
func Load(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取设计文件 %s: %w", path, err)
	}
	return Decode(b, filepath.Ext(path))
}

// Decode 解析设计文件内容。JSON 是 YAML 的子集，两种格式都由 yaml.v3 解析；
// 未知字段视为错误，ext 只用于错误信息。
func Decode(b []byte, ext string) (*File, error) {
	format := "YAML"
	if strings.EqualFold(ext, ".json") {
		format = "JSON"
	}
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("解析 %s 设计文件失败: %w", format, err)
	}
	if f.Physical.Width == 0 {
		f.Physical.Width = f.Document.Width
	}
	if f.Physical.Height == 0 {
		f.Physical.Height = f.Document.Height
	}
	return &f, nil
}
