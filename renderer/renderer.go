package renderer

import (
	"context"

	"github.com/ByLCY/platecut/fabrication"
)

// Renderer 将加工文档输出为最终文件，例如 SVG 或 PDF。
// Render 返回生成的二进制数据以及可能的错误；同一文档的不同输出几何完全一致。
type Renderer interface {
	Render(ctx context.Context, doc *fabrication.Document) ([]byte, error)
}
