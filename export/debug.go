package export

import (
	"encoding/json"
	"os"

	"github.com/ByLCY/platecut/fabrication"
)

// WriteDebugJSON 将加工文档（全部图元及其角色）输出为 JSON，便于排查导出结果。
func WriteDebugJSON(doc *fabrication.Document, path string) error {
	if doc == nil {
		return nil
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
