package fontcache

import (
	"strings"
)

// FallbackFamily 是内置且总能解析的兜底字体族。
const FallbackFamily = "Go"

// Registry 将字体族名映射到字体来源：
//   - "builtin:<name>"：内置字体（见 fonts 包）
//   - "http://" / "https://"：远程 TTF/OTF/WOFF/WOFF2
//   - 其他：文件路径，相对路径基于 Options.BaseDir
type Registry map[string]string

// Lookup 按族名查找来源，大小写不敏感。
func (r Registry) Lookup(family string) (string, bool) {
	if src, ok := r[family]; ok {
		return src, true
	}
	key := normalizeKey(family)
	for name, src := range r {
		if normalizeKey(name) == key {
			return src, true
		}
	}
	return "", false
}

// Merge 返回合并后的新注册表，other 中的条目覆盖 r。
func (r Registry) Merge(other Registry) Registry {
	out := make(Registry, len(r)+len(other))
	for k, v := range r {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

const fontsourceCDN = "https://cdn.jsdelivr.net/npm/@fontsource/"

// DefaultRegistry 包含设计器可选的全部字体族（Fontsource 上的静态 WOFF 文件）以及内置的 Go 字体。
func DefaultRegistry() Registry {
	return Registry{
		// Serif
		"Cinzel":           fontsourceCDN + "cinzel@5.0.0/files/cinzel-latin-700-normal.woff",
		"Playfair Display": fontsourceCDN + "playfair-display@5.0.0/files/playfair-display-latin-700-normal.woff",
		"EB Garamond":      fontsourceCDN + "eb-garamond@5.0.0/files/eb-garamond-latin-600-normal.woff",
		"Merriweather":     fontsourceCDN + "merriweather@5.0.0/files/merriweather-latin-700-normal.woff",
		"Lora":             fontsourceCDN + "lora@5.0.0/files/lora-latin-600-normal.woff",
		"Roboto Slab":      fontsourceCDN + "roboto-slab@5.0.0/files/roboto-slab-latin-500-normal.woff",
		"Bitter":           fontsourceCDN + "bitter@5.0.0/files/bitter-latin-700-normal.woff",
		"Abril Fatface":    fontsourceCDN + "abril-fatface@5.0.0/files/abril-fatface-latin-400-normal.woff",

		// Sans
		"Montserrat": fontsourceCDN + "montserrat@5.0.0/files/montserrat-latin-600-normal.woff",
		"Open Sans":  fontsourceCDN + "open-sans@5.0.0/files/open-sans-latin-600-normal.woff",
		"Lato":       fontsourceCDN + "lato@5.0.0/files/lato-latin-700-normal.woff",
		"Oswald":     fontsourceCDN + "oswald@5.0.0/files/oswald-latin-600-normal.woff",
		"Raleway":    fontsourceCDN + "raleway@5.0.0/files/raleway-latin-700-normal.woff",
		"Bebas Neue": fontsourceCDN + "bebas-neue@5.0.0/files/bebas-neue-latin-400-normal.woff",

		// Script / Display
		"Dancing Script": fontsourceCDN + "dancing-script@5.0.0/files/dancing-script-latin-700-normal.woff",
		"Pacifico":       fontsourceCDN + "pacifico@5.0.0/files/pacifico-latin-400-normal.woff",
		"Satisfy":        fontsourceCDN + "satisfy@5.0.0/files/satisfy-latin-400-normal.woff",
		"Caveat":         fontsourceCDN + "caveat@5.0.0/files/caveat-latin-700-normal.woff",
		"Pinyon Script":  fontsourceCDN + "pinyon-script@5.0.0/files/pinyon-script-latin-400-normal.woff",
		"Allura":         fontsourceCDN + "allura@5.0.0/files/allura-latin-400-normal.woff",
		"Alex Brush":     fontsourceCDN + "alex-brush@5.0.0/files/alex-brush-latin-400-normal.woff",
		"Great Vibes":    fontsourceCDN + "great-vibes@5.0.0/files/great-vibes-latin-400-normal.woff",

		// Built-in
		FallbackFamily: "builtin:go-regular",
		"Go Bold":      "builtin:go-bold",
		"Go Medium":    "builtin:go-medium",
		"Go Mono":      "builtin:go-mono",
	}
}

// FirstFamily 取 font-family 声明中的第一个族名，去掉空白与引号。
func FirstFamily(decl string) string {
	first := strings.TrimSpace(strings.SplitN(decl, ",", 2)[0])
	first = strings.TrimPrefix(first, `"`)
	first = strings.TrimPrefix(first, `'`)
	first = strings.TrimSuffix(first, `"`)
	first = strings.TrimSuffix(first, `'`)
	return strings.TrimSpace(first)
}

func normalizeKey(family string) string {
	return strings.ToLower(strings.TrimSpace(family))
}
