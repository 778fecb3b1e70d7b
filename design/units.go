package design

import (
	"strconv"
	"strings"
)

// Unit 表示属性值中携带的原始单位。
type Unit int

const (
	UnitNone Unit = iota // 无单位，按文档单位（mm）解释
	UnitPX               // 用户单位，与 viewBox 单位相同
	UnitMM
	UnitCM
	UnitIN
	UnitPT
)

// pt 与 mm 的换算常数。
const (
	PtToMm = 25.4 / 72
	MmToPt = 72 / 25.4
)

// Length 保留数值及其单位。
type Length struct {
	Value float64
	Unit  Unit
}

// ToMM 将长度换算为文档单位（mm）。px 与无单位数值即为文档单位。
func (l Length) ToMM() float64 {
	switch l.Unit {
	case UnitCM:
		return l.Value * 10
	case UnitIN:
		return l.Value * 25.4
	case UnitPT:
		return l.Value * PtToMm
	default:
		return l.Value
	}
}

// ParseLength 解析形如 "28"、"28px"、"0.25mm"、"12pt" 的长度；无法解析时 ok 为 false。
func ParseLength(value string) (Length, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, false
	}
	unit := UnitNone
	for _, suf := range []struct {
		s string
		u Unit
	}{{"px", UnitPX}, {"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"pt", UnitPT}} {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			v = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return Length{}, false
	}
	return Length{Value: f, Unit: unit}, true
}

// ParseMM 是 ParseLength 的便捷形式，直接返回 mm。
func ParseMM(value string) (float64, bool) {
	l, ok := ParseLength(value)
	if !ok {
		return 0, false
	}
	return l.ToMM(), true
}
