package geom

import (
	"fmt"
	"math"
)

// Point 是文档坐标系中的一个点（单位：mm，y 轴向下）。
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Matrix 采用 SVG 约定的仿射矩阵 [a b c d e f]：
//
//	x' = a*x + c*y + e
//	y' = b*x + d*y + f
type Matrix [6]float64

// Identity 为单位矩阵。
var Identity = Matrix{1, 0, 0, 1, 0, 0}

func Translate(tx, ty float64) Matrix { return Matrix{1, 0, 0, 1, tx, ty} }

func Scale(sx, sy float64) Matrix { return Matrix{sx, 0, 0, sy, 0, 0} }

// Rotate 以角度（度）旋转。
func Rotate(deg float64) Matrix {
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return Matrix{cos, sin, -sin, cos, 0, 0}
}

func SkewX(deg float64) Matrix { return Matrix{1, 0, math.Tan(deg * math.Pi / 180), 1, 0, 0} }

func SkewY(deg float64) Matrix { return Matrix{1, math.Tan(deg * math.Pi / 180), 0, 1, 0, 0} }

// Mul 返回 m·n，即先应用 n 再应用 m（与 SVG transform 列表从左到右组合一致）。
func (m Matrix) Mul(n Matrix) Matrix {
	return Matrix{
		m[0]*n[0] + m[2]*n[1],
		m[1]*n[0] + m[3]*n[1],
		m[0]*n[2] + m[2]*n[3],
		m[1]*n[2] + m[3]*n[3],
		m[0]*n[4] + m[2]*n[5] + m[4],
		m[1]*n[4] + m[3]*n[5] + m[5],
	}
}

// Apply 变换一个点。
func (m Matrix) Apply(p Point) Point {
	return Point{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}

func (m Matrix) IsIdentity() bool { return m == Identity }

// Round 将系数舍入到 digits 位小数。
func (m Matrix) Round(digits int) Matrix {
	for i := range m {
		m[i] = roundTo(m[i], digits)
	}
	return m
}

// String 以 SVG transform 语法输出矩阵，数值按 MatrixPrecision 舍入。
func (m Matrix) String() string {
	return fmt.Sprintf("matrix(%s %s %s %s %s %s)",
		formatMatrixNum(m[0]), formatMatrixNum(m[1]), formatMatrixNum(m[2]),
		formatMatrixNum(m[3]), formatMatrixNum(m[4]), formatMatrixNum(m[5]))
}

// MatrixPrecision 是矩阵系数的小数位数，缩放与旋转需要比路径坐标更高的精度。
const MatrixPrecision = 6

func formatMatrixNum(v float64) string { return formatNum(v, MatrixPrecision) }

// MarshalText 以 matrix(a b c d e f) 编码。
func (m Matrix) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText 解析任意 SVG transform 列表。
func (m *Matrix) UnmarshalText(b []byte) error {
	parsed, err := ParseTransform(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
