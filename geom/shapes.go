package geom

import "math"

// RectPath 生成矩形轮廓；rx/ry 大于 0 时生成圆角（规则同 SVG <rect>）。
func RectPath(x, y, w, h, rx, ry float64) Path {
	if rx <= 0 && ry > 0 {
		rx = ry
	}
	if ry <= 0 && rx > 0 {
		ry = rx
	}
	rx = math.Min(math.Max(rx, 0), w/2)
	ry = math.Min(math.Max(ry, 0), h/2)

	var p Path
	if rx == 0 || ry == 0 {
		p.MoveTo(x, y)
		p.LineTo(x+w, y)
		p.LineTo(x+w, y+h)
		p.LineTo(x, y+h)
		p.Close()
		return p
	}
	p.MoveTo(x+rx, y)
	p.LineTo(x+w-rx, y)
	p.ArcTo(rx, ry, 0, false, true, x+w, y+ry)
	p.LineTo(x+w, y+h-ry)
	p.ArcTo(rx, ry, 0, false, true, x+w-rx, y+h)
	p.LineTo(x+rx, y+h)
	p.ArcTo(rx, ry, 0, false, true, x, y+h-ry)
	p.LineTo(x, y+ry)
	p.ArcTo(rx, ry, 0, false, true, x+rx, y)
	p.Close()
	return p
}

// EllipsePath 用两段半椭圆弧生成闭合椭圆。
func EllipsePath(cx, cy, rx, ry float64) Path {
	var p Path
	p.MoveTo(cx-rx, cy)
	p.ArcTo(rx, ry, 0, false, true, cx+rx, cy)
	p.ArcTo(rx, ry, 0, false, true, cx-rx, cy)
	p.Close()
	return p
}

func CirclePath(cx, cy, r float64) Path { return EllipsePath(cx, cy, r, r) }
