package CadDoc

import "math"

// 圆弧离散化的最大角步长（度）
const arcStepDegrees = 5.0

// ArcPoints 把圆弧离散成折线点，角度为度，逆时针从 start 到 end
func ArcPoints(center Point, radius, start, end float64) []Point {
	for end <= start {
		end += 360
	}
	sweep := end - start
	steps := int(math.Ceil(sweep / arcStepDegrees))
	if steps < 1 {
		steps = 1
	}
	pts := make([]Point, 0, steps+1)
	for i := 0; i <= steps; i++ {
		a := (start + sweep*float64(i)/float64(steps)) * math.Pi / 180
		pts = append(pts, Point{
			X: center.X + radius*math.Cos(a),
			Y: center.Y + radius*math.Sin(a),
		})
	}
	return pts
}

// CirclePoints 闭合的圆周点列，首尾相同
func CirclePoints(center Point, radius float64) []Point {
	return ArcPoints(center, radius, 0, 360)
}

// bulgePoints 凸度段 p1→p2 的中间点（不含端点）
func bulgePoints(p1, p2 Point, bulge float64) []Point {
	dx, dy := p2.X-p1.X, p2.Y-p1.Y
	chord := math.Hypot(dx, dy)
	if chord == 0 || bulge == 0 {
		return nil
	}
	theta := 4 * math.Atan(bulge) // 圆心角，带符号
	radius := chord / (2 * math.Sin(theta/2))
	// 圆心在弦的垂直平分线上
	mx, my := (p1.X+p2.X)/2, (p1.Y+p2.Y)/2
	h := radius * math.Cos(theta/2)
	nx, ny := -dy/chord, dx/chord
	cx, cy := mx+nx*h, my+ny*h

	a1 := math.Atan2(p1.Y-cy, p1.X-cx)
	steps := int(math.Ceil(math.Abs(theta) * 180 / math.Pi / arcStepDegrees))
	if steps < 2 {
		steps = 2
	}
	r := math.Abs(radius)
	pts := make([]Point, 0, steps-1)
	for i := 1; i < steps; i++ {
		a := a1 + theta*float64(i)/float64(steps)
		pts = append(pts, Point{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)})
	}
	return pts
}

// Vertices 展开凸度后的顶点；闭合多段线末尾补回起点
func (p *Polyline) Vertices() []Point {
	if len(p.Points) == 0 {
		return nil
	}
	out := make([]Point, 0, len(p.Points)+1)
	n := len(p.Points)
	segs := n - 1
	if p.Closed {
		segs = n
	}
	out = append(out, p.Points[0])
	for i := 0; i < segs; i++ {
		a, b := p.Points[i], p.Points[(i+1)%n]
		if i < len(p.Bulges) && p.Bulges[i] != 0 {
			out = append(out, bulgePoints(a, b, p.Bulges[i])...)
		}
		out = append(out, b)
	}
	return out
}

// Transform 块插入变换：缩放、旋转（度）、平移
type Transform struct {
	ScaleX, ScaleY float64
	Rotation       float64
	Offset         Point
}

// Identity 单位变换
func Identity() Transform {
	return Transform{ScaleX: 1, ScaleY: 1}
}

func (t Transform) Apply(p Point) Point {
	x, y := p.X*t.ScaleX, p.Y*t.ScaleY
	if t.Rotation != 0 {
		a := t.Rotation * math.Pi / 180
		s, c := math.Sin(a), math.Cos(a)
		x, y = x*c-y*s, x*s+y*c
	}
	return Point{X: x + t.Offset.X, Y: y + t.Offset.Y}
}

// Then 先应用 t 再应用 outer
func (t Transform) Then(outer Transform) Transform {
	return Transform{
		ScaleX:   t.ScaleX * outer.ScaleX,
		ScaleY:   t.ScaleY * outer.ScaleY,
		Rotation: t.Rotation + outer.Rotation,
		Offset:   outer.Apply(t.Offset),
	}
}

// InsertTransform 由 INSERT 实体和块基点得到变换
func InsertTransform(ins *Insert, base Point) Transform {
	sx, sy := ins.ScaleX, ins.ScaleY
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	t := Transform{ScaleX: sx, ScaleY: sy, Rotation: ins.Rotation}
	// 基点先平移到原点
	shifted := t.Apply(Point{X: -base.X, Y: -base.Y})
	t.Offset = Point{X: shifted.X + ins.At.X, Y: shifted.Y + ins.At.Y}
	return t
}
