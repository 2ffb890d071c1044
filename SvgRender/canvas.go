package SvgRender

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/GrainArc/DxfSvg/CadDoc"
	svg "github.com/ajstarks/svgo/float"
	"github.com/paulmach/orb"
)

type MarkKind int

const (
	MarkPatch MarkKind = iota // 填充区域
	MarkLine                  // 线
	MarkText
)

// idPrefix 与 matplotlib 的 SVG 分组命名一致
func (k MarkKind) idPrefix() string {
	switch k {
	case MarkPatch:
		return "patch"
	case MarkText:
		return "text"
	}
	return "line2d"
}

// Mark 一个绘制单元，坐标为图纸坐标（块变换已应用）
type Mark struct {
	ID     string
	Kind   MarkKind
	Layer  string
	Handle string
	Paths  [][]CadDoc.Point
	Closed bool

	Text     string
	At       CadDoc.Point
	Height   float64
	Rotation float64
}

// Canvas 收集绘制单元，Save 时一次性写出
type Canvas struct {
	style   Style
	marks   []Mark
	counter map[MarkKind]int
	bound   orb.Bound
	empty   bool
	closed  bool
}

func newCanvas(style Style) *Canvas {
	return &Canvas{style: style, counter: make(map[MarkKind]int), empty: true}
}

func (c *Canvas) Style() Style {
	return c.style
}

func (c *Canvas) Marks() []Mark {
	return c.marks
}

// Bound 所有绘制单元的图纸坐标范围，没有内容时 ok 为 false
func (c *Canvas) Bound() (orb.Bound, bool) {
	return c.bound, !c.empty
}

func (c *Canvas) extend(p CadDoc.Point) {
	op := orb.Point{p.X, p.Y}
	if c.empty {
		c.bound = orb.Bound{Min: op, Max: op}
		c.empty = false
		return
	}
	c.bound = c.bound.Extend(op)
}

func (c *Canvas) add(m Mark) error {
	if c.closed {
		return errCanvasClosed
	}
	for _, path := range m.Paths {
		for _, p := range path {
			if !finite(p) {
				return fmt.Errorf("non-finite coordinate (%g, %g) on layer %q", p.X, p.Y, m.Layer)
			}
		}
	}
	if m.Kind == MarkText && (!finite(m.At) || math.IsNaN(m.Height) || math.IsInf(m.Height, 0)) {
		return fmt.Errorf("non-finite text position on layer %q", m.Layer)
	}

	c.counter[m.Kind]++
	m.ID = m.Kind.idPrefix() + "_" + strconv.Itoa(c.counter[m.Kind])
	for _, path := range m.Paths {
		for _, p := range path {
			c.extend(p)
		}
	}
	if m.Kind == MarkText {
		c.extend(m.At)
		// 文字范围按字宽约 0.6 倍字高估算
		w := 0.6 * m.Height * float64(len([]rune(m.Text)))
		c.extend(CadDoc.Point{X: m.At.X + w, Y: m.At.Y + m.Height})
	}
	c.marks = append(c.marks, m)
	return nil
}

func finite(p CadDoc.Point) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Page 图纸坐标到页面坐标（pt，y 轴向下）的映射
type Page struct {
	Scale         float64
	Width, Height float64
	minX, maxY    float64
	pad           float64
}

func (pg Page) Map(p CadDoc.Point) (float64, float64) {
	return (p.X-pg.minX)*pg.Scale + pg.pad, (pg.maxY-p.Y)*pg.Scale + pg.pad
}

// Page 图形长边为 FigureSize 英寸，外加 Padding 留白
func (c *Canvas) Page() Page {
	pad := c.style.Padding * pointsPerInch
	if c.empty {
		side := c.style.FigureSize*pointsPerInch + 2*pad
		return Page{Scale: 1, Width: side, Height: side, pad: pad}
	}
	w, h := c.bound.Max[0]-c.bound.Min[0], c.bound.Max[1]-c.bound.Min[1]
	scale := 1.0
	if extent := math.Max(w, h); extent > 0 {
		scale = c.style.FigureSize * pointsPerInch / extent
	}
	return Page{
		Scale:  scale,
		Width:  w*scale + 2*pad,
		Height: h*scale + 2*pad,
		minX:   c.bound.Min[0],
		maxY:   c.bound.Max[1],
		pad:    pad,
	}
}

// WriteSVG 生成完整的SVG文本
func (c *Canvas) WriteSVG() ([]byte, error) {
	if c.closed {
		return nil, errCanvasClosed
	}
	pg := c.Page()
	d := c.style.Decimals
	var buf bytes.Buffer
	doc := svg.New(&buf)
	doc.Decimals = d

	doc.StartviewUnit(pg.Width, pg.Height, "pt", 0, 0, pg.Width, pg.Height)
	doc.Gid("figure_1")
	doc.Gid("axes_1")
	fg := c.style.Foreground
	for _, m := range c.marks {
		doc.Gid(m.ID)
		switch m.Kind {
		case MarkPatch:
			doc.Path(pathData(pg, m.Paths, true, d), "fill:"+fg+";fill-rule:evenodd;stroke:none")
		case MarkLine:
			doc.Path(pathData(pg, m.Paths, m.Closed, d),
				"fill:none;stroke:"+fg+";stroke-width:"+formatFloat(c.style.LineWidth, d)+";stroke-linecap:square")
		case MarkText:
			x, y := pg.Map(m.At)
			attrs := []string{"font-family:DejaVu Sans;font-size:" + formatFloat(m.Height*pg.Scale, d) + "px;fill:" + fg}
			if m.Rotation != 0 {
				attrs = append(attrs, fmt.Sprintf(`transform="rotate(%s %s %s)"`,
					formatFloat(-m.Rotation, d), formatFloat(x, d), formatFloat(y, d)))
			}
			doc.Text(x, y, m.Text, attrs...)
		}
		doc.Gend()
	}
	doc.Gend()
	doc.Gend()
	doc.End()
	return buf.Bytes(), nil
}

// Save 一次性写出整个文件；父目录不存在时报错，不会自动创建
func (c *Canvas) Save(path string) error {
	data, err := c.WriteSVG()
	if err != nil {
		return &RenderError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &RenderError{Path: path, Err: err}
	}
	return nil
}

// Close 释放绘制单元，可重复调用
func (c *Canvas) Close() error {
	c.closed = true
	c.marks = nil
	return nil
}

func pathData(pg Page, paths [][]CadDoc.Point, closed bool, d int) string {
	var sb strings.Builder
	for _, path := range paths {
		for i, p := range path {
			x, y := pg.Map(p)
			if i == 0 {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString("M ")
			} else {
				sb.WriteString(" L ")
			}
			sb.WriteString(formatFloat(x, d))
			sb.WriteByte(' ')
			sb.WriteString(formatFloat(y, d))
		}
		if closed && len(path) > 0 {
			sb.WriteString(" z ")
		}
	}
	return strings.TrimSpace(sb.String())
}

func formatFloat(v float64, d int) string {
	return strconv.FormatFloat(v, 'f', d, 64)
}
