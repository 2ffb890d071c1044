package SvgRender

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/GrainArc/DxfSvg/CadDoc"
	"github.com/rs/zerolog"
)

// 块嵌套的最大深度
const maxBlockDepth = 16

// MTEXT 内联格式码：带参数的 \A1; \H2.5; \fArial|b1; 和开关 \L \O \K，以及 {} 分组
var (
	mtextCodes   = regexp.MustCompile(`\\[ACcFfHhQqTtWwp][^;]*;`)
	mtextToggles = regexp.MustCompile(`\\[LlOoKk]`)
	mtextBreaks  = regexp.MustCompile(`\\[P~]`)
)

// plainText MTEXT转成单行纯文本用于显示
func plainText(s string) string {
	s = mtextBreaks.ReplaceAllString(s, " ")
	s = mtextCodes.ReplaceAllString(s, "")
	s = mtextToggles.ReplaceAllString(s, "")
	s = strings.NewReplacer("{", "", "}", "", `\\`, `\`).Replace(s)
	return strings.TrimSpace(s)
}

// frontend 遍历文档，把可见实体转成画布上的绘制单元
type frontend struct {
	doc    *CadDoc.Document
	canvas *Canvas
	log    zerolog.Logger
	// 被关闭图层过滤掉的实体数
	skipped int
}

// walk 绘制一组实体；parentLayer 非空表示在块内，0 层实体继承它
func (f *frontend) walk(ents []CadDoc.Entity, tr CadDoc.Transform, parentLayer string, depth int) error {
	if depth > maxBlockDepth {
		return errBlockDepth
	}
	for _, e := range ents {
		layer := e.Layer()
		if parentLayer != "" && layer == "0" {
			layer = parentLayer
		}
		if err := f.entity(e, layer, tr, depth); err != nil {
			return err
		}
	}
	return nil
}

func (f *frontend) entity(e CadDoc.Entity, layer string, tr CadDoc.Transform, depth int) error {
	// 插入和标注所在图层不可见时，整个块都不画
	if !f.doc.LayerVisible(layer) {
		f.skipped++
		return nil
	}
	switch v := e.(type) {
	case *CadDoc.Insert:
		blk, ok := f.doc.Block(v.BlockName)
		if !ok {
			f.log.Debug().Str("block", v.BlockName).Str("handle", v.Handle()).Msg("块不存在，跳过插入")
			return nil
		}
		return f.walk(blk.Entities, CadDoc.InsertTransform(v, blk.Base).Then(tr), layer, depth+1)
	case *CadDoc.Dimension:
		name, ok := v.GeometryBlock.Get()
		if !ok {
			return nil
		}
		blk, ok := f.doc.Block(name)
		if !ok {
			f.log.Debug().Str("block", name).Msg("标注几何块不存在")
			return nil
		}
		return f.walk(blk.Entities, tr, layer, depth+1)
	}

	m := Mark{Layer: layer, Handle: e.Handle()}
	switch v := e.(type) {
	case *CadDoc.Line:
		m.Kind = MarkLine
		m.Paths = [][]CadDoc.Point{apply(tr, []CadDoc.Point{v.Start, v.End})}
	case *CadDoc.Polyline:
		m.Kind = MarkLine
		m.Paths = [][]CadDoc.Point{apply(tr, v.Vertices())}
	case *CadDoc.Circle:
		m.Kind = MarkLine
		m.Paths = [][]CadDoc.Point{apply(tr, CadDoc.CirclePoints(v.Center, v.Radius))}
	case *CadDoc.Arc:
		m.Kind = MarkLine
		m.Paths = [][]CadDoc.Point{apply(tr, CadDoc.ArcPoints(v.Center, v.Radius, v.StartAngle, v.EndAngle))}
	case *CadDoc.Solid:
		m.Kind = MarkPatch
		m.Paths = [][]CadDoc.Point{apply(tr, v.Corners)}
	case *CadDoc.Hatch:
		if len(v.Boundaries) == 0 {
			return nil
		}
		// 非实心填充只画边界
		m.Kind = MarkLine
		m.Closed = true
		if v.SolidFill {
			m.Kind = MarkPatch
		}
		for _, b := range v.Boundaries {
			m.Paths = append(m.Paths, apply(tr, b))
		}
	case *CadDoc.Text:
		m.Kind = MarkText
		m.Text = v.Value
		m.At = tr.Apply(v.Insert)
		m.Height = v.Height * math.Abs(tr.ScaleY)
		m.Rotation = v.Rotation + tr.Rotation
	case *CadDoc.MText:
		m.Kind = MarkText
		m.Text = plainText(v.Value)
		m.At = tr.Apply(v.Insert)
		m.Height = v.CharHeight.OrElse(2.5) * math.Abs(tr.ScaleY)
		m.Rotation = v.Rotation + tr.Rotation
	default:
		return nil
	}
	if m.Kind == MarkText && m.Text == "" {
		return nil
	}
	if err := f.canvas.add(m); err != nil {
		return fmt.Errorf("entity %s %s: %w", e.Kind(), e.Handle(), err)
	}
	return nil
}

func apply(tr CadDoc.Transform, pts []CadDoc.Point) []CadDoc.Point {
	out := make([]CadDoc.Point, len(pts))
	for i, p := range pts {
		out[i] = tr.Apply(p)
	}
	return out
}
