package methods

import (
	"fmt"

	"github.com/GrainArc/DxfSvg/CadDoc"
	"github.com/GrainArc/DxfSvg/SvgRender"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/entity"
)

// ExportLayersDXF 把画布上的线和填充边界按原图层写成 LWPOLYLINE，文字不导出。
// 块已展开、圆弧已离散，返回写出的多段线数
func ExportLayersDXF(canvas *SvgRender.Canvas, outputFilename string) (int, error) {
	d := dxf.NewDrawing()
	d.Header().LtScale = 1.0
	layers := make(map[string]bool)
	n := 0
	for _, m := range canvas.Marks() {
		if m.Kind == SvgRender.MarkText {
			continue
		}
		if !layers[m.Layer] {
			d.AddLayer(m.Layer, color.White, dxf.DefaultLineType, false)
			layers[m.Layer] = true
		}
		d.ChangeLayer(m.Layer)
		closed := m.Closed || m.Kind == SvgRender.MarkPatch
		for _, path := range m.Paths {
			pts := path
			if closed && len(pts) > 1 && pts[0] != pts[len(pts)-1] {
				pts = append(append([]CadDoc.Point{}, pts...), pts[0])
			}
			if len(pts) < 2 {
				continue
			}
			lwp := entity.NewLwPolyline(len(pts))
			for j, p := range pts {
				lwp.Vertices[j] = []float64{p.X, p.Y}
			}
			d.AddEntity(lwp)
			n++
		}
	}

	if err := d.SaveAs(outputFilename); err != nil {
		return 0, fmt.Errorf("保存DXF失败: %w", err)
	}
	return n, nil
}
