package SvgRender

import (
	"github.com/GrainArc/DxfSvg/CadDoc"
	"github.com/rs/zerolog"
)

// Stats 一次渲染的统计
type Stats struct {
	Patches int     `json:"patches"`
	Lines   int     `json:"lines"`
	Texts   int     `json:"texts"`
	Skipped int     `json:"skipped"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

type Renderer struct {
	Style  Style
	Logger zerolog.Logger
}

func NewRenderer(style Style) *Renderer {
	return &Renderer{Style: style.withDefaults(), Logger: zerolog.Nop()}
}

// Draw 把文档中可见图层的实体画到新画布上。
// visible 非空时只打开其中列出的图层，图层表中没有的名称忽略；
// 为空时按文档自身的开关和冻结状态
func (r *Renderer) Draw(doc *CadDoc.Document, visible []string) (*Canvas, Stats, error) {
	canvas := newCanvas(r.Style.withDefaults())
	f := &frontend{
		doc:    doc.WithLayerFilter(visible),
		canvas: canvas,
		log:    r.Logger,
	}
	if err := f.walk(doc.ModelSpace(), CadDoc.Identity(), "", 0); err != nil {
		canvas.Close()
		return nil, Stats{}, &RenderError{Path: doc.Path, Err: err}
	}

	st := Stats{Skipped: f.skipped}
	for _, m := range canvas.Marks() {
		switch m.Kind {
		case MarkPatch:
			st.Patches++
		case MarkLine:
			st.Lines++
		case MarkText:
			st.Texts++
		}
	}
	pg := canvas.Page()
	st.Width, st.Height = pg.Width, pg.Height
	return canvas, st, nil
}

// Render 绘制并写出SVG文件
func (r *Renderer) Render(doc *CadDoc.Document, outputPath string, visible []string) (*Stats, error) {
	canvas, st, err := r.Draw(doc, visible)
	if err != nil {
		return nil, err
	}
	defer canvas.Close()

	if err := canvas.Save(outputPath); err != nil {
		return nil, err
	}
	r.Logger.Debug().
		Str("file", outputPath).
		Int("patches", st.Patches).
		Int("lines", st.Lines).
		Int("texts", st.Texts).
		Int("skipped", st.Skipped).
		Msg("SVG已写出")
	return &st, nil
}
