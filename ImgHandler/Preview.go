package ImgHandler

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"strconv"
	"strings"

	"github.com/GrainArc/DxfSvg/CadDoc"
	"github.com/GrainArc/DxfSvg/SvgRender"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/vector"
)

// 预览图长边最大像素
const maxPreviewSize = 8192

// parseColor 支持 "#rrggbb"、"#rgb" 和 "RGB(r,g,b)"，无法识别时为白色
func parseColor(colorStr string) color.RGBA {
	white := color.RGBA{255, 255, 255, 255}
	colorStr = strings.TrimSpace(colorStr)
	if strings.HasPrefix(strings.ToUpper(colorStr), "RGB(") {
		parts := strings.Split(strings.TrimSuffix(colorStr[4:], ")"), ",")
		if len(parts) != 3 {
			return white
		}
		var rgb [3]uint8
		for i, p := range parts {
			v, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil || v < 0 || v > 255 {
				return white
			}
			rgb[i] = uint8(v)
		}
		return color.RGBA{rgb[0], rgb[1], rgb[2], 255}
	}

	hex := strings.TrimPrefix(colorStr, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return white
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return white
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}
}

func loadFont() (*truetype.Font, error) {
	return truetype.Parse(goregular.TTF)
}

func drawText(img *image.RGBA, x, y int, text string, fontSize float64, fontColor color.Color, ttfFont *truetype.Font) error {
	c := freetype.NewContext()
	c.SetDPI(72)
	c.SetFont(ttfFont)
	c.SetFontSize(fontSize)
	c.SetClip(img.Bounds())
	c.SetDst(img)
	c.SetSrc(image.NewUniform(fontColor))
	c.SetHinting(font.HintingFull)

	_, err := c.DrawString(text, freetype.Pt(x, y))
	return err
}

// previewMapper 页面坐标（pt）再按像素比例缩放
type previewMapper struct {
	page SvgRender.Page
	k    float64
}

func (m previewMapper) pt(p CadDoc.Point) (float32, float32) {
	x, y := m.page.Map(p)
	return float32(x * m.k), float32(y * m.k)
}

// strokePath 每段线画成一个四边形，方向一致所以非零环绕下不会相互抵消
func strokePath(z *vector.Rasterizer, m previewMapper, path []CadDoc.Point, closed bool, half float32) {
	n := len(path)
	segs := n - 1
	if closed {
		segs = n
	}
	for i := 0; i < segs; i++ {
		x1, y1 := m.pt(path[i])
		x2, y2 := m.pt(path[(i+1)%n])
		dx, dy := x2-x1, y2-y1
		l := float32(math.Hypot(float64(dx), float64(dy)))
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*half, dx/l*half
		// 两端各延长半个线宽，相当于方头线帽
		ex, ey := dx/l*half, dy/l*half
		z.MoveTo(x1+nx-ex, y1+ny-ey)
		z.LineTo(x2+nx+ex, y2+ny+ey)
		z.LineTo(x2-nx+ex, y2-ny+ey)
		z.LineTo(x1-nx-ex, y1-ny-ey)
		z.ClosePath()
	}
}

func fillPath(z *vector.Rasterizer, m previewMapper, path []CadDoc.Point) {
	for i, p := range path {
		x, y := m.pt(p)
		if i == 0 {
			z.MoveTo(x, y)
		} else {
			z.LineTo(x, y)
		}
	}
	z.ClosePath()
}

// RenderPreview 把画布栅格化为透明背景的图像，size 为长边像素，
// 不大于 0 时按 FigureSize×DPI。文字不旋转
func RenderPreview(canvas *SvgRender.Canvas, size int) (*image.RGBA, error) {
	style := canvas.Style()
	if size <= 0 {
		size = style.PixelSize()
	}
	if size > maxPreviewSize {
		size = maxPreviewSize
	}
	page := canvas.Page()
	m := previewMapper{page: page, k: float64(size) / math.Max(page.Width, page.Height)}
	w := int(math.Ceil(page.Width * m.k))
	h := int(math.Ceil(page.Height * m.k))
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("预览尺寸无效: %dx%d", w, h)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fg := parseColor(style.Foreground)
	src := image.NewUniform(fg)
	half := float32(math.Max(style.LineWidth*m.k, 1) / 2)

	var ttf *truetype.Font
	z := vector.NewRasterizer(w, h)
	for _, mark := range canvas.Marks() {
		switch mark.Kind {
		case SvgRender.MarkPatch, SvgRender.MarkLine:
			z.Reset(w, h)
			for _, path := range mark.Paths {
				if mark.Kind == SvgRender.MarkPatch {
					fillPath(z, m, path)
				} else {
					strokePath(z, m, path, mark.Closed, half)
				}
			}
			z.Draw(img, img.Bounds(), src, image.Point{})
		case SvgRender.MarkText:
			if ttf == nil {
				var err error
				if ttf, err = loadFont(); err != nil {
					return nil, fmt.Errorf("加载字体失败: %w", err)
				}
			}
			x, y := m.pt(mark.At)
			px := mark.Height * page.Scale * m.k
			if px < 1 {
				continue
			}
			if err := drawText(img, int(x), int(y), mark.Text, px, fg, ttf); err != nil {
				return nil, err
			}
		}
	}
	return img, nil
}

// PreviewPNG 生成PNG字节
func PreviewPNG(canvas *SvgRender.Canvas, size int) ([]byte, error) {
	img, err := RenderPreview(canvas, size)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
