package ImgHandler

import (
	"bytes"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/GrainArc/DxfSvg/CadDoc"
	"github.com/GrainArc/DxfSvg/CadDoc/dxftest"
	"github.com/GrainArc/DxfSvg/SvgRender"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drawCanvas(t *testing.T, b *dxftest.Builder, style SvgRender.Style) *SvgRender.Canvas {
	t.Helper()
	doc, err := CadDoc.Read(strings.NewReader(b.String()))
	require.NoError(t, err)
	canvas, _, err := SvgRender.NewRenderer(style).Draw(doc, nil)
	require.NoError(t, err)
	return canvas
}

func TestRenderPreview(t *testing.T) {
	style := SvgRender.DefaultStyle
	style.Foreground = "#ff0000"
	canvas := drawCanvas(t, dxftest.New().
		Line("0", 0, 0, 100, 100).
		Solid("0", [2]float64{0, 0}, [2]float64{20, 0}, [2]float64{0, 20}).
		Text("0", "25.4", 50, 50, 5), style)

	img, err := RenderPreview(canvas, 256)
	require.NoError(t, err)
	b := img.Bounds()
	assert.Equal(t, 256, b.Dx())
	assert.Equal(t, 256, b.Dy())

	// 留白处透明
	assert.Equal(t, color.RGBA{}, img.RGBAAt(0, 0))

	red := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.RGBAAt(x, y)
			if c.A > 0 {
				assert.Zero(t, c.G)
				red++
			}
		}
	}
	assert.Greater(t, red, 100)
}

func TestPreviewPNG(t *testing.T) {
	canvas := drawCanvas(t, dxftest.New().Circle("0", 0, 0, 10), SvgRender.DefaultStyle)
	data, err := PreviewPNG(canvas, 64)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
}

func TestRenderPreviewDefaultSizeFromDPI(t *testing.T) {
	style := SvgRender.DefaultStyle
	style.FigureSize = 1
	style.DPI = 48
	canvas := drawCanvas(t, dxftest.New().Line("0", 0, 0, 100, 100), style)

	img, err := RenderPreview(canvas, 0)
	require.NoError(t, err)
	b := img.Bounds()
	long := b.Dx()
	if b.Dy() > long {
		long = b.Dy()
	}
	assert.InDelta(t, 48, long, 1)
}

func TestParseColor(t *testing.T) {
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, parseColor("#fff"))
	assert.Equal(t, color.RGBA{0x12, 0x34, 0x56, 255}, parseColor("#123456"))
	assert.Equal(t, color.RGBA{1, 2, 3, 255}, parseColor("RGB(1, 2, 3)"))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, parseColor("bogus"))
}
