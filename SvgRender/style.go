package SvgRender

import "math"

// 1 英寸 = 72 pt，SVG 用户单位取 pt
const pointsPerInch = 72.0

// Style 输出外观，默认与 matplotlib 导出一致：20×20 英寸、300 DPI、白色前景、透明背景
type Style struct {
	Foreground string
	FigureSize float64 // 英寸，图形长边
	DPI        float64
	LineWidth  float64 // pt，与图纸比例无关
	Padding    float64 // 英寸，紧凑包围盒外的留白
	Decimals   int
}

var DefaultStyle = Style{
	Foreground: "#ffffff",
	FigureSize: 20,
	DPI:        300,
	LineWidth:  0.5,
	Padding:    0.1,
	Decimals:   3,
}

// withDefaults 用默认值补齐未设置的字段
func (s Style) withDefaults() Style {
	if s.Foreground == "" {
		s.Foreground = DefaultStyle.Foreground
	}
	if s.FigureSize <= 0 {
		s.FigureSize = DefaultStyle.FigureSize
	}
	if s.DPI <= 0 {
		s.DPI = DefaultStyle.DPI
	}
	if s.LineWidth <= 0 {
		s.LineWidth = DefaultStyle.LineWidth
	}
	if s.Padding < 0 {
		s.Padding = 0
	}
	if s.Decimals <= 0 {
		s.Decimals = DefaultStyle.Decimals
	}
	return s
}

// PixelSize 栅格输出的长边像素，FigureSize×DPI
func (s Style) PixelSize() int {
	s = s.withDefaults()
	return int(math.Round(s.FigureSize * s.DPI))
}
