package CadDoc

import (
	"strconv"
	"strings"

	"github.com/rpaloschi/dxf-go/core"
	"github.com/rpaloschi/dxf-go/sections"
)

// 按组码范围区分值类型，与 dxf-go 的组码表一致
func intCode(code int) bool {
	return (code >= 60 && code < 100) || (code >= 160 && code < 180) ||
		(code >= 270 && code < 300) || (code >= 370 && code < 390) ||
		(code >= 400 && code < 410) || (code >= 420 && code < 430) ||
		(code >= 440 && code < 460) || (code >= 1060 && code < 1072)
}

func floatCode(code int) bool {
	return (code >= 10 && code < 60) || (code >= 110 && code < 150) ||
		(code >= 210 && code < 240) || (code >= 460 && code < 470) ||
		(code >= 1010 && code < 1060)
}

// coreValue 转成 dxf-go 的值类型；解析不了的按字符串保留
func coreValue(code int, value string) core.DataType {
	s := strings.TrimSpace(value)
	switch {
	case intCode(code):
		if v, err := strconv.Atoi(s); err == nil {
			return core.NewIntegerValue(v)
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return core.NewIntegerValue(int(f))
		}
	case floatCode(code):
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return core.NewFloatValue(f)
		}
	}
	return core.NewStringValue(value)
}

// coreTags 把一条记录转成 dxf-go 的 TagSlice，字符串值先按代码页解码
func (p *parser) coreTags(rec record) core.TagSlice {
	out := make(core.TagSlice, 0, len(rec.tags)+1)
	out = append(out, core.NewTag(0, core.NewStringValue(rec.kind)))
	for _, t := range rec.tags {
		v := coreValue(t.code, t.value)
		if s, ok := core.AsString(v); ok {
			v = core.NewStringValue(p.text.decode(s))
		}
		out = append(out, core.NewTag(t.code, v))
	}
	return out
}

// layer 由 dxf-go 解析图层表项：62 为负表示关闭，70 第 1 位为冻结
func (p *parser) layer(rec record) *Layer {
	dl, err := sections.NewLayer(p.coreTags(rec))
	if err != nil {
		p.fail(rec.line, err)
		return &Layer{Name: dl.Name, Color: 7, On: true}
	}
	l := &Layer{
		Name:     dl.Name,
		Color:    dl.Color,
		LineType: dl.LineType,
		On:       dl.On,
		Frozen:   dl.Frozen,
	}
	if l.LineType == "" {
		l.LineType = "CONTINUOUS"
	}
	return l
}
