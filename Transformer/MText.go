package Transformer

import (
	"regexp"

	"github.com/GrainArc/DxfSvg/CadDoc"
)

// \A<n>; 是MTEXT的段落对齐控制符
var mtextAlignment = regexp.MustCompile(`\\A\d+;`)

// StripMTextFormatting 去掉所有 \A<n>; 对齐码，其余格式码保留。
// 反复替换直到不再变化，"\A\A1;1;" 这类嵌套也能一次清干净
func StripMTextFormatting(text string) string {
	for {
		out := mtextAlignment.ReplaceAllString(text, "")
		if out == text {
			return out
		}
		text = out
	}
}

// CleanLabel 对可缺省的文字做同样处理，缺省时原样返回
func CleanLabel(text CadDoc.Optional[string]) CadDoc.Optional[string] {
	return CadDoc.MapOptional(text, StripMTextFormatting)
}
