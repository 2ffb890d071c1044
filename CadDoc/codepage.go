package CadDoc

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// AC1021（AutoCAD 2007）起DXF文本统一为UTF-8
const utf8Version = "AC1021"

var codePages = map[string]encoding.Encoding{
	"ANSI_874":  charmap.Windows874,
	"ANSI_932":  japanese.ShiftJIS,
	"ANSI_936":  simplifiedchinese.GBK,
	"ANSI_949":  korean.EUCKR,
	"ANSI_950":  traditionalchinese.Big5,
	"ANSI_1250": charmap.Windows1250,
	"ANSI_1251": charmap.Windows1251,
	"ANSI_1252": charmap.Windows1252,
	"ANSI_1253": charmap.Windows1253,
	"ANSI_1254": charmap.Windows1254,
	"ANSI_1255": charmap.Windows1255,
	"ANSI_1256": charmap.Windows1256,
	"ANSI_1257": charmap.Windows1257,
	"ANSI_1258": charmap.Windows1258,
}

// \U+XXXX 是DXF对非本地字符的转义
var unicodeEscape = regexp.MustCompile(`\\[Uu]\+([0-9A-Fa-f]{4})`)

type textDecoder struct {
	dec *encoding.Decoder
}

func newTextDecoder(version, codePage string) *textDecoder {
	td := &textDecoder{}
	if version != "" && version >= utf8Version {
		return td
	}
	if enc, ok := codePages[strings.ToUpper(strings.TrimSpace(codePage))]; ok {
		td.dec = enc.NewDecoder()
	}
	return td
}

// decode 按代码页转成UTF-8并展开 \U+ 转义，解码失败时返回原串
func (td *textDecoder) decode(s string) string {
	if td.dec != nil && !isASCII(s) {
		if out, err := td.dec.String(s); err == nil {
			s = out
		}
	}
	if strings.Contains(s, `\U+`) || strings.Contains(s, `\u+`) {
		s = unicodeEscape.ReplaceAllStringFunc(s, func(m string) string {
			r, err := strconv.ParseUint(m[3:], 16, 32)
			if err != nil {
				return m
			}
			return string(rune(r))
		})
	}
	return s
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
