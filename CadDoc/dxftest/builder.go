// Package dxftest 用代码拼装ASCII DXF文本，供测试使用
package dxftest

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type block struct {
	name     string
	layer    string
	entities []string
}

// Builder 按调用顺序生成 HEADER/TABLES/BLOCKS/ENTITIES 四个段
type Builder struct {
	header   []string
	layers   []string
	blocks   []*block
	entities []string
	handle   *int
	target   *[]string
}

func New() *Builder {
	h := 0x100
	b := &Builder{handle: &h}
	b.target = &b.entities
	return b
}

func pair(code int, value string) string {
	return strconv.Itoa(code) + "\n" + value + "\n"
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (b *Builder) nextHandle() string {
	*b.handle++
	return fmt.Sprintf("%X", *b.handle)
}

func (b *Builder) add(kind, layer string, body ...string) *Builder {
	s := pair(0, kind) + pair(5, b.nextHandle()) + pair(8, layer) + strings.Join(body, "")
	*b.target = append(*b.target, s)
	return b
}

// Header 写一个头变量，例如 Header("$ACADVER", 1, "AC1015")
func (b *Builder) Header(name string, code int, value string) *Builder {
	b.header = append(b.header, pair(9, name)+pair(code, value))
	return b
}

// Layer 登记图层；color 为负表示关闭
func (b *Builder) Layer(name string, color int, frozen bool) *Builder {
	flags := 0
	if frozen {
		flags = 1
	}
	b.layers = append(b.layers, pair(0, "LAYER")+pair(2, name)+pair(70, strconv.Itoa(flags))+
		pair(62, strconv.Itoa(color))+pair(6, "CONTINUOUS"))
	return b
}

func (b *Builder) Line(layer string, x1, y1, x2, y2 float64) *Builder {
	return b.add("LINE", layer, pair(10, num(x1)), pair(20, num(y1)), pair(11, num(x2)), pair(21, num(y2)))
}

// LWPolyline xy 依次为 x0, y0, x1, y1 ...
func (b *Builder) LWPolyline(layer string, closed bool, xy ...float64) *Builder {
	flags := "0"
	if closed {
		flags = "1"
	}
	body := []string{pair(90, strconv.Itoa(len(xy)/2)), pair(70, flags)}
	for i := 0; i+1 < len(xy); i += 2 {
		body = append(body, pair(10, num(xy[i])), pair(20, num(xy[i+1])))
	}
	return b.add("LWPOLYLINE", layer, body...)
}

func (b *Builder) Circle(layer string, x, y, r float64) *Builder {
	return b.add("CIRCLE", layer, pair(10, num(x)), pair(20, num(y)), pair(40, num(r)))
}

// Solid 三角形或四边形，角点按 DXF 存储顺序给出
func (b *Builder) Solid(layer string, corners ...[2]float64) *Builder {
	var body []string
	for i, c := range corners {
		if i > 3 {
			break
		}
		body = append(body, pair(10+i, num(c[0])), pair(20+i, num(c[1])))
	}
	return b.add("SOLID", layer, body...)
}

func (b *Builder) Text(layer, text string, x, y, height float64) *Builder {
	return b.add("TEXT", layer, pair(10, num(x)), pair(20, num(y)), pair(40, num(height)), pair(1, text))
}

func (b *Builder) MText(layer, text string, x, y, height float64) *Builder {
	return b.add("MTEXT", layer, pair(10, num(x)), pair(20, num(y)), pair(40, num(height)), pair(41, "0"), pair(1, text))
}

func (b *Builder) Insert(layer, blockName string, x, y float64) *Builder {
	return b.add("INSERT", layer, pair(2, blockName), pair(10, num(x)), pair(20, num(y)))
}

// Dimension 引用几何块 blockName，写入实测值
func (b *Builder) Dimension(layer, blockName string, measurement float64) *Builder {
	return b.add("DIMENSION", layer, pair(2, blockName), pair(10, "0"), pair(20, "0"),
		pair(11, "0"), pair(21, "0"), pair(70, "32"), pair(42, num(measurement)))
}

// DimensionOverride 带替代文字（组码1）的标注
func (b *Builder) DimensionOverride(layer, blockName string, measurement float64, text string) *Builder {
	return b.add("DIMENSION", layer, pair(2, blockName), pair(10, "0"), pair(20, "0"),
		pair(70, "32"), pair(42, num(measurement)), pair(1, text))
}

// DimensionNoMeasurement 不写组码42的标注
func (b *Builder) DimensionNoMeasurement(layer, blockName string) *Builder {
	return b.add("DIMENSION", layer, pair(2, blockName), pair(10, "0"), pair(20, "0"), pair(70, "32"))
}

// Block 定义块，fn 中添加的实体写入该块
func (b *Builder) Block(name, layer string, fn func(*Builder)) *Builder {
	blk := &block{name: name, layer: layer}
	inner := &Builder{handle: b.handle, target: &blk.entities}
	fn(inner)
	b.blocks = append(b.blocks, blk)
	return b
}

func (b *Builder) String() string {
	var sb strings.Builder
	sb.WriteString(pair(0, "SECTION") + pair(2, "HEADER"))
	for _, h := range b.header {
		sb.WriteString(h)
	}
	sb.WriteString(pair(0, "ENDSEC"))

	sb.WriteString(pair(0, "SECTION") + pair(2, "TABLES"))
	sb.WriteString(pair(0, "TABLE") + pair(2, "LAYER") + pair(70, strconv.Itoa(len(b.layers))))
	for _, l := range b.layers {
		sb.WriteString(l)
	}
	sb.WriteString(pair(0, "ENDTAB") + pair(0, "ENDSEC"))

	sb.WriteString(pair(0, "SECTION") + pair(2, "BLOCKS"))
	for _, blk := range b.blocks {
		sb.WriteString(pair(0, "BLOCK") + pair(8, blk.layer) + pair(2, blk.name) + pair(70, "1") +
			pair(10, "0") + pair(20, "0") + pair(3, blk.name))
		for _, e := range blk.entities {
			sb.WriteString(e)
		}
		sb.WriteString(pair(0, "ENDBLK") + pair(8, blk.layer))
	}
	sb.WriteString(pair(0, "ENDSEC"))

	sb.WriteString(pair(0, "SECTION") + pair(2, "ENTITIES"))
	for _, e := range b.entities {
		sb.WriteString(e)
	}
	sb.WriteString(pair(0, "ENDSEC") + pair(0, "EOF"))
	return sb.String()
}

func (b *Builder) Bytes() []byte {
	return []byte(b.String())
}

// WriteFile 写到 path
func (b *Builder) WriteFile(path string) error {
	return os.WriteFile(path, b.Bytes(), 0o644)
}
