package CadDoc

import (
	"strings"
)

type Layer struct {
	Name     string
	Color    int
	LineType string
	On       bool
	Frozen   bool
}

// Visible 图层打开且未冻结
func (l *Layer) Visible() bool {
	return l.On && !l.Frozen
}

// Block 可复用的图元集合（BLOCK ... ENDBLK）
type Block struct {
	Name     string
	Base     Point
	Layer    string
	Entities []Entity
}

// WithEntities 返回替换了实体列表的新块，原块不变
func (b *Block) WithEntities(entities []Entity) *Block {
	nb := *b
	nb.Entities = entities
	return &nb
}

// Document 一个打开的DXF文档。读入后不再修改，需要变更时先 Clone
type Document struct {
	Path     string
	Version  string
	CodePage string

	layers     []*Layer
	blocks     map[string]*Block
	blockOrder []string
	entities   []Entity
	filtered   bool
}

func NewDocument() *Document {
	return &Document{blocks: make(map[string]*Block)}
}

// ModelSpace 模型空间实体，按文件顺序
func (d *Document) ModelSpace() []Entity {
	return d.entities
}

// Layers 图层表，按文件顺序
func (d *Document) Layers() []*Layer {
	return d.layers
}

// Layer 按名称查找图层，DXF图层名不区分大小写
func (d *Document) Layer(name string) (*Layer, bool) {
	for _, l := range d.layers {
		if l.Name == name {
			return l, true
		}
	}
	for _, l := range d.layers {
		if strings.EqualFold(l.Name, name) {
			return l, true
		}
	}
	return nil, false
}

// Block 按名称查找块，找不到时返回 false
func (d *Document) Block(name string) (*Block, bool) {
	if name == "" {
		return nil, false
	}
	b, ok := d.blocks[blockKey(name)]
	return b, ok
}

// Blocks 所有块，按文件顺序
func (d *Document) Blocks() []*Block {
	out := make([]*Block, 0, len(d.blockOrder))
	for _, key := range d.blockOrder {
		out = append(out, d.blocks[key])
	}
	return out
}

func (d *Document) AddLayer(l *Layer) {
	if existing, ok := d.Layer(l.Name); ok && existing.Name == l.Name {
		*existing = *l
		return
	}
	d.layers = append(d.layers, l)
}

func (d *Document) AddBlock(b *Block) {
	key := blockKey(b.Name)
	if _, ok := d.blocks[key]; !ok {
		d.blockOrder = append(d.blockOrder, key)
	}
	d.blocks[key] = b
}

func (d *Document) AddEntity(e Entity) {
	d.entities = append(d.entities, e)
}

// ReplaceBlock 替换同名块，只应在 Clone 出来的文档上调用
func (d *Document) ReplaceBlock(b *Block) {
	d.AddBlock(b)
}

// Clone 浅拷贝：图层复制一份，块和实体共享（实体只读）
func (d *Document) Clone() *Document {
	nd := &Document{
		Path:       d.Path,
		Version:    d.Version,
		CodePage:   d.CodePage,
		layers:     make([]*Layer, len(d.layers)),
		blocks:     make(map[string]*Block, len(d.blocks)),
		blockOrder: append([]string(nil), d.blockOrder...),
		entities:   append([]Entity(nil), d.entities...),
		filtered:   d.filtered,
	}
	for i, l := range d.layers {
		lc := *l
		nd.layers[i] = &lc
	}
	for k, b := range d.blocks {
		nd.blocks[k] = b
	}
	return nd
}

// WithLayerFilter 返回只打开 visible 中图层的副本。
// visible 为空时不做过滤；不存在的图层名忽略
func (d *Document) WithLayerFilter(visible []string) *Document {
	nd := d.Clone()
	if len(visible) == 0 {
		return nd
	}
	keep := make(map[string]struct{}, len(visible))
	for _, name := range visible {
		keep[name] = struct{}{}
	}
	for _, l := range nd.layers {
		_, ok := keep[l.Name]
		l.On = ok
		if ok {
			l.Frozen = false
		}
	}
	nd.filtered = true
	return nd
}

// LayerVisible 判断某图层上的实体是否绘制。
// 过滤生效时，图层表中不存在的图层视为关闭
func (d *Document) LayerVisible(name string) bool {
	l, ok := d.Layer(name)
	if !ok {
		return !d.filtered
	}
	return l.Visible()
}

func blockKey(name string) string {
	return strings.ToUpper(name)
}
