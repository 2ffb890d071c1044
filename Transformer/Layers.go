package Transformer

import (
	"sort"

	"github.com/GrainArc/DxfSvg/CadDoc"
)

type LayerCount struct {
	Name     string `json:"name"`
	Entities int    `json:"entities"`
	Color    int    `json:"color"`
	On       bool   `json:"on"`
	Frozen   bool   `json:"frozen"`
	InTable  bool   `json:"in_table"`
}

// LayerInventory 图层表中的图层和模型空间实到的图层，附实体数量，按名称排序
func LayerInventory(doc *CadDoc.Document) []LayerCount {
	byName := make(map[string]*LayerCount)
	for _, l := range doc.Layers() {
		byName[l.Name] = &LayerCount{Name: l.Name, Color: l.Color, On: l.On, Frozen: l.Frozen, InTable: true}
	}
	for _, e := range doc.ModelSpace() {
		lc, ok := byName[e.Layer()]
		if !ok {
			lc = &LayerCount{Name: e.Layer(), On: true}
			byName[e.Layer()] = lc
		}
		lc.Entities++
	}

	out := make([]LayerCount, 0, len(byName))
	for _, lc := range byName {
		out = append(out, *lc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
