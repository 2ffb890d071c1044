package Transformer

import (
	"github.com/GrainArc/DxfSvg/CadDoc"
	"github.com/GrainArc/DxfSvg/models"
)

// DimensionRecord 模型空间中一个标注实体的属性
type DimensionRecord struct {
	Handle        string                   `json:"handle"`
	Layer         string                   `json:"layer"`
	Measurement   CadDoc.Optional[float64] `json:"measurement"`
	Override      CadDoc.Optional[string]  `json:"override"`
	GeometryBlock CadDoc.Optional[string]  `json:"geometry_block"`
}

// DimensionRecords 按文件顺序列出模型空间的标注
func DimensionRecords(doc *CadDoc.Document) []DimensionRecord {
	var out []DimensionRecord
	for _, e := range doc.ModelSpace() {
		d, ok := e.(*CadDoc.Dimension)
		if !ok {
			continue
		}
		out = append(out, DimensionRecord{
			Handle:        d.Handle(),
			Layer:         d.Layer(),
			Measurement:   d.Measurement,
			Override:      d.Override,
			GeometryBlock: d.GeometryBlock,
		})
	}
	return out
}

// geometryBlock 解析标注引用的几何块，块名缺省或找不到时返回 false
func geometryBlock(doc *CadDoc.Document, rec DimensionRecord) (*CadDoc.Block, bool) {
	name, ok := rec.GeometryBlock.Get()
	if !ok {
		return nil, false
	}
	return doc.Block(name)
}

// CleanDimensionText 返回一个副本，其中被标注引用的几何块里所有MTEXT都去掉了对齐码。
// 原文档不变
func CleanDimensionText(doc *CadDoc.Document) *CadDoc.Document {
	cleaned := doc.Clone()
	done := make(map[string]bool)
	for _, rec := range DimensionRecords(doc) {
		blk, ok := geometryBlock(doc, rec)
		if !ok || done[blk.Name] {
			continue
		}
		done[blk.Name] = true

		ents := make([]CadDoc.Entity, len(blk.Entities))
		for i, e := range blk.Entities {
			if mt, ok := e.(*CadDoc.MText); ok {
				c := *mt
				c.Value = StripMTextFormatting(mt.Value)
				e = &c
			}
			ents[i] = e
		}
		cleaned.ReplaceBlock(blk.WithEntities(ents))
	}
	return cleaned
}

// firstMText 块中第一个MTEXT的文字
func firstMText(blk *CadDoc.Block) (string, bool) {
	for _, e := range blk.Entities {
		if mt, ok := e.(*CadDoc.MText); ok {
			return mt.Value, true
		}
	}
	return "", false
}

// ExtractDimensionLabels 标注文字 → 实测值。没有几何块或块里没有MTEXT的标注跳过，
// 实测值缺省记为 0
func ExtractDimensionLabels(doc *CadDoc.Document) *models.LabelSet {
	labels := models.NewLabelSet()
	for _, rec := range DimensionRecords(doc) {
		blk, ok := geometryBlock(doc, rec)
		if !ok {
			continue
		}
		text, ok := firstMText(blk)
		if !ok {
			continue
		}
		labels.Set(StripMTextFormatting(text), rec.Measurement.OrElse(0))
	}
	return labels
}

// ExtractDimensions 清理标注文字并提取标注集合
func ExtractDimensions(doc *CadDoc.Document) (*CadDoc.Document, *models.LabelSet) {
	cleaned := CleanDimensionText(doc)
	return cleaned, ExtractDimensionLabels(cleaned)
}

// BlockText 几何块中的一段文字
type BlockText struct {
	Kind   CadDoc.Kind              `json:"kind"`
	Text   string                   `json:"text"`
	Height CadDoc.Optional[float64] `json:"height"`
	Width  CadDoc.Optional[float64] `json:"width"`
}

type DimensionReport struct {
	DimensionRecord
	Label      CadDoc.Optional[string] `json:"label"` // 去掉对齐码的替代文字
	BlockFound bool                    `json:"block_found"`
	Texts      []BlockText             `json:"texts"`
}

// InspectDimensions 列出某图层上每个标注及其几何块中的文字，layer 为空时列出全部
func InspectDimensions(doc *CadDoc.Document, layer string) []DimensionReport {
	var out []DimensionReport
	for _, rec := range DimensionRecords(doc) {
		if layer != "" && rec.Layer != layer {
			continue
		}
		rep := DimensionReport{DimensionRecord: rec, Label: CleanLabel(rec.Override)}
		if blk, ok := geometryBlock(doc, rec); ok {
			rep.BlockFound = true
			for _, e := range blk.Entities {
				switch v := e.(type) {
				case *CadDoc.MText:
					rep.Texts = append(rep.Texts, BlockText{Kind: v.Kind(), Text: v.Value, Height: v.CharHeight, Width: v.Width})
				case *CadDoc.Text:
					rep.Texts = append(rep.Texts, BlockText{Kind: v.Kind(), Text: v.Value, Height: CadDoc.Some(v.Height)})
				}
			}
		}
		out = append(out, rep)
	}
	return out
}
