package SvgAnnotate

import (
	"fmt"
	"strings"

	"github.com/GrainArc/DxfSvg/models"
	"github.com/beevik/etree"
	"github.com/rs/zerolog"
)

const (
	svgNamespace = "http://www.w3.org/2000/svg"
	xmlDecl      = `version="1.0" encoding="UTF-8"`
)

// Annotator 把标注文字以注释形式写进SVG的 patch 分组
type Annotator struct {
	Policy Policy
	Logger zerolog.Logger
}

func NewAnnotator(policy Policy) *Annotator {
	return &Annotator{Policy: policy, Logger: zerolog.Nop()}
}

// Comment 注释内容；"--" 在XML注释中非法，拆开
func Comment(text, groupID string) string {
	c := " Dimension: " + text + " | Group Id: " + groupID + " "
	for strings.Contains(c, "--") {
		c = strings.ReplaceAll(c, "--", "- -")
	}
	return c
}

// Candidates 深度优先列出SVG命名空间下 id 含 "patch" 的 g 元素
func Candidates(root *etree.Element) []*etree.Element {
	var out []*etree.Element
	var visit func(e *etree.Element)
	visit = func(e *etree.Element) {
		if e.Tag == "g" && e.NamespaceURI() == svgNamespace &&
			strings.Contains(e.SelectAttrValue("id", ""), "patch") {
			out = append(out, e)
		}
		for _, c := range e.ChildElements() {
			visit(c)
		}
	}
	visit(root)
	return out
}

// AnnotateDocument 在候选分组的第一个子节点位置插入注释，返回插入的注释数
func (a *Annotator) AnnotateDocument(doc *etree.Document, labels *models.LabelSet) (int, error) {
	root := doc.Root()
	if root == nil {
		return 0, errNoRoot
	}
	added := 0
	for i, g := range Candidates(root) {
		label, ok := a.Policy.pick(labels, i)
		if !ok {
			continue
		}
		g.InsertChildAt(0, etree.NewComment(Comment(label.Text, g.SelectAttrValue("id", ""))))
		added++
	}
	return added, nil
}

// AnnotateFile 读入SVG、加注释、两空格缩进并写回原文件。
// 重复执行会重复加注释
func (a *Annotator) AnnotateFile(path string, labels *models.LabelSet) (int, error) {
	return a.annotateTo(path, path, labels)
}

// annotateTo 读 src 写 dst；写失败是IO错误，不算SVG格式错误
func (a *Annotator) annotateTo(src, dst string, labels *models.LabelSet) (int, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(src); err != nil {
		return 0, &ImageFormatError{Path: src, Err: err}
	}
	added, err := a.AnnotateDocument(doc, labels)
	if err != nil {
		return 0, &ImageFormatError{Path: src, Err: err}
	}

	ensureDeclaration(doc)
	doc.Indent(2)
	if err := doc.WriteToFile(dst); err != nil {
		return 0, fmt.Errorf("写入SVG %s 失败: %w", dst, err)
	}
	a.Logger.Debug().Str("file", dst).Int("comments", added).Msg("已添加标注注释")
	return added, nil
}

// ensureDeclaration 确保文件以带编码的XML声明开头
func ensureDeclaration(doc *etree.Document) {
	for _, tok := range doc.Child {
		if pi, ok := tok.(*etree.ProcInst); ok && pi.Target == "xml" {
			pi.Inst = xmlDecl
			return
		}
	}
	doc.InsertChildAt(0, etree.NewProcInst("xml", xmlDecl))
}
