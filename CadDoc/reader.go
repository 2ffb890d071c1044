package CadDoc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const binarySentinel = "AutoCAD Binary DXF"

// tag 一个组码/值对
type tag struct {
	code  int
	value string
	line  int
}

// record 以组码0开头的一段组码，kind 为组码0的值
type record struct {
	kind string
	line int
	tags []tag
}

// first 第一次出现的组码
func (r record) first(code int) (tag, bool) {
	for _, t := range r.tags {
		if t.code == code {
			return t, true
		}
	}
	return tag{}, false
}

type parser struct {
	doc  *Document
	text *textDecoder
	err  error
}

// Open 打开并解析DXF文件
func Open(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DocumentFormatError{Path: path, Err: err}
	}
	defer f.Close()

	doc, err := Read(f)
	if err != nil {
		var dfe *DocumentFormatError
		if errors.As(err, &dfe) {
			dfe.Path = path
			return nil, dfe
		}
		return nil, &DocumentFormatError{Path: path, Err: err}
	}
	doc.Path = path
	return doc, nil
}

// Read 从 r 解析ASCII格式的DXF
func Read(r io.Reader) (*Document, error) {
	br := bufio.NewReader(r)
	if head, _ := br.Peek(len(binarySentinel)); string(head) == binarySentinel {
		return nil, &DocumentFormatError{Err: errBinaryDXF}
	}

	tags, err := readTags(br)
	if err != nil {
		return nil, err
	}
	sections, err := splitSections(tags)
	if err != nil {
		return nil, err
	}

	p := &parser{doc: NewDocument()}
	if hdr, ok := sections["HEADER"]; ok {
		p.readHeader(hdr)
	}
	p.text = newTextDecoder(p.doc.Version, p.doc.CodePage)
	if tbl, ok := sections["TABLES"]; ok {
		p.readTables(tbl)
	}
	if blk, ok := sections["BLOCKS"]; ok {
		p.readBlocks(blk)
	}
	if ent, ok := sections["ENTITIES"]; ok {
		for _, e := range p.entities(splitRecords(ent)) {
			if b := baseOf(e); b != nil && b.PaperSpace {
				continue
			}
			p.doc.AddEntity(e)
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	return p.doc, nil
}

func readTags(r io.Reader) ([]tag, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)

	var tags []tag
	line := 0
	for sc.Scan() {
		line++
		codeLine := strings.TrimSpace(sc.Text())
		if line == 1 {
			codeLine = strings.TrimPrefix(codeLine, "\uFEFF")
		}
		if codeLine == "" {
			continue
		}
		code, err := strconv.Atoi(codeLine)
		if err != nil {
			return nil, &DocumentFormatError{Line: line, Err: fmt.Errorf("bad group code %q", codeLine)}
		}
		if !sc.Scan() {
			return nil, &DocumentFormatError{Line: line, Err: errOddTagStream}
		}
		line++
		value := sc.Text()
		if code == 0 {
			value = strings.TrimSpace(value)
		}
		tags = append(tags, tag{code: code, value: value, line: line})
		if code == 0 && value == "EOF" {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &DocumentFormatError{Line: line, Err: err}
	}
	return tags, nil
}

func splitSections(tags []tag) (map[string][]tag, error) {
	sections := make(map[string][]tag)
	for i := 0; i < len(tags); i++ {
		t := tags[i]
		if t.code != 0 || t.value != "SECTION" {
			continue
		}
		if i+1 >= len(tags) || tags[i+1].code != 2 {
			return nil, &DocumentFormatError{Line: t.line, Err: errors.New("SECTION without name")}
		}
		name := strings.ToUpper(strings.TrimSpace(tags[i+1].value))
		end := i + 2
		for end < len(tags) && !(tags[end].code == 0 && tags[end].value == "ENDSEC") {
			end++
		}
		if end == len(tags) {
			return nil, &DocumentFormatError{Line: t.line, Err: fmt.Errorf("section %s is not terminated", name)}
		}
		sections[name] = tags[i+2 : end]
		i = end
	}
	if len(sections) == 0 {
		return nil, &DocumentFormatError{Err: errNoSections}
	}
	return sections, nil
}

func splitRecords(tags []tag) []record {
	var out []record
	for _, t := range tags {
		if t.code == 0 {
			out = append(out, record{kind: strings.ToUpper(t.value), line: t.line})
			continue
		}
		if len(out) == 0 {
			continue
		}
		last := &out[len(out)-1]
		last.tags = append(last.tags, t)
	}
	return out
}

func (p *parser) fail(line int, err error) {
	if p.err == nil {
		p.err = &DocumentFormatError{Line: line, Err: err}
	}
}

func (p *parser) num(t tag) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(t.value), 64)
	if err != nil {
		p.fail(t.line, fmt.Errorf("group %d: %w", t.code, err))
		return 0
	}
	return v
}

func (p *parser) integer(t tag) int {
	s := strings.TrimSpace(t.value)
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	// 少数导出程序把整数组码写成浮点
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.fail(t.line, fmt.Errorf("group %d: %w", t.code, err))
		return 0
	}
	return int(f)
}

func (p *parser) str(t tag) string {
	return p.text.decode(t.value)
}

func (p *parser) numOr(r record, code int, dflt float64) float64 {
	if t, ok := r.first(code); ok {
		return p.num(t)
	}
	return dflt
}

func (p *parser) intOr(r record, code int, dflt int) int {
	if t, ok := r.first(code); ok {
		return p.integer(t)
	}
	return dflt
}

func (p *parser) strOr(r record, code int, dflt string) string {
	if t, ok := r.first(code); ok {
		return p.str(t)
	}
	return dflt
}

func (p *parser) point(r record, xCode int) Point {
	return Point{X: p.numOr(r, xCode, 0), Y: p.numOr(r, xCode+10, 0)}
}

func (p *parser) readHeader(tags []tag) {
	name := ""
	for _, t := range tags {
		if t.code == 9 {
			name = strings.TrimSpace(t.value)
			continue
		}
		switch name {
		case "$ACADVER":
			p.doc.Version = strings.TrimSpace(t.value)
		case "$DWGCODEPAGE":
			p.doc.CodePage = strings.TrimSpace(t.value)
		}
		name = ""
	}
}

func (p *parser) readTables(tags []tag) {
	table := ""
	for _, rec := range splitRecords(tags) {
		switch rec.kind {
		case "TABLE":
			table = strings.ToUpper(strings.TrimSpace(p.strOr(rec, 2, "")))
		case "ENDTAB":
			table = ""
		case "LAYER":
			if table == "LAYER" {
				p.doc.AddLayer(p.layer(rec))
			}
		}
	}
}

func (p *parser) readBlocks(tags []tag) {
	var cur *Block
	var body []record
	for _, rec := range splitRecords(tags) {
		switch rec.kind {
		case "BLOCK":
			cur = &Block{
				Name:  p.strOr(rec, 2, p.strOr(rec, 3, "")),
				Base:  p.point(rec, 10),
				Layer: p.strOr(rec, 8, "0"),
			}
			body = nil
		case "ENDBLK":
			if cur != nil && cur.Name != "" {
				cur.Entities = p.entities(body)
				p.doc.AddBlock(cur)
			}
			cur = nil
		default:
			if cur != nil {
				body = append(body, rec)
			}
		}
	}
}

// entities 把记录序列转成实体；POLYLINE 吞掉后续 VERTEX 和 SEQEND
func (p *parser) entities(recs []record) []Entity {
	var out []Entity
	for i := 0; i < len(recs); i++ {
		rec := recs[i]
		if rec.kind == "POLYLINE" {
			pl := p.polyline(rec)
			j := i + 1
			for ; j < len(recs) && recs[j].kind == "VERTEX"; j++ {
				p.vertex(pl, recs[j])
			}
			if j < len(recs) && recs[j].kind == "SEQEND" {
				i = j
			} else {
				i = j - 1
			}
			out = append(out, pl)
			continue
		}
		if e := p.entity(rec); e != nil {
			out = append(out, e)
		}
	}
	return out
}

func (p *parser) base(rec record) Base {
	b := Base{LayerName: "0"}
	if t, ok := rec.first(5); ok {
		b.HandleID = strings.TrimSpace(t.value)
	}
	if t, ok := rec.first(8); ok {
		b.LayerName = p.str(t)
	}
	if t, ok := rec.first(62); ok {
		b.Color = Some(p.integer(t))
	}
	if t, ok := rec.first(67); ok {
		b.PaperSpace = p.integer(t) == 1
	}
	return b
}

func baseOf(e Entity) *Base {
	switch v := e.(type) {
	case *Line:
		return &v.Base
	case *Polyline:
		return &v.Base
	case *Circle:
		return &v.Base
	case *Arc:
		return &v.Base
	case *Text:
		return &v.Base
	case *MText:
		return &v.Base
	case *Solid:
		return &v.Base
	case *Hatch:
		return &v.Base
	case *Insert:
		return &v.Base
	case *Dimension:
		return &v.Base
	}
	return nil
}

// entity 解析单个实体，不支持的类型返回 nil
func (p *parser) entity(rec record) Entity {
	switch rec.kind {
	case "LINE":
		return &Line{Base: p.base(rec), Start: p.point(rec, 10), End: p.point(rec, 11)}
	case "LWPOLYLINE":
		return p.lwpolyline(rec)
	case "CIRCLE":
		return &Circle{Base: p.base(rec), Center: p.point(rec, 10), Radius: p.numOr(rec, 40, 0)}
	case "ARC":
		return &Arc{
			Base:       p.base(rec),
			Center:     p.point(rec, 10),
			Radius:     p.numOr(rec, 40, 0),
			StartAngle: p.numOr(rec, 50, 0),
			EndAngle:   p.numOr(rec, 51, 360),
		}
	case "TEXT":
		return &Text{
			Base:     p.base(rec),
			Insert:   p.point(rec, 10),
			Height:   p.numOr(rec, 40, 2.5),
			Rotation: p.numOr(rec, 50, 0),
			Value:    p.strOr(rec, 1, ""),
		}
	case "MTEXT":
		return p.mtext(rec)
	case "SOLID", "TRACE":
		return p.solid(rec)
	case "HATCH":
		return p.hatch(rec)
	case "INSERT":
		return &Insert{
			Base:      p.base(rec),
			BlockName: p.strOr(rec, 2, ""),
			At:        p.point(rec, 10),
			ScaleX:    p.numOr(rec, 41, 1),
			ScaleY:    p.numOr(rec, 42, 1),
			Rotation:  p.numOr(rec, 50, 0),
		}
	case "DIMENSION":
		return p.dimension(rec)
	}
	return nil
}

func (p *parser) lwpolyline(rec record) *Polyline {
	pl := &Polyline{Base: p.base(rec)}
	for _, t := range rec.tags {
		switch t.code {
		case 10:
			pl.Points = append(pl.Points, Point{X: p.num(t)})
			pl.Bulges = append(pl.Bulges, 0)
		case 20:
			if n := len(pl.Points); n > 0 {
				pl.Points[n-1].Y = p.num(t)
			}
		case 42:
			if n := len(pl.Bulges); n > 0 {
				pl.Bulges[n-1] = p.num(t)
			}
		case 70:
			pl.Closed = p.integer(t)&1 != 0
		}
	}
	return pl
}

func (p *parser) polyline(rec record) *Polyline {
	return &Polyline{Base: p.base(rec), Closed: p.intOr(rec, 70, 0)&1 != 0}
}

func (p *parser) vertex(pl *Polyline, rec record) {
	// 16: 样条框架控制点，不参与绘制
	if p.intOr(rec, 70, 0)&16 != 0 {
		return
	}
	pl.Points = append(pl.Points, p.point(rec, 10))
	pl.Bulges = append(pl.Bulges, p.numOr(rec, 42, 0))
}

func (p *parser) mtext(rec record) *MText {
	m := &MText{
		Base:       p.base(rec),
		Insert:     p.point(rec, 10),
		Rotation:   p.numOr(rec, 50, 0),
		Attachment: p.intOr(rec, 71, 1),
	}
	if t, ok := rec.first(40); ok {
		m.CharHeight = Some(p.num(t))
	}
	if t, ok := rec.first(41); ok {
		m.Width = Some(p.num(t))
	}
	// 长文本拆成若干个组码3，最后一段是组码1
	var sb strings.Builder
	for _, t := range rec.tags {
		if t.code == 3 {
			sb.WriteString(t.value)
		}
	}
	if t, ok := rec.first(1); ok {
		sb.WriteString(t.value)
	}
	m.Value = p.text.decode(sb.String())
	return m
}

func (p *parser) solid(rec record) *Solid {
	c1, c2, c3 := p.point(rec, 10), p.point(rec, 11), p.point(rec, 12)
	c4 := c3
	if _, ok := rec.first(13); ok {
		c4 = p.point(rec, 13)
	}
	// SOLID 的第三、四点是交叉存储的
	corners := []Point{c1, c2, c4, c3}
	if c4 == c3 {
		corners = []Point{c1, c2, c3}
	}
	return &Solid{Base: p.base(rec), Corners: corners}
}

func (p *parser) dimension(rec record) *Dimension {
	d := &Dimension{
		Base:     p.base(rec),
		DefPoint: p.point(rec, 10),
		DimType:  p.intOr(rec, 70, 0),
	}
	if t, ok := rec.first(2); ok {
		if name := strings.TrimSpace(p.str(t)); name != "" {
			d.GeometryBlock = Some(name)
		}
	}
	if t, ok := rec.first(42); ok {
		d.Measurement = Some(p.num(t))
	}
	if t, ok := rec.first(1); ok {
		d.Override = Some(p.str(t))
	}
	if _, ok := rec.first(11); ok {
		d.TextMidPoint = Some(p.point(rec, 11))
	}
	return d
}

// hatch 读取填充边界。边界从组码91开始，椭圆、样条边界不支持，遇到时停止读取
func (p *parser) hatch(rec record) *Hatch {
	h := &Hatch{
		Base:      p.base(rec),
		Pattern:   p.strOr(rec, 2, ""),
		SolidFill: p.intOr(rec, 70, 0) == 1,
	}
	tags := rec.tags
	i := 0
	for i < len(tags) && tags[i].code != 91 {
		i++
	}
	if i == len(tags) {
		return h
	}
	paths := p.integer(tags[i])
	i++
	for n := 0; n < paths; n++ {
		for i < len(tags) && tags[i].code != 92 {
			i++
		}
		if i == len(tags) {
			break
		}
		flags := p.integer(tags[i])
		i++
		var ring []Point
		if flags&2 != 0 {
			ring, i = p.hatchPolyline(tags, i)
		} else {
			var ok bool
			ring, i, ok = p.hatchEdges(tags, i)
			if !ok {
				return h
			}
		}
		if len(ring) > 1 {
			h.Boundaries = append(h.Boundaries, ring)
		}
	}
	return h
}

func (p *parser) hatchPolyline(tags []tag, i int) ([]Point, int) {
	for i < len(tags) && tags[i].code != 93 {
		i++
	}
	if i == len(tags) {
		return nil, i
	}
	count := p.integer(tags[i])
	i++
	pl := &Polyline{Closed: true}
loop:
	for i < len(tags) {
		t := tags[i]
		switch t.code {
		case 10:
			if len(pl.Points) == count {
				break loop
			}
			pl.Points = append(pl.Points, Point{X: p.num(t)})
			pl.Bulges = append(pl.Bulges, 0)
		case 20:
			if n := len(pl.Points); n > 0 {
				pl.Points[n-1].Y = p.num(t)
			}
		case 42:
			if n := len(pl.Bulges); n > 0 {
				pl.Bulges[n-1] = p.num(t)
			}
		default:
			break loop
		}
		i++
	}
	return pl.Vertices(), i
}

var edgeCodes = map[int]bool{10: true, 20: true, 11: true, 21: true, 40: true, 50: true, 51: true, 73: true}

func (p *parser) hatchEdges(tags []tag, i int) ([]Point, int, bool) {
	if i >= len(tags) || tags[i].code != 93 {
		return nil, i, true
	}
	count := p.integer(tags[i])
	i++
	var ring []Point
	for e := 0; e < count; e++ {
		if i >= len(tags) || tags[i].code != 72 {
			return ring, i, true
		}
		kind := p.integer(tags[i])
		i++
		vals := make(map[int]float64, 8)
		for i < len(tags) && edgeCodes[tags[i].code] {
			vals[tags[i].code] = p.num(tags[i])
			i++
		}
		switch kind {
		case 1:
			ring = joinPoints(ring, []Point{{X: vals[10], Y: vals[20]}, {X: vals[11], Y: vals[21]}})
		case 2:
			c := Point{X: vals[10], Y: vals[20]}
			ccw := true
			if v, ok := vals[73]; ok {
				ccw = v != 0
			}
			if ccw {
				ring = joinPoints(ring, ArcPoints(c, vals[40], vals[50], vals[51]))
			} else {
				// 顺时针弧的角度按镜像存储
				pts := ArcPoints(c, vals[40], 360-vals[51], 360-vals[50])
				for l, r := 0, len(pts)-1; l < r; l, r = l+1, r-1 {
					pts[l], pts[r] = pts[r], pts[l]
				}
				ring = joinPoints(ring, pts)
			}
		default:
			return nil, i, false
		}
	}
	return ring, i, true
}

// joinPoints 拼接点列，去掉衔接处的重复点
func joinPoints(ring, pts []Point) []Point {
	if len(ring) > 0 && len(pts) > 0 && ring[len(ring)-1] == pts[0] {
		pts = pts[1:]
	}
	return append(ring, pts...)
}
