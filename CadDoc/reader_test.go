package CadDoc

import (
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/GrainArc/DxfSvg/CadDoc/dxftest"
	"github.com/rpaloschi/dxf-go/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// raw 把 code, value 交替的参数拼成DXF文本
func raw(pairs ...string) string {
	var sb strings.Builder
	for _, p := range pairs {
		sb.WriteString(p)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func TestReadLayersAndEntities(t *testing.T) {
	src := dxftest.New().
		Layer("KT-Dim", 1, false).
		Layer("Hidden", -3, false).
		Layer("Ice", 5, true).
		Line("KT-Dim", 0, 0, 10, 0).
		LWPolyline("Hidden", true, 0, 0, 1, 0, 1, 1).
		Circle("Ice", 5, 5, 2).
		String()

	doc, err := Read(strings.NewReader(src))
	require.NoError(t, err)

	layers := doc.Layers()
	require.Len(t, layers, 3)
	assert.True(t, layers[0].Visible())
	assert.False(t, layers[1].On)
	assert.Equal(t, 3, layers[1].Color)
	assert.True(t, layers[2].Frozen)

	ents := doc.ModelSpace()
	require.Len(t, ents, 3)
	line := ents[0].(*Line)
	assert.Equal(t, Point{X: 10, Y: 0}, line.End)
	assert.Equal(t, "KT-Dim", line.Layer())
	assert.NotEmpty(t, line.Handle())

	pl := ents[1].(*Polyline)
	assert.True(t, pl.Closed)
	assert.Len(t, pl.Points, 3)
	assert.Len(t, pl.Vertices(), 4)

	c := ents[2].(*Circle)
	assert.Equal(t, 2.0, c.Radius)
}

func TestReadDimensionAndBlock(t *testing.T) {
	src := dxftest.New().
		Layer("KT-Dim", 7, false).
		Block("*D1", "0", func(b *dxftest.Builder) {
			b.MText("0", `\A1;25.4`, 1, 1, 2.5)
			b.Line("0", 0, 0, 25.4, 0)
		}).
		Dimension("KT-Dim", "*D1", 25.4).
		DimensionNoMeasurement("KT-Dim", "*D1").
		String()

	doc, err := Read(strings.NewReader(src))
	require.NoError(t, err)

	blk, ok := doc.Block("*d1")
	require.True(t, ok)
	require.Len(t, blk.Entities, 2)
	mt := blk.Entities[0].(*MText)
	assert.Equal(t, `\A1;25.4`, mt.Value)
	assert.Equal(t, 2.5, mt.CharHeight.OrElse(0))

	ents := doc.ModelSpace()
	require.Len(t, ents, 2)
	d := ents[0].(*Dimension)
	name, ok := d.GeometryBlock.Get()
	assert.True(t, ok)
	assert.Equal(t, "*D1", name)
	assert.Equal(t, 25.4, d.Measurement.OrElse(0))
	assert.False(t, ents[1].(*Dimension).Measurement.IsSet())
}

func TestReadMTextChunks(t *testing.T) {
	src := raw(
		"0", "SECTION", "2", "ENTITIES",
		"0", "MTEXT", "8", "A", "10", "0", "20", "0",
		"3", "first ", "3", "second ", "1", "last",
		"0", "ENDSEC", "0", "EOF",
	)
	doc, err := Read(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, doc.ModelSpace(), 1)
	assert.Equal(t, "first second last", doc.ModelSpace()[0].(*MText).Value)
}

func TestReadPolylineVertices(t *testing.T) {
	src := raw(
		"0", "SECTION", "2", "ENTITIES",
		"0", "POLYLINE", "8", "P", "66", "1", "70", "1",
		"0", "VERTEX", "8", "P", "10", "0", "20", "0",
		"0", "VERTEX", "8", "P", "10", "4", "20", "0",
		"0", "VERTEX", "8", "P", "10", "9", "20", "9", "70", "16",
		"0", "VERTEX", "8", "P", "10", "4", "20", "3",
		"0", "SEQEND", "8", "P",
		"0", "LINE", "8", "P", "10", "0", "20", "0", "11", "1", "21", "1",
		"0", "ENDSEC", "0", "EOF",
	)
	doc, err := Read(strings.NewReader(src))
	require.NoError(t, err)
	ents := doc.ModelSpace()
	require.Len(t, ents, 2)
	pl := ents[0].(*Polyline)
	assert.True(t, pl.Closed)
	assert.Equal(t, []Point{{0, 0}, {4, 0}, {4, 3}}, pl.Points)
	assert.Equal(t, KindLine, ents[1].Kind())
}

func TestReadHatchPolylineBoundary(t *testing.T) {
	src := raw(
		"0", "SECTION", "2", "ENTITIES",
		"0", "HATCH", "8", "H", "10", "0", "20", "0", "30", "0",
		"2", "SOLID", "70", "1", "71", "0", "91", "1",
		"92", "2", "72", "0", "73", "1", "93", "4",
		"10", "0", "20", "0", "10", "2", "20", "0", "10", "2", "20", "2", "10", "0", "20", "2",
		"97", "0", "75", "0", "76", "1", "98", "0",
		"0", "ENDSEC", "0", "EOF",
	)
	doc, err := Read(strings.NewReader(src))
	require.NoError(t, err)
	h := doc.ModelSpace()[0].(*Hatch)
	assert.True(t, h.SolidFill)
	require.Len(t, h.Boundaries, 1)
	assert.Len(t, h.Boundaries[0], 5)
	assert.Equal(t, h.Boundaries[0][0], h.Boundaries[0][4])
}

func TestReadHatchEdgeBoundary(t *testing.T) {
	src := raw(
		"0", "SECTION", "2", "ENTITIES",
		"0", "HATCH", "8", "H", "2", "SOLID", "70", "1", "91", "1",
		"92", "1", "93", "3",
		"72", "1", "10", "0", "20", "0", "11", "4", "21", "0",
		"72", "1", "10", "4", "20", "0", "11", "4", "21", "4",
		"72", "1", "10", "4", "20", "4", "11", "0", "21", "0",
		"97", "0",
		"0", "ENDSEC", "0", "EOF",
	)
	doc, err := Read(strings.NewReader(src))
	require.NoError(t, err)
	h := doc.ModelSpace()[0].(*Hatch)
	require.Len(t, h.Boundaries, 1)
	assert.Equal(t, []Point{{0, 0}, {4, 0}, {4, 4}, {0, 0}}, h.Boundaries[0])
}

func TestReadSkipsPaperSpace(t *testing.T) {
	src := raw(
		"0", "SECTION", "2", "ENTITIES",
		"0", "LINE", "8", "A", "67", "1", "10", "0", "20", "0", "11", "1", "21", "1",
		"0", "LINE", "8", "A", "10", "0", "20", "0", "11", "2", "21", "2",
		"0", "ENDSEC", "0", "EOF",
	)
	doc, err := Read(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, doc.ModelSpace(), 1)
	assert.Equal(t, Point{X: 2, Y: 2}, doc.ModelSpace()[0].(*Line).End)
}

func TestReadCodePage(t *testing.T) {
	gbk, err := simplifiedchinese.GBK.NewEncoder().String("标注")
	require.NoError(t, err)

	src := dxftest.New().
		Header("$ACADVER", 1, "AC1015").
		Header("$DWGCODEPAGE", 3, "ANSI_936").
		Text("0", gbk, 0, 0, 1).
		Text("0", `\U+5C3A寸`, 0, 0, 1).
		String()
	doc, err := Read(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, "AC1015", doc.Version)
	require.Len(t, doc.ModelSpace(), 2)
	assert.Equal(t, "标注", doc.ModelSpace()[0].(*Text).Value)
}

func TestReadUnicodeEscape(t *testing.T) {
	src := dxftest.New().
		Header("$ACADVER", 1, "AC1027").
		Text("0", `\U+5C3A寸`, 0, 0, 1).
		String()
	doc, err := Read(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, "尺寸", doc.ModelSpace()[0].(*Text).Value)
}

func TestReadErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want error
	}{
		{"binary", "AutoCAD Binary DXF\r\n\x1a\x00", errBinaryDXF},
		{"odd", raw("0", "SECTION", "2"), errOddTagStream},
		{"empty", raw("999", "just a comment"), errNoSections},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tc.src))
			require.Error(t, err)
			var dfe *DocumentFormatError
			require.ErrorAs(t, err, &dfe)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err := Read(strings.NewReader(raw("0", "SECTION", "2", "ENTITIES", "0", "LINE", "abc", "x")))
	var dfe *DocumentFormatError
	require.ErrorAs(t, err, &dfe)
	assert.Equal(t, 7, dfe.Line)
}

func TestOpenMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.dxf")
	_, err := Open(path)
	var dfe *DocumentFormatError
	require.ErrorAs(t, err, &dfe)
	assert.Equal(t, path, dfe.Path)
}

func TestOpenSetsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.dxf")
	require.NoError(t, dxftest.New().Line("0", 0, 0, 1, 1).WriteFile(path))
	doc, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, path, doc.Path)
}

func TestLayerFilter(t *testing.T) {
	doc, err := Read(strings.NewReader(dxftest.New().
		Layer("A", 1, false).
		Layer("B", 2, true).
		Layer("C", -3, false).
		String()))
	require.NoError(t, err)

	assert.True(t, doc.LayerVisible("A"))
	assert.False(t, doc.LayerVisible("B"))
	assert.True(t, doc.LayerVisible("unknown"))

	f := doc.WithLayerFilter([]string{"B"})
	assert.False(t, f.LayerVisible("A"))
	assert.True(t, f.LayerVisible("B"))
	assert.False(t, f.LayerVisible("C"))
	assert.False(t, f.LayerVisible("unknown"))

	// 原文档不受影响
	assert.True(t, doc.LayerVisible("A"))
	assert.False(t, doc.LayerVisible("B"))

	all := doc.WithLayerFilter(nil)
	assert.True(t, all.LayerVisible("A"))
}

func TestBulgeSemicircle(t *testing.T) {
	pl := &Polyline{Points: []Point{{0, 0}, {2, 0}}, Bulges: []float64{1, 0}}
	pts := pl.Vertices()
	require.Greater(t, len(pts), 3)
	assert.Equal(t, Point{0, 0}, pts[0])
	assert.Equal(t, Point{2, 0}, pts[len(pts)-1])
	for _, p := range pts[1 : len(pts)-1] {
		assert.InDelta(t, 1.0, math.Hypot(p.X-1, p.Y), 1e-9)
		assert.Less(t, p.Y, 0.0)
	}
}

func TestInsertTransform(t *testing.T) {
	ins := &Insert{At: Point{X: 10, Y: 5}, ScaleX: 2, ScaleY: 2, Rotation: 90}
	tr := InsertTransform(ins, Point{X: 1, Y: 0})
	p := tr.Apply(Point{X: 2, Y: 0})
	assert.InDelta(t, 10, p.X, 1e-9)
	assert.InDelta(t, 7, p.Y, 1e-9)
}

func TestReadByteOrderMark(t *testing.T) {
	src := "\uFEFF" + dxftest.New().
		Layer("KT-Dim", 1, false).
		Line("KT-Dim", 0, 0, 10, 0).
		String()

	doc, err := Read(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, doc.ModelSpace(), 1)
	assert.Equal(t, "KT-Dim", doc.ModelSpace()[0].Layer())
}

func TestReadLayerTableFlags(t *testing.T) {
	src := raw(
		"0", "SECTION", "2", "TABLES",
		"0", "TABLE", "2", "LAYER", "70", "2",
		"0", "LAYER", "5", "10", "100", "AcDbLayerTableRecord", "2", "Dashed", "70", "4", "62", "-2", "6", "DASHED",
		"0", "LAYER", "5", "11", "2", "Plain", "70", "0", "62", "3",
		"0", "ENDTAB",
		"0", "ENDSEC", "0", "EOF",
	)
	doc, err := Read(strings.NewReader(src))
	require.NoError(t, err)
	layers := doc.Layers()
	require.Len(t, layers, 2)
	assert.Equal(t, "Dashed", layers[0].Name)
	assert.False(t, layers[0].On)
	assert.False(t, layers[0].Frozen)
	assert.Equal(t, 2, layers[0].Color)
	assert.Equal(t, "DASHED", layers[0].LineType)
	assert.True(t, layers[1].Visible())
	assert.Equal(t, "CONTINUOUS", layers[1].LineType)

	_, err = Read(strings.NewReader(raw(
		"0", "SECTION", "2", "TABLES",
		"0", "TABLE", "2", "LAYER",
		"0", "LAYER", "2", "Bad", "62", "red",
		"0", "ENDTAB", "0", "ENDSEC", "0", "EOF",
	)))
	var dfe *DocumentFormatError
	require.ErrorAs(t, err, &dfe)
	assert.Equal(t, 10, dfe.Line)
}

// 实体流仍由 readTags 切分：core.Tagger 会裁剪文本值，遇到未登记的组码直接 panic
func TestTagStreamKeepsWhatTaggerLoses(t *testing.T) {
	padded := raw(
		"0", "SECTION", "2", "ENTITIES",
		"0", "MTEXT", "8", "A", "10", "0", "20", "0", "1", "  A  ",
		"0", "ENDSEC", "0", "EOF",
	)
	tags := core.AllTags(core.Tagger(strings.NewReader(padded)))
	text := core.TagSlice(tags).AllWithCode(1)
	require.Len(t, text, 1)
	v, _ := core.AsString(text[0].Value)
	assert.Equal(t, "A", v)

	doc, err := Read(strings.NewReader(padded))
	require.NoError(t, err)
	assert.Equal(t, "  A  ", doc.ModelSpace()[0].(*MText).Value)

	large := raw(
		"0", "SECTION", "2", "ENTITIES",
		"0", "LWPOLYLINE", "8", "A", "160", "2048", "90", "2",
		"10", "0", "20", "0", "10", "1", "20", "1",
		"0", "ENDSEC", "0", "EOF",
	)
	assert.Panics(t, func() { core.AllTags(core.Tagger(strings.NewReader(large))) })

	doc, err = Read(strings.NewReader(large))
	require.NoError(t, err)
	require.Len(t, doc.ModelSpace(), 1)
	assert.Len(t, doc.ModelSpace()[0].(*Polyline).Points, 2)
}
