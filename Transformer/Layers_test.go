package Transformer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/GrainArc/DxfSvg/CadDoc/dxftest"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func TestLayerInventory(t *testing.T) {
	doc := readDoc(t, dxftest.New().
		Layer("Walls", 1, false).
		Layer("Empty", -2, false).
		Line("Walls", 0, 0, 1, 1).
		Line("Walls", 1, 1, 2, 2).
		Circle("Stray", 0, 0, 1))

	inv := LayerInventory(doc)
	require.Len(t, inv, 3)
	assert.Equal(t, "Empty", inv[0].Name)
	assert.Equal(t, 0, inv[0].Entities)
	assert.False(t, inv[0].On)
	assert.Equal(t, "Stray", inv[1].Name)
	assert.False(t, inv[1].InTable)
	assert.Equal(t, 2, inv[2].Entities)
}

func TestFindFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	for _, name := range []string{"b.DXF", "sub/a.dxf", "c.txt", "sub/d.dxf.bak"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), nil, 0o644))
	}

	files, err := FindFiles(root, "dxf")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "b.DXF"), filepath.Join(root, "sub", "a.dxf")}, files)

	_, err = FindFiles(filepath.Join(root, "missing"), "dxf")
	assert.Error(t, err)
}

func TestCreateFeature(t *testing.T) {
	square := []orb.Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	f := createFeature(square, "A", true)
	require.NotNil(t, f)
	assert.Equal(t, "Polygon", f.Geometry.GeoJSONType())

	f = createFeature(square, "A", false)
	assert.Equal(t, "LineString", f.Geometry.GeoJSONType())

	assert.Nil(t, createFeature(square[:1], "A", false))
}

func TestGbkToUtf8(t *testing.T) {
	gbk, err := simplifiedchinese.GBK.NewEncoder().String("图层")
	require.NoError(t, err)
	assert.Equal(t, "图层", GbkToUtf8(gbk))
	assert.Equal(t, "图层", GbkToUtf8("图层"))

	f := newLayerFilter([]string{"图层"})
	assert.True(t, f.allows(gbk))
	assert.False(t, f.allows("other"))
	assert.True(t, newLayerFilter(nil).allows("any"))
}
