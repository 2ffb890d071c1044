package Transformer

import (
	"fmt"
	"io"
	"math"
	"os"
	"unicode/utf8"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rpaloschi/dxf-go/document"
	"github.com/rpaloschi/dxf-go/entities"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

const (
	tolerance = 1e-6 // 浮点数比较容差
)

// GbkToUtf8 旧版DXF的图层名常为GBK，已是UTF-8的原样返回
func GbkToUtf8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	gbkDecoder := simplifiedchinese.GBK.NewDecoder()
	utf8String, _, err := transform.String(gbkDecoder, s)
	if err != nil {
		return s
	}
	return utf8String
}

// 判断两个点是否相等（考虑浮点数误差）
func pointsEqual(p1, p2 orb.Point) bool {
	return math.Abs(p1[0]-p2[0]) < tolerance && math.Abs(p1[1]-p2[1]) < tolerance
}

// 判断线是否闭合（首尾节点相等）
func isClosedLine(coords []orb.Point) bool {
	if len(coords) < 2 {
		return false
	}
	return pointsEqual(coords[0], coords[len(coords)-1])
}

// 创建几何要素（自动判断是线还是面）
func createFeature(coords []orb.Point, layerName string, forceClosed bool) *geojson.Feature {
	if len(coords) < 2 {
		return nil
	}

	if forceClosed || isClosedLine(coords) {
		closedCoords := coords
		if !pointsEqual(coords[0], coords[len(coords)-1]) {
			closedCoords = append([]orb.Point{}, coords...)
			closedCoords = append(closedCoords, coords[0])
		}
		// 面至少需要4个点（包括闭合点）
		if len(closedCoords) >= 4 {
			feature := geojson.NewFeature(orb.Polygon{orb.Ring(closedCoords)})
			feature.Properties["layername"] = GbkToUtf8(layerName)
			return feature
		}
	}

	feature := geojson.NewFeature(orb.LineString(coords))
	feature.Properties["layername"] = GbkToUtf8(layerName)
	return feature
}

// layerFilter 可见图层集合，空集合表示全部
type layerFilter map[string]struct{}

func newLayerFilter(visible []string) layerFilter {
	if len(visible) == 0 {
		return nil
	}
	f := make(layerFilter, len(visible))
	for _, name := range visible {
		f[name] = struct{}{}
	}
	return f
}

func (f layerFilter) allows(layer string) bool {
	if f == nil {
		return true
	}
	_, ok := f[GbkToUtf8(layer)]
	return ok
}

// polylineFeature 多段线转要素，非多段线或被过滤时返回 nil
func polylineFeature(entity entities.Entity, filter layerFilter) *geojson.Feature {
	if polyline, ok := entity.(*entities.Polyline); ok {
		if !filter.allows(polyline.LayerName) {
			return nil
		}
		var coords []orb.Point
		for _, vertex := range polyline.Vertices {
			coords = append(coords, orb.Point{vertex.Location.X, vertex.Location.Y})
		}
		return createFeature(coords, polyline.LayerName, false)
	}
	if lwpolyline, ok := entity.(*entities.LWPolyline); ok {
		if !filter.allows(lwpolyline.LayerName) {
			return nil
		}
		var coords []orb.Point
		for _, vertex := range lwpolyline.Points {
			coords = append(coords, orb.Point{vertex.Point.X, vertex.Point.Y})
		}
		return createFeature(coords, lwpolyline.LayerName, lwpolyline.Closed)
	}
	return nil
}

// ConvertDXFToGeoJSON 把模型空间和块中的多段线转成要素集合，闭合的转为面
func ConvertDXFToGeoJSON(r io.Reader, visible []string) (*geojson.FeatureCollection, error) {
	doc, err := document.DxfDocumentFromStream(r)
	if err != nil {
		return nil, fmt.Errorf("读取DXF失败: %w", err)
	}
	filter := newLayerFilter(visible)
	featureCollection := geojson.NewFeatureCollection()

	for _, entity := range doc.Entities.Entities {
		if feature := polylineFeature(entity, filter); feature != nil {
			featureCollection.Append(feature)
		}
	}
	//块中的多段线
	for _, block := range doc.Blocks {
		for _, entity := range block.Entities {
			if feature := polylineFeature(entity, filter); feature != nil {
				featureCollection.Append(feature)
			}
		}
	}
	return featureCollection, nil
}

func ConvertDXFFileToGeoJSON(path string, visible []string) (*geojson.FeatureCollection, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ConvertDXFToGeoJSON(file, visible)
}
