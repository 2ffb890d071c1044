package views

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/GrainArc/DxfSvg/CadDoc/dxftest"
	"github.com/GrainArc/DxfSvg/config"
	"github.com/GrainArc/DxfSvg/services"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drawing() []byte {
	return dxftest.New().
		Layer("KT-Dim", 7, false).
		Block("*D1", "0", func(b *dxftest.Builder) {
			b.Solid("0", [2]float64{0, 0}, [2]float64{2, 0}, [2]float64{0, 2})
			b.MText("0", `\A1;12.5`, 1, 1, 2.5)
		}).
		LWPolyline("KT-Dim", true, 0, 0, 10, 0, 10, 10).
		Dimension("KT-Dim", "*D1", 12.5).
		Bytes()
}

func newEngine(t *testing.T) (*gin.Engine, *DxfController) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	cfg.TempDir = t.TempDir()
	db, err := config.InitDatabase(filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	uc := NewDxfController(cfg, services.NewRecordService(db), zerolog.Nop())
	t.Cleanup(uc.Close)

	r := gin.New()
	g := r.Group("/dxf")
	g.POST("/Convert", uc.Convert)
	g.POST("/BatchConvert", uc.BatchConvert)
	g.POST("/Layers", uc.Layers)
	g.POST("/Dimensions", uc.Dimensions)
	g.POST("/GeoJSON", uc.GeoJSON)
	g.POST("/Preview", uc.Preview)
	g.POST("/ExportDXF", uc.ExportDXF)
	g.GET("/Records", uc.ListRecords)
	return r, uc
}

func upload(t *testing.T, r http.Handler, url, name string, data []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestConvertEndpoint(t *testing.T) {
	r, _ := newEngine(t)

	w := upload(t, r, "/dxf/Convert", "part.dxf", drawing(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
	assert.Equal(t, "1", w.Header().Get("X-Comments"))
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Contains(t, w.Body.String(), "Dimension: 12.5 | Group Id: patch_1")

	w = upload(t, r, "/dxf/Convert", "again.dxf", drawing(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dxf/Records", nil))
	var resp struct {
		Code int `json:"code"`
		Data struct {
			Total int64 `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Code)
	assert.EqualValues(t, 1, resp.Data.Total)
}

func TestConvertEndpointErrors(t *testing.T) {
	r, _ := newEngine(t)

	w := upload(t, r, "/dxf/Convert", "bad.dxf", []byte("0\nSECTION\n2"), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"code":-1`)

	w = upload(t, r, "/dxf/Convert", "part.dxf", drawing(), map[string]string{"policy": "random"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/dxf/Convert", strings.NewReader(""))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBatchEndpoint(t *testing.T) {
	r, _ := newEngine(t)

	var archive bytes.Buffer
	zw := zip.NewWriter(&archive)
	for _, name := range []string{"a.dxf", "dir/b.dxf"} {
		f, err := zw.Create(name)
		require.NoError(t, err)
		_, err = f.Write(drawing())
		require.NoError(t, err)
	}
	f, err := zw.Create("broken.dxf")
	require.NoError(t, err)
	_, err = f.Write([]byte("junk"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	w := upload(t, r, "/dxf/BatchConvert", "drawings.zip", archive.Bytes(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "2", w.Header().Get("X-Converted"))
	assert.Equal(t, "1", w.Header().Get("X-Failed"))

	zr, err := zip.NewReader(bytes.NewReader(w.Body.Bytes()), int64(w.Body.Len()))
	require.NoError(t, err)
	var names []string
	for _, zf := range zr.File {
		names = append(names, zf.Name)
	}
	assert.ElementsMatch(t, []string{"a.svg", "dir/b.svg"}, names)
}

func TestLayersAndDimensionsEndpoints(t *testing.T) {
	r, _ := newEngine(t)

	w := upload(t, r, "/dxf/Layers", "part.dxf", drawing(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"KT-Dim"`)

	w = upload(t, r, "/dxf/Dimensions", "part.dxf", drawing(), map[string]string{"layer": "KT-Dim"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data struct {
			Labels []struct {
				Text        string  `json:"text"`
				Measurement float64 `json:"measurement"`
			} `json:"labels"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Labels, 1)
	assert.Equal(t, "12.5", resp.Data.Labels[0].Text)
	assert.Equal(t, 12.5, resp.Data.Labels[0].Measurement)
}

func TestPreviewEndpoint(t *testing.T) {
	r, _ := newEngine(t)
	w := upload(t, r, "/dxf/Preview", "part.dxf", drawing(), map[string]string{"size": "128"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))
}

func TestGeoJSONEndpoint(t *testing.T) {
	r, _ := newEngine(t)

	w := upload(t, r, "/dxf/GeoJSON", "part.dxf", drawing(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type string `json:"type"`
			} `json:"geometry"`
			Properties map[string]string `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "Polygon", fc.Features[0].Geometry.Type)
	assert.Equal(t, "KT-Dim", fc.Features[0].Properties["layername"])

	w = upload(t, r, "/dxf/GeoJSON", "part.dxf", drawing(), map[string]string{"layers": "Nope"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fc))
	assert.Empty(t, fc.Features)
}

func TestExportDXFEndpoint(t *testing.T) {
	r, _ := newEngine(t)

	w := upload(t, r, "/dxf/ExportDXF", "part.dxf", drawing(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/dxf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "export.dxf")
	body := w.Body.String()
	assert.Contains(t, body, "LWPOLYLINE")
	assert.Contains(t, body, "KT-Dim")

	w = upload(t, r, "/dxf/ExportDXF", "bad.dxf", []byte("0\nSECTION\n2"), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
