package views

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/GrainArc/DxfSvg/CadDoc"
	"github.com/GrainArc/DxfSvg/ImgHandler"
	"github.com/GrainArc/DxfSvg/SvgAnnotate"
	"github.com/GrainArc/DxfSvg/SvgRender"
	"github.com/GrainArc/DxfSvg/Transformer"
	"github.com/GrainArc/DxfSvg/config"
	"github.com/GrainArc/DxfSvg/methods"
	"github.com/GrainArc/DxfSvg/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DxfController DXF上传转换接口
type DxfController struct {
	Config  config.Config
	Cache   *services.ResultCache
	Records *services.RecordService
	Logger  zerolog.Logger
}

func NewDxfController(cfg config.Config, records *services.RecordService, log zerolog.Logger) *DxfController {
	return &DxfController{
		Config:  cfg,
		Cache:   services.NewResultCache(cfg.CacheSize, time.Duration(cfg.CacheTTL)*time.Second),
		Records: records,
		Logger:  log,
	}
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"code": -1, "msg": msg})
}

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"code": 0, "data": data, "msg": "success"})
}

// errStatus 文档和图片格式错误属于请求问题
func errStatus(err error) int {
	var dfe *CadDoc.DocumentFormatError
	var ife *SvgAnnotate.ImageFormatError
	if errors.As(err, &dfe) || errors.As(err, &ife) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// options 表单参数 layers、policy 覆盖配置
func (uc *DxfController) options(c *gin.Context) (services.ConvertOptions, error) {
	policy, err := SvgAnnotate.ParsePolicy(c.DefaultPostForm("policy", uc.Config.Policy))
	if err != nil {
		return services.ConvertOptions{}, err
	}
	style := SvgRender.DefaultStyle
	style.Foreground = uc.Config.Foreground
	style.FigureSize = uc.Config.FigureSize
	style.DPI = uc.Config.DPI
	style.LineWidth = uc.Config.LineWidth
	return services.ConvertOptions{
		Layers:    config.SplitLayers(c.DefaultPostForm("layers", uc.Config.Layers)),
		Policy:    policy,
		Style:     style,
		Extension: uc.Config.Extension,
	}, nil
}

// saveUpload 保存上传文件到 TempDir/<uuid>/，返回文件路径和任务目录
func (uc *DxfController) saveUpload(c *gin.Context) (string, string, error) {
	file, err := c.FormFile("file")
	if err != nil {
		return "", "", fmt.Errorf("File upload failed: %w", err)
	}
	taskDir, err := filepath.Abs(filepath.Join(uc.Config.TempDir, uuid.New().String()))
	if err != nil {
		return "", "", err
	}
	if err := os.MkdirAll(taskDir, 0o755); err != nil {
		return "", "", err
	}
	path := filepath.Join(taskDir, filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, path); err != nil {
		os.RemoveAll(taskDir)
		return "", "", err
	}
	return path, taskDir, nil
}

func (uc *DxfController) service(opts services.ConvertOptions) *services.ConvertService {
	return services.NewConvertService(opts, uc.Records, uc.Logger)
}

// Convert 上传单个DXF，返回带标注注释的SVG。相同内容和参数命中缓存
func (uc *DxfController) Convert(c *gin.Context) {
	opts, err := uc.options(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	path, taskDir, err := uc.saveUpload(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	defer os.RemoveAll(taskDir)

	raw, err := os.ReadFile(path)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	key := methods.Md5Bytes(raw, strings.Join(opts.Layers, ","), opts.Policy.String())
	if item, ok := uc.Cache.Get(key); ok {
		c.Header("X-Comments", strconv.Itoa(item.Comments))
		c.Header("X-Cache", "HIT")
		c.Data(http.StatusOK, "image/svg+xml", item.Data)
		return
	}

	dst := strings.TrimSuffix(path, filepath.Ext(path)) + ".svg"
	res, err := uc.service(opts).ConvertFile(c.Request.Context(), path, dst)
	if err != nil {
		fail(c, errStatus(err), err.Error())
		return
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	uc.Cache.Set(key, data, res.Comments)
	c.Header("X-Comments", strconv.Itoa(res.Comments))
	c.Header("X-Cache", "MISS")
	c.Data(http.StatusOK, "image/svg+xml", data)
}

// BatchConvert 上传 zip/rar，返回所有SVG打包的zip
func (uc *DxfController) BatchConvert(c *gin.Context) {
	opts, err := uc.options(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	path, taskDir, err := uc.saveUpload(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	defer os.RemoveAll(taskDir)

	unpacked, err := methods.Unzip(path)
	if err != nil {
		fail(c, http.StatusBadRequest, "Failed to unzip file: "+err.Error())
		return
	}
	outDir := filepath.Join(taskDir, "svg")
	report, err := uc.service(opts).ConvertDir(c.Request.Context(), unpacked, outDir)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	if len(report.Converted) == 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"code": -1, "data": failures(report), "msg": "没有可转换的DXF文件"})
		return
	}
	data, err := methods.ZipFileOut(outDir, "svg")
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.Header("X-Task-Id", report.TaskID)
	c.Header("X-Converted", strconv.Itoa(len(report.Converted)))
	c.Header("X-Failed", strconv.Itoa(len(report.Failed)))
	c.Header("Content-Disposition", `attachment; filename="svg.zip"`)
	c.Data(http.StatusOK, "application/zip", data)
}

func failures(report *services.BatchReport) []gin.H {
	out := make([]gin.H, 0, len(report.Failed))
	for _, f := range report.Failed {
		out = append(out, gin.H{"path": filepath.Base(f.Path), "error": f.Err.Error()})
	}
	return out
}

// openUpload 保存并解析上传的DXF
func (uc *DxfController) openUpload(c *gin.Context) (*CadDoc.Document, string, bool) {
	path, taskDir, err := uc.saveUpload(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return nil, "", false
	}
	doc, err := CadDoc.Open(path)
	if err != nil {
		os.RemoveAll(taskDir)
		fail(c, errStatus(err), err.Error())
		return nil, "", false
	}
	return doc, taskDir, true
}

// Layers 图层清单
func (uc *DxfController) Layers(c *gin.Context) {
	doc, taskDir, ok := uc.openUpload(c)
	if !ok {
		return
	}
	defer os.RemoveAll(taskDir)
	success(c, gin.H{"version": doc.Version, "layers": Transformer.LayerInventory(doc)})
}

// Dimensions 标注及其几何块文字，form 参数 layer 为空时列出全部
func (uc *DxfController) Dimensions(c *gin.Context) {
	doc, taskDir, ok := uc.openUpload(c)
	if !ok {
		return
	}
	defer os.RemoveAll(taskDir)
	_, labels := Transformer.ExtractDimensions(doc)
	success(c, gin.H{
		"dimensions": Transformer.InspectDimensions(doc, c.PostForm("layer")),
		"labels":     labels.All(),
	})
}

// GeoJSON 多段线转GeoJSON
func (uc *DxfController) GeoJSON(c *gin.Context) {
	path, taskDir, err := uc.saveUpload(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	defer os.RemoveAll(taskDir)
	fc, err := Transformer.ConvertDXFFileToGeoJSON(path, config.SplitLayers(c.DefaultPostForm("layers", uc.Config.Layers)))
	if err != nil {
		fail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	c.JSON(http.StatusOK, fc)
}

// Preview PNG预览，form 参数 size 为长边像素，0 按配置的 FigureSize×DPI
func (uc *DxfController) Preview(c *gin.Context) {
	opts, err := uc.options(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	size, _ := strconv.Atoi(c.DefaultPostForm("size", "1024"))
	path, taskDir, err := uc.saveUpload(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	defer os.RemoveAll(taskDir)

	canvas, _, err := uc.service(opts).Canvas(path)
	if err != nil {
		fail(c, errStatus(err), err.Error())
		return
	}
	defer canvas.Close()
	data, err := ImgHandler.PreviewPNG(canvas, size)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}

// ExportDXF 把选中图层的几何展开后另存为DXF
func (uc *DxfController) ExportDXF(c *gin.Context) {
	opts, err := uc.options(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	path, taskDir, err := uc.saveUpload(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	defer os.RemoveAll(taskDir)

	canvas, _, err := uc.service(opts).Canvas(path)
	if err != nil {
		fail(c, errStatus(err), err.Error())
		return
	}
	defer canvas.Close()
	out := filepath.Join(taskDir, "export.dxf")
	if _, err := methods.ExportLayersDXF(canvas, out); err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	data, err := os.ReadFile(out)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.Header("Content-Disposition", `attachment; filename="export.dxf"`)
	c.Data(http.StatusOK, "application/dxf", data)
}

// ListRecords 转换记录分页
func (uc *DxfController) ListRecords(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	records, total, err := uc.Records.List(page, size)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	success(c, gin.H{"list": records, "total": total})
}

// TaskRecords 某次批量任务的记录
func (uc *DxfController) TaskRecords(c *gin.Context) {
	records, err := uc.Records.ByTask(c.Param("task"))
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	success(c, records)
}

// CleanTemp 定期清理遗留的临时目录，ctx 取消时退出
func (uc *DxfController) CleanTemp(ctx context.Context, every, age time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := methods.DeleteOlderThan(uc.Config.TempDir, age)
			if err != nil {
				uc.Logger.Warn().Err(err).Msg("清理临时目录失败")
				continue
			}
			if n > 0 {
				uc.Logger.Debug().Int("removed", n).Msg("已清理临时目录")
			}
		}
	}
}

// Close 释放缓存
func (uc *DxfController) Close() {
	uc.Cache.Close()
}
