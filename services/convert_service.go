package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/GrainArc/DxfSvg/CadDoc"
	"github.com/GrainArc/DxfSvg/SvgAnnotate"
	"github.com/GrainArc/DxfSvg/SvgRender"
	"github.com/GrainArc/DxfSvg/Transformer"
	"github.com/GrainArc/DxfSvg/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ConvertOptions 一次转换的参数
type ConvertOptions struct {
	Layers    []string
	Policy    SvgAnnotate.Policy
	Style     SvgRender.Style
	Extension string
}

type ConvertResult struct {
	Source   string          `json:"source"`
	Output   string          `json:"output"`
	Labels   []models.Label  `json:"labels"`
	Comments int             `json:"comments"`
	Stats    SvgRender.Stats `json:"stats"`
}

// FileError 批量转换中某个文件的失败
type FileError struct {
	Path string `json:"path"`
	Err  error  `json:"-"`
}

func (e FileError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

type BatchReport struct {
	TaskID    string          `json:"task_id"`
	Converted []ConvertResult `json:"converted"`
	Failed    []FileError     `json:"failed"`
}

// ConvertService DXF → 带标注注释的SVG
type ConvertService struct {
	opts      ConvertOptions
	renderer  *SvgRender.Renderer
	annotator *SvgAnnotate.Annotator
	records   *RecordService
	log       zerolog.Logger
}

func NewConvertService(opts ConvertOptions, records *RecordService, log zerolog.Logger) *ConvertService {
	if opts.Extension == "" {
		opts.Extension = "dxf"
	}
	renderer := SvgRender.NewRenderer(opts.Style)
	renderer.Logger = log
	annotator := SvgAnnotate.NewAnnotator(opts.Policy)
	annotator.Logger = log
	return &ConvertService{
		opts:      opts,
		renderer:  renderer,
		annotator: annotator,
		records:   records,
		log:       log,
	}
}

func (s *ConvertService) Options() ConvertOptions {
	return s.opts
}

// OutputPath src 对应的SVG路径；outDir 为空时与输入同目录，否则保留相对 root 的子目录
func OutputPath(src, root, outDir string) string {
	name := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)) + ".svg"
	if outDir == "" {
		return filepath.Join(filepath.Dir(src), name)
	}
	rel, err := filepath.Rel(root, filepath.Dir(src))
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = "."
	}
	return filepath.Join(outDir, rel, name)
}

// ConvertFile 打开、提取标注、渲染、加注释。各阶段的错误类型保持不变：
// *CadDoc.DocumentFormatError、*SvgRender.RenderError、*SvgAnnotate.ImageFormatError
func (s *ConvertService) ConvertFile(ctx context.Context, src, dst string) (*ConvertResult, error) {
	return s.convert(ctx, uuid.New().String(), src, dst)
}

func (s *ConvertService) convert(ctx context.Context, taskID, src, dst string) (*ConvertResult, error) {
	res, err := s.run(ctx, src, dst)
	rec := &models.ConvertRecord{
		TaskID: taskID,
		Source: src,
		Output: dst,
		Layers: strings.Join(s.opts.Layers, ","),
		Status: models.StatusOK,
	}
	if err != nil {
		rec.Status = models.StatusFailed
		rec.Error = err.Error()
		s.log.Error().Err(err).Str("file", src).Msg("转换失败")
	} else {
		labels := models.NewLabelSet()
		for _, l := range res.Labels {
			labels.Set(l.Text, l.Measurement)
		}
		rec.Labels = LabelsJSON(labels)
		rec.Comments = res.Comments
		s.log.Info().
			Str("file", src).
			Str("output", dst).
			Int("labels", len(res.Labels)).
			Int("comments", res.Comments).
			Msg("转换完成")
	}
	if rerr := s.records.Save(rec); rerr != nil {
		s.log.Warn().Err(rerr).Str("file", src).Msg("保存转换记录失败")
	}
	return res, err
}

func (s *ConvertService) run(ctx context.Context, src, dst string) (*ConvertResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := CadDoc.Open(src)
	if err != nil {
		return nil, err
	}
	cleaned, labels := Transformer.ExtractDimensions(doc)

	stats, err := s.renderer.Render(cleaned, dst, s.opts.Layers)
	if err != nil {
		return nil, err
	}
	comments, err := s.annotator.AnnotateFile(dst, labels)
	if err != nil {
		return nil, err
	}
	return &ConvertResult{
		Source:   src,
		Output:   dst,
		Labels:   labels.All(),
		Comments: comments,
		Stats:    *stats,
	}, nil
}

// ConvertDir 递归转换 dir 下的所有DXF。单个文件失败记录后继续，
// 每个文件开始前检查 ctx，取消时返回已完成部分和 ctx 的错误
func (s *ConvertService) ConvertDir(ctx context.Context, dir, outDir string) (*BatchReport, error) {
	files, err := Transformer.FindFiles(dir, s.opts.Extension)
	if err != nil {
		return nil, fmt.Errorf("查找 %s 文件失败: %w", s.opts.Extension, err)
	}
	report := &BatchReport{TaskID: uuid.New().String()}
	s.log.Info().Str("dir", dir).Int("files", len(files)).Str("task", report.TaskID).Msg("开始批量转换")

	for _, src := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		dst := OutputPath(src, dir, outDir)
		if outDir != "" {
			if err := os.MkdirAll(filepath.Dir(dst), os.ModePerm); err != nil {
				report.Failed = append(report.Failed, FileError{Path: src, Err: err})
				continue
			}
		}
		res, err := s.convert(ctx, report.TaskID, src, dst)
		if err != nil {
			report.Failed = append(report.Failed, FileError{Path: src, Err: err})
			continue
		}
		report.Converted = append(report.Converted, *res)
	}

	s.log.Info().
		Str("task", report.TaskID).
		Int("converted", len(report.Converted)).
		Int("failed", len(report.Failed)).
		Msg("批量转换结束")
	return report, nil
}

// Canvas 打开文件、清理标注文字并绘制，不写文件。调用方负责 Close
func (s *ConvertService) Canvas(src string) (*SvgRender.Canvas, *models.LabelSet, error) {
	doc, err := CadDoc.Open(src)
	if err != nil {
		return nil, nil, err
	}
	cleaned, labels := Transformer.ExtractDimensions(doc)
	canvas, _, err := s.renderer.Draw(cleaned, s.opts.Layers)
	if err != nil {
		return nil, nil, err
	}
	return canvas, labels, nil
}
