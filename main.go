package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/GrainArc/DxfSvg/CadDoc"
	"github.com/GrainArc/DxfSvg/ImgHandler"
	"github.com/GrainArc/DxfSvg/SvgAnnotate"
	"github.com/GrainArc/DxfSvg/SvgRender"
	"github.com/GrainArc/DxfSvg/Transformer"
	"github.com/GrainArc/DxfSvg/config"
	"github.com/GrainArc/DxfSvg/logger"
	"github.com/GrainArc/DxfSvg/methods"
	"github.com/GrainArc/DxfSvg/routers"
	"github.com/GrainArc/DxfSvg/services"
	"github.com/GrainArc/DxfSvg/views"
	"github.com/gin-gonic/gin"
	"github.com/rpaloschi/dxf-go/core"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// 命令行参数，非空时覆盖配置文件
type flags struct {
	configPath string
	layers     string
	policy     string
	foreground string
	figureSize float64
	dpi        float64
	lineWidth  float64
	outDir     string
	database   string
	logPath    string
	logLevel   string
	listen     string
	layer      string
	size       int
}

type app struct {
	cfg     config.Config
	log     zerolog.Logger
	logData *logger.LogData
	records *services.RecordService
}

func (f *flags) load() (*app, error) {
	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.layers != "" {
		cfg.Layers = f.layers
	}
	if f.policy != "" {
		cfg.Policy = f.policy
	}
	if f.foreground != "" {
		cfg.Foreground = f.foreground
	}
	if f.figureSize > 0 {
		cfg.FigureSize = f.figureSize
	}
	if f.dpi > 0 {
		cfg.DPI = f.dpi
	}
	if f.lineWidth > 0 {
		cfg.LineWidth = f.lineWidth
	}
	if f.outDir != "" {
		cfg.OutputDir = f.outDir
	}
	if f.database != "" {
		cfg.Database = f.database
	}
	if f.logPath != "" {
		cfg.LogPath = f.logPath
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if f.listen != "" {
		cfg.MainRouter = f.listen
	}
	config.MainConfig = cfg

	logData, err := logger.New().FromPath(cfg.LogPath).Level(cfg.LogLevel).Make()
	if err != nil {
		return nil, fmt.Errorf("创建日志失败: %w", err)
	}
	a := &app{cfg: cfg, log: logData.Logger, logData: logData, records: services.NewRecordService(nil)}
	// dxf-go 的解析日志默认直接写 stderr
	core.Log.SetPrefix("")
	core.Log.SetOutput(logger.Writer(a.log.With().Str("lib", "dxf-go").Logger(), zerolog.DebugLevel))
	if cfg.Database != "" {
		db, err := config.InitDatabase(cfg.Database)
		if err != nil {
			logData.Close()
			return nil, err
		}
		a.records = services.NewRecordService(db)
	}
	return a, nil
}

func (a *app) close() {
	a.logData.Close()
}

func (a *app) options() (services.ConvertOptions, error) {
	policy, err := SvgAnnotate.ParsePolicy(a.cfg.Policy)
	if err != nil {
		return services.ConvertOptions{}, err
	}
	style := SvgRender.DefaultStyle
	style.Foreground = a.cfg.Foreground
	style.FigureSize = a.cfg.FigureSize
	style.DPI = a.cfg.DPI
	style.LineWidth = a.cfg.LineWidth
	return services.ConvertOptions{
		Layers:    a.cfg.VisibleLayers(),
		Policy:    policy,
		Style:     style,
		Extension: a.cfg.Extension,
	}, nil
}

func (a *app) service() (*services.ConvertService, error) {
	opts, err := a.options()
	if err != nil {
		return nil, err
	}
	return services.NewConvertService(opts, a.records, a.log), nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	f := &flags{}
	root := &cobra.Command{
		Use:           "dxfsvg",
		Short:         "DXF 转带标注注释的 SVG",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "config.xml", "XML 配置文件")
	pf.StringVarP(&f.layers, "layers", "l", "", "可见图层，逗号分隔，* 为全部")
	pf.StringVar(&f.policy, "policy", "", "标注分配方式: first | sequential")
	pf.StringVar(&f.foreground, "fg", "", "前景色")
	pf.Float64Var(&f.figureSize, "figsize", 0, "图形长边（英寸）")
	pf.Float64Var(&f.dpi, "dpi", 0, "DPI")
	pf.Float64Var(&f.lineWidth, "linewidth", 0, "线宽（pt）")
	pf.StringVar(&f.database, "db", "", "sqlite 记录库路径")
	pf.StringVar(&f.logPath, "log", "", "日志文件，默认输出到终端")
	pf.StringVar(&f.logLevel, "log-level", "", "日志级别")

	convertCmd := &cobra.Command{
		Use:   "convert [dir|file.dxf]",
		Short: "转换目录下全部DXF，或单个文件",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := f.load()
			if err != nil {
				return err
			}
			defer a.close()
			svc, err := a.service()
			if err != nil {
				return err
			}

			input := a.cfg.InputDir
			if len(args) == 1 {
				input = args[0]
			}
			if input == "" {
				input = "."
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			info, err := os.Stat(input)
			if err != nil {
				return err
			}
			if !info.IsDir() {
				dst := services.OutputPath(input, filepath.Dir(input), a.cfg.OutputDir)
				if err := os.MkdirAll(filepath.Dir(dst), os.ModePerm); err != nil {
					return err
				}
				res, err := svc.ConvertFile(ctx, input, dst)
				if err != nil {
					return err
				}
				fmt.Printf("%s -> %s (%d labels, %d comments)\n", res.Source, res.Output, len(res.Labels), res.Comments)
				return nil
			}

			report, err := svc.ConvertDir(ctx, input, a.cfg.OutputDir)
			if report != nil {
				for _, r := range report.Converted {
					fmt.Printf("%s -> %s (%d labels, %d comments)\n", r.Source, r.Output, len(r.Labels), r.Comments)
				}
				for _, fe := range report.Failed {
					fmt.Fprintf(os.Stderr, "FAILED %s\n", fe.Error())
				}
			}
			if err != nil {
				return err
			}
			if len(report.Failed) > 0 {
				return fmt.Errorf("%d 个文件转换失败", len(report.Failed))
			}
			return nil
		},
	}
	convertCmd.Flags().StringVarP(&f.outDir, "out", "o", "", "输出目录，默认与输入同目录")

	layersCmd := &cobra.Command{
		Use:   "layers file.dxf",
		Short: "列出图层及实体数量",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := CadDoc.Open(args[0])
			if err != nil {
				return err
			}
			return printJSON(Transformer.LayerInventory(doc))
		},
	}

	dimsCmd := &cobra.Command{
		Use:   "dims file.dxf",
		Short: "列出标注实体和几何块中的文字",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := CadDoc.Open(args[0])
			if err != nil {
				return err
			}
			return printJSON(Transformer.InspectDimensions(doc, f.layer))
		},
	}
	dimsCmd.Flags().StringVar(&f.layer, "layer", "", "只列出该图层上的标注")

	extractCmd := &cobra.Command{
		Use:   "extract file.dxf",
		Short: "输出清理后的标注文字和实测值",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := CadDoc.Open(args[0])
			if err != nil {
				return err
			}
			_, labels := Transformer.ExtractDimensions(doc)
			return printJSON(labels.All())
		},
	}

	geojsonCmd := &cobra.Command{
		Use:   "geojson file.dxf",
		Short: "多段线导出为 GeoJSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := f.load()
			if err != nil {
				return err
			}
			defer a.close()
			fc, err := Transformer.ConvertDXFFileToGeoJSON(args[0], a.cfg.VisibleLayers())
			if err != nil {
				return err
			}
			data, err := fc.MarshalJSON()
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(append(data, '\n'))
			return err
		},
	}

	previewCmd := &cobra.Command{
		Use:   "preview file.dxf out.png",
		Short: "生成PNG预览",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := f.load()
			if err != nil {
				return err
			}
			defer a.close()
			svc, err := a.service()
			if err != nil {
				return err
			}
			canvas, _, err := svc.Canvas(args[0])
			if err != nil {
				return err
			}
			defer canvas.Close()
			data, err := ImgHandler.PreviewPNG(canvas, f.size)
			if err != nil {
				return err
			}
			return os.WriteFile(args[1], data, 0o644)
		},
	}
	previewCmd.Flags().IntVar(&f.size, "size", 0, "长边像素，0 表示 figsize×dpi")

	exportCmd := &cobra.Command{
		Use:   "export file.dxf out.dxf",
		Short: "把可见图层的线条另存为DXF",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := f.load()
			if err != nil {
				return err
			}
			defer a.close()
			svc, err := a.service()
			if err != nil {
				return err
			}
			canvas, _, err := svc.Canvas(args[0])
			if err != nil {
				return err
			}
			defer canvas.Close()
			n, err := methods.ExportLayersDXF(canvas, args[1])
			if err != nil {
				return err
			}
			a.log.Info().Str("file", args[1]).Int("polylines", n).Msg("已导出DXF")
			return nil
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "启动HTTP服务",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := f.load()
			if err != nil {
				return err
			}
			defer a.close()
			if _, err := a.options(); err != nil {
				return err
			}
			if err := os.MkdirAll(a.cfg.TempDir, os.ModePerm); err != nil {
				return err
			}

			gin.SetMode(gin.ReleaseMode)
			r := gin.New()
			r.Use(gin.Recovery())
			uc := views.NewDxfController(a.cfg, a.records, a.log)
			defer uc.Close()
			routers.DxfRouters(r, uc)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			go uc.CleanTemp(ctx, 10*time.Minute, time.Hour)

			a.log.Info().Str("addr", a.cfg.MainRouter).Msg("服务启动")
			errCh := make(chan error, 1)
			go func() { errCh <- r.Run(a.cfg.MainRouter) }()
			select {
			case <-ctx.Done():
				return nil
			case err := <-errCh:
				return err
			}
		},
	}
	serveCmd.Flags().StringVar(&f.listen, "listen", "", "监听地址")

	root.AddCommand(convertCmd, layersCmd, dimsCmd, extractCmd, geojsonCmd, previewCmd, exportCmd, serveCmd)

	if err := root.ExecuteContext(context.Background()); err != nil {
		var dfe *CadDoc.DocumentFormatError
		if errors.As(err, &dfe) {
			fmt.Fprintln(os.Stderr, "DXF格式错误:", strings.TrimPrefix(dfe.Error(), "invalid DXF document "))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
