package config

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"strings"
)

var MainConfig = Default()

type Config struct {
	XMLName    xml.Name `xml:"config"`
	InputDir   string   `xml:"InputDir"`
	OutputDir  string   `xml:"OutputDir"`
	Extension  string   `xml:"Extension"`
	Layers     string   `xml:"Layers"`
	Foreground string   `xml:"Foreground"`
	FigureSize float64  `xml:"FigureSize"`
	DPI        float64  `xml:"DPI"`
	LineWidth  float64  `xml:"LineWidth"`
	Policy     string   `xml:"Policy"`
	Database   string   `xml:"Database"`
	MainRouter string   `xml:"MainRouter"`
	TempDir    string   `xml:"TempDir"`
	LogPath    string   `xml:"LogPath"`
	LogLevel   string   `xml:"LogLevel"`
	CacheTTL   int      `xml:"CacheTTL"`
	CacheSize  int      `xml:"CacheSize"`
}

// Default 未配置时的取值
func Default() Config {
	c := Config{}
	c.fill()
	return c
}

func (c *Config) fill() {
	if c.Extension == "" {
		c.Extension = "dxf"
	}
	if c.Layers == "" {
		c.Layers = "KT-Dim"
	}
	if c.Foreground == "" {
		c.Foreground = "#ffffff"
	}
	if c.FigureSize <= 0 {
		c.FigureSize = 20
	}
	if c.DPI <= 0 {
		c.DPI = 300
	}
	if c.LineWidth <= 0 {
		c.LineWidth = 0.5
	}
	if c.Policy == "" {
		c.Policy = "first"
	}
	if c.MainRouter == "" {
		c.MainRouter = ":8426"
	}
	if c.TempDir == "" {
		c.TempDir = "./TempFile"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 600
	}
	if c.CacheSize <= 0 {
		c.CacheSize = 64
	}
	c.Extension = strings.TrimPrefix(strings.TrimSpace(c.Extension), ".")
}

// LoadConfig 读取XML配置。文件不存在时返回默认值，格式错误时返回错误
func LoadConfig(path string) (Config, error) {
	xmlFile, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("打开配置文件失败: %w", err)
	}
	defer xmlFile.Close()

	var c Config
	if err := xml.NewDecoder(xmlFile).Decode(&c); err != nil {
		return Config{}, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}
	c.fill()
	return c, nil
}

// VisibleLayers 逗号分隔的可见图层；"*" 表示不过滤
func (c Config) VisibleLayers() []string {
	return SplitLayers(c.Layers)
}

// SplitLayers 拆分逗号分隔的图层名，"*" 或空串得到 nil
func SplitLayers(s string) []string {
	if strings.TrimSpace(s) == "*" {
		return nil
	}
	var out []string
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}
