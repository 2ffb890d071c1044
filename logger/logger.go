package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const (
	permission = 0664
)

type LogBuild struct {
	writer io.Writer
	path   string
	level  string
}

// LogData 构建好的日志器；写文件时 LogFile 非空，用完需 Close
type LogData struct {
	LogFile *os.File
	Logger  zerolog.Logger
}

func New() *LogBuild {
	return &LogBuild{}
}

// FromPath 日志写入文件（JSON 格式，追加）
func (build *LogBuild) FromPath(path string) *LogBuild {
	build.path = path
	return build
}

func (build *LogBuild) FromBuffer(w io.Writer) *LogBuild {
	build.writer = w
	return build
}

// Level debug/info/warn/error，无法识别时为 info
func (build *LogBuild) Level(level string) *LogBuild {
	build.level = level
	return build
}

func (build *LogBuild) Make() (logData *LogData, err error) {
	logData = new(LogData)
	writer := build.writer
	if writer == nil {
		writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}
	if build.path != "" {
		logData.LogFile, err = os.OpenFile(build.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return nil, err
		}
		writer = zerolog.SyncWriter(logData.LogFile)
	}
	logData.Logger = zerolog.New(writer).Level(parseLevel(build.level)).With().Timestamp().Logger()
	return
}

func (data *LogData) Close() error {
	if data.LogFile == nil {
		return nil
	}
	err := data.LogFile.Close()
	data.LogFile = nil
	return err
}

func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || s == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

type levelWriter struct {
	log   zerolog.Logger
	level zerolog.Level
}

// Writer 每次写入记一条 level 级别的日志，给只认 io.Writer 的第三方库用
func Writer(log zerolog.Logger, level zerolog.Level) io.Writer {
	return levelWriter{log: log, level: level}
}

func (w levelWriter) Write(p []byte) (int, error) {
	if msg := strings.TrimSpace(string(p)); msg != "" {
		w.log.WithLevel(w.level).Msg(msg)
	}
	return len(p), nil
}
