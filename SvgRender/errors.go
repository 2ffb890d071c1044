package SvgRender

import (
	"errors"
	"strconv"
)

var (
	errCanvasClosed = errors.New("canvas is closed")
	errBlockDepth   = errors.New("block nesting too deep")
)

// RenderError 绘制或写出SVG失败
type RenderError struct {
	Path string
	Err  error
}

func (err *RenderError) Error() string {
	msg := "render SVG"
	if err.Path != "" {
		msg += " " + strconv.Quote(err.Path)
	}
	return msg + ": " + err.Err.Error()
}

func (err *RenderError) Unwrap() error {
	return err.Err
}
