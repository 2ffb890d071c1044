package CadDoc

import (
	"errors"
	"strconv"
)

var (
	errBinaryDXF    = errors.New("binary DXF is not supported")
	errOddTagStream = errors.New("group code without value")
	errNoSections   = errors.New("no DXF sections found")
)

// DocumentFormatError 表示DXF文件无法读取或结构损坏
type DocumentFormatError struct {
	Path string
	Line int
	Err  error
}

func (err *DocumentFormatError) Error() string {
	msg := "invalid DXF document"
	if err.Path != "" {
		msg += " " + strconv.Quote(err.Path)
	}
	if err.Line > 0 {
		msg += " (line " + strconv.Itoa(err.Line) + ")"
	}
	if err.Err != nil {
		msg += ": " + err.Err.Error()
	}
	return msg
}

func (err *DocumentFormatError) Unwrap() error {
	return err.Err
}
