package SvgAnnotate

import (
	"errors"
	"strconv"
)

var errNoRoot = errors.New("no root element")

// ImageFormatError SVG无法解析或写回
type ImageFormatError struct {
	Path string
	Err  error
}

func (err *ImageFormatError) Error() string {
	msg := "invalid SVG image"
	if err.Path != "" {
		msg += " " + strconv.Quote(err.Path)
	}
	return msg + ": " + err.Err.Error()
}

func (err *ImageFormatError) Unwrap() error {
	return err.Err
}
