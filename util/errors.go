package util

import (
	"errors"
	"fmt"
)

// Kind 错误分类，用于批处理时按图片汇报
type Kind int

const (
	KindProcess Kind = iota
	KindRead
	KindDecode
	KindWrite
)

func (k Kind) String() string {
	switch k {
	case KindRead:
		return "read"
	case KindDecode:
		return "decode"
	case KindWrite:
		return "write"
	default:
		return "process"
	}
}

// ImageError 携带失败的路径和分类
type ImageError struct {
	Kind Kind
	Path string
	Err  error
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Path, e.Err)
}

func (e *ImageError) Unwrap() error {
	return e.Err
}

func newImageError(kind Kind, path string, err error) error {
	return &ImageError{Kind: kind, Path: path, Err: err}
}

// KindOf 返回 err 的分类，未分类的错误归为 KindProcess
func KindOf(err error) Kind {
	var ie *ImageError
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return KindProcess
}
