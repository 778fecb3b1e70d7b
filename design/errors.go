package design

import (
	"errors"
	"fmt"
)

// 导出流程的错误分类。
var (
	ErrFontUnavailable      = errors.New("font unavailable")
	ErrOutlineFailure       = errors.New("outline failure")
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	ErrMalformedLayer       = errors.New("malformed input layer")
	ErrMissingDimensions    = errors.New("missing physical dimensions")
	ErrNoUsableFont         = errors.New("no usable font")
)

// ErrorKind 是粗粒度的错误类别，便于日志与报告。
type ErrorKind string

const (
	KindFontUnavailable      ErrorKind = "font_unavailable"
	KindOutlineFailure       ErrorKind = "outline_failure"
	KindEmbeddingUnavailable ErrorKind = "embedding_unavailable"
	KindMalformedLayer       ErrorKind = "malformed_layer"
	KindMissingDimensions    ErrorKind = "missing_dimensions"
	KindNoUsableFont         ErrorKind = "no_usable_font"
	KindNotFound             ErrorKind = "not_found"
	KindInvalidConfig        ErrorKind = "invalid_config"
)

// OpError 为底层错误附加操作名、类别与对象（字体名、图层 ID 等）。
type OpError struct {
	Op      string
	Kind    ErrorKind
	Subject string
	Err     error
}

func (e *OpError) Error() string {
	if e == nil {
		return "<nil>"
	}
	base := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Subject != "" {
		base += fmt.Sprintf(" (%s)", e.Subject)
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *OpError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsKind 判断错误链中是否存在指定类别的 OpError。
func IsKind(err error, kind ErrorKind) bool {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Kind == kind
	}
	return false
}
