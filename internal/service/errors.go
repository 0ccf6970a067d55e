package service

import (
	"errors"
	"fmt"
)

// 服务层错误分类。handler 通过 errors.Is 映射到 HTTP 状态码，
// 错误文本形如 "<分类>: <原因>"。
var (
	ErrDatabase        = errors.New("Database error")
	ErrInference       = errors.New("Error generating answer")
	ErrSpeech          = errors.New("Error synthesizing speech")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrConflict        = errors.New("conflict")
)

func classify(category, err error) error {
	return fmt.Errorf("%w: %w", category, err)
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
