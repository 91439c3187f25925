// Package service 包含了应用的业务逻辑层。
package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"nnews-go/internal/model"
)

// 业务错误分类。service 返回的错误都用 %w 包装了其中之一，
// 其余错误一律视为 Unexpected。
var (
	ErrInvalidArgument = model.ErrInvalidArgument
	ErrNotFound        = errors.New("not found")
	ErrInvalidResponse = errors.New("invalid AI response")
	ErrConflict        = errors.New("conflict")
)

func invalidArgument(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func notFound(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func conflict(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func invalidResponse(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidResponse, fmt.Sprintf(format, args...))
}

// mapNotFound 把 gorm 的 ErrRecordNotFound 转换为 ErrNotFound，其他错误原样返回。
func mapNotFound(err error, what string, id int64) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound("%s %d not found", what, id)
	}
	return err
}
