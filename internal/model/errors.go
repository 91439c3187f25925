package model

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument 标记所有由调用方输入引起的校验失败。
// 实体方法返回的错误都包装了它，service 层据此映射为 400。
var ErrInvalidArgument = errors.New("invalid argument")

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}
