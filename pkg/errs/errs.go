package errs

import (
	"errors"
	"fmt"
)

// 错误分类: 上游数据源 / 存储 / 数据校验
// 任务入口捕获这些错误并转换为 Result，不向调度器或 HTTP 层抛出
var (
	ErrUpstream   = errors.New("upstream provider error")
	ErrStore      = errors.New("store error")
	ErrValidation = errors.New("validation error")
)

func Upstream(provider string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUpstream, provider, err)
}

func Store(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStore, op, err)
}

func Validation(field string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrValidation, field, err)
}

func IsUpstream(err error) bool   { return errors.Is(err, ErrUpstream) }
func IsStore(err error) bool      { return errors.Is(err, ErrStore) }
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
