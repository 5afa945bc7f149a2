package errs

import (
	"errors"
	"fmt"
)

var (
	ErrNameRequired = errors.New("ewatch: 任务名称不能为空")
	ErrURLRequired  = errors.New("ewatch: 任务 url 不能为空")
	ErrInvalidState = errors.New("ewatch: 非法任务状态")
	ErrInvalidCron  = errors.New("ewatch: 非法 cron 表达式")
	ErrTaskNotFound = errors.New("ewatch: 任务不存在")
	ErrBodyTooLarge = errors.New("ewatch: 响应体超过上限")
)

// StatusError 对端返回了非 200 的状态码
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ewatch: 非预期的响应状态码 %d", e.Code)
}

func NewStatusError(code int) error {
	return &StatusError{Code: code}
}

func NewInvalidStateError(state string) error {
	return fmt.Errorf("%w %q", ErrInvalidState, state)
}

func NewInvalidCronError(expr string, cause error) error {
	return fmt.Errorf("%w %q: %v", ErrInvalidCron, expr, cause)
}

func NewTaskNotFoundError(name string) error {
	return fmt.Errorf("%w %s", ErrTaskNotFound, name)
}

func NewSaveTaskError(name string, cause error) error {
	return fmt.Errorf("ewatch: 保存任务失败 %s: %w", name, cause)
}

func NewLoadTaskError(name string, cause error) error {
	return fmt.Errorf("ewatch: 查询任务失败 %s: %w", name, cause)
}

func NewDeleteTaskError(name string, cause error) error {
	return fmt.Errorf("ewatch: 删除任务失败 %s: %w", name, cause)
}

func NewBodyTooLargeError(url string, limit int64) error {
	return fmt.Errorf("%w %d 字节: %s", ErrBodyTooLarge, limit, url)
}
