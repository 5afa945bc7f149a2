package scheduler

import (
	"errors"
	"strings"
	"time"

	"github.com/ecodeclub/ewatch/internal/errs"
	"github.com/gorhill/cronexpr"
)

// Timer 任务绑定的定时器，同一个 Timer 不会同时存在两个触发循环
type Timer interface {
	// Start 启动定时器，已经在运行时什么也不做
	Start()
	// Stop 停止定时器，不会打断已经触发的回调
	Stop()
	Running() bool
}

// ParseCron 解析 cron 表达式
// 5 段为 分 时 日 月 周，6 段在最前面多一个秒，7 段交给 cronexpr 按 秒...年 解析
func ParseCron(expr string) (*cronexpr.Expression, error) {
	fields := strings.Fields(expr)
	if len(fields) == 0 {
		return nil, errs.NewInvalidCronError(expr, errEmptyExpr)
	}
	if len(fields) == 6 {
		fields = append(fields, "*")
	}
	e, err := cronexpr.Parse(strings.Join(fields, " "))
	if err != nil {
		return nil, errs.NewInvalidCronError(expr, err)
	}
	return e, nil
}

var errEmptyExpr = errors.New("empty expression")

// nextFunc 根据当前时间计算下一次触发时间，返回零值表示不再触发
type nextFunc func(now time.Time) time.Time
