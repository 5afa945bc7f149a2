// Package sweep 定期检查任务的 expireAt，到期的任务会被置为 EXPIRED
package sweep

import (
	"context"
	"log/slog"
	"time"

	"github.com/ecodeclub/ewatch/internal/task"
)

// Source 返回当前需要检查的任务
type Source func() []*task.Task

// Once 检查一轮，返回本轮过期的任务数
func Once(now time.Time, tasks []*task.Task) int {
	cnt := 0
	for _, t := range tasks {
		if t.ExpireIfDue(now) {
			cnt++
		}
	}
	return cnt
}

// Run 按 interval 检查，启动时先检查一次。阻塞到 ctx 结束
func Run(ctx context.Context, interval time.Duration, src Source, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sweep := func() {
		if n := Once(time.Now(), src()); n > 0 {
			logger.Info("sweep: 任务已过期", "count", n)
		}
	}
	sweep()
	for {
		select {
		case <-ctx.Done():
			logger.Info("sweep: stopped")
			return
		case <-ticker.C:
			sweep()
		}
	}
}
