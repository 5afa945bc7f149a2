package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/ecodeclub/ewatch/internal/task"
)

// Sink 把任务的变更通知落到 Storager 里，用作 task.Subscribe 的回调
type Sink struct {
	s       Storager
	timeout time.Duration
	logger  *slog.Logger
}

func NewSink(s Storager, timeout time.Duration, logger *slog.Logger) *Sink {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{s: s, timeout: timeout, logger: logger}
}

// Persist 保存失败只记录日志，下一次变更会再次保存完整的快照
func (s *Sink) Persist(cfg task.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.s.Save(ctx, cfg); err != nil {
		s.logger.Error("storage: 保存任务失败", "task", cfg.Name, "error", err)
		return
	}
	s.logger.Debug("storage: 任务已保存", "task", cfg.Name, "updated", cfg.Updated)
}

// Attach 订阅任务的变更通知，返回取消订阅的函数
func (s *Sink) Attach(t *task.Task) func() {
	return t.Subscribe(s.Persist)
}
