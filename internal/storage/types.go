package storage

import (
	"context"

	"github.com/ecodeclub/ewatch/internal/task"
)

// Storager 任务序列化形式的持久化
// 任务本身不做持久化，由 Sink 在收到变更通知时调用 Save
type Storager interface {
	TaskDAO
}

type TaskDAO interface {
	// Get 任务不存在时返回 errs.ErrTaskNotFound
	Get(ctx context.Context, name string) (task.Config, error)
	List(ctx context.Context) ([]task.Config, error)
	// Save 不存在则插入，存在则覆盖
	Save(ctx context.Context, cfg task.Config) error
	Delete(ctx context.Context, name string) error
}
