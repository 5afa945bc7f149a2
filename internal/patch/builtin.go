package patch

import (
	"fmt"

	"github.com/ecodeclub/ewatch/internal/task"
)

const (
	NameReschedule = "reschedule"
	NameFollow     = "follow"
	NameStop       = "stop"
)

func field(data any, key string) (any, bool) {
	m, ok := data.(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := m[key]
	return v, ok
}

// Reschedule 响应里带 cron 字段时用它替换任务的调度并重新绑定定时器
func Reschedule(t *task.Task, data any) error {
	v, ok := field(data, "cron")
	if !ok {
		return nil
	}
	var c task.Cron
	switch val := v.(type) {
	case string:
		c = task.ParseCron(val)
	case float64:
		c = task.Cron{At: int64(val)}
	default:
		return fmt.Errorf("cron 字段类型错误 %T", v)
	}
	if c == t.Cron() {
		return nil
	}
	if err := t.SetCron(c); err != nil {
		return err
	}
	return t.Schedule()
}

// Follow 响应里带 next 字段时把任务的 url 换成它，用于翻页类的资源
func Follow(t *task.Task, data any) error {
	v, ok := field(data, "next")
	if !ok {
		return nil
	}
	next, ok := v.(string)
	if !ok {
		return fmt.Errorf("next 字段类型错误 %T", v)
	}
	if next == "" {
		return nil
	}
	return t.SetURL(next)
}

// Stop 响应里 stop 为 true 时停止任务
func Stop(t *task.Task, data any) error {
	v, ok := field(data, "stop")
	if !ok {
		return nil
	}
	if stop, _ := v.(bool); stop {
		t.Deactivate()
	}
	return nil
}
