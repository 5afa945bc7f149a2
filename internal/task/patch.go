package task

import (
	"encoding/json"
	"fmt"
)

// Patch 内容变化之后对任务做的补充处理
// data 是响应体按 JSON 解析的结果；Apply 可以直接修改任务
type Patch interface {
	Apply(t *Task, data any) error
}

type PatchFunc func(t *Task, data any) error

func (f PatchFunc) Apply(t *Task, data any) error {
	return f(t, data)
}

// PatchResolver 按名称查找 patch
type PatchResolver interface {
	Lookup(name string) (Patch, bool)
}

// patch 依次执行配置的 patch，单个 patch 的失败只记录日志
// 没有配置 patch 时什么也不做；否则最后更新 updated 并通知一次
func (t *Task) patch(body []byte) {
	names := t.Patches()
	if len(names) == 0 {
		return
	}
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		// hash 已经落地，这里不回滚，只跳过 patch
		t.logger.Error("task: 响应体不是合法的 JSON, 跳过 patch", "task", t.cfg.Name, "error", err)
		return
	}
	for _, name := range names {
		if err := t.applyPatch(name, data); err != nil {
			t.logger.Warn("task: patch 执行失败", "task", t.cfg.Name, "patch", name, "error", err)
		}
	}
	t.touch(nil)
}

func (t *Task) applyPatch(name string, data any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	if t.patches == nil {
		return fmt.Errorf("未知的 patch %q", name)
	}
	p, ok := t.patches.Lookup(name)
	if !ok {
		return fmt.Errorf("未知的 patch %q", name)
	}
	return p.Apply(t, data)
}
