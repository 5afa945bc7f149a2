package task

import (
	"context"
	"time"

	"github.com/ecodeclub/ewatch/internal/scheduler"
)

// Schedule 按当前的 cron 重新绑定定时器
// 旧定时器总是先被停掉；只有 ACTIVE 的任务会启动新定时器
// 修改 cron 之后必须再调用一次 Schedule 才会生效
func (t *Task) Schedule() error {
	t.scheMux.Lock()
	defer t.scheMux.Unlock()

	t.mux.Lock()
	old := t.timer
	t.timer = nil
	c := t.cfg.Cron
	t.mux.Unlock()
	if old != nil {
		old.Stop()
	}
	if c.IsZero() {
		return nil
	}

	var tm scheduler.Timer
	if c.IsOnce() {
		tm = scheduler.NewOnce(time.Unix(c.At, 0), t.fireOnce)
	} else {
		var err error
		if tm, err = scheduler.NewCron(c.Expr, t.fire); err != nil {
			return err
		}
	}

	t.mux.Lock()
	t.timer = tm
	active := t.cfg.State == StateActive
	t.mux.Unlock()
	if active {
		tm.Start()
	}
	t.logger.Debug("task: 定时器已绑定", "task", t.cfg.Name, "cron", c.String(), "started", active)
	return nil
}

// Unschedule 停止并解绑定时器
func (t *Task) Unschedule() {
	t.scheMux.Lock()
	defer t.scheMux.Unlock()
	t.mux.Lock()
	tm := t.timer
	t.timer = nil
	t.mux.Unlock()
	if tm != nil {
		tm.Stop()
	}
}

// Scheduled 是否绑定了正在运行的定时器
func (t *Task) Scheduled() bool {
	t.mux.Lock()
	tm := t.timer
	t.mux.Unlock()
	return tm != nil && tm.Running()
}

func (t *Task) fire() {
	if t.State() != StateActive {
		return
	}
	outcome, err := t.Run(context.Background())
	if err != nil {
		t.logger.Warn("task: 定时执行失败", "task", t.cfg.Name, "outcome", outcome, "error", err)
		return
	}
	t.logger.Debug("task: 定时执行完成", "task", t.cfg.Name, "outcome", outcome)
}

// fireOnce 一次性任务执行完之后停止任务
func (t *Task) fireOnce() {
	if t.State() != StateActive {
		return
	}
	t.fire()
	t.Deactivate()
}
