// Package app 把配置、存储、patch 与任务组装起来
package app

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ecodeclub/ewatch/internal/errs"
	"github.com/ecodeclub/ewatch/internal/storage"
	"github.com/ecodeclub/ewatch/internal/sweep"
	"github.com/ecodeclub/ewatch/internal/task"
)

type App struct {
	s       storage.Storager
	sink    *storage.Sink
	patches task.PatchResolver
	logger  *slog.Logger
	opts    []task.Option

	mux   sync.RWMutex
	tasks map[string]*task.Task
}

func New(s storage.Storager, patches task.PatchResolver, saveTimeout time.Duration, logger *slog.Logger,
	opts ...task.Option) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		s:       s,
		sink:    storage.NewSink(s, saveTimeout, logger),
		patches: patches,
		logger:  logger,
		opts:    opts,
		tasks:   make(map[string]*task.Task),
	}
}

// Load 加载存储里的任务，再用 seeds 补充存储里没有的任务
// 新任务会立即保存一次
func (a *App) Load(ctx context.Context, seeds []task.Config) error {
	stored, err := a.s.List(ctx)
	if err != nil {
		return err
	}
	for _, cfg := range stored {
		if _, err = a.add(cfg); err != nil {
			return err
		}
	}
	for _, cfg := range seeds {
		_, err = a.s.Get(ctx, cfg.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, errs.ErrTaskNotFound) {
			return err
		}
		t, err := a.add(cfg)
		if err != nil {
			return err
		}
		if err = a.s.Save(ctx, t.Snapshot()); err != nil {
			return err
		}
		a.logger.Info("app: 新建任务", "task", t.Name())
	}
	return nil
}

func (a *App) add(cfg task.Config) (*task.Task, error) {
	opts := append([]task.Option{task.WithPatches(a.patches), task.WithLogger(a.logger)}, a.opts...)
	t, err := task.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	a.sink.Attach(t)
	a.mux.Lock()
	a.tasks[t.Name()] = t
	a.mux.Unlock()
	return t, nil
}

func (a *App) Get(name string) (*task.Task, bool) {
	a.mux.RLock()
	defer a.mux.RUnlock()
	t, ok := a.tasks[name]
	return t, ok
}

// Tasks 按名称排序
func (a *App) Tasks() []*task.Task {
	a.mux.RLock()
	res := make([]*task.Task, 0, len(a.tasks))
	for _, t := range a.tasks {
		res = append(res, t)
	}
	a.mux.RUnlock()
	sort.Slice(res, func(i, j int) bool {
		return res[i].Name() < res[j].Name()
	})
	return res
}

// Start 绑定所有任务的定时器并运行过期检查，阻塞到 ctx 结束，结束时停止所有定时器
func (a *App) Start(ctx context.Context, sweepInterval time.Duration) {
	for _, t := range a.Tasks() {
		if err := t.Schedule(); err != nil {
			a.logger.Error("app: 任务调度失败", "task", t.Name(), "error", err)
		}
	}
	sweep.Run(ctx, sweepInterval, a.Tasks, a.logger)
	for _, t := range a.Tasks() {
		t.Unschedule()
	}
}
