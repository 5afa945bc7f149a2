package task

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ecodeclub/ewatch/internal/errs"
	"github.com/ecodeclub/ewatch/internal/executor"
	exechttp "github.com/ecodeclub/ewatch/internal/executor/http"
	"github.com/ecodeclub/ewatch/internal/scheduler"
)

// Task 一个具名的监听任务
// 定时抓取 url，内容指纹变化时投递回调并依次执行 patch
// 任务本身不做持久化，状态变化时通过 Subscribe 注册的监听者通知出去
type Task struct {
	mux sync.Mutex
	cfg Config
	// running single-flight 标记，只在一次 Run 进行期间为 true
	running atomic.Bool
	timer   scheduler.Timer
	// scheMux 串行化 Schedule 调用，保证同一时刻只有一个定时器
	scheMux sync.Mutex

	client  executor.Client
	patches PatchResolver
	logger  *slog.Logger
	now     func() time.Time

	lisMux    sync.Mutex
	listeners map[int]func(Config)
	lisID     int
	// notifyMux 从修改到通知全程持有，监听者按修改的顺序收到快照
	// 加锁顺序 notifyMux -> scheMux -> mux
	notifyMux sync.Mutex
}

type Option func(t *Task)

func WithClient(c executor.Client) Option {
	return func(t *Task) {
		t.client = c
	}
}

func WithPatches(r PatchResolver) Option {
	return func(t *Task) {
		t.patches = r
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(t *Task) {
		t.logger = l
	}
}

// WithClock 替换时间来源，epoch 的换算与 created/updated 都以它为准
func WithClock(now func() time.Time) Option {
	return func(t *Task) {
		t.now = now
	}
}

// New 根据配置记录创建任务
// name 与 url 不能为空；cron/expireAt 中小于 1,000,000 的数值视为相对当前时间的秒数
func New(cfg Config, opts ...Option) (*Task, error) {
	if cfg.Name == "" {
		return nil, errs.ErrNameRequired
	}
	if cfg.URL == "" {
		return nil, errs.ErrURLRequired
	}
	if cfg.State == "" {
		cfg.State = StateActive
	}
	if !cfg.State.Valid() {
		return nil, errs.NewInvalidStateError(string(cfg.State))
	}
	if cfg.Cron.Expr != "" {
		if _, err := scheduler.ParseCron(cfg.Cron.Expr); err != nil {
			return nil, err
		}
	}

	t := &Task{
		client:    exechttp.NewExecutor(http.DefaultClient),
		logger:    slog.Default(),
		now:       time.Now,
		listeners: make(map[int]func(Config)),
	}
	for _, opt := range opts {
		opt(t)
	}

	now := t.now().Unix()
	cfg.Cron.At = normalizeEpoch(cfg.Cron.At, now)
	cfg.ExpireAt = normalizeEpoch(cfg.ExpireAt, now)
	if cfg.Created == 0 {
		cfg.Created = now
	}
	if cfg.Updated == 0 {
		cfg.Updated = cfg.Created
	}
	cfg.Patches = append([]string(nil), cfg.Patches...)
	cfg.Last = cfg.Last.clone()
	cfg.Running = false
	t.cfg = cfg
	return t, nil
}

func (t *Task) String() string {
	return fmt.Sprintf("WatchTask<%s>", t.cfg.Name)
}

func (t *Task) Name() string {
	return t.cfg.Name
}

// Snapshot 任务当前的序列化形式，不包含定时器
func (t *Task) Snapshot() Config {
	t.mux.Lock()
	defer t.mux.Unlock()
	return t.snapshot()
}

func (t *Task) snapshot() Config {
	cfg := t.cfg
	cfg.Patches = append([]string(nil), t.cfg.Patches...)
	cfg.Last = t.cfg.Last.clone()
	cfg.Running = t.running.Load()
	return cfg
}

func (t *Task) State() State {
	t.mux.Lock()
	defer t.mux.Unlock()
	return t.cfg.State
}

func (t *Task) URL() string {
	t.mux.Lock()
	defer t.mux.Unlock()
	return t.cfg.URL
}

func (t *Task) Hash() string {
	t.mux.Lock()
	defer t.mux.Unlock()
	return t.cfg.Hash
}

func (t *Task) Cron() Cron {
	t.mux.Lock()
	defer t.mux.Unlock()
	return t.cfg.Cron
}

func (t *Task) Patches() []string {
	t.mux.Lock()
	defer t.mux.Unlock()
	return append([]string(nil), t.cfg.Patches...)
}

func (t *Task) Counts() Counts {
	t.mux.Lock()
	defer t.mux.Unlock()
	return t.cfg.Counts
}

func (t *Task) Last() Last {
	t.mux.Lock()
	defer t.mux.Unlock()
	return t.cfg.Last.clone()
}

func (t *Task) Updated() int64 {
	t.mux.Lock()
	defer t.mux.Unlock()
	return t.cfg.Updated
}

// Running 是否有一次 Run 正在进行
func (t *Task) Running() bool {
	return t.running.Load()
}

// 下面的 setter 不会通知监听者，也不会移动定时器
// patch 里修改任务之后由 patch 流程统一通知

func (t *Task) SetURL(url string) error {
	if url == "" {
		return errs.ErrURLRequired
	}
	t.mux.Lock()
	defer t.mux.Unlock()
	t.cfg.URL = url
	return nil
}

func (t *Task) SetCallback(callback string) {
	t.mux.Lock()
	defer t.mux.Unlock()
	t.cfg.Callback = callback
}

func (t *Task) SetTimeout(seconds int) {
	t.mux.Lock()
	defer t.mux.Unlock()
	t.cfg.Timeout = seconds
}

func (t *Task) SetPatches(names []string) {
	t.mux.Lock()
	defer t.mux.Unlock()
	t.cfg.Patches = append([]string(nil), names...)
}

// SetCron 修改调度配置，需要再调用 Schedule 才会生效
func (t *Task) SetCron(c Cron) error {
	if c.Expr != "" {
		if _, err := scheduler.ParseCron(c.Expr); err != nil {
			return err
		}
	}
	t.mux.Lock()
	defer t.mux.Unlock()
	c.At = normalizeEpoch(c.At, t.now().Unix())
	t.cfg.Cron = c
	return nil
}

func (t *Task) SetExpireAt(epoch int64) {
	t.mux.Lock()
	defer t.mux.Unlock()
	t.cfg.ExpireAt = normalizeEpoch(epoch, t.now().Unix())
}

// Activate 激活任务，并在定时器存在且未运行时启动它
func (t *Task) Activate() bool {
	return t.transition(StateActive)
}

// Deactivate 停止任务与定时器，不会打断正在进行的 Run
func (t *Task) Deactivate() bool {
	return t.transition(StateStopped)
}

// Expire 任务过期，之后定时器不会再触发
func (t *Task) Expire() bool {
	return t.transition(StateExpired)
}

// ExpireIfDue expireAt 已到期时让任务过期
func (t *Task) ExpireIfDue(now time.Time) bool {
	t.mux.Lock()
	due := t.cfg.ExpireAt != 0 && now.Unix() >= t.cfg.ExpireAt && t.cfg.State != StateExpired
	t.mux.Unlock()
	if !due {
		return false
	}
	return t.Expire()
}

// transition 目标状态与当前状态相同时什么也不做并返回 false
func (t *Task) transition(s State) bool {
	t.notifyMux.Lock()
	defer t.notifyMux.Unlock()

	// 定时器的启停与状态修改在 scheMux 内完成，和 Schedule 互斥
	t.scheMux.Lock()
	t.mux.Lock()
	if t.cfg.State == s {
		t.mux.Unlock()
		t.scheMux.Unlock()
		return false
	}
	t.cfg.State = s
	t.cfg.Updated = t.now().Unix()
	tm := t.timer
	snap := t.snapshot()
	t.mux.Unlock()
	if tm != nil {
		if s == StateActive {
			if !tm.Running() {
				tm.Start()
			}
		} else if tm.Running() {
			tm.Stop()
		}
	}
	t.scheMux.Unlock()

	t.logger.Info("task: 状态变更", "task", snap.Name, "state", s)
	t.notify(snap)
	return true
}

// Subscribe 注册变更监听，任务需要被持久化时同步调用 fn
// 快照按修改顺序逐个投递，fn 里可以读取任务，但不能再修改任务的状态
// 返回的函数用于取消监听
func (t *Task) Subscribe(fn func(Config)) func() {
	t.lisMux.Lock()
	defer t.lisMux.Unlock()
	id := t.lisID
	t.lisID++
	t.listeners[id] = fn
	return func() {
		t.lisMux.Lock()
		defer t.lisMux.Unlock()
		delete(t.listeners, id)
	}
}

func (t *Task) notify(snap Config) {
	t.lisMux.Lock()
	fns := make([]func(Config), 0, len(t.listeners))
	for _, fn := range t.listeners {
		fns = append(fns, fn)
	}
	t.lisMux.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

// touch 更新 updated 并通知监听者
func (t *Task) touch(mutate func(cfg *Config)) {
	t.notifyMux.Lock()
	defer t.notifyMux.Unlock()
	t.mux.Lock()
	if mutate != nil {
		mutate(&t.cfg)
	}
	t.cfg.Updated = t.now().Unix()
	snap := t.snapshot()
	t.mux.Unlock()
	t.notify(snap)
}
