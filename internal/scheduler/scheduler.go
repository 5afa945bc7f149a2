package scheduler

import (
	"sync"
	"time"
)

var _ Timer = &timer{}

type timer struct {
	mux  sync.Mutex
	next nextFunc
	fire func()
	// stop 非 nil 表示触发循环正在运行
	stop chan struct{}
	once  bool
	fired bool
}

// NewCron 创建按 cron 表达式循环触发的定时器，创建后需要调用 Start
func NewCron(expr string, fire func()) (Timer, error) {
	e, err := ParseCron(expr)
	if err != nil {
		return nil, err
	}
	return &timer{next: e.Next, fire: fire}, nil
}

// NewOnce 创建在 at 时刻触发一次的定时器
// at 已经过去的话永远不会触发，触发过一次之后再 Start 也不会再触发
func NewOnce(at time.Time, fire func()) Timer {
	return &timer{
		next: func(now time.Time) time.Time {
			if at.After(now) {
				return at
			}
			return time.Time{}
		},
		fire: fire,
		once: true,
	}
}

func (t *timer) Start() {
	t.mux.Lock()
	defer t.mux.Unlock()
	if t.stop != nil || (t.once && t.fired) {
		return
	}
	stop := make(chan struct{})
	t.stop = stop
	go t.loop(stop)
}

func (t *timer) Stop() {
	t.mux.Lock()
	defer t.mux.Unlock()
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

func (t *timer) Running() bool {
	t.mux.Lock()
	defer t.mux.Unlock()
	return t.stop != nil
}

func (t *timer) loop(stop chan struct{}) {
	for {
		at := t.next(time.Now())
		if at.IsZero() {
			t.exit(stop)
			return
		}
		tm := time.NewTimer(time.Until(at))
		select {
		case <-stop:
			tm.Stop()
			return
		case <-tm.C:
		}
		if t.once {
			t.mux.Lock()
			t.fired = true
			t.mux.Unlock()
			t.exit(stop)
			// 一次性任务的回调里会 Stop 自己，放到独立的 goroutine 里避免阻塞
			go t.fire()
			return
		}
		// 回调耗时较长时下一次触发照常进行，由任务自身的 single-flight 拒绝重叠的执行
		go t.fire()
	}
}

// exit 循环自然结束时清理状态，stop 已经被替换的话不做处理
func (t *timer) exit(stop chan struct{}) {
	t.mux.Lock()
	defer t.mux.Unlock()
	if t.stop == stop {
		t.stop = nil
	}
}
