package task

import (
	"context"
	"net/http"
	"time"
)

// Preview 一次试抓取的结果
type Preview struct {
	Header   http.Header
	Body     []byte
	Modified bool
}

func toDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

// Test 只读地抓取一次 url，判断内容相对当前 hash 是否有变化
// 不修改任务的任何字段，可以和 Run 并发
func (t *Task) Test(ctx context.Context) (*Preview, error) {
	cfg := t.Snapshot()
	resp, err := t.client.Get(ctx, cfg.URL, toDuration(cfg.Timeout))
	if err != nil {
		return nil, err
	}
	hash := Fingerprint(resp.Header.Get("Content-Type"), resp.Body)
	return &Preview{
		Header:   resp.Header,
		Body:     resp.Body,
		Modified: hash != cfg.Hash,
	}, nil
}

// Run 抓取 url，内容变化时投递回调、记录新 hash 并执行 patch
// 同一个任务同时只会有一次 Run，重复调用直接返回 OutcomeRejected
// 失败的原因通过 error 返回，同时计入 _counts.err
func (t *Task) Run(ctx context.Context) (outcome Outcome, err error) {
	if !t.running.CompareAndSwap(false, true) {
		return OutcomeRejected, nil
	}
	defer func() {
		t.finish(err == nil)
	}()
	return t.run(ctx)
}

func (t *Task) run(ctx context.Context) (Outcome, error) {
	cfg := t.Snapshot()
	timeout := toDuration(cfg.Timeout)
	resp, err := t.client.Get(ctx, cfg.URL, timeout)
	if err != nil {
		return OutcomeFailed, err
	}
	hash := Fingerprint(resp.Header.Get("Content-Type"), resp.Body)
	if hash == cfg.Hash {
		return OutcomeUnchanged, nil
	}

	if cfg.Callback != "" {
		header := http.Header{}
		for _, key := range []string{"Date", "Content-Type"} {
			if v := resp.Header.Get(key); v != "" {
				header.Set(key, v)
			}
		}
		// 投递失败时不记录新 hash，下一次运行会重新投递同样的内容
		if _, err = t.client.Post(ctx, cfg.Callback, header, resp.Body, timeout); err != nil {
			return OutcomeFailed, err
		}
	}

	t.touch(func(c *Config) {
		c.Hash = hash
	})
	t.logger.Info("task: 内容已变化", "task", cfg.Name, "hash", hash)
	t.patch(resp.Body)
	return OutcomeChanged, nil
}

func (t *Task) finish(succ bool) {
	t.mux.Lock()
	now := t.now().Unix()
	t.cfg.Last = Last{Succ: &succ, Date: &now}
	t.cfg.Counts.Run++
	if succ {
		t.cfg.Counts.Succ++
	} else {
		t.cfg.Counts.Err++
	}
	t.mux.Unlock()
	t.running.Store(false)
}
