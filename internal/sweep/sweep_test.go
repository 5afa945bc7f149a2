package sweep

import (
	"context"
	"testing"
	"time"

	"github.com/ecodeclub/ewatch/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTask(t *testing.T, name string, expireAt int64) *task.Task {
	t.Helper()
	tk, err := task.New(task.Config{Name: name, URL: "http://example", ExpireAt: expireAt})
	require.NoError(t, err)
	return tk
}

func TestOnce(t *testing.T) {
	now := time.Now()
	past := newTask(t, "past", now.Add(-time.Minute).Unix())
	future := newTask(t, "future", now.Add(time.Hour).Unix())
	never := newTask(t, "never", 0)

	assert.Equal(t, 1, Once(now, []*task.Task{past, future, never}))
	assert.Equal(t, task.StateExpired, past.State())
	assert.Equal(t, task.StateActive, future.State())
	assert.Equal(t, task.StateActive, never.State())

	assert.Equal(t, 0, Once(now, []*task.Task{past, future, never}))
}

func TestRun(t *testing.T) {
	// 相对时间：创建后 1 秒过期
	tk := newTask(t, "soon", 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		Run(ctx, 50*time.Millisecond, func() []*task.Task { return []*task.Task{tk} }, nil)
	}()

	assert.Eventually(t, func() bool { return tk.State() == task.StateExpired }, 3*time.Second, 20*time.Millisecond)
	cancel()
	<-done
}
