package app

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ecodeclub/ewatch/internal/patch"
	"github.com/ecodeclub/ewatch/internal/storage/sqlstore"
	"github.com/ecodeclub/ewatch/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func testStorage(t *testing.T) *sqlstore.Storage {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	s := sqlstore.NewStorage(db)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestApp_Load(t *testing.T) {
	ctx := context.Background()
	s := testStorage(t)
	require.NoError(t, s.Save(ctx, task.Config{
		Name:    "stored",
		State:   task.StateStopped,
		URL:     "http://stored",
		Hash:    "abc",
		Created: 2_000_000,
		Updated: 2_000_000,
	}))

	a := New(s, patch.Default(), time.Second, nil)
	require.NoError(t, a.Load(ctx, []task.Config{
		{Name: "stored", URL: "http://seed"},
		{Name: "seed", URL: "http://seed"},
	}))

	tasks := a.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "seed", tasks[0].Name())
	assert.Equal(t, "stored", tasks[1].Name())

	stored, ok := a.Get("stored")
	require.True(t, ok)
	assert.Equal(t, "http://stored", stored.URL())
	assert.Equal(t, "abc", stored.Hash())

	cfg, err := s.Get(ctx, "seed")
	require.NoError(t, err)
	assert.Equal(t, "http://seed", cfg.URL)

	_, ok = a.Get("missing")
	assert.False(t, ok)
}

func TestApp_LoadInvalidSeed(t *testing.T) {
	a := New(testStorage(t), patch.Default(), time.Second, nil)
	assert.Error(t, a.Load(context.Background(), []task.Config{{Name: "bad"}}))
}

func TestApp_RunPersists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"stop":true}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	s := testStorage(t)
	a := New(s, patch.Default(), time.Second, nil)
	require.NoError(t, a.Load(ctx, []task.Config{
		{Name: "t1", URL: srv.URL, Patches: []string{patch.NameStop}, Cron: task.Cron{At: 1}},
	}))

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.Start(runCtx, time.Hour)
	}()

	tk, _ := a.Get("t1")
	assert.Eventually(t, func() bool {
		cfg, err := s.Get(ctx, "t1")
		return err == nil && cfg.State == task.StateStopped && cfg.Hash != ""
	}, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, int64(1), tk.Counts().Run)

	cancel()
	<-done
	assert.False(t, tk.Scheduled())
}
